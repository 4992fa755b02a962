package models

import (
	"testing"

	"github.com/crisislink/crisislink/server/auth"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestCreateUserHashesPassword(t *testing.T) {
	InitializeTestDb()

	user := testUserRecord(t, "tony")
	assert.NotEqual(t, "very-secure", user.Password)

	storedHash, err := FindUserPassword("tony@avengers.com")
	assert.Nil(t, err)
	assert.True(t, auth.CheckPasswordHash("very-secure", storedHash))
	assert.False(t, auth.CheckPasswordHash("guess", storedHash))
}

func TestUpdateUserRehashesPassword(t *testing.T) {
	InitializeTestDb()

	user := testUserRecord(t, "tony")

	err := user.Update(map[string]interface{}{
		"email":    "iron-man@avengers.com",
		"password": "even-more-secure",
	})
	assert.Nil(t, err)

	found, err := FindUserBy("id", user.ID)
	assert.Nil(t, err)
	assert.Equal(t, "iron-man@avengers.com", found.Email)

	storedHash, err := FindUserPassword("iron-man@avengers.com")
	assert.Nil(t, err)
	assert.True(t, auth.CheckPasswordHash("even-more-secure", storedHash))
	assert.False(t, auth.CheckPasswordHash("very-secure", storedHash))
}

func TestDeleteUser(t *testing.T) {
	InitializeTestDb()

	user := testUserRecord(t, "tony")
	assert.Nil(t, DeleteUser(user.ID))

	_, err := FindUserBy("id", user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAtLeastOneUserExists(t *testing.T) {
	InitializeTestDb()

	exists, err := AtLeastOneUserExists()
	assert.Nil(t, err)
	assert.False(t, exists)

	testUserRecord(t, "tony")

	exists, err = AtLeastOneUserExists()
	assert.Nil(t, err)
	assert.True(t, exists)
}

func TestFindUserByNeverReturnsPassword(t *testing.T) {
	InitializeTestDb()

	testUserRecord(t, "tony")

	found, err := FindUserBy("username", "tony")
	assert.Nil(t, err)
	assert.Equal(t, "tony@avengers.com", found.Email)
	assert.Empty(t, found.Password)
}
