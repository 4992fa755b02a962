package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestDeleteContactRenormalizesPriorities(t *testing.T) {
	InitializeTestDb()

	user := testUserRecord(t, "tony")
	err := CreateProfile(testProfileRecord(user.ID), []Contact{
		{Name: "Pepper Potts", Phone: "+12345678900", Priority: 1},
		{Name: "Happy Hogan", Phone: "+12345678901", Priority: 2},
		{Name: "James Rhodes", Phone: "+12345678902", Priority: 3},
	})
	assert.Nil(t, err)

	contacts, err := ContactsByPriority(user.ID)
	assert.Nil(t, err)

	// Delete the middle contact; the remaining two close the gap
	err = DeleteContact(user.ID, contacts[1].ID)
	assert.Nil(t, err)

	remaining, err := ContactsByPriority(user.ID)
	assert.Nil(t, err)
	assert.Len(t, remaining, 2)
	assert.Equal(t, "Pepper Potts", remaining[0].Name)
	assert.Equal(t, 1, remaining[0].Priority)
	assert.Equal(t, "James Rhodes", remaining[1].Name)
	assert.Equal(t, 2, remaining[1].Priority)
}

func TestDeleteContactMissingRecord(t *testing.T) {
	InitializeTestDb()

	user := testUserRecord(t, "tony")
	err := DeleteContact(user.ID, 404)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestDeleteContactScopedToUser(t *testing.T) {
	InitializeTestDb()

	tony := testUserRecord(t, "tony")
	steve := testUserRecord(t, "steve")

	err := CreateProfile(testProfileRecord(tony.ID), []Contact{
		{Name: "Pepper Potts", Phone: "+12345678900", Priority: 1},
	})
	assert.Nil(t, err)

	contacts, err := ContactsByPriority(tony.ID)
	assert.Nil(t, err)

	// Another user cannot delete tony's contact
	err = DeleteContact(steve.ID, contacts[0].ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	remaining, err := ContactsByPriority(tony.ID)
	assert.Nil(t, err)
	assert.Len(t, remaining, 1)
}
