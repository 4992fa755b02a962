package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testUserRecord(t *testing.T, username string) *User {
	user := &User{
		Username: username,
		Email:    username + "@avengers.com",
		Password: "very-secure",
	}
	assert.Nil(t, CreateUser(user))
	return user
}

func testProfileRecord(userID uint) *Profile {
	return &Profile{
		UserID:      userID,
		FullName:    "Tony Stark",
		DateOfBirth: "1990-05-29",
		BloodType:   "O+",
		Allergies: TermList{
			{Kind: TermKindCatalog, Value: "Penicillin"},
			{Kind: TermKindCustom, Value: "Chitauri dust"},
		},
		Languages:    StringList{"English"},
		PrivacyFlags: DefaultPrivacyFlags(),
	}
}

func TestCreateAndFindProfile(t *testing.T) {
	InitializeTestDb()

	user := testUserRecord(t, "tony")
	contacts := []Contact{
		{Name: "Pepper Potts", Phone: "+12345678900", Priority: 1},
		{Name: "Happy Hogan", Phone: "+12345678901", Priority: 2},
	}

	err := CreateProfile(testProfileRecord(user.ID), contacts)
	assert.Nil(t, err)

	// JSON columns survive the roundtrip through sqlite
	found, err := FindProfileByUserID(user.ID)
	assert.Nil(t, err)
	assert.Equal(t, "Tony Stark", found.FullName)
	assert.Len(t, found.Allergies, 2)
	assert.Equal(t, TermKindCustom, found.Allergies[1].Kind)
	assert.True(t, found.PrivacyFlags[FieldGroupBloodType])
	assert.False(t, found.PrivacyFlags[FieldGroupAllergies])

	byUsername, err := FindProfileByUsername("tony")
	assert.Nil(t, err)
	assert.Equal(t, found.ID, byUsername.ID)

	stored, err := ContactsByPriority(user.ID)
	assert.Nil(t, err)
	assert.Len(t, stored, 2)
	assert.Equal(t, "Pepper Potts", stored[0].Name)

	exists, err := ProfileExists(user.ID)
	assert.Nil(t, err)
	assert.True(t, exists)
}

func TestUpdateProfileReplacesContacts(t *testing.T) {
	InitializeTestDb()

	user := testUserRecord(t, "tony")
	err := CreateProfile(testProfileRecord(user.ID), []Contact{
		{Name: "Pepper Potts", Phone: "+12345678900", Priority: 1},
	})
	assert.Nil(t, err)

	updated := testProfileRecord(user.ID)
	updated.BloodType = "AB-"
	err = UpdateProfile(user.ID, updated, []Contact{
		{Name: "James Rhodes", Phone: "+12345678902", Priority: 5},
		{Name: "Happy Hogan", Phone: "+12345678901", Priority: 2},
	})
	assert.Nil(t, err)

	found, err := FindProfileByUserID(user.ID)
	assert.Nil(t, err)
	assert.Equal(t, "AB-", found.BloodType)

	// Old contacts are gone, new ones carry dense priorities
	contacts, err := ContactsByPriority(user.ID)
	assert.Nil(t, err)
	assert.Len(t, contacts, 2)
	assert.Equal(t, "Happy Hogan", contacts[0].Name)
	assert.Equal(t, 1, contacts[0].Priority)
	assert.Equal(t, "James Rhodes", contacts[1].Name)
	assert.Equal(t, 2, contacts[1].Priority)
}

func TestUpdateProfileMissingRecord(t *testing.T) {
	InitializeTestDb()

	user := testUserRecord(t, "tony")
	err := UpdateProfile(user.ID, testProfileRecord(user.ID), nil)
	assert.NotNil(t, err)
}

func TestMedicalTermUnmarshalShapes(t *testing.T) {
	var fromObject MedicalTerm
	assert.Nil(t, json.Unmarshal([]byte(`{"kind":"catalog","value":"Penicillin"}`), &fromObject))
	assert.Equal(t, MedicalTerm{Kind: TermKindCatalog, Value: "Penicillin"}, fromObject)

	// Legacy entries used "type" instead of "kind"
	var fromLegacy MedicalTerm
	assert.Nil(t, json.Unmarshal([]byte(`{"type":"custom","value":"Chitauri dust"}`), &fromLegacy))
	assert.Equal(t, MedicalTerm{Kind: TermKindCustom, Value: "Chitauri dust"}, fromLegacy)

	// Bare strings become custom terms
	var fromString MedicalTerm
	assert.Nil(t, json.Unmarshal([]byte(`"Shrapnel"`), &fromString))
	assert.Equal(t, MedicalTerm{Kind: TermKindCustom, Value: "Shrapnel"}, fromString)
}
