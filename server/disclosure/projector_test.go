package disclosure

import (
	"testing"
	"time"

	"github.com/crisislink/crisislink/server/models"
	"github.com/stretchr/testify/assert"
)

func testProfile() *models.Profile {
	return &models.Profile{
		UserID:      1,
		FullName:    "Tony Stark",
		DateOfBirth: "1990-05-29",
		BloodType:   "O+",
		Allergies: models.TermList{
			{Kind: models.TermKindCatalog, Value: "Penicillin"},
		},
		Medications: models.TermList{
			{Kind: models.TermKindCustom, Value: "Experimental arc serum"},
		},
		Conditions:          models.TermList{},
		DNRStatus:           false,
		OrganDonor:          true,
		SpecialInstructions: "Remove chest reactor with care",
		Languages:           models.StringList{"English"},
		PrivacyFlags: models.PrivacyFlags{
			models.FieldGroupName:        true,
			models.FieldGroupBloodType:   true,
			models.FieldGroupAllergies:   false,
			models.FieldGroupMedications: false,
			models.FieldGroupConditions:  false,
			models.FieldGroupContacts:    false,
		},
	}
}

func testContacts() []models.Contact {
	return []models.Contact{
		{UserID: 1, Name: "Pepper Potts", Phone: "+12345678900", Relation: "Partner", Priority: 1},
		{UserID: 1, Name: "Happy Hogan", Phone: "+12345678901", Priority: 2},
	}
}

func publicViewer() ViewerContext {
	return ViewerContext{
		Role:            RolePublic,
		TargetUsername:  "tony",
		AccessTimestamp: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestProjectPublicViewer(t *testing.T) {
	disclosed, err := Project(testProfile(), testContacts(), publicViewer())
	assert.Nil(t, err)

	assert.Equal(t, "tony", disclosed.Username)
	assert.Equal(t, FieldVisible, disclosed.Name.Status)
	assert.Equal(t, "Tony Stark", disclosed.Name.Value)
	assert.Equal(t, FieldVisible, disclosed.BloodType.Status)

	// Hidden fields keep their key but carry no value
	assert.Equal(t, FieldHidden, disclosed.Allergies.Status)
	assert.Nil(t, disclosed.Allergies.Value)
	assert.Equal(t, FieldHidden, disclosed.Contacts.Status)

	// Aux medical metadata rides on the conditions flag
	assert.Equal(t, FieldHidden, disclosed.DNRStatus.Status)
	assert.Equal(t, FieldHidden, disclosed.SpecialInstructions.Status)

	// Age is never public, even when the name is
	assert.Equal(t, FieldHidden, disclosed.Age.Status)

	assert.False(t, disclosed.AllHidden())
}

func TestProjectProfessionalViewer(t *testing.T) {
	viewer := publicViewer()
	viewer.Role = RoleMedicalProfessional

	disclosed, err := Project(testProfile(), testContacts(), viewer)
	assert.Nil(t, err)

	assert.Equal(t, FieldVisible, disclosed.Allergies.Status)
	assert.Equal(t, []string{"Penicillin"}, disclosed.Allergies.Value)
	assert.Equal(t, FieldVisible, disclosed.Medications.Status)
	assert.Equal(t, FieldVisible, disclosed.DNRStatus.Status)
	assert.Equal(t, false, disclosed.DNRStatus.Value)

	assert.Equal(t, FieldVisible, disclosed.Contacts.Status)
	contacts := disclosed.Contacts.Value.([]DisclosedContact)
	assert.Len(t, contacts, 2)
	assert.Equal(t, 1, contacts[0].Priority)

	// Age is derived as of the access timestamp; birthday hasn't
	// happened yet in mid-January
	assert.Equal(t, FieldVisible, disclosed.Age.Status)
	assert.Equal(t, 35, disclosed.Age.Value)
}

func TestProjectAgeOnLeapYearBirthday(t *testing.T) {
	// Born Mar 1 of a leap year; the birthday itself must flip the age
	// even in non-leap years, where the day-of-year offsets differ.
	profile := testProfile()
	profile.DateOfBirth = "1992-03-01"

	viewer := publicViewer()
	viewer.Role = RoleMedicalProfessional
	viewer.AccessTimestamp = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	disclosed, err := Project(profile, testContacts(), viewer)
	assert.Nil(t, err)
	assert.Equal(t, 34, disclosed.Age.Value)

	viewer.AccessTimestamp = time.Date(2026, 2, 28, 10, 0, 0, 0, time.UTC)
	disclosed, err = Project(profile, testContacts(), viewer)
	assert.Nil(t, err)
	assert.Equal(t, 33, disclosed.Age.Value)
}

func TestProjectVisibleButEmptyIsNotHidden(t *testing.T) {
	profile := testProfile()
	profile.PrivacyFlags[models.FieldGroupConditions] = true
	profile.SpecialInstructions = ""

	disclosed, err := Project(profile, testContacts(), publicViewer())
	assert.Nil(t, err)

	// An empty visible list is "visible with no entries", not "hidden"
	assert.Equal(t, FieldVisible, disclosed.Conditions.Status)
	assert.Equal(t, []string{}, disclosed.Conditions.Value)
	assert.Equal(t, FieldVisible, disclosed.SpecialInstructions.Status)
}

func TestProjectAllHidden(t *testing.T) {
	profile := testProfile()
	profile.PrivacyFlags = models.PrivacyFlags{}

	disclosed, err := Project(profile, testContacts(), publicViewer())
	assert.Nil(t, err)
	assert.True(t, disclosed.AllHidden())
}

func TestProjectIsIdempotent(t *testing.T) {
	first, err := Project(testProfile(), testContacts(), publicViewer())
	assert.Nil(t, err)

	second, err := Project(testProfile(), testContacts(), publicViewer())
	assert.Nil(t, err)

	assert.Equal(t, first, second)
}

func TestProjectNilProfile(t *testing.T) {
	_, err := Project(nil, nil, publicViewer())
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestProjectUnknownRoleFailsClosed(t *testing.T) {
	viewer := publicViewer()
	viewer.Role = Role("intern")

	disclosed, err := Project(testProfile(), testContacts(), viewer)
	assert.Nil(t, disclosed)
	assert.True(t, IsPolicyViolation(err))
}
