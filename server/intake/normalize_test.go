package intake

import (
	"testing"

	"github.com/crisislink/crisislink/server/models"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	models.InitializeTestDb()

	form := completeForm()
	form.FullName = "  Tony Stark  "
	form.Allergies = models.TermList{
		{Kind: models.TermKindCatalog, Value: " Penicillin "},
		{Kind: "", Value: "Chitauri dust"},
		{Kind: models.TermKindCustom, Value: "   "},
	}

	profile, contacts := Normalize(form)

	assert.Equal(t, "Tony Stark", profile.FullName)
	assert.Equal(t, "O+", profile.BloodType)

	// Empty entries dropped, unknown kinds upgraded to custom
	assert.Equal(t, models.TermList{
		{Kind: models.TermKindCatalog, Value: "Penicillin"},
		{Kind: models.TermKindCustom, Value: "Chitauri dust"},
	}, profile.Allergies)

	assert.Equal(t, models.StringList{"English"}, profile.Languages, "Languages should default to English")

	assert.Len(t, contacts, 1)
	assert.Equal(t, 1, contacts[0].Priority)
}

func TestNormalizeVerifiesCatalogTags(t *testing.T) {
	models.InitializeTestDb()

	form := completeForm()
	form.Allergies = models.TermList{
		{Kind: models.TermKindCatalog, Value: "Peanuts"},
		{Kind: models.TermKindCatalog, Value: "Vibranium dust"},
	}
	form.Medications = models.TermList{
		// "Peanuts" is an allergy catalog term, not a medication
		{Kind: models.TermKindCatalog, Value: "Peanuts"},
		{Kind: models.TermKindCatalog, Value: "Aspirin"},
	}

	profile, _ := Normalize(form)

	assert.Equal(t, models.TermList{
		{Kind: models.TermKindCatalog, Value: "Peanuts"},
		{Kind: models.TermKindCustom, Value: "Vibranium dust"},
	}, profile.Allergies)

	assert.Equal(t, models.TermList{
		{Kind: models.TermKindCustom, Value: "Peanuts"},
		{Kind: models.TermKindCatalog, Value: "Aspirin"},
	}, profile.Medications)
}

func TestNormalizePrivacyFlagsAreAlwaysExplicit(t *testing.T) {
	models.InitializeTestDb()

	form := completeForm()
	form.PrivacyFlags = map[string]bool{
		models.FieldGroupBloodType: true,
		"ssn":                      true,
	}

	profile, _ := Normalize(form)

	// Every known group has an explicit value; omitted means hidden
	assert.Len(t, profile.PrivacyFlags, len(models.FieldGroups))
	assert.True(t, profile.PrivacyFlags[models.FieldGroupBloodType])
	assert.False(t, profile.PrivacyFlags[models.FieldGroupName])
	assert.NotContains(t, profile.PrivacyFlags, "ssn")
}

func TestNormalizePrivacyFlagsDefaultWhenUnset(t *testing.T) {
	models.InitializeTestDb()

	form := completeForm()
	form.PrivacyFlags = nil

	profile, _ := Normalize(form)

	assert.Equal(t, models.DefaultPrivacyFlags(), profile.PrivacyFlags)
	assert.True(t, profile.PrivacyFlags[models.FieldGroupName])
	assert.False(t, profile.PrivacyFlags[models.FieldGroupContacts])
}

func TestNormalizeContactsRewritesPriorities(t *testing.T) {
	contacts := NormalizeContacts([]ContactForm{
		{Name: "Happy Hogan", Phone: "+12345678901", Priority: 7},
		{Name: "Pepper Potts", Phone: "+12345678900", Priority: 2},
		{Name: "James Rhodes", Phone: "+12345678902", Priority: 4},
	})

	assert.Equal(t, "Pepper Potts", contacts[0].Name)
	assert.Equal(t, "James Rhodes", contacts[1].Name)
	assert.Equal(t, "Happy Hogan", contacts[2].Name)

	for i, contact := range contacts {
		assert.Equal(t, i+1, contact.Priority)
	}
}

func TestRemoveContactRenormalizesPriorities(t *testing.T) {
	form := completeForm()
	form.Contacts = []ContactForm{
		{Name: "Pepper Potts", Phone: "+12345678900", Priority: 1},
		{Name: "Happy Hogan", Phone: "+12345678901", Priority: 2},
		{Name: "James Rhodes", Phone: "+12345678902", Priority: 3},
	}

	RemoveContact(form, 1)

	assert.Len(t, form.Contacts, 2)
	assert.Equal(t, "Pepper Potts", form.Contacts[0].Name)
	assert.Equal(t, 1, form.Contacts[0].Priority)
	assert.Equal(t, "James Rhodes", form.Contacts[1].Name)
	assert.Equal(t, 2, form.Contacts[1].Priority)

	// Out-of-range indexes are a no-op
	RemoveContact(form, 5)
	assert.Len(t, form.Contacts, 2)
}
