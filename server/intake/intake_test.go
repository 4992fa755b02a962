package intake

import (
	"testing"

	"github.com/crisislink/crisislink/server/models"
	"github.com/stretchr/testify/assert"
)

func completeForm() *ProfileForm {
	return &ProfileForm{
		FullName:    "Tony Stark",
		DateOfBirth: "1990-05-29",
		BloodType:   "O+",
		Allergies: models.TermList{
			{Kind: models.TermKindCatalog, Value: "Penicillin"},
		},
		Contacts: []ContactForm{
			{Name: "Pepper Potts", Phone: "+12345678900", Relation: "Partner", Priority: 1},
		},
		PrivacyFlags: map[string]bool{
			models.FieldGroupName:      true,
			models.FieldGroupBloodType: true,
		},
	}
}

func TestValidateCompleteAcceptsValidForm(t *testing.T) {
	result := ValidateComplete(completeForm())
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateBasicInfoStep(t *testing.T) {
	form := completeForm()
	form.FullName = "   "
	form.DateOfBirth = ""
	form.BloodType = "Z-"

	result := ValidateStep(StepBasicInfo, form)
	assert.False(t, result.Valid)
	assert.Equal(t, "Full name is required", result.Errors["fullName"])
	assert.Equal(t, "Date of birth is required", result.Errors["dateOfBirth"])
	assert.Equal(t, "Blood type is required", result.Errors["bloodType"])
}

func TestValidateStepOnlyChecksItsOwnSection(t *testing.T) {
	form := completeForm()
	form.Contacts = nil

	// Basic info passes even though the contacts section would not
	result := ValidateStep(StepBasicInfo, form)
	assert.True(t, result.Valid)
}

func TestValidateMedicalDetailsStep(t *testing.T) {
	form := completeForm()
	form.Allergies = models.TermList{
		{Kind: models.TermKindCatalog, Value: "Penicillin"},
		{Kind: models.TermKindCustom, Value: "  "},
	}
	form.Medications = models.TermList{
		{Kind: "guess", Value: "Aspirin"},
	}

	result := ValidateStep(StepMedicalDetails, form)
	assert.False(t, result.Valid)
	assert.Equal(t, "Entry cannot be empty", result.Errors["allergies_1"])
	assert.Contains(t, result.Errors["medications_0"], "not a valid entry kind")
	assert.NotContains(t, result.Errors, "allergies_0")
}

func TestValidateEmergencyContactsStep(t *testing.T) {
	form := completeForm()
	form.Contacts = []ContactForm{
		{Name: "", Phone: "+12345678900"},
		{Name: "Happy Hogan", Phone: ""},
	}

	result := ValidateStep(StepEmergencyContacts, form)
	assert.False(t, result.Valid)
	assert.Equal(t, "Name required", result.Errors["contact_0_name"])
	assert.Equal(t, "Phone required", result.Errors["contact_1_phone"])
	assert.Equal(t, "At least one contact with name and phone is required", result.Errors["contacts"])
}

func TestValidateEmergencyContactsStepRequiresAtLeastOne(t *testing.T) {
	form := completeForm()
	form.Contacts = nil

	result := ValidateStep(StepEmergencyContacts, form)
	assert.False(t, result.Valid)
	assert.Equal(t, "At least one contact with name and phone is required", result.Errors["contacts"])
}

func TestValidateEmergencyContactsStepRejectsTooMany(t *testing.T) {
	form := completeForm()
	form.Contacts = []ContactForm{
		{Name: "A", Phone: "1"},
		{Name: "B", Phone: "2"},
		{Name: "C", Phone: "3"},
		{Name: "D", Phone: "4"},
	}

	result := ValidateStep(StepEmergencyContacts, form)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors["contacts"], "At most")
}

func TestValidatePrivacySettingsStep(t *testing.T) {
	form := completeForm()
	form.PrivacyFlags["ssn"] = true

	result := ValidateStep(StepPrivacySettings, form)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors["privacy_ssn"], "not a disclosable field group")
}

func TestValidateUnknownStep(t *testing.T) {
	result := ValidateStep(99, completeForm())
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors["step"], "unknown wizard step")
}

func TestValidateCompleteAggregatesAllSteps(t *testing.T) {
	form := &ProfileForm{}

	result := ValidateComplete(form)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "fullName")
	assert.Contains(t, result.Errors, "bloodType")
	assert.Contains(t, result.Errors, "contacts")
}
