// Package intake validates & normalizes the multi-section profile wizard
// data before anything is persisted. Validation is side-effect free - it
// just returns the error map; the caller decides whether to block.
package intake

import (
	"fmt"
	"strings"

	"github.com/crisislink/crisislink/server/models"
)

// Wizard steps, in the order the form presents them.
const (
	StepBasicInfo = iota + 1
	StepMedicalDetails
	StepEmergencyContacts
	StepPrivacySettings

	TotalSteps = StepPrivacySettings
)

type ContactForm struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
	Priority int    `json:"priority"`
}

// ProfileForm is the wire shape of the profile wizard. Medical entries
// arrive as tagged terms; legacy plain-string entries are upgraded to
// custom terms during decoding (see models.MedicalTerm).
type ProfileForm struct {
	FullName            string            `json:"full_name"`
	DateOfBirth         string            `json:"date_of_birth"`
	BloodType           string            `json:"blood_type"`
	Allergies           models.TermList   `json:"allergies"`
	Medications         models.TermList   `json:"medications"`
	Conditions          models.TermList   `json:"conditions"`
	DNRStatus           bool              `json:"dnr_status"`
	OrganDonor          bool              `json:"organ_donor"`
	SpecialInstructions string            `json:"special_instructions"`
	Languages           []string          `json:"languages"`
	Contacts            []ContactForm     `json:"contacts"`
	PrivacyFlags        map[string]bool   `json:"privacy_flags"`
}

type Result struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// ValidateStep checks a single wizard step before the form advances.
func ValidateStep(step int, form *ProfileForm) Result {
	errors := map[string]string{}

	switch step {
	case StepBasicInfo:
		validateBasicInfo(form, errors)
	case StepMedicalDetails:
		validateMedicalDetails(form, errors)
	case StepEmergencyContacts:
		validateEmergencyContacts(form, errors)
	case StepPrivacySettings:
		validatePrivacySettings(form, errors)
	default:
		errors["step"] = fmt.Sprintf("unknown wizard step %v", step)
	}

	return Result{Valid: len(errors) == 0, Errors: errors}
}

// ValidateComplete runs every step's rules before final submission. A
// profile that fails any step is never persisted - readers only ever see
// fully-present profiles.
func ValidateComplete(form *ProfileForm) Result {
	errors := map[string]string{}

	for step := StepBasicInfo; step <= TotalSteps; step++ {
		for field, message := range ValidateStep(step, form).Errors {
			errors[field] = message
		}
	}

	return Result{Valid: len(errors) == 0, Errors: errors}
}

// ---------------------------------------------------------------------------------//
// Step rules
// --------------------------------------------------------------------------------//

func validateBasicInfo(form *ProfileForm, errors map[string]string) {
	if strings.TrimSpace(form.FullName) == "" {
		errors["fullName"] = "Full name is required"
	}

	if form.DateOfBirth == "" {
		errors["dateOfBirth"] = "Date of birth is required"
	}

	if !models.IsValidBloodType(form.BloodType) {
		errors["bloodType"] = "Blood type is required"
	}
}

func validateMedicalDetails(form *ProfileForm, errors map[string]string) {
	validateTerms("allergies", form.Allergies, errors)
	validateTerms("medications", form.Medications, errors)
	validateTerms("conditions", form.Conditions, errors)
}

// At least one contact with a name AND a phone is required; contacts
// failing that are also flagged individually by index. Phone is free text
// on purpose - no number grammar is enforced.
func validateEmergencyContacts(form *ProfileForm, errors map[string]string) {
	if len(form.Contacts) > models.MAX_CONTACTS_PER_USER {
		errors["contacts"] = fmt.Sprintf("At most %v emergency contacts are allowed", models.MAX_CONTACTS_PER_USER)
		return
	}

	hasCompleteContact := false
	for i, contact := range form.Contacts {
		nameMissing := strings.TrimSpace(contact.Name) == ""
		phoneMissing := strings.TrimSpace(contact.Phone) == ""

		if nameMissing {
			errors[fmt.Sprintf("contact_%v_name", i)] = "Name required"
		}
		if phoneMissing {
			errors[fmt.Sprintf("contact_%v_phone", i)] = "Phone required"
		}
		if !nameMissing && !phoneMissing {
			hasCompleteContact = true
		}
	}

	if !hasCompleteContact {
		errors["contacts"] = "At least one contact with name and phone is required"
	}
}

func validatePrivacySettings(form *ProfileForm, errors map[string]string) {
	for key := range form.PrivacyFlags {
		if !isFieldGroup(key) {
			errors["privacy_"+key] = fmt.Sprintf("%q is not a disclosable field group", key)
		}
	}
}

func validateTerms(section string, terms models.TermList, errors map[string]string) {
	for i, term := range terms {
		if strings.TrimSpace(term.Value) == "" {
			errors[fmt.Sprintf("%v_%v", section, i)] = "Entry cannot be empty"
			continue
		}

		if term.Kind != models.TermKindCatalog && term.Kind != models.TermKindCustom {
			errors[fmt.Sprintf("%v_%v", section, i)] = fmt.Sprintf("%q is not a valid entry kind", term.Kind)
		}
	}
}

func isFieldGroup(key string) bool {
	for _, group := range models.FieldGroups {
		if group == key {
			return true
		}
	}
	return false
}
