package disclosure

import (
	"time"

	"github.com/crisislink/crisislink/server/models"
)

// Field statuses in a disclosed profile. Every key is always present -
// downstream rendering must be able to tell "hidden by privacy policy"
// apart from "visible but empty".
const (
	FieldVisible = "visible"
	FieldHidden  = "hidden"
)

type DisclosedField struct {
	Status string      `json:"status"`
	Value  interface{} `json:"value,omitempty"`
}

type DisclosedContact struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation,omitempty"`
	Priority int    `json:"priority"`
}

// DisclosedProfile is the profile-shaped structure every viewer gets - the
// same keys regardless of role, each tagged visible or hidden.
type DisclosedProfile struct {
	Username            string         `json:"username"`
	Name                DisclosedField `json:"name"`
	Age                 DisclosedField `json:"age"`
	BloodType           DisclosedField `json:"bloodType"`
	Allergies           DisclosedField `json:"allergies"`
	Medications         DisclosedField `json:"medications"`
	Conditions          DisclosedField `json:"conditions"`
	DNRStatus           DisclosedField `json:"dnrStatus"`
	OrganDonor          DisclosedField `json:"organDonor"`
	SpecialInstructions DisclosedField `json:"specialInstructions"`
	Languages           DisclosedField `json:"languages"`
	Contacts            DisclosedField `json:"contacts"`
}

// Project produces the subset of 'profile' the viewer is entitled to see.
// It is a pure function of its inputs - identical profile & viewer context
// always yield identical output - and it is the single authority on what
// data leaves the boundary; nothing downstream may widen it.
//
// The auxiliary medical metadata (dnrStatus, organDonor,
// specialInstructions, languages) is condition-class medical fact and is
// gated by the 'conditions' group flag. Age is derived from the date of
// birth (which itself is never disclosed) and shown to owners & claimed
// professionals only.
func Project(profile *models.Profile, contacts []models.Contact, viewer ViewerContext) (*DisclosedProfile, error) {
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	flags := profile.PrivacyFlags

	nameField, err := projectField(models.FieldGroupName, flags, viewer, profile.FullName)
	if err != nil {
		return nil, err
	}

	bloodTypeField, err := projectField(models.FieldGroupBloodType, flags, viewer, profile.BloodType)
	if err != nil {
		return nil, err
	}

	allergiesField, err := projectField(models.FieldGroupAllergies, flags, viewer, profile.Allergies.Values())
	if err != nil {
		return nil, err
	}

	medicationsField, err := projectField(models.FieldGroupMedications, flags, viewer, profile.Medications.Values())
	if err != nil {
		return nil, err
	}

	conditionsField, err := projectField(models.FieldGroupConditions, flags, viewer, profile.Conditions.Values())
	if err != nil {
		return nil, err
	}

	dnrField, err := projectField(models.FieldGroupConditions, flags, viewer, profile.DNRStatus)
	if err != nil {
		return nil, err
	}

	organDonorField, err := projectField(models.FieldGroupConditions, flags, viewer, profile.OrganDonor)
	if err != nil {
		return nil, err
	}

	instructionsField, err := projectField(models.FieldGroupConditions, flags, viewer, profile.SpecialInstructions)
	if err != nil {
		return nil, err
	}

	languagesField, err := projectField(models.FieldGroupConditions, flags, viewer, []string(profile.Languages))
	if err != nil {
		return nil, err
	}

	contactsField, err := projectField(models.FieldGroupContacts, flags, viewer, discloseContacts(contacts))
	if err != nil {
		return nil, err
	}

	return &DisclosedProfile{
		Username:            viewer.TargetUsername,
		Name:                nameField,
		Age:                 ageField(profile.DateOfBirth, viewer),
		BloodType:           bloodTypeField,
		Allergies:           allergiesField,
		Medications:         medicationsField,
		Conditions:          conditionsField,
		DNRStatus:           dnrField,
		OrganDonor:          organDonorField,
		SpecialInstructions: instructionsField,
		Languages:           languagesField,
		Contacts:            contactsField,
	}, nil
}

// AllHidden reports whether every field group in the disclosure is hidden,
// so callers can render "no public information available" instead of the
// empty shell.
func (disclosed *DisclosedProfile) AllHidden() bool {
	fields := []DisclosedField{
		disclosed.Name, disclosed.Age, disclosed.BloodType,
		disclosed.Allergies, disclosed.Medications, disclosed.Conditions,
		disclosed.DNRStatus, disclosed.OrganDonor,
		disclosed.SpecialInstructions, disclosed.Languages, disclosed.Contacts,
	}

	for _, field := range fields {
		if field.Status == FieldVisible {
			return false
		}
	}

	return true
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func projectField(fieldGroup string, flags models.PrivacyFlags, viewer ViewerContext, value interface{}) (DisclosedField, error) {
	visible, err := IsVisible(fieldGroup, flags, viewer.Role)
	if err != nil {
		return DisclosedField{}, err
	}

	if !visible {
		return DisclosedField{Status: FieldHidden}, nil
	}

	return DisclosedField{Status: FieldVisible, Value: value}, nil
}

// ageField derives age relative to the viewer's access timestamp. The date
// of birth is never independently disclosed, & the derived age is reserved
// for owners and claimed professionals - even a public viewer that can see
// the name gets no age.
func ageField(dateOfBirth string, viewer ViewerContext) DisclosedField {
	if viewer.Role != RoleOwner && viewer.Role != RoleMedicalProfessional {
		return DisclosedField{Status: FieldHidden}
	}

	birthDate, err := time.Parse("2006-01-02", dateOfBirth)
	if err != nil {
		return DisclosedField{Status: FieldHidden}
	}

	asOf := viewer.AccessTimestamp
	age := asOf.Year() - birthDate.Year()
	if asOf.Month() < birthDate.Month() ||
		(asOf.Month() == birthDate.Month() && asOf.Day() < birthDate.Day()) {
		age--
	}
	if age < 0 {
		age = 0
	}

	return DisclosedField{Status: FieldVisible, Value: age}
}

func discloseContacts(contacts []models.Contact) []DisclosedContact {
	disclosed := []DisclosedContact{}
	for _, contact := range contacts {
		disclosed = append(disclosed, DisclosedContact{
			Name:     contact.Name,
			Phone:    contact.Phone,
			Relation: contact.Relation,
			Priority: contact.Priority,
		})
	}

	return disclosed
}
