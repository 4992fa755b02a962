package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

const (
	TermKindCatalog = "catalog"
	TermKindCustom  = "custom"
)

// Disclosable field groups. These are the persisted privacy-flag keys and
// the only groups the visibility policy recognizes.
const (
	FieldGroupName        = "name"
	FieldGroupBloodType   = "bloodType"
	FieldGroupAllergies   = "allergies"
	FieldGroupMedications = "medications"
	FieldGroupConditions  = "conditions"
	FieldGroupContacts    = "contacts"
)

var FieldGroups = []string{
	FieldGroupName,
	FieldGroupBloodType,
	FieldGroupAllergies,
	FieldGroupMedications,
	FieldGroupConditions,
	FieldGroupContacts,
}

var BloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-", "Unknown"}

func IsValidBloodType(value string) bool {
	for _, bloodType := range BloodTypes {
		if bloodType == value {
			return true
		}
	}
	return false
}

// MedicalTerm is a single allergy/medication/condition entry - either a
// reference to a predefined catalog term or a free-text custom value.
type MedicalTerm struct {
	Kind  string `json:"kind" validate:"oneof=catalog custom"`
	Value string `json:"value" validate:"required"`
}

// UnmarshalJSON also accepts the two legacy shapes older clients send:
// a bare string, and {"type": ..., "value": ...}.
func (term *MedicalTerm) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		term.Kind = TermKindCustom
		term.Value = plain
		return nil
	}

	var tagged struct {
		Kind       string `json:"kind"`
		LegacyKind string `json:"type"`
		Value      string `json:"value"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}

	term.Kind = tagged.Kind
	if term.Kind == "" {
		term.Kind = tagged.LegacyKind
	}
	if term.Kind == "" {
		term.Kind = TermKindCustom
	}
	term.Value = tagged.Value

	return nil
}

type TermList []MedicalTerm

func (terms TermList) Value() (driver.Value, error) {
	if terms == nil {
		terms = TermList{}
	}
	asJson, err := json.Marshal(terms)
	return string(asJson), err
}

func (terms *TermList) Scan(value interface{}) error {
	return scanJSONColumn(value, terms)
}

// Values returns just each entry's display value, catalog or custom.
func (terms TermList) Values() []string {
	values := []string{}
	for _, term := range terms {
		values = append(values, term.Value)
	}
	return values
}

type StringList []string

func (list StringList) Value() (driver.Value, error) {
	if list == nil {
		list = StringList{}
	}
	asJson, err := json.Marshal(list)
	return string(asJson), err
}

func (list *StringList) Scan(value interface{}) error {
	return scanJSONColumn(value, list)
}

// PrivacyFlags maps each disclosable field group to whether the public may
// see it. A missing key always reads as hidden, never as visible.
type PrivacyFlags map[string]bool

func DefaultPrivacyFlags() PrivacyFlags {
	return PrivacyFlags{
		FieldGroupName:        true,
		FieldGroupBloodType:   true,
		FieldGroupAllergies:   false,
		FieldGroupMedications: false,
		FieldGroupConditions:  false,
		FieldGroupContacts:    false,
	}
}

func (flags PrivacyFlags) Value() (driver.Value, error) {
	if flags == nil {
		flags = PrivacyFlags{}
	}
	asJson, err := json.Marshal(flags)
	return string(asJson), err
}

func (flags *PrivacyFlags) Scan(value interface{}) error {
	return scanJSONColumn(value, flags)
}

// Profile holds one patient's emergency medical record. A profile is either
// fully present or fully absent - creation is gated by intake validation, so
// readers never observe a partially-created record.
type Profile struct {
	BaseModel
	UserID              uint         `json:"user_id" gorm:"not null;unique"`
	FullName            string       `json:"full_name" validate:"required" gorm:"not null"`
	DateOfBirth         string       `json:"date_of_birth" validate:"required"`
	BloodType           string       `json:"blood_type" validate:"required"`
	Allergies           TermList     `json:"allergies" gorm:"type:text"`
	Medications         TermList     `json:"medications" gorm:"type:text"`
	Conditions          TermList     `json:"conditions" gorm:"type:text"`
	DNRStatus           bool         `json:"dnr_status"`
	OrganDonor          bool         `json:"organ_donor"`
	SpecialInstructions string       `json:"special_instructions"`
	Languages           StringList   `json:"languages" gorm:"type:text"`
	PrivacyFlags        PrivacyFlags `json:"privacy_flags" gorm:"type:text"`
	EmergencyURL        string       `json:"emergency_url"`
}

// CreateProfile persists a validated profile & its contacts in one
// transaction, so a reader never sees a profile without contacts.
func CreateProfile(profile *Profile, contacts []Contact) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(profile).Error; err != nil {
			return err
		}

		return replaceContacts(tx, profile.UserID, contacts)
	})
}

// UpdateProfile replaces the stored profile & contact list wholesale.
// Concurrent edits by the same owner are last-writer-wins.
func UpdateProfile(userID uint, profile *Profile, contacts []Contact) error {
	return db.Transaction(func(tx *gorm.DB) error {
		existing := Profile{}
		if err := tx.First(&existing, "user_id = ?", userID).Error; err != nil {
			return err
		}

		profile.ID = existing.ID
		profile.UserID = userID
		profile.CreatedAt = existing.CreatedAt
		if err := tx.Save(profile).Error; err != nil {
			return err
		}

		return replaceContacts(tx, userID, contacts)
	})
}

func FindProfileByUserID(userID interface{}) (*Profile, error) {
	profile := Profile{}
	err := db.First(&profile, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

// FindProfileByUsername resolves a public handle to its profile for
// emergency lookup.
func FindProfileByUsername(username string) (*Profile, error) {
	user := User{}
	err := db.Select("id").First(&user, "username = ?", username).Error
	if err != nil {
		return nil, err
	}

	return FindProfileByUserID(user.ID)
}

func ProfileExists(userID interface{}) (bool, error) {
	err := db.First(&Profile{}, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func scanJSONColumn(value interface{}, dest interface{}) error {
	switch data := value.(type) {
	case nil:
		return nil
	case string:
		return json.Unmarshal([]byte(data), dest)
	case []byte:
		return json.Unmarshal(data, dest)
	default:
		return fmt.Errorf("unable to scan %T into %T", value, dest)
	}
}
