package intake

import (
	"sort"
	"strings"

	"github.com/crisislink/crisislink/server/models"
)

// Normalize turns a validated form into the canonical profile & contact
// records. Missing privacy-flag keys become hidden (never visible),
// contact priorities are renormalized to a dense 1..N sequence, term
// entries are trimmed with empty ones dropped, and catalog tags are
// checked against the reference vocabulary.
func Normalize(form *ProfileForm) (*models.Profile, []models.Contact) {
	languages := form.Languages
	if len(languages) == 0 {
		languages = []string{"English"}
	}

	profile := &models.Profile{
		FullName:            strings.TrimSpace(form.FullName),
		DateOfBirth:         strings.TrimSpace(form.DateOfBirth),
		BloodType:           form.BloodType,
		Allergies:           normalizeTerms(form.Allergies, models.ALLERGIES_CATEGORY),
		Medications:         normalizeTerms(form.Medications, models.MEDICATIONS_CATEGORY),
		Conditions:          normalizeTerms(form.Conditions, models.CONDITIONS_CATEGORY),
		DNRStatus:           form.DNRStatus,
		OrganDonor:          form.OrganDonor,
		SpecialInstructions: strings.TrimSpace(form.SpecialInstructions),
		Languages:           models.StringList(languages),
		PrivacyFlags:        normalizePrivacyFlags(form.PrivacyFlags),
	}

	return profile, NormalizeContacts(form.Contacts)
}

// NormalizeContacts orders contacts by their submitted priority & rewrites
// the priorities as 1..N.
func NormalizeContacts(forms []ContactForm) []models.Contact {
	ordered := make([]ContactForm, len(forms))
	copy(ordered, forms)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	contacts := []models.Contact{}
	for i, form := range ordered {
		contacts = append(contacts, models.Contact{
			Name:     strings.TrimSpace(form.Name),
			Phone:    strings.TrimSpace(form.Phone),
			Relation: strings.TrimSpace(form.Relation),
			Priority: i + 1,
		})
	}

	return contacts
}

// RemoveContact drops the contact at 'index' from the form & renormalizes
// the remaining priorities, mirroring what the storage layer does on
// delete.
func RemoveContact(form *ProfileForm, index int) {
	if index < 0 || index >= len(form.Contacts) {
		return
	}

	form.Contacts = append(form.Contacts[:index], form.Contacts[index+1:]...)
	for i := range form.Contacts {
		form.Contacts[i].Priority = i + 1
	}
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

// A client-supplied catalog tag is verified against the seeded vocabulary;
// a term the catalog does not know is downgraded to custom rather than
// trusted.
func normalizeTerms(terms models.TermList, category string) models.TermList {
	normalized := models.TermList{}
	for _, term := range terms {
		value := strings.TrimSpace(term.Value)
		if value == "" {
			continue
		}

		kind := models.TermKindCustom
		if term.Kind == models.TermKindCatalog {
			if ok, err := models.IsCatalogTerm(value, category); err == nil && ok {
				kind = models.TermKindCatalog
			}
		}

		normalized = append(normalized, models.MedicalTerm{Kind: kind, Value: value})
	}

	return normalized
}

// Every disclosable field group gets an explicit flag; a group the client
// omitted is hidden, and unknown keys are dropped. A form with no privacy
// preferences at all gets the standard defaults instead.
func normalizePrivacyFlags(flags map[string]bool) models.PrivacyFlags {
	if len(flags) == 0 {
		return models.DefaultPrivacyFlags()
	}

	normalized := models.PrivacyFlags{}
	for _, group := range models.FieldGroups {
		normalized[group] = flags[group]
	}

	return normalized
}
