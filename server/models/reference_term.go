package models

const REFERENCE_SEARCH_LIMIT = 20

// Reference catalog categories.
const (
	ALLERGIES_CATEGORY   = "Allergies"
	MEDICATIONS_CATEGORY = "Medications"
	CONDITIONS_CATEGORY  = "Conditions"
)

// ReferenceTerm is a predefined medical vocabulary entry offered by the
// intake form's autocomplete.
type ReferenceTerm struct {
	BaseModel
	Category    string `json:"category" gorm:"not null;index"`
	Subcategory string `json:"subcategory"`
	Name        string `json:"name" gorm:"not null"`
}

// SearchReferenceTerms matches 'query' against term name or subcategory,
// optionally filtered by category, and returns at most
// REFERENCE_SEARCH_LIMIT results grouped by subcategory (falling back to
// category for terms without one).
func SearchReferenceTerms(query, category string) (map[string][]ReferenceTerm, error) {
	terms := []ReferenceTerm{}
	tx := db.Model(&ReferenceTerm{})

	if category != "" {
		tx = tx.Where("category = ?", category)
	}

	if query != "" {
		pattern := "%" + query + "%"
		tx = tx.Where("name LIKE ? OR subcategory LIKE ?", pattern, pattern)
	}

	err := tx.Limit(REFERENCE_SEARCH_LIMIT).Find(&terms).Error
	if err != nil {
		return nil, err
	}

	grouped := map[string][]ReferenceTerm{}
	for _, term := range terms {
		groupKey := term.Subcategory
		if groupKey == "" {
			groupKey = term.Category
		}
		if groupKey == "" {
			groupKey = "General"
		}

		grouped[groupKey] = append(grouped[groupKey], term)
	}

	return grouped, nil
}

// IsCatalogTerm reports whether 'value' matches a seeded term by name in
// the given category.
func IsCatalogTerm(value, category string) (bool, error) {
	var count int64
	err := db.Model(&ReferenceTerm{}).
		Where("category = ? AND name = ?", category, value).Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func referenceTermSeedData() *[]ReferenceTerm {
	return &[]ReferenceTerm{
		// Allergies - medications
		{Category: ALLERGIES_CATEGORY, Subcategory: "Medications", Name: "Penicillin"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Medications", Name: "Amoxicillin"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Medications", Name: "Aspirin"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Medications", Name: "Ibuprofen"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Medications", Name: "Naproxen"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Medications", Name: "Sulfa Drugs"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Medications", Name: "Codeine"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Medications", Name: "Morphine"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Medications", Name: "Latex"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Medications", Name: "Contrast Dye"},

		// Allergies - foods
		{Category: ALLERGIES_CATEGORY, Subcategory: "Foods", Name: "Peanuts"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Foods", Name: "Tree Nuts"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Foods", Name: "Shellfish"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Foods", Name: "Fish"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Foods", Name: "Milk"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Foods", Name: "Eggs"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Foods", Name: "Soy"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Foods", Name: "Wheat"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Foods", Name: "Sesame"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Foods", Name: "Corn"},

		// Allergies - environmental
		{Category: ALLERGIES_CATEGORY, Subcategory: "Environmental", Name: "Pollen"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Environmental", Name: "Dust Mites"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Environmental", Name: "Mold"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Environmental", Name: "Pet Dander"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Environmental", Name: "Bee Stings"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Environmental", Name: "Wasp Stings"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Environmental", Name: "Cockroaches"},
		{Category: ALLERGIES_CATEGORY, Subcategory: "Environmental", Name: "Grass"},

		// Medications
		{Category: MEDICATIONS_CATEGORY, Name: "Aspirin"},
		{Category: MEDICATIONS_CATEGORY, Name: "Ibuprofen"},
		{Category: MEDICATIONS_CATEGORY, Name: "Acetaminophen"},
		{Category: MEDICATIONS_CATEGORY, Name: "Metformin"},
		{Category: MEDICATIONS_CATEGORY, Name: "Lisinopril"},
		{Category: MEDICATIONS_CATEGORY, Name: "Amlodipine"},
		{Category: MEDICATIONS_CATEGORY, Name: "Metoprolol"},
		{Category: MEDICATIONS_CATEGORY, Name: "Omeprazole"},
		{Category: MEDICATIONS_CATEGORY, Name: "Simvastatin"},
		{Category: MEDICATIONS_CATEGORY, Name: "Levothyroxine"},
		{Category: MEDICATIONS_CATEGORY, Name: "Albuterol"},
		{Category: MEDICATIONS_CATEGORY, Name: "Gabapentin"},
		{Category: MEDICATIONS_CATEGORY, Name: "Hydrochlorothiazide"},
		{Category: MEDICATIONS_CATEGORY, Name: "Losartan"},
		{Category: MEDICATIONS_CATEGORY, Name: "Atorvastatin"},

		// Conditions
		{Category: CONDITIONS_CATEGORY, Name: "Diabetes"},
		{Category: CONDITIONS_CATEGORY, Name: "Hypertension"},
		{Category: CONDITIONS_CATEGORY, Name: "Asthma"},
		{Category: CONDITIONS_CATEGORY, Name: "COPD"},
		{Category: CONDITIONS_CATEGORY, Name: "Heart Disease"},
		{Category: CONDITIONS_CATEGORY, Name: "Arthritis"},
		{Category: CONDITIONS_CATEGORY, Name: "Depression"},
		{Category: CONDITIONS_CATEGORY, Name: "Anxiety"},
		{Category: CONDITIONS_CATEGORY, Name: "Epilepsy"},
		{Category: CONDITIONS_CATEGORY, Name: "Cancer"},
		{Category: CONDITIONS_CATEGORY, Name: "Kidney Disease"},
		{Category: CONDITIONS_CATEGORY, Name: "Liver Disease"},
		{Category: CONDITIONS_CATEGORY, Name: "Stroke"},
		{Category: CONDITIONS_CATEGORY, Name: "Heart Attack History"},
	}
}
