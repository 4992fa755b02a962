package models

import (
	"sort"

	"gorm.io/gorm"
)

const MAX_CONTACTS_PER_USER = 3

// Contact is an emergency contact to be notified when elevated access is
// claimed against the owner's profile. Priorities are kept dense & unique
// (1..N) within a user.
type Contact struct {
	BaseModel
	UserID   uint   `json:"user_id" gorm:"not null"`
	Name     string `json:"name" validate:"required" gorm:"not null"`
	Phone    string `json:"phone" validate:"required" gorm:"not null"`
	Relation string `json:"relation"`
	Priority int    `json:"priority" validate:"min=1"`
}

// ContactsByPriority returns the user's contacts, priority 1 first.
func ContactsByPriority(userID interface{}) ([]Contact, error) {
	contacts := []Contact{}
	err := db.Order("priority asc").Find(&contacts, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}

	return contacts, nil
}

// DeleteContact removes one contact and renormalizes the remaining
// priorities back to a dense 1..N sequence.
func DeleteContact(userID uint, contactID interface{}) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ?", userID).Delete(&Contact{}, contactID)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		remaining := []Contact{}
		err := tx.Order("priority asc").Find(&remaining, "user_id = ?", userID).Error
		if err != nil {
			return err
		}

		for i := range remaining {
			if remaining[i].Priority == i+1 {
				continue
			}

			err = tx.Model(&Contact{}).Where("id = ?", remaining[i].ID).
				Update("priority", i+1).Error
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func replaceContacts(tx *gorm.DB, userID uint, contacts []Contact) error {
	err := tx.Where("user_id = ?", userID).Delete(&Contact{}).Error
	if err != nil {
		return err
	}

	sort.SliceStable(contacts, func(i, j int) bool {
		return contacts[i].Priority < contacts[j].Priority
	})

	for i := range contacts {
		contacts[i].ID = 0
		contacts[i].UserID = userID
		contacts[i].Priority = i + 1

		if err := tx.Create(&contacts[i]).Error; err != nil {
			return err
		}
	}

	return nil
}
