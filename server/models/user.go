package models

import (
	"errors"
	"fmt"

	"github.com/crisislink/crisislink/server/auth"
	"gorm.io/gorm"
)

var allFieldsExceptPassword = []string{
	"id",
	"username",
	"email",
	"role_id",
	"created_at",
	"updated_at",
}

// User is a patient account. 'Username' doubles as the public handle
// emergency links are keyed by.
type User struct {
	BaseModel
	Username string    `json:"username" validate:"required,alphanum,min=3" gorm:"not null;unique"`
	Email    string    `json:"email" validate:"required,email" gorm:"not null;unique"`
	Password string    `json:"password,omitempty" validate:"required,password" gorm:"not null"`
	RoleID   uint      `json:"role_id" gorm:"null"`
	Profile  *Profile  `json:"profile,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Contacts []Contact `json:"contacts,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (user *User) IsAdmin() (bool, error) {
	if user.RoleID == 0 {
		return false, nil
	}

	adminRole, err := FindRole(ADMIN_USER_ROLE)
	if err != nil {
		return false, err
	}

	return adminRole.ID == user.RoleID, nil
}

func (user *User) Update(data map[string]interface{}) error {
	if data["password"] != nil {
		passwordHash, err := auth.HashPassword(data["password"].(string))
		if err != nil {
			return err
		}
		data["password"] = passwordHash
	}

	return db.Model(&User{}).Where("id = ?", user.ID).
		Select([]string{"email", "password"}).Updates(data).Error
}

func FindUserBy(field string, value interface{}) (*User, error) {
	user := User{}
	err := db.Select(allFieldsExceptPassword).First(&user, fmt.Sprintf("%v = ?", field), value).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func FindUserPassword(email string) (string, error) {
	user := &User{}
	err := db.Select("Password").First(user, "email = ?", email).Error
	if err != nil {
		return "", err
	}

	return user.Password, nil
}

func CreateUser(user *User) error {
	passwordHash, err := auth.HashPassword(user.Password)
	if err != nil {
		return err
	}
	user.Password = passwordHash

	return db.Create(user).Error
}

func DeleteUser(id interface{}) error {
	return db.Delete(&User{}, id).Error
}

func AtLeastOneUserExists() (bool, error) {
	err := db.First(&User{}).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}
