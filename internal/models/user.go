package models

import (
	"strings"

	"github.com/sitedesk/backend/internal/permissions"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User is an account that can hold budget allocations and permissions.
//
// Session issuance happens outside this backend, the user row is only
// consulted to resolve the caller's permission set and to reference
// managers on allocations and expenses.
type User struct {
	DefaultModel
	Username    string           `json:"username" gorm:"uniqueIndex"`
	Password    string           `json:"-"` // bcrypt hash, never serialized
	Role        permissions.Role `json:"role" gorm:"default:PM"`
	Permissions []string         `json:"permissions" gorm:"serializer:json"`
}

func (u *User) BeforeSave(_ *gorm.DB) error {
	u.Username = strings.TrimSpace(u.Username)
	return nil
}

// SetPassword hashes the plaintext password and stores the hash.
func (u *User) SetPassword(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	u.Password = string(hash)
	return nil
}

// CheckPassword reports whether the plaintext password matches the stored hash.
func (u User) CheckPassword(plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plaintext)) == nil
}

// PermissionSet returns the permissions granted to the user. Accounts
// without explicitly stored permissions get the defaults for their role.
func (u User) PermissionSet() permissions.Set {
	if len(u.Permissions) > 0 {
		return permissions.Set(u.Permissions)
	}

	return permissions.Defaults(u.Role)
}
