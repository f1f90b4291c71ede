package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bitechdev/AdminSpec/pkg/crud"
)

// User is an administrable account. Passwords are stored bcrypt-hashed
// and never serialized.
type User struct {
	crud.Base `gorm:"-" json:"-"`

	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Roles     []*Role    `gorm:"many2many:role_user;constraint:OnDelete:CASCADE" json:"roles,omitempty"`
	Addresses []*Address `gorm:"foreignKey:UserID" json:"addresses,omitempty"`

	RolesCount     *int64 `gorm:"->;-:migration" json:"roles_count,omitempty"`
	AddressesCount *int64 `gorm:"->;-:migration" json:"addresses_count,omitempty"`
}

func (User) TableName() string           { return "users" }
func (User) Fillable() []string          { return []string{"name", "email", "password"} }
func (User) Whereable() []string         { return []string{"name", "email"} }
func (User) Sortable() []string          { return []string{"name", "roles_count"} }
func (User) Withable() []string          { return []string{"roles", "addresses"} }
func (User) WithCountable() []string     { return []string{"roles", "addresses"} }
func (User) Aggregates() []string        { return []string{"roles_count", "addresses_count"} }

func (User) SyncableRelations() map[string]string {
	return map[string]string{"role_ids": "roles"}
}

func (User) CreatableRelations() map[string]string {
	return map[string]string{"addresses": "addresses"}
}

// BeforeSave hashes a plaintext password. Values that already look
// like a bcrypt hash are left alone so reloads and partial updates do
// not double-hash.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Password == "" || isBcryptHash(u.Password) {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
