package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/bitechdev/AdminSpec/pkg/crud"
)

// Address is a soft-deleted child of User. The foreign key carries no
// cascade, so a user with addresses cannot be deleted outright.
type Address struct {
	crud.Base `gorm:"-" json:"-"`

	ID         int64          `gorm:"primaryKey" json:"id"`
	UserID     int64          `gorm:"not null;index" json:"user_id"`
	Name       string         `gorm:"size:255" json:"name"`
	Street     string         `gorm:"size:255" json:"street"`
	City       string         `gorm:"size:255" json:"city"`
	State      string         `gorm:"size:255" json:"state"`
	PostalCode string         `gorm:"size:32" json:"postal_code"`
	Country    string         `gorm:"size:255" json:"country"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Address) TableName() string { return "addresses" }

func (Address) Fillable() []string {
	return []string{"user_id", "name", "street", "city", "state", "postal_code", "country"}
}

func (Address) Whereable() []string {
	return []string{"user_id", "city", "state", "postal_code", "country"}
}

func (Address) MandatoryWhereable() []string { return []string{"user_id"} }

func (Address) Sortable() []string {
	return []string{"name", "street", "city", "state", "postal_code", "country"}
}

func (Address) Withable() []string { return []string{"user"} }
