package models

import (
	"time"

	"github.com/bitechdev/AdminSpec/pkg/crud"
)

// Role is a named grant users can be assigned to.
type Role struct {
	crud.Base `gorm:"-" json:"-"`

	ID          int64     `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Users []*User `gorm:"many2many:role_user;constraint:OnDelete:CASCADE" json:"users,omitempty"`

	UsersCount *int64 `gorm:"->;-:migration" json:"users_count,omitempty"`
}

func (Role) TableName() string       { return "roles" }
func (Role) Fillable() []string      { return []string{"name", "description"} }
func (Role) Whereable() []string     { return []string{"name"} }
func (Role) Sortable() []string      { return []string{"name"} }
func (Role) Withable() []string      { return []string{"users"} }
func (Role) WithCountable() []string { return []string{"users"} }
func (Role) Aggregates() []string    { return []string{"users_count"} }

func (Role) SyncableRelations() map[string]string {
	return map[string]string{"user_ids": "users"}
}
