// Package participant holds the user model. Users are a lookup
// collaborator for the lifecycle engine: events and requests reference
// them by id only.
package participant

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/afisha-api/internal/wire"
)

// User represents a registered user of the platform.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"not null;uniqueIndex"`
	CreatedAt wire.DateTime `json:"created_at" gorm:"not null"`
}

// TableName overrides the table name used by GORM
func (User) TableName() string {
	return "users"
}

// BeforeCreate sets a UUID before creating the record
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// NewUser creates a new user
func NewUser(name, email string) *User {
	return &User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		CreatedAt: wire.Now(),
	}
}
