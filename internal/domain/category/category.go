// Package category holds the event category model. Categories are a
// lookup collaborator for the lifecycle engine: events reference them
// by id only.
package category

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category represents an event category.
type Category struct {
	ID   uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name string    `json:"name" gorm:"not null;uniqueIndex"`
}

// TableName overrides the table name used by GORM
func (Category) TableName() string {
	return "categories"
}

// BeforeCreate sets a UUID before creating the record
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// New creates a category with the given name.
func New(name string) *Category {
	return &Category{ID: uuid.New(), Name: name}
}
