// Package event holds the event model and its publication lifecycle.
package event

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/afisha-api/internal/apperrors"
	"github.com/gravadigital/afisha-api/internal/domain/category"
	"github.com/gravadigital/afisha-api/internal/domain/participant"
	"github.com/gravadigital/afisha-api/internal/wire"
)

// PublishLeadTime is the minimum interval between publication time and
// the event start for PUBLISH_EVENT to be legal.
const PublishLeadTime = time.Hour

// CreationLeadTime is the minimum interval between submission time and
// the event start when an event is created or edited by its initiator.
const CreationLeadTime = 2 * time.Hour

// Event represents a published or pending event on the platform.
type Event struct {
	ID                uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Title             string            `json:"title" gorm:"not null"`
	Annotation        string            `json:"annotation" gorm:"not null"`
	Description       string            `json:"description" gorm:"not null"`
	CategoryID        uuid.UUID         `json:"-" gorm:"type:uuid;not null"`
	Category          category.Category `json:"category" gorm:"foreignKey:CategoryID"`
	InitiatorID       uuid.UUID         `json:"-" gorm:"type:uuid;not null"`
	Initiator         participant.User  `json:"initiator" gorm:"foreignKey:InitiatorID"`
	EventDate         wire.DateTime     `json:"eventDate" gorm:"not null"`
	CreatedOn         wire.DateTime     `json:"createdOn" gorm:"not null"`
	PublishedOn       *wire.DateTime    `json:"publishedOn,omitempty"`
	LocationLat       float64           `json:"-" gorm:"not null"`
	LocationLon       float64           `json:"-" gorm:"not null"`
	ParticipantLimit  int               `json:"participantLimit" gorm:"not null;default:0"`
	Paid              bool              `json:"paid" gorm:"not null;default:false"`
	RequestModeration bool              `json:"requestModeration" gorm:"not null;default:true"`
	State             State             `json:"state" gorm:"type:event_state;not null;default:'PENDING'"`
}

// TableName overrides the table name used by GORM
func (Event) TableName() string {
	return "events"
}

// BeforeCreate sets a UUID before creating the record
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// New creates a pending event with the platform defaults: free, no
// participant limit, moderated requests.
func New(title, annotation, description string, categoryID, initiatorID uuid.UUID, eventDate time.Time, lat, lon float64) *Event {
	return &Event{
		ID:                uuid.New(),
		Title:             title,
		Annotation:        annotation,
		Description:       description,
		CategoryID:        categoryID,
		InitiatorID:       initiatorID,
		EventDate:         wire.NewDateTime(eventDate),
		CreatedOn:         wire.Now(),
		LocationLat:       lat,
		LocationLon:       lon,
		ParticipantLimit:  0,
		Paid:              false,
		RequestModeration: true,
		State:             StatePending,
	}
}

// IsInitiator checks if the given user ID is the initiator of this event
func (e *Event) IsInitiator(userID uuid.UUID) bool {
	return e.InitiatorID == userID
}

// Unlimited reports whether the event has no participant cap.
func (e *Event) Unlimited() bool {
	return e.ParticipantLimit == 0
}

// Editable reports whether the event may still be changed by its
// initiator. Published events are frozen for non-administrators.
func (e *Event) Editable() bool {
	return e.State == StatePending || e.State == StateCanceled
}

// ApplyAction routes a state action through the lifecycle table.
//
// effectiveDate is the event date that will hold once the surrounding
// update is applied: the incoming date when the same update changes it,
// the stored date otherwise. The publish guard must see that value, not
// the stale one.
func (e *Event) ApplyAction(action StateAction, effectiveDate time.Time, now time.Time) error {
	switch action {
	case ActionPublishEvent:
		if e.State != StatePending {
			return apperrors.Conflict("cannot apply %s: event is %s, only pending events can be published", action, e.State)
		}
		if effectiveDate.Before(now.Add(PublishLeadTime)) {
			return apperrors.Conflict("cannot publish event: event date must be at least one hour after publication")
		}
		e.State = StatePublished
		publishedOn := wire.NewDateTime(now)
		e.PublishedOn = &publishedOn
	case ActionRejectEvent:
		if e.State == StatePublished {
			return apperrors.Conflict("cannot apply %s: event is already published", action)
		}
		e.State = StateCanceled
	case ActionSendToReview:
		if e.State != StateCanceled {
			return apperrors.Conflict("cannot apply %s: event is %s, only canceled events can be sent back to review", action, e.State)
		}
		e.State = StatePending
	case ActionCancelReview:
		if e.State != StatePending {
			return apperrors.Conflict("cannot apply %s: event is %s, only pending events can be canceled", action, e.State)
		}
		e.State = StateCanceled
	default:
		return apperrors.Validation("unknown state action %q", action.String())
	}
	return nil
}

// Validate checks if the event data is structurally valid
func (e *Event) Validate() error {
	if e.Title == "" {
		return apperrors.Validation("title is required")
	}
	if e.CategoryID == uuid.Nil {
		return apperrors.Validation("category is required")
	}
	if e.InitiatorID == uuid.Nil {
		return apperrors.Validation("initiator is required")
	}
	if e.ParticipantLimit < 0 {
		return apperrors.Validation("participant limit cannot be negative")
	}
	if e.LocationLat < -90 || e.LocationLat > 90 {
		return apperrors.Validation("location latitude out of range")
	}
	if e.LocationLon < -180 || e.LocationLon > 180 {
		return apperrors.Validation("location longitude out of range")
	}
	return nil
}
