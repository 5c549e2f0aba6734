// Package request holds the participation request model and its
// lifecycle. A request is the unit competing for an event's slots.
package request

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/afisha-api/internal/wire"
)

// ParticipationRequest represents one user's request to join an event.
type ParticipationRequest struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	EventID     uuid.UUID `json:"event" gorm:"type:uuid;not null;index"`
	RequesterID uuid.UUID `json:"requester" gorm:"type:uuid;not null;index"`
	Created     wire.DateTime `json:"created" gorm:"not null"`
	Status      Status        `json:"status" gorm:"type:request_status;not null;default:'PENDING'"`
}

// TableName overrides the table name used by GORM
func (ParticipationRequest) TableName() string {
	return "participation_requests"
}

// BeforeCreate sets a UUID before creating the record
func (r *ParticipationRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// New creates a request against an event with the given initial status.
func New(eventID, requesterID uuid.UUID, status Status) *ParticipationRequest {
	return &ParticipationRequest{
		ID:          uuid.New(),
		EventID:     eventID,
		RequesterID: requesterID,
		Created:     wire.Now(),
		Status:      status,
	}
}

// Status represents the state of a participation request
type Status byte

const (
	StatusPending Status = iota
	StatusConfirmed
	StatusRejected
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusConfirmed:
		return "CONFIRMED"
	case StatusRejected:
		return "REJECTED"
	case StatusCanceled:
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no further transition can originate from s.
// Every status except PENDING is terminal.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// ModerationTarget reports whether s is a status an organizer may
// assign in a batch decision.
func (s Status) ModerationTarget() bool {
	return s == StatusConfirmed || s == StatusRejected
}

// MarshalJSON implements the json.Marshaler interface
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (s *Status) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}

	status, valid := StatusFromString(str)
	if !valid {
		return fmt.Errorf("invalid request status: %s", str)
	}
	*s = status
	return nil
}

// StatusFromString converts a string to a Status
func StatusFromString(s string) (Status, bool) {
	switch s {
	case "PENDING":
		return StatusPending, true
	case "CONFIRMED":
		return StatusConfirmed, true
	case "REJECTED":
		return StatusRejected, true
	case "CANCELED":
		return StatusCanceled, true
	default:
		return StatusPending, false
	}
}

// Scan implements the sql.Scanner interface for database deserialization
func (s *Status) Scan(value interface{}) error {
	if value == nil {
		*s = StatusPending
		return nil
	}

	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("cannot scan %T into Status", value)
	}

	status, valid := StatusFromString(str)
	if !valid {
		return fmt.Errorf("invalid request status value: %s", str)
	}
	*s = status
	return nil
}

// Value implements the driver.Valuer interface for database serialization
func (s Status) Value() (driver.Value, error) {
	return s.String(), nil
}
