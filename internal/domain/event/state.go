package event

import (
	"database/sql/driver"
	"fmt"
)

// State represents the publication state of an event
type State byte

const (
	StatePending State = iota
	StatePublished
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StatePublished:
		return "PUBLISHED"
	case StateCanceled:
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON implements the json.Marshaler interface
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (s *State) UnmarshalJSON(data []byte) error {
	str := string(data)
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}

	state, valid := StateFromString(str)
	if !valid {
		return fmt.Errorf("invalid event state: %s", str)
	}
	*s = state
	return nil
}

// StateFromString converts a string to a State
func StateFromString(s string) (State, bool) {
	switch s {
	case "PENDING":
		return StatePending, true
	case "PUBLISHED":
		return StatePublished, true
	case "CANCELED":
		return StateCanceled, true
	default:
		return StatePending, false
	}
}

// Scan implements the sql.Scanner interface for database deserialization
func (s *State) Scan(value interface{}) error {
	if value == nil {
		*s = StatePending
		return nil
	}

	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("cannot scan %T into State", value)
	}

	state, valid := StateFromString(str)
	if !valid {
		return fmt.Errorf("invalid event state value: %s", str)
	}
	*s = state
	return nil
}

// Value implements the driver.Valuer interface for database serialization
func (s State) Value() (driver.Value, error) {
	return s.String(), nil
}

// StateAction represents a moderation action over the event state
type StateAction byte

const (
	ActionPublishEvent StateAction = iota
	ActionRejectEvent
	ActionSendToReview
	ActionCancelReview
)

func (a StateAction) String() string {
	switch a {
	case ActionPublishEvent:
		return "PUBLISH_EVENT"
	case ActionRejectEvent:
		return "REJECT_EVENT"
	case ActionSendToReview:
		return "SEND_TO_REVIEW"
	case ActionCancelReview:
		return "CANCEL_REVIEW"
	default:
		return "UNKNOWN"
	}
}

// AdminOnly reports whether the action is reserved to administrators.
func (a StateAction) AdminOnly() bool {
	return a == ActionPublishEvent || a == ActionRejectEvent
}

// ActionFromString converts a string to a StateAction
func ActionFromString(s string) (StateAction, bool) {
	switch s {
	case "PUBLISH_EVENT":
		return ActionPublishEvent, true
	case "REJECT_EVENT":
		return ActionRejectEvent, true
	case "SEND_TO_REVIEW":
		return ActionSendToReview, true
	case "CANCEL_REVIEW":
		return ActionCancelReview, true
	default:
		return ActionPublishEvent, false
	}
}
