package services

import (
	"github.com/gravadigital/afisha-api/internal/domain/event"
	"github.com/gravadigital/afisha-api/internal/domain/request"
	"github.com/gravadigital/afisha-api/internal/storage/postgres"
)

// Capacity is a point-in-time snapshot of an event's slot usage. A
// limit of zero means the event is unlimited and always has room.
type Capacity struct {
	Limit     int
	Confirmed int64
}

// Unlimited reports whether the event accepts any number of participants.
func (c Capacity) Unlimited() bool {
	return c.Limit == 0
}

// Remaining returns the number of free slots. Only meaningful for
// limited events; the count never goes below zero.
func (c Capacity) Remaining() int64 {
	remaining := int64(c.Limit) - c.Confirmed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// HasRoom reports whether at least one more request can be confirmed.
func (c Capacity) HasRoom() bool {
	return c.Unlimited() || c.Confirmed < int64(c.Limit)
}

// eventCapacity reads the current capacity of an event. Confirmed
// counts are always recomputed from the request table, never cached on
// the event. Callers that act on the result must hold the event lock
// taken by GetByIDLocked inside a transaction.
func eventCapacity(requests postgres.RequestRepository, e *event.Event) (Capacity, error) {
	confirmed, err := requests.CountByEventAndStatus(e.ID, request.StatusConfirmed)
	if err != nil {
		return Capacity{}, err
	}
	return Capacity{Limit: e.ParticipantLimit, Confirmed: confirmed}, nil
}
