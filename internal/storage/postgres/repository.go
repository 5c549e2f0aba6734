package postgres

import (
	"time"

	"github.com/google/uuid"

	"github.com/gravadigital/afisha-api/internal/domain/category"
	"github.com/gravadigital/afisha-api/internal/domain/event"
	"github.com/gravadigital/afisha-api/internal/domain/participant"
	"github.com/gravadigital/afisha-api/internal/domain/request"
)

// AdminEventFilter narrows the administrative event search.
type AdminEventFilter struct {
	Users      []uuid.UUID
	States     []event.State
	Categories []uuid.UUID
	RangeStart *time.Time
	RangeEnd   *time.Time
	From       int
	Size       int
}

// PublicEventFilter narrows the public event search. Only published
// events are ever returned.
type PublicEventFilter struct {
	Text          string
	Categories    []uuid.UUID
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	From          int
	Size          int
}

// EventRepository defines persistence operations for events.
type EventRepository interface {
	Create(e *event.Event) error
	Save(e *event.Event) error
	GetByID(id uuid.UUID) (*event.Event, error)
	// GetByIDLocked fetches the event while taking the write lock that
	// serializes capacity-sensitive sections. Only meaningful inside a
	// transaction.
	GetByIDLocked(id uuid.UUID) (*event.Event, error)
	GetByInitiator(initiatorID uuid.UUID, from, size int) ([]*event.Event, error)
	FindAdmin(filter AdminEventFilter) ([]*event.Event, error)
	FindPublic(filter PublicEventFilter) ([]*event.Event, error)
}

// RequestRepository defines persistence operations for participation requests.
type RequestRepository interface {
	Create(r *request.ParticipationRequest) error
	Save(r *request.ParticipationRequest) error
	SaveAll(rs []*request.ParticipationRequest) error
	GetByID(id uuid.UUID) (*request.ParticipationRequest, error)
	GetByIDAndRequester(id, requesterID uuid.UUID) (*request.ParticipationRequest, error)
	FindByIDs(ids []uuid.UUID) ([]*request.ParticipationRequest, error)
	FindByRequester(requesterID uuid.UUID) ([]*request.ParticipationRequest, error)
	FindByEvent(eventID uuid.UUID) ([]*request.ParticipationRequest, error)
	CountByEventAndStatus(eventID uuid.UUID, status request.Status) (int64, error)
	CountByStatusForEvents(eventIDs []uuid.UUID, status request.Status) (map[uuid.UUID]int64, error)
	// ExistsActive reports whether the requester has a non-canceled
	// request for the event. Canceled requests do not count as
	// duplicates, so a user may re-request after canceling.
	ExistsActive(requesterID, eventID uuid.UUID) (bool, error)
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(u *participant.User) error
	GetByID(id uuid.UUID) (*participant.User, error)
	GetByEmail(email string) (*participant.User, error)
	GetAll(from, size int) ([]*participant.User, error)
	Delete(id uuid.UUID) error
}

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	Create(c *category.Category) error
	Save(c *category.Category) error
	GetByID(id uuid.UUID) (*category.Category, error)
	GetByName(name string) (*category.Category, error)
	GetAll(from, size int) ([]*category.Category, error)
	Delete(id uuid.UUID) error
}

// Store bundles the repositories and gives services transactional
// access to them. InTransaction runs fn against repositories bound to
// one unit of work; the check-then-act sequences that touch an event's
// confirmed count must run inside it, together with
// EventRepository.GetByIDLocked on that event.
type Store interface {
	Events() EventRepository
	Requests() RequestRepository
	Users() UserRepository
	Categories() CategoryRepository
	InTransaction(fn func(Store) error) error
}
