package postgres

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gravadigital/afisha-api/internal/apperrors"
	"github.com/gravadigital/afisha-api/internal/domain/category"
	"github.com/gravadigital/afisha-api/internal/domain/event"
	"github.com/gravadigital/afisha-api/internal/domain/participant"
	"github.com/gravadigital/afisha-api/internal/domain/request"
)

// MemoryStore is an in-memory Store used by unit tests and local
// development without a database. InTransaction serializes units of
// work with a mutex, which gives the same guarantee the row lock gives
// the PostgreSQL store: capacity check-then-act sequences for an event
// never interleave.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	events     map[uuid.UUID]event.Event
	requests   map[uuid.UUID]request.ParticipationRequest
	users      map[uuid.UUID]participant.User
	categories map[uuid.UUID]category.Category
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:     make(map[uuid.UUID]event.Event),
		requests:   make(map[uuid.UUID]request.ParticipationRequest),
		users:      make(map[uuid.UUID]participant.User),
		categories: make(map[uuid.UUID]category.Category),
	}
}

// Events returns the event repository
func (s *MemoryStore) Events() EventRepository {
	return &memoryEventRepository{s}
}

// Requests returns the participation request repository
func (s *MemoryStore) Requests() RequestRepository {
	return &memoryRequestRepository{s}
}

// Users returns the user repository
func (s *MemoryStore) Users() UserRepository {
	return &memoryUserRepository{s}
}

// Categories returns the category repository
func (s *MemoryStore) Categories() CategoryRepository {
	return &memoryCategoryRepository{s}
}

// InTransaction serializes fn against all other transactions. There is
// no rollback: callers perform all validation before the first write,
// as the service layer does.
func (s *MemoryStore) InTransaction(fn func(Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

// Close releases nothing; it exists so the memory store can stand in
// for the PostgreSQL container.
func (s *MemoryStore) Close() error {
	return nil
}

type memoryEventRepository struct {
	store *MemoryStore
}

func (r *memoryEventRepository) Create(e *event.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.events[e.ID] = *e
	return nil
}

func (r *memoryEventRepository) Save(e *event.Event) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.events[e.ID] = *e
	return nil
}

func (r *memoryEventRepository) GetByID(id uuid.UUID) (*event.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e, exists := r.store.events[id]
	if !exists {
		return nil, apperrors.NotFound("event with id %s not found", id)
	}
	return &e, nil
}

// GetByIDLocked is equivalent to GetByID: the transaction mutex already
// serializes writers.
func (r *memoryEventRepository) GetByIDLocked(id uuid.UUID) (*event.Event, error) {
	return r.GetByID(id)
}

func (r *memoryEventRepository) GetByInitiator(initiatorID uuid.UUID, from, size int) ([]*event.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var events []*event.Event
	for id := range r.store.events {
		e := r.store.events[id]
		if e.InitiatorID == initiatorID {
			events = append(events, &e)
		}
	}
	sortEventsByDate(events)
	return paginateEvents(events, from, size), nil
}

func (r *memoryEventRepository) FindAdmin(filter AdminEventFilter) ([]*event.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var events []*event.Event
	for id := range r.store.events {
		e := r.store.events[id]
		if len(filter.Users) > 0 && !containsUUID(filter.Users, e.InitiatorID) {
			continue
		}
		if len(filter.States) > 0 && !containsState(filter.States, e.State) {
			continue
		}
		if len(filter.Categories) > 0 && !containsUUID(filter.Categories, e.CategoryID) {
			continue
		}
		if filter.RangeStart != nil && e.EventDate.Before(*filter.RangeStart) {
			continue
		}
		if filter.RangeEnd != nil && e.EventDate.After(*filter.RangeEnd) {
			continue
		}
		events = append(events, &e)
	}
	sortEventsByDate(events)
	return paginateEvents(events, filter.From, filter.Size), nil
}

func (r *memoryEventRepository) FindPublic(filter PublicEventFilter) ([]*event.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var events []*event.Event
	for id := range r.store.events {
		e := r.store.events[id]
		if e.State != event.StatePublished {
			continue
		}
		if filter.Text != "" {
			text := strings.ToLower(filter.Text)
			if !strings.Contains(strings.ToLower(e.Annotation), text) &&
				!strings.Contains(strings.ToLower(e.Description), text) {
				continue
			}
		}
		if len(filter.Categories) > 0 && !containsUUID(filter.Categories, e.CategoryID) {
			continue
		}
		if filter.Paid != nil && e.Paid != *filter.Paid {
			continue
		}
		if filter.RangeStart != nil && e.EventDate.Before(*filter.RangeStart) {
			continue
		}
		if filter.RangeStart == nil && filter.RangeEnd == nil && e.EventDate.Before(time.Now()) {
			continue
		}
		if filter.RangeEnd != nil && e.EventDate.After(*filter.RangeEnd) {
			continue
		}
		if filter.OnlyAvailable && !e.Unlimited() {
			confirmed := r.store.countRequestsLocked(e.ID, request.StatusConfirmed)
			if confirmed >= int64(e.ParticipantLimit) {
				continue
			}
		}
		events = append(events, &e)
	}
	sortEventsByDate(events)
	return paginateEvents(events, filter.From, filter.Size), nil
}

type memoryRequestRepository struct {
	store *MemoryStore
}

func (r *memoryRequestRepository) Create(req *request.ParticipationRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.requests[req.ID] = *req
	return nil
}

func (r *memoryRequestRepository) Save(req *request.ParticipationRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.requests[req.ID] = *req
	return nil
}

func (r *memoryRequestRepository) SaveAll(reqs []*request.ParticipationRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, req := range reqs {
		r.store.requests[req.ID] = *req
	}
	return nil
}

func (r *memoryRequestRepository) GetByID(id uuid.UUID) (*request.ParticipationRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	req, exists := r.store.requests[id]
	if !exists {
		return nil, apperrors.NotFound("participation request with id %s not found", id)
	}
	return &req, nil
}

func (r *memoryRequestRepository) GetByIDAndRequester(id, requesterID uuid.UUID) (*request.ParticipationRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	req, exists := r.store.requests[id]
	if !exists || req.RequesterID != requesterID {
		return nil, apperrors.NotFound("participation request %s of user %s not found", id, requesterID)
	}
	return &req, nil
}

func (r *memoryRequestRepository) FindByIDs(ids []uuid.UUID) ([]*request.ParticipationRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	// One row per distinct id, matching a SQL IN lookup.
	seen := make(map[uuid.UUID]struct{}, len(ids))
	var reqs []*request.ParticipationRequest
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if req, exists := r.store.requests[id]; exists {
			found := req
			reqs = append(reqs, &found)
		}
	}
	return reqs, nil
}

func (r *memoryRequestRepository) FindByRequester(requesterID uuid.UUID) ([]*request.ParticipationRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var reqs []*request.ParticipationRequest
	for id := range r.store.requests {
		req := r.store.requests[id]
		if req.RequesterID == requesterID {
			reqs = append(reqs, &req)
		}
	}
	sortRequestsByCreated(reqs)
	return reqs, nil
}

func (r *memoryRequestRepository) FindByEvent(eventID uuid.UUID) ([]*request.ParticipationRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var reqs []*request.ParticipationRequest
	for id := range r.store.requests {
		req := r.store.requests[id]
		if req.EventID == eventID {
			reqs = append(reqs, &req)
		}
	}
	sortRequestsByCreated(reqs)
	return reqs, nil
}

func (r *memoryRequestRepository) CountByEventAndStatus(eventID uuid.UUID, status request.Status) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int64
	for _, req := range r.store.requests {
		if req.EventID == eventID && req.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *memoryRequestRepository) CountByStatusForEvents(eventIDs []uuid.UUID, status request.Status) (map[uuid.UUID]int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	counts := make(map[uuid.UUID]int64, len(eventIDs))
	for _, req := range r.store.requests {
		if req.Status == status && containsUUID(eventIDs, req.EventID) {
			counts[req.EventID]++
		}
	}
	return counts, nil
}

func (r *memoryRequestRepository) ExistsActive(requesterID, eventID uuid.UUID) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, req := range r.store.requests {
		if req.RequesterID == requesterID && req.EventID == eventID && req.Status != request.StatusCanceled {
			return true, nil
		}
	}
	return false, nil
}

type memoryUserRepository struct {
	store *MemoryStore
}

func (r *memoryUserRepository) Create(u *participant.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.users[u.ID] = *u
	return nil
}

func (r *memoryUserRepository) GetByID(id uuid.UUID) (*participant.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, exists := r.store.users[id]
	if !exists {
		return nil, apperrors.NotFound("user with id %s not found", id)
	}
	return &u, nil
}

func (r *memoryUserRepository) GetByEmail(email string) (*participant.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for id := range r.store.users {
		u := r.store.users[id]
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.NotFound("user with email %s not found", email)
}

func (r *memoryUserRepository) GetAll(from, size int) ([]*participant.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var users []*participant.User
	for id := range r.store.users {
		u := r.store.users[id]
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt.Time)
	})
	if from >= len(users) {
		return nil, nil
	}
	end := min(from+size, len(users))
	return users[from:end], nil
}

func (r *memoryUserRepository) Delete(id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.users[id]; !exists {
		return apperrors.NotFound("user with id %s not found", id)
	}
	delete(r.store.users, id)
	return nil
}

type memoryCategoryRepository struct {
	store *MemoryStore
}

func (r *memoryCategoryRepository) Create(c *category.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.categories[c.ID] = *c
	return nil
}

func (r *memoryCategoryRepository) Save(c *category.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.categories[c.ID] = *c
	return nil
}

func (r *memoryCategoryRepository) GetByID(id uuid.UUID) (*category.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, exists := r.store.categories[id]
	if !exists {
		return nil, apperrors.NotFound("category with id %s not found", id)
	}
	return &c, nil
}

func (r *memoryCategoryRepository) GetByName(name string) (*category.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for id := range r.store.categories {
		c := r.store.categories[id]
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, apperrors.NotFound("category with name %q not found", name)
}

func (r *memoryCategoryRepository) GetAll(from, size int) ([]*category.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var categories []*category.Category
	for id := range r.store.categories {
		c := r.store.categories[id]
		categories = append(categories, &c)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	if from >= len(categories) {
		return nil, nil
	}
	end := min(from+size, len(categories))
	return categories[from:end], nil
}

func (r *memoryCategoryRepository) Delete(id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.categories[id]; !exists {
		return apperrors.NotFound("category with id %s not found", id)
	}
	delete(r.store.categories, id)
	return nil
}

// countRequestsLocked counts requests for an event while the caller
// already holds the data lock.
func (s *MemoryStore) countRequestsLocked(eventID uuid.UUID, status request.Status) int64 {
	var count int64
	for _, req := range s.requests {
		if req.EventID == eventID && req.Status == status {
			count++
		}
	}
	return count
}

func sortEventsByDate(events []*event.Event) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].EventDate.Before(events[j].EventDate.Time)
	})
}

func sortRequestsByCreated(reqs []*request.ParticipationRequest) {
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].Created.Before(reqs[j].Created.Time)
	})
}

func paginateEvents(events []*event.Event, from, size int) []*event.Event {
	if from >= len(events) {
		return nil
	}
	end := min(from+size, len(events))
	return events[from:end]
}

func containsUUID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func containsState(states []event.State, state event.State) bool {
	for _, candidate := range states {
		if candidate == state {
			return true
		}
	}
	return false
}
