package services

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/afisha-api/internal/apperrors"
	"github.com/gravadigital/afisha-api/internal/domain/category"
	"github.com/gravadigital/afisha-api/internal/domain/event"
	"github.com/gravadigital/afisha-api/internal/domain/participant"
	"github.com/gravadigital/afisha-api/internal/domain/request"
	"github.com/gravadigital/afisha-api/internal/logger"
	"github.com/gravadigital/afisha-api/internal/storage/postgres"
	"github.com/gravadigital/afisha-api/internal/wire"
)

func init() {
	logger.Initialize("error")
}

type fixture struct {
	store     *postgres.MemoryStore
	initiator *participant.User
	category  *category.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := postgres.NewMemoryStore()

	initiator := participant.NewUser("Olga Petrova", "olga@example.com")
	require.NoError(t, store.Users().Create(initiator))

	cat := category.New("concerts")
	require.NoError(t, store.Categories().Create(cat))

	return &fixture{store: store, initiator: initiator, category: cat}
}

func (f *fixture) newUser(t *testing.T, email string) *participant.User {
	t.Helper()
	u := participant.NewUser("User "+email, email)
	require.NoError(t, f.store.Users().Create(u))
	return u
}

// publishedEvent seeds an event already through moderation.
func (f *fixture) publishedEvent(t *testing.T, limit int, moderation bool) *event.Event {
	t.Helper()

	e := f.pendingEvent(t, limit, moderation)
	e.State = event.StatePublished
	publishedOn := wire.Now()
	e.PublishedOn = &publishedOn
	require.NoError(t, f.store.Events().Save(e))
	return e
}

func (f *fixture) pendingEvent(t *testing.T, limit int, moderation bool) *event.Event {
	t.Helper()

	e := event.New(
		"Night cinema marathon",
		"Six classic films back to back on the rooftop screen",
		"Doors open at sunset, blankets provided, the full program runs until early morning",
		f.category.ID,
		f.initiator.ID,
		time.Now().Add(72*time.Hour),
		59.93,
		30.31,
	)
	e.ParticipantLimit = limit
	e.RequestModeration = moderation
	require.NoError(t, f.store.Events().Create(e))
	return e
}

func (f *fixture) pendingRequest(t *testing.T, eventID uuid.UUID) (*participant.User, *request.ParticipationRequest) {
	t.Helper()

	u := f.newUser(t, uuid.NewString()+"@example.com")
	r := request.New(eventID, u.ID, request.StatusPending)
	require.NoError(t, f.store.Requests().Create(r))
	return u, r
}

func TestRequestCreate_AutoConfirmWithoutModeration(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 10, false)
	u := f.newUser(t, "guest@example.com")

	r, err := svc.Create(u.ID.String(), e.ID.String())
	require.NoError(t, err)
	assert.Equal(t, request.StatusConfirmed, r.Status)
}

func TestRequestCreate_AutoConfirmWhenUnlimited(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 0, true)
	u := f.newUser(t, "guest@example.com")

	r, err := svc.Create(u.ID.String(), e.ID.String())
	require.NoError(t, err)
	assert.Equal(t, request.StatusConfirmed, r.Status)
}

func TestRequestCreate_PendingWhenModerated(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 10, true)
	u := f.newUser(t, "guest@example.com")

	r, err := svc.Create(u.ID.String(), e.ID.String())
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, r.Status)
}

func TestRequestCreate_EventNotFound(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	u := f.newUser(t, "guest@example.com")

	_, err := svc.Create(u.ID.String(), uuid.NewString())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRequestCreate_InitiatorConflict(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 10, true)

	_, err := svc.Create(f.initiator.ID.String(), e.ID.String())
	assert.True(t, apperrors.IsConflict(err))
}

func TestRequestCreate_DuplicateConflict(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 10, true)
	u := f.newUser(t, "guest@example.com")

	_, err := svc.Create(u.ID.String(), e.ID.String())
	require.NoError(t, err)

	_, err = svc.Create(u.ID.String(), e.ID.String())
	assert.True(t, apperrors.IsConflict(err))
}

func TestRequestCreate_AllowedAgainAfterCancel(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 10, true)
	u := f.newUser(t, "guest@example.com")

	first, err := svc.Create(u.ID.String(), e.ID.String())
	require.NoError(t, err)

	_, err = svc.Cancel(u.ID.String(), first.ID.String())
	require.NoError(t, err)

	second, err := svc.Create(u.ID.String(), e.ID.String())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRequestCreate_UnpublishedConflict(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.pendingEvent(t, 10, true)
	u := f.newUser(t, "guest@example.com")

	_, err := svc.Create(u.ID.String(), e.ID.String())
	assert.True(t, apperrors.IsConflict(err))
}

func TestRequestCreate_FullyBookedConflict(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 1, false)

	first := f.newUser(t, "first@example.com")
	_, err := svc.Create(first.ID.String(), e.ID.String())
	require.NoError(t, err)

	second := f.newUser(t, "second@example.com")
	_, err = svc.Create(second.ID.String(), e.ID.String())
	assert.True(t, apperrors.IsConflict(err))
}

// Pending requests occupy no slot: only confirmed requests count
// against the limit.
func TestRequestCreate_PendingDoesNotConsumeCapacity(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 1, true)

	for i := 0; i < 3; i++ {
		u := f.newUser(t, uuid.NewString()+"@example.com")
		r, err := svc.Create(u.ID.String(), e.ID.String())
		require.NoError(t, err)
		assert.Equal(t, request.StatusPending, r.Status)
	}
}

func TestRequestCreate_ConcurrentLastSlot(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 1, false)

	const attempts = 20
	users := make([]*participant.User, attempts)
	for i := range users {
		users[i] = f.newUser(t, uuid.NewString()+"@example.com")
	}

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(users[i].ID.String(), e.ID.String())
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperrors.IsConflict(err))
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one admission may take the last slot")

	confirmed, err := f.store.Requests().CountByEventAndStatus(e.ID, request.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), confirmed)
}

func TestRequestCancel_Pending(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 10, true)
	u := f.newUser(t, "guest@example.com")

	r, err := svc.Create(u.ID.String(), e.ID.String())
	require.NoError(t, err)

	canceled, err := svc.Cancel(u.ID.String(), r.ID.String())
	require.NoError(t, err)
	assert.Equal(t, request.StatusCanceled, canceled.Status)
}

func TestRequestCancel_TerminalConflict(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 10, false)
	u := f.newUser(t, "guest@example.com")

	r, err := svc.Create(u.ID.String(), e.ID.String())
	require.NoError(t, err)
	require.Equal(t, request.StatusConfirmed, r.Status)

	_, err = svc.Cancel(u.ID.String(), r.ID.String())
	assert.True(t, apperrors.IsConflict(err))
}

func TestRequestCancel_ForeignRequestNotFound(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 10, true)
	owner := f.newUser(t, "owner@example.com")
	other := f.newUser(t, "other@example.com")

	r, err := svc.Create(owner.ID.String(), e.ID.String())
	require.NoError(t, err)

	_, err = svc.Cancel(other.ID.String(), r.ID.String())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestModeration_PartialAdmissionInOrder(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 3, true)

	// One slot already taken, two remain.
	mustSeedConfirmed(t, f, e.ID)

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		_, r := f.pendingRequest(t, e.ID)
		ids = append(ids, r.ID.String())
	}

	result, err := svc.UpdateStatuses(f.initiator.ID.String(), e.ID.String(), ModerationRequest{
		RequestIDs: ids,
		Status:     "CONFIRMED",
	})
	require.NoError(t, err)

	require.Len(t, result.ConfirmedRequests, 2)
	require.Len(t, result.RejectedRequests, 3)

	// The first two in list order win the remaining slots.
	assert.Equal(t, ids[0], result.ConfirmedRequests[0].ID.String())
	assert.Equal(t, ids[1], result.ConfirmedRequests[1].ID.String())
	for i, r := range result.RejectedRequests {
		assert.Equal(t, ids[i+2], r.ID.String())
		assert.Equal(t, request.StatusRejected, r.Status)
	}

	confirmed, err := f.store.Requests().CountByEventAndStatus(e.ID, request.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, int64(3), confirmed)
}

func TestModeration_RejectAll(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 2, true)

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		_, r := f.pendingRequest(t, e.ID)
		ids = append(ids, r.ID.String())
	}

	result, err := svc.UpdateStatuses(f.initiator.ID.String(), e.ID.String(), ModerationRequest{
		RequestIDs: ids,
		Status:     "REJECTED",
	})
	require.NoError(t, err)
	assert.Empty(t, result.ConfirmedRequests)
	assert.Len(t, result.RejectedRequests, 3)
}

func TestModeration_ZeroRoomConflictLeavesBatchUntouched(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 1, true)

	mustSeedConfirmed(t, f, e.ID)

	_, pending := f.pendingRequest(t, e.ID)

	_, err := svc.UpdateStatuses(f.initiator.ID.String(), e.ID.String(), ModerationRequest{
		RequestIDs: []string{pending.ID.String()},
		Status:     "CONFIRMED",
	})
	assert.True(t, apperrors.IsConflict(err))

	reloaded, err := f.store.Requests().GetByID(pending.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, reloaded.Status)
}

func TestModeration_UnlimitedConfirmsEverything(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 0, true)

	ids := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		_, r := f.pendingRequest(t, e.ID)
		ids = append(ids, r.ID.String())
	}

	result, err := svc.UpdateStatuses(f.initiator.ID.String(), e.ID.String(), ModerationRequest{
		RequestIDs: ids,
		Status:     "CONFIRMED",
	})
	require.NoError(t, err)
	assert.Len(t, result.ConfirmedRequests, 4)
	assert.Empty(t, result.RejectedRequests)
}

func TestModeration_NonInitiatorConflict(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 5, true)
	_, r := f.pendingRequest(t, e.ID)
	outsider := f.newUser(t, "outsider@example.com")

	_, err := svc.UpdateStatuses(outsider.ID.String(), e.ID.String(), ModerationRequest{
		RequestIDs: []string{r.ID.String()},
		Status:     "CONFIRMED",
	})
	assert.True(t, apperrors.IsConflict(err))
}

func TestModeration_MissingRequestNotFound(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 5, true)

	_, err := svc.UpdateStatuses(f.initiator.ID.String(), e.ID.String(), ModerationRequest{
		RequestIDs: []string{uuid.NewString()},
		Status:     "CONFIRMED",
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestModeration_ForeignEventRequestConflict(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 5, true)
	other := f.publishedEvent(t, 5, true)
	_, r := f.pendingRequest(t, other.ID)

	_, err := svc.UpdateStatuses(f.initiator.ID.String(), e.ID.String(), ModerationRequest{
		RequestIDs: []string{r.ID.String()},
		Status:     "CONFIRMED",
	})
	assert.True(t, apperrors.IsConflict(err))
}

func TestModeration_NonPendingConflict(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 5, true)

	id := mustSeedConfirmed(t, f, e.ID)

	_, err := svc.UpdateStatuses(f.initiator.ID.String(), e.ID.String(), ModerationRequest{
		RequestIDs: []string{id.String()},
		Status:     "REJECTED",
	})
	assert.True(t, apperrors.IsConflict(err))
}

func TestModeration_InvalidTargetStatus(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 5, true)
	_, r := f.pendingRequest(t, e.ID)

	for _, status := range []string{"PENDING", "CANCELED", "APPROVED"} {
		_, err := svc.UpdateStatuses(f.initiator.ID.String(), e.ID.String(), ModerationRequest{
			RequestIDs: []string{r.ID.String()},
			Status:     status,
		})
		assert.True(t, apperrors.IsValidation(err), "status %s must be rejected", status)
	}
}

// reversingStore hands out a request repository whose batch lookups
// come back reversed, the way an index scan is free to order them.
type reversingStore struct {
	postgres.Store
}

func (s reversingStore) Requests() postgres.RequestRepository {
	return reversingRequests{s.Store.Requests()}
}

func (s reversingStore) InTransaction(fn func(postgres.Store) error) error {
	return s.Store.InTransaction(func(tx postgres.Store) error {
		return fn(reversingStore{tx})
	})
}

type reversingRequests struct {
	postgres.RequestRepository
}

func (r reversingRequests) FindByIDs(ids []uuid.UUID) ([]*request.ParticipationRequest, error) {
	reqs, err := r.RequestRepository.FindByIDs(ids)
	for i, j := 0, len(reqs)-1; i < j; i, j = i+1, j-1 {
		reqs[i], reqs[j] = reqs[j], reqs[i]
	}
	return reqs, err
}

// Slots go to the first ids in the submitted list even when the
// repository returns the batch in a different order.
func TestModeration_InputOrderSurvivesRepositoryOrder(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(reversingStore{f.store})
	e := f.publishedEvent(t, 2, true)

	ids := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		_, r := f.pendingRequest(t, e.ID)
		ids = append(ids, r.ID.String())
	}

	result, err := svc.UpdateStatuses(f.initiator.ID.String(), e.ID.String(), ModerationRequest{
		RequestIDs: ids,
		Status:     "CONFIRMED",
	})
	require.NoError(t, err)

	require.Len(t, result.ConfirmedRequests, 2)
	assert.Equal(t, ids[0], result.ConfirmedRequests[0].ID.String())
	assert.Equal(t, ids[1], result.ConfirmedRequests[1].ID.String())
	require.Len(t, result.RejectedRequests, 2)
	assert.Equal(t, ids[2], result.RejectedRequests[0].ID.String())
	assert.Equal(t, ids[3], result.RejectedRequests[1].ID.String())
}

func TestModeration_DuplicateIDRejected(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 5, true)
	_, r := f.pendingRequest(t, e.ID)

	_, err := svc.UpdateStatuses(f.initiator.ID.String(), e.ID.String(), ModerationRequest{
		RequestIDs: []string{r.ID.String(), r.ID.String()},
		Status:     "CONFIRMED",
	})
	assert.True(t, apperrors.IsValidation(err))

	reloaded, err := f.store.Requests().GetByID(r.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, reloaded.Status)
}

func TestGetForEvent_OnlyInitiator(t *testing.T) {
	f := newFixture(t)
	svc := NewRequestService(f.store)
	e := f.publishedEvent(t, 5, true)
	f.pendingRequest(t, e.ID)
	outsider := f.newUser(t, "outsider@example.com")

	requests, err := svc.GetForEvent(f.initiator.ID.String(), e.ID.String())
	require.NoError(t, err)
	assert.Len(t, requests, 1)

	_, err = svc.GetForEvent(outsider.ID.String(), e.ID.String())
	assert.True(t, apperrors.IsConflict(err))
}

// mustSeedConfirmed creates a confirmed request directly in the store
// and returns its id.
func mustSeedConfirmed(t *testing.T, f *fixture, eventID uuid.UUID) uuid.UUID {
	t.Helper()

	u := f.newUser(t, uuid.NewString()+"@example.com")
	r := request.New(eventID, u.ID, request.StatusConfirmed)
	require.NoError(t, f.store.Requests().Create(r))
	return r.ID
}
