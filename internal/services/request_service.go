package services

import (
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/afisha-api/internal/apperrors"
	"github.com/gravadigital/afisha-api/internal/domain/event"
	"github.com/gravadigital/afisha-api/internal/domain/request"
	"github.com/gravadigital/afisha-api/internal/logger"
	"github.com/gravadigital/afisha-api/internal/storage/postgres"
	"github.com/gravadigital/afisha-api/internal/validation"
)

// RequestService handles the participation request business logic:
// admission of new requests, requester-side cancellation and
// organizer-side batch moderation.
type RequestService struct {
	store postgres.Store
	log   *log.Logger
}

// NewRequestService creates a new request service instance
func NewRequestService(store postgres.Store) *RequestService {
	return &RequestService{
		store: store,
		log:   logger.Service("requests"),
	}
}

// Create admits a new participation request from userID to eventID.
//
// Preconditions are checked in a fixed order, first failure wins:
// event exists, requester is not the initiator, no active duplicate,
// event is published, the event has room. The capacity read and the
// request write run inside one transaction holding the event lock so
// two racing admissions cannot both take the last slot.
func (s *RequestService) Create(userID, eventID string) (*request.ParticipationRequest, error) {
	requesterID, err := validation.ValidateUUID(userID, "userId")
	if err != nil {
		return nil, err
	}
	evID, err := validation.ValidateUUID(eventID, "eventId")
	if err != nil {
		return nil, err
	}

	var created *request.ParticipationRequest

	err = s.store.InTransaction(func(tx postgres.Store) error {
		if _, err := tx.Users().GetByID(requesterID); err != nil {
			return err
		}

		e, err := tx.Events().GetByIDLocked(evID)
		if err != nil {
			return err
		}

		if e.IsInitiator(requesterID) {
			return apperrors.Conflict("initiator cannot request participation in own event")
		}

		active, err := tx.Requests().ExistsActive(requesterID, e.ID)
		if err != nil {
			return err
		}
		if active {
			return apperrors.Conflict("duplicate participation request for event %s", eventID)
		}

		if e.State != event.StatePublished {
			return apperrors.Conflict("cannot request participation in an unpublished event")
		}

		capacity, err := eventCapacity(tx.Requests(), e)
		if err != nil {
			return err
		}
		if !capacity.HasRoom() {
			return apperrors.Conflict("event %s is fully booked", eventID)
		}

		status := request.StatusPending
		if !e.RequestModeration || e.Unlimited() {
			status = request.StatusConfirmed
		}

		created = request.New(e.ID, requesterID, status)
		return tx.Requests().Create(created)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("participation request created",
		"request_id", created.ID,
		"event_id", eventID,
		"requester_id", userID,
		"status", created.Status)

	return created, nil
}

// Cancel cancels the requester's own pending request. Requests that
// already reached a terminal status cannot be canceled.
func (s *RequestService) Cancel(userID, requestID string) (*request.ParticipationRequest, error) {
	requesterID, err := validation.ValidateUUID(userID, "userId")
	if err != nil {
		return nil, err
	}
	reqID, err := validation.ValidateUUID(requestID, "requestId")
	if err != nil {
		return nil, err
	}

	r, err := s.store.Requests().GetByIDAndRequester(reqID, requesterID)
	if err != nil {
		return nil, err
	}

	if r.Status.Terminal() {
		return nil, apperrors.Conflict("cannot cancel request in status %s", r.Status)
	}

	r.Status = request.StatusCanceled
	if err := s.store.Requests().Save(r); err != nil {
		return nil, err
	}

	s.log.Info("participation request canceled", "request_id", requestID, "requester_id", userID)

	return r, nil
}

// GetByRequester returns all requests the user has made, newest first.
func (s *RequestService) GetByRequester(userID string) ([]*request.ParticipationRequest, error) {
	requesterID, err := validation.ValidateUUID(userID, "userId")
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Users().GetByID(requesterID); err != nil {
		return nil, err
	}

	return s.store.Requests().FindByRequester(requesterID)
}

// GetForEvent returns all requests made against the user's own event.
func (s *RequestService) GetForEvent(userID, eventID string) ([]*request.ParticipationRequest, error) {
	initiatorID, err := validation.ValidateUUID(userID, "userId")
	if err != nil {
		return nil, err
	}
	evID, err := validation.ValidateUUID(eventID, "eventId")
	if err != nil {
		return nil, err
	}

	e, err := s.store.Events().GetByID(evID)
	if err != nil {
		return nil, err
	}
	if !e.IsInitiator(initiatorID) {
		return nil, apperrors.Conflict("user %s is not the initiator of event %s", userID, eventID)
	}

	return s.store.Requests().FindByEvent(evID)
}

// ModerationRequest is a batch decision over pending requests.
type ModerationRequest struct {
	RequestIDs []string `json:"requestIds" binding:"required"`
	Status     string   `json:"status" binding:"required"`
}

// ModerationResult reports the outcome of a batch decision. Rejected
// holds both explicitly rejected requests and overflow rejections.
type ModerationResult struct {
	ConfirmedRequests []*request.ParticipationRequest `json:"confirmedRequests"`
	RejectedRequests  []*request.ParticipationRequest `json:"rejectedRequests"`
}

// UpdateStatuses applies an organizer's confirm/reject decision to a
// batch of pending requests for the user's own event.
//
// The batch is processed in input order. When the target is CONFIRMED
// and the event cannot take the whole batch, requests are confirmed
// while slots remain and the overflow is rejected. If the event has no
// room at all the whole batch fails with a Conflict and nothing is
// written.
func (s *RequestService) UpdateStatuses(userID, eventID string, req ModerationRequest) (*ModerationResult, error) {
	initiatorID, err := validation.ValidateUUID(userID, "userId")
	if err != nil {
		return nil, err
	}
	evID, err := validation.ValidateUUID(eventID, "eventId")
	if err != nil {
		return nil, err
	}

	target, valid := request.StatusFromString(req.Status)
	if !valid || !target.ModerationTarget() {
		return nil, apperrors.Validation("status must be CONFIRMED or REJECTED, got %q", req.Status)
	}

	if len(req.RequestIDs) == 0 {
		return nil, apperrors.Validation("requestIds must not be empty")
	}

	ids := make([]uuid.UUID, 0, len(req.RequestIDs))
	seen := make(map[uuid.UUID]struct{}, len(req.RequestIDs))
	for _, raw := range req.RequestIDs {
		id, err := validation.ValidateUUID(raw, "requestIds")
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			return nil, apperrors.Validation("requestIds contains request %s more than once", id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	result := &ModerationResult{
		ConfirmedRequests: []*request.ParticipationRequest{},
		RejectedRequests:  []*request.ParticipationRequest{},
	}

	err = s.store.InTransaction(func(tx postgres.Store) error {
		e, err := tx.Events().GetByIDLocked(evID)
		if err != nil {
			return err
		}
		if !e.IsInitiator(initiatorID) {
			return apperrors.Conflict("user %s is not the initiator of event %s", userID, eventID)
		}

		fetched, err := tx.Requests().FindByIDs(ids)
		if err != nil {
			return err
		}
		if len(fetched) != len(ids) {
			return apperrors.NotFound("some participation requests were not found")
		}

		// The repository does not guarantee result order, so reassemble
		// the batch in caller order before awarding slots.
		byID := make(map[uuid.UUID]*request.ParticipationRequest, len(fetched))
		for _, r := range fetched {
			byID[r.ID] = r
		}
		batch := make([]*request.ParticipationRequest, 0, len(ids))
		for _, id := range ids {
			r, ok := byID[id]
			if !ok {
				return apperrors.NotFound("participation request %s was not found", id)
			}
			batch = append(batch, r)
		}

		for _, r := range batch {
			if r.EventID != e.ID {
				return apperrors.Conflict("request %s does not belong to event %s", r.ID, eventID)
			}
			if r.Status != request.StatusPending {
				return apperrors.Conflict("request %s is %s, only pending requests can be moderated", r.ID, r.Status)
			}
		}

		if target == request.StatusRejected {
			for _, r := range batch {
				r.Status = request.StatusRejected
				result.RejectedRequests = append(result.RejectedRequests, r)
			}
			return tx.Requests().SaveAll(batch)
		}

		capacity, err := eventCapacity(tx.Requests(), e)
		if err != nil {
			return err
		}
		if !capacity.HasRoom() {
			return apperrors.Conflict("event %s is fully booked", eventID)
		}

		available := capacity.Remaining()
		for _, r := range batch {
			if capacity.Unlimited() || available > 0 {
				r.Status = request.StatusConfirmed
				result.ConfirmedRequests = append(result.ConfirmedRequests, r)
				available--
				continue
			}
			r.Status = request.StatusRejected
			result.RejectedRequests = append(result.RejectedRequests, r)
		}

		return tx.Requests().SaveAll(batch)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("moderation batch applied",
		"event_id", eventID,
		"target", target,
		"confirmed", len(result.ConfirmedRequests),
		"rejected", len(result.RejectedRequests))

	return result, nil
}
