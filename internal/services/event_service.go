package services

import (
	"context"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/afisha-api/internal/apperrors"
	"github.com/gravadigital/afisha-api/internal/domain/event"
	"github.com/gravadigital/afisha-api/internal/domain/request"
	"github.com/gravadigital/afisha-api/internal/logger"
	"github.com/gravadigital/afisha-api/internal/stats"
	"github.com/gravadigital/afisha-api/internal/storage/postgres"
	"github.com/gravadigital/afisha-api/internal/validation"
	"github.com/gravadigital/afisha-api/internal/wire"
)

// actorScope distinguishes who is driving an event update. Initiators
// may only edit unpublished events and use the review actions;
// administrators may edit any event and use the full action set.
type actorScope byte

const (
	scopeInitiator actorScope = iota
	scopeAdmin
)

// EventService handles the event business logic: creation, partial
// updates with state actions, and the search surfaces.
type EventService struct {
	store     postgres.Store
	stats     stats.Client
	validator validation.EventValidation
	log       *log.Logger
}

// NewEventService creates a new event service instance
func NewEventService(store postgres.Store, statsClient stats.Client) *EventService {
	return &EventService{
		store:     store,
		stats:     statsClient,
		validator: validation.EventValidation{},
		log:       logger.Service("events"),
	}
}

// Location is a geographic point attached to an event.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CreateEventRequest represents a request to create an event. Omitted
// flags take the platform defaults: free, unlimited, moderated.
type CreateEventRequest struct {
	Title             string        `json:"title" binding:"required"`
	Annotation        string        `json:"annotation" binding:"required"`
	Description       string        `json:"description" binding:"required"`
	Category          string        `json:"category" binding:"required"`
	EventDate         wire.DateTime `json:"eventDate" binding:"required"`
	Location          Location      `json:"location"`
	Paid              *bool         `json:"paid"`
	ParticipantLimit  *int          `json:"participantLimit"`
	RequestModeration *bool         `json:"requestModeration"`
}

// UpdateEventRequest represents a partial event update. Only non-nil
// fields are applied.
type UpdateEventRequest struct {
	Title             *string        `json:"title"`
	Annotation        *string        `json:"annotation"`
	Description       *string        `json:"description"`
	Category          *string        `json:"category"`
	EventDate         *wire.DateTime `json:"eventDate"`
	Location          *Location      `json:"location"`
	Paid              *bool          `json:"paid"`
	ParticipantLimit  *int           `json:"participantLimit"`
	RequestModeration *bool          `json:"requestModeration"`
	StateAction       *string        `json:"stateAction"`
}

// EventOutput is an event enriched with the read-side counters: the
// confirmed request count and the analytics view count. Neither is
// stored on the event itself.
type EventOutput struct {
	*event.Event
	ConfirmedRequests int64 `json:"confirmedRequests"`
	Views             int64 `json:"views"`
}

// AdminSearchRequest narrows the administrative event search.
type AdminSearchRequest struct {
	Users      []string
	States     []string
	Categories []string
	RangeStart *time.Time
	RangeEnd   *time.Time
	From       int
	Size       int
}

// PublicSearchRequest narrows the public event search. URI and ClientIP
// identify the caller for analytics.
type PublicSearchRequest struct {
	Text          string
	Categories    []string
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Sort          string
	From          int
	Size          int
	URI           string
	ClientIP      string
}

// Create creates a new pending event on behalf of userID. The event
// date must be at least two hours in the future.
func (s *EventService) Create(userID string, req CreateEventRequest) (*event.Event, error) {
	initiatorID, err := validation.ValidateUUID(userID, "userId")
	if err != nil {
		return nil, err
	}
	categoryID, err := validation.ValidateUUID(req.Category, "category")
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateTitle(req.Title); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateAnnotation(req.Annotation); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateDescription(req.Description); err != nil {
		return nil, err
	}
	if err := validation.ValidateLeadTime(req.EventDate.Time, event.CreationLeadTime, "eventDate"); err != nil {
		return nil, err
	}

	initiator, err := s.store.Users().GetByID(initiatorID)
	if err != nil {
		return nil, err
	}
	cat, err := s.store.Categories().GetByID(categoryID)
	if err != nil {
		return nil, err
	}

	newEvent := event.New(
		req.Title,
		req.Annotation,
		req.Description,
		categoryID,
		initiatorID,
		req.EventDate.Time,
		req.Location.Lat,
		req.Location.Lon,
	)

	if req.Paid != nil {
		newEvent.Paid = *req.Paid
	}
	if req.ParticipantLimit != nil {
		if err := s.validator.ValidateParticipantLimit(*req.ParticipantLimit); err != nil {
			return nil, err
		}
		newEvent.ParticipantLimit = *req.ParticipantLimit
	}
	if req.RequestModeration != nil {
		newEvent.RequestModeration = *req.RequestModeration
	}

	if err := newEvent.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Events().Create(newEvent); err != nil {
		return nil, err
	}

	newEvent.Category = *cat
	newEvent.Initiator = *initiator

	s.log.Info("event created",
		"event_id", newEvent.ID,
		"initiator_id", userID,
		"event_date", newEvent.EventDate)

	return newEvent, nil
}

// UpdateByInitiator applies a partial update to the user's own event.
// Published events are frozen for their initiator.
func (s *EventService) UpdateByInitiator(userID, eventID string, req UpdateEventRequest) (*event.Event, error) {
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
	if !e.Editable() {
		return nil, apperrors.Conflict("cannot update event in state %s, only pending or canceled events can be changed", e.State)
	}

	return s.applyUpdate(e, req, scopeInitiator)
}

// UpdateByAdmin applies a partial update to any event, including the
// publish and reject moderation actions.
func (s *EventService) UpdateByAdmin(eventID string, req UpdateEventRequest) (*event.Event, error) {
	evID, err := validation.ValidateUUID(eventID, "eventId")
	if err != nil {
		return nil, err
	}

	e, err := s.store.Events().GetByID(evID)
	if err != nil {
		return nil, err
	}

	return s.applyUpdate(e, req, scopeAdmin)
}

// applyUpdate applies the provided fields to the event and routes any
// state action through the lifecycle table. The publish guard sees the
// event date that will hold after the update, not the stored one.
func (s *EventService) applyUpdate(e *event.Event, req UpdateEventRequest, scope actorScope) (*event.Event, error) {
	if req.Title != nil {
		if err := s.validator.ValidateTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	if req.Annotation != nil {
		if err := s.validator.ValidateAnnotation(*req.Annotation); err != nil {
			return nil, err
		}
	}
	if req.Description != nil {
		if err := s.validator.ValidateDescription(*req.Description); err != nil {
			return nil, err
		}
	}
	if req.ParticipantLimit != nil {
		if err := s.validator.ValidateParticipantLimit(*req.ParticipantLimit); err != nil {
			return nil, err
		}
	}

	now := time.Now()

	effectiveDate := e.EventDate.Time
	if req.EventDate != nil {
		switch scope {
		case scopeInitiator:
			if err := validation.ValidateLeadTime(req.EventDate.Time, event.CreationLeadTime, "eventDate"); err != nil {
				return nil, err
			}
		case scopeAdmin:
			if !req.EventDate.After(now) {
				return nil, apperrors.Validation("eventDate must be in the future")
			}
		}
		effectiveDate = req.EventDate.Time
	}

	if req.StateAction != nil {
		action, valid := event.ActionFromString(*req.StateAction)
		if !valid {
			return nil, apperrors.Validation("unknown stateAction %q", *req.StateAction)
		}
		if scope == scopeInitiator && action.AdminOnly() {
			return nil, apperrors.Validation("stateAction %s is not available to the initiator", action)
		}
		if err := e.ApplyAction(action, effectiveDate, now); err != nil {
			return nil, err
		}
	}

	if req.Category != nil {
		categoryID, err := validation.ValidateUUID(*req.Category, "category")
		if err != nil {
			return nil, err
		}
		cat, err := s.store.Categories().GetByID(categoryID)
		if err != nil {
			return nil, err
		}
		e.CategoryID = categoryID
		e.Category = *cat
	}

	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Annotation != nil {
		e.Annotation = *req.Annotation
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.EventDate != nil {
		e.EventDate = *req.EventDate
	}
	if req.Location != nil {
		e.LocationLat = req.Location.Lat
		e.LocationLon = req.Location.Lon
	}
	if req.Paid != nil {
		e.Paid = *req.Paid
	}
	if req.ParticipantLimit != nil {
		e.ParticipantLimit = *req.ParticipantLimit
	}
	if req.RequestModeration != nil {
		e.RequestModeration = *req.RequestModeration
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Events().Save(e); err != nil {
		return nil, err
	}

	s.log.Info("event updated", "event_id", e.ID, "state", e.State)

	return e, nil
}

// GetByInitiator returns the user's own events, paginated.
func (s *EventService) GetByInitiator(ctx context.Context, userID string, from, size int) ([]*EventOutput, error) {
	initiatorID, err := validation.ValidateUUID(userID, "userId")
	if err != nil {
		return nil, err
	}

	events, err := s.store.Events().GetByInitiator(initiatorID, from, size)
	if err != nil {
		return nil, err
	}

	return s.enrich(ctx, events)
}

// GetUserEvent returns full details of the user's own event.
func (s *EventService) GetUserEvent(ctx context.Context, userID, eventID string) (*EventOutput, error) {
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
		return nil, apperrors.NotFound("event %s not found for user %s", eventID, userID)
	}

	return s.enrichOne(ctx, e)
}

// FindAdmin searches events for the administrative listing.
func (s *EventService) FindAdmin(ctx context.Context, req AdminSearchRequest) ([]*EventOutput, error) {
	filter := postgres.AdminEventFilter{
		RangeStart: req.RangeStart,
		RangeEnd:   req.RangeEnd,
		From:       req.From,
		Size:       req.Size,
	}

	for _, raw := range req.Users {
		id, err := validation.ValidateUUID(raw, "users")
		if err != nil {
			return nil, err
		}
		filter.Users = append(filter.Users, id)
	}
	for _, raw := range req.Categories {
		id, err := validation.ValidateUUID(raw, "categories")
		if err != nil {
			return nil, err
		}
		filter.Categories = append(filter.Categories, id)
	}
	for _, raw := range req.States {
		state, valid := event.StateFromString(raw)
		if !valid {
			return nil, apperrors.Validation("unknown event state %q", raw)
		}
		filter.States = append(filter.States, state)
	}

	events, err := s.store.Events().FindAdmin(filter)
	if err != nil {
		return nil, err
	}

	return s.enrich(ctx, events)
}

// FindPublic searches published events and records the search hit with
// the analytics service.
func (s *EventService) FindPublic(ctx context.Context, req PublicSearchRequest) ([]*EventOutput, error) {
	if req.RangeStart != nil && req.RangeEnd != nil && req.RangeEnd.Before(*req.RangeStart) {
		return nil, apperrors.Validation("rangeEnd must not be before rangeStart")
	}
	if req.Sort != "" && req.Sort != "EVENT_DATE" && req.Sort != "VIEWS" {
		return nil, apperrors.Validation("sort must be EVENT_DATE or VIEWS, got %q", req.Sort)
	}

	filter := postgres.PublicEventFilter{
		Text:          req.Text,
		Paid:          req.Paid,
		RangeStart:    req.RangeStart,
		RangeEnd:      req.RangeEnd,
		OnlyAvailable: req.OnlyAvailable,
		From:          req.From,
		Size:          req.Size,
	}
	for _, raw := range req.Categories {
		id, err := validation.ValidateUUID(raw, "categories")
		if err != nil {
			return nil, err
		}
		filter.Categories = append(filter.Categories, id)
	}

	events, err := s.store.Events().FindPublic(filter)
	if err != nil {
		return nil, err
	}

	s.stats.Hit(ctx, req.URI, req.ClientIP)

	outputs, err := s.enrich(ctx, events)
	if err != nil {
		return nil, err
	}

	if req.Sort == "VIEWS" {
		sortOutputsByViews(outputs)
	}

	return outputs, nil
}

// GetPublished returns full details of a published event and records
// the view with the analytics service. Unpublished events are invisible
// to the public surface.
func (s *EventService) GetPublished(ctx context.Context, eventID, uri, clientIP string) (*EventOutput, error) {
	evID, err := validation.ValidateUUID(eventID, "eventId")
	if err != nil {
		return nil, err
	}

	e, err := s.store.Events().GetByID(evID)
	if err != nil {
		return nil, err
	}
	if e.State != event.StatePublished {
		return nil, apperrors.NotFound("event %s not found", eventID)
	}

	s.stats.Hit(ctx, uri, clientIP)

	return s.enrichOne(ctx, e)
}

// eventURI is the analytics identifier of an event detail page.
func eventURI(id uuid.UUID) string {
	return "/events/" + id.String()
}

// enrich attaches confirmed counts and view counts to a result page.
// Analytics failures degrade to zero views rather than failing the read.
func (s *EventService) enrich(ctx context.Context, events []*event.Event) ([]*EventOutput, error) {
	outputs := make([]*EventOutput, 0, len(events))
	if len(events) == 0 {
		return outputs, nil
	}

	ids := make([]uuid.UUID, 0, len(events))
	uris := make([]string, 0, len(events))
	windowStart := events[0].CreatedOn.Time
	for _, e := range events {
		ids = append(ids, e.ID)
		uris = append(uris, eventURI(e.ID))
		if e.CreatedOn.Before(windowStart) {
			windowStart = e.CreatedOn.Time
		}
	}

	confirmed, err := s.store.Requests().CountByStatusForEvents(ids, request.StatusConfirmed)
	if err != nil {
		return nil, err
	}

	views, err := s.stats.Views(ctx, windowStart, time.Now(), uris, true)
	if err != nil {
		s.log.Warn("failed to load view counts", "error", err)
		views = map[string]int64{}
	}

	for _, e := range events {
		outputs = append(outputs, &EventOutput{
			Event:             e,
			ConfirmedRequests: confirmed[e.ID],
			Views:             views[eventURI(e.ID)],
		})
	}
	return outputs, nil
}

func (s *EventService) enrichOne(ctx context.Context, e *event.Event) (*EventOutput, error) {
	outputs, err := s.enrich(ctx, []*event.Event{e})
	if err != nil {
		return nil, err
	}
	return outputs[0], nil
}

// sortOutputsByViews orders a page by view count, most viewed first.
// Ties keep the repository's date order.
func sortOutputsByViews(outputs []*EventOutput) {
	sort.SliceStable(outputs, func(i, j int) bool {
		return outputs[i].Views > outputs[j].Views
	})
}
