package postgres

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gravadigital/afisha-api/internal/apperrors"
	"github.com/gravadigital/afisha-api/internal/domain/event"
	"github.com/gravadigital/afisha-api/internal/logger"
)

// PostgresEventRepository implements EventRepository using GORM
type PostgresEventRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresEventRepository creates a new PostgreSQL event repository
func NewPostgresEventRepository(db *gorm.DB) *PostgresEventRepository {
	return &PostgresEventRepository{
		db:  db,
		log: logger.Repository("event"),
	}
}

func (r *PostgresEventRepository) Create(e *event.Event) error {
	r.log.Debug("creating new event", "event_id", e.ID, "initiator_id", e.InitiatorID)

	if err := e.Validate(); err != nil {
		return err
	}

	if err := r.db.Create(e).Error; err != nil {
		r.log.Error("failed to create event", "error", err, "event_id", e.ID)
		return fmt.Errorf("failed to create event: %w", err)
	}

	r.log.Info("event created", "event_id", e.ID, "title", e.Title)
	return nil
}

func (r *PostgresEventRepository) Save(e *event.Event) error {
	if err := r.db.Save(e).Error; err != nil {
		r.log.Error("failed to save event", "error", err, "event_id", e.ID)
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

func (r *PostgresEventRepository) GetByID(id uuid.UUID) (*event.Event, error) {
	return r.getByID(id, false)
}

// GetByIDLocked fetches the event with SELECT ... FOR UPDATE. Inside a
// transaction this serializes every writer touching the event's
// confirmed count, which is what keeps concurrent admissions from
// overshooting the participant limit.
func (r *PostgresEventRepository) GetByIDLocked(id uuid.UUID) (*event.Event, error) {
	return r.getByID(id, true)
}

func (r *PostgresEventRepository) getByID(id uuid.UUID, forUpdate bool) (*event.Event, error) {
	query := r.db.Preload("Category").Preload("Initiator")
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "events"}})
	}

	var e event.Event
	if err := query.First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event with id %s not found", id)
		}
		r.log.Error("failed to retrieve event", "event_id", id, "error", err)
		return nil, fmt.Errorf("failed to retrieve event: %w", err)
	}

	return &e, nil
}

func (r *PostgresEventRepository) GetByInitiator(initiatorID uuid.UUID, from, size int) ([]*event.Event, error) {
	var events []*event.Event
	err := r.db.
		Preload("Category").Preload("Initiator").
		Where("initiator_id = ?", initiatorID).
		Order("event_date ASC").
		Offset(from).Limit(size).
		Find(&events).Error
	if err != nil {
		r.log.Error("failed to retrieve events by initiator", "initiator_id", initiatorID, "error", err)
		return nil, fmt.Errorf("failed to retrieve events by initiator: %w", err)
	}
	return events, nil
}

func (r *PostgresEventRepository) FindAdmin(filter AdminEventFilter) ([]*event.Event, error) {
	query := r.db.Preload("Category").Preload("Initiator")

	if len(filter.Users) > 0 {
		query = query.Where("initiator_id IN ?", filter.Users)
	}
	if len(filter.States) > 0 {
		states := make([]string, 0, len(filter.States))
		for _, s := range filter.States {
			states = append(states, s.String())
		}
		query = query.Where("state IN ?", states)
	}
	if len(filter.Categories) > 0 {
		query = query.Where("category_id IN ?", filter.Categories)
	}
	if filter.RangeStart != nil {
		query = query.Where("event_date >= ?", *filter.RangeStart)
	}
	if filter.RangeEnd != nil {
		query = query.Where("event_date <= ?", *filter.RangeEnd)
	}

	var events []*event.Event
	err := query.
		Order("event_date ASC").
		Offset(filter.From).Limit(filter.Size).
		Find(&events).Error
	if err != nil {
		r.log.Error("admin event search failed", "error", err)
		return nil, fmt.Errorf("admin event search failed: %w", err)
	}
	return events, nil
}

func (r *PostgresEventRepository) FindPublic(filter PublicEventFilter) ([]*event.Event, error) {
	query := r.db.
		Preload("Category").Preload("Initiator").
		Where("state = ?", event.StatePublished.String())

	if filter.Text != "" {
		pattern := "%" + filter.Text + "%"
		query = query.Where("annotation ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if len(filter.Categories) > 0 {
		query = query.Where("category_id IN ?", filter.Categories)
	}
	if filter.Paid != nil {
		query = query.Where("paid = ?", *filter.Paid)
	}
	if filter.RangeStart != nil {
		query = query.Where("event_date >= ?", *filter.RangeStart)
	} else if filter.RangeEnd == nil {
		// No range at all means upcoming events only.
		query = query.Where("event_date >= NOW()")
	}
	if filter.RangeEnd != nil {
		query = query.Where("event_date <= ?", *filter.RangeEnd)
	}
	if filter.OnlyAvailable {
		query = query.Where(
			"participant_limit = 0 OR participant_limit > (SELECT COUNT(*) FROM participation_requests pr WHERE pr.event_id = events.id AND pr.status = 'CONFIRMED')",
		)
	}

	var events []*event.Event
	err := query.
		Order("event_date ASC").
		Offset(filter.From).Limit(filter.Size).
		Find(&events).Error
	if err != nil {
		r.log.Error("public event search failed", "error", err)
		return nil, fmt.Errorf("public event search failed: %w", err)
	}
	return events, nil
}
