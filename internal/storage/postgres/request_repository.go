package postgres

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/afisha-api/internal/apperrors"
	"github.com/gravadigital/afisha-api/internal/domain/request"
	"github.com/gravadigital/afisha-api/internal/logger"
)

// PostgresRequestRepository implements RequestRepository using GORM
type PostgresRequestRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresRequestRepository creates a new PostgreSQL request repository
func NewPostgresRequestRepository(db *gorm.DB) *PostgresRequestRepository {
	return &PostgresRequestRepository{
		db:  db,
		log: logger.Repository("request"),
	}
}

func (r *PostgresRequestRepository) Create(req *request.ParticipationRequest) error {
	r.log.Debug("creating participation request", "request_id", req.ID, "event_id", req.EventID, "requester_id", req.RequesterID)

	if err := r.db.Create(req).Error; err != nil {
		r.log.Error("failed to create participation request", "error", err, "request_id", req.ID)
		return fmt.Errorf("failed to create participation request: %w", err)
	}

	r.log.Info("participation request created", "request_id", req.ID, "event_id", req.EventID, "status", req.Status)
	return nil
}

func (r *PostgresRequestRepository) Save(req *request.ParticipationRequest) error {
	if err := r.db.Save(req).Error; err != nil {
		r.log.Error("failed to save participation request", "error", err, "request_id", req.ID)
		return fmt.Errorf("failed to save participation request: %w", err)
	}
	return nil
}

// SaveAll persists a batch of requests in one statement so a moderation
// decision lands atomically within the surrounding transaction.
func (r *PostgresRequestRepository) SaveAll(reqs []*request.ParticipationRequest) error {
	if len(reqs) == 0 {
		return nil
	}

	if err := r.db.Save(reqs).Error; err != nil {
		r.log.Error("failed to save request batch", "error", err, "count", len(reqs))
		return fmt.Errorf("failed to save request batch: %w", err)
	}

	r.log.Debug("request batch saved", "count", len(reqs))
	return nil
}

func (r *PostgresRequestRepository) GetByID(id uuid.UUID) (*request.ParticipationRequest, error) {
	var req request.ParticipationRequest
	if err := r.db.First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("participation request with id %s not found", id)
		}
		r.log.Error("failed to retrieve participation request", "request_id", id, "error", err)
		return nil, fmt.Errorf("failed to retrieve participation request: %w", err)
	}
	return &req, nil
}

func (r *PostgresRequestRepository) GetByIDAndRequester(id, requesterID uuid.UUID) (*request.ParticipationRequest, error) {
	var req request.ParticipationRequest
	err := r.db.First(&req, "id = ? AND requester_id = ?", id, requesterID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("participation request %s of user %s not found", id, requesterID)
		}
		r.log.Error("failed to retrieve participation request", "request_id", id, "requester_id", requesterID, "error", err)
		return nil, fmt.Errorf("failed to retrieve participation request: %w", err)
	}
	return &req, nil
}

func (r *PostgresRequestRepository) FindByIDs(ids []uuid.UUID) ([]*request.ParticipationRequest, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var reqs []*request.ParticipationRequest
	if err := r.db.Where("id IN ?", ids).Find(&reqs).Error; err != nil {
		r.log.Error("failed to retrieve requests by ids", "error", err)
		return nil, fmt.Errorf("failed to retrieve requests by ids: %w", err)
	}
	return reqs, nil
}

func (r *PostgresRequestRepository) FindByRequester(requesterID uuid.UUID) ([]*request.ParticipationRequest, error) {
	var reqs []*request.ParticipationRequest
	err := r.db.
		Where("requester_id = ?", requesterID).
		Order("created ASC").
		Find(&reqs).Error
	if err != nil {
		r.log.Error("failed to retrieve requests by requester", "requester_id", requesterID, "error", err)
		return nil, fmt.Errorf("failed to retrieve requests by requester: %w", err)
	}
	return reqs, nil
}

func (r *PostgresRequestRepository) FindByEvent(eventID uuid.UUID) ([]*request.ParticipationRequest, error) {
	var reqs []*request.ParticipationRequest
	err := r.db.
		Where("event_id = ?", eventID).
		Order("created ASC").
		Find(&reqs).Error
	if err != nil {
		r.log.Error("failed to retrieve requests by event", "event_id", eventID, "error", err)
		return nil, fmt.Errorf("failed to retrieve requests by event: %w", err)
	}
	return reqs, nil
}

func (r *PostgresRequestRepository) CountByEventAndStatus(eventID uuid.UUID, status request.Status) (int64, error) {
	var count int64
	err := r.db.
		Model(&request.ParticipationRequest{}).
		Where("event_id = ? AND status = ?", eventID, status.String()).
		Count(&count).Error
	if err != nil {
		r.log.Error("failed to count requests", "event_id", eventID, "status", status, "error", err)
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return count, nil
}

func (r *PostgresRequestRepository) CountByStatusForEvents(eventIDs []uuid.UUID, status request.Status) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		EventID uuid.UUID
		Count   int64
	}
	err := r.db.
		Model(&request.ParticipationRequest{}).
		Select("event_id, COUNT(*) AS count").
		Where("event_id IN ? AND status = ?", eventIDs, status.String()).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		r.log.Error("failed to count requests per event", "status", status, "error", err)
		return nil, fmt.Errorf("failed to count requests per event: %w", err)
	}

	for _, row := range rows {
		counts[row.EventID] = row.Count
	}
	return counts, nil
}

func (r *PostgresRequestRepository) ExistsActive(requesterID, eventID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.
		Model(&request.ParticipationRequest{}).
		Where("requester_id = ? AND event_id = ? AND status <> ?", requesterID, eventID, request.StatusCanceled.String()).
		Count(&count).Error
	if err != nil {
		r.log.Error("failed to check for duplicate request", "requester_id", requesterID, "event_id", eventID, "error", err)
		return false, fmt.Errorf("failed to check for duplicate request: %w", err)
	}
	return count > 0, nil
}
