package postgres

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/afisha-api/internal/apperrors"
	"github.com/gravadigital/afisha-api/internal/domain/participant"
	"github.com/gravadigital/afisha-api/internal/logger"
)

// PostgresUserRepository implements UserRepository using GORM
type PostgresUserRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresUserRepository creates a new PostgreSQL user repository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{
		db:  db,
		log: logger.Repository("user"),
	}
}

func (r *PostgresUserRepository) Create(u *participant.User) error {
	r.log.Debug("creating new user", "user_id", u.ID, "email", u.Email)

	if err := r.db.Create(u).Error; err != nil {
		r.log.Error("failed to create user", "error", err, "user_id", u.ID)
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info("user created", "user_id", u.ID, "email", u.Email)
	return nil
}

func (r *PostgresUserRepository) GetByID(id uuid.UUID) (*participant.User, error) {
	var u participant.User
	if err := r.db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user with id %s not found", id)
		}
		r.log.Error("failed to retrieve user", "user_id", id, "error", err)
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return &u, nil
}

func (r *PostgresUserRepository) GetByEmail(email string) (*participant.User, error) {
	var u participant.User
	if err := r.db.First(&u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user with email %s not found", email)
		}
		r.log.Error("failed to retrieve user by email", "email", email, "error", err)
		return nil, fmt.Errorf("failed to retrieve user by email: %w", err)
	}
	return &u, nil
}

func (r *PostgresUserRepository) GetAll(from, size int) ([]*participant.User, error) {
	var users []*participant.User
	err := r.db.
		Order("created_at ASC").
		Offset(from).Limit(size).
		Find(&users).Error
	if err != nil {
		r.log.Error("failed to retrieve users", "error", err)
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}
	return users, nil
}

func (r *PostgresUserRepository) Delete(id uuid.UUID) error {
	result := r.db.Delete(&participant.User{}, "id = ?", id)
	if result.Error != nil {
		r.log.Error("failed to delete user", "user_id", id, "error", result.Error)
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("user with id %s not found", id)
	}

	r.log.Info("user deleted", "user_id", id)
	return nil
}
