package services

import (
	"github.com/charmbracelet/log"

	"github.com/gravadigital/afisha-api/internal/apperrors"
	"github.com/gravadigital/afisha-api/internal/domain/participant"
	"github.com/gravadigital/afisha-api/internal/logger"
	"github.com/gravadigital/afisha-api/internal/storage/postgres"
	"github.com/gravadigital/afisha-api/internal/validation"
)

// UserService handles the user business logic
type UserService struct {
	store     postgres.Store
	validator validation.UserValidation
	log       *log.Logger
}

// NewUserService creates a new user service instance
func NewUserService(store postgres.Store) *UserService {
	return &UserService{
		store:     store,
		validator: validation.UserValidation{},
		log:       logger.Service("users"),
	}
}

// CreateUserRequest represents a request to register a user.
type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

// Create registers a new user. Emails are unique across the platform.
func (s *UserService) Create(req CreateUserRequest) (*participant.User, error) {
	if err := s.validator.ValidateUserName(req.Name); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateUserEmail(req.Email); err != nil {
		return nil, err
	}

	if existing, err := s.store.Users().GetByEmail(req.Email); err == nil && existing != nil {
		return nil, apperrors.Conflict("user with email %s already exists", req.Email)
	}

	user := participant.NewUser(req.Name, req.Email)
	if err := s.store.Users().Create(user); err != nil {
		return nil, err
	}

	s.log.Info("user registered", "user_id", user.ID, "email", user.Email)

	return user, nil
}

// GetAll returns registered users, paginated.
func (s *UserService) GetAll(from, size int) ([]*participant.User, error) {
	return s.store.Users().GetAll(from, size)
}

// Delete removes a user.
func (s *UserService) Delete(userID string) error {
	id, err := validation.ValidateUUID(userID, "userId")
	if err != nil {
		return err
	}

	if err := s.store.Users().Delete(id); err != nil {
		return err
	}

	s.log.Info("user deleted", "user_id", userID)
	return nil
}
