package services

import (
	"github.com/charmbracelet/log"

	"github.com/gravadigital/afisha-api/internal/apperrors"
	"github.com/gravadigital/afisha-api/internal/domain/category"
	"github.com/gravadigital/afisha-api/internal/logger"
	"github.com/gravadigital/afisha-api/internal/storage/postgres"
	"github.com/gravadigital/afisha-api/internal/validation"
)

// CategoryService handles the category business logic
type CategoryService struct {
	store     postgres.Store
	validator validation.CategoryValidation
	log       *log.Logger
}

// NewCategoryService creates a new category service instance
func NewCategoryService(store postgres.Store) *CategoryService {
	return &CategoryService{
		store:     store,
		validator: validation.CategoryValidation{},
		log:       logger.Service("categories"),
	}
}

// CategoryRequest carries a category name for create and rename.
type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create adds a new category. Names are unique.
func (s *CategoryService) Create(req CategoryRequest) (*category.Category, error) {
	if err := s.validator.ValidateCategoryName(req.Name); err != nil {
		return nil, err
	}

	if existing, err := s.store.Categories().GetByName(req.Name); err == nil && existing != nil {
		return nil, apperrors.Conflict("category %q already exists", req.Name)
	}

	cat := category.New(req.Name)
	if err := s.store.Categories().Create(cat); err != nil {
		return nil, err
	}

	s.log.Info("category created", "category_id", cat.ID, "name", cat.Name)

	return cat, nil
}

// Update renames a category.
func (s *CategoryService) Update(categoryID string, req CategoryRequest) (*category.Category, error) {
	id, err := validation.ValidateUUID(categoryID, "categoryId")
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateCategoryName(req.Name); err != nil {
		return nil, err
	}

	cat, err := s.store.Categories().GetByID(id)
	if err != nil {
		return nil, err
	}

	if existing, err := s.store.Categories().GetByName(req.Name); err == nil && existing != nil && existing.ID != cat.ID {
		return nil, apperrors.Conflict("category %q already exists", req.Name)
	}

	cat.Name = req.Name
	if err := s.store.Categories().Save(cat); err != nil {
		return nil, err
	}

	return cat, nil
}

// GetAll returns categories, paginated.
func (s *CategoryService) GetAll(from, size int) ([]*category.Category, error) {
	return s.store.Categories().GetAll(from, size)
}

// Get returns one category.
func (s *CategoryService) Get(categoryID string) (*category.Category, error) {
	id, err := validation.ValidateUUID(categoryID, "categoryId")
	if err != nil {
		return nil, err
	}
	return s.store.Categories().GetByID(id)
}

// Delete removes a category.
func (s *CategoryService) Delete(categoryID string) error {
	id, err := validation.ValidateUUID(categoryID, "categoryId")
	if err != nil {
		return err
	}

	if err := s.store.Categories().Delete(id); err != nil {
		return err
	}

	s.log.Info("category deleted", "category_id", categoryID)
	return nil
}
