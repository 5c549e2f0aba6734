package postgres

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/afisha-api/internal/apperrors"
	"github.com/gravadigital/afisha-api/internal/domain/category"
	"github.com/gravadigital/afisha-api/internal/logger"
)

// PostgresCategoryRepository implements CategoryRepository using GORM
type PostgresCategoryRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresCategoryRepository creates a new PostgreSQL category repository
func NewPostgresCategoryRepository(db *gorm.DB) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{
		db:  db,
		log: logger.Repository("category"),
	}
}

func (r *PostgresCategoryRepository) Create(c *category.Category) error {
	if err := r.db.Create(c).Error; err != nil {
		r.log.Error("failed to create category", "error", err, "category_id", c.ID)
		return fmt.Errorf("failed to create category: %w", err)
	}

	r.log.Info("category created", "category_id", c.ID, "name", c.Name)
	return nil
}

func (r *PostgresCategoryRepository) Save(c *category.Category) error {
	if err := r.db.Save(c).Error; err != nil {
		r.log.Error("failed to save category", "error", err, "category_id", c.ID)
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

func (r *PostgresCategoryRepository) GetByID(id uuid.UUID) (*category.Category, error) {
	var c category.Category
	if err := r.db.First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("category with id %s not found", id)
		}
		r.log.Error("failed to retrieve category", "category_id", id, "error", err)
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return &c, nil
}

func (r *PostgresCategoryRepository) GetByName(name string) (*category.Category, error) {
	var c category.Category
	if err := r.db.First(&c, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("category with name %q not found", name)
		}
		r.log.Error("failed to retrieve category by name", "name", name, "error", err)
		return nil, fmt.Errorf("failed to retrieve category by name: %w", err)
	}
	return &c, nil
}

func (r *PostgresCategoryRepository) GetAll(from, size int) ([]*category.Category, error) {
	var categories []*category.Category
	err := r.db.
		Order("name ASC").
		Offset(from).Limit(size).
		Find(&categories).Error
	if err != nil {
		r.log.Error("failed to retrieve categories", "error", err)
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return categories, nil
}

func (r *PostgresCategoryRepository) Delete(id uuid.UUID) error {
	result := r.db.Delete(&category.Category{}, "id = ?", id)
	if result.Error != nil {
		r.log.Error("failed to delete category", "category_id", id, "error", result.Error)
		return fmt.Errorf("failed to delete category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("category with id %s not found", id)
	}

	r.log.Info("category deleted", "category_id", id)
	return nil
}
