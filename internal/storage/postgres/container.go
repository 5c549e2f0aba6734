package postgres

import (
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/gravadigital/afisha-api/internal/config"
	"github.com/gravadigital/afisha-api/internal/logger"
)

// Container implements Store on top of a GORM connection.
type Container struct {
	db           *gorm.DB
	log          *log.Logger
	eventRepo    EventRepository
	requestRepo  RequestRepository
	userRepo     UserRepository
	categoryRepo CategoryRepository
}

// NewContainer connects to the database, runs migrations and returns a
// container with all repositories initialized.
func NewContainer(cfg *config.Config) (*Container, error) {
	log := logger.Repository("postgres_container")

	db, err := Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("PostgreSQL repository container initialized")
	return NewContainerWithDB(db), nil
}

// NewContainerWithDB creates a container with an existing database
// connection. Used both for the application container and for the
// per-transaction containers handed to InTransaction callbacks.
func NewContainerWithDB(db *gorm.DB) *Container {
	return &Container{
		db:           db,
		log:          logger.Repository("postgres_container"),
		eventRepo:    NewPostgresEventRepository(db),
		requestRepo:  NewPostgresRequestRepository(db),
		userRepo:     NewPostgresUserRepository(db),
		categoryRepo: NewPostgresCategoryRepository(db),
	}
}

// Events returns the event repository
func (c *Container) Events() EventRepository {
	return c.eventRepo
}

// Requests returns the participation request repository
func (c *Container) Requests() RequestRepository {
	return c.requestRepo
}

// Users returns the user repository
func (c *Container) Users() UserRepository {
	return c.userRepo
}

// Categories returns the category repository
func (c *Container) Categories() CategoryRepository {
	return c.categoryRepo
}

// InTransaction runs fn against repositories bound to one database
// transaction. A returned error rolls everything back, so a failed
// moderation batch leaves every request untouched.
func (c *Container) InTransaction(fn func(Store) error) error {
	return c.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewContainerWithDB(tx))
	})
}

// Close gracefully shuts down the container and closes the database connection
func (c *Container) Close() error {
	c.log.Info("Closing PostgreSQL repository container...")

	if c.db == nil {
		return nil
	}

	if err := Close(c.db); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	c.db = nil
	return nil
}

// GetDB returns the underlying database connection (for advanced usage)
func (c *Container) GetDB() *gorm.DB {
	return c.db
}
