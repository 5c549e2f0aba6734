// Package storage selects the storage backend for the application.
package storage

import (
	"fmt"

	"github.com/gravadigital/afisha-api/internal/config"
	"github.com/gravadigital/afisha-api/internal/storage/postgres"
)

// Type represents the type of storage backend
type Type string

const (
	// TypePostgres represents PostgreSQL storage
	TypePostgres Type = "postgres"
	// TypeMemory represents the in-memory storage used for local runs
	// and tests; nothing survives a restart.
	TypeMemory Type = "memory"
)

// Store is a closeable repository store.
type Store interface {
	postgres.Store
	Close() error
}

// SupportedTypes returns the storage types the application can run on.
func SupportedTypes() []Type {
	return []Type{TypePostgres, TypeMemory}
}

// ValidateType validates if a storage type is supported
func ValidateType(storageType string) (Type, error) {
	st := Type(storageType)

	for _, supported := range SupportedTypes() {
		if st == supported {
			return st, nil
		}
	}

	return "", fmt.Errorf("unsupported storage type: %s. Supported types: %v", storageType, SupportedTypes())
}

// NewStore creates the storage backend named in the configuration. The
// postgres backend connects and runs pending migrations.
func NewStore(cfg *config.Config) (Store, error) {
	storageType, err := ValidateType(cfg.Storage.Type)
	if err != nil {
		return nil, err
	}

	switch storageType {
	case TypePostgres:
		return postgres.NewContainer(cfg)
	case TypeMemory:
		return postgres.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
