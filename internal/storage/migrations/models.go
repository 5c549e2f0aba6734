package migrations

import (
	"github.com/gravadigital/afisha-api/internal/domain/category"
	"github.com/gravadigital/afisha-api/internal/domain/event"
	"github.com/gravadigital/afisha-api/internal/domain/participant"
	"github.com/gravadigital/afisha-api/internal/domain/request"
)

// AllModels returns every model handled by AutoMigrate, referenced
// tables first so foreign keys resolve.
func AllModels() []interface{} {
	return []interface{}{
		&participant.User{},
		&category.Category{},
		&event.Event{},
		&request.ParticipationRequest{},
	}
}
