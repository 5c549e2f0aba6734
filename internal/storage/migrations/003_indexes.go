package migrations

import "gorm.io/gorm"

// migration003Up creates performance indexes
func migration003Up(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_events_initiator ON events(initiator_id)",
		"CREATE INDEX IF NOT EXISTS idx_events_category ON events(category_id)",
		"CREATE INDEX IF NOT EXISTS idx_events_state ON events(state)",
		"CREATE INDEX IF NOT EXISTS idx_events_event_date ON events(event_date)",

		"CREATE INDEX IF NOT EXISTS idx_requests_event ON participation_requests(event_id)",
		"CREATE INDEX IF NOT EXISTS idx_requests_requester ON participation_requests(requester_id)",
		// The capacity ledger counts confirmed requests per event on
		// every admission and moderation decision.
		"CREATE INDEX IF NOT EXISTS idx_requests_event_status ON participation_requests(event_id, status)",
	}

	for _, indexSQL := range indexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			return err
		}
	}

	return nil
}

// migration003Down drops performance indexes
func migration003Down(db *gorm.DB) error {
	indexes := []string{
		"idx_events_initiator",
		"idx_events_category",
		"idx_events_state",
		"idx_events_event_date",
		"idx_requests_event",
		"idx_requests_requester",
		"idx_requests_event_status",
	}

	for _, index := range indexes {
		if err := db.Exec("DROP INDEX IF EXISTS " + index).Error; err != nil {
			return err
		}
	}

	return nil
}
