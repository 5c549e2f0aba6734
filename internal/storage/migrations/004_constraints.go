package migrations

import "gorm.io/gorm"

// migration004Up creates data integrity constraints
func migration004Up(db *gorm.DB) error {
	constraints := []string{
		// One active request per (requester, event). Canceled requests
		// are excluded so a user may request again after canceling.
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_request
            ON participation_requests(requester_id, event_id)
            WHERE status <> 'CANCELED'`,

		`ALTER TABLE events
            ADD CONSTRAINT chk_participant_limit_non_negative
            CHECK (participant_limit >= 0)`,

		`ALTER TABLE events
            ADD CONSTRAINT chk_location_lat_range
            CHECK (location_lat BETWEEN -90 AND 90)`,

		`ALTER TABLE events
            ADD CONSTRAINT chk_location_lon_range
            CHECK (location_lon BETWEEN -180 AND 180)`,
	}

	for _, constraintSQL := range constraints {
		if err := db.Exec(constraintSQL).Error; err != nil {
			return err
		}
	}

	return nil
}

// migration004Down drops data integrity constraints
func migration004Down(db *gorm.DB) error {
	statements := []string{
		"ALTER TABLE events DROP CONSTRAINT IF EXISTS chk_location_lon_range",
		"ALTER TABLE events DROP CONSTRAINT IF EXISTS chk_location_lat_range",
		"ALTER TABLE events DROP CONSTRAINT IF EXISTS chk_participant_limit_non_negative",
		"DROP INDEX IF EXISTS uniq_active_request",
	}

	for _, statement := range statements {
		if err := db.Exec(statement).Error; err != nil {
			return err
		}
	}

	return nil
}
