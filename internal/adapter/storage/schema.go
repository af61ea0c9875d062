package storage

import (
	"context"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS bmi_records (
		record_id  TEXT             NOT NULL,
		age        DOUBLE PRECISION NOT NULL,
		height     DOUBLE PRECISION NOT NULL,
		weight     DOUBLE PRECISION NOT NULL,
		bmi        DOUBLE PRECISION NOT NULL,
		category   TEXT             NOT NULL,
		source     TEXT             NOT NULL DEFAULT '',
		created_at TIMESTAMP        NOT NULL,
		CONSTRAINT bmi_records_pkey PRIMARY KEY (record_id)
	)`,
	`CREATE INDEX IF NOT EXISTS bmi_records_created_at_idx ON bmi_records (created_at)`,
}

// Migrate creates the tables if they do not exist yet. The statements are
// valid for both PostgreSQL and SQLite.
func Migrate(ctx context.Context, db DBContext) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return InternalError(err)
		}
	}
	return nil
}
