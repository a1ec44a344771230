package main

import (
	"fmt"
	"os"

	"pms-rateops/internal/config"
	"pms-rateops/internal/database"

	_ "github.com/lib/pq"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS bulk_operations (
    operation_id    UUID PRIMARY KEY,
    operation_type  TEXT NOT NULL,
    params          TEXT NOT NULL DEFAULT '{}',
    start_date      DATE NOT NULL,
    end_date        DATE NOT NULL,
    rate_plan_codes TEXT[] NOT NULL DEFAULT '{}',
    room_type_codes TEXT[] NOT NULL DEFAULT '{}',
    total_count     INTEGER NOT NULL DEFAULT 0,
    changed_count   INTEGER NOT NULL DEFAULT 0,
    applied_count   INTEGER NOT NULL DEFAULT 0,
    failed_count    INTEGER NOT NULL DEFAULT 0,
    status          TEXT NOT NULL DEFAULT 'previewed',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at    TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_bulk_operations_created_at
    ON bulk_operations (created_at DESC);
`

func main() {
	cfg := config.Load()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if _, err := db.Exec(createTableSQL); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute SQL: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("bulk_operations table created successfully")
}
