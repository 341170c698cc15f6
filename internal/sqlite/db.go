// Package sqlite implements the project registry and the activity log over
// SQLite. It backs local development and the integration tests.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database lives only as long as its connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema if it does not exist.
func (db *DB) RunMigrations() error {
	migration := `
-- Clients are created out of band; only next_sequence changes here.
CREATE TABLE IF NOT EXISTS clients (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    teams_channel_ref TEXT NOT NULL DEFAULT '',
    document_root_ref TEXT NOT NULL DEFAULT '',
    next_sequence INTEGER NOT NULL DEFAULT 1 CHECK(next_sequence >= 1)
);

CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    job_number TEXT NOT NULL UNIQUE,
    job_name TEXT NOT NULL,
    client_id TEXT,
    description TEXT NOT NULL DEFAULT '',
    owner TEXT NOT NULL DEFAULT '',
    stage TEXT NOT NULL,
    status TEXT NOT NULL,
    round INTEGER NOT NULL DEFAULT 0 CHECK(round >= 0),
    with_client INTEGER NOT NULL DEFAULT 0,
    live_date TEXT NOT NULL DEFAULT '',
    teams_channel_ref TEXT NOT NULL DEFAULT '',
    start_date TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (client_id) REFERENCES clients(id)
);
CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status);

-- Append-only journal.
CREATE TABLE IF NOT EXISTS updates (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    text TEXT NOT NULL,
    created_on TEXT NOT NULL,
    due_on TEXT NOT NULL,
    FOREIGN KEY (project_id) REFERENCES projects(id)
);
CREATE INDEX IF NOT EXISTS idx_updates_project ON updates(project_id);

CREATE TABLE IF NOT EXISTS activity_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    job_number TEXT NOT NULL,
    project_record_id TEXT,
    activity_type TEXT NOT NULL,
    summary TEXT NOT NULL,
    details TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_activity_job ON activity_log(job_number);
CREATE INDEX IF NOT EXISTS idx_activity_created_at ON activity_log(created_at);
`

	if _, err := db.Exec(migration); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
