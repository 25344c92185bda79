package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "assessments and analysis snapshots",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS assessments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    student_id TEXT NOT NULL,
    topic TEXT NOT NULL,
    score REAL NOT NULL,
    max_score REAL NOT NULL,
    taken_at TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_assessments_student ON assessments(student_id, id);

CREATE TABLE IF NOT EXISTS analysis_snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    student_id TEXT NOT NULL,
    topic_scores TEXT NOT NULL,
    overall_trend TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_snapshots_student ON analysis_snapshots(student_id, id);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "recommendation log",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS recommend_requests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id TEXT UNIQUE NOT NULL,
    user_id TEXT NOT NULL,
    alpha REAL NOT NULL,
    top_k INTEGER NOT NULL,
    known_user INTEGER DEFAULT 0,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS recommendation_items (
    request_id INTEGER NOT NULL REFERENCES recommend_requests(id) ON DELETE CASCADE,
    rank INTEGER NOT NULL,
    content_id INTEGER NOT NULL,
    cf_score REAL NOT NULL,
    content_score REAL NOT NULL,
    combined_score REAL NOT NULL,
    reason TEXT,
    PRIMARY KEY (request_id, rank)
);

CREATE INDEX IF NOT EXISTS idx_recommend_requests_user ON recommend_requests(user_id, id);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
