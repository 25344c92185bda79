package database

import "database/sql"

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(DISTINCT student_id) FROM assessments", &s.Students},
		{"SELECT COUNT(*) FROM assessments", &s.Assessments},
		{"SELECT COUNT(*) FROM analysis_snapshots", &s.Snapshots},
		{"SELECT COUNT(*) FROM recommend_requests", &s.Recommendations},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	var last sql.NullString
	if err := db.conn.QueryRow("SELECT MAX(created_at) FROM analysis_snapshots").Scan(&last); err != nil {
		return nil, err
	}
	s.LastAnalysis = last.String

	return s, nil
}
