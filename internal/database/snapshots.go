package database

import (
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
)

// InsertSnapshot stores the topic scores produced by an analysis.
func (db *DB) InsertSnapshot(studentID string, topicScores map[string]float64, overallTrend string) (int64, error) {
	if topicScores == nil {
		topicScores = map[string]float64{}
	}
	data, err := json.Marshal(topicScores)
	if err != nil {
		return 0, fmt.Errorf("encoding topic scores: %w", err)
	}
	result, err := db.conn.Exec(
		`INSERT INTO analysis_snapshots (student_id, topic_scores, overall_trend) VALUES (?, ?, ?)`,
		studentID, string(data), overallTrend,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetLatestSnapshot returns the most recent snapshot for a student, or nil.
func (db *DB) GetLatestSnapshot(studentID string) (*Snapshot, error) {
	row := db.conn.QueryRow(
		`SELECT id, student_id, topic_scores, overall_trend, created_at
		FROM analysis_snapshots WHERE student_id = ? ORDER BY id DESC LIMIT 1`,
		studentID,
	)
	var s Snapshot
	var scores string
	if err := row.Scan(&s.ID, &s.StudentID, &scores, &s.OverallTrend, &s.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(scores), &s.TopicScores); err != nil {
		return nil, fmt.Errorf("decoding snapshot %d: %w", s.ID, err)
	}
	return &s, nil
}
