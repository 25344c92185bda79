package database

import (
	"database/sql"
	"fmt"
	"time"
)

// InsertAssessment stores an assessment and returns its ID.
func (db *DB) InsertAssessment(a Assessment) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO assessments (student_id, topic, score, max_score, taken_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.StudentID, a.Topic, a.Score, a.MaxScore, formatTime(a.TakenAt),
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// InsertAssessments stores several assessments in one transaction and
// returns how many were written.
func (db *DB) InsertAssessments(as []Assessment) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO assessments (student_id, topic, score, max_score, taken_at)
		VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, a := range as {
		if _, err := stmt.Exec(a.StudentID, a.Topic, a.Score, a.MaxScore, formatTime(a.TakenAt)); err != nil {
			return 0, fmt.Errorf("inserting assessment %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(as), nil
}

// GetAssessments returns a student's assessments in insertion order.
func (db *DB) GetAssessments(studentID string) ([]Assessment, error) {
	rows, err := db.conn.Query(
		`SELECT id, student_id, topic, score, max_score, taken_at, created_at
		FROM assessments WHERE student_id = ? ORDER BY id`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assessment
	for rows.Next() {
		var a Assessment
		var takenAt sql.NullString
		if err := rows.Scan(&a.ID, &a.StudentID, &a.Topic, &a.Score, &a.MaxScore, &takenAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		if a.TakenAt, err = parseTime(takenAt); err != nil {
			return nil, fmt.Errorf("assessment %d: %w", a.ID, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAssessments removes every assessment of a student.
func (db *DB) DeleteAssessments(studentID string) (int64, error) {
	result, err := db.conn.Exec(`DELETE FROM assessments WHERE student_id = ?`, studentID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp %q: %w", s.String, err)
	}
	return &t, nil
}
