package database

// InsertRecommendationLog stores a served recommendation and its items.
func (db *DB) InsertRecommendationLog(l RecommendationLog) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO recommend_requests (request_id, user_id, alpha, top_k, known_user)
		VALUES (?, ?, ?, ?, ?)`,
		l.RequestID, l.UserID, l.Alpha, l.TopK, l.KnownUser,
	)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, it := range l.Items {
		if _, err := tx.Exec(
			`INSERT INTO recommendation_items
			(request_id, rank, content_id, cf_score, content_score, combined_score, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, it.Rank, it.ContentID, it.CFScore, it.ContentScore, it.CombinedScore, it.Reason,
		); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetRecentRecommendations returns the latest logged recommendations for a
// user, newest first, with their items.
func (db *DB) GetRecentRecommendations(userID string, limit int) ([]RecommendationLog, error) {
	rows, err := db.conn.Query(
		`SELECT id, request_id, user_id, alpha, top_k, known_user, created_at
		FROM recommend_requests WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}

	var logs []RecommendationLog
	for rows.Next() {
		var l RecommendationLog
		if err := rows.Scan(&l.ID, &l.RequestID, &l.UserID, &l.Alpha, &l.TopK, &l.KnownUser, &l.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range logs {
		items, err := db.recommendationItems(logs[i].ID)
		if err != nil {
			return nil, err
		}
		logs[i].Items = items
	}
	return logs, nil
}

func (db *DB) recommendationItems(requestID int64) ([]LoggedItem, error) {
	rows, err := db.conn.Query(
		`SELECT rank, content_id, cf_score, content_score, combined_score, COALESCE(reason, '')
		FROM recommendation_items WHERE request_id = ? ORDER BY rank`, requestID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []LoggedItem
	for rows.Next() {
		var it LoggedItem
		if err := rows.Scan(&it.Rank, &it.ContentID, &it.CFScore, &it.ContentScore, &it.CombinedScore, &it.Reason); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
