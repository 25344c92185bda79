package database

import "time"

// Assessment is one stored assessment result.
type Assessment struct {
	ID        int64
	StudentID string
	Topic     string
	Score     float64
	MaxScore  float64
	TakenAt   *time.Time
	CreatedAt *string
}

// Snapshot is the set of current topic scores saved after an analysis.
type Snapshot struct {
	ID           int64
	StudentID    string
	TopicScores  map[string]float64
	OverallTrend string
	CreatedAt    *string
}

// RecommendationLog records one served recommendation request.
type RecommendationLog struct {
	ID        int64
	RequestID string
	UserID    string
	Alpha     float64
	TopK      int
	KnownUser bool
	Items     []LoggedItem
	CreatedAt *string
}

// LoggedItem is one ranked entry of a served recommendation.
type LoggedItem struct {
	Rank          int
	ContentID     int
	CFScore       float64
	ContentScore  float64
	CombinedScore float64
	Reason        string
}

// Stats contains aggregate database statistics.
type Stats struct {
	Students        int
	Assessments     int
	Snapshots       int
	Recommendations int
	LastAnalysis    string
}
