// Package performance turns a student's assessment history into trends and
// summary statistics. All scores are percentages on a 0-100 scale.
package performance

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/logging"
)

// Trend classifies the direction of a score sequence.
type Trend string

const (
	TrendInsufficientData Trend = "insufficient_data"
	TrendImproving        Trend = "improving"
	TrendStable           Trend = "stable"
	TrendDeclining        Trend = "declining"
)

// trendThreshold is the scaled slope, in percentage points, beyond which a
// sequence counts as improving or declining.
const trendThreshold = 5.0

// Record is one graded assessment.
type Record struct {
	Topic     string     `json:"topic"`
	Score     float64    `json:"score"`
	MaxScore  float64    `json:"max_score"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Valid reports whether the record has a usable max score.
func (r Record) Valid() bool { return r.MaxScore > 0 }

// Percentage returns 100*Score/MaxScore, or 0 when MaxScore is not positive.
func (r Record) Percentage() float64 {
	if !r.Valid() {
		return 0
	}
	return 100 * r.Score / r.MaxScore
}

// TopicTrend summarizes one topic's history in chronological order.
type TopicTrend struct {
	Topic        string  `json:"topic"`
	Trend        Trend   `json:"trend"`
	AverageScore float64 `json:"average_score"`
	LatestScore  float64 `json:"latest_score"`
	Attempts     int     `json:"attempts"`
}

// Analysis is the result of Analyze.
type Analysis struct {
	OverallTrend      Trend                 `json:"overall_trend"`
	ImprovementRate   float64               `json:"improvement_rate"`
	ConsistencyScore  float64               `json:"consistency_score"`
	RecentPerformance float64               `json:"recent_performance"`
	TotalAssessments  int                   `json:"total_assessments"`
	InvalidRecords    int                   `json:"invalid_records"`
	TopicTrends       map[string]TopicTrend `json:"topic_trends"`

	// Topics lists topic names in order of first appearance.
	Topics []string `json:"-"`
}

// Analyze computes trends and statistics for records. Records are ordered by
// timestamp, with untimed records kept in input order after timed ones.
// Records with a non-positive max score count as 0% and are tallied in
// InvalidRecords.
func Analyze(records []Record) *Analysis {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Timestamp, sorted[j].Timestamp
		if (a == nil) != (b == nil) {
			return a != nil
		}
		if a == nil {
			return false
		}
		return a.Before(*b)
	})

	a := &Analysis{
		TopicTrends: make(map[string]TopicTrend),
	}
	scores := make([]float64, 0, len(sorted))
	byTopic := make(map[string][]float64)
	for _, r := range sorted {
		if !r.Valid() {
			a.InvalidRecords++
		}
		p := r.Percentage()
		scores = append(scores, p)
		if _, seen := byTopic[r.Topic]; !seen {
			a.Topics = append(a.Topics, r.Topic)
		}
		byTopic[r.Topic] = append(byTopic[r.Topic], p)
	}
	if a.InvalidRecords > 0 {
		logging.Debug().Int("invalid_records", a.InvalidRecords).Msg("Assessment records with non-positive max score treated as 0%")
	}

	a.TotalAssessments = len(scores)
	a.OverallTrend = ClassifyTrend(scores)
	a.ImprovementRate = ImprovementRate(scores)
	a.ConsistencyScore = Consistency(scores)
	a.RecentPerformance = RecentPerformance(scores)

	for _, topic := range a.Topics {
		ts := byTopic[topic]
		a.TopicTrends[topic] = TopicTrend{
			Topic:        topic,
			Trend:        ClassifyTrend(ts),
			AverageScore: round2(stat.Mean(ts, nil)),
			LatestScore:  round2(ts[len(ts)-1]),
			Attempts:     len(ts),
		}
	}
	return a
}

// Mastery returns the mean score per topic.
func (a *Analysis) Mastery() map[string]float64 {
	out := make(map[string]float64, len(a.TopicTrends))
	for topic, tt := range a.TopicTrends {
		out[topic] = tt.AverageScore
	}
	return out
}

// LatestScores returns the most recent score per topic.
func (a *Analysis) LatestScores() map[string]float64 {
	out := make(map[string]float64, len(a.TopicTrends))
	for topic, tt := range a.TopicTrends {
		out[topic] = tt.LatestScore
	}
	return out
}

// TopicTrendOf returns the trend of a topic, or TrendStable when the topic
// never appeared in the history.
func (a *Analysis) TopicTrendOf(topic string) Trend {
	if tt, ok := a.TopicTrends[topic]; ok {
		return tt.Trend
	}
	return TrendStable
}

// ClassifyTrend fits a least-squares line to scores over x = i/(n-1) and
// classifies the slope scaled back to percentage points per sequence.
// Fewer than three scores are insufficient.
func ClassifyTrend(scores []float64) Trend {
	n := len(scores)
	if n < 3 {
		return TrendInsufficientData
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i) / float64(n-1)
	}
	_, slope := stat.LinearRegression(xs, scores, nil, false)
	scaled := slope * float64(n-1)

	switch {
	case scaled > trendThreshold:
		return TrendImproving
	case scaled < -trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// ImprovementRate is the mean of the last min(3,n) scores minus the mean of
// the first min(3,n), rounded to two decimals. It is 0 for fewer than two
// scores.
func ImprovementRate(scores []float64) float64 {
	n := len(scores)
	if n < 2 {
		return 0
	}
	w := min(3, n)
	return round2(stat.Mean(scores[n-w:], nil) - stat.Mean(scores[:w], nil))
}

// Consistency is 100 minus the population standard deviation, floored at 0
// and rounded to two decimals. It is 0 for fewer than two scores.
func Consistency(scores []float64) float64 {
	if len(scores) < 2 {
		return 0
	}
	_, sd := stat.PopMeanStdDev(scores, nil)
	return math.Max(0, round2(100-sd))
}

// RecentPerformance is the mean of the last min(5,n) scores, rounded to two
// decimals.
func RecentPerformance(scores []float64) float64 {
	n := len(scores)
	if n == 0 {
		return 0
	}
	w := min(5, n)
	return round2(stat.Mean(scores[n-w:], nil))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
