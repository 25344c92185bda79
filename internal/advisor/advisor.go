// Package advisor combines performance analysis and study planning into one
// result per student, with an optional generated explanation.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/explain"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/logging"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/metrics"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/performance"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/planner"
)

// FallbackExplanation is used when no explanation could be generated.
const FallbackExplanation = "Your performance data shows areas of strength and opportunities for growth."

// UnknownTopic names records submitted without a topic.
const UnknownTopic = "Unknown"

// ErrInvalidScore is returned for a supplied topic score that is not a
// finite number.
var ErrInvalidScore = errors.New("invalid topic score")

// Result is the combined analysis and plan for one student.
type Result struct {
	TopicTrends       map[string]performance.TopicTrend `json:"topic_trends"`
	OverallTrend      performance.Trend                 `json:"overall_trend"`
	ConsistencyScore  float64                           `json:"consistency_score"`
	ImprovementRate   float64                           `json:"improvement_rate"`
	RecentPerformance float64                           `json:"recent_performance"`
	TotalAssessments  int                               `json:"total_assessments"`
	InvalidRecords    int                               `json:"invalid_records"`

	// CurrentScores is the snapshot that drives priorities and study hours.
	CurrentScores       map[string]float64       `json:"current_scores"`
	TopicAnalysis       planner.TopicAnalysis    `json:"topic_analysis"`
	Recommendations     []planner.Recommendation `json:"recommendations"`
	StudyPlan           planner.StudyPlan        `json:"study_plan"`
	Strengths           planner.Strengths        `json:"strengths"`
	TieredPlan          *planner.TieredPlan      `json:"tiered_plan"`
	MotivationalMessage string                   `json:"motivational_message"`
	Explanation         string                   `json:"explanation"`
	Explained           bool                     `json:"explained"`

	analysis *performance.Analysis
}

// Analysis returns the underlying performance analysis.
func (r *Result) Analysis() *performance.Analysis { return r.analysis }

// Advisor runs the performance pipeline. It is safe for concurrent use.
type Advisor struct {
	planner   *planner.Planner
	explainer explain.Provider
}

// New creates an Advisor. A nil explainer disables generated explanations.
func New(p *planner.Planner, explainer explain.Provider) *Advisor {
	if p == nil {
		p = planner.New(planner.DefaultConfig())
	}
	if explainer == nil {
		explainer = explain.Disabled{}
	}
	return &Advisor{planner: p, explainer: explainer}
}

// AnalyzePerformance analyzes history and plans study for the student.
//
// The current score of a topic is the supplied topic score when present,
// otherwise the latest percentage for that topic in history. It feeds
// priorities and study-hour estimates; rolling averages are reported in
// TopicTrends but never used for planning.
func (a *Advisor) AnalyzePerformance(ctx context.Context, history []performance.Record, topicScores map[string]float64) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for topic, s := range topicScores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidScore, topic)
		}
	}

	start := time.Now()
	records := make([]performance.Record, len(history))
	for i, r := range history {
		if strings.TrimSpace(r.Topic) == "" {
			r.Topic = UnknownTopic
		}
		records[i] = r
	}

	analysis := performance.Analyze(records)
	current := CurrentScores(analysis, topicScores)
	plan := a.planner.Build(current, analysis)

	res := &Result{
		TopicTrends:         analysis.TopicTrends,
		OverallTrend:        analysis.OverallTrend,
		ConsistencyScore:    analysis.ConsistencyScore,
		ImprovementRate:     analysis.ImprovementRate,
		RecentPerformance:   analysis.RecentPerformance,
		TotalAssessments:    analysis.TotalAssessments,
		InvalidRecords:      analysis.InvalidRecords,
		CurrentScores:       current,
		TopicAnalysis:       plan.TopicAnalysis,
		Recommendations:     plan.Recommendations,
		StudyPlan:           plan.StudyPlan,
		Strengths:           plan.Strengths,
		TieredPlan:          a.planner.Tiered(current, analysis),
		MotivationalMessage: plan.MotivationalMessage,
		analysis:            analysis,
	}
	metrics.RecordAnalysis(time.Since(start), analysis.InvalidRecords)

	res.Explanation, res.Explained = explain.Text(ctx, a.explainer, "analysis", explanationPrompt(res), FallbackExplanation)

	logging.Debug().
		Int("assessments", res.TotalAssessments).
		Int("weak_topics", len(res.TopicAnalysis.WeakTopics)).
		Str("overall_trend", string(res.OverallTrend)).
		Bool("explained", res.Explained).
		Msg("Performance analyzed")
	return res, nil
}

// CurrentScores merges the latest history score per topic with the supplied
// scores, which take precedence.
func CurrentScores(a *performance.Analysis, supplied map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(supplied))
	if a != nil {
		for topic, s := range a.LatestScores() {
			out[topic] = s
		}
	}
	for topic, s := range supplied {
		out[topic] = s
	}
	return out
}

func explanationPrompt(r *Result) string {
	var b strings.Builder
	b.WriteString("You are a supportive TVET instructor. Be encouraging, specific, and practical. ")
	b.WriteString("Focus on trade skills like wiring and plumbing.\n\n")
	b.WriteString("Student performance summary:\n")

	strong := make([]string, 0, len(r.Strengths.Areas))
	for _, s := range r.Strengths.Areas {
		strong = append(strong, s.Topic)
	}
	weak := make([]string, 0, len(r.TopicAnalysis.WeakTopics))
	for _, w := range r.TopicAnalysis.WeakTopics {
		weak = append(weak, w.Topic)
	}
	fmt.Fprintf(&b, "- Strong topics: %s\n", joinOr(strong, "None yet"))
	fmt.Fprintf(&b, "- Topics needing work: %s\n", joinOr(weak, "None"))
	fmt.Fprintf(&b, "- Overall trend: %s (improvement rate %.2f, consistency %.2f)\n", r.OverallTrend, r.ImprovementRate, r.ConsistencyScore)

	topics := make([]string, 0, len(r.CurrentScores))
	for topic := range r.CurrentScores {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	b.WriteString("- Topic scores:\n")
	for _, topic := range topics {
		trend := performance.TrendInsufficientData
		if tt, ok := r.TopicTrends[topic]; ok {
			trend = tt.Trend
		}
		fmt.Fprintf(&b, "  - %s: %.2f (%s)\n", topic, r.CurrentScores[topic], trend)
	}
	if len(r.StudyPlan.WeeklySchedule) > 0 {
		fmt.Fprintf(&b, "- Weekly study time: %.2f hours\n", r.StudyPlan.TotalStudyHoursPerWeek)
	}
	b.WriteString("\nIn 2-3 sentences, explain the student's learning pattern and what to focus on next.")
	return b.String()
}

func joinOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}
