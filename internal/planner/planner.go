// Package planner turns current topic scores into prioritized
// recommendations, a weekly study schedule and a summary of strengths.
package planner

import (
	"math"
	"sort"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/config"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/logging"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/performance"
)

const (
	MessageStudyPlan    = "Follow this weekly plan to systematically close skill gaps."
	MessageNoWeakTopics = "No weak topics detected. Keep practicing to maintain performance."
	MessageStrengths    = "These are your strong areas. Consider leveling up with advanced tasks."
	MessageNoStrengths  = "No strong topics identified yet."
)

// Resource is a learning resource suggested for a topic.
type Resource struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// ResourceProvider looks up resources for a topic. An error or an empty
// result falls back to FallbackResources.
type ResourceProvider interface {
	Resources(topic string) ([]Resource, error)
}

// Config holds the planner thresholds. All scores are on a 0-100 scale.
type Config struct {
	WeaknessThreshold     float64
	StrengthThreshold     float64
	TargetScore           float64
	SimpleWeakThreshold   float64
	SimpleStrongThreshold float64
	MaxRecommendations    int
	ScheduleTopics        int
	MinutesPerSession     int
	Resources             ResourceProvider
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		WeaknessThreshold:     60,
		StrengthThreshold:     85,
		TargetScore:           75,
		SimpleWeakThreshold:   60,
		SimpleStrongThreshold: 80,
		MaxRecommendations:    5,
		ScheduleTopics:        3,
		MinutesPerSession:     45,
	}
}

// FromConfig maps the planner config section onto a Config.
func FromConfig(c config.Planner) Config {
	return Config{
		WeaknessThreshold:     c.WeaknessThreshold,
		StrengthThreshold:     c.StrengthThreshold,
		TargetScore:           c.TargetScore,
		SimpleWeakThreshold:   c.SimpleWeakThreshold,
		SimpleStrongThreshold: c.SimpleStrongThreshold,
		MaxRecommendations:    c.MaxRecommendations,
		ScheduleTopics:        c.ScheduleTopics,
		MinutesPerSession:     c.MinutesPerSession,
	}
}

// TopicInfo is a classified topic.
type TopicInfo struct {
	Topic            string        `json:"topic"`
	Score            float64       `json:"score"`
	PerformanceLevel string        `json:"performance_level"`
	Priority         PriorityLevel `json:"priority,omitempty"`
}

// TopicAnalysis splits topics into weak and strong sets.
type TopicAnalysis struct {
	WeakTopics   []TopicInfo `json:"weak_topics"`
	StrongTopics []TopicInfo `json:"strong_topics"`
	AverageScore float64     `json:"average_score"`
}

// Recommendation is a study recommendation for one weak topic.
type Recommendation struct {
	Topic               string        `json:"topic"`
	Priority            PriorityLevel `json:"priority"`
	CurrentScore        float64       `json:"current_score"`
	TargetScore         float64       `json:"target_score"`
	ActionItems         []string      `json:"action_items"`
	Resources           []Resource    `json:"resources"`
	EstimatedStudyHours int           `json:"estimated_study_hours"`
}

// StudySession is one topic's slot in the weekly schedule.
type StudySession struct {
	Topic             string   `json:"topic"`
	SessionsPerWeek   int      `json:"sessions_per_week"`
	MinutesPerSession int      `json:"minutes_per_session"`
	FocusAreas        []string `json:"focus_areas"`
}

// Goal is a target for one weak topic.
type Goal struct {
	Topic         string  `json:"topic"`
	CurrentScore  float64 `json:"current_score"`
	TargetScore   float64 `json:"target_score"`
	TimelineWeeks int     `json:"timeline_weeks"`
}

// StudyPlan is the weekly schedule for the weakest topics.
type StudyPlan struct {
	Message                string         `json:"message"`
	WeeklySchedule         []StudySession `json:"weekly_schedule"`
	Goals                  []Goal         `json:"goals"`
	TotalStudyHoursPerWeek float64        `json:"total_study_hours_per_week"`
}

// StrengthArea describes one strong topic.
type StrengthArea struct {
	Topic            string            `json:"topic"`
	Score            float64           `json:"score"`
	PerformanceLevel string            `json:"performance_level"`
	Trend            performance.Trend `json:"trend"`
	Recognition      string            `json:"recognition"`
	NextSteps        []string          `json:"next_steps"`
}

// Strengths lists the strong topics.
type Strengths struct {
	Message string         `json:"message"`
	Areas   []StrengthArea `json:"areas"`
}

// Plan is the full planner output.
type Plan struct {
	TopicAnalysis       TopicAnalysis    `json:"topic_analysis"`
	Recommendations     []Recommendation `json:"recommendations"`
	StudyPlan           StudyPlan        `json:"study_plan"`
	Strengths           Strengths        `json:"strengths"`
	MotivationalMessage string           `json:"motivational_message"`
}

// Planner builds study plans. It is stateless and safe for concurrent use.
type Planner struct {
	cfg Config
}

// New creates a Planner. Zero counts fall back to the defaults.
func New(cfg Config) *Planner {
	def := DefaultConfig()
	if cfg.MaxRecommendations <= 0 {
		cfg.MaxRecommendations = def.MaxRecommendations
	}
	if cfg.ScheduleTopics <= 0 {
		cfg.ScheduleTopics = def.ScheduleTopics
	}
	if cfg.MinutesPerSession <= 0 {
		cfg.MinutesPerSession = def.MinutesPerSession
	}
	return &Planner{cfg: cfg}
}

// Config returns the planner configuration.
func (p *Planner) Config() Config { return p.cfg }

// Build plans from current topic scores. a supplies trends and may be nil.
func (p *Planner) Build(scores map[string]float64, a *performance.Analysis) *Plan {
	ta := p.AnalyzeTopics(scores)
	overall := performance.TrendInsufficientData
	if a != nil {
		overall = a.OverallTrend
	}
	return &Plan{
		TopicAnalysis:       ta,
		Recommendations:     p.Recommendations(ta.WeakTopics),
		StudyPlan:           p.StudyPlan(ta.WeakTopics),
		Strengths:           p.Strengths(ta.StrongTopics, a),
		MotivationalMessage: MotivationalMessage(overall, ta.AverageScore),
	}
}

// AnalyzeTopics classifies topics: weak below the weakness threshold sorted
// worst first, strong at or above the strength threshold sorted best first.
func (p *Planner) AnalyzeTopics(scores map[string]float64) TopicAnalysis {
	ta := TopicAnalysis{WeakTopics: []TopicInfo{}, StrongTopics: []TopicInfo{}}
	if len(scores) == 0 {
		return ta
	}

	var sum float64
	for topic, s := range scores {
		sum += s
		switch {
		case s < p.cfg.WeaknessThreshold:
			ta.WeakTopics = append(ta.WeakTopics, TopicInfo{
				Topic:            topic,
				Score:            round2(s),
				PerformanceLevel: PerformanceLevel(s),
				Priority:         Priority(s),
			})
		case s >= p.cfg.StrengthThreshold:
			ta.StrongTopics = append(ta.StrongTopics, TopicInfo{
				Topic:            topic,
				Score:            round2(s),
				PerformanceLevel: PerformanceLevel(s),
			})
		}
	}

	sort.Slice(ta.WeakTopics, func(i, j int) bool {
		a, b := ta.WeakTopics[i], ta.WeakTopics[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		return a.Topic < b.Topic
	})
	sort.Slice(ta.StrongTopics, func(i, j int) bool {
		a, b := ta.StrongTopics[i], ta.StrongTopics[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Topic < b.Topic
	})
	ta.AverageScore = round2(sum / float64(len(scores)))
	return ta
}

// Recommendations builds one recommendation for each of the first
// MaxRecommendations weak topics.
func (p *Planner) Recommendations(weak []TopicInfo) []Recommendation {
	n := min(len(weak), p.cfg.MaxRecommendations)
	out := make([]Recommendation, 0, n)
	for _, t := range weak[:n] {
		prio := t.Priority
		if prio == "" {
			prio = Priority(t.Score)
		}
		out = append(out, Recommendation{
			Topic:               t.Topic,
			Priority:            prio,
			CurrentScore:        t.Score,
			TargetScore:         p.cfg.TargetScore,
			ActionItems:         ActionItems(t.Topic, t.Score),
			Resources:           p.resources(t.Topic),
			EstimatedStudyHours: EstimateStudyHours(t.Score, p.cfg.TargetScore),
		})
	}
	return out
}

// StudyPlan schedules the weakest ScheduleTopics topics.
func (p *Planner) StudyPlan(weak []TopicInfo) StudyPlan {
	if len(weak) == 0 {
		return StudyPlan{
			Message:        MessageNoWeakTopics,
			WeeklySchedule: []StudySession{},
			Goals:          []Goal{},
		}
	}

	n := min(len(weak), p.cfg.ScheduleTopics)
	plan := StudyPlan{
		Message:        MessageStudyPlan,
		WeeklySchedule: make([]StudySession, 0, n),
		Goals:          make([]Goal, 0, n),
	}
	var minutes int
	for _, t := range weak[:n] {
		hours := EstimateStudyHours(t.Score, p.cfg.TargetScore)
		weeks := max(1, int(math.Ceil(float64(hours)/3)))
		sessions := min(4, weeks)

		actions := ActionItems(t.Topic, t.Score)
		plan.WeeklySchedule = append(plan.WeeklySchedule, StudySession{
			Topic:             t.Topic,
			SessionsPerWeek:   sessions,
			MinutesPerSession: p.cfg.MinutesPerSession,
			FocusAreas:        actions[:min(2, len(actions))],
		})
		plan.Goals = append(plan.Goals, Goal{
			Topic:         t.Topic,
			CurrentScore:  t.Score,
			TargetScore:   p.cfg.TargetScore,
			TimelineWeeks: weeks,
		})
		minutes += sessions * p.cfg.MinutesPerSession
	}
	plan.TotalStudyHoursPerWeek = round2(float64(minutes) / 60)
	return plan
}

// Strengths describes strong topics, taking each topic's trend from a.
func (p *Planner) Strengths(strong []TopicInfo, a *performance.Analysis) Strengths {
	if len(strong) == 0 {
		return Strengths{Message: MessageNoStrengths, Areas: []StrengthArea{}}
	}

	areas := make([]StrengthArea, 0, len(strong))
	for _, t := range strong {
		trend := performance.TrendStable
		if a != nil {
			trend = a.TopicTrendOf(t.Topic)
		}
		areas = append(areas, StrengthArea{
			Topic:            t.Topic,
			Score:            t.Score,
			PerformanceLevel: t.PerformanceLevel,
			Trend:            trend,
			Recognition:      Recognition(t.Score),
			NextSteps:        AdvancementSuggestions(t.Topic),
		})
	}
	return Strengths{Message: MessageStrengths, Areas: areas}
}

func (p *Planner) resources(topic string) []Resource {
	if p.cfg.Resources != nil {
		res, err := p.cfg.Resources.Resources(topic)
		if err != nil {
			logging.Warn().Err(err).Str("topic", topic).Msg("Resource lookup failed, using defaults")
		} else if len(res) > 0 {
			return res
		}
	}
	return FallbackResources(topic)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
