package planner

import (
	"fmt"
	"strings"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/performance"
)

// PriorityLevel ranks how urgently a weak topic needs work.
type PriorityLevel string

const (
	PriorityCritical PriorityLevel = "Critical"
	PriorityHigh     PriorityLevel = "High"
	PriorityMedium   PriorityLevel = "Medium"
	PriorityLow      PriorityLevel = "Low"
)

// Priority maps a current score to a priority level.
func Priority(score float64) PriorityLevel {
	switch {
	case score < 40:
		return PriorityCritical
	case score < 50:
		return PriorityHigh
	case score < 60:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// EstimateStudyHours estimates the hours needed to close the gap between
// current and target.
func EstimateStudyHours(current, target float64) int {
	gap := max(0, target-current)
	switch {
	case gap <= 0:
		return 2
	case gap <= 10:
		return 4
	case gap <= 25:
		return 8
	case gap <= 40:
		return 15
	default:
		return 25
	}
}

// PerformanceLevel labels a score.
func PerformanceLevel(score float64) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 80:
		return "Very Good"
	case score >= 70:
		return "Good"
	case score >= 60:
		return "Satisfactory"
	case score >= 50:
		return "Needs Improvement"
	default:
		return "Requires Significant Improvement"
	}
}

// Recognition labels a strong topic's score.
func Recognition(score float64) string {
	switch {
	case score >= 95:
		return "Outstanding mastery"
	case score >= 90:
		return "Excellent performance"
	case score >= 85:
		return "Very good"
	default:
		return "Good"
	}
}

type family int

const (
	familyOther family = iota
	familyPlumbing
	familyElectrical
	familySafety
)

func topicFamily(topic string) family {
	t := strings.ToLower(topic)
	switch {
	case strings.Contains(t, "plumb"):
		return familyPlumbing
	case strings.Contains(t, "wir"), strings.Contains(t, "electr"):
		return familyElectrical
	case strings.Contains(t, "safety"):
		return familySafety
	default:
		return familyOther
	}
}

// ActionItems returns study actions for topic, chosen by score band and
// extended with trade-specific practice.
func ActionItems(topic string, score float64) []string {
	var items []string
	switch {
	case score < 40:
		items = []string{
			fmt.Sprintf("Review fundamentals of %s", topic),
			fmt.Sprintf("Follow a structured intro course on %s", topic),
			"Practice basic exercises daily (20-30 min)",
			"Ask for targeted tutoring on core concepts",
		}
	case score < 60:
		items = []string{
			fmt.Sprintf("Work on applied problems for %s", topic),
			"Solve graded exercises and compare solutions",
			"Identify and correct common mistakes",
			"Form or join a short study group for peer review",
		}
	default:
		items = []string{
			fmt.Sprintf("Attempt advanced problem sets in %s", topic),
			"Practice past exam-style questions under timed conditions",
			fmt.Sprintf("Explain core %s concepts to a peer (teaching is learning)", topic),
		}
	}
	return append(items, topicActions(topic)...)
}

func topicActions(topic string) []string {
	switch topicFamily(topic) {
	case familyPlumbing:
		return []string{
			"Practice hands-on pipe-fitting tasks in a workshop environment",
			"Study plumbing codes and standards",
			"Follow guided installation walkthroughs",
		}
	case familyElectrical:
		return []string{
			"Work through circuit calculations and simulations",
			"Study relevant electrical code and safety rules",
			"Practice troubleshooting on sample circuits",
		}
	case familySafety:
		return []string{
			"Review safety protocols and standard operating procedures",
			"Practice emergency response drills",
			"Read local regulatory guidelines and OSH summaries",
		}
	default:
		return []string{"Practice targeted problem-solving and review official docs"}
	}
}

// AdvancementSuggestions returns next steps for a strong topic.
func AdvancementSuggestions(topic string) []string {
	out := []string{
		fmt.Sprintf("Take on advanced projects in %s", topic),
		fmt.Sprintf("Mentor peers on %s", topic),
		fmt.Sprintf("Explore specialized applications of %s", topic),
	}
	t := strings.ToLower(topic)
	if strings.Contains(t, "plumb") {
		out = append(out, "Consider advanced plumbing certifications")
	}
	if strings.Contains(t, "wir") || strings.Contains(t, "electr") {
		out = append(out, "Study industrial control / automation systems")
	}
	return out
}

// FallbackResources returns the built-in resources for topic.
func FallbackResources(topic string) []Resource {
	var out []Resource
	switch topicFamily(topic) {
	case familyPlumbing:
		out = []Resource{
			{Type: "Video", Title: "Plumbing Fundamentals", Description: "Intro to plumbing"},
			{Type: "Manual", Title: "IPC - Plumbing Code", Description: "Reference manual"},
		}
	case familyElectrical:
		out = []Resource{
			{Type: "Video", Title: "Electrical Wiring Basics", Description: "Circuit fundamentals"},
			{Type: "Manual", Title: "NEC - Electrical Code", Description: "Standard reference"},
		}
	default:
		out = []Resource{
			{Type: "Video", Title: topic + " Tutorial Series", Description: "Comprehensive " + topic},
			{Type: "Practice", Title: "Practice Exercises", Description: "Hands-on exercises for " + topic},
		}
	}
	return append(out, Resource{Type: "Assessment", Title: "Practice Quizzes", Description: "Short quizzes for " + topic})
}

// MotivationalMessage assembles encouragement from the overall trend and the
// average current score.
func MotivationalMessage(trend performance.Trend, average float64) string {
	parts := make([]string, 0, 3)
	switch trend {
	case performance.TrendImproving:
		parts = append(parts, "Great progress, your performance is improving.")
	case performance.TrendDeclining:
		parts = append(parts, "Don't be discouraged, there are actionable steps to recover.")
	case performance.TrendStable:
		parts = append(parts, "Performance is stable. Focus on targeted improvement.")
	default:
		parts = append(parts, "Insufficient data to determine a trend. Keep practicing and logging results.")
	}

	switch {
	case average >= 85:
		parts = append(parts, "You're performing exceptionally well overall.")
	case average >= 70:
		parts = append(parts, "Good overall performance. Focus on weak areas to improve further.")
	case average >= 50:
		parts = append(parts, "You're making progress; stay consistent and follow the study plan.")
	default:
		parts = append(parts, "This is a critical time; use focused practice and ask for help if needed.")
	}

	parts = append(parts, "Consistent practice and hands-on exercises will accelerate learning.")
	return strings.Join(parts, " ")
}
