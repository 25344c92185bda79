package planner

import (
	"sort"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/performance"
)

// Tier is one band of the tiered plan.
type Tier struct {
	Topics         []string `json:"topics"`
	Reason         string   `json:"reason"`
	SuggestedHours float64  `json:"suggested_hours"`
}

// TieredPlan groups topics into urgent review, skill building and
// advancement using the simple weak/strong thresholds.
type TieredPlan struct {
	UrgentReview  Tier `json:"urgent_review"`
	SkillBuilding Tier `json:"skill_building"`
	Advancement   Tier `json:"advancement"`
	// TopicOrder is urgent, then skill building, then advancement.
	TopicOrder []string `json:"topic_recommendations"`
}

// SimpleStrengths returns topics at or above the simple strong threshold, best first.
func (p *Planner) SimpleStrengths(scores map[string]float64) []string {
	return p.filter(scores, func(s float64) bool { return s >= p.cfg.SimpleStrongThreshold }, true)
}

// SimpleWeaknesses returns topics below the simple weak threshold, worst first.
func (p *Planner) SimpleWeaknesses(scores map[string]float64) []string {
	return p.filter(scores, func(s float64) bool { return s < p.cfg.SimpleWeakThreshold }, false)
}

// Tiered builds the tiered plan. Declining topics need urgent review at 3
// hours each, weak topics that are not declining get skill building at 2
// hours each, and strong improving topics get advancement at 1.5 hours each.
func (p *Planner) Tiered(scores map[string]float64, a *performance.Analysis) *TieredPlan {
	trendOf := func(topic string) performance.Trend {
		if a == nil {
			return performance.TrendInsufficientData
		}
		if tt, ok := a.TopicTrends[topic]; ok {
			return tt.Trend
		}
		return performance.TrendInsufficientData
	}

	declining := []string{}
	isDeclining := map[string]bool{}
	if a != nil {
		for _, topic := range a.Topics {
			if trendOf(topic) == performance.TrendDeclining {
				declining = append(declining, topic)
				isDeclining[topic] = true
			}
		}
	}

	improvement := []string{}
	for _, topic := range p.SimpleWeaknesses(scores) {
		if !isDeclining[topic] {
			improvement = append(improvement, topic)
		}
	}

	advancement := []string{}
	for _, topic := range p.SimpleStrengths(scores) {
		if trendOf(topic) == performance.TrendImproving {
			advancement = append(advancement, topic)
		}
	}

	tp := &TieredPlan{
		UrgentReview: Tier{
			Topics:         declining,
			Reason:         "Performance is declining, immediate attention needed",
			SuggestedHours: float64(len(declining)) * 3,
		},
		SkillBuilding: Tier{
			Topics:         improvement,
			Reason:         "Below mastery threshold, foundational work needed",
			SuggestedHours: float64(len(improvement)) * 2,
		},
		Advancement: Tier{
			Topics:         advancement,
			Reason:         "Strong foundation, ready for advanced concepts",
			SuggestedHours: float64(len(advancement)) * 1.5,
		},
	}
	tp.TopicOrder = make([]string, 0, len(declining)+len(improvement)+len(advancement))
	tp.TopicOrder = append(tp.TopicOrder, declining...)
	tp.TopicOrder = append(tp.TopicOrder, improvement...)
	tp.TopicOrder = append(tp.TopicOrder, advancement...)
	return tp
}

func (p *Planner) filter(scores map[string]float64, keep func(float64) bool, desc bool) []string {
	out := []string{}
	for topic, s := range scores {
		if keep(s) {
			out = append(out, topic)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := scores[out[i]], scores[out[j]]
		if a != b {
			if desc {
				return a > b
			}
			return a < b
		}
		return out[i] < out[j]
	})
	return out
}
