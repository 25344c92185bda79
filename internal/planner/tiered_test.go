package planner

import (
	"reflect"
	"testing"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/performance"
)

func history(topic string, scores ...float64) []performance.Record {
	out := make([]performance.Record, 0, len(scores))
	for _, s := range scores {
		out = append(out, performance.Record{Topic: topic, Score: s, MaxScore: 100})
	}
	return out
}

func TestTiered(t *testing.T) {
	var records []performance.Record
	records = append(records, history("Plumbing", 70, 60, 40)...) // declining, weak
	records = append(records, history("Wiring", 50, 52, 51)...)   // stable, weak
	records = append(records, history("Safety", 70, 80, 90)...)   // improving, strong
	records = append(records, history("Welding", 85, 85, 85)...)  // stable, strong
	a := performance.Analyze(records)

	p := New(DefaultConfig())
	tp := p.Tiered(a.LatestScores(), a)

	if !reflect.DeepEqual(tp.UrgentReview.Topics, []string{"Plumbing"}) {
		t.Errorf("unexpected urgent topics %v", tp.UrgentReview.Topics)
	}
	if tp.UrgentReview.SuggestedHours != 3 {
		t.Errorf("expected 3 urgent hours, got %v", tp.UrgentReview.SuggestedHours)
	}
	if !reflect.DeepEqual(tp.SkillBuilding.Topics, []string{"Wiring"}) {
		t.Errorf("unexpected skill building topics %v", tp.SkillBuilding.Topics)
	}
	if !reflect.DeepEqual(tp.Advancement.Topics, []string{"Safety"}) {
		t.Errorf("unexpected advancement topics %v", tp.Advancement.Topics)
	}
	if tp.Advancement.SuggestedHours != 1.5 {
		t.Errorf("expected 1.5 advancement hours, got %v", tp.Advancement.SuggestedHours)
	}
	if !reflect.DeepEqual(tp.TopicOrder, []string{"Plumbing", "Wiring", "Safety"}) {
		t.Errorf("unexpected topic order %v", tp.TopicOrder)
	}
}

func TestTieredUsesSimpleThresholds(t *testing.T) {
	p := New(DefaultConfig())
	scores := map[string]float64{"A": 82, "B": 59, "C": 60}
	if got := p.SimpleStrengths(scores); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("expected A strong at 80 threshold, got %v", got)
	}
	if got := p.SimpleWeaknesses(scores); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("expected B weak at 60 threshold, got %v", got)
	}
}

func TestTieredWithoutHistory(t *testing.T) {
	p := New(DefaultConfig())
	tp := p.Tiered(map[string]float64{"Wiring": 30}, nil)
	if len(tp.UrgentReview.Topics) != 0 || len(tp.Advancement.Topics) != 0 {
		t.Errorf("expected only skill building without history, got %+v", tp)
	}
	if !reflect.DeepEqual(tp.TopicOrder, []string{"Wiring"}) {
		t.Errorf("unexpected order %v", tp.TopicOrder)
	}
}
