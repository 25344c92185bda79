package advisor

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/content"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/performance"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/planner"
)

type mockExplainer struct {
	text    string
	ok      bool
	prompts []string
}

func (m *mockExplainer) TryGenerate(_ context.Context, prompt string) (string, bool) {
	m.prompts = append(m.prompts, prompt)
	return m.text, m.ok
}

func wiring(scores ...float64) []performance.Record {
	out := make([]performance.Record, 0, len(scores))
	for _, s := range scores {
		out = append(out, performance.Record{Topic: "Wiring", Score: s, MaxScore: 100})
	}
	return out
}

func newAdvisor() *Advisor {
	return New(planner.New(planner.DefaultConfig()), nil)
}

func TestAnalyzePerformanceWiringScenario(t *testing.T) {
	res, err := newAdvisor().AnalyzePerformance(context.Background(), wiring(30, 45, 65), nil)
	if err != nil {
		t.Fatalf("AnalyzePerformance: %v", err)
	}

	tt := res.TopicTrends["Wiring"]
	if tt.Trend != performance.TrendImproving {
		t.Errorf("expected improving, got %s", tt.Trend)
	}
	if tt.AverageScore != 46.67 {
		t.Errorf("expected average 46.67, got %v", tt.AverageScore)
	}

	// The latest score, not the average or the first score, is current.
	if res.CurrentScores["Wiring"] != 65 {
		t.Errorf("expected current score 65, got %v", res.CurrentScores["Wiring"])
	}
	if p := planner.Priority(res.CurrentScores["Wiring"]); p != planner.PriorityLow {
		t.Errorf("expected Low priority for 65, got %s", p)
	}
	// 65 clears the weakness threshold, so no recommendation is produced.
	if len(res.Recommendations) != 0 {
		t.Errorf("expected no recommendations, got %+v", res.Recommendations)
	}
	if res.StudyPlan.Message != planner.MessageNoWeakTopics {
		t.Errorf("unexpected study plan message %q", res.StudyPlan.Message)
	}
}

func TestAnalyzePerformanceLatestScoreDrivesPriority(t *testing.T) {
	res, err := newAdvisor().AnalyzePerformance(context.Background(), wiring(30, 45, 55), nil)
	if err != nil {
		t.Fatalf("AnalyzePerformance: %v", err)
	}
	if len(res.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(res.Recommendations))
	}
	rec := res.Recommendations[0]
	// Average 43.33 would be High and the first score 30 Critical.
	if rec.Priority != planner.PriorityMedium {
		t.Errorf("expected Medium priority from latest score 55, got %s", rec.Priority)
	}
	if rec.CurrentScore != 55 {
		t.Errorf("expected current score 55, got %v", rec.CurrentScore)
	}
	if rec.EstimatedStudyHours != 8 {
		t.Errorf("expected 8 hours for a 20 point gap, got %d", rec.EstimatedStudyHours)
	}
	if rec.TargetScore != 75 {
		t.Errorf("expected target 75, got %v", rec.TargetScore)
	}
}

func TestAnalyzePerformanceSuppliedScoreWins(t *testing.T) {
	res, err := newAdvisor().AnalyzePerformance(context.Background(), wiring(30, 45, 65), map[string]float64{
		"Wiring":   35,
		"Plumbing": 90,
	})
	if err != nil {
		t.Fatalf("AnalyzePerformance: %v", err)
	}
	if res.CurrentScores["Wiring"] != 35 {
		t.Errorf("expected supplied score 35, got %v", res.CurrentScores["Wiring"])
	}
	if len(res.Recommendations) != 1 || res.Recommendations[0].Priority != planner.PriorityCritical {
		t.Errorf("expected one Critical recommendation, got %+v", res.Recommendations)
	}
	if len(res.Strengths.Areas) != 1 || res.Strengths.Areas[0].Trend != performance.TrendStable {
		t.Errorf("expected Plumbing strength with stable trend, got %+v", res.Strengths.Areas)
	}
}

func TestAnalyzePerformanceRoundTrip(t *testing.T) {
	topics := []string{"Wiring", "Plumbing", "Safety", "Welding", "Carpentry"}
	r := rand.New(rand.NewSource(42))
	adv := newAdvisor()

	for trial := 0; trial < 50; trial++ {
		var history []performance.Record
		for i := 0; i < 3+r.Intn(20); i++ {
			history = append(history, performance.Record{
				Topic:    topics[r.Intn(len(topics))],
				Score:    float64(r.Intn(101)),
				MaxScore: 100,
			})
		}

		first, err := adv.AnalyzePerformance(context.Background(), history, nil)
		if err != nil {
			t.Fatalf("AnalyzePerformance: %v", err)
		}
		mastery := first.Analysis().Mastery()

		second, err := adv.AnalyzePerformance(context.Background(), history, mastery)
		if err != nil {
			t.Fatalf("AnalyzePerformance: %v", err)
		}

		var wantWeak []string
		for topic, s := range mastery {
			if s < planner.DefaultConfig().WeaknessThreshold {
				wantWeak = append(wantWeak, topic)
			}
		}
		var gotWeak []string
		for _, rec := range second.Recommendations {
			gotWeak = append(gotWeak, rec.Topic)
		}
		sort.Strings(wantWeak)
		sort.Strings(gotWeak)
		if strings.Join(wantWeak, ",") != strings.Join(gotWeak, ",") {
			t.Fatalf("trial %d: weak set %v does not match recommendations %v", trial, wantWeak, gotWeak)
		}
	}
}

func TestAnalyzePerformanceEmptyHistory(t *testing.T) {
	res, err := newAdvisor().AnalyzePerformance(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("AnalyzePerformance: %v", err)
	}
	if res.OverallTrend != performance.TrendInsufficientData {
		t.Errorf("expected insufficient data, got %s", res.OverallTrend)
	}
	if res.Recommendations == nil || len(res.Recommendations) != 0 {
		t.Errorf("expected empty recommendations, got %v", res.Recommendations)
	}
	if !strings.HasPrefix(res.MotivationalMessage, "Insufficient data") {
		t.Errorf("unexpected message %q", res.MotivationalMessage)
	}
}

func TestAnalyzePerformanceZeroMaxScore(t *testing.T) {
	res, err := newAdvisor().AnalyzePerformance(context.Background(), []performance.Record{
		{Topic: "Safety", Score: 10, MaxScore: 0},
	}, nil)
	if err != nil {
		t.Fatalf("expected zero max score to be tolerated, got %v", err)
	}
	if res.InvalidRecords != 1 || res.CurrentScores["Safety"] != 0 {
		t.Errorf("expected one invalid record scored 0, got %d and %v", res.InvalidRecords, res.CurrentScores["Safety"])
	}
}

func TestAnalyzePerformanceUnknownTopic(t *testing.T) {
	res, err := newAdvisor().AnalyzePerformance(context.Background(), []performance.Record{
		{Score: 50, MaxScore: 100},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.TopicTrends[UnknownTopic]; !ok {
		t.Errorf("expected topic %q, got %v", UnknownTopic, res.TopicTrends)
	}
}

func TestAnalyzePerformanceRejectsNaN(t *testing.T) {
	_, err := newAdvisor().AnalyzePerformance(context.Background(), nil, map[string]float64{"Wiring": math.NaN()})
	if !errors.Is(err, ErrInvalidScore) {
		t.Errorf("expected ErrInvalidScore, got %v", err)
	}
}

func TestAnalyzePerformanceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newAdvisor().AnalyzePerformance(ctx, wiring(50), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestAnalyzePerformanceExplanation(t *testing.T) {
	res, err := newAdvisor().AnalyzePerformance(context.Background(), wiring(30, 45, 55), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Explained || res.Explanation != FallbackExplanation {
		t.Errorf("expected fallback explanation, got %q", res.Explanation)
	}

	m := &mockExplainer{text: "Wiring is trending up; keep drilling circuit calculations.", ok: true}
	res, err = New(planner.New(planner.DefaultConfig()), m).AnalyzePerformance(context.Background(), wiring(30, 45, 55), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Explained || res.Explanation != m.text {
		t.Errorf("expected generated explanation, got %q", res.Explanation)
	}
	if len(m.prompts) != 1 || !strings.Contains(m.prompts[0], "Wiring: 55.00 (improving)") {
		t.Errorf("expected prompt to carry topic scores, got %v", m.prompts)
	}
}

func TestReportMarkdown(t *testing.T) {
	res, err := newAdvisor().AnalyzePerformance(context.Background(), wiring(30, 45, 55), map[string]float64{"Plumbing": 92})
	if err != nil {
		t.Fatal(err)
	}
	progress := performance.TrackImprovement(res.CurrentScores, map[string]float64{"Wiring": 40, "Plumbing": 90})
	rep := BuildReport("s-1", "Amina", res, progress, time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC))

	if rep.Metadata.ReportType != ReportType {
		t.Errorf("unexpected report type %q", rep.Metadata.ReportType)
	}
	if len(rep.Summary.AreasForImprovement) != 1 || rep.Summary.AreasForImprovement[0] != "Wiring" {
		t.Errorf("expected Wiring as area for improvement, got %v", rep.Summary.AreasForImprovement)
	}

	md := rep.Markdown()
	for _, want := range []string{
		"# Performance Analysis & Recommendations",
		"Amina (s-1)",
		"| Wiring | improving | 43.33 | 55.00 | 3 |",
		"### Wiring (Medium priority)",
		"## Strengths",
		"Wiring improved 40.00 → 55.00",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected markdown to contain %q", want)
		}
	}
}

func TestContentResources(t *testing.T) {
	idx, err := content.NewIndex([]content.Item{
		{ID: 4, Title: "Residential Wiring", Tags: "electrical", Difficulty: "beginner"},
		{ID: 5, Title: "Pipe Joints", Tags: "plumbing"},
	})
	if err != nil {
		t.Fatal(err)
	}
	cfg := planner.DefaultConfig()
	cfg.Resources = ContentResources{Index: idx}
	adv := New(planner.New(cfg), nil)

	res, err := adv.AnalyzePerformance(context.Background(), wiring(20), nil)
	if err != nil {
		t.Fatal(err)
	}
	got := res.Recommendations[0].Resources
	if len(got) != 1 || got[0].Title != "Residential Wiring" || got[0].URL != "/api/content/4" {
		t.Errorf("expected catalog resource, got %+v", got)
	}

	res, err = adv.AnalyzePerformance(context.Background(), nil, map[string]float64{"Masonry": 20})
	if err != nil {
		t.Fatal(err)
	}
	if res.Recommendations[0].Resources[0].Title != "Masonry Tutorial Series" {
		t.Errorf("expected fallback resources, got %+v", res.Recommendations[0].Resources)
	}
}
