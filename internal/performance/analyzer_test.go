package performance

import (
	"math"
	"testing"
	"time"
)

func pct(topic string, score float64) Record {
	return Record{Topic: topic, Score: score, MaxScore: 100}
}

func at(r Record, day int) Record {
	ts := time.Date(2025, 3, day, 9, 0, 0, 0, time.UTC)
	r.Timestamp = &ts
	return r
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		scores []float64
		want   Trend
	}{
		{[]float64{50, 55, 60}, TrendImproving},
		{[]float64{80, 78, 50}, TrendDeclining},
		{[]float64{70, 71, 70}, TrendStable},
		{[]float64{70, 90}, TrendInsufficientData},
		{[]float64{40}, TrendInsufficientData},
		{nil, TrendInsufficientData},
		{[]float64{60, 60, 60, 60}, TrendStable},
	}

	for _, tt := range tests {
		if got := ClassifyTrend(tt.scores); got != tt.want {
			t.Errorf("ClassifyTrend(%v): expected %s, got %s", tt.scores, tt.want, got)
		}
	}
}

func TestAnalyzeWiringScenario(t *testing.T) {
	a := Analyze([]Record{pct("Wiring", 30), pct("Wiring", 45), pct("Wiring", 65)})

	tt, ok := a.TopicTrends["Wiring"]
	if !ok {
		t.Fatal("expected Wiring topic trend")
	}
	if tt.Trend != TrendImproving {
		t.Errorf("expected improving, got %s", tt.Trend)
	}
	if tt.AverageScore != 46.67 {
		t.Errorf("expected average 46.67, got %v", tt.AverageScore)
	}
	if tt.LatestScore != 65 {
		t.Errorf("expected latest 65, got %v", tt.LatestScore)
	}
	if tt.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", tt.Attempts)
	}
	if a.OverallTrend != TrendImproving {
		t.Errorf("expected overall improving, got %s", a.OverallTrend)
	}
	// last 3 == first 3 when n == 3
	if a.ImprovementRate != 0 {
		t.Errorf("expected improvement rate 0, got %v", a.ImprovementRate)
	}
	if a.RecentPerformance != 46.67 {
		t.Errorf("expected recent performance 46.67, got %v", a.RecentPerformance)
	}
}

func TestAnalyzeStatistics(t *testing.T) {
	a := Analyze([]Record{
		pct("A", 40), pct("A", 50), pct("B", 60), pct("B", 70), pct("A", 80), pct("B", 90),
	})
	// first 3 mean 50, last 3 mean 80
	if a.ImprovementRate != 30 {
		t.Errorf("expected improvement rate 30, got %v", a.ImprovementRate)
	}
	// last 5: 50,60,70,80,90
	if a.RecentPerformance != 70 {
		t.Errorf("expected recent performance 70, got %v", a.RecentPerformance)
	}
	// population sd of 40..90 step 10 is sqrt(291.67) = 17.08
	if a.ConsistencyScore != 82.92 {
		t.Errorf("expected consistency 82.92, got %v", a.ConsistencyScore)
	}
	if a.TotalAssessments != 6 {
		t.Errorf("expected 6 assessments, got %d", a.TotalAssessments)
	}
	if len(a.Topics) != 2 || a.Topics[0] != "A" || a.Topics[1] != "B" {
		t.Errorf("expected topics in first-seen order, got %v", a.Topics)
	}
	m := a.Mastery()
	if m["A"] != 56.67 || m["B"] != 73.33 {
		t.Errorf("unexpected mastery %v", m)
	}
}

func TestAnalyzeSmallInputs(t *testing.T) {
	empty := Analyze(nil)
	if empty.OverallTrend != TrendInsufficientData || empty.ConsistencyScore != 0 || empty.RecentPerformance != 0 {
		t.Errorf("unexpected analysis for empty history: %+v", empty)
	}
	if len(empty.TopicTrends) != 0 {
		t.Errorf("expected no topics, got %v", empty.TopicTrends)
	}

	single := Analyze([]Record{pct("Safety", 72)})
	if single.ImprovementRate != 0 || single.ConsistencyScore != 0 {
		t.Errorf("expected zero rate and consistency for one record, got %v and %v", single.ImprovementRate, single.ConsistencyScore)
	}
	if single.RecentPerformance != 72 {
		t.Errorf("expected recent performance 72, got %v", single.RecentPerformance)
	}
	if single.TopicTrends["Safety"].Trend != TrendInsufficientData {
		t.Errorf("expected insufficient data for single attempt, got %s", single.TopicTrends["Safety"].Trend)
	}
}

func TestAnalyzeConsistencyFloorsAtZero(t *testing.T) {
	// Scores far outside 0-100 can push the deviation past 100.
	a := Analyze([]Record{pct("X", 0), pct("X", 400)})
	if a.ConsistencyScore != 0 {
		t.Errorf("expected consistency floored at 0, got %v", a.ConsistencyScore)
	}
}

func TestAnalyzeZeroMaxScore(t *testing.T) {
	a := Analyze([]Record{
		{Topic: "Plumbing", Score: 5, MaxScore: 0},
		{Topic: "Plumbing", Score: 5, MaxScore: -10},
		pct("Plumbing", 60),
	})
	if a.InvalidRecords != 2 {
		t.Errorf("expected 2 invalid records, got %d", a.InvalidRecords)
	}
	tt := a.TopicTrends["Plumbing"]
	if tt.AverageScore != 20 {
		t.Errorf("expected invalid records to count as 0%%, average 20, got %v", tt.AverageScore)
	}
	if (Record{Score: 3}).Percentage() != 0 {
		t.Error("expected 0% for zero max score")
	}
}

func TestAnalyzeOrdersByTimestamp(t *testing.T) {
	// Chronologically 30, 45, 65; untimed 10 goes last.
	a := Analyze([]Record{
		at(pct("Wiring", 65), 20),
		pct("Wiring", 10),
		at(pct("Wiring", 30), 1),
		at(pct("Wiring", 45), 10),
	})
	tt := a.TopicTrends["Wiring"]
	if tt.LatestScore != 10 {
		t.Errorf("expected untimed record last, latest 10, got %v", tt.LatestScore)
	}

	timed := Analyze([]Record{
		at(pct("Wiring", 65), 20),
		at(pct("Wiring", 30), 1),
		at(pct("Wiring", 45), 10),
	})
	if timed.TopicTrends["Wiring"].Trend != TrendImproving {
		t.Errorf("expected improving after sorting, got %s", timed.TopicTrends["Wiring"].Trend)
	}
	if timed.TopicTrends["Wiring"].LatestScore != 65 {
		t.Errorf("expected latest 65, got %v", timed.TopicTrends["Wiring"].LatestScore)
	}
}

func TestAnalyzeKeepsInputUntouched(t *testing.T) {
	in := []Record{at(pct("A", 1), 5), at(pct("A", 2), 1)}
	Analyze(in)
	if in[0].Score != 1 {
		t.Error("Analyze must not reorder the caller's slice")
	}
}

func TestTopicTrendOfUnknownTopic(t *testing.T) {
	a := Analyze([]Record{pct("A", 50)})
	if got := a.TopicTrendOf("Welding"); got != TrendStable {
		t.Errorf("expected stable for unseen topic, got %s", got)
	}
}

func TestRound2(t *testing.T) {
	if got := round2(46.666666); math.Abs(got-46.67) > 1e-12 {
		t.Errorf("expected 46.67, got %v", got)
	}
}
