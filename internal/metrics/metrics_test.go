package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRecommendation(t *testing.T) {
	tests := []struct {
		name     string
		returned int
		err      error
		outcome  string
	}{
		{name: "served", returned: 3, outcome: "ok"},
		{name: "no candidates", returned: 0, outcome: "empty"},
		{name: "failed", returned: 0, err: errors.New("boom"), outcome: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(RecommendationsServed.WithLabelValues(tt.outcome))
			RecordRecommendation(5*time.Millisecond, 2, 4, tt.returned, tt.err)
			after := testutil.ToFloat64(RecommendationsServed.WithLabelValues(tt.outcome))
			if after-before != 1 {
				t.Errorf("expected %q counter to grow by 1, got %v", tt.outcome, after-before)
			}
		})
	}
}

func TestRecordExplanation(t *testing.T) {
	before := testutil.ToFloat64(Explanations.WithLabelValues("analysis", "fallback"))
	RecordExplanation("analysis", false)
	after := testutil.ToFloat64(Explanations.WithLabelValues("analysis", "fallback"))
	if after-before != 1 {
		t.Errorf("expected fallback counter to grow by 1, got %v", after-before)
	}
}

func TestRecordAnalysisInvalidRecords(t *testing.T) {
	before := testutil.ToFloat64(InvalidRecords)
	RecordAnalysis(time.Millisecond, 2)
	RecordAnalysis(time.Millisecond, 0)
	if got := testutil.ToFloat64(InvalidRecords) - before; got != 2 {
		t.Errorf("expected 2 invalid records, got %v", got)
	}
}

func TestRecordCacheLookup(t *testing.T) {
	before := testutil.ToFloat64(QueryEmbeddingCache.WithLabelValues("hit"))
	RecordCacheLookup(true)
	if got := testutil.ToFloat64(QueryEmbeddingCache.WithLabelValues("hit")) - before; got != 1 {
		t.Errorf("expected hit counter to grow by 1, got %v", got)
	}
}
