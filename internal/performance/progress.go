package performance

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ProgressStatus is the overall direction between two snapshots.
type ProgressStatus string

const (
	ProgressBaseline  ProgressStatus = "baseline"
	ProgressImproving ProgressStatus = "improving"
	ProgressStable    ProgressStatus = "stable"
	ProgressDeclining ProgressStatus = "declining"
)

// progressThreshold is the change in percentage points that counts as
// movement between snapshots.
const progressThreshold = 5.0

// TopicChange is a per-topic comparison between two snapshots.
type TopicChange struct {
	Topic         string  `json:"topic"`
	Previous      float64 `json:"previous"`
	Current       float64 `json:"current"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// Progress compares current topic scores with a previous snapshot.
type Progress struct {
	Status       ProgressStatus     `json:"progress_status"`
	Message      string             `json:"message,omitempty"`
	Improvements []TopicChange      `json:"improvements"`
	Declines     []TopicChange      `json:"declines"`
	Stable       map[string]float64 `json:"stable_topics"`
	NewTopics    map[string]float64 `json:"new_topics"`
}

// BaselineMessage is reported when there is no previous snapshot.
const BaselineMessage = "Baseline performance recorded. Next assessment will show progress."

// TrackImprovement compares current against previous. A nil or empty
// previous snapshot establishes a baseline.
func TrackImprovement(current, previous map[string]float64) *Progress {
	p := &Progress{
		Improvements: []TopicChange{},
		Declines:     []TopicChange{},
		Stable:       map[string]float64{},
		NewTopics:    map[string]float64{},
	}
	if len(previous) == 0 {
		p.Status = ProgressBaseline
		p.Message = BaselineMessage
		for topic, s := range current {
			p.NewTopics[topic] = round2(s)
		}
		return p
	}

	for _, topic := range sortedKeys(current) {
		cur := current[topic]
		prev, ok := previous[topic]
		if !ok {
			p.NewTopics[topic] = round2(cur)
			continue
		}
		change := cur - prev
		tc := TopicChange{
			Topic:    topic,
			Previous: round2(prev),
			Current:  round2(cur),
			Change:   round2(change),
		}
		if prev > 0 {
			tc.ChangePercent = math.Round(change/prev*1000) / 10
		}
		switch {
		case change > progressThreshold:
			p.Improvements = append(p.Improvements, tc)
		case change < -progressThreshold:
			p.Declines = append(p.Declines, tc)
		default:
			p.Stable[topic] = round2(cur)
		}
	}

	overall := stat.Mean(values(current), nil) - stat.Mean(values(previous), nil)
	switch {
	case len(current) == 0:
		p.Status = ProgressStable
	case overall > progressThreshold:
		p.Status = ProgressImproving
	case overall < -progressThreshold:
		p.Status = ProgressDeclining
	default:
		p.Status = ProgressStable
	}
	return p
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func values(m map[string]float64) []float64 {
	out := make([]float64, 0, len(m))
	for _, k := range sortedKeys(m) {
		out = append(out, m[k])
	}
	return out
}
