// Package recommend blends collaborative-filtering affinity with semantic
// content similarity into a single ranked list of learning content.
package recommend

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/content"
)

var (
	// ErrNoCandidates means neither source produced any candidate.
	ErrNoCandidates = errors.New("no recommendation candidates")
	// ErrInvalidAlpha means the blend weight is outside [0,1].
	ErrInvalidAlpha = errors.New("alpha must be within [0,1]")
	// ErrInvalidTopK means fewer than one result was requested.
	ErrInvalidTopK = errors.New("top_k must be at least 1")
)

// ScoredCandidate is one ranked recommendation. CFComponent and
// ContentComponent hold the normalized values blended into CombinedScore.
// CFRaw and ContentRaw are the source scores, nil when that source had no
// score for the item.
type ScoredCandidate struct {
	ContentID        int      `json:"content_id"`
	Title            string   `json:"title"`
	Tags             string   `json:"tags"`
	Difficulty       string   `json:"difficulty,omitempty"`
	CFRaw            *float64 `json:"cf_raw,omitempty"`
	ContentRaw       *float64 `json:"content_raw,omitempty"`
	CFComponent      float64  `json:"cf_component"`
	ContentComponent float64  `json:"content_component"`
	CombinedScore    float64  `json:"combined_score"`
	Reason           string   `json:"reason,omitempty"`
}

// Combine merges raw CF scores and raw cosine similarities into the topK best
// candidates.
//
// CF scores are min-max normalized over the values present in cf. When they
// are all equal the normalized CF is 0 for all. Similarities map from [-1,1]
// to [0,1]. A candidate missing from a source gets 0 for that component. Ties on the combined
// score are broken by ascending content id. idx may be nil.
func Combine(cf, sim map[int]float64, alpha float64, topK int, idx *content.Index) ([]ScoredCandidate, error) {
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidAlpha, alpha)
	}
	if topK < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, topK)
	}

	ids := candidateIDs(cf, sim)
	if len(ids) == 0 {
		return nil, ErrNoCandidates
	}

	var lo, hi float64
	if len(cf) > 0 {
		raw := make([]float64, 0, len(cf))
		for _, v := range cf {
			raw = append(raw, v)
		}
		lo, hi = floats.Min(raw), floats.Max(raw)
	}

	out := make([]ScoredCandidate, len(ids))
	for i, id := range ids {
		c := ScoredCandidate{ContentID: id}
		if v, ok := cf[id]; ok {
			c.CFRaw = &v
			if hi > lo {
				c.CFComponent = (v - lo) / (hi - lo)
			}
		}
		if s, ok := sim[id]; ok {
			c.ContentRaw = &s
			c.ContentComponent = clamp01((s + 1) / 2)
		}
		c.CombinedScore = clamp01(alpha*c.CFComponent + (1-alpha)*c.ContentComponent)
		out[i] = c
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CombinedScore != out[j].CombinedScore {
			return out[i].CombinedScore > out[j].CombinedScore
		}
		return out[i].ContentID < out[j].ContentID
	})
	if len(out) > topK {
		out = out[:topK]
	}

	if idx != nil {
		for i := range out {
			if it, ok := idx.Get(out[i].ContentID); ok {
				out[i].Title = it.Title
				out[i].Tags = it.Tags
				out[i].Difficulty = it.Difficulty
			}
		}
	}
	return out, nil
}

func candidateIDs(cf, sim map[int]float64) []int {
	seen := make(map[int]struct{}, len(cf)+len(sim))
	for id := range cf {
		seen[id] = struct{}{}
	}
	for id := range sim {
		seen[id] = struct{}{}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Cosine similarity and the blend can drift just past the bounds in floating point.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
