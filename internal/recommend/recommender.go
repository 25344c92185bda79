package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/affinity"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/content"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/explain"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/llm"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/logging"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/metrics"
)

// FallbackReason annotates candidates when no generated reason is available.
const FallbackReason = "Recommended based on baseline hybrid score"

// Request asks for recommendations. A nil Alpha or zero TopK falls back to
// the recommender defaults.
type Request struct {
	UserID           string    `json:"user_id"`
	QueryEmbedding   []float64 `json:"query_embedding,omitempty"`
	QueryText        string    `json:"query_text,omitempty"`
	Alpha            *float64  `json:"alpha,omitempty"`
	TopK             int       `json:"top_k,omitempty"`
	RequireKnownUser bool      `json:"require_known_user,omitempty"`
	Explain          bool      `json:"explain,omitempty"`
}

// Response is the ranked result of one request.
type Response struct {
	RequestID         string            `json:"request_id"`
	UserID            string            `json:"user_id"`
	Alpha             float64           `json:"alpha"`
	TopK              int               `json:"top_k"`
	KnownUser         bool              `json:"known_user"`
	CFCandidates      int               `json:"cf_candidates"`
	ContentCandidates int               `json:"content_candidates"`
	Explained         bool              `json:"explained"`
	Items             []ScoredCandidate `json:"recommendations"`
}

// Options configures a Recommender.
type Options struct {
	Alpha            float64
	TopK             int
	CFCandidates     int
	DefaultQuery     string
	RequireKnownUser bool
	// Embedder is optional; without it only explicit query embeddings are scored.
	Embedder QueryEmbedder
	// Explainer is optional; without it reasons use FallbackReason.
	Explainer explain.Provider
}

// Recommender serves hybrid recommendations from immutable model artifacts.
// It is safe for concurrent use.
type Recommender struct {
	index *content.Index
	model *affinity.Model
	opts  Options
}

// New creates a Recommender. A nil model is treated as empty.
func New(idx *content.Index, model *affinity.Model, opts Options) *Recommender {
	if model == nil {
		model = affinity.Empty()
	}
	if idx == nil {
		idx, _ = content.NewIndex(nil)
	}
	if opts.TopK < 1 {
		opts.TopK = 10
	}
	if opts.CFCandidates < 1 {
		opts.CFCandidates = affinity.DefaultCandidates
	}
	if opts.Explainer == nil {
		opts.Explainer = explain.Disabled{}
	}
	return &Recommender{index: idx, model: model, opts: opts}
}

// Index returns the content index backing the recommender.
func (r *Recommender) Index() *content.Index { return r.index }

// Model returns the affinity model backing the recommender.
func (r *Recommender) Model() *affinity.Model { return r.model }

// Recommend ranks content for req. A request with no candidates from either
// source yields an empty, successful response. A query embedding whose length
// differs from the index dimension, or any query embedding against an index
// without embeddings, fails with content.ErrDimensionMismatch.
func (r *Recommender) Recommend(ctx context.Context, req Request) (resp *Response, err error) {
	start := time.Now()
	defer func() {
		var cf, ct, n int
		if resp != nil {
			cf, ct, n = resp.CFCandidates, resp.ContentCandidates, len(resp.Items)
		}
		metrics.RecordRecommendation(time.Since(start), cf, ct, n, err)
	}()

	alpha := r.opts.Alpha
	if req.Alpha != nil {
		alpha = *req.Alpha
	}
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidAlpha, alpha)
	}
	topK := req.TopK
	if topK == 0 {
		topK = r.opts.TopK
	}
	if topK < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, topK)
	}

	resp = &Response{
		RequestID: uuid.NewString(),
		UserID:    req.UserID,
		Alpha:     alpha,
		TopK:      topK,
		Items:     []ScoredCandidate{},
	}

	cf, err := r.cfScores(req)
	if err != nil {
		return nil, err
	}
	resp.KnownUser = cf != nil
	resp.CFCandidates = len(cf)

	sim, err := r.contentScores(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.ContentCandidates = len(sim)

	items, err := Combine(cf, sim, alpha, topK, r.index)
	if errors.Is(err, ErrNoCandidates) {
		logging.Debug().Str("user_id", req.UserID).Msg("No recommendation candidates")
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	resp.Items = items

	if req.Explain {
		resp.Explained = r.annotate(ctx, req, resp.Items)
	}
	return resp, nil
}

func (r *Recommender) cfScores(req Request) (map[int]float64, error) {
	if r.model.HasUser(req.UserID) {
		return r.model.Scores(req.UserID, r.opts.CFCandidates)
	}
	if req.RequireKnownUser || r.opts.RequireKnownUser {
		return nil, fmt.Errorf("user %q: %w", req.UserID, affinity.ErrUserNotFound)
	}
	return nil, nil
}

func (r *Recommender) contentScores(ctx context.Context, req Request) (map[int]float64, error) {
	if r.index.Dim() == 0 {
		if len(req.QueryEmbedding) > 0 {
			return nil, fmt.Errorf("%w: query has %d, index has no embeddings", content.ErrDimensionMismatch, len(req.QueryEmbedding))
		}
		return nil, nil
	}

	var q []float64
	switch {
	case len(req.QueryEmbedding) > 0:
		q = content.Normalize(req.QueryEmbedding)
	case r.opts.Embedder != nil:
		text := strings.TrimSpace(req.QueryText)
		if text == "" {
			text = r.opts.DefaultQuery
		}
		if text == "" {
			return nil, nil
		}
		v, err := r.opts.Embedder.EmbedQuery(ctx, text)
		if err != nil {
			logging.Warn().Err(err).Msg("Query embedding failed, using collaborative scores only")
			return nil, nil
		}
		q = v
	default:
		return nil, nil
	}

	sim, err := r.index.Similarities(q)
	if err != nil {
		return nil, err
	}
	return sim, nil
}

type generatedReason struct {
	ContentID int    `json:"content_id"`
	Reason    string `json:"reason"`
}

// annotate fills in a short reason per item. Ordering is never changed.
func (r *Recommender) annotate(ctx context.Context, req Request, items []ScoredCandidate) bool {
	for i := range items {
		items[i].Reason = FallbackReason
	}
	if len(items) == 0 {
		return false
	}

	text, ok := r.opts.Explainer.TryGenerate(ctx, reasonPrompt(req, items))
	var reasons []generatedReason
	if ok {
		ok = llm.ParseJSONArray(text, &reasons)
	}
	if !ok {
		metrics.RecordExplanation("recommendation", false)
		return false
	}

	byID := make(map[int]string, len(reasons))
	for _, gr := range reasons {
		if s := strings.TrimSpace(gr.Reason); s != "" {
			byID[gr.ContentID] = s
		}
	}
	applied := false
	for i := range items {
		if s, found := byID[items[i].ContentID]; found {
			items[i].Reason = s
			applied = true
		}
	}
	metrics.RecordExplanation("recommendation", applied)
	return applied
}

func reasonPrompt(req Request, items []ScoredCandidate) string {
	var b strings.Builder
	b.WriteString("You are a vocational training advisor. For each learning item below, write one short sentence ")
	b.WriteString("explaining why it suits the student. Do not reorder or drop items.\n")
	if req.QueryText != "" {
		fmt.Fprintf(&b, "Student request: %s\n", req.QueryText)
	}
	b.WriteString("\nItems:\n")
	for _, it := range items {
		fmt.Fprintf(&b, "- id=%d title=%q tags=%q score=%.3f\n", it.ContentID, it.Title, it.Tags, it.CombinedScore)
	}
	b.WriteString("\nRespond with a JSON array only: [{\"content_id\": <id>, \"reason\": \"...\"}]")
	return b.String()
}
