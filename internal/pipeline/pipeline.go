// Package pipeline wires the recommender and the performance advisor to
// storage: it loads model artifacts, reads assessment history, saves
// snapshots and logs served recommendations.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/advisor"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/affinity"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/config"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/content"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/database"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/explain"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/llm"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/logging"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/performance"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/planner"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/recommend"
)

// ErrMissingStudent is returned when a student id is required but empty.
var ErrMissingStudent = errors.New("student id is required")

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of an Advise run.
type Result struct {
	StudentID      string
	Recommendation *recommend.Response
	Analysis       *StudentAnalysis
	Steps          []StepResult
}

// Err returns the first step error, if any.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return fmt.Errorf("%s: %w", s.Name, s.Err)
		}
	}
	return nil
}

// StudentAnalysis is an advisor result for a stored student, with progress
// measured against the last saved snapshot.
type StudentAnalysis struct {
	StudentID string `json:"student_id"`
	*advisor.Result
	Progress   *performance.Progress `json:"progress_tracking"`
	SnapshotID int64                 `json:"snapshot_id,omitempty"`
}

// AnalyzeOptions controls a stored-student analysis.
type AnalyzeOptions struct {
	// TopicScores override the latest history score per topic.
	TopicScores map[string]float64
	// Save stores the current topic scores as a new snapshot.
	Save bool
}

// AdviseRequest asks for recommendations and an analysis for one student.
type AdviseRequest struct {
	StudentID   string
	QueryText   string
	TopicScores map[string]float64
	Explain     bool
	Save        bool
}

// Pipeline serves recommendations and analyses backed by a database.
type Pipeline struct {
	db          *database.DB
	recommender *recommend.Recommender
	advisor     *advisor.Advisor
	explainer   explain.Provider
	now         func() time.Time
}

// New loads the model artifacts named by cfg and creates a pipeline.
// A missing content index yields an empty catalog rather than an error.
func New(cfg *config.Config, db *database.DB) (*Pipeline, error) {
	idx, err := content.Load(cfg.ContentIndexPath())
	if errors.Is(err, os.ErrNotExist) {
		logging.Warn().Str("path", cfg.ContentIndexPath()).Msg("Content index not found; catalog is empty")
		idx, err = content.NewIndex(nil)
	}
	if err != nil {
		return nil, err
	}

	model, err := affinity.Load(cfg.AffinityModelPath())
	if err != nil {
		return nil, err
	}

	explainer := explain.FromConfig(cfg.Explanation)

	opts := recommend.Options{
		Alpha:            cfg.Recommend.Alpha,
		TopK:             cfg.Recommend.TopK,
		CFCandidates:     cfg.Models.CFCandidates,
		DefaultQuery:     cfg.Recommend.DefaultQuery,
		RequireKnownUser: cfg.Recommend.RequireKnownUser,
		Explainer:        explainer,
	}
	if cfg.Models.EmbeddingModel != "" && idx.Dim() > 0 {
		emb, err := recommend.NewCachedEmbedder(
			llm.NewOllamaEmbedder(cfg.Models.EmbeddingModel, cfg.Models.OllamaURL),
			cfg.Recommend.QueryCacheSize,
		)
		if err != nil {
			return nil, err
		}
		opts.Embedder = emb
	}

	plannerCfg := planner.FromConfig(cfg.Planner)
	plannerCfg.Resources = advisor.ContentResources{Index: idx}

	logging.Info().
		Int("content_items", idx.Len()).
		Int("embedding_dim", idx.Dim()).
		Int("users", model.Users()).
		Int("factor_items", model.Items()).
		Msg("Model artifacts loaded")

	return NewWithServices(
		db,
		recommend.New(idx, model, opts),
		advisor.New(planner.New(plannerCfg), explainer),
		explainer,
	), nil
}

// NewWithServices creates a pipeline from already constructed services.
// db may be nil, in which case nothing is stored or read from storage.
func NewWithServices(db *database.DB, rec *recommend.Recommender, adv *advisor.Advisor, explainer explain.Provider) *Pipeline {
	if explainer == nil {
		explainer = explain.Disabled{}
	}
	return &Pipeline{
		db:          db,
		recommender: rec,
		advisor:     adv,
		explainer:   explainer,
		now:         time.Now,
	}
}

// Recommender returns the underlying recommender.
func (p *Pipeline) Recommender() *recommend.Recommender { return p.recommender }

// Advisor returns the underlying advisor.
func (p *Pipeline) Advisor() *advisor.Advisor { return p.advisor }

// Explainer returns the explanation provider.
func (p *Pipeline) Explainer() explain.Provider { return p.explainer }

// DB returns the backing database, which may be nil.
func (p *Pipeline) DB() *database.DB { return p.db }

// Recommend serves a recommendation and logs it. A logging failure is
// reported but does not fail the request.
func (p *Pipeline) Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error) {
	resp, err := p.recommender.Recommend(ctx, req)
	if err != nil {
		return nil, err
	}
	if p.db != nil {
		if _, err := p.db.InsertRecommendationLog(recommendationLog(resp)); err != nil {
			logging.Warn().Err(err).Str("request_id", resp.RequestID).Msg("Failed to log recommendation")
		}
	}
	return resp, nil
}

// AddAssessments stores records for a student. Blank topics are stored as
// advisor.UnknownTopic.
func (p *Pipeline) AddAssessments(studentID string, records []performance.Record) (int, error) {
	if strings.TrimSpace(studentID) == "" {
		return 0, ErrMissingStudent
	}
	if p.db == nil {
		return 0, errors.New("no database configured")
	}
	as := make([]database.Assessment, 0, len(records))
	for _, r := range records {
		topic := strings.TrimSpace(r.Topic)
		if topic == "" {
			topic = advisor.UnknownTopic
		}
		as = append(as, database.Assessment{
			StudentID: studentID,
			Topic:     topic,
			Score:     r.Score,
			MaxScore:  r.MaxScore,
			TakenAt:   r.Timestamp,
		})
	}
	return p.db.InsertAssessments(as)
}

// History returns a student's stored assessments as records.
func (p *Pipeline) History(studentID string) ([]performance.Record, error) {
	if p.db == nil {
		return nil, nil
	}
	as, err := p.db.GetAssessments(studentID)
	if err != nil {
		return nil, fmt.Errorf("loading assessments: %w", err)
	}
	out := make([]performance.Record, 0, len(as))
	for _, a := range as {
		out = append(out, performance.Record{
			Topic:     a.Topic,
			Score:     a.Score,
			MaxScore:  a.MaxScore,
			Timestamp: a.TakenAt,
		})
	}
	return out, nil
}

// Analyze runs the advisor over a student's stored history. Progress is
// measured against the latest saved snapshot, taken before any new one is
// written.
func (p *Pipeline) Analyze(ctx context.Context, studentID string, opts AnalyzeOptions) (*StudentAnalysis, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, ErrMissingStudent
	}
	history, err := p.History(studentID)
	if err != nil {
		return nil, err
	}

	res, err := p.advisor.AnalyzePerformance(ctx, history, opts.TopicScores)
	if err != nil {
		return nil, err
	}
	out := &StudentAnalysis{StudentID: studentID, Result: res}

	var previous map[string]float64
	if p.db != nil {
		snap, err := p.db.GetLatestSnapshot(studentID)
		if err != nil {
			return nil, fmt.Errorf("loading snapshot: %w", err)
		}
		if snap != nil {
			previous = snap.TopicScores
		}
	}
	out.Progress = performance.TrackImprovement(res.CurrentScores, previous)

	if opts.Save && p.db != nil && len(res.CurrentScores) > 0 {
		id, err := p.db.InsertSnapshot(studentID, res.CurrentScores, string(res.OverallTrend))
		if err != nil {
			return nil, fmt.Errorf("saving snapshot: %w", err)
		}
		out.SnapshotID = id
	}
	return out, nil
}

// Report builds a report for a stored student without saving a snapshot.
func (p *Pipeline) Report(ctx context.Context, studentID, studentName string) (*advisor.Report, error) {
	a, err := p.Analyze(ctx, studentID, AnalyzeOptions{})
	if err != nil {
		return nil, err
	}
	return advisor.BuildReport(studentID, studentName, a.Result, a.Progress, p.now()), nil
}

// Advise runs the recommendation and the analysis for one student
// concurrently. A failing step does not stop the other.
func (p *Pipeline) Advise(ctx context.Context, req AdviseRequest) *Result {
	r := &Result{StudentID: req.StudentID}
	if strings.TrimSpace(req.StudentID) == "" {
		r.Steps = append(r.Steps, StepResult{Name: "Advise", Err: ErrMissingStudent})
		return r
	}

	var recStep, anaStep StepResult
	var g errgroup.Group

	g.Go(func() error {
		logging.Debug().Str("student_id", req.StudentID).Msg("Recommending content")
		resp, err := p.Recommend(ctx, recommend.Request{
			UserID:    req.StudentID,
			QueryText: req.QueryText,
			Explain:   req.Explain,
		})
		recStep = StepResult{Name: "Recommend", Err: err}
		if err == nil {
			r.Recommendation = resp
			recStep.Summary = fmt.Sprintf("%d items (%d collaborative, %d content candidates)",
				len(resp.Items), resp.CFCandidates, resp.ContentCandidates)
		}
		return err
	})

	g.Go(func() error {
		logging.Debug().Str("student_id", req.StudentID).Msg("Analyzing performance")
		a, err := p.Analyze(ctx, req.StudentID, AnalyzeOptions{TopicScores: req.TopicScores, Save: req.Save})
		anaStep = StepResult{Name: "Analyze", Err: err}
		if err == nil {
			r.Analysis = a
			anaStep.Summary = fmt.Sprintf("%d assessments, trend %s, %d recommendations, progress %s",
				a.TotalAssessments, a.OverallTrend, len(a.Recommendations), a.Progress.Status)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logging.Warn().Err(err).Str("student_id", req.StudentID).Msg("Advise step failed")
	}
	r.Steps = append(r.Steps, recStep, anaStep)
	return r
}

func recommendationLog(resp *recommend.Response) database.RecommendationLog {
	l := database.RecommendationLog{
		RequestID: resp.RequestID,
		UserID:    resp.UserID,
		Alpha:     resp.Alpha,
		TopK:      resp.TopK,
		KnownUser: resp.KnownUser,
	}
	for i, it := range resp.Items {
		l.Items = append(l.Items, database.LoggedItem{
			Rank:          i + 1,
			ContentID:     it.ContentID,
			CFScore:       it.CFComponent,
			ContentScore:  it.ContentComponent,
			CombinedScore: it.CombinedScore,
			Reason:        it.Reason,
		})
	}
	return l
}
