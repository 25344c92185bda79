package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/advisor"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/explain"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/logging"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/performance"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/pipeline"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/recommend"
)

type recommendRequest struct {
	UserID         string    `json:"user_id" validate:"required,max=128"`
	QueryEmbedding []float64 `json:"query_embedding,omitempty" validate:"max=4096"`
	QueryText      string    `json:"query_text,omitempty" validate:"max=2000"`
	// ContextText is accepted as an alias of QueryText.
	ContextText      string   `json:"context_text,omitempty" validate:"max=2000"`
	Alpha            *float64 `json:"alpha,omitempty" validate:"omitempty,gte=0,lte=1"`
	TopK             int      `json:"top_k,omitempty" validate:"gte=0,lte=100"`
	RequireKnownUser bool     `json:"require_known_user,omitempty"`
	Explain          bool     `json:"explain,omitempty"`
}

type assessmentInput struct {
	Topic     string     `json:"topic" validate:"max=200"`
	Score     float64    `json:"score" validate:"gte=0"`
	MaxScore  float64    `json:"max_score" validate:"gte=0"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type analyzeRequest struct {
	PerformanceHistory []assessmentInput  `json:"performance_history" validate:"max=10000,dive"`
	TopicScores        map[string]float64 `json:"topic_scores"`
}

type addAssessmentsRequest struct {
	Assessments []assessmentInput `json:"assessments" validate:"required,min=1,max=10000,dive"`
}

type contentResponse struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Tags       string `json:"tags"`
	Difficulty string `json:"difficulty"`
}

func records(in []assessmentInput) []performance.Record {
	out := make([]performance.Record, 0, len(in))
	for _, a := range in {
		out = append(out, performance.Record{
			Topic:     a.Topic,
			Score:     a.Score,
			MaxScore:  a.MaxScore,
			Timestamp: a.Timestamp,
		})
	}
	return out
}

func (s *Server) explanationState() string {
	if l, ok := s.pipeline.Explainer().(*explain.LLM); ok {
		return l.State()
	}
	return "disabled"
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"ContentItems": s.pipeline.Recommender().Index().Len(),
		"Users":        s.pipeline.Recommender().Model().Users(),
		"Explanation":  s.explanationState(),
	}
	if db := s.pipeline.DB(); db != nil {
		stats, err := db.GetStats()
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to read stats")
		} else {
			data["Stats"] = stats
		}
	}
	s.render(w, "index.html", data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"content_items": s.pipeline.Recommender().Index().Len(),
		"users":         s.pipeline.Recommender().Model().Users(),
		"explanation":   s.explanationState(),
	})
}

func (s *Server) handleRecommendationHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "recommendation",
		"features": []string{
			"performance_analysis",
			"trend_detection",
			"study_plan_generation",
			"llm_insights",
		},
	})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	query := req.QueryText
	if query == "" {
		query = req.ContextText
	}

	resp, err := s.pipeline.Recommend(r.Context(), recommend.Request{
		UserID:           req.UserID,
		QueryEmbedding:   req.QueryEmbedding,
		QueryText:        query,
		Alpha:            req.Alpha,
		TopK:             req.TopK,
		RequireKnownUser: req.RequireKnownUser,
		Explain:          req.Explain,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "content id must be an integer")
		return
	}
	item, ok := s.pipeline.Recommender().Index().Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "content not found")
		return
	}
	respondJSON(w, http.StatusOK, contentResponse{
		ID:         item.ID,
		Title:      item.Title,
		Tags:       item.Tags,
		Difficulty: item.Difficulty,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	res, err := s.pipeline.Advisor().AnalyzePerformance(r.Context(), records(req.PerformanceHistory), req.TopicScores)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleAddAssessments(w http.ResponseWriter, r *http.Request) {
	var req addAssessmentsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	studentID := chi.URLParam(r, "id")
	n, err := s.pipeline.AddAssessments(studentID, records(req.Assessments))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"student_id": studentID,
		"added":      n,
	})
}

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")
	history, err := s.pipeline.History(studentID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if history == nil {
		history = []performance.Record{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"student_id":  studentID,
		"assessments": history,
	})
}

func (s *Server) handleStudentAnalysis(w http.ResponseWriter, r *http.Request) {
	save, _ := strconv.ParseBool(r.URL.Query().Get("save"))
	a, err := s.pipeline.Analyze(r.Context(), chi.URLParam(r, "id"), pipeline.AnalyzeOptions{Save: save})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")
	rep, err := s.pipeline.Report(r.Context(), studentID, strings.TrimSpace(r.URL.Query().Get("name")))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "json":
		respondJSON(w, http.StatusOK, rep)
	case "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(rep.Markdown()))
	default:
		s.render(w, "report.html", reportPage{StudentID: studentID, Report: rep})
	}
}

type reportPage struct {
	StudentID string
	Report    *advisor.Report
}

// Markdown is called from the report template.
func (p reportPage) Markdown() string { return p.Report.Markdown() }
