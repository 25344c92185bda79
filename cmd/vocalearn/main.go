package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/config"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/database"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/logging"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/pipeline"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/recommend"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "vocalearn",
	Short:   "Learning recommendations and performance advice for vocational students",
	Long:    "Vocalearn ranks learning content for students and turns assessment history into trends, study plans and progress reports.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			initLogging(nil)
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		initLogging(cfg)
		logging.Debug().Str("path", path).Msg("Config loaded")
		return nil
	},
}

func initLogging(c *config.Config) {
	lc := logging.Config{}
	if c != nil {
		lc.Level = c.Logging.Level
		lc.Format = c.Logging.Format
	}
	if verbose {
		lc.Level = "debug"
	}
	logging.Init(lc)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(assessmentsCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(adviseCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("vocalearn", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/vocalearn/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point at your model artifacts and choose an explanation provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and model status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		pipe, err := pipeline.New(cfg, db)
		if err != nil {
			return err
		}
		rec := pipe.Recommender()

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Models:")
		fmt.Printf("  Content items: %d (embedding dim %d)\n", rec.Index().Len(), rec.Index().Dim())
		fmt.Printf("  Users with factors: %d\n", rec.Model().Users())
		fmt.Printf("  Items with factors: %d\n", rec.Model().Items())
		fmt.Println("\nStudents:")
		fmt.Printf("  Total: %d\n", stats.Students)
		fmt.Printf("  Assessments: %d\n", stats.Assessments)
		fmt.Printf("  Saved analyses: %d\n", stats.Snapshots)
		if stats.LastAnalysis != "" {
			fmt.Printf("  Last analysis: %s\n", stats.LastAnalysis)
		}
		fmt.Println("\nRecommendations:")
		fmt.Printf("  Served: %d\n", stats.Recommendations)
		return nil
	},
}

// --- recommend command ---

var (
	recQuery       string
	recTopK        int
	recAlpha       float64
	recExplain     bool
	recRequireUser bool
	recJSON        bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [user-id]",
	Short: "Recommend learning content for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, closeDB, err := openPipeline()
		if err != nil {
			return err
		}
		defer closeDB()

		req := recommend.Request{
			UserID:           args[0],
			QueryText:        recQuery,
			TopK:             recTopK,
			RequireKnownUser: recRequireUser,
			Explain:          recExplain,
		}
		if cmd.Flags().Changed("alpha") {
			req.Alpha = &recAlpha
		}

		resp, err := pipe.Recommend(cmd.Context(), req)
		if err != nil {
			return err
		}
		if recJSON {
			return printJSON(resp)
		}

		if len(resp.Items) == 0 {
			fmt.Println("No recommendations available.")
			return nil
		}
		fmt.Printf("Recommendations for %s (alpha %.2f, known user: %v):\n\n", resp.UserID, resp.Alpha, resp.KnownUser)
		for i, it := range resp.Items {
			fmt.Printf("  %2d. [%d] %s  score %.3f (cf %.3f, content %.3f)\n",
				i+1, it.ContentID, it.Title, it.CombinedScore, it.CFComponent, it.ContentComponent)
			if it.Reason != "" {
				fmt.Printf("      %s\n", it.Reason)
			}
		}
		return nil
	},
}

func init() {
	recommendCmd.Flags().StringVarP(&recQuery, "query", "q", "", "Free-text context to match content against")
	recommendCmd.Flags().IntVarP(&recTopK, "top-k", "k", 0, "Number of items (default from config)")
	recommendCmd.Flags().Float64Var(&recAlpha, "alpha", 0, "Collaborative weight in [0,1] (default from config)")
	recommendCmd.Flags().BoolVar(&recExplain, "explain", false, "Generate a short reason per item")
	recommendCmd.Flags().BoolVar(&recRequireUser, "require-known-user", false, "Fail for users without affinity factors")
	recommendCmd.Flags().BoolVar(&recJSON, "json", false, "Print JSON")
}

// --- analyze command ---

var (
	anaScores []string
	anaSave   bool
	anaJSON   bool
	anaReport string
	anaName   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [student-id]",
	Short: "Analyze a student's stored assessments and plan study",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scores, err := parseScores(anaScores)
		if err != nil {
			return err
		}
		pipe, closeDB, err := openPipeline()
		if err != nil {
			return err
		}
		defer closeDB()

		a, err := pipe.Analyze(cmd.Context(), args[0], pipeline.AnalyzeOptions{TopicScores: scores, Save: anaSave})
		if err != nil {
			return err
		}
		if anaReport != "" {
			rep, err := pipe.Report(cmd.Context(), args[0], anaName)
			if err != nil {
				return err
			}
			if err := os.WriteFile(anaReport, []byte(rep.Markdown()), 0o644); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			fmt.Printf("Report written to %s\n", anaReport)
		}
		if anaJSON {
			return printJSON(a)
		}
		printAnalysis(a)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringArrayVarP(&anaScores, "score", "s", nil, "Current topic score as Topic=NN (repeatable)")
	analyzeCmd.Flags().BoolVar(&anaSave, "save", false, "Save the current scores as a snapshot for progress tracking")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "Print JSON")
	analyzeCmd.Flags().StringVar(&anaReport, "report", "", "Write a Markdown report to this file")
	analyzeCmd.Flags().StringVar(&anaName, "name", "", "Student name for the report")
}

// --- advise command ---

var (
	advQuery   string
	advScores  []string
	advNoSave  bool
	advExplain bool
)

var adviseCmd = &cobra.Command{
	Use:   "advise [student-id]",
	Short: "Recommend content and analyze performance in one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scores, err := parseScores(advScores)
		if err != nil {
			return err
		}
		pipe, closeDB, err := openPipeline()
		if err != nil {
			return err
		}
		defer closeDB()

		result := pipe.Advise(cmd.Context(), pipeline.AdviseRequest{
			StudentID:   args[0],
			QueryText:   advQuery,
			TopicScores: scores,
			Explain:     advExplain,
			Save:        !advNoSave,
		})

		for i, step := range result.Steps {
			fmt.Printf("Step %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}
		if result.Recommendation != nil && len(result.Recommendation.Items) > 0 {
			fmt.Println("\nContent:")
			for i, it := range result.Recommendation.Items {
				fmt.Printf("  %2d. [%d] %s (%.3f)\n", i+1, it.ContentID, it.Title, it.CombinedScore)
			}
		}
		if result.Analysis != nil {
			fmt.Println()
			printAnalysis(result.Analysis)
		}
		return result.Err()
	},
}

func init() {
	adviseCmd.Flags().StringVarP(&advQuery, "query", "q", "", "Free-text context for content recommendations")
	adviseCmd.Flags().StringArrayVarP(&advScores, "score", "s", nil, "Current topic score as Topic=NN (repeatable)")
	adviseCmd.Flags().BoolVar(&advNoSave, "no-save", false, "Do not save a snapshot")
	adviseCmd.Flags().BoolVar(&advExplain, "explain", false, "Generate reasons for recommended content")
}

// --- serve command ---

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, closeDB, err := openPipeline()
		if err != nil {
			return err
		}
		defer closeDB()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := fmt.Sprintf("%s:%d", serveHost, port)
		fmt.Printf("Starting server at http://%s\n", addr)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, pipe, addr, server.Options{RateLimit: cfg.Server.RateLimit})
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Address to bind")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on (default from config)")
}

func printAnalysis(a *pipeline.StudentAnalysis) {
	fmt.Printf("Student %s: %d assessments, trend %s\n", a.StudentID, a.TotalAssessments, a.OverallTrend)
	fmt.Printf("  Recent %.2f, consistency %.2f, improvement %+.2f\n", a.RecentPerformance, a.ConsistencyScore, a.ImprovementRate)

	topics := make([]string, 0, len(a.CurrentScores))
	for t := range a.CurrentScores {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	if len(topics) > 0 {
		fmt.Println("\nTopics:")
		for _, t := range topics {
			trend := "-"
			if tt, ok := a.TopicTrends[t]; ok {
				trend = string(tt.Trend)
			}
			fmt.Printf("  %-24s %6.2f  %s\n", t, a.CurrentScores[t], trend)
		}
	}

	if len(a.Recommendations) > 0 {
		fmt.Println("\nFocus:")
		for _, r := range a.Recommendations {
			fmt.Printf("  %s [%s] %.2f -> %.0f, ~%dh\n", r.Topic, r.Priority, r.CurrentScore, r.TargetScore, r.EstimatedStudyHours)
		}
	}
	fmt.Printf("\n%s\n", a.StudyPlan.Message)
	fmt.Printf("%s\n", a.MotivationalMessage)
	if a.Explained {
		fmt.Printf("\n%s\n", a.Explanation)
	}
	if a.Progress != nil {
		fmt.Printf("\nProgress: %s", a.Progress.Status)
		if a.Progress.Message != "" {
			fmt.Printf(" (%s)", a.Progress.Message)
		}
		fmt.Println()
	}
}

// parseScores reads Topic=NN pairs.
func parseScores(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		topic, value, ok := strings.Cut(p, "=")
		topic = strings.TrimSpace(topic)
		if !ok || topic == "" {
			return nil, fmt.Errorf("invalid score %q, expected Topic=NN", p)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid score %q: %w", p, err)
		}
		out[topic] = v
	}
	return out, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "vocalearn.db")
	return database.Open(dbPath)
}

func openPipeline() (*pipeline.Pipeline, func(), error) {
	db, err := openDB()
	if err != nil {
		return nil, nil, err
	}
	pipe, err := pipeline.New(cfg, db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return pipe, func() { db.Close() }, nil
}
