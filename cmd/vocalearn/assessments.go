package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/performance"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/pipeline"
)

var assessmentsCmd = &cobra.Command{
	Use:   "assessments",
	Short: "Manage stored assessment results",
}

var (
	addMaxScore float64
	addTakenAt  string
)

var assessmentsAddCmd = &cobra.Command{
	Use:   "add [student-id] [topic] [score]",
	Short: "Record one assessment result",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid score: %s", args[2])
		}
		rec := performance.Record{Topic: args[1], Score: score, MaxScore: addMaxScore}
		if addTakenAt != "" {
			t, err := time.Parse(time.RFC3339, addTakenAt)
			if err != nil {
				return fmt.Errorf("invalid --at timestamp (want RFC3339): %w", err)
			}
			rec.Timestamp = &t
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		pipe := pipeline.NewWithServices(db, nil, nil, nil)

		if _, err := pipe.AddAssessments(args[0], []performance.Record{rec}); err != nil {
			return err
		}
		fmt.Printf("Recorded %s: %.2f/%.2f for %s\n", args[1], score, addMaxScore, args[0])
		return nil
	},
}

var assessmentsImportCmd = &cobra.Command{
	Use:   "import [student-id] [file.json]",
	Short: "Import assessment results from a JSON array",
	Long: `Import assessment results from a JSON file holding an array of records:

  [{"topic": "Wiring", "score": 45, "max_score": 100, "timestamp": "2025-03-01T09:00:00Z"}]`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[1], err)
		}
		var records []performance.Record
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("parsing %s: %w", args[1], err)
		}
		if len(records) == 0 {
			fmt.Println("No records to import.")
			return nil
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		pipe := pipeline.NewWithServices(db, nil, nil, nil)

		n, err := pipe.AddAssessments(args[0], records)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d assessments for %s\n", n, args[0])
		return nil
	},
}

var assessmentsListCmd = &cobra.Command{
	Use:   "list [student-id]",
	Short: "List a student's assessment results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.GetAssessments(args[0])
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Printf("No assessments for %s. Add one with: vocalearn assessments add\n", args[0])
			return nil
		}

		fmt.Printf("Assessments for %s:\n\n", args[0])
		for _, a := range items {
			when := "-"
			if a.TakenAt != nil {
				when = a.TakenAt.Format("2006-01-02 15:04")
			}
			rec := performance.Record{Score: a.Score, MaxScore: a.MaxScore}
			fmt.Printf("  [%d] %-24s %7.2f/%-7.2f %6.2f%%  %s\n", a.ID, a.Topic, a.Score, a.MaxScore, rec.Percentage(), when)
		}
		return nil
	},
}

var assessmentsClearCmd = &cobra.Command{
	Use:   "clear [student-id]",
	Short: "Delete all stored assessment results for a student",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.DeleteAssessments(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d assessments for %s\n", n, args[0])
		return nil
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [user-id]",
	Short: "Show recently served recommendations for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		logs, err := db.GetRecentRecommendations(args[0], historyLimit)
		if err != nil {
			return err
		}
		if len(logs) == 0 {
			fmt.Printf("No recommendations served to %s yet.\n", args[0])
			return nil
		}

		for _, l := range logs {
			when := "-"
			if l.CreatedAt != nil {
				when = *l.CreatedAt
			}
			known := "known user"
			if !l.KnownUser {
				known = "unknown user"
			}
			fmt.Printf("%s  %s  alpha=%.2f top_k=%d (%s)\n", when, l.RequestID, l.Alpha, l.TopK, known)
			for _, it := range l.Items {
				fmt.Printf("  %2d. content %-6d combined=%.4f cf=%.4f content=%.4f\n",
					it.Rank, it.ContentID, it.CombinedScore, it.CFScore, it.ContentScore)
				if it.Reason != "" {
					fmt.Printf("      %s\n", it.Reason)
				}
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 5, "Number of requests to show")

	assessmentsAddCmd.Flags().Float64Var(&addMaxScore, "max", 100, "Maximum attainable score")
	assessmentsAddCmd.Flags().StringVar(&addTakenAt, "at", "", "When the assessment was taken (RFC3339)")

	assessmentsCmd.AddCommand(assessmentsAddCmd)
	assessmentsCmd.AddCommand(assessmentsImportCmd)
	assessmentsCmd.AddCommand(assessmentsListCmd)
	assessmentsCmd.AddCommand(assessmentsClearCmd)
}
