package advisor

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/performance"
)

// ReportType labels generated reports.
const ReportType = "Performance Analysis & Recommendations"

// ReportMetadata identifies a report.
type ReportMetadata struct {
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	ReportType  string    `json:"report_type"`
}

// PerformanceSummary groups topics by what the student should do next.
type PerformanceSummary struct {
	Strengths           []string `json:"strengths"`
	AreasForImprovement []string `json:"areas_for_improvement"`
	UrgentAttention     []string `json:"urgent_attention_needed"`
	ReadyForAdvancement []string `json:"ready_for_advancement"`
}

// Insights holds the narrative parts of a report.
type Insights struct {
	Explanation string `json:"explanation"`
	Motivation  string `json:"motivation"`
}

// Report is an exportable summary of a Result.
type Report struct {
	Metadata           ReportMetadata                    `json:"report_metadata"`
	Summary            PerformanceSummary                `json:"performance_summary"`
	TopicTrends        map[string]performance.TopicTrend `json:"topic_trends"`
	Insights           Insights                          `json:"insights"`
	Result             *Result                           `json:"analysis"`
	RecommendedActions []string                          `json:"recommended_actions"`
	Progress           *performance.Progress             `json:"progress_tracking,omitempty"`
}

// BuildReport assembles a report. progress may be nil.
func BuildReport(studentID, studentName string, r *Result, progress *performance.Progress, now time.Time) *Report {
	rep := &Report{
		Metadata: ReportMetadata{
			StudentID:   studentID,
			StudentName: studentName,
			GeneratedAt: now.UTC(),
			ReportType:  ReportType,
		},
		TopicTrends: r.TopicTrends,
		Insights: Insights{
			Explanation: r.Explanation,
			Motivation:  r.MotivationalMessage,
		},
		Result:   r,
		Progress: progress,
	}

	for _, s := range r.Strengths.Areas {
		rep.Summary.Strengths = append(rep.Summary.Strengths, s.Topic)
	}
	if tp := r.TieredPlan; tp != nil {
		rep.Summary.AreasForImprovement = tp.SkillBuilding.Topics
		rep.Summary.UrgentAttention = tp.UrgentReview.Topics
		rep.Summary.ReadyForAdvancement = tp.Advancement.Topics
		rep.RecommendedActions = tp.TopicOrder
	}
	return rep
}

// Markdown renders the report for people.
func (rep *Report) Markdown() string {
	var b strings.Builder
	r := rep.Result

	fmt.Fprintf(&b, "# %s\n\n", rep.Metadata.ReportType)
	name := rep.Metadata.StudentID
	if rep.Metadata.StudentName != "" {
		name = fmt.Sprintf("%s (%s)", rep.Metadata.StudentName, rep.Metadata.StudentID)
	}
	fmt.Fprintf(&b, "**Student:** %s  \n**Generated:** %s\n\n", name, rep.Metadata.GeneratedAt.Format("2006-01-02 15:04 MST"))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Overall trend: **%s**\n", r.OverallTrend)
	fmt.Fprintf(&b, "- Assessments: %d\n", r.TotalAssessments)
	fmt.Fprintf(&b, "- Recent performance: %.2f\n", r.RecentPerformance)
	fmt.Fprintf(&b, "- Consistency: %.2f\n", r.ConsistencyScore)
	fmt.Fprintf(&b, "- Improvement rate: %+.2f\n", r.ImprovementRate)
	fmt.Fprintf(&b, "- Strengths: %s\n", joinOr(rep.Summary.Strengths, "none yet"))
	fmt.Fprintf(&b, "- Urgent attention: %s\n", joinOr(rep.Summary.UrgentAttention, "none"))
	fmt.Fprintf(&b, "- Areas for improvement: %s\n", joinOr(rep.Summary.AreasForImprovement, "none"))
	fmt.Fprintf(&b, "- Ready for advancement: %s\n\n", joinOr(rep.Summary.ReadyForAdvancement, "none"))

	if len(r.TopicTrends) > 0 {
		b.WriteString("## Topic Trends\n\n")
		b.WriteString("| Topic | Trend | Average | Latest | Attempts |\n")
		b.WriteString("|---|---|---|---|---|\n")
		topics := make([]string, 0, len(r.TopicTrends))
		for t := range r.TopicTrends {
			topics = append(topics, t)
		}
		sort.Strings(topics)
		for _, t := range topics {
			tt := r.TopicTrends[t]
			fmt.Fprintf(&b, "| %s | %s | %.2f | %.2f | %d |\n", tt.Topic, tt.Trend, tt.AverageScore, tt.LatestScore, tt.Attempts)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Insights\n\n")
	fmt.Fprintf(&b, "%s\n\n%s\n\n", rep.Insights.Explanation, rep.Insights.Motivation)

	if len(r.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&b, "### %s (%s priority)\n\n", rec.Topic, rec.Priority)
			fmt.Fprintf(&b, "Current %.2f, target %.0f, about %d study hours.\n\n", rec.CurrentScore, rec.TargetScore, rec.EstimatedStudyHours)
			for _, item := range rec.ActionItems {
				fmt.Fprintf(&b, "- %s\n", item)
			}
			if len(rec.Resources) > 0 {
				b.WriteString("\nResources:\n\n")
				for _, res := range rec.Resources {
					if res.URL != "" {
						fmt.Fprintf(&b, "- [%s](%s) (%s)\n", res.Title, res.URL, res.Type)
					} else {
						fmt.Fprintf(&b, "- %s (%s)\n", res.Title, res.Type)
					}
				}
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Study Plan\n\n")
	fmt.Fprintf(&b, "%s\n\n", r.StudyPlan.Message)
	if len(r.StudyPlan.WeeklySchedule) > 0 {
		b.WriteString("| Topic | Sessions/week | Minutes | Focus |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, s := range r.StudyPlan.WeeklySchedule {
			fmt.Fprintf(&b, "| %s | %d | %d | %s |\n", s.Topic, s.SessionsPerWeek, s.MinutesPerSession, strings.Join(s.FocusAreas, "; "))
		}
		fmt.Fprintf(&b, "\nTotal: %.2f hours per week.\n\n", r.StudyPlan.TotalStudyHoursPerWeek)
	}

	if len(r.Strengths.Areas) > 0 {
		b.WriteString("## Strengths\n\n")
		for _, s := range r.Strengths.Areas {
			fmt.Fprintf(&b, "- **%s** %.2f, %s (%s). Next: %s\n", s.Topic, s.Score, s.Recognition, s.Trend, strings.Join(s.NextSteps, "; "))
		}
		b.WriteString("\n")
	}

	if p := rep.Progress; p != nil {
		b.WriteString("## Progress\n\n")
		fmt.Fprintf(&b, "Status: **%s**\n\n", p.Status)
		if p.Message != "" {
			fmt.Fprintf(&b, "%s\n\n", p.Message)
		}
		for _, c := range p.Improvements {
			fmt.Fprintf(&b, "- %s improved %.2f → %.2f (%+.1f%%)\n", c.Topic, c.Previous, c.Current, c.ChangePercent)
		}
		for _, c := range p.Declines {
			fmt.Fprintf(&b, "- %s declined %.2f → %.2f (%+.1f%%)\n", c.Topic, c.Previous, c.Current, c.ChangePercent)
		}
	}
	return b.String()
}
