package reporting

import (
	"time"

	"github.com/testweaver/testweaver/internal/domain"
)

// Input carries everything a finished run hands to the report generator.
// Nil sections are rendered as absent rather than failing the report.
type Input struct {
	RunID       string
	TargetURL   string
	Success     bool
	Scrape      *domain.ScrapeResult
	Analysis    *domain.AIAnalysis
	Features    []domain.BDDFeature
	TestResults *domain.TestExecutionResult
	Metrics     domain.PerformanceMetrics
	Error       string
}

// Report is the rendered view of one run.
type Report struct {
	RunID       string             `json:"run_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	TargetURL   string             `json:"target_url"`
	Status      string             `json:"status"`
	Summary     Summary            `json:"summary"`
	Features    []FeatureSummary   `json:"features"`
	Tests       []TestRow          `json:"tests"`
	Timings     Timings            `json:"timings"`
	AI          *AISummary         `json:"ai,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// Summary aggregates the run outcome.
type Summary struct {
	TotalFeatures  int     `json:"total_features"`
	TotalScenarios int     `json:"total_scenarios"`
	TotalTests     int     `json:"total_tests"`
	Passed         int     `json:"passed"`
	Failed         int     `json:"failed"`
	Skipped        int     `json:"skipped"`
	PassRate       float64 `json:"pass_rate"`
}

// FeatureSummary is one feature row in the report.
type FeatureSummary struct {
	Name      string `json:"name"`
	Scenarios int    `json:"scenarios"`
}

// TestRow is one executed test in the report.
type TestRow struct {
	Name     string `json:"name"`
	Suite    string `json:"suite,omitempty"`
	Status   string `json:"status"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// Timings carries the per-stage wall-clock timings, formatted for display.
// Empty strings mean the stage never completed.
type Timings struct {
	PageLoad      string `json:"page_load,omitempty"`
	AIResponse    string `json:"ai_response,omitempty"`
	TestExecution string `json:"test_execution,omitempty"`
	Total         string `json:"total,omitempty"`
}

// AISummary carries AI stage telemetry into the report.
type AISummary struct {
	Model      string `json:"model"`
	TokensUsed int    `json:"tokens_used"`
	Fallback   bool   `json:"fallback"`
}
