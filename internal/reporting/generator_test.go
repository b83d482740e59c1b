package reporting

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testweaver/testweaver/internal/config"
	"github.com/testweaver/testweaver/internal/domain"
)

func sampleInput() Input {
	pageLoad := 1200 * time.Millisecond
	total := 45 * time.Second

	return Input{
		RunID:     "run-123",
		TargetURL: "https://example.com",
		Success:   true,
		Features: []domain.BDDFeature{
			{Name: "Form Operations", Scenarios: make([]domain.BDDScenario, 3)},
			{Name: "Navigation", Scenarios: make([]domain.BDDScenario, 2)},
		},
		TestResults: &domain.TestExecutionResult{
			Total:   4,
			Passed:  3,
			Failed:  1,
			Results: []domain.TestResult{
				{Name: "submit login form", Suite: "Form Operations", Status: domain.TestStatusPassed, Duration: 1532 * time.Millisecond},
				{Name: "empty email shows error", Suite: "Form Operations", Status: domain.TestStatusFailed, Duration: 2 * time.Second, Error: "locator timeout"},
				{Name: "home link", Suite: "Navigation", Status: domain.TestStatusPassed},
				{Name: "pricing link", Suite: "Navigation", Status: domain.TestStatusPassed},
			},
		},
		Metrics: domain.PerformanceMetrics{
			PageLoadTime:       &pageLoad,
			TotalExecutionTime: &total,
		},
		Analysis: &domain.AIAnalysis{Model: "llama3:latest", TokensUsed: 84},
	}
}

func TestGenerate_WritesConfiguredFormats(t *testing.T) {
	gen, err := NewGenerator(config.ReportingConfig{Formats: []string{"html", "json"}}, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	paths, err := gen.Generate(context.Background(), sampleInput(), dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	html, err := os.ReadFile(paths["html"])
	require.NoError(t, err)
	assert.Contains(t, string(html), "Test Report")
	assert.Contains(t, string(html), "https://example.com")
	assert.Contains(t, string(html), "submit login form")
	assert.Contains(t, string(html), "locator timeout")
	assert.Contains(t, string(html), "llama3:latest")

	data, err := os.ReadFile(paths["json"])
	require.NoError(t, err)

	var report Report
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "run-123", report.RunID)
	assert.Equal(t, "passed", report.Status)
	assert.Equal(t, 2, report.Summary.TotalFeatures)
	assert.Equal(t, 5, report.Summary.TotalScenarios)
	assert.InDelta(t, 75.0, report.Summary.PassRate, 0.01)
	assert.Equal(t, "1.2s", report.Timings.PageLoad)
	assert.Equal(t, "45s", report.Timings.Total)
	assert.Empty(t, report.Timings.TestExecution)
}

func TestGenerate_UnknownFormatSkipped(t *testing.T) {
	gen, err := NewGenerator(config.ReportingConfig{Formats: []string{"pdf", "json"}}, nil)
	require.NoError(t, err)

	paths, err := gen.Generate(context.Background(), sampleInput(), t.TempDir())
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Contains(t, paths, "json")
}

func TestGenerate_FailedRun(t *testing.T) {
	gen, err := NewGenerator(config.ReportingConfig{Formats: []string{"html"}}, nil)
	require.NoError(t, err)

	input := Input{
		RunID:     "run-456",
		TargetURL: "https://example.com",
		Success:   false,
		Error:     "scraping stage failed: page returned status 500",
	}

	paths, err := gen.Generate(context.Background(), input, t.TempDir())
	require.NoError(t, err)

	html, err := os.ReadFile(paths["html"])
	require.NoError(t, err)
	assert.Contains(t, string(html), "scraping stage failed")
	assert.Contains(t, string(html), `badge failed`)
}

func TestGenerate_CancelledContext(t *testing.T) {
	gen, err := NewGenerator(config.ReportingConfig{Formats: []string{"json"}}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = gen.Generate(ctx, sampleInput(), t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_AIFallbackFlag(t *testing.T) {
	gen, err := NewGenerator(config.ReportingConfig{}, nil)
	require.NoError(t, err)

	input := sampleInput()
	input.Analysis.HTMLAnalysis = domain.HTMLAnalysis{
		RawResponse: "the page has a login form",
		Forms:       []domain.AnalyzedForm{},
	}

	report := gen.build(input)
	require.NotNil(t, report.AI)
	assert.True(t, report.AI.Fallback)
}
