package codegen

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testweaver/testweaver/internal/config"
	"github.com/testweaver/testweaver/internal/domain"
)

const sampleReport = `{
  "config": { "rootDir": "/tmp/generated" },
  "suites": [
    {
      "title": "form-operations.spec.ts",
      "file": "form-operations.spec.ts",
      "suites": [
        {
          "title": "Form Operations",
          "specs": [
            {
              "title": "Fill in and submit the login form successfully",
              "ok": true,
              "tests": [
                {
                  "status": "expected",
                  "results": [{ "status": "passed", "duration": 1532.4 }]
                }
              ]
            },
            {
              "title": "An error is shown when the email field is left empty",
              "ok": false,
              "tests": [
                {
                  "status": "unexpected",
                  "results": [
                    {
                      "status": "failed",
                      "duration": 2210.0,
                      "error": { "message": "locator.fill: Timeout 30000ms exceeded" }
                    }
                  ]
                }
              ]
            },
            {
              "title": "Skipped scenario",
              "ok": true,
              "tests": [
                { "status": "skipped", "results": [] }
              ]
            }
          ]
        }
      ]
    }
  ],
  "stats": {
    "startTime": "2026-01-10T12:00:00.000Z",
    "duration": 4810.7,
    "expected": 1,
    "unexpected": 1,
    "skipped": 1
  }
}`

func TestReportToResult(t *testing.T) {
	runner := NewRunner(config.AutomationConfig{}, nil)

	report, err := runner.readReport(t.TempDir(), []byte(sampleReport))
	require.NoError(t, err)

	result := reportToResult(report)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	assert.InDelta(t, 4810.7, float64(result.TotalDuration)/float64(time.Millisecond), 0.1)

	require.Len(t, result.Results, 3)

	passed := result.Results[0]
	assert.Equal(t, "Fill in and submit the login form successfully", passed.Name)
	assert.Equal(t, "form-operations.spec.ts > Form Operations", passed.Suite)
	assert.Equal(t, domain.TestStatusPassed, passed.Status)
	assert.InDelta(t, 1532.4, float64(passed.Duration)/float64(time.Millisecond), 0.1)

	failed := result.Results[1]
	assert.Equal(t, domain.TestStatusFailed, failed.Status)
	assert.Contains(t, failed.Error, "Timeout 30000ms exceeded")

	assert.Equal(t, domain.TestStatusSkipped, result.Results[2].Status)
}

func TestReadReport_FromFile(t *testing.T) {
	runner := NewRunner(config.AutomationConfig{}, nil)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "test-results"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "test-results", "results.json"),
		[]byte(sampleReport), 0o644))

	// Non-JSON stdout falls through to the report file.
	report, err := runner.readReport(dir, []byte("Running 3 tests using 2 workers"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Stats.Expected)
}

func TestReadReport_Missing(t *testing.T) {
	runner := NewRunner(config.AutomationConfig{}, nil)

	_, err := runner.readReport(t.TempDir(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no test report found")
}

func TestRunnerWorkers(t *testing.T) {
	assert.Equal(t, 1, NewRunner(config.AutomationConfig{MaxWorkers: 8}, nil).workers(),
		"parallel execution disabled forces a single worker")
	assert.Equal(t, 8, NewRunner(config.AutomationConfig{ParallelExecution: true, MaxWorkers: 8}, nil).workers())
	assert.Equal(t, 2, NewRunner(config.AutomationConfig{ParallelExecution: true}, nil).workers())
}
