package codegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/testweaver/testweaver/internal/config"
	"github.com/testweaver/testweaver/internal/domain"
)

// Runner executes a generated Playwright project and collects results.
type Runner struct {
	cfg    config.AutomationConfig
	logger *zap.Logger
}

// NewRunner creates a test runner.
func NewRunner(cfg config.AutomationConfig, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, logger: logger}
}

// Run installs dependencies and executes the test project in dir. A non-zero
// exit from the test command is not an error here: failing tests are a
// result, not a pipeline fault. Only a missing or unparsable report is.
func (r *Runner) Run(ctx context.Context, dir string) (*domain.TestExecutionResult, error) {
	if err := r.npmInstall(ctx, dir); err != nil {
		return nil, err
	}

	args := []string{"playwright", "test", "--reporter=json"}
	args = append(args, fmt.Sprintf("--workers=%d", r.workers()))

	r.logger.Info("running generated tests",
		zap.String("dir", dir),
		zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, "npx", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "CI=true")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	report, err := r.readReport(dir, stdout.Bytes())
	if err != nil {
		if runErr != nil {
			return nil, fmt.Errorf("test run failed: %v: %s", runErr, firstLines(stderr.String(), 5))
		}
		return nil, err
	}

	result := reportToResult(report)

	r.logger.Info("test run finished",
		zap.Int("total", result.Total),
		zap.Int("passed", result.Passed),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
		zap.Duration("duration", result.TotalDuration))

	return result, nil
}

func (r *Runner) npmInstall(ctx context.Context, dir string) error {
	cmd := exec.CommandContext(ctx, "npm", "install", "--no-audit", "--no-fund")
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("npm install: %v: %s", err, firstLines(stderr.String(), 5))
	}
	return nil
}

func (r *Runner) workers() int {
	if !r.cfg.ParallelExecution {
		return 1
	}
	if r.cfg.MaxWorkers > 0 {
		return r.cfg.MaxWorkers
	}
	return 2
}

// readReport loads the Playwright JSON report. The json reporter writes to
// stdout unless PLAYWRIGHT_JSON_OUTPUT_NAME redirects it, and the generated
// config also mirrors it to test-results/results.json, so both are tried.
func (r *Runner) readReport(dir string, stdout []byte) (*playwrightReport, error) {
	if trimmed := bytes.TrimSpace(stdout); bytes.HasPrefix(trimmed, []byte("{")) {
		var report playwrightReport
		if err := json.Unmarshal(trimmed, &report); err == nil {
			return &report, nil
		}
		r.logger.Warn("unparsable JSON on test runner stdout")
	}

	path := filepath.Join(dir, "test-results", "results.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no test report found: %w", err)
	}

	var report playwrightReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &report, nil
}

// playwrightReport mirrors the subset of Playwright's JSON reporter output
// the pipeline consumes. Suites nest arbitrarily deep.
type playwrightReport struct {
	Suites []playwrightSuite `json:"suites"`
	Stats  playwrightStats   `json:"stats"`
}

type playwrightSuite struct {
	Title  string            `json:"title"`
	File   string            `json:"file"`
	Specs  []playwrightSpec  `json:"specs"`
	Suites []playwrightSuite `json:"suites"`
}

type playwrightSpec struct {
	Title string           `json:"title"`
	OK    bool             `json:"ok"`
	Tests []playwrightTest `json:"tests"`
}

type playwrightTest struct {
	Status  string  `json:"status"`
	Results []struct {
		Status   string  `json:"status"`
		Duration float64 `json:"duration"`
		Error    *struct {
			Message string `json:"message"`
		} `json:"error,omitempty"`
	} `json:"results"`
}

type playwrightStats struct {
	Duration   float64 `json:"duration"`
	Expected   int     `json:"expected"`
	Unexpected int     `json:"unexpected"`
	Flaky      int     `json:"flaky"`
	Skipped    int     `json:"skipped"`
}

// reportToResult flattens the nested suite tree into a TestExecutionResult.
func reportToResult(report *playwrightReport) *domain.TestExecutionResult {
	result := &domain.TestExecutionResult{
		TotalDuration: time.Duration(report.Stats.Duration * float64(time.Millisecond)),
	}

	var walk func(suite playwrightSuite, parents []string)
	walk = func(suite playwrightSuite, parents []string) {
		path := parents
		if suite.Title != "" {
			path = append(append([]string(nil), parents...), suite.Title)
		}

		for _, spec := range suite.Specs {
			for _, test := range spec.Tests {
				tr := domain.TestResult{
					Name:  spec.Title,
					Suite: strings.Join(path, " > "),
				}

				status := test.Status
				for _, attempt := range test.Results {
					tr.Duration += time.Duration(attempt.Duration * float64(time.Millisecond))
					if attempt.Error != nil && tr.Error == "" {
						tr.Error = attempt.Error.Message
					}
				}

				switch status {
				case "expected", "passed", "flaky":
					tr.Status = domain.TestStatusPassed
					result.Passed++
				case "skipped":
					tr.Status = domain.TestStatusSkipped
					result.Skipped++
				default:
					tr.Status = domain.TestStatusFailed
					result.Failed++
				}
				result.Total++
				result.Results = append(result.Results, tr)
			}
		}

		for _, child := range suite.Suites {
			walk(child, path)
		}
	}

	for _, suite := range report.Suites {
		walk(suite, nil)
	}

	return result
}

func firstLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
