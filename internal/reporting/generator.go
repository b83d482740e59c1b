package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/testweaver/testweaver/internal/config"
	"github.com/testweaver/testweaver/internal/domain"
)

// Generator renders run reports in the configured formats.
type Generator struct {
	cfg       config.ReportingConfig
	logger    *zap.Logger
	dashboard *template.Template
}

// NewGenerator creates a report generator. The HTML dashboard template is
// parsed once here.
func NewGenerator(cfg config.ReportingConfig, logger *zap.Logger) (*Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := template.New("dashboard").Funcs(template.FuncMap{
		"percent": func(a, b int) float64 {
			if b == 0 {
				return 0
			}
			return float64(a) / float64(b) * 100
		},
	}).Parse(dashboardTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing dashboard template: %w", err)
	}

	return &Generator{cfg: cfg, logger: logger, dashboard: tmpl}, nil
}

// Generate builds the report and writes one file per configured format
// under dir. It returns a format to path map. Unknown formats are logged
// and skipped, not fatal.
func (g *Generator) Generate(ctx context.Context, input Input, dir string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report dir: %w", err)
	}

	report := g.build(input)
	stamp := report.GeneratedAt.Format("20060102_150405")
	paths := make(map[string]string)

	for _, format := range g.cfg.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case "html":
			data, err = g.renderHTML(report)
		case "json":
			data, err = json.MarshalIndent(report, "", "  ")
		default:
			g.logger.Warn("unknown report format, skipping", zap.String("format", format))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("rendering %s report: %w", format, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("report_%s.%s", stamp, format))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s report: %w", format, err)
		}
		paths[format] = path
	}

	g.logger.Info("reports generated",
		zap.String("run_id", input.RunID),
		zap.Int("formats", len(paths)))

	return paths, nil
}

// build assembles the report view from the run input.
func (g *Generator) build(input Input) *Report {
	report := &Report{
		RunID:       input.RunID,
		GeneratedAt: time.Now(),
		TargetURL:   input.TargetURL,
		Error:       input.Error,
	}

	if input.Success {
		report.Status = "passed"
	} else {
		report.Status = "failed"
	}

	for _, feature := range input.Features {
		report.Summary.TotalFeatures++
		report.Summary.TotalScenarios += len(feature.Scenarios)
		report.Features = append(report.Features, FeatureSummary{
			Name:      feature.Name,
			Scenarios: len(feature.Scenarios),
		})
	}

	if results := input.TestResults; results != nil {
		report.Summary.TotalTests = results.Total
		report.Summary.Passed = results.Passed
		report.Summary.Failed = results.Failed
		report.Summary.Skipped = results.Skipped
		if results.Total > 0 {
			report.Summary.PassRate = float64(results.Passed) / float64(results.Total) * 100
		}

		for _, tr := range results.Results {
			report.Tests = append(report.Tests, TestRow{
				Name:     tr.Name,
				Suite:    tr.Suite,
				Status:   string(tr.Status),
				Duration: tr.Duration.Round(time.Millisecond).String(),
				Error:    tr.Error,
			})
		}
	}

	report.Timings = buildTimings(input.Metrics)

	if input.Analysis != nil {
		report.AI = &AISummary{
			Model:      input.Analysis.Model,
			TokensUsed: input.Analysis.TokensUsed,
			Fallback:   input.Analysis.HTMLAnalysis.IsFallback(),
		}
	}

	return report
}

func buildTimings(metrics domain.PerformanceMetrics) Timings {
	format := func(d *time.Duration) string {
		if d == nil {
			return ""
		}
		return d.Round(time.Millisecond).String()
	}
	return Timings{
		PageLoad:      format(metrics.PageLoadTime),
		AIResponse:    format(metrics.AIResponseTime),
		TestExecution: format(metrics.TestExecutionTime),
		Total:         format(metrics.TotalExecutionTime),
	}
}

func (g *Generator) renderHTML(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.dashboard.Execute(&buf, report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
