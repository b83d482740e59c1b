package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/testweaver/testweaver/internal/codegen"
	"github.com/testweaver/testweaver/internal/config"
	"github.com/testweaver/testweaver/internal/domain"
	"github.com/testweaver/testweaver/internal/observability"
	"github.com/testweaver/testweaver/internal/reporting"
)

// Scraper captures page snapshots. Close releases the browser session and
// must be safe to call multiple times.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*domain.ScrapeResult, error)
	Close() error
}

// AIClient performs the semantic analysis stage.
type AIClient interface {
	Analyze(ctx context.Context, html, url, model string) (*domain.AIAnalysis, error)
	ListModels(ctx context.Context) ([]string, error)
	Model() string
}

// BDDGenerator turns scraped data and AI output into features.
type BDDGenerator interface {
	Generate(scrape *domain.ScrapeResult, analysis *domain.AIAnalysis) []domain.BDDFeature
	WriteFeatures(features []domain.BDDFeature, dir string) ([]string, error)
}

// TestGenerator builds and materializes the executable test project. The
// scrape result supplies the target URL and the form fields the generated
// code selects on.
type TestGenerator interface {
	Generate(scrape *domain.ScrapeResult, features []domain.BDDFeature) (*codegen.Project, error)
	Write(project *codegen.Project, dir string) ([]string, error)
}

// TestRunner executes a generated test project.
type TestRunner interface {
	Run(ctx context.Context, dir string) (*domain.TestExecutionResult, error)
}

// ReportGenerator renders run reports.
type ReportGenerator interface {
	Generate(ctx context.Context, input reporting.Input, dir string) (map[string]string, error)
}

// Options tunes a single orchestrator instance.
type Options struct {
	// OutputDir is the root for generated projects, artifacts and reports.
	OutputDir string
	// AIModel overrides the client's configured model for this
	// orchestrator's runs. Empty means use the configured model.
	AIModel string
	// SaveArtifacts writes intermediate stage outputs to disk.
	SaveArtifacts bool
}

// Orchestrator drives the pipeline through its stages in strict order:
// scraping, analyzing, generating_bdd, generating_tests, executing,
// reporting. A stage failure aborts the remaining stages and yields a
// failed ExecutionResult; it is never returned as an error.
type Orchestrator struct {
	cfg      *config.Config
	opts     Options
	scraper  Scraper
	ai       AIClient
	bdd      BDDGenerator
	testgen  TestGenerator
	runner   TestRunner
	reporter ReportGenerator
	obs      *observability.Metrics
	logger   *zap.Logger
	perf     *runMetrics
}

// New wires an orchestrator from its collaborators. obs may be nil when
// metrics are not exported.
func New(
	cfg *config.Config,
	opts Options,
	scraper Scraper,
	ai AIClient,
	bdd BDDGenerator,
	testgen TestGenerator,
	runner TestRunner,
	reporter ReportGenerator,
	obs *observability.Metrics,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "output"
	}
	return &Orchestrator{
		cfg:      cfg,
		opts:     opts,
		scraper:  scraper,
		ai:       ai,
		bdd:      bdd,
		testgen:  testgen,
		runner:   runner,
		reporter: reporter,
		obs:      obs,
		logger:   logger,
		perf:     newRunMetrics(),
	}
}

// ValidateConfig checks that every required configuration section is
// present. It returns a ConfigError naming the first missing section.
func (o *Orchestrator) ValidateConfig() error {
	if o.cfg == nil {
		return &domain.ConfigError{Err: fmt.Errorf("configuration not loaded")}
	}
	if section, missing := o.cfg.MissingSection(); missing {
		return &domain.ConfigError{Err: fmt.Errorf("missing required section %q", section)}
	}
	return nil
}

// ExecuteFullAutomation runs the complete pipeline against url. Stage
// failures are absorbed into the returned result; the error return is
// reserved for refusing to start at all.
func (o *Orchestrator) ExecuteFullAutomation(ctx context.Context, url string) (*domain.ExecutionResult, error) {
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}
	if err := o.ValidateConfig(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	start := time.Now()
	o.perf.reset(start)
	o.recordRunStart()

	result := &domain.ExecutionResult{
		RunID:   runID,
		Reports: map[string]string{},
	}

	o.logger.Info("automation run started",
		zap.String("run_id", runID),
		zap.String("url", url))

	// The browser session is the one external resource a run holds; it is
	// released exactly once no matter which stage the run ends in.
	defer o.cleanup(runID)

	err := o.runStages(ctx, url, result)

	end := time.Now()
	o.perf.finish(end)
	result.Metrics = o.perf.snapshot()
	result.ExecutionTime = end.Sub(start)

	if err != nil {
		result.Success = false
		result.ErrorMessage = err.Error()
		if stage, ok := domain.FailedStage(err); ok {
			o.recordStageFailure(string(stage))
		}
		o.recordRunComplete("failed", result.ExecutionTime)
		o.logger.Error("automation run failed",
			zap.String("run_id", runID),
			zap.Error(err))
		return result, nil
	}

	result.Success = true
	o.recordRunComplete("passed", result.ExecutionTime)
	o.logger.Info("automation run finished",
		zap.String("run_id", runID),
		zap.Duration("duration", result.ExecutionTime))

	return result, nil
}

// runStages executes the six stages in order, populating result as it
// goes. The first failing stage aborts the rest.
func (o *Orchestrator) runStages(ctx context.Context, url string, result *domain.ExecutionResult) error {
	runDir := filepath.Join(o.opts.OutputDir, result.RunID)

	// Stage 1: scraping. The recorded page load time is the stage's
	// wall-clock duration, browser launch and extraction included.
	scrape, scrapeElapsed, err := timeStage(o, domain.StageScraping, func() (*domain.ScrapeResult, error) {
		return o.scraper.Scrape(ctx, url)
	})
	if err != nil {
		return domain.FailStage(domain.StageScraping, err)
	}
	result.ScrapedData = scrape
	o.perf.setPageLoad(scrapeElapsed)

	// Stage 2: analyzing.
	analysis, _, err := timeStage(o, domain.StageAnalyzing, func() (*domain.AIAnalysis, error) {
		return o.ai.Analyze(ctx, scrape.HTML, url, o.opts.AIModel)
	})
	if err != nil {
		return domain.FailStage(domain.StageAnalyzing, err)
	}
	result.AIAnalysis = analysis
	o.perf.setAIResponse(analysis.ResponseTime)
	o.recordModelRequest(analysis)

	// Stage 3: generating_bdd.
	features, _, err := timeStage(o, domain.StageGeneratingBDD, func() ([]domain.BDDFeature, error) {
		features := o.bdd.Generate(scrape, analysis)
		if len(features) == 0 {
			return nil, fmt.Errorf("no scenarios could be generated")
		}
		return features, nil
	})
	if err != nil {
		return domain.FailStage(domain.StageGeneratingBDD, err)
	}
	result.BDDFeatures = features

	// Stage 4: generating_tests.
	projectDir := filepath.Join(runDir, "generated")
	_, _, err = timeStage(o, domain.StageGeneratingTests, func() (*codegen.Project, error) {
		project, err := o.testgen.Generate(scrape, features)
		if err != nil {
			return nil, err
		}
		if _, err := o.testgen.Write(project, projectDir); err != nil {
			return nil, err
		}
		return project, nil
	})
	if err != nil {
		return domain.FailStage(domain.StageGeneratingTests, err)
	}

	// Stage 5: executing.
	testResults, execElapsed, err := timeStage(o, domain.StageExecuting, func() (*domain.TestExecutionResult, error) {
		return o.runner.Run(ctx, projectDir)
	})
	if err != nil {
		return domain.FailStage(domain.StageExecuting, err)
	}
	if testResults.TotalDuration == 0 {
		testResults.TotalDuration = execElapsed
	}
	result.TestResults = testResults
	o.perf.setTestExecution(testResults.TotalDuration)
	o.recordTestResults(testResults)

	if o.opts.SaveArtifacts {
		result.ArtifactsSaved = o.saveArtifacts(runDir, result)
	}

	// Stage 6: reporting. Skipped entirely when no formats are configured.
	if len(o.cfg.Reporting.Formats) == 0 {
		o.logger.Info("reporting disabled, skipping", zap.String("run_id", result.RunID))
		return nil
	}

	reports, _, err := timeStage(o, domain.StageReporting, func() (map[string]string, error) {
		return o.reporter.Generate(ctx, reporting.Input{
			RunID:       result.RunID,
			TargetURL:   url,
			Success:     testResults.Failed == 0,
			Scrape:      scrape,
			Analysis:    analysis,
			Features:    features,
			TestResults: testResults,
			Metrics:     o.perf.snapshot(),
		}, filepath.Join(runDir, "reports"))
	})
	if err != nil {
		return domain.FailStage(domain.StageReporting, err)
	}
	result.Reports = reports

	return nil
}

// QuickTest runs only the scraping and analyzing stages to verify the
// pipeline front half works against url. A non-empty model overrides the
// configured one for this call. Intermediate data is discarded. The
// browser session is released before returning, pass or fail.
func (o *Orchestrator) QuickTest(ctx context.Context, url, model string) bool {
	defer o.cleanup("quick-test")

	if model == "" {
		model = o.opts.AIModel
	}

	scrape, err := o.scraper.Scrape(ctx, url)
	if err != nil {
		o.logger.Warn("quick test failed while scraping", zap.Error(err))
		return false
	}

	if _, err := o.ai.Analyze(ctx, scrape.HTML, url, model); err != nil {
		o.logger.Warn("quick test failed while analyzing", zap.Error(err))
		return false
	}

	o.logger.Info("quick test passed", zap.String("url", url))
	return true
}

// StatusReport is a point-in-time view of the orchestrator.
type StatusReport struct {
	ConfigValid     bool                      `json:"config_valid"`
	MissingSection  string                    `json:"missing_section,omitempty"`
	Model           string                    `json:"model"`
	AvailableModels []string                  `json:"available_models"`
	Metrics         domain.PerformanceMetrics `json:"metrics"`
}

// Status reports configuration validity, the active model, the models the
// AI endpoint offers, and a metrics snapshot. A failing model listing
// degrades to an empty list; Status itself never fails and never mutates
// run state.
func (o *Orchestrator) Status(ctx context.Context) StatusReport {
	status := StatusReport{
		ConfigValid:     true,
		Model:           o.ai.Model(),
		AvailableModels: []string{},
		Metrics:         o.perf.snapshot(),
	}

	if section, missing := o.cfg.MissingSection(); missing {
		status.ConfigValid = false
		status.MissingSection = section
	}

	models, err := o.ai.ListModels(ctx)
	if err != nil {
		o.logger.Warn("model listing unavailable", zap.Error(err))
	} else if models != nil {
		status.AvailableModels = models
	}

	return status
}

// cleanup releases the scraper's browser session. Failures are logged as
// CleanupErrors and swallowed so they never mask the run outcome.
func (o *Orchestrator) cleanup(runID string) {
	if err := o.scraper.Close(); err != nil {
		cerr := &domain.CleanupError{Err: err}
		o.logger.Warn("resource cleanup failed",
			zap.String("run_id", runID),
			zap.Error(cerr))
	}
}

// timeStage runs fn, logging and recording the stage's wall-clock time,
// which it returns alongside fn's result.
func timeStage[T any](o *Orchestrator, stage domain.Stage, fn func() (T, error)) (T, time.Duration, error) {
	start := time.Now()
	o.logger.Info("stage started", zap.String("stage", string(stage)))

	out, err := fn()
	elapsed := time.Since(start)

	if err != nil {
		o.logger.Error("stage failed",
			zap.String("stage", string(stage)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return out, elapsed, err
	}

	o.recordStage(string(stage), elapsed)
	o.logger.Info("stage finished",
		zap.String("stage", string(stage)),
		zap.Duration("elapsed", elapsed))
	return out, elapsed, nil
}

// saveArtifacts writes intermediate stage outputs under dir. Failure to
// save is logged, never fatal.
func (o *Orchestrator) saveArtifacts(dir string, result *domain.ExecutionResult) bool {
	artifactsDir := filepath.Join(dir, "artifacts")
	if err := os.MkdirAll(artifactsDir, 0o755); err != nil {
		o.logger.Warn("artifact dir creation failed", zap.Error(err))
		return false
	}

	ok := true
	writeJSON := func(name string, v any) {
		data, err := json.MarshalIndent(v, "", "  ")
		if err == nil {
			err = os.WriteFile(filepath.Join(artifactsDir, name), data, 0o644)
		}
		if err != nil {
			o.logger.Warn("artifact save failed", zap.String("artifact", name), zap.Error(err))
			ok = false
		}
	}

	if result.ScrapedData != nil {
		// The raw HTML is saved separately to keep the JSON readable.
		scrapeCopy := *result.ScrapedData
		html := scrapeCopy.HTML
		scrapeCopy.HTML = ""
		writeJSON("scraped_data.json", scrapeCopy)
		if err := os.WriteFile(filepath.Join(artifactsDir, "page.html"), []byte(html), 0o644); err != nil {
			o.logger.Warn("artifact save failed", zap.String("artifact", "page.html"), zap.Error(err))
			ok = false
		}
	}
	if result.AIAnalysis != nil {
		writeJSON("ai_analysis.json", result.AIAnalysis)
	}
	if len(result.BDDFeatures) > 0 {
		if _, err := o.bdd.WriteFeatures(result.BDDFeatures, filepath.Join(artifactsDir, "features")); err != nil {
			o.logger.Warn("feature file save failed", zap.Error(err))
			ok = false
		}
	}
	if result.TestResults != nil {
		writeJSON("test_results.json", result.TestResults)
	}

	return ok
}

func (o *Orchestrator) recordRunStart() {
	if o.obs != nil {
		o.obs.RecordRunStart()
	}
}

func (o *Orchestrator) recordRunComplete(status string, d time.Duration) {
	if o.obs != nil {
		o.obs.RecordRunComplete(status, d)
	}
}

func (o *Orchestrator) recordStage(stage string, d time.Duration) {
	if o.obs != nil {
		o.obs.RecordStage(stage, d)
	}
}

func (o *Orchestrator) recordModelRequest(a *domain.AIAnalysis) {
	if o.obs != nil {
		o.obs.RecordModelRequest(a.Model, "success", a.ResponseTime, a.TokensUsed)
	}
}

func (o *Orchestrator) recordStageFailure(stage string) {
	if o.obs != nil {
		o.obs.RecordStageFailure(stage)
	}
}

func (o *Orchestrator) recordTestResults(results *domain.TestExecutionResult) {
	if o.obs == nil {
		return
	}
	o.obs.RecordTestExecution("passed", results.Passed)
	o.obs.RecordTestExecution("failed", results.Failed)
	o.obs.RecordTestExecution("skipped", results.Skipped)
}
