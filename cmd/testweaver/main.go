package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/testweaver/testweaver/internal/ai"
	"github.com/testweaver/testweaver/internal/bdd"
	"github.com/testweaver/testweaver/internal/codegen"
	"github.com/testweaver/testweaver/internal/config"
	"github.com/testweaver/testweaver/internal/observability"
	"github.com/testweaver/testweaver/internal/orchestrator"
	"github.com/testweaver/testweaver/internal/reporting"
	"github.com/testweaver/testweaver/internal/scraper"
)

var (
	green  = color.New(color.FgGreen, color.Bold)
	red    = color.New(color.FgRed, color.Bold)
	yellow = color.New(color.FgYellow, color.Bold)
	cyan   = color.New(color.FgCyan, color.Bold)
	bold   = color.New(color.Bold)
	dim    = color.New(color.Faint)
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	targetURL := flag.String("url", "", "Target URL to test")
	outputDir := flag.String("output", "output", "Output directory for generated projects and reports")
	aiModel := flag.String("ai-model", "", "Override the configured AI model")
	quickTest := flag.Bool("quick-test", false, "Only verify scraping and AI analysis work, then exit")
	listModels := flag.Bool("list-models", false, "List models available at the AI endpoint, then exit")
	showStatus := flag.Bool("status", false, "Print pipeline status, then exit")
	saveArtifacts := flag.Bool("save-artifacts", false, "Save intermediate stage outputs to disk")
	headless := flag.Bool("headless", true, "Run the scraper browser headless")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		red.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "headless" {
			cfg.Scraper.Headless = *headless
		}
	})

	logger := newLogger(cfg, *verbose)
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var obs *observability.Metrics
	if *metricsAddr != "" {
		obs = observability.NewMetrics(prometheus.DefaultRegisterer, "testweaver")
		go serveMetrics(*metricsAddr, obs, logger)
	}

	orch := buildOrchestrator(cfg, orchestrator.Options{
		OutputDir:     *outputDir,
		AIModel:       *aiModel,
		SaveArtifacts: *saveArtifacts,
	}, *aiModel, obs, logger)

	switch {
	case *listModels:
		os.Exit(runListModels(ctx, cfg, *aiModel, logger))
	case *showStatus:
		os.Exit(runStatus(ctx, orch))
	case *quickTest:
		requireURL(*targetURL)
		os.Exit(runQuickTest(ctx, orch, *targetURL, *aiModel))
	default:
		requireURL(*targetURL)
		os.Exit(runFullAutomation(ctx, orch, *targetURL, *verbose))
	}
}

func requireURL(url string) {
	if url == "" {
		red.Println("❌ -url flag is required")
		fmt.Println("Usage: testweaver -url https://example.com [-config config/config.yaml]")
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config, verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Logging.File != "" {
		zapCfg.OutputPaths = []string{cfg.Logging.File}
	} else {
		// Keep stdout clean for the progress display.
		zapCfg.OutputPaths = []string{"/dev/null"}
	}
	if level, err := zap.ParseAtomicLevel(cfg.Logging.Level); err == nil {
		zapCfg.Level = level
	}
	logger, _ := zapCfg.Build()
	return logger
}

func buildOrchestrator(cfg *config.Config, opts orchestrator.Options, modelOverride string, obs *observability.Metrics, logger *zap.Logger) *orchestrator.Orchestrator {
	aiClient := newAIClient(cfg, modelOverride, logger)

	reporter, err := reporting.NewGenerator(cfg.Reporting, logger.Named("reporting"))
	if err != nil {
		red.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	return orchestrator.New(
		cfg,
		opts,
		scraper.New(cfg.Scraper, logger.Named("scraper")),
		aiClient,
		bdd.NewGenerator(cfg.BDD, logger.Named("bdd")),
		codegen.NewGenerator(cfg.Automation, logger.Named("codegen")),
		codegen.NewRunner(cfg.Automation, logger.Named("runner")),
		reporter,
		obs,
		logger.Named("orchestrator"),
	)
}

func newAIClient(cfg *config.Config, modelOverride string, logger *zap.Logger) *ai.Client {
	aiCfg := ai.Config{
		BaseURL:      cfg.AI.APIURL,
		Model:        cfg.AI.ModelName,
		Temperature:  cfg.AI.Temperature,
		MaxTokens:    cfg.AI.MaxTokens,
		Timeout:      cfg.AI.Timeout(),
		RateLimitRPM: cfg.AI.RateLimitRPM,
	}
	client := ai.NewClient(aiCfg, logger.Named("ai"))
	client.SetModel(modelOverride)
	return client
}

func runFullAutomation(ctx context.Context, orch *orchestrator.Orchestrator, url string, verbose bool) int {
	printBanner()
	fmt.Printf("🎯 Target: %s\n\n", url)

	var bar *progressbar.ProgressBar
	if !verbose {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("   Running pipeline..."),
			progressbar.OptionSpinnerType(14),
		)
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					bar.Add(1)
				}
			}
		}()
	}

	result, err := orch.ExecuteFullAutomation(ctx, url)
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}
	if err != nil {
		red.Printf("❌ %v\n", err)
		return 1
	}

	fmt.Println()
	if result.Success {
		green.Printf("✓ Run %s completed in %s\n", result.RunID, result.ExecutionTime.Round(time.Millisecond))
	} else {
		red.Printf("❌ Run %s failed: %s\n", result.RunID, result.ErrorMessage)
	}

	if result.TestResults != nil {
		statusColor := green
		if result.TestResults.Failed > 0 {
			statusColor = red
		}
		statusColor.Printf("   %d passed, %d failed, %d skipped\n",
			result.TestResults.Passed, result.TestResults.Failed, result.TestResults.Skipped)
	}

	if len(result.Reports) > 0 {
		fmt.Println()
		bold.Println("Reports:")
		for format, path := range result.Reports {
			dim.Printf("   • %s: %s\n", format, path)
		}
	}

	if result.Success {
		return 0
	}
	return 1
}

func runQuickTest(ctx context.Context, orch *orchestrator.Orchestrator, url, model string) int {
	cyan.Printf("Quick test: %s\n", url)

	if orch.QuickTest(ctx, url, model) {
		green.Println("✓ Scraping and AI analysis are working")
		return 0
	}
	red.Println("❌ Quick test failed")
	return 1
}

func runListModels(ctx context.Context, cfg *config.Config, modelOverride string, logger *zap.Logger) int {
	client := newAIClient(cfg, modelOverride, logger)

	models, err := client.ListModels(ctx)
	if err != nil {
		red.Printf("❌ Model listing failed: %v\n", err)
		return 1
	}
	if len(models) == 0 {
		yellow.Println("No models available")
		return 0
	}

	bold.Printf("Available models at %s:\n", cfg.AI.APIURL)
	for _, model := range models {
		marker := " "
		if model == client.Model() {
			marker = "*"
		}
		fmt.Printf(" %s %s\n", marker, model)
	}
	return 0
}

func runStatus(ctx context.Context, orch *orchestrator.Orchestrator) int {
	status := orch.Status(ctx)

	bold.Println("Pipeline status")
	if status.ConfigValid {
		green.Println("   config: valid")
	} else {
		red.Printf("   config: missing section %q\n", status.MissingSection)
	}
	fmt.Printf("   model: %s\n", status.Model)
	fmt.Printf("   available models: %d\n", len(status.AvailableModels))
	for _, model := range status.AvailableModels {
		dim.Printf("      • %s\n", model)
	}

	if status.Metrics.StartTime != nil {
		fmt.Printf("   last run started: %s\n", status.Metrics.StartTime.Format(time.RFC3339))
		if status.Metrics.TotalExecutionTime != nil {
			fmt.Printf("   last run duration: %s\n", status.Metrics.TotalExecutionTime.Round(time.Millisecond))
		}
	}

	if status.ConfigValid {
		return 0
	}
	return 1
}

func serveMetrics(addr string, obs *observability.Metrics, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", obs.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics server stopped", zap.Error(err))
	}
}

func printBanner() {
	cyan.Println(`
╔════════════════════════════════════════════════════╗
║                                                    ║
║   T E S T W E A V E R                              ║
║   URL in → scraped, analyzed, tested, reported     ║
║                                                    ║
╚════════════════════════════════════════════════════╝`)
}
