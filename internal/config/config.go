package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/testweaver/testweaver/internal/domain"
)

// RequiredSections are the top-level sections a configuration file must
// contain before a run may start. Order matters: validation reports the
// first missing section.
var RequiredSections = []string{"ai", "scraper", "bdd", "automation", "reporting"}

// Config holds all application configuration, loaded from a YAML file with
// optional environment overrides.
type Config struct {
	AI         AIConfig         `yaml:"ai"`
	Scraper    ScraperConfig    `yaml:"scraper"`
	BDD        BDDConfig        `yaml:"bdd"`
	Automation AutomationConfig `yaml:"automation"`
	Reporting  ReportingConfig  `yaml:"reporting"`
	Logging    LoggingConfig    `yaml:"logging"`

	// sections records the top-level keys present in the source document,
	// including unknown ones, for forward-compatible validation.
	sections map[string]bool
}

// AIConfig holds AI provider settings.
type AIConfig struct {
	Provider       string  `yaml:"provider" envconfig:"TESTWEAVER_AI_PROVIDER"`
	ModelName      string  `yaml:"model_name" envconfig:"TESTWEAVER_AI_MODEL"`
	APIURL         string  `yaml:"api_url" envconfig:"TESTWEAVER_AI_API_URL"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout"`
	RateLimitRPM   int     `yaml:"rate_limit_rpm"`
}

// Timeout returns the AI request timeout.
func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ScraperConfig holds browser session settings.
type ScraperConfig struct {
	Browser        string `yaml:"browser"`
	Headless       bool   `yaml:"headless" envconfig:"TESTWEAVER_SCRAPER_HEADLESS"`
	TimeoutSeconds int    `yaml:"timeout"`
	WaitSeconds    int    `yaml:"wait_time"`
	UserAgent      string `yaml:"user_agent"`
}

// Timeout returns the page load timeout.
func (c ScraperConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WaitTime returns the post-load settle time for dynamic content.
func (c ScraperConfig) WaitTime() time.Duration {
	return time.Duration(c.WaitSeconds) * time.Second
}

// BDDConfig holds scenario generation settings.
type BDDConfig struct {
	Language                string `yaml:"language"`
	ScenarioCount           int    `yaml:"scenario_count"`
	IncludeNegativeTests    bool   `yaml:"include_negative_tests"`
	IncludePerformanceTests bool   `yaml:"include_performance_tests"`
}

// AutomationConfig holds test generation and execution settings.
type AutomationConfig struct {
	Framework           string `yaml:"framework"`
	ParallelExecution   bool   `yaml:"parallel_execution"`
	MaxWorkers          int    `yaml:"max_workers"`
	ScreenshotOnFailure bool   `yaml:"screenshot_on_failure"`
	VideoRecording      bool   `yaml:"video_recording"`
}

// ReportingConfig holds report rendering settings.
type ReportingConfig struct {
	Formats            []string `yaml:"format"`
	IncludeScreenshots bool     `yaml:"include_screenshots"`
	IncludeLogs        bool     `yaml:"include_logs"`
	Template           string   `yaml:"template"`
}

// LoggingConfig holds optional logger settings.
type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"TESTWEAVER_LOG_LEVEL"`
	File  string `yaml:"file"`
}

// Load reads and parses the configuration file, applies defaults and
// environment overrides. A missing or malformed file is a fatal
// ConfigError: no run proceeds without a loadable configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ConfigError{Path: path, Err: err}
	}

	// First pass: record which top-level sections the document carries.
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &domain.ConfigError{Path: path, Err: fmt.Errorf("parsing YAML: %w", err)}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &domain.ConfigError{Path: path, Err: fmt.Errorf("parsing YAML: %w", err)}
	}

	cfg.sections = make(map[string]bool, len(raw))
	for key := range raw {
		cfg.sections[key] = true
	}

	cfg.applyDefaults()

	// Environment variables override file values when set.
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &domain.ConfigError{Path: path, Err: fmt.Errorf("processing env overrides: %w", err)}
	}

	return &cfg, nil
}

// applyDefaults fills zero values with sensible defaults.
func (c *Config) applyDefaults() {
	if c.AI.Provider == "" {
		c.AI.Provider = "ollama"
	}
	if c.AI.ModelName == "" {
		c.AI.ModelName = "llama3:latest"
	}
	if c.AI.APIURL == "" {
		c.AI.APIURL = "http://localhost:11434"
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.3
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 4096
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = 120
	}
	if c.AI.RateLimitRPM == 0 {
		c.AI.RateLimitRPM = 60
	}

	if c.Scraper.Browser == "" {
		c.Scraper.Browser = "chromium"
	}
	if c.Scraper.TimeoutSeconds == 0 {
		c.Scraper.TimeoutSeconds = 30
	}
	if c.Scraper.WaitSeconds == 0 {
		c.Scraper.WaitSeconds = 2
	}
	if c.Scraper.UserAgent == "" {
		c.Scraper.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 TestWeaver/1.0"
	}

	if c.BDD.Language == "" {
		c.BDD.Language = "en"
	}
	if c.BDD.ScenarioCount == 0 {
		c.BDD.ScenarioCount = 10
	}

	if c.Automation.Framework == "" {
		c.Automation.Framework = "playwright"
	}
	if c.Automation.MaxWorkers == 0 {
		c.Automation.MaxWorkers = 4
	}

	if len(c.Reporting.Formats) == 0 {
		c.Reporting.Formats = []string{"html", "json"}
	}
	if c.Reporting.Template == "" {
		c.Reporting.Template = "default"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// HasSection reports whether the source document carried the given
// top-level section.
func (c *Config) HasSection(name string) bool {
	return c.sections[name]
}

// MissingSection returns the first required section absent from the source
// document. One missing section is enough to refuse a run.
func (c *Config) MissingSection() (string, bool) {
	for _, section := range RequiredSections {
		if !c.sections[section] {
			return section, true
		}
	}
	return "", false
}
