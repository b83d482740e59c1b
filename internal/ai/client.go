package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/testweaver/testweaver/internal/domain"
)

// Client talks to an Ollama-compatible model server.
type Client struct {
	baseURL     string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zap.Logger

	mu    sync.RWMutex
	model string

	metrics Metrics
}

// Config for the AI client.
type Config struct {
	BaseURL      string
	Model        string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	RateLimitRPM int
}

// DefaultConfig returns default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "http://localhost:11434",
		Model:        "llama3:latest",
		Temperature:  0.3,
		MaxTokens:    4096,
		Timeout:      120 * time.Second,
		RateLimitRPM: 60,
	}
}

// Metrics tracks model API usage.
type Metrics struct {
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	TotalTokens     int64
	TotalLatencyMs  int64
}

// NewClient creates a new model client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RateLimitRPM == 0 {
		cfg.RateLimitRPM = def.RateLimitRPM
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimitRPM)/60.0), 1),
		logger:      logger,
	}
}

// SetModel changes the model used for subsequent requests.
func (c *Client) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if model != "" && model != c.model {
		c.model = model
		c.logger.Info("ai model changed", zap.String("model", model))
	}
}

// Model returns the model currently in use.
func (c *Client) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// Analyze runs the full AI stage for one page: a structural HTML analysis
// followed by scenario generation. model overrides the configured model
// when non-empty. The returned analysis always satisfies the same shape
// contract, falling back to RawResponse when the model output is not
// well-formed JSON.
func (c *Client) Analyze(ctx context.Context, html, url, model string) (*domain.AIAnalysis, error) {
	if model != "" {
		c.SetModel(model)
	}

	start := time.Now()

	analysisText, analysisTokens, err := c.generate(ctx, analysisPrompt(html, url))
	if err != nil {
		return nil, fmt.Errorf("analyzing html: %w", err)
	}

	htmlAnalysis := ParseAnalysis(analysisText)
	if htmlAnalysis.IsFallback() {
		c.logger.Warn("model response not in JSON format, using raw response",
			zap.String("model", c.Model()))
	}

	scenarioText, scenarioTokens, err := c.generate(ctx, scenarioPrompt(htmlAnalysis))
	if err != nil {
		return nil, fmt.Errorf("generating scenarios: %w", err)
	}

	return &domain.AIAnalysis{
		HTMLAnalysis: htmlAnalysis,
		BDDScenarios: scenarioText,
		Model:        c.Model(),
		TokensUsed:   analysisTokens + scenarioTokens,
		ResponseTime: time.Since(start),
	}, nil
}

// generateRequest is the Ollama completion request body.
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

// generateResponse is the Ollama completion response body.
type generateResponse struct {
	Response  string `json:"response"`
	EvalCount int    `json:"eval_count"`
}

// generate sends one completion request and returns the raw text and the
// number of tokens the model reported.
func (c *Client) generate(ctx context.Context, prompt string) (string, int, error) {
	atomic.AddInt64(&c.metrics.TotalRequests, 1)

	if err := c.rateLimiter.Wait(ctx); err != nil {
		atomic.AddInt64(&c.metrics.FailedRequests, 1)
		return "", 0, fmt.Errorf("rate limit: %w", err)
	}

	body, err := json.Marshal(generateRequest{
		Model:  c.Model(),
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: c.temperature,
			NumPredict:  c.maxTokens,
		},
	})
	if err != nil {
		return "", 0, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		atomic.AddInt64(&c.metrics.FailedRequests, 1)
		return "", 0, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		atomic.AddInt64(&c.metrics.FailedRequests, 1)
		return "", 0, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		atomic.AddInt64(&c.metrics.FailedRequests, 1)
		return "", 0, fmt.Errorf("model API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		atomic.AddInt64(&c.metrics.FailedRequests, 1)
		return "", 0, fmt.Errorf("parsing response: %w", err)
	}

	atomic.AddInt64(&c.metrics.SuccessRequests, 1)
	atomic.AddInt64(&c.metrics.TotalTokens, int64(genResp.EvalCount))
	atomic.AddInt64(&c.metrics.TotalLatencyMs, time.Since(start).Milliseconds())

	return genResp.Response, genResp.EvalCount, nil
}

// tagsResponse is the Ollama model listing response body.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels returns the models the server has available.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model API error (status %d)", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("parsing model list: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// GetMetrics returns a snapshot of usage counters.
func (c *Client) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:   atomic.LoadInt64(&c.metrics.TotalRequests),
		SuccessRequests: atomic.LoadInt64(&c.metrics.SuccessRequests),
		FailedRequests:  atomic.LoadInt64(&c.metrics.FailedRequests),
		TotalTokens:     atomic.LoadInt64(&c.metrics.TotalTokens),
		TotalLatencyMs:  atomic.LoadInt64(&c.metrics.TotalLatencyMs),
	}
}

// ParseAnalysis parses the model's structural analysis. When the response
// is not well-formed JSON, it returns the normalized fallback shape with
// the raw text preserved and empty structural fields.
func ParseAnalysis(text string) domain.HTMLAnalysis {
	jsonStr := extractJSON(text)
	if jsonStr == "" {
		return fallbackAnalysis(text)
	}

	var analysis domain.HTMLAnalysis
	if err := json.Unmarshal([]byte(jsonStr), &analysis); err != nil {
		return fallbackAnalysis(text)
	}
	analysis.RawResponse = ""
	return analysis
}

func fallbackAnalysis(text string) domain.HTMLAnalysis {
	return domain.HTMLAnalysis{
		Forms:       []domain.AnalyzedForm{},
		Buttons:     []domain.AnalyzedButton{},
		Links:       []domain.AnalyzedLink{},
		Navigation:  []domain.AnalyzedNav{},
		RawResponse: text,
	}
}
