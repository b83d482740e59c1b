package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/testweaver/testweaver/internal/config"
	"github.com/testweaver/testweaver/internal/domain"
)

// Scraper drives a browser session to capture page snapshots. The browser
// is launched lazily on the first scrape and held until Close; the
// orchestrator's cleanup guarantee covers exactly this resource.
type Scraper struct {
	cfg    config.ScraperConfig
	logger *zap.Logger

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

// New creates a scraper. No browser process is started yet.
func New(cfg config.ScraperConfig, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{cfg: cfg, logger: logger}
}

// ensureBrowser launches the driver and browser on first use.
func (s *Scraper) ensureBrowser() (playwright.Browser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser != nil {
		return s.browser, nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	browserType := pw.Chromium
	switch s.cfg.Browser {
	case "firefox":
		browserType = pw.Firefox
	case "webkit":
		browserType = pw.WebKit
	}

	browser, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(s.cfg.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launching %s: %w", s.cfg.Browser, err)
	}

	s.logger.Info("browser session started",
		zap.String("browser", s.cfg.Browser),
		zap.Bool("headless", s.cfg.Headless))

	s.pw = pw
	s.browser = browser
	return browser, nil
}

// Scrape navigates to url and captures the page snapshot: HTML, extracted
// elements, HTTP status and wall-clock load time.
func (s *Scraper) Scrape(ctx context.Context, url string) (*domain.ScrapeResult, error) {
	if url == "" {
		return nil, fmt.Errorf("url is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := s.ensureBrowser()
	if err != nil {
		return nil, err
	}

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(s.cfg.UserAgent),
		Viewport:  &playwright.Size{Width: 1920, Height: 1080},
	})
	if err != nil {
		return nil, fmt.Errorf("creating browser context: %w", err)
	}
	defer browserCtx.Close()

	page, err := browserCtx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}
	defer page.Close()

	s.logger.Info("scraping page", zap.String("url", url))
	start := time.Now()

	resp, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(float64(s.cfg.Timeout().Milliseconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", url, err)
	}

	statusCode := 200
	if resp != nil {
		statusCode = resp.Status()
		if statusCode >= 400 {
			return nil, fmt.Errorf("page %s returned status %d", url, statusCode)
		}
	}

	// Settle time for dynamic content after the load event.
	if wait := s.cfg.WaitTime(); wait > 0 {
		page.WaitForTimeout(float64(wait.Milliseconds()))
	}

	loadTime := time.Since(start)

	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("reading page content: %w", err)
	}

	result, err := Extract(html, url)
	if err != nil {
		return nil, fmt.Errorf("extracting elements: %w", err)
	}

	result.LoadTime = loadTime
	result.StatusCode = statusCode
	result.ScrapedAt = time.Now()

	s.logger.Info("page scraped",
		zap.String("url", url),
		zap.Duration("load_time", loadTime),
		zap.Int("forms", len(result.Forms)),
		zap.Int("links", len(result.Links)))

	return result, nil
}

// Close releases the browser session and driver. Safe to call multiple
// times and before any scrape.
func (s *Scraper) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			firstErr = err
		}
		s.browser = nil
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.pw = nil
	}
	return firstErr
}
