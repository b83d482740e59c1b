package domain

import "time"

// ScrapeResult holds everything extracted from a single page visit.
// It is produced once per run by the scraper and treated as read-only
// by every downstream stage.
type ScrapeResult struct {
	URL        string            `json:"url"`
	Title      string            `json:"title"`
	HTML       string            `json:"html"`
	Forms      []Form            `json:"forms"`
	Links      []Link            `json:"links"`
	Buttons    []Button          `json:"buttons"`
	Inputs     []Input           `json:"inputs"`
	Images     []Image           `json:"images"`
	MetaTags   map[string]string `json:"meta_tags"`
	Structure  PageStructure     `json:"page_structure"`
	LoadTime   time.Duration     `json:"load_time"`
	StatusCode int               `json:"status_code"`
	ScrapedAt  time.Time         `json:"scraped_at"`
}

// Form represents a form element with its fields.
type Form struct {
	ID         string      `json:"id,omitempty"`
	Name       string      `json:"name,omitempty"`
	Action     string      `json:"action"`
	Method     string      `json:"method"`
	Fields     []FormField `json:"fields"`
	SubmitText string      `json:"submit_text,omitempty"`
}

// FormField represents a single input inside a form.
type FormField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Label       string `json:"label,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Required    bool   `json:"required"`
}

// Link represents an anchor element.
type Link struct {
	Text       string `json:"text"`
	Href       string `json:"href"`
	IsInternal bool   `json:"is_internal"`
}

// Button represents a clickable button element.
type Button struct {
	ID       string `json:"id,omitempty"`
	Text     string `json:"text"`
	Type     string `json:"type"`
	Disabled bool   `json:"disabled"`
}

// Input represents an input element found outside any form.
type Input struct {
	Type        string `json:"type"`
	Name        string `json:"name,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Image represents an img element.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

// PageStructure summarizes the navigational shape of a page.
type PageStructure struct {
	HeadingCounts map[string]int `json:"heading_counts"`
	SectionCount  int            `json:"section_count"`
	NavItems      []NavItem      `json:"nav_items"`
	HasHeader     bool           `json:"has_header"`
	HasFooter     bool           `json:"has_footer"`
}

// NavItem is a single navigation menu entry.
type NavItem struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// HTMLAnalysis is the structured part of an AI analysis. When the model
// response cannot be parsed, RawResponse carries the original text and the
// structural fields stay empty, so consumers never branch on format.
type HTMLAnalysis struct {
	Forms       []AnalyzedForm   `json:"forms"`
	Buttons     []AnalyzedButton `json:"buttons"`
	Links       []AnalyzedLink   `json:"links"`
	Navigation  []AnalyzedNav    `json:"navigation"`
	RawResponse string           `json:"raw_response,omitempty"`
}

// IsFallback reports whether structured parsing failed and only the raw
// model output is available.
func (a HTMLAnalysis) IsFallback() bool {
	return a.RawResponse != "" &&
		len(a.Forms) == 0 && len(a.Buttons) == 0 &&
		len(a.Links) == 0 && len(a.Navigation) == 0
}

// AnalyzedForm is a form as the model sees it.
type AnalyzedForm struct {
	ID     string          `json:"id"`
	Action string          `json:"action"`
	Method string          `json:"method"`
	Fields []AnalyzedField `json:"fields"`
}

// AnalyzedField is a form field as the model sees it.
type AnalyzedField struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Required   bool   `json:"required"`
	Validation string `json:"validation,omitempty"`
}

// AnalyzedButton is a clickable element as the model sees it.
type AnalyzedButton struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Action string `json:"action,omitempty"`
}

// AnalyzedLink is a link as the model sees it.
type AnalyzedLink struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// AnalyzedNav is a navigation entry as the model sees it.
type AnalyzedNav struct {
	MenuItem string `json:"menu_item"`
	URL      string `json:"url"`
}

// AIAnalysis is the complete AI stage output: the (possibly fallback)
// structural analysis, the generated scenario text, and call telemetry.
type AIAnalysis struct {
	HTMLAnalysis HTMLAnalysis  `json:"html_analysis"`
	BDDScenarios string        `json:"bdd_scenarios"`
	Model        string        `json:"model"`
	TokensUsed   int           `json:"tokens_used"`
	ResponseTime time.Duration `json:"response_time"`
}

// BDDScenario is a single behavior specification.
type BDDScenario struct {
	Name     string   `json:"scenario"`
	Given    []string `json:"given"`
	When     []string `json:"when"`
	Then     []string `json:"then"`
	Tags     []string `json:"tags"`
	Priority string   `json:"priority"`
	TestType string   `json:"test_type"`
}

// BDDFeature groups related scenarios. Scenario order is generation order
// and must be stable for report reproducibility.
type BDDFeature struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Scenarios   []BDDScenario `json:"scenarios"`
	Background  string        `json:"background,omitempty"`
	Tags        []string      `json:"tags"`
}

// TestStatus is the outcome of one executed test.
type TestStatus string

const (
	TestStatusPassed  TestStatus = "passed"
	TestStatusFailed  TestStatus = "failed"
	TestStatusSkipped TestStatus = "skipped"
)

// TestResult is the outcome of a single generated test.
type TestResult struct {
	Name     string        `json:"name"`
	Suite    string        `json:"suite,omitempty"`
	Status   TestStatus    `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// TestExecutionResult aggregates one execution of the generated suite.
type TestExecutionResult struct {
	Total         int           `json:"total"`
	Passed        int           `json:"passed"`
	Failed        int           `json:"failed"`
	Skipped       int           `json:"skipped"`
	Results       []TestResult  `json:"results"`
	TotalDuration time.Duration `json:"total_duration"`
}

// PerformanceMetrics is the run-scoped timing record. Fields are nil until
// the corresponding stage boundary sets them, and they are filled strictly
// left to right.
type PerformanceMetrics struct {
	StartTime          *time.Time     `json:"start_time,omitempty"`
	EndTime            *time.Time     `json:"end_time,omitempty"`
	PageLoadTime       *time.Duration `json:"page_load_time,omitempty"`
	AIResponseTime     *time.Duration `json:"ai_response_time,omitempty"`
	TestExecutionTime  *time.Duration `json:"test_execution_time,omitempty"`
	TotalExecutionTime *time.Duration `json:"total_execution_time,omitempty"`
}

// ExecutionResult is the terminal artifact of a full run. It is assembled
// exactly once, on success or failure, and never mutated afterwards.
type ExecutionResult struct {
	RunID          string               `json:"run_id"`
	Success        bool                 `json:"success"`
	ExecutionTime  time.Duration        `json:"execution_time"`
	ScrapedData    *ScrapeResult        `json:"scraped_data,omitempty"`
	AIAnalysis     *AIAnalysis          `json:"ai_analysis,omitempty"`
	BDDFeatures    []BDDFeature         `json:"bdd_features,omitempty"`
	TestResults    *TestExecutionResult `json:"test_results,omitempty"`
	Reports        map[string]string    `json:"reports"`
	Metrics        PerformanceMetrics   `json:"metrics"`
	ErrorMessage   string               `json:"error_message,omitempty"`
	ArtifactsSaved bool                 `json:"artifacts_saved"`
}
