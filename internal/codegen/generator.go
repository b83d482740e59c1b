package codegen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/testweaver/testweaver/internal/config"
	"github.com/testweaver/testweaver/internal/domain"
)

// Project holds a complete generated test project as a file map, path
// relative to the project root.
type Project struct {
	Files       map[string]string
	TargetURL   string
	TestCount   int
	LinesOfCode int
	GeneratedAt time.Time
}

// Generator turns BDD features into a runnable Playwright project.
type Generator struct {
	cfg    config.AutomationConfig
	logger *zap.Logger
}

// NewGenerator creates a test code generator.
func NewGenerator(cfg config.AutomationConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{cfg: cfg, logger: logger}
}

// Generate builds the project file map from the scraped page and the
// features. Form fields from the scrape drive selector-accurate fill steps.
// Only the playwright framework is supported.
func (g *Generator) Generate(scrape *domain.ScrapeResult, features []domain.BDDFeature) (*Project, error) {
	if g.cfg.Framework != "" && g.cfg.Framework != "playwright" {
		return nil, fmt.Errorf("unsupported automation framework %q", g.cfg.Framework)
	}
	if scrape == nil || scrape.URL == "" {
		return nil, fmt.Errorf("target url is empty")
	}
	targetURL := scrape.URL

	project := &Project{
		Files:       make(map[string]string),
		TargetURL:   targetURL,
		GeneratedAt: time.Now(),
	}

	project.Files["playwright.config.ts"] = g.renderPlaywrightConfig(targetURL)
	project.Files["package.json"] = g.renderPackageJSON(targetURL, features)
	project.Files[".gitignore"] = gitignoreTemplate
	project.Files["README.md"] = g.renderReadme(targetURL, features, project.GeneratedAt)
	project.Files["utils/helpers.ts"] = helpersTemplate

	fields := collectFields(scrape)
	for _, feature := range features {
		if len(feature.Scenarios) == 0 {
			continue
		}
		filename := fmt.Sprintf("tests/%s.spec.ts", slugify(feature.Name))
		project.Files[filename] = g.generateSpecFile(feature, fields)
		project.TestCount += len(feature.Scenarios)
	}

	project.LinesOfCode = countLOC(project.Files)

	g.logger.Info("test project generated",
		zap.String("url", targetURL),
		zap.Int("files", len(project.Files)),
		zap.Int("tests", project.TestCount),
		zap.Int("lines", project.LinesOfCode))

	return project, nil
}

// Write materializes the project under dir and returns the written paths.
func (g *Generator) Write(project *Project, dir string) ([]string, error) {
	paths := make([]string, 0, len(project.Files))

	for name, content := range project.Files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}

func (g *Generator) renderPlaywrightConfig(targetURL string) string {
	screenshot := "off"
	if g.cfg.ScreenshotOnFailure {
		screenshot = "only-on-failure"
	}
	video := "off"
	if g.cfg.VideoRecording {
		video = "retain-on-failure"
	}

	content := playwrightConfigTemplate
	content = strings.ReplaceAll(content, "{{.BaseURL}}", targetURL)
	content = strings.ReplaceAll(content, "{{.Parallel}}", fmt.Sprintf("%t", g.cfg.ParallelExecution))
	content = strings.ReplaceAll(content, "{{.Workers}}", fmt.Sprintf("%d", g.workers()))
	content = strings.ReplaceAll(content, "{{.Screenshot}}", screenshot)
	content = strings.ReplaceAll(content, "{{.Video}}", video)
	return content
}

func (g *Generator) renderPackageJSON(targetURL string, features []domain.BDDFeature) string {
	content := packageJSONTemplate
	content = strings.ReplaceAll(content, "{{.ProjectName}}", projectName(targetURL))
	content = strings.ReplaceAll(content, "{{.BaseURL}}", targetURL)
	return content
}

func (g *Generator) renderReadme(targetURL string, features []domain.BDDFeature, generatedAt time.Time) string {
	scenarios := 0
	for _, f := range features {
		scenarios += len(f.Scenarios)
	}

	content := readmeTemplate
	content = strings.ReplaceAll(content, "{{.ProjectName}}", projectName(targetURL))
	content = strings.ReplaceAll(content, "{{.BaseURL}}", targetURL)
	content = strings.ReplaceAll(content, "{{.TotalFeatures}}", fmt.Sprintf("%d", len(features)))
	content = strings.ReplaceAll(content, "{{.TotalScenarios}}", fmt.Sprintf("%d", scenarios))
	content = strings.ReplaceAll(content, "{{.GeneratedAt}}", generatedAt.Format("2006-01-02 15:04:05"))
	return content
}

// collectFields flattens the scraped forms' fields in document order,
// dropping unnamed fields and later duplicates.
func collectFields(scrape *domain.ScrapeResult) []domain.FormField {
	var fields []domain.FormField
	seen := make(map[string]bool)

	for _, form := range scrape.Forms {
		for _, field := range form.Fields {
			if field.Name == "" || seen[field.Name] {
				continue
			}
			seen[field.Name] = true
			fields = append(fields, field)
		}
	}
	return fields
}

// generateSpecFile renders one feature into a Playwright spec file.
func (g *Generator) generateSpecFile(feature domain.BDDFeature, fields []domain.FormField) string {
	var buf bytes.Buffer

	buf.WriteString("import { test, expect } from '@playwright/test';\n")
	buf.WriteString("import { fillVisibleFields } from '../utils/helpers';\n\n")
	buf.WriteString(fmt.Sprintf("test.describe('%s', () => {\n", escapeString(feature.Name)))
	buf.WriteString("  test.beforeEach(async ({ page }) => {\n")
	buf.WriteString("    await page.goto('/');\n")
	buf.WriteString("  });\n\n")

	for _, scenario := range feature.Scenarios {
		title := escapeString(scenario.Name)
		if len(scenario.Tags) > 0 {
			title = title + " " + escapeString(strings.Join(scenario.Tags, " "))
		}

		buf.WriteString(fmt.Sprintf("  test('%s', async ({ page }) => {\n", title))
		g.generateSteps(&buf, "Given", scenario.Given, fields)
		g.generateSteps(&buf, "When", scenario.When, fields)
		g.generateSteps(&buf, "Then", scenario.Then, fields)
		buf.WriteString("  });\n\n")
	}

	buf.WriteString("});\n")
	return buf.String()
}

var quotedTextRe = regexp.MustCompile(`["']([^"']+)["']`)

// generateSteps maps Gherkin step text onto Playwright actions. The mapping
// is heuristic: click and fill steps become real interactions using the
// scraped form fields where known, everything else becomes a soft structural
// assertion so generated tests stay runnable against pages the model has
// only described.
func (g *Generator) generateSteps(buf *bytes.Buffer, keyword string, steps []string, fields []domain.FormField) {
	for _, step := range steps {
		buf.WriteString(fmt.Sprintf("    // %s: %s\n", keyword, escapeComment(step)))

		lower := strings.ToLower(step)
		quoted := extractQuoted(step)

		switch {
		case strings.Contains(lower, "click") && strings.Contains(lower, "link"):
			if quoted != "" {
				buf.WriteString(fmt.Sprintf("    await page.getByRole('link', { name: '%s' }).first().click();\n", escapeString(quoted)))
			} else {
				buf.WriteString("    await page.locator('a[href]').first().click();\n")
			}
			buf.WriteString("    await page.waitForLoadState('load');\n")

		case strings.Contains(lower, "click") && strings.Contains(lower, "button"):
			if quoted != "" {
				buf.WriteString(fmt.Sprintf("    await page.getByRole('button', { name: '%s' }).first().click();\n", escapeString(quoted)))
			} else if strings.Contains(lower, "submit") {
				buf.WriteString("    await page.locator('button[type=\"submit\"], input[type=\"submit\"]').first().click();\n")
			} else {
				buf.WriteString("    await page.locator('button').first().click();\n")
			}

		case strings.Contains(lower, "leaves the") && strings.Contains(lower, "empty"):
			if field := fieldFromStep(step); field != "" {
				buf.WriteString(fmt.Sprintf("    await page.locator('[name=\"%s\"]').fill('');\n", escapeString(field)))
			}

		case strings.Contains(lower, "fill"), strings.Contains(lower, "enter"):
			switch {
			case fieldFromStep(step) != "":
				name := fieldFromStep(step)
				buf.WriteString(fmt.Sprintf("    await page.locator('[name=\"%s\"]').fill('%s');\n",
					escapeString(name), escapeString(valueFor(fieldByName(fields, name)))))
			case len(fields) > 0 && strings.Contains(lower, "required"):
				for _, field := range fields {
					if !field.Required {
						continue
					}
					buf.WriteString(fmt.Sprintf("    await page.locator('[name=\"%s\"]').fill('%s');\n",
						escapeString(field.Name), escapeString(valueFor(field))))
				}
			default:
				buf.WriteString("    await fillVisibleFields(page);\n")
			}

		case strings.Contains(lower, "navigates to"), strings.Contains(lower, "is on the"):
			buf.WriteString("    await expect(page.locator('body')).toBeVisible();\n")

		case keyword == "Then" && strings.Contains(lower, "error message"):
			buf.WriteString("    await expect(page.locator('.error, [role=\"alert\"], .invalid-feedback').first()).toBeVisible();\n")

		case keyword == "Then" && (strings.Contains(lower, "load") || strings.Contains(lower, "displayed")):
			buf.WriteString("    await expect(page).toHaveTitle(/.+/);\n")

		case keyword == "Then":
			buf.WriteString("    await expect(page.locator('body')).toBeVisible();\n")
		}
		buf.WriteString("\n")
	}
}

// fieldFromStep pulls a field name out of "the user leaves the email field
// empty" style steps.
var fieldStepRe = regexp.MustCompile(`the ([a-zA-Z0-9_-]+) field`)

func fieldFromStep(step string) string {
	if m := fieldStepRe.FindStringSubmatch(step); len(m) > 1 {
		return m[1]
	}
	return ""
}

func fieldByName(fields []domain.FormField, name string) domain.FormField {
	for _, field := range fields {
		if field.Name == name {
			return field
		}
	}
	return domain.FormField{Name: name}
}

// valueFor picks sample input matching the field's declared type.
func valueFor(field domain.FormField) string {
	switch field.Type {
	case "email":
		return "user@example.com"
	case "password":
		return "S3cretPass!42"
	case "number":
		return "42"
	case "tel":
		return "5551234567"
	case "url":
		return "https://example.com"
	case "date":
		return "2026-01-15"
	default:
		return "test value"
	}
}

func extractQuoted(step string) string {
	if m := quotedTextRe.FindStringSubmatch(step); len(m) > 1 {
		return m[1]
	}
	return ""
}

func (g *Generator) workers() int {
	if g.cfg.MaxWorkers > 0 {
		return g.cfg.MaxWorkers
	}
	return 1
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	s = slugRe.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

// projectName derives an npm-safe package name from the target URL host.
func projectName(targetURL string) string {
	name := regexp.MustCompile(`^https?://`).ReplaceAllString(targetURL, "")
	if i := strings.IndexAny(name, "/?#"); i >= 0 {
		name = name[:i]
	}
	name = slugify(name)
	if name == "" {
		name = "generated-tests"
	}
	return name + "-tests"
}

func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "'", "\\'")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

func escapeComment(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}

func countLOC(files map[string]string) int {
	total := 0
	for _, content := range files {
		total += strings.Count(content, "\n") + 1
	}
	return total
}
