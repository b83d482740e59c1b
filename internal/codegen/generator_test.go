package codegen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testweaver/testweaver/internal/config"
	"github.com/testweaver/testweaver/internal/domain"
)

func loginScrape() *domain.ScrapeResult {
	return &domain.ScrapeResult{
		URL:   "https://example.com",
		Title: "Example",
		Forms: []domain.Form{{
			ID: "login",
			Fields: []domain.FormField{
				{Name: "email", Type: "email", Required: true},
				{Name: "password", Type: "password", Required: true},
				{Name: "remember", Type: "checkbox"},
			},
		}},
	}
}

func loginFeatures() []domain.BDDFeature {
	return []domain.BDDFeature{
		{
			Name: "Form Operations",
			Scenarios: []domain.BDDScenario{
				{
					Name:  "Fill in and submit the login form successfully",
					Given: []string{"the user is on the page containing the login form"},
					When: []string{
						"the user fills in all required fields with valid data",
						"the user clicks the submit button",
					},
					Then: []string{"the form is submitted successfully"},
					Tags: []string{"@form", "@positive"},
				},
				{
					Name:  "An error is shown when the email field is left empty",
					Given: []string{"the user is on the page containing the login form"},
					When: []string{
						"the user leaves the email field empty",
						"the user clicks the submit button",
					},
					Then: []string{"an error message is displayed for the email field"},
				},
			},
		},
		{
			Name: "Navigation",
			Scenarios: []domain.BDDScenario{
				{
					Name:  `Clicking the "Pricing" link`,
					Given: []string{"the user is on the home page"},
					When:  []string{`the user clicks the "Pricing" link`},
					Then:  []string{"a new page is loaded"},
				},
			},
		},
		{Name: "Empty Feature"},
	}
}

func TestGenerate_ProjectLayout(t *testing.T) {
	gen := NewGenerator(config.AutomationConfig{Framework: "playwright", MaxWorkers: 4}, nil)

	project, err := gen.Generate(loginScrape(), loginFeatures())
	require.NoError(t, err)

	assert.Contains(t, project.Files, "playwright.config.ts")
	assert.Contains(t, project.Files, "package.json")
	assert.Contains(t, project.Files, "utils/helpers.ts")
	assert.Contains(t, project.Files, "tests/form-operations.spec.ts")
	assert.Contains(t, project.Files, "tests/navigation.spec.ts")

	// Features without scenarios produce no spec file.
	assert.NotContains(t, project.Files, "tests/empty-feature.spec.ts")

	assert.Equal(t, 3, project.TestCount)
	assert.Positive(t, project.LinesOfCode)
}

func TestGenerate_ConfigSubstitution(t *testing.T) {
	gen := NewGenerator(config.AutomationConfig{
		ParallelExecution:   true,
		MaxWorkers:          3,
		ScreenshotOnFailure: true,
	}, nil)

	project, err := gen.Generate(loginScrape(), nil)
	require.NoError(t, err)

	cfg := project.Files["playwright.config.ts"]
	assert.Contains(t, cfg, "baseURL: 'https://example.com'")
	assert.Contains(t, cfg, "fullyParallel: true")
	assert.Contains(t, cfg, "workers: 3")
	assert.Contains(t, cfg, "screenshot: 'only-on-failure'")
	assert.Contains(t, cfg, "video: 'off'")
	assert.NotContains(t, cfg, "{{.")

	pkg := project.Files["package.json"]
	assert.Contains(t, pkg, `"name": "example-com-tests"`)
}

func TestGenerate_SpecContent(t *testing.T) {
	gen := NewGenerator(config.AutomationConfig{}, nil)

	project, err := gen.Generate(loginScrape(), loginFeatures())
	require.NoError(t, err)

	spec := project.Files["tests/form-operations.spec.ts"]
	assert.Contains(t, spec, "test.describe('Form Operations'")
	assert.Contains(t, spec, "// When: the user clicks the submit button")
	assert.Contains(t, spec, `button[type="submit"], input[type="submit"]`)
	assert.Contains(t, spec, `await page.locator('[name="email"]').fill('');`)
	assert.Contains(t, spec, `.error, [role="alert"]`)

	// Scraped required fields drive explicit, type-appropriate fills.
	assert.Contains(t, spec, `await page.locator('[name="email"]').fill('user@example.com');`)
	assert.Contains(t, spec, `await page.locator('[name="password"]').fill('S3cretPass!42');`)
	assert.NotContains(t, spec, `[name="remember"]`)

	nav := project.Files["tests/navigation.spec.ts"]
	assert.Contains(t, nav, "getByRole('link', { name: 'Pricing' })")
	assert.Contains(t, nav, "await expect(page).toHaveTitle(/.+/);")
}

func TestGenerate_FillFallbackWithoutScrapedFields(t *testing.T) {
	gen := NewGenerator(config.AutomationConfig{}, nil)
	scrape := &domain.ScrapeResult{URL: "https://example.com"}

	project, err := gen.Generate(scrape, loginFeatures())
	require.NoError(t, err)

	spec := project.Files["tests/form-operations.spec.ts"]
	assert.Contains(t, spec, "await fillVisibleFields(page);")
}

func TestGenerate_UnsupportedFramework(t *testing.T) {
	gen := NewGenerator(config.AutomationConfig{Framework: "cypress"}, nil)

	_, err := gen.Generate(loginScrape(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cypress")
}

func TestGenerate_EmptyURL(t *testing.T) {
	gen := NewGenerator(config.AutomationConfig{}, nil)

	_, err := gen.Generate(nil, nil)
	require.Error(t, err)

	_, err = gen.Generate(&domain.ScrapeResult{}, nil)
	require.Error(t, err)
}

func TestWrite(t *testing.T) {
	gen := NewGenerator(config.AutomationConfig{}, nil)

	project, err := gen.Generate(loginScrape(), loginFeatures())
	require.NoError(t, err)

	dir := t.TempDir()
	paths, err := gen.Write(project, dir)
	require.NoError(t, err)
	assert.Len(t, paths, len(project.Files))

	data, err := os.ReadFile(filepath.Join(dir, "tests", "form-operations.spec.ts"))
	require.NoError(t, err)
	assert.Equal(t, project.Files["tests/form-operations.spec.ts"], string(data))
}

func TestProjectName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com", "example-com-tests"},
		{"https://example.com/login?next=/", "example-com-tests"},
		{"http://localhost:8080/app", "localhost-8080-tests"},
		{"", "generated-tests-tests"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, projectName(tt.url), tt.url)
	}
}
