package bdd

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/testweaver/testweaver/internal/config"
	"github.com/testweaver/testweaver/internal/domain"
)

// Feature names used for generated scenarios.
const (
	featureForms      = "Form Operations"
	featureValidation = "Form Validation"
	featureNavigation = "Navigation"
	featureButtons    = "Button Operations"
	featurePerf       = "Performance"
)

// maxNavigationScenarios caps link scenarios so large pages do not drown
// the suite in low-value navigation checks.
const maxNavigationScenarios = 5

// Generator builds BDD features from scraped page data and the AI's
// scenario text.
type Generator struct {
	cfg    config.BDDConfig
	logger *zap.Logger
}

// NewGenerator creates a BDD generator.
func NewGenerator(cfg config.BDDConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{cfg: cfg, logger: logger}
}

// Generate merges scenarios parsed from the AI's Gherkin text with
// deterministic scenarios derived from the scraped page, grouped into
// features. Output order is stable for identical inputs.
func (g *Generator) Generate(scrape *domain.ScrapeResult, analysis *domain.AIAnalysis) []domain.BDDFeature {
	var scenarios []parsedScenario

	if analysis != nil && analysis.BDDScenarios != "" {
		scenarios = append(scenarios, ParseGherkin(analysis.BDDScenarios)...)
	}

	if scrape != nil {
		scenarios = append(scenarios, g.formScenarios(scrape.Forms)...)
		scenarios = append(scenarios, g.navigationScenarios(scrape.Links)...)
		scenarios = append(scenarios, g.buttonScenarios(scrape.Buttons)...)
		if g.cfg.IncludePerformanceTests {
			scenarios = append(scenarios, g.performanceScenario(scrape))
		}
	}

	features := groupByFeature(scenarios)

	total := 0
	for _, f := range features {
		total += len(f.Scenarios)
	}
	g.logger.Info("bdd features generated",
		zap.Int("features", len(features)),
		zap.Int("scenarios", total))

	return features
}

// WriteFeatures writes the features as .feature files under dir.
func (g *Generator) WriteFeatures(features []domain.BDDFeature, dir string) ([]string, error) {
	return WriteFeatureFiles(features, dir)
}

// parsedScenario is a scenario plus the feature it belongs to.
type parsedScenario struct {
	Feature  string
	Scenario domain.BDDScenario
}

func (g *Generator) formScenarios(forms []domain.Form) []parsedScenario {
	var scenarios []parsedScenario

	for i, form := range forms {
		if len(form.Fields) == 0 {
			continue
		}

		formName := form.ID
		if formName == "" {
			formName = fmt.Sprintf("form_%d", i)
		}

		scenarios = append(scenarios, parsedScenario{
			Feature: featureForms,
			Scenario: domain.BDDScenario{
				Name:  fmt.Sprintf("Fill in and submit the %s form successfully", formName),
				Given: []string{fmt.Sprintf("the user is on the page containing the %s form", formName)},
				When: []string{
					"the user fills in all required fields with valid data",
					"the user clicks the submit button",
				},
				Then: []string{
					"the form is submitted successfully",
					"a success message is displayed",
				},
				Tags:     []string{"@form", "@positive"},
				Priority: "high",
				TestType: "functional",
			},
		})

		if !g.cfg.IncludeNegativeTests {
			continue
		}

		for _, field := range form.Fields {
			if !field.Required {
				continue
			}
			scenarios = append(scenarios, parsedScenario{
				Feature: featureValidation,
				Scenario: domain.BDDScenario{
					Name:  fmt.Sprintf("An error is shown when the %s field is left empty", field.Name),
					Given: []string{fmt.Sprintf("the user is on the page containing the %s form", formName)},
					When: []string{
						fmt.Sprintf("the user leaves the %s field empty", field.Name),
						"the user clicks the submit button",
					},
					Then: []string{
						"the form is not submitted",
						fmt.Sprintf("an error message is displayed for the %s field", field.Name),
					},
					Tags:     []string{"@form", "@validation", "@negative"},
					Priority: "medium",
					TestType: "validation",
				},
			})
		}
	}

	return scenarios
}

func (g *Generator) navigationScenarios(links []domain.Link) []parsedScenario {
	var scenarios []parsedScenario

	for _, link := range links {
		if len(scenarios) >= maxNavigationScenarios {
			break
		}
		if !link.IsInternal || link.Text == "" {
			continue
		}

		scenarios = append(scenarios, parsedScenario{
			Feature: featureNavigation,
			Scenario: domain.BDDScenario{
				Name:  fmt.Sprintf("Clicking the %q link", link.Text),
				Given: []string{"the user is on the home page"},
				When:  []string{fmt.Sprintf("the user clicks the %q link", link.Text)},
				Then: []string{
					"a new page is loaded",
					"the page is displayed successfully",
				},
				Tags:     []string{"@navigation", "@link"},
				Priority: "low",
				TestType: "functional",
			},
		})
	}

	return scenarios
}

func (g *Generator) buttonScenarios(buttons []domain.Button) []parsedScenario {
	var scenarios []parsedScenario

	for _, button := range buttons {
		// Submit buttons are already covered by form scenarios.
		if button.Text == "" || button.Type == "submit" || button.Disabled {
			continue
		}

		scenarios = append(scenarios, parsedScenario{
			Feature: featureButtons,
			Scenario: domain.BDDScenario{
				Name:  fmt.Sprintf("Clicking the %q button", button.Text),
				Given: []string{"the user is on the page"},
				When:  []string{fmt.Sprintf("the user clicks the %q button", button.Text)},
				Then: []string{
					"the click is registered",
					"the expected action is performed",
				},
				Tags:     []string{"@button", "@interaction"},
				Priority: "medium",
				TestType: "functional",
			},
		})
	}

	return scenarios
}

func (g *Generator) performanceScenario(scrape *domain.ScrapeResult) parsedScenario {
	return parsedScenario{
		Feature: featurePerf,
		Scenario: domain.BDDScenario{
			Name:     "The page loads within an acceptable time",
			Given:    []string{fmt.Sprintf("the user navigates to %s", scrape.URL)},
			When:     []string{"the page finishes loading"},
			Then:     []string{"the load completes in under 5 seconds"},
			Tags:     []string{"@performance"},
			Priority: "low",
			TestType: "performance",
		},
	}
}

// groupByFeature groups scenarios into features preserving first-seen
// feature order and per-feature scenario order.
func groupByFeature(scenarios []parsedScenario) []domain.BDDFeature {
	var order []string
	byName := make(map[string]*domain.BDDFeature)

	for _, ps := range scenarios {
		name := ps.Feature
		if name == "" {
			name = "General"
		}

		feature, ok := byName[name]
		if !ok {
			feature = &domain.BDDFeature{
				Name:        name,
				Description: fmt.Sprintf("Test scenarios for %s", strings.ToLower(name)),
				Tags:        []string{"@automated"},
			}
			byName[name] = feature
			order = append(order, name)
		}
		feature.Scenarios = append(feature.Scenarios, ps.Scenario)
	}

	features := make([]domain.BDDFeature, 0, len(order))
	for _, name := range order {
		features = append(features, *byName[name])
	}
	return features
}

// FeatureSummary aggregates scenario counts across features.
type FeatureSummary struct {
	TotalFeatures  int            `json:"total_features"`
	TotalScenarios int            `json:"total_scenarios"`
	ByPriority     map[string]int `json:"by_priority"`
	ByType         map[string]int `json:"by_type"`
	ByTag          map[string]int `json:"by_tag"`
}

// Summary computes counts by priority, type and tag.
func Summary(features []domain.BDDFeature) FeatureSummary {
	summary := FeatureSummary{
		TotalFeatures: len(features),
		ByPriority:    make(map[string]int),
		ByType:        make(map[string]int),
		ByTag:         make(map[string]int),
	}

	for _, feature := range features {
		summary.TotalScenarios += len(feature.Scenarios)
		for _, scenario := range feature.Scenarios {
			summary.ByPriority[scenario.Priority]++
			summary.ByType[scenario.TestType]++
			for _, tag := range scenario.Tags {
				summary.ByTag[tag]++
			}
		}
	}

	return summary
}
