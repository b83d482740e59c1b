package bdd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/testweaver/testweaver/internal/domain"
)

// ParseGherkin parses free-form Gherkin text, typically model output, into
// scenarios. It is deliberately lenient: tags, comments and unknown lines
// are skipped, and And continues whichever step block is open.
func ParseGherkin(text string) []parsedScenario {
	var scenarios []parsedScenario

	currentFeature := ""
	var current *parsedScenario
	currentBlock := ""

	flush := func() {
		if current != nil && (len(current.Scenario.Given) > 0 ||
			len(current.Scenario.When) > 0 || len(current.Scenario.Then) > 0) {
			scenarios = append(scenarios, *current)
		}
		current = nil
		currentBlock = ""
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch {
		case strings.HasPrefix(line, "Feature:"):
			flush()
			currentFeature = strings.TrimSpace(strings.TrimPrefix(line, "Feature:"))

		case strings.HasPrefix(line, "Scenario:"):
			flush()
			current = &parsedScenario{
				Feature: currentFeature,
				Scenario: domain.BDDScenario{
					Name:     strings.TrimSpace(strings.TrimPrefix(line, "Scenario:")),
					Tags:     []string{"@automated"},
					Priority: "medium",
					TestType: "functional",
				},
			}

		case current == nil:
			// Step lines outside a scenario are noise.

		case strings.HasPrefix(line, "Given "):
			currentBlock = "given"
			current.Scenario.Given = append(current.Scenario.Given, strings.TrimPrefix(line, "Given "))

		case strings.HasPrefix(line, "When "):
			currentBlock = "when"
			current.Scenario.When = append(current.Scenario.When, strings.TrimPrefix(line, "When "))

		case strings.HasPrefix(line, "Then "):
			currentBlock = "then"
			current.Scenario.Then = append(current.Scenario.Then, strings.TrimPrefix(line, "Then "))

		case strings.HasPrefix(line, "And "), strings.HasPrefix(line, "But "):
			step := strings.TrimPrefix(strings.TrimPrefix(line, "And "), "But ")
			switch currentBlock {
			case "given":
				current.Scenario.Given = append(current.Scenario.Given, step)
			case "when":
				current.Scenario.When = append(current.Scenario.When, step)
			case "then":
				current.Scenario.Then = append(current.Scenario.Then, step)
			}
		}
	}
	flush()

	return scenarios
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify turns a feature name into a safe filename stem.
func slugify(name string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// WriteFeatureFiles materializes one Gherkin .feature file per feature
// under dir and returns the written paths in feature order.
func WriteFeatureFiles(features []domain.BDDFeature, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating feature dir: %w", err)
	}

	paths := make([]string, 0, len(features))
	for _, feature := range features {
		path := filepath.Join(dir, slugify(feature.Name)+".feature")
		if err := os.WriteFile(path, []byte(RenderFeature(feature)), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// RenderFeature renders a feature as Gherkin text.
func RenderFeature(feature domain.BDDFeature) string {
	var sb strings.Builder

	if len(feature.Tags) > 0 {
		sb.WriteString(strings.Join(feature.Tags, " "))
		sb.WriteString("\n")
	}
	sb.WriteString("Feature: " + feature.Name + "\n")
	if feature.Description != "" {
		sb.WriteString("  " + feature.Description + "\n")
	}
	sb.WriteString("\n")

	if feature.Background != "" {
		sb.WriteString("  Background:\n")
		sb.WriteString("    Given " + feature.Background + "\n\n")
	}

	for _, scenario := range feature.Scenarios {
		if len(scenario.Tags) > 0 {
			sb.WriteString("  " + strings.Join(scenario.Tags, " ") + "\n")
		}
		sb.WriteString("  Scenario: " + scenario.Name + "\n")
		writeSteps(&sb, "Given", scenario.Given)
		writeSteps(&sb, "When", scenario.When)
		writeSteps(&sb, "Then", scenario.Then)
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeSteps(sb *strings.Builder, keyword string, steps []string) {
	for i, step := range steps {
		prefix := keyword
		if i > 0 {
			prefix = "And"
		}
		sb.WriteString("    " + prefix + " " + step + "\n")
	}
}
