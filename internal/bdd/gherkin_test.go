package bdd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testweaver/testweaver/internal/domain"
)

const modelGherkin = `Here are the scenarios you asked for:

Feature: User Login
  Scenario: Successful login with valid credentials
    Given the user is on the login page
    And the user has a registered account
    When the user enters valid credentials
    And the user clicks the sign in button
    Then the user is redirected to the dashboard

  Scenario: Login fails with wrong password
    Given the user is on the login page
    When the user enters a wrong password
    Then an error message is displayed
    But the account is not locked

Feature: Search
  Scenario: Searching returns results
    Given the user is on the home page
    When the user searches for "pricing"
    Then matching results are shown
`

func TestParseGherkin(t *testing.T) {
	scenarios := ParseGherkin(modelGherkin)
	require.Len(t, scenarios, 3)

	first := scenarios[0]
	assert.Equal(t, "User Login", first.Feature)
	assert.Equal(t, "Successful login with valid credentials", first.Scenario.Name)
	assert.Equal(t, []string{
		"the user is on the login page",
		"the user has a registered account",
	}, first.Scenario.Given)
	assert.Len(t, first.Scenario.When, 2)
	assert.Len(t, first.Scenario.Then, 1)
	assert.Equal(t, []string{"@automated"}, first.Scenario.Tags)
	assert.Equal(t, "medium", first.Scenario.Priority)

	second := scenarios[1]
	assert.Equal(t, "User Login", second.Feature)
	// "But" continues the open Then block.
	assert.Equal(t, []string{
		"an error message is displayed",
		"the account is not locked",
	}, second.Scenario.Then)

	third := scenarios[2]
	assert.Equal(t, "Search", third.Feature)
}

func TestParseGherkin_NoStructure(t *testing.T) {
	assert.Empty(t, ParseGherkin("The page has a login form and a search box."))
	assert.Empty(t, ParseGherkin(""))
}

func TestParseGherkin_ScenarioWithoutSteps(t *testing.T) {
	text := "Feature: Empty\n  Scenario: Nothing here\nFeature: Next\n"
	assert.Empty(t, ParseGherkin(text))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Form Operations", "form-operations"},
		{"  Navigation  ", "navigation"},
		{"User Login & Auth", "user-login-auth"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in))
	}
}

func TestWriteFeatureFiles(t *testing.T) {
	dir := t.TempDir()

	features := []domain.BDDFeature{
		{
			Name:        "Form Operations",
			Description: "Test scenarios for form operations",
			Tags:        []string{"@automated"},
			Scenarios: []domain.BDDScenario{
				{
					Name:  "Submit the login form",
					Given: []string{"the user is on the login page"},
					When:  []string{"the user fills in valid data", "the user clicks submit"},
					Then:  []string{"the form is submitted"},
					Tags:  []string{"@form", "@positive"},
				},
			},
		},
		{Name: "Navigation"},
	}

	paths, err := WriteFeatureFiles(features, dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "form-operations.feature"), paths[0])
	assert.Equal(t, filepath.Join(dir, "navigation.feature"), paths[1])

	content, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	text := string(content)

	assert.Contains(t, text, "Feature: Form Operations")
	assert.Contains(t, text, "@form @positive")
	assert.Contains(t, text, "Scenario: Submit the login form")
	assert.Contains(t, text, "    Given the user is on the login page")
	assert.Contains(t, text, "    When the user fills in valid data")
	assert.Contains(t, text, "    And the user clicks submit")
	assert.Contains(t, text, "    Then the form is submitted")
}

func TestRenderFeature_RoundTrip(t *testing.T) {
	feature := domain.BDDFeature{
		Name: "Navigation",
		Scenarios: []domain.BDDScenario{
			{
				Name:  "Clicking the pricing link",
				Given: []string{"the user is on the home page"},
				When:  []string{`the user clicks the "Pricing" link`},
				Then:  []string{"a new page is loaded"},
			},
		},
	}

	parsed := ParseGherkin(RenderFeature(feature))
	require.Len(t, parsed, 1)
	assert.Equal(t, "Navigation", parsed[0].Feature)
	assert.Equal(t, feature.Scenarios[0].Name, parsed[0].Scenario.Name)
	assert.Equal(t, feature.Scenarios[0].Given, parsed[0].Scenario.Given)
	assert.Equal(t, feature.Scenarios[0].Then, parsed[0].Scenario.Then)
	assert.False(t, strings.Contains(RenderFeature(feature), "Background:"))
}
