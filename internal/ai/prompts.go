package ai

import (
	"fmt"
	"strings"

	"github.com/testweaver/testweaver/internal/domain"
)

// maxPromptHTML caps how much page HTML is sent to the model.
const maxPromptHTML = 4000

const analysisSystemPrompt = `Analyze the following HTML and identify the testable elements:

1. Forms and input fields that can be tested
2. Clickable elements (buttons, links)
3. Fields that require data entry
4. Fields that need validation checks
5. Page navigation

Return ONLY valid JSON in this format:
{
  "forms": [{
    "id": "form_id",
    "action": "form_action",
    "method": "POST",
    "fields": [{
      "name": "field_name",
      "type": "text",
      "required": true,
      "validation": "validation_rule"
    }]
  }],
  "buttons": [{"id": "button_id", "text": "button_text", "action": "click_action"}],
  "links": [{"href": "link_url", "text": "link_text"}],
  "navigation": [{"menu_item": "menu_name", "url": "menu_url"}]
}`

// analysisPrompt builds the structural analysis prompt for one page.
func analysisPrompt(html, url string) string {
	if len(html) > maxPromptHTML {
		html = html[:maxPromptHTML]
	}

	var sb strings.Builder
	sb.WriteString(analysisSystemPrompt)
	sb.WriteString("\n\nURL: ")
	sb.WriteString(url)
	sb.WriteString("\n\nHTML:\n")
	sb.WriteString(html)
	return sb.String()
}

// scenarioPrompt builds the BDD scenario generation prompt from a
// structural analysis. It works for the fallback shape too: the raw
// response is forwarded as-is when structure is unavailable.
func scenarioPrompt(analysis domain.HTMLAnalysis) string {
	var sb strings.Builder

	sb.WriteString("Write BDD test scenarios in Gherkin for a web page with the following elements.\n")
	sb.WriteString("Use Feature:, Scenario:, Given, When, Then and And keywords.\n\n")

	if analysis.IsFallback() {
		sb.WriteString("Page analysis (free text):\n")
		raw := analysis.RawResponse
		if len(raw) > maxPromptHTML {
			raw = raw[:maxPromptHTML]
		}
		sb.WriteString(raw)
	} else {
		if len(analysis.Forms) > 0 {
			sb.WriteString("Forms:\n")
			for _, form := range analysis.Forms {
				sb.WriteString(fmt.Sprintf("- %s (%s %s) with %d fields\n",
					form.ID, form.Method, form.Action, len(form.Fields)))
			}
		}
		if len(analysis.Buttons) > 0 {
			sb.WriteString("Buttons:\n")
			for _, btn := range analysis.Buttons {
				sb.WriteString(fmt.Sprintf("- %q\n", btn.Text))
			}
		}
		if len(analysis.Links) > 0 {
			sb.WriteString("Links:\n")
			for _, link := range analysis.Links {
				sb.WriteString(fmt.Sprintf("- %q -> %s\n", link.Text, link.Href))
			}
		}
		if len(analysis.Navigation) > 0 {
			sb.WriteString("Navigation:\n")
			for _, nav := range analysis.Navigation {
				sb.WriteString(fmt.Sprintf("- %s -> %s\n", nav.MenuItem, nav.URL))
			}
		}
	}

	sb.WriteString("\n\nExample format:\n")
	sb.WriteString(`Feature: Home page
Scenario: Page loads successfully
Given the user opens the website
When the page finishes loading
Then the page title should be visible
`)

	return sb.String()
}
