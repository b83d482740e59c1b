package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/testweaver/testweaver/internal/domain"
)

// Extract parses the captured HTML and pulls out the structural elements
// downstream stages work with. It has no browser dependency so it can be
// exercised against static fixtures.
func Extract(html, pageURL string) (*domain.ScrapeResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	base, _ := url.Parse(pageURL)

	result := &domain.ScrapeResult{
		URL:       pageURL,
		Title:     strings.TrimSpace(doc.Find("title").First().Text()),
		HTML:      html,
		Forms:     extractForms(doc),
		Links:     extractLinks(doc, base),
		Buttons:   extractButtons(doc),
		Inputs:    extractStandaloneInputs(doc),
		Images:    extractImages(doc, base),
		MetaTags:  extractMetaTags(doc),
		Structure: extractStructure(doc),
	}
	return result, nil
}

func extractForms(doc *goquery.Document) []domain.Form {
	var forms []domain.Form

	doc.Find("form").Each(func(_ int, sel *goquery.Selection) {
		form := domain.Form{
			ID:     sel.AttrOr("id", ""),
			Name:   sel.AttrOr("name", ""),
			Action: sel.AttrOr("action", ""),
			Method: strings.ToUpper(sel.AttrOr("method", "GET")),
		}

		sel.Find("input, textarea, select").Each(func(_ int, field *goquery.Selection) {
			fieldType := field.AttrOr("type", "text")
			if goquery.NodeName(field) == "textarea" {
				fieldType = "textarea"
			}
			if goquery.NodeName(field) == "select" {
				fieldType = "select"
			}
			if fieldType == "hidden" || fieldType == "submit" {
				return
			}

			_, required := field.Attr("required")
			form.Fields = append(form.Fields, domain.FormField{
				Name:        field.AttrOr("name", ""),
				Type:        fieldType,
				Label:       fieldLabel(doc, field),
				Placeholder: field.AttrOr("placeholder", ""),
				Required:    required,
			})
		})

		submit := sel.Find(`button[type="submit"], input[type="submit"]`).First()
		if submit.Length() > 0 {
			text := strings.TrimSpace(submit.Text())
			if text == "" {
				text = submit.AttrOr("value", "")
			}
			form.SubmitText = text
		}

		forms = append(forms, form)
	})

	return forms
}

// fieldLabel resolves the label text for a field via its id.
func fieldLabel(doc *goquery.Document, field *goquery.Selection) string {
	id, ok := field.Attr("id")
	if !ok || id == "" {
		return ""
	}
	return strings.TrimSpace(doc.Find(`label[for="` + id + `"]`).First().Text())
}

func extractLinks(doc *goquery.Document, base *url.URL) []domain.Link {
	var links []domain.Link

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := sel.AttrOr("href", "")
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") {
			return
		}

		links = append(links, domain.Link{
			Text:       strings.TrimSpace(sel.Text()),
			Href:       resolveURL(base, href),
			IsInternal: isInternal(base, href),
		})
	})

	return links
}

func extractButtons(doc *goquery.Document) []domain.Button {
	var buttons []domain.Button

	doc.Find(`button, input[type="button"], input[type="submit"]`).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			text = sel.AttrOr("value", "")
		}

		btnType := sel.AttrOr("type", "button")
		_, disabled := sel.Attr("disabled")

		buttons = append(buttons, domain.Button{
			ID:       sel.AttrOr("id", ""),
			Text:     text,
			Type:     btnType,
			Disabled: disabled,
		})
	})

	return buttons
}

// extractStandaloneInputs collects inputs that live outside any form,
// search boxes and the like.
func extractStandaloneInputs(doc *goquery.Document) []domain.Input {
	var inputs []domain.Input

	doc.Find("input").Each(func(_ int, sel *goquery.Selection) {
		if sel.ParentsFiltered("form").Length() > 0 {
			return
		}
		inputType := sel.AttrOr("type", "text")
		if inputType == "hidden" || inputType == "submit" || inputType == "button" {
			return
		}

		inputs = append(inputs, domain.Input{
			Type:        inputType,
			Name:        sel.AttrOr("name", ""),
			Placeholder: sel.AttrOr("placeholder", ""),
		})
	})

	return inputs
}

func extractImages(doc *goquery.Document, base *url.URL) []domain.Image {
	var images []domain.Image

	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		images = append(images, domain.Image{
			Src: resolveURL(base, sel.AttrOr("src", "")),
			Alt: sel.AttrOr("alt", ""),
		})
	})

	return images
}

func extractMetaTags(doc *goquery.Document) map[string]string {
	meta := make(map[string]string)

	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		name := sel.AttrOr("name", sel.AttrOr("property", ""))
		if name == "" {
			return
		}
		meta[name] = sel.AttrOr("content", "")
	})

	return meta
}

func extractStructure(doc *goquery.Document) domain.PageStructure {
	structure := domain.PageStructure{
		HeadingCounts: make(map[string]int),
	}

	for _, level := range []string{"h1", "h2", "h3", "h4", "h5", "h6"} {
		if count := doc.Find(level).Length(); count > 0 {
			structure.HeadingCounts[level] = count
		}
	}

	structure.SectionCount = doc.Find("section, article, main").Length()
	structure.HasHeader = doc.Find("header").Length() > 0
	structure.HasFooter = doc.Find("footer").Length() > 0

	doc.Find("nav a[href]").Each(func(_ int, sel *goquery.Selection) {
		structure.NavItems = append(structure.NavItems, domain.NavItem{
			Text: strings.TrimSpace(sel.Text()),
			Href: sel.AttrOr("href", ""),
		})
	})

	return structure
}

func resolveURL(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func isInternal(base *url.URL, href string) bool {
	if base == nil {
		return false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return false
	}
	if !ref.IsAbs() {
		return true
	}
	return ref.Host == base.Host
}
