package intel

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extractor pulls the intel text out of a store page.
// found is false when the page does not carry the section at all.
type Extractor interface {
	Extract(page io.Reader) (snippet string, found bool, err error)
}

// WhatsNewExtractor looks for the "What's New" heading and returns the text of
// its enclosing container with the heading label removed.
//
// Store markup changes without notice; a miss is an expected outcome, not an error.
type WhatsNewExtractor struct {
	Label           string
	HeadingSelector string
}

// NewWhatsNewExtractor returns the extractor used against Play Store listings.
func NewWhatsNewExtractor() *WhatsNewExtractor {
	return &WhatsNewExtractor{Label: "What's New", HeadingSelector: "h2"}
}

func (e *WhatsNewExtractor) Extract(page io.Reader) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return "", false, fmt.Errorf("failed to parse store page: %w", err)
	}

	label := e.Label
	if label == "" {
		label = "What's New"
	}
	selector := e.HeadingSelector
	if selector == "" {
		selector = "h2"
	}

	var heading *goquery.Selection
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.EqualFold(collapse(s.Text()), label) {
			heading = s
			return false
		}
		return true
	})
	if heading == nil {
		return "", false, nil
	}

	headingText := collapse(heading.Text())
	container := collapse(heading.Parent().Text())
	snippet := collapse(strings.ReplaceAll(container, headingText, ""))
	return snippet, true, nil
}

// collapse normalises runs of whitespace to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
