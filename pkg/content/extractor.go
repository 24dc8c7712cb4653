// Package content pulls readable text out of post markup the selector based reader could not handle
package content

import (
	"errors"
	"fmt"
	"strings"

	"github.com/markusmobius/go-trafilatura"
)

// ErrNoContent is returned when a fragment has no readable text
var ErrNoContent = errors.New("no text content")

// TextExtractor extracts the main text of an HTML fragment using trafilatura
type TextExtractor struct {
	opts trafilatura.Options
}

// NewTextExtractor creates a new text extractor
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{opts: trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		ExcludeTables:   false,
		IncludeImages:   false,
		IncludeLinks:    false,
		Deduplicate:     true,
	}}
}

// ExtractText returns the text of a single feed item's markup
func (e *TextExtractor) ExtractText(fragment string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", ErrNoContent
	}

	// trafilatura expects a document, the fragment becomes the article body
	doc := "<!DOCTYPE html><html><head><title></title></head><body><article>" + fragment + "</article></body></html>"
	result, err := trafilatura.Extract(strings.NewReader(doc), e.opts)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	if result == nil {
		return "", ErrNoContent
	}

	text := strings.TrimSpace(result.ContentText)
	if text == "" {
		return "", ErrNoContent
	}
	return text, nil
}
