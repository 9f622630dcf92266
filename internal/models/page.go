package models

import "strings"

// WordInfo is a single token with its bounding box. Coordinates use a
// top-left origin with Y growing downward.
type WordInfo struct {
	Text   string  `json:"text"`
	X0     float64 `json:"x0"`
	X1     float64 `json:"x1"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// CenterX returns the horizontal midpoint of the word.
func (w WordInfo) CenterX() float64 {
	return (w.X0 + w.X1) / 2
}

// PageText holds the extracted content of one page. Words is empty for
// text-only backends such as OCR.
type PageText struct {
	PageNum int        `json:"pageNum"`
	Text    string     `json:"text"`
	Words   []WordInfo `json:"words,omitempty"`
}

// IsEmpty reports whether the page has no visible text.
func (p PageText) IsEmpty() bool {
	return strings.TrimSpace(p.Text) == ""
}

// HasWords reports whether positional data is available.
func (p PageText) HasWords() bool {
	return len(p.Words) > 0
}

// Lines splits the page text on newlines.
func (p PageText) Lines() []string {
	return strings.Split(p.Text, "\n")
}

// AllEmpty reports whether every page is empty. An empty slice counts as empty.
func AllEmpty(pages []PageText) bool {
	for _, p := range pages {
		if !p.IsEmpty() {
			return false
		}
	}
	return true
}

// CountNonEmpty returns the number of pages carrying text.
func CountNonEmpty(pages []PageText) int {
	n := 0
	for _, p := range pages {
		if !p.IsEmpty() {
			n++
		}
	}
	return n
}

// JoinText concatenates the text of the given pages separated by newlines.
func JoinText(pages []PageText) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n")
}
