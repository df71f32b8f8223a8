// Package presentation turns an analysis Result into display-ready text shared by
// the HTML dashboard and the terminal renderer.
package presentation

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vadim/threadstat/internal/domain/analysis/entity"
)

const ellipsis = "..."

var printer = message.NewPrinter(language.English)

// FormatCount renders n with thousands grouping, e.g. 45230 -> "45,230"
func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

// Truncate shortens s to at most max runes, marking the cut with an ellipsis.
// A non-positive max disables truncation.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}

	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return string(runes[:max])
	}
	return string(runes[:max-len(ellipsis)]) + ellipsis
}

// SourceLabel describes where a Result came from
func SourceLabel(source string) string {
	switch source {
	case entity.SourceAnalysis:
		return "Threads API (live)"
	case entity.SourceBasic:
		return "Threads API (basic)"
	case entity.SourceMock:
		return "Mock data"
	default:
		return source
	}
}
