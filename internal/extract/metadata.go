package extract

import (
	"strings"
	"unicode/utf8"
)

// DefaultSummaryLength is the preview length used for file listings
const DefaultSummaryLength = 500

// Summarize returns the first limit runes of text, with "..." when truncated
func Summarize(text string, limit int) string {
	if text == "" {
		return ""
	}
	if limit <= 0 {
		limit = DefaultSummaryLength
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "..."
}

// TextStats holds simple size measures of extracted text
type TextStats struct {
	Characters int `json:"character_count"`
	Words      int `json:"word_count"`
	Lines      int `json:"line_count"`
	Paragraphs int `json:"paragraph_count"`
}

// Stats measures extracted text
func Stats(text string) TextStats {
	if text == "" {
		return TextStats{}
	}
	return TextStats{
		Characters: utf8.RuneCountInString(text),
		Words:      len(strings.Fields(text)),
		Lines:      strings.Count(text, "\n") + 1,
		Paragraphs: strings.Count(text, "\n\n") + 1,
	}
}
