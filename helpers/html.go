// Package helpers provides utility functions for cleaning scraped metadata values.
package helpers

import (
	"html"
	"regexp"
	"strings"
)

var (
	// HTML tag patterns
	htmlTagRegex     = regexp.MustCompile(`</?[a-zA-Z!][^>]*>`)
	htmlCommentRegex = regexp.MustCompile(`<!--[\s\S]*?-->`)
	multiSpaceRegex  = regexp.MustCompile(`[^\S\n]+`)
	anySpaceRegex    = regexp.MustCompile(`\s+`)
	blankLinesRegex  = regexp.MustCompile(`\n\s*\n(\s*\n)*`)

	// Specific tag patterns for better text extraction
	brTagRegex    = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockEndRegex = regexp.MustCompile(`(?i)</(?:p|div|li|h[1-6]|blockquote|tr)>`)
)

// StripHTML removes HTML tags from a string and decodes HTML entities.
// Paragraph breaks survive as a blank line; all other whitespace runs collapse
// to one space.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}

	// Remove comments first
	s = htmlCommentRegex.ReplaceAllString(s, "")

	// Convert block-level closing tags to paragraph breaks
	s = blockEndRegex.ReplaceAllString(s, "\n\n")
	s = brTagRegex.ReplaceAllString(s, "\n")

	// Remove all remaining HTML tags
	s = htmlTagRegex.ReplaceAllString(s, "")

	// Decode HTML entities
	s = html.UnescapeString(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(multiSpaceRegex.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")

	s = blankLinesRegex.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// IsHTML checks if a string appears to contain HTML markup.
func IsHTML(s string) bool {
	return htmlTagRegex.MatchString(s)
}

// NormalizeWhitespace normalizes all whitespace to single spaces and trims.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(anySpaceRegex.ReplaceAllString(s, " "))
}
