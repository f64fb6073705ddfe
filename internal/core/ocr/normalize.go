package ocr

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var sentenceEndRe = regexp.MustCompile(`([.!?]) `)

// Normalize strips non-printable runes, collapses whitespace to single spaces
// and puts a line break after sentence-ending punctuation.
func Normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == utf8.RuneError {
			return -1
		}
		if unicode.IsSpace(r) || unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s)
	s = strings.Join(strings.Fields(s), " ")
	return sentenceEndRe.ReplaceAllString(s, "$1\n")
}

// JoinPages joins page texts in order with a blank line, skipping empty pages.
func JoinPages(texts []string) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, "\n\n")
}
