// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textutil holds the small text-normalization helpers shared by the
// extraction and summarization stages.
package textutil

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	sentenceEndRe  = regexp.MustCompile(`([.!?])\s+`)
	nonAlnumRe     = regexp.MustCompile(`[^a-z0-9]+`)
)

// CleanWhitespace collapses all whitespace runs to single spaces and trims
// the ends.
func CleanWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// Sentences splits text into sentences on terminal punctuation followed by
// whitespace. The input is whitespace-flattened first; empty pieces are
// dropped.
func Sentences(text string) []string {
	flat := CleanWhitespace(text)
	if flat == "" {
		return nil
	}
	// Keep the punctuation with the sentence it ends.
	marked := sentenceEndRe.ReplaceAllString(flat, "$1\x00")
	parts := strings.Split(marked, "\x00")

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NormalizeKey lowercases text and strips every non-alphanumeric rune.
// Used for title matching and duplicate suppression.
func NormalizeKey(text string) string {
	return nonAlnumRe.ReplaceAllString(strings.ToLower(text), "")
}
