// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assets

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/meshintel/corpus-report/internal/ris"
	"github.com/meshintel/corpus-report/internal/textutil"
	"github.com/meshintel/corpus-report/pkg/types"
)

var (
	doiRe  = regexp.MustCompile(`(?i)10\.\d{4,9}/[-._;()/:A-Z0-9]+`)
	yearRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

	pureNumericLineRe = regexp.MustCompile(`^[0-9.\- ]+$`)
)

// bannedTitlePrefixes reject boilerplate lines during first-page title
// extraction.
var bannedTitlePrefixes = []string{
	"downloaded from",
	"contents",
	"keywords",
	"research",
	"accepted",
	"doi",
	"http",
	"www",
	"open access",
	"journal",
	"article",
	"available online",
}

// DetectDOI finds the first DOI-shaped token in text, trimming trailing
// punctuation.
func DetectDOI(text string) string {
	m := doiRe.FindString(text)
	if m == "" {
		return ""
	}
	return strings.TrimRight(m, ".,);]")
}

// DetectYear returns the first plausible publication year in text.
func DetectYear(text string) string {
	return yearRe.FindString(text)
}

// ExtractTitleFromPage applies the first-page title heuristic: take the
// first non-boilerplate line of at least 10 characters, then merge the next
// candidate into it when both are short enough to be a wrapped title.
func ExtractTitleFromPage(pageText string) string {
	var lines []string
	for _, raw := range strings.Split(pageText, "\n") {
		if line := textutil.CleanWhitespace(raw); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > 50 {
		lines = lines[:50]
	}

	var candidates []string
	for _, line := range lines {
		lower := strings.ToLower(line)
		banned := false
		for _, prefix := range bannedTitlePrefixes {
			if strings.HasPrefix(lower, prefix) {
				banned = true
				break
			}
		}
		if banned || len(line) < 10 || pureNumericLineRe.MatchString(line) {
			continue
		}
		candidates = append(candidates, line)
	}
	if len(candidates) == 0 {
		return ""
	}

	title := candidates[0]
	if len(candidates) > 1 && len(title) < 90 {
		next := candidates[1]
		if len(next) < 90 && !strings.HasSuffix(next, ":") &&
			endsAlnum(title) && startsAlnum(next) {
			if joined := title + " " + next; len(joined) <= 180 {
				title = joined
			}
		}
	}
	return title
}

func endsAlnum(s string) bool {
	if s == "" {
		return false
	}
	return isAlnum(rune(s[len(s)-1]))
}

func startsAlnum(s string) bool {
	if s == "" {
		return false
	}
	return isAlnum(rune(s[0]))
}

func isAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// buildMetadata resolves per-paper metadata with the documented precedence:
// bibliographic-index match (by DOI, then title), then first-page heuristic,
// then file-name stem.
func buildMetadata(paper types.UniquePaper, pages []string, idx ris.Index) types.PaperMetadata {
	var firstPage string
	if len(pages) > 0 {
		firstPage = pages[0]
	}
	firstThree := strings.Join(pages[:min(3, len(pages))], "\n")

	doi := DetectDOI(firstThree)
	titleCandidate := ExtractTitleFromPage(firstPage)

	md := types.PaperMetadata{
		PaperID:               paper.PaperID,
		CanonicalFileName:     paper.CanonicalFileName,
		CanonicalRelativePath: paper.CanonicalRelativePath,
		AliasFileNames:        paper.AliasFileNames,
		Title:                 titleCandidate,
		DOI:                   doi,
		Year:                  DetectYear(firstThree),
		Authors:               []string{},
		TitleSource:           "unknown",
		DOISource:             "unknown",
	}
	if titleCandidate != "" {
		md.TitleSource = "first_page_heuristic"
	}
	if doi != "" {
		md.DOISource = "first_3_pages"
	}

	if entry := idx.Find(doi, titleCandidate); entry != nil {
		md.RISMatched = true
		if entry.Title != "" {
			md.Title = entry.Title
			md.TitleSource = "ris"
		}
		if entry.DOI != "" {
			md.DOI = entry.DOI
			md.DOISource = "ris"
		}
		if entry.Journal != "" {
			md.Journal = entry.Journal
		}
		if entry.Year != "" {
			md.Year = entry.Year
		}
		if len(entry.Authors) > 0 {
			md.Authors = entry.Authors
		}
		if entry.URL != "" {
			md.URL = entry.URL
		}
	}

	if md.Title == "" {
		stem := strings.TrimSuffix(paper.CanonicalFileName, filepath.Ext(paper.CanonicalFileName))
		md.Title = stem
		md.TitleSource = "filename_stem"
	}

	md.VancouverCitation = ris.Vancouver(ris.Entry{
		Authors: md.Authors,
		Title:   md.Title,
		Journal: md.Journal,
		Year:    md.Year,
		DOI:     md.DOI,
		URL:     md.URL,
	}, md.Title, md.URL)

	return md
}

// buildTextQuality classifies how much usable text extraction produced.
func buildTextQuality(fullText string, pages []string) types.TextQualitySummary {
	nonempty := 0
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			nonempty++
		}
	}

	quality := types.QualityGood
	if len(fullText) < 3000 {
		quality = types.QualityLow
	}
	if len(fullText) < 300 {
		quality = types.QualityVeryLow
	}

	return types.TextQualitySummary{
		CharCount:         len(fullText),
		WordCount:         len(strings.Fields(fullText)),
		PageCountFromText: len(pages),
		NonemptyPages:     nonempty,
		Quality:           quality,
	}
}
