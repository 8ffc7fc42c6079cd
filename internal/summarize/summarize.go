// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize builds structured per-paper summaries from the extracted
// assets. Summarization is deliberately non-generative: every summary
// paragraph is assembled from sentences quoted out of the paper's own text,
// selected by keyword passes, and every claim carries an evidence anchor
// back to a source page. Two runs over identical inputs produce identical
// output.
//
// See docs/ARCHITECTURE.md § Summarization.
package summarize

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/meshintel/corpus-report/internal/contentstore"
	"github.com/meshintel/corpus-report/internal/pdftool"
	"github.com/meshintel/corpus-report/internal/textutil"
	"github.com/meshintel/corpus-report/pkg/types"
)

// abstractRe locates the abstract block in the leading pages: everything
// between the "Abstract" marker and the keywords/introduction heading.
var abstractRe = regexp.MustCompile(
	`(?is)\babstract\b[:\s\-]*(.+?)(?:\n\s*(?:keywords?|1\.?\s+introduction|introduction)\b|$)`)

const (
	abstractCap         = 2400
	abstractFallbackCap = 2000

	sentencePoolPages = 10
	minLineLen        = 20
	minSentenceLen    = 25
	maxSentenceLen    = 320

	anchorQuoteCap = 280
	anchorCap      = 14

	keyEquationCap = 5
)

// Keyword passes, applied in order against the sentence pool. Limits are per
// pass.
var (
	objectiveKeywords = []string{"this paper", "this study", "we present", "we investigate", "we propose", "aim", "objective"}
	methodsKeywords   = []string{"method", "numerical", "simulation", "finite", "spectral", "lattice", "solver", "scheme", "equation"}
	findingsKeywords  = []string{"result", "show", "found", "demonstrat", "agree", "accuracy", "performance"}
	limitKeywords     = []string{"limitation", "future", "however", "assume", "restricted", "challenge", "uncertain"}
)

const (
	objectiveLimit = 2
	methodsLimit   = 3
	findingsLimit  = 3
	limitLimit     = 2
)

// Placeholder paragraphs used when a keyword pass finds nothing. The wording
// tells the reader which extraction step came up empty.
const (
	objectiveFallback = "Automated extraction could not isolate a clear objective sentence; see evidence anchors for source excerpts."
	methodsFallback   = "Method-specific language was sparse in extracted text; this summary relies on metadata and equation snippets."
	findingsFallback  = "Clear result statements were not confidently extracted from text; conclusions should be read directly in the source PDF."
	limitFallback     = "Explicit limitations were not clearly stated in extracted text; treat this as an extraction-confidence caveat."

	equationFallback = "No extractable governing equation found in machine-readable text."
	evidenceFallback = "No evidence text extracted."
)

// PageSentence is one pooled sentence with its source page.
type PageSentence struct {
	Page int
	Text string
}

// AbstractExcerpt finds the abstract in the first three pages. When the
// marker is absent the first two pages are flattened instead. The returned
// page is always 1: the excerpt serves as a fallback anchor quote.
func AbstractExcerpt(pages []string) (string, int) {
	if len(pages) == 0 {
		return "", 1
	}

	firstThree := strings.Join(pages[:min(3, len(pages))], "\n")
	if m := abstractRe.FindStringSubmatch(firstThree); m != nil {
		return truncate(textutil.CleanWhitespace(m[1]), abstractCap), 1
	}

	fallback := textutil.CleanWhitespace(strings.Join(pages[:min(2, len(pages))], "\n"))
	return truncate(fallback, abstractFallbackCap), 1
}

// CollectSentences pools candidate sentences from the leading pages. Short
// lines and short sentences are noise (headers, affiliations, page furniture)
// and are dropped; long sentences are clamped.
func CollectSentences(pages []string, pageLimit int) []PageSentence {
	var pool []PageSentence
	for pageIdx, pageText := range pages[:min(pageLimit, len(pages))] {
		for _, rawLine := range strings.Split(pageText, "\n") {
			line := textutil.CleanWhitespace(rawLine)
			if len(line) < minLineLen {
				continue
			}
			for _, sent := range textutil.Sentences(line) {
				if len(sent) < minSentenceLen {
					continue
				}
				pool = append(pool, PageSentence{Page: pageIdx + 1, Text: truncate(sent, maxSentenceLen)})
			}
		}
	}
	return pool
}

// PickSentences selects up to limit pool sentences matching any keyword, in
// pool order, then pads with the earliest unused sentences. Duplicate
// sentences (case- and whitespace-insensitive) are never selected twice.
func PickSentences(pool []PageSentence, keywords []string, limit int) []PageSentence {
	var chosen []PageSentence
	seen := make(map[string]bool)

	for _, item := range pool {
		lower := strings.ToLower(item.Text)
		matched := false
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		norm := textutil.CleanWhitespace(lower)
		if seen[norm] {
			continue
		}
		seen[norm] = true
		chosen = append(chosen, item)
		if len(chosen) >= limit {
			return chosen
		}
	}

	for _, item := range pool {
		norm := textutil.CleanWhitespace(strings.ToLower(item.Text))
		if seen[norm] {
			continue
		}
		seen[norm] = true
		chosen = append(chosen, item)
		if len(chosen) >= limit {
			break
		}
	}
	return chosen
}

// Paragraph joins selected sentences into one summary paragraph, or returns
// the fallback text when nothing was selected.
func Paragraph(items []PageSentence, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.Text
	}
	return strings.Join(parts, " ")
}

// BuildAnchors turns the selected sentences and key equations into evidence
// anchors, deduplicated on (tag, page, lowercased quote) and capped.
func BuildAnchors(objective, methods, findings, limitations []PageSentence, equations []types.EquationCandidate) []types.EvidenceAnchor {
	var anchors []types.EvidenceAnchor
	add := func(items []PageSentence, tag string) {
		for _, item := range items {
			quote := textutil.CleanWhitespace(item.Text)
			if quote == "" {
				continue
			}
			anchors = append(anchors, types.EvidenceAnchor{
				Tag:   tag,
				Page:  item.Page,
				Quote: truncate(quote, anchorQuoteCap),
			})
		}
	}

	add(objective, "objective")
	add(methods, "methods")
	add(findings, "findings")
	add(limitations, "limitations")
	for _, eq := range equations {
		quote := textutil.CleanWhitespace(eq.Equation)
		if quote == "" {
			continue
		}
		anchors = append(anchors, types.EvidenceAnchor{
			Tag:   "equation",
			Page:  eq.Page,
			Quote: truncate(quote, anchorQuoteCap),
		})
	}

	type key struct {
		tag   string
		page  int
		quote string
	}
	seen := make(map[key]bool)
	unique := anchors[:0]
	for _, a := range anchors {
		k := key{a.Tag, a.Page, strings.ToLower(a.Quote)}
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, a)
	}
	if len(unique) > anchorCap {
		unique = unique[:anchorCap]
	}
	return unique
}

// Run summarizes every manifest paper from its extraction artifacts and
// writes the corpus summary file to outPath. Papers whose metadata artifact
// is missing are warned about and skipped; citation numbers still follow the
// manifest positions of the summarized papers.
func Run(man *types.ManifestUnique, manifestPath, assetsDir, outPath string, w io.Writer) (*types.SummaryFile, error) {
	var (
		summaries    []types.PaperSummary
		bibliography []types.BibliographyItem
		dupGroups    int
	)

	for i, paper := range man.Papers {
		if paper.DuplicateCount > 0 {
			dupGroups++
		}

		paperDir := filepath.Join(assetsDir, "papers", paper.PaperID)
		metadataPath := filepath.Join(paperDir, "metadata.json")
		if _, err := os.Stat(metadataPath); err != nil {
			fmt.Fprintf(w, "warning: missing metadata for %s; skipping\n", paper.PaperID)
			continue
		}

		var metadata types.PaperMetadata
		if err := contentstore.ReadJSON(metadataPath, &metadata); err != nil {
			return nil, err
		}

		summary, err := summarizePaper(paper, i+1, paperDir, metadata)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, summary)
		bibliography = append(bibliography, types.BibliographyItem{
			ID:       summary.CitationNumber,
			PaperID:  summary.PaperID,
			Title:    summary.Title,
			Citation: summary.Citation,
			DOI:      summary.DOI,
			URL:      summary.URL,
		})
		fmt.Fprintf(w, "summarized: %s figs=%d eq=%d\n",
			paper.PaperID, summary.FigureCount, summary.EquationCount)
	}

	out := &types.SummaryFile{
		GeneratedAtUTC: contentstore.UTCNowISO(),
		ManifestPath:   manifestPath,
		AssetsDir:      assetsDir,
		CorpusSummary: types.CorpusCounts{
			SourceTotalFiles:  man.SourceTotalFiles,
			SourceUniqueFiles: man.SourceUniqueFiles,
			SummarizedRecords: len(summaries),
			DuplicateGroups:   dupGroups,
		},
		Papers:       summaries,
		Bibliography: bibliography,
		Validation:   validate(summaries),
	}

	if err := contentstore.WriteJSON(outPath, out); err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "\nSummaries: %d papers -> %s\n", len(summaries), outPath)
	return out, nil
}

func summarizePaper(paper types.UniquePaper, citationNumber int, paperDir string, metadata types.PaperMetadata) (types.PaperSummary, error) {
	pages := loadPages(filepath.Join(paperDir, "text.txt"))

	var equations []types.EquationCandidate
	eqPath := filepath.Join(paperDir, "equation_candidates.json")
	if _, err := os.Stat(eqPath); err == nil {
		if err := contentstore.ReadJSON(eqPath, &equations); err != nil {
			return types.PaperSummary{}, err
		}
	}

	var figIndex types.FigureIndex
	figPath := filepath.Join(paperDir, "figures_index.json")
	if _, err := os.Stat(figPath); err == nil {
		if err := contentstore.ReadJSON(figPath, &figIndex); err != nil {
			return types.PaperSummary{}, err
		}
	}
	figures := figIndex.Figures
	if figures == nil {
		figures = []types.Figure{}
	}

	abstract, abstractPage := AbstractExcerpt(pages)
	pool := CollectSentences(pages, sentencePoolPages)

	objective := PickSentences(pool, objectiveKeywords, objectiveLimit)
	methods := PickSentences(pool, methodsKeywords, methodsLimit)
	findings := PickSentences(pool, findingsKeywords, findingsLimit)
	limitations := PickSentences(pool, limitKeywords, limitLimit)

	keyEquations := equations
	if len(keyEquations) > keyEquationCap {
		keyEquations = keyEquations[:keyEquationCap]
	}
	if len(keyEquations) == 0 {
		keyEquations = []types.EquationCandidate{{Equation: equationFallback, Page: 1, Score: 0}}
	}

	anchors := BuildAnchors(objective, methods, findings, limitations, keyEquations)
	if len(anchors) == 0 {
		quote := evidenceFallback
		if abstract != "" {
			quote = truncate(abstract, anchorQuoteCap)
		}
		anchors = []types.EvidenceAnchor{{Tag: "fallback", Page: abstractPage, Quote: quote}}
	}

	title := metadata.Title
	if title == "" {
		title = paper.CanonicalFileName
	}
	if title == "" {
		title = paper.PaperID
	}
	citation := metadata.VancouverCitation
	if citation == "" {
		citation = title
	}

	quality := metadata.Extraction.TextQuality.Quality
	if quality == "" {
		quality = "unknown"
	}

	return types.PaperSummary{
		PaperID:           paper.PaperID,
		CitationNumber:    citationNumber,
		Title:             title,
		CanonicalFileName: paper.CanonicalFileName,
		AliasFileNames:    paper.AliasFileNames,
		Objective:         Paragraph(objective, objectiveFallback),
		Methods:           Paragraph(methods, methodsFallback),
		Findings:          Paragraph(findings, findingsFallback),
		Limitations:       Paragraph(limitations, limitFallback),
		AbstractExcerpt:   abstract,
		KeyEquations:      keyEquations,
		EvidenceAnchors:   anchors,
		Figures:           figures,
		Citation:          citation,
		DOI:               metadata.DOI,
		URL:               metadata.URL,
		Year:              metadata.Year,
		Journal:           metadata.Journal,
		Authors:           metadata.Authors,
		TextQuality:       quality,
		FigureCount:       len(figures),
		EquationCount:     len(keyEquations),
	}, nil
}

func validate(summaries []types.PaperSummary) types.SummaryValidation {
	v := types.SummaryValidation{
		AllHaveCitations:          true,
		AllHaveEvidence:           true,
		AllHaveEquationOrFallback: true,
	}
	for _, s := range summaries {
		if s.Citation == "" {
			v.AllHaveCitations = false
		}
		if len(s.EvidenceAnchors) == 0 {
			v.AllHaveEvidence = false
		}
		if len(s.KeyEquations) == 0 {
			v.AllHaveEquationOrFallback = false
		}
	}
	return v
}

func loadPages(textPath string) []string {
	data, err := os.ReadFile(textPath)
	if err != nil {
		return nil
	}
	return pdftool.SplitPages(string(data))
}

// truncate clamps s to at most n bytes without splitting a UTF-8 rune: the
// cut point walks back to the nearest rune boundary so clamped quotes stay
// valid UTF-8 in the JSON artifacts.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
