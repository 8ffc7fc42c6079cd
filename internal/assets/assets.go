// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assets turns the deduplicated manifest into per-paper raw assets:
// full text, metadata, equation candidates and figure images. Every paper is
// processed independently; a paper whose text or figures cannot be extracted
// still yields complete artifacts with degraded-status flags, so downstream
// stages can always distinguish "absent" from "failed".
//
// See docs/ARCHITECTURE.md § Asset Extraction.
package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/corpus-report/internal/contentstore"
	"github.com/meshintel/corpus-report/internal/pdftool"
	"github.com/meshintel/corpus-report/internal/ris"
	"github.com/meshintel/corpus-report/internal/textutil"
	"github.com/meshintel/corpus-report/pkg/types"
)

// maxRecordedRejections caps the rejection list persisted per paper.
const maxRecordedRejections = 200

// BatchResult holds the outcome of a batch extraction run.
type BatchResult struct {
	Processed int
	Skipped   int
	Failed    int
}

// Total returns the total number of papers considered.
func (r BatchResult) Total() int {
	return r.Processed + r.Skipped + r.Failed
}

// HasFailures reports whether any paper failed extraction outright.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Extractor runs the asset-extraction stage for one corpus.
type Extractor struct {
	Tools    *pdftool.Toolchain
	RIS      ris.Index
	OutDir   string
	RepoRoot string

	// Force regenerates papers whose metadata.json already exists. The
	// paper's previous output directory is removed first.
	Force bool
}

// SummaryPath returns the extraction_summary.json location for a run
// directory.
func SummaryPath(outDir string) string {
	return filepath.Join(outDir, "extraction_summary.json")
}

// PaperDir returns the per-paper asset directory for a run directory.
func PaperDir(outDir, paperID string) string {
	return filepath.Join(outDir, "papers", paperID)
}

// Run extracts assets for every paper in the manifest and writes the corpus
// extraction summary. Per-paper extraction failures are counted, not
// returned; only I/O errors on the summary itself abort the run. The staging
// directory is removed before returning, on success and on failure.
func (e *Extractor) Run(ctx context.Context, man *types.ManifestUnique, manifestPath string, w io.Writer) (BatchResult, error) {
	var result BatchResult

	stagingRoot := filepath.Join(e.OutDir, "staging")
	if err := contentstore.EnsureDir(stagingRoot); err != nil {
		return result, err
	}
	defer os.RemoveAll(stagingRoot)

	rows := make([]types.ExtractionRow, 0, len(man.Papers))
	for _, paper := range man.Papers {
		paperDir := PaperDir(e.OutDir, paper.PaperID)
		metadataPath := filepath.Join(paperDir, "metadata.json")

		if _, err := os.Stat(metadataPath); err == nil && !e.Force {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", paper.PaperID)
			result.Skipped++
			rows = append(rows, types.ExtractionRow{
				PaperID:      paper.PaperID,
				Status:       "skipped",
				MetadataPath: metadataPath,
			})
			continue
		}

		row, err := e.extractPaper(ctx, paper, paperDir, stagingRoot)
		if err != nil {
			fmt.Fprintf(w, "failed: %s (%v)\n", paper.PaperID, err)
			result.Failed++
			continue
		}
		result.Processed++
		rows = append(rows, row)
		fmt.Fprintf(w, "extracted: %s text=%s eq=%d figs=%d\n",
			paper.PaperID, row.TextQuality, row.EquationCount, row.FigureCount)
	}

	summary := types.ExtractionSummary{
		GeneratedAtUTC:   contentstore.UTCNowISO(),
		ManifestPath:     manifestPath,
		TotalRecords:     len(rows),
		ProcessedRecords: result.Processed,
		SkippedRecords:   result.Skipped,
		Rows:             rows,
	}
	if err := contentstore.WriteJSON(SummaryPath(e.OutDir), summary); err != nil {
		return result, err
	}

	fmt.Fprintf(w, "\nExtraction: %d processed, %d skipped, %d failed\n",
		result.Processed, result.Skipped, result.Failed)
	return result, nil
}

// extractPaper produces every per-paper artifact. Tool failures degrade to
// empty text or no figures; only filesystem errors are returned.
func (e *Extractor) extractPaper(ctx context.Context, paper types.UniquePaper, paperDir, stagingRoot string) (types.ExtractionRow, error) {
	if e.Force {
		if err := os.RemoveAll(paperDir); err != nil {
			return types.ExtractionRow{}, err
		}
	}
	figuresDir := filepath.Join(paperDir, "figures")
	if err := contentstore.EnsureDir(figuresDir); err != nil {
		return types.ExtractionRow{}, err
	}

	textPath := filepath.Join(paperDir, "text.txt")
	stagePDF := filepath.Join(stagingRoot, paper.PaperID+".pdf")

	textOK, textMode, workingPDF := e.extractFullText(ctx, paper, stagePDF, textPath)

	var fullText string
	var pages []string
	if textOK {
		data, err := os.ReadFile(textPath)
		if err != nil {
			return types.ExtractionRow{}, err
		}
		fullText = string(data)
		pages = pdftool.SplitPages(fullText)
	}

	metadata := buildMetadata(paper, pages, e.RIS)
	quality := buildTextQuality(fullText, pages)
	equations := MineEquations(pages, equationKeepLimit)

	pageCount := len(pages)
	if paper.Pages != nil && *paper.Pages > 0 {
		pageCount = *paper.Pages
	}
	figIndex, err := extractFigures(ctx, e.Tools, workingPDF, figuresDir,
		filepath.Join(paperDir, "_raw_figures"), e.OutDir, pageCount)
	if err != nil {
		return types.ExtractionRow{}, err
	}
	if len(figIndex.Rejections) > maxRecordedRejections {
		figIndex.Rejections = figIndex.Rejections[:maxRecordedRejections]
	}

	metadata.Extraction = types.ExtractionInfo{
		ProcessedAtUTC:       contentstore.UTCNowISO(),
		TextExtracted:        textOK,
		TextMode:             textMode,
		WorkingPDFPath:       workingPDF,
		TextQuality:          quality,
		EquationCandidates:   len(equations),
		FigureCount:          figIndex.KeptCount,
		FigureFallbackUsed:   figIndex.FallbackUsed,
		PDFPageCountDeclared: paper.Pages,
	}

	metadataPath := filepath.Join(paperDir, "metadata.json")
	if err := contentstore.WriteJSON(metadataPath, metadata); err != nil {
		return types.ExtractionRow{}, err
	}
	if err := writeYAMLSidecar(filepath.Join(paperDir, "metadata.yaml"), metadata); err != nil {
		return types.ExtractionRow{}, err
	}
	if err := contentstore.WriteJSON(filepath.Join(paperDir, "equation_candidates.json"), equations); err != nil {
		return types.ExtractionRow{}, err
	}
	if err := contentstore.WriteJSON(filepath.Join(paperDir, "figures_index.json"), figIndex); err != nil {
		return types.ExtractionRow{}, err
	}

	pagesMeta := buildPagesMeta(pages)
	if err := contentstore.WriteJSON(filepath.Join(paperDir, "pages_meta.json"), pagesMeta); err != nil {
		return types.ExtractionRow{}, err
	}

	return types.ExtractionRow{
		PaperID:       paper.PaperID,
		Status:        "processed",
		TextExtracted: textOK,
		TextQuality:   quality.Quality,
		FigureCount:   figIndex.KeptCount,
		EquationCount: len(equations),
		MetadataPath:  metadataPath,
		TextPath:      textPath,
	}, nil
}

// extractFullText tries full-document pdftotext extraction against the
// canonical path and an ASCII staging copy, staged first when the manifest
// probe said the direct path fails. A pure-Go parse of the PDF is the final
// fallback before giving up.
func (e *Extractor) extractFullText(ctx context.Context, paper types.UniquePaper, stagePDF, textPath string) (bool, string, string) {
	type candidate struct {
		path   string
		staged bool
	}
	candidates := []candidate{
		{paper.CanonicalAbsolutePath, false},
		{stagePDF, true},
	}
	if paper.ExtractabilityStatus == types.ExtractRequiresStaging {
		candidates[0], candidates[1] = candidates[1], candidates[0]
	}

	for _, c := range candidates {
		if c.staged {
			if err := contentstore.CopyFile(paper.CanonicalAbsolutePath, stagePDF); err != nil {
				continue
			}
		}
		res := e.Tools.ExtractText(ctx, c.path, textPath)
		if res.OK() {
			if _, err := os.Stat(textPath); err == nil {
				if c.staged {
					return true, "staged_path", c.path
				}
				return true, "direct", c.path
			}
		}
	}

	if text, err := pdftool.NativeText(paper.CanonicalAbsolutePath); err == nil {
		if err := contentstore.WriteFileAtomic(textPath, []byte(text)); err == nil {
			return true, "native_fallback", paper.CanonicalAbsolutePath
		}
	}

	return false, "failed on direct and staged path", paper.CanonicalAbsolutePath
}

// buildPagesMeta summarizes the split pages for quick inspection.
func buildPagesMeta(pages []string) types.PagesMeta {
	meta := types.PagesMeta{
		PageCount:      len(pages),
		FirstSentences: []string{},
	}
	for _, p := range pages {
		if textutil.CleanWhitespace(p) != "" {
			meta.NonemptyPages++
		}
	}
	if len(pages) > 0 {
		preview := textutil.CleanWhitespace(pages[0])
		if len(preview) > 400 {
			preview = preview[:400]
		}
		meta.FirstPagePreview = preview
	}

	firstTwo := pages
	if len(firstTwo) > 2 {
		firstTwo = firstTwo[:2]
	}
	sentences := textutil.Sentences(joinPages(firstTwo))
	if len(sentences) > 5 {
		sentences = sentences[:5]
	}
	meta.FirstSentences = append(meta.FirstSentences, sentences...)
	return meta
}

func joinPages(pages []string) string {
	out := ""
	for i, p := range pages {
		if i > 0 {
			out += "\n"
		}
		out += p
	}
	return out
}

// writeYAMLSidecar mirrors the metadata artifact as YAML for humans
// reviewing a run directory. The value is routed through its JSON encoding
// so the sidecar carries the same snake_case keys as the JSON artifact.
func writeYAMLSidecar(path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding yaml %s: %w", path, err)
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("encoding yaml %s: %w", path, err)
	}
	data, err := yaml.Marshal(generic)
	if err != nil {
		return fmt.Errorf("encoding yaml %s: %w", path, err)
	}
	return contentstore.WriteFileAtomic(path, data)
}
