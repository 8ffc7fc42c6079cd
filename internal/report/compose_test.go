// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/corpus-report/pkg/types"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Executive Synopsis", "executive-synopsis"},
		{"Paper 01: Vorticity & Waves (2021)", "paper-01-vorticity-waves-2021"},
		{"--edges--", "edges"},
		{"ALL CAPS", "all-caps"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in))
	}
}

func TestMethodTags(t *testing.T) {
	tags := MethodTags("We use a Finite Difference Arakawa scheme with FFT diagnostics for shallow water flows.")
	assert.Equal(t, []string{"fd", "spectral", "shallow_water"}, tags)

	assert.Empty(t, MethodTags("qualitative study of sediment transport"))
}

func sampleSummary() *types.SummaryFile {
	return &types.SummaryFile{
		CorpusSummary: types.CorpusCounts{
			SourceTotalFiles:  3,
			SourceUniqueFiles: 2,
			SummarizedRecords: 2,
			DuplicateGroups:   1,
		},
		Papers: []types.PaperSummary{
			{
				PaperID:           "paper_001_deadbeef",
				CitationNumber:    1,
				Title:             "Vorticity Transport in Shallow Seas",
				CanonicalFileName: "a.pdf",
				AliasFileNames:    []string{"a.pdf", "b.pdf"},
				Objective:         "We study shallow water vorticity.",
				Methods:           "A finite difference scheme is used.",
				Findings:          "Results agree with benchmarks.",
				Limitations:       "Assumes constant bathymetry.",
				KeyEquations:      []types.EquationCandidate{{Equation: "dE/dt = -2 nu Z", Page: 3, Score: 4}},
				EvidenceAnchors:   []types.EvidenceAnchor{{Tag: "methods", Page: 2, Quote: "A finite difference scheme is used."}},
				Figures: []types.Figure{{
					FigureID:     "fig_0001.png",
					RelativePath: "papers/paper_001_deadbeef/figures/fig_0001.png",
					CaptionHint:  "Embedded figure from page 4",
				}},
				Citation: "Smith J. Vorticity Transport in Shallow Seas. 2021.",
				DOI:      "10.1017/jfm.2021.42",
			},
			{
				PaperID:        "paper_002_feedface",
				CitationNumber: 2,
				Title:          "Spectral Tsunami Models",
				Objective:      "Spectral methods for tsunami propagation.",
				Citation:       "Spectral Tsunami Models.",
			},
		},
		Bibliography: []types.BibliographyItem{
			{ID: 1, Citation: "Smith J. Vorticity Transport in Shallow Seas. 2021."},
			{ID: 2, Citation: "Spectral Tsunami Models."},
		},
		Validation: types.SummaryValidation{
			AllHaveCitations:          true,
			AllHaveEvidence:           true,
			AllHaveEquationOrFallback: true,
		},
	}
}

func TestCompose_RendersAllSections(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "report.md")
	cfg := types.ComposeConfig{
		OutputPath: outPath,
		Title:      "Research Corpus Report",
		Synopsis:   "Consolidated synthesis of the local paper corpus.",
		ImagesRoot: "papers",
	}

	var log bytes.Buffer
	doc, err := Compose(sampleSummary(), cfg, &log)
	require.NoError(t, err)

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, doc, string(written))

	assert.Contains(t, doc, "# Research Corpus Report")
	assert.Contains(t, doc, "Corpus processing summary: 3 files -> 2 unique papers")
	assert.Contains(t, doc, "| Duplicate groups | 1 |")

	// TOC anchors match the emitted headings.
	heading := "Paper 01: Vorticity Transport in Shallow Seas"
	assert.Contains(t, doc, "- ["+heading+"](#"+Slug(heading)+")")
	assert.Contains(t, doc, "### "+heading)

	// Histogram counts: paper 1 is fd + shallow_water, paper 2 is spectral +
	// shallow_water (tsunami synonym).
	assert.Contains(t, doc, "| Finite difference / Arakawa / RK4 | 1 |")
	assert.Contains(t, doc, "| Spectral / FFT | 1 |")
	assert.Contains(t, doc, "| Shallow-water / tsunami propagation | 2 |")

	assert.Contains(t, doc, "**Citation [1]:** Smith J. Vorticity Transport in Shallow Seas. 2021.")
	assert.Contains(t, doc, "**File aliases:** `a.pdf`, `b.pdf`")
	assert.Contains(t, doc, "**DOI:** `10.1017/jfm.2021.42`")
	assert.Contains(t, doc, "- `dE/dt = -2 nu Z` (p.3)")
	assert.Contains(t, doc, "- [methods, p.2] A finite difference scheme is used.")
	assert.Contains(t, doc, "![fig_0001.png](papers/paper_001_deadbeef/figures/fig_0001.png)")
	assert.Contains(t, doc, "*Embedded figure from page 4*")

	// Paper without equations or figures gets the fallback notices.
	assert.Contains(t, doc, "- No extractable governing equation found in machine-readable text.")
	assert.Contains(t, doc, "No scientific images were retained after filtering.")
	assert.Contains(t, doc, "- [fallback, p.1] No machine-readable evidence anchor extracted.")

	assert.Contains(t, doc, "1. Smith J. Vorticity Transport in Shallow Seas. 2021.")
	assert.Contains(t, doc, "- All summaries have citations: `true`")
	assert.Contains(t, doc, "```mermaid")
}

func TestCompose_SlugStableAcrossCalls(t *testing.T) {
	doc1, err := Compose(sampleSummary(), types.ComposeConfig{
		OutputPath: filepath.Join(t.TempDir(), "r.md"), Title: "T", Synopsis: "S",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	doc2, err := Compose(sampleSummary(), types.ComposeConfig{
		OutputPath: filepath.Join(t.TempDir(), "r.md"), Title: "T", Synopsis: "S",
	}, &bytes.Buffer{})
	require.NoError(t, err)

	// Identical apart from the generation timestamp line.
	strip := func(doc string) string {
		lines := strings.Split(doc, "\n")
		var kept []string
		for _, l := range lines {
			if strings.HasPrefix(l, "Generated: ") {
				continue
			}
			kept = append(kept, l)
		}
		return strings.Join(kept, "\n")
	}
	assert.Equal(t, strip(doc1), strip(doc2))
}
