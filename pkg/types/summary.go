// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// EvidenceAnchor grounds a summary claim in source text: a category tag, the
// source page, and the quoted excerpt (at most 280 characters).
type EvidenceAnchor struct {
	// Tag is the source category: objective, methods, findings, limitations,
	// equation, or fallback.
	Tag string `json:"tag"`

	Page int `json:"page"`

	Quote string `json:"quote"`
}

// PaperSummary is one paper's summary record. Derived purely from the
// extraction artifacts: two runs over identical input are byte-identical.
type PaperSummary struct {
	PaperID string `json:"paper_id"`

	// CitationNumber is the 1-based position of the paper in the manifest's
	// unique-paper list. It is passed through, never re-derived.
	CitationNumber int `json:"citation_number"`

	Title             string   `json:"title"`
	CanonicalFileName string   `json:"canonical_file_name"`
	AliasFileNames    []string `json:"alias_file_names"`

	Objective   string `json:"objective"`
	Methods     string `json:"methods"`
	Findings    string `json:"findings"`
	Limitations string `json:"limitations"`

	AbstractExcerpt string `json:"abstract_excerpt"`

	// KeyEquations holds the top equation candidates, or a single fallback
	// entry when none were mined.
	KeyEquations []EquationCandidate `json:"key_equations"`

	EvidenceAnchors []EvidenceAnchor `json:"evidence_anchors"`

	Figures []Figure `json:"figures"`

	Citation string   `json:"citation"`
	DOI      string   `json:"doi"`
	URL      string   `json:"url"`
	Year     string   `json:"year"`
	Journal  string   `json:"journal"`
	Authors  []string `json:"authors"`

	TextQuality   TextQuality `json:"text_quality"`
	FigureCount   int         `json:"figure_count"`
	EquationCount int         `json:"equation_count"`
}

// BibliographyItem mirrors one PaperSummary in the numbered bibliography.
type BibliographyItem struct {
	ID       int    `json:"id"`
	PaperID  string `json:"paper_id"`
	Title    string `json:"title"`
	Citation string `json:"citation"`
	DOI      string `json:"doi"`
	URL      string `json:"url"`
}

// CorpusCounts aggregates manifest-level totals into the summary artifact.
type CorpusCounts struct {
	SourceTotalFiles  int `json:"source_total_files"`
	SourceUniqueFiles int `json:"source_unique_files"`
	SummarizedRecords int `json:"summarized_records"`
	DuplicateGroups   int `json:"duplicate_groups"`
}

// SummaryValidation asserts corpus well-formedness: all three booleans must
// be true for a well-formed corpus.
type SummaryValidation struct {
	AllHaveCitations          bool `json:"all_have_citations"`
	AllHaveEvidence           bool `json:"all_have_evidence"`
	AllHaveEquationOrFallback bool `json:"all_have_equation_or_fallback"`
}

// SummaryFile is the corpus-level summary artifact (paper_summaries.json).
type SummaryFile struct {
	GeneratedAtUTC string `json:"generated_at_utc"`
	ManifestPath   string `json:"manifest_path"`
	AssetsDir      string `json:"assets_dir"`

	CorpusSummary CorpusCounts `json:"corpus_summary"`

	Papers       []PaperSummary     `json:"papers"`
	Bibliography []BibliographyItem `json:"bibliography"`

	Validation SummaryValidation `json:"validation"`
}
