// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// TextQuality classifies how much machine-readable text extraction yielded.
type TextQuality string

const (
	// QualityVeryLow means under 300 characters of extracted text.
	QualityVeryLow TextQuality = "very_low"

	// QualityLow means under 3000 characters.
	QualityLow TextQuality = "low"

	// QualityGood means 3000 characters or more.
	QualityGood TextQuality = "good"
)

// TextQualitySummary holds the measured extraction quality for one paper.
type TextQualitySummary struct {
	CharCount         int         `json:"char_count"`
	WordCount         int         `json:"word_count"`
	PageCountFromText int         `json:"page_count_from_text"`
	NonemptyPages     int         `json:"nonempty_pages"`
	Quality           TextQuality `json:"quality"`
}

// EquationCandidate is one ranked equation-like line excerpt.
type EquationCandidate struct {
	// Equation is the whitespace-normalized line text.
	Equation string `json:"equation"`

	// Page is the 1-based page the line was found on.
	Page int `json:"page"`

	// Score is the heuristic relevance score; kept candidates score >= 2.
	Score int `json:"score"`
}

// FigureSource identifies how a kept figure was produced.
type FigureSource string

const (
	// FigureEmbedded means the image was extracted from the PDF's embedded
	// image objects.
	FigureEmbedded FigureSource = "embedded_image"

	// FigurePageRender means the image is a fallback full-page render.
	FigurePageRender FigureSource = "page_render"
)

// Figure describes one kept figure image.
type Figure struct {
	// FigureID is the output file name (fig_NNNN.png or render_NNNN.png).
	FigureID string `json:"figure_id"`

	Source FigureSource `json:"source"`

	// Page is the source page. For page renders it is the rendered page.
	Page int `json:"page"`

	// Width and Height are pixel dimensions from the image list probe; nil
	// for page renders, where the probe geometry does not apply.
	Width  *int `json:"width"`
	Height *int `json:"height"`

	SizeBytes int64 `json:"size_bytes"`

	// RelativePath is the path to the image file, relative to the run
	// output directory.
	RelativePath string `json:"relative_path"`

	// CaptionHint is a short description used as the image caption.
	CaptionHint string `json:"caption_hint"`
}

// FigureRejection records why one probed image was discarded.
// Reason is one of: mask_or_stencil, too_small_dimensions, too_small_area,
// invalid_dimensions, extreme_aspect_ratio, too_small_file,
// likely_decorative_frontmatter, missing_output_file, duplicate_hash.
type FigureRejection struct {
	Num    int    `json:"num"`
	Reason string `json:"reason"`
}

// FigureIndex is the per-paper figure artifact (figures_index.json).
type FigureIndex struct {
	ImageListRows        int  `json:"pdfimages_rows"`
	ImageListExitCode    int  `json:"pdfimages_exit_code"`
	ImageExtractExitCode int  `json:"pdfimages_extract_exit_code"`
	KeptCount            int  `json:"kept_count"`
	RejectedCount        int  `json:"rejected_count"`
	FallbackUsed         bool `json:"fallback_used"`

	Figures    []Figure          `json:"figures"`
	Rejections []FigureRejection `json:"rejections"`
}

// ExtractionInfo is the status block embedded in each paper's metadata
// artifact. It carries enough detail to distinguish "no data because absent"
// from "no data because extraction failed".
type ExtractionInfo struct {
	ProcessedAtUTC string `json:"processed_at_utc"`

	// TextExtracted reports whether any full-text extraction attempt
	// succeeded. False means the pipeline continued with empty text.
	TextExtracted bool `json:"text_extracted"`

	// TextMode records which path produced the text: "direct",
	// "staged_path", "native_fallback", or a failure note.
	TextMode string `json:"text_mode"`

	WorkingPDFPath string `json:"working_pdf_path"`

	TextQuality TextQualitySummary `json:"text_quality"`

	EquationCandidates int  `json:"equation_candidates"`
	FigureCount        int  `json:"figure_count"`
	FigureFallbackUsed bool `json:"figure_fallback_used"`

	// PDFPageCountDeclared echoes the manifest's pdfinfo page count.
	PDFPageCountDeclared *int `json:"pdf_page_count_declared"`
}

// PaperMetadata is the per-paper metadata artifact (metadata.json).
// Field resolution precedence: bibliographic-index match, then first-page
// heuristic, then file-name stem.
type PaperMetadata struct {
	PaperID               string   `json:"paper_id"`
	CanonicalFileName     string   `json:"canonical_file_name"`
	CanonicalRelativePath string   `json:"canonical_relative_path"`
	AliasFileNames        []string `json:"alias_file_names"`

	Title   string   `json:"title"`
	DOI     string   `json:"doi"`
	Journal string   `json:"journal"`
	Year    string   `json:"year"`
	Authors []string `json:"authors"`
	URL     string   `json:"url"`

	// RISMatched reports whether a bibliographic-index entry supplied any
	// of the fields above.
	RISMatched bool `json:"ris_matched"`

	// TitleSource and DOISource name the resolution step that produced the
	// field: "ris", "first_page_heuristic", "filename_stem", "first_3_pages",
	// or "unknown".
	TitleSource string `json:"extract_title_source"`
	DOISource   string `json:"extract_doi_source"`

	VancouverCitation string `json:"vancouver_citation"`

	Extraction ExtractionInfo `json:"extraction"`
}

// PagesMeta is the per-paper page-metadata artifact (pages_meta.json).
type PagesMeta struct {
	PageCount        int      `json:"page_count"`
	NonemptyPages    int      `json:"nonempty_pages"`
	FirstPagePreview string   `json:"first_page_preview"`
	FirstSentences   []string `json:"first_sentences"`
}

// ExtractionRow is one paper's status line in the corpus extraction summary.
type ExtractionRow struct {
	PaperID string `json:"paper_id"`

	// Status is "processed" or "skipped".
	Status string `json:"status"`

	TextExtracted bool        `json:"text_extracted,omitempty"`
	TextQuality   TextQuality `json:"text_quality,omitempty"`
	FigureCount   int         `json:"figure_count,omitempty"`
	EquationCount int         `json:"equation_count,omitempty"`

	MetadataPath string `json:"metadata_path"`
	TextPath     string `json:"text_path,omitempty"`
}

// ExtractionSummary is the corpus-level extraction artifact
// (extraction_summary.json).
type ExtractionSummary struct {
	GeneratedAtUTC   string          `json:"generated_at_utc"`
	ManifestPath     string          `json:"manifest"`
	TotalRecords     int             `json:"total_records"`
	ProcessedRecords int             `json:"processed_records"`
	SkippedRecords   int             `json:"skipped_records"`
	Rows             []ExtractionRow `json:"rows"`
}
