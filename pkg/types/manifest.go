// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the corpus-report pipeline.
// Every cross-stage artifact (manifest, per-paper assets, summaries, publish
// records) is a typed struct here; the JSON encodings of these structs are the
// stable contract between stages. Schema changes must be additive.
//
// See docs/ARCHITECTURE.md § Data Structures.
package types

// ExtractabilityStatus records the outcome of the single-page text probe run
// during manifest construction.
type ExtractabilityStatus string

const (
	// ExtractDirectOK means pdftotext produced text on the source path.
	ExtractDirectOK ExtractabilityStatus = "direct_ok"

	// ExtractRequiresStaging means text extraction succeeds only after the
	// file is copied to an ASCII-only staging path.
	ExtractRequiresStaging ExtractabilityStatus = "requires_staging"

	// ExtractFailed means the probe failed on both the direct and staged paths.
	ExtractFailed ExtractabilityStatus = "failed"
)

// PdfRecord describes one physical PDF file in the source directory.
// Records are immutable once probed.
type PdfRecord struct {
	// FileName is the base name of the file.
	FileName string `json:"file_name"`

	// AbsolutePath is the resolved absolute path to the file.
	AbsolutePath string `json:"absolute_path"`

	// RelativePath is the path relative to the repository root, when the
	// file lives under it; otherwise it mirrors AbsolutePath.
	RelativePath string `json:"relative_path"`

	// SHA256 is the hex content hash used for duplicate grouping.
	SHA256 string `json:"sha256"`

	// SizeBytes is the file size.
	SizeBytes int64 `json:"size_bytes"`

	// Pages is the declared page count from pdfinfo, or nil when the probe
	// failed.
	Pages *int `json:"pages"`

	// ExtractabilityStatus is the text-probe outcome.
	ExtractabilityStatus ExtractabilityStatus `json:"extractability_status"`

	// ExtractabilityNote is a human-readable explanation of the status.
	ExtractabilityNote string `json:"extractability_note"`
}

// UniquePaper is one canonical paper: all files sharing a content hash
// collapse into a single record. Created once per distinct hash when the
// manifest is built and never mutated afterward.
type UniquePaper struct {
	// PaperID is the stable identifier "paper_NNN_<hash prefix>", assigned
	// in deterministic sort order. Citation numbers downstream are exactly
	// the 1-based position of this record in the manifest's papers list.
	PaperID string `json:"paper_id"`

	// SHA256 is the shared content hash of the group.
	SHA256 string `json:"sha256"`

	// CanonicalFileName is the case-insensitive-lexicographically-smallest
	// alias name.
	CanonicalFileName string `json:"canonical_file_name"`

	// CanonicalAbsolutePath locates the canonical file on disk.
	CanonicalAbsolutePath string `json:"canonical_absolute_path"`

	// CanonicalRelativePath is the repo-relative form of the canonical path.
	CanonicalRelativePath string `json:"canonical_relative_path"`

	SizeBytes int64 `json:"size_bytes"`
	Pages     *int  `json:"pages"`

	ExtractabilityStatus ExtractabilityStatus `json:"extractability_status"`
	ExtractabilityNote   string               `json:"extractability_note"`

	// AliasFileNames lists every file name sharing the hash, sorted
	// case-insensitively.
	AliasFileNames []string `json:"alias_file_names"`

	// DuplicateCount is len(AliasFileNames) - 1.
	DuplicateCount int `json:"duplicate_count"`
}

// ManifestAll is the full per-file manifest artifact (manifest_all.json).
type ManifestAll struct {
	GeneratedAtUTC string `json:"generated_at_utc"`
	PapersDir      string `json:"papers_dir"`

	TotalFiles      int `json:"total_files"`
	UniqueFiles     int `json:"unique_files"`
	DuplicateGroups int `json:"duplicate_groups"`

	Records []PdfRecord `json:"records"`

	// DuplicateGroupsDetail lists the alias names of every hash bucket,
	// including singletons, in manifest order.
	DuplicateGroupsDetail [][]string `json:"duplicate_groups_detail"`
}

// ManifestUnique is the deduplicated manifest artifact (manifest_unique.json)
// consumed by every downstream stage.
type ManifestUnique struct {
	GeneratedAtUTC   string `json:"generated_at_utc"`
	SourceTotalFiles int    `json:"source_total_files"`
	SourceUniqueFiles int   `json:"source_unique_files"`

	Papers []UniquePaper `json:"papers"`
}
