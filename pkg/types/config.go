// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "corpus-report/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ManifestConfig holds settings for the manifest stage.
type ManifestConfig struct {
	// PapersDir is the directory of source PDFs. A missing directory is a
	// fatal error, checked before any I/O.
	PapersDir string `json:"papers_dir" yaml:"papers_dir"`

	// OutDir is the run output directory holding all artifacts.
	OutDir string `json:"out_dir" yaml:"out_dir"`
}

// ExtractConfig holds settings for the asset-extraction stage.
type ExtractConfig struct {
	// OutDir is the run output directory (contains papers/, staging/).
	OutDir string `json:"out_dir" yaml:"out_dir"`

	// RISPath locates the bibliographic reference file. An absent file
	// yields an empty index, never an error.
	RISPath string `json:"ris_path" yaml:"ris_path"`

	// Force regenerates assets for already-processed papers.
	Force bool `json:"force" yaml:"force"`
}

// ComposeConfig holds settings for the report-composition stage.
type ComposeConfig struct {
	// OutDir is the run output directory (source of paper_summaries.json).
	OutDir string `json:"out_dir" yaml:"out_dir"`

	// OutputPath is where the markdown report is written.
	OutputPath string `json:"output_path" yaml:"output_path"`

	// Title is the report's top-level heading and the published page title.
	Title string `json:"title" yaml:"title"`

	// Synopsis is the one-paragraph executive synopsis text.
	Synopsis string `json:"synopsis" yaml:"synopsis"`

	// ImagesRoot is the path prefix used for figure links whose index
	// entries carry no usable relative path.
	ImagesRoot string `json:"images_root" yaml:"images_root"`
}

// PublishConfig holds settings for the publish stage.
type PublishConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the document-store API base (default the Notion v1 API).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// ParentPageID is the page under which the report page is created.
	ParentPageID string `json:"parent_page_id" yaml:"parent_page_id"`

	// TokenEnv names the environment variable carrying the bearer token.
	TokenEnv string `json:"token_env" yaml:"token_env"`

	// NotionVersion is the API version header value.
	NotionVersion string `json:"notion_version" yaml:"notion_version"`

	// MaxAttempts bounds retries per request (default 6).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// RequestsPerSecond paces outgoing calls (default 3).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// IndexConfig holds settings for the corpus search index.
type IndexConfig struct {
	// OutDir is the run output directory (the index lives in OutDir/index/).
	OutDir string `json:"out_dir" yaml:"out_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Manifest ManifestConfig `json:"manifest" yaml:"manifest"`
	Extract  ExtractConfig  `json:"extract" yaml:"extract"`
	Compose  ComposeConfig  `json:"compose" yaml:"compose"`
	Publish  PublishConfig  `json:"publish" yaml:"publish"`
	Index    IndexConfig    `json:"index" yaml:"index"`
}

// RunContext threads per-run state through stage calls in place of any
// process-wide singleton: one value is built at CLI startup and passed down.
type RunContext struct {
	// RunID uniquely identifies this pipeline run.
	RunID string `json:"run_id"`

	// PapersDir and OutDir anchor all stage I/O.
	PapersDir string `json:"papers_dir"`
	OutDir    string `json:"out_dir"`

	// StartedAtUTC is the run start time in RFC 3339 form.
	StartedAtUTC string `json:"started_at_utc"`
}
