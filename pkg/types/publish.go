// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PublishEvent is one entry in the structured publish log. Every external
// call the publisher makes (page creation, chunk append, file upload step)
// records its outcome here for post-hoc audit.
type PublishEvent struct {
	// Event names the call: page_create, append_chunk, image_external,
	// file_upload_create, file_upload_send, file_upload_complete.
	Event string `json:"event"`

	// Target is the file or URL involved, when applicable.
	Target string `json:"target,omitempty"`

	// UploadID is the server-assigned upload handle, when applicable.
	UploadID string `json:"upload_id,omitempty"`

	ChunkIndex int `json:"chunk_index,omitempty"`
	ChunkSize  int `json:"chunk_size,omitempty"`

	StatusCode int `json:"status_code,omitempty"`

	// Error carries a transport-level failure message when no HTTP status
	// was received.
	Error string `json:"error,omitempty"`
}

// PublishLogFile is the publish-log artifact (notion_publish_log.json).
type PublishLogFile struct {
	GeneratedAtUTC string         `json:"generated_at_utc"`
	RunID          string         `json:"run_id,omitempty"`
	Events         []PublishEvent `json:"events"`
}

// PageMeta is the publish-metadata artifact (notion_page_meta.json)
// describing the created remote page.
type PageMeta struct {
	PublishedAtUTC string `json:"published_at_utc"`
	PageID         string `json:"page_id"`
	PageURL        string `json:"page_url"`
	ParentPageID   string `json:"parent_page_id"`
	Title          string `json:"title"`
	NotionVersion  string `json:"notion_version"`
	MarkdownPath   string `json:"markdown_path"`

	BlockCount   int `json:"block_count"`
	HeadingCount int `json:"heading_count_from_markdown"`
	ImageCount   int `json:"image_count_from_markdown"`
}
