// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notion publishes the composed markdown report to a Notion page:
// the markdown is parsed into a typed block list, local images are uploaded
// through the three-step file-upload protocol, and blocks are appended to a
// freshly created child page in bounded chunks. Every external call is
// recorded in a structured publish log.
//
// Retries may duplicate an append under connection-level ambiguity (a
// request can succeed server-side while appearing failed client-side); the
// API offers no idempotency key, so publishing is at-least-once.
//
// See docs/ARCHITECTURE.md § Publishing.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"

	"github.com/meshintel/corpus-report/internal/contentstore"
	"github.com/meshintel/corpus-report/internal/httputil"
	"github.com/meshintel/corpus-report/pkg/types"
)

const (
	// DefaultBaseURL is the Notion v1 API root.
	DefaultBaseURL = "https://api.notion.com/v1"

	// DefaultNotionVersion is the API version header sent with every call.
	DefaultNotionVersion = "2025-09-03"

	// appendChunkSize bounds blocks per append request.
	appendChunkSize = 100

	defaultRequestsPerSecond = 3
)

// Client talks to the publish API. All calls go through a shared rate
// limiter and the retrying transport; append calls for one page are strictly
// ordered, so the client is not safe for concurrent publishes of the same
// page.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	version     string
	userAgent   string
	maxAttempts int
	limiter     *rate.Limiter

	events []types.PublishEvent
}

// NewClient builds a Client from the publish configuration and bearer token.
func NewClient(cfg types.PublishConfig, token string, httpClient *http.Client) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	version := cfg.NotionVersion
	if version == "" {
		version = DefaultNotionVersion
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		version:     version,
		userAgent:   cfg.UserAgent,
		maxAttempts: cfg.MaxAttempts,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Events returns the publish log accumulated so far.
func (c *Client) Events() []types.PublishEvent {
	return c.events
}

func (c *Client) record(ev types.PublishEvent) {
	c.events = append(c.events, ev)
}

// setHeaders attaches the auth, version, and identification headers every
// outgoing call carries.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// doJSON issues one JSON request through the limiter and retry transport.
func (c *Client) doJSON(ctx context.Context, method, url string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s %s: %w", method, url, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return httputil.DoWithRetry(ctx, c.httpClient, func() (*http.Request, error) {
		req, err := http.NewRequest(method, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, c.maxAttempts)
}

// doMultipart issues one multipart upload. The form body is rebuilt per
// attempt so retries replay the full file.
func (c *Client) doMultipart(ctx context.Context, url, fieldName, fileName string, content []byte) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return httputil.DoWithRetry(ctx, c.httpClient, func() (*http.Request, error) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, fileName))
		header.Set("Content-Type", guessMIME(fileName))
		part, err := mw.CreatePart(header)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(content); err != nil {
			return nil, err
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req, nil
	}, c.maxAttempts)
}

// CreatePage creates a child page under parentID and returns its id and URL.
func (c *Client) CreatePage(ctx context.Context, parentID, title string) (string, string, error) {
	payload := map[string]any{
		"parent": map[string]any{"page_id": parentID},
		"properties": map[string]any{
			"title": map[string]any{
				"title": richText(truncate(title, maxTitleLen)),
			},
		},
	}

	resp, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/pages", payload)
	if err != nil {
		c.record(types.PublishEvent{Event: "page_create", Error: err.Error()})
		return "", "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	c.record(types.PublishEvent{Event: "page_create", StatusCode: resp.StatusCode})
	if resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("failed to create page: %d %s", resp.StatusCode, truncate(string(body), 400))
	}

	var page struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return "", "", fmt.Errorf("decoding page-create response: %w", err)
	}
	if page.ID == "" {
		return "", "", fmt.Errorf("page creation response did not contain id")
	}
	return page.ID, page.URL, nil
}

// AppendBlocks appends payloads to the page in chunks of at most 100 blocks
// per request. A chunk that still fails after retries aborts the publish
// with an error naming the chunk index.
func (c *Client) AppendBlocks(ctx context.Context, pageID string, payloads []map[string]any) error {
	url := c.baseURL + "/blocks/" + pageID + "/children"

	for start, chunkIdx := 0, 1; start < len(payloads); chunkIdx++ {
		end := start + appendChunkSize
		if end > len(payloads) {
			end = len(payloads)
		}
		chunk := payloads[start:end]

		resp, err := c.doJSON(ctx, http.MethodPatch, url, map[string]any{"children": chunk})
		if err != nil {
			c.record(types.PublishEvent{Event: "append_chunk", ChunkIndex: chunkIdx, ChunkSize: len(chunk), Error: err.Error()})
			return fmt.Errorf("append blocks failed at chunk %d: %w", chunkIdx, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		c.record(types.PublishEvent{Event: "append_chunk", ChunkIndex: chunkIdx, ChunkSize: len(chunk), StatusCode: resp.StatusCode})
		if resp.StatusCode >= 300 {
			return fmt.Errorf("append blocks failed at chunk %d: %d %s",
				chunkIdx, resp.StatusCode, truncate(string(body), 400))
		}
		start = end
	}
	return nil
}

// UploadFile pushes one local file through the three-step upload protocol
// and returns the upload id. Create or send failures return an empty id so
// the caller can degrade to a fallback block; a complete failure is
// tolerated because single-part uploads may auto-complete server-side.
func (c *Client) UploadFile(ctx context.Context, path string) string {
	resp, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/file_uploads", map[string]any{})
	if err != nil {
		c.record(types.PublishEvent{Event: "file_upload_create", Target: path, Error: err.Error()})
		return ""
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	c.record(types.PublishEvent{Event: "file_upload_create", Target: path, StatusCode: resp.StatusCode})
	if resp.StatusCode >= 300 {
		return ""
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.ID == "" {
		return ""
	}

	content, err := os.ReadFile(path)
	if err != nil {
		c.record(types.PublishEvent{Event: "file_upload_send", Target: path, UploadID: created.ID, Error: err.Error()})
		return ""
	}
	sendResp, err := c.doMultipart(ctx, c.baseURL+"/file_uploads/"+created.ID+"/send",
		"file", filepath.Base(path), content)
	if err != nil {
		c.record(types.PublishEvent{Event: "file_upload_send", Target: path, UploadID: created.ID, Error: err.Error()})
		return ""
	}
	io.Copy(io.Discard, sendResp.Body)
	sendResp.Body.Close()
	c.record(types.PublishEvent{Event: "file_upload_send", Target: path, UploadID: created.ID, StatusCode: sendResp.StatusCode})
	if sendResp.StatusCode >= 300 {
		return ""
	}

	completeResp, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/file_uploads/"+created.ID+"/complete", map[string]any{})
	if err != nil {
		c.record(types.PublishEvent{Event: "file_upload_complete", Target: path, UploadID: created.ID, Error: err.Error()})
		return created.ID
	}
	io.Copy(io.Discard, completeResp.Body)
	completeResp.Body.Close()
	c.record(types.PublishEvent{Event: "file_upload_complete", Target: path, UploadID: created.ID, StatusCode: completeResp.StatusCode})

	return created.ID
}

// guessMIME maps a figure file to its content type; unknown extensions
// become application/octet-stream.
func guessMIME(name string) string {
	if mt := mime.TypeByExtension(filepath.Ext(name)); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

// richText splits text into styled runs no longer than the per-run budget.
func richText(text string) []map[string]any {
	text = strings.TrimSpace(text)
	var runs []map[string]any
	for _, part := range splitByLen(text, maxRunLen) {
		runs = append(runs, map[string]any{
			"type": "text",
			"text": map[string]any{"content": part},
		})
	}
	if runs == nil {
		runs = []map[string]any{}
	}
	return runs
}

// BlockPayload converts one parsed block into its API representation. Image
// blocks must already be resolved (URL or upload id); unresolved local
// images become explanatory paragraphs.
func (c *Client) blockPayload(ctx context.Context, b Block, markdownDir, repoRoot string) map[string]any {
	switch b.Type {
	case BlockHeading:
		key := fmt.Sprintf("heading_%d", b.Level)
		return map[string]any{
			"object": "block",
			"type":   key,
			key:      map[string]any{"rich_text": richText(b.Text)},
		}

	case BlockCode:
		caption := []map[string]any{}
		if b.Caption != "" {
			caption = richText(b.Caption)
		}
		return map[string]any{
			"object": "block",
			"type":   "code",
			"code": map[string]any{
				"rich_text": richText(b.Text),
				"caption":   caption,
				"language":  b.Language,
			},
		}

	case BlockEquation:
		return map[string]any{
			"object":   "block",
			"type":     "equation",
			"equation": map[string]any{"expression": b.Text},
		}

	case BlockBullet:
		return map[string]any{
			"object":             "block",
			"type":               "bulleted_list_item",
			"bulleted_list_item": map[string]any{"rich_text": richText(b.Text)},
		}

	case BlockNumbered:
		return map[string]any{
			"object":             "block",
			"type":               "numbered_list_item",
			"numbered_list_item": map[string]any{"rich_text": richText(b.Text)},
		}

	case BlockImage:
		return c.imagePayload(ctx, b, markdownDir, repoRoot)

	default:
		return map[string]any{
			"object":    "block",
			"type":      "paragraph",
			"paragraph": map[string]any{"rich_text": richText(b.Text)},
		}
	}
}

// imagePayload resolves an image block: external URLs pass through, local
// targets resolve against the markdown directory then the repository root
// and are uploaded. Upload failure yields a fallback paragraph so the
// publish never aborts on a single figure.
func (c *Client) imagePayload(ctx context.Context, b Block, markdownDir, repoRoot string) map[string]any {
	if b.URL != "" {
		c.record(types.PublishEvent{Event: "image_external", Target: b.URL})
		return map[string]any{
			"object": "block",
			"type":   "image",
			"image": map[string]any{
				"type":     "external",
				"external": map[string]any{"url": b.URL},
				"caption":  richText(b.Caption),
			},
		}
	}

	localPath := filepath.Join(markdownDir, b.LocalTarget)
	if _, err := os.Stat(localPath); err != nil {
		localPath = filepath.Join(repoRoot, b.LocalTarget)
	}
	if _, err := os.Stat(localPath); err != nil {
		return fallbackParagraph("Image file not found: " + b.LocalTarget)
	}

	uploadID := c.UploadFile(ctx, localPath)
	if uploadID == "" {
		return fallbackParagraph("Image upload failed for local file: " + b.LocalTarget)
	}
	return map[string]any{
		"object": "block",
		"type":   "image",
		"image": map[string]any{
			"type":        "file_upload",
			"file_upload": map[string]any{"id": uploadID},
			"caption":     richText(b.Caption),
		},
	}
}

func fallbackParagraph(text string) map[string]any {
	return map[string]any{
		"object":    "block",
		"type":      "paragraph",
		"paragraph": map[string]any{"rich_text": richText(text)},
	}
}

// PublishReport parses the markdown at markdownPath, creates a child page
// under cfg.ParentPageID titled title, appends all blocks, and writes
// notion_page_meta.json and notion_publish_log.json under artifactsDir.
func (c *Client) PublishReport(ctx context.Context, markdownPath, repoRoot, artifactsDir, title, parentPageID, runID string, w io.Writer) (*types.PageMeta, error) {
	markdown, err := os.ReadFile(markdownPath)
	if err != nil {
		return nil, fmt.Errorf("reading markdown %s: %w", markdownPath, err)
	}

	blocks := ParseMarkdown(string(markdown))
	headings, images := 0, 0
	markdownDir := filepath.Dir(markdownPath)

	payloads := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case BlockHeading:
			headings++
		case BlockImage:
			images++
		}
		payloads = append(payloads, c.blockPayload(ctx, b, markdownDir, repoRoot))
	}

	pageID, pageURL, err := c.CreatePage(ctx, parentPageID, title)
	if err != nil {
		c.writeLog(artifactsDir, runID)
		return nil, err
	}
	fmt.Fprintf(w, "created page: %s\n", pageID)

	if err := c.AppendBlocks(ctx, pageID, payloads); err != nil {
		c.writeLog(artifactsDir, runID)
		return nil, err
	}
	fmt.Fprintf(w, "appended %d blocks in %d chunks\n",
		len(payloads), (len(payloads)+appendChunkSize-1)/appendChunkSize)

	meta := &types.PageMeta{
		PublishedAtUTC: contentstore.UTCNowISO(),
		PageID:         pageID,
		PageURL:        pageURL,
		ParentPageID:   parentPageID,
		Title:          title,
		NotionVersion:  c.version,
		MarkdownPath:   markdownPath,
		BlockCount:     len(payloads),
		HeadingCount:   headings,
		ImageCount:     images,
	}
	if err := contentstore.WriteJSON(filepath.Join(artifactsDir, "notion_page_meta.json"), meta); err != nil {
		return nil, err
	}
	if err := c.writeLog(artifactsDir, runID); err != nil {
		return nil, err
	}
	return meta, nil
}

func (c *Client) writeLog(artifactsDir, runID string) error {
	log := types.PublishLogFile{
		GeneratedAtUTC: contentstore.UTCNowISO(),
		RunID:          runID,
		Events:         c.events,
	}
	return contentstore.WriteJSON(filepath.Join(artifactsDir, "notion_publish_log.json"), log)
}

