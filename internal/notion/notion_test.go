// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/corpus-report/pkg/types"
)

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"go", "go"},
		{"Python", "python"},
		{"sh", "shell"},
		{"zsh", "shell"},
		{"ps1", "powershell"},
		{"pwsh", "powershell"},
		{"mermaid", "mermaid"},
		{"", "plain text"},
		{"klingon", "plain text"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLanguage(tt.in), "language %q", tt.in)
	}
}

func TestParseMarkdown_BlockKinds(t *testing.T) {
	md := strings.Join([]string{
		"# Title",
		"",
		"#### Deep heading",
		"",
		"Intro paragraph",
		"continues here.",
		"",
		"- first bullet",
		"2. second item",
		"",
		"```mermaid",
		"graph TD",
		"```",
		"",
		"```sh",
		"ls -la",
		"```",
		"",
		"$$ E = mc^2 $$",
		"",
		"$$",
		"dE/dt =",
		"-2 nu Z",
		"$$",
		"",
		"![alt text](papers/p1/figures/fig_0001.png)",
	}, "\n")

	blocks := ParseMarkdown(md)
	require.Len(t, blocks, 10)

	assert.Equal(t, Block{Type: BlockHeading, Level: 1, Text: "Title"}, blocks[0])
	// Only one to three hashes make a heading; deeper levels fall through.
	assert.Equal(t, BlockParagraph, blocks[1].Type)
	assert.Equal(t, "#### Deep heading", blocks[1].Text)

	assert.Equal(t, BlockParagraph, blocks[2].Type)
	assert.Equal(t, "Intro paragraph continues here.", blocks[2].Text)

	assert.Equal(t, Block{Type: BlockBullet, Text: "first bullet"}, blocks[3])
	assert.Equal(t, Block{Type: BlockNumbered, Text: "second item"}, blocks[4])

	assert.Equal(t, BlockCode, blocks[5].Type)
	assert.Equal(t, "mermaid", blocks[5].Language)
	assert.Equal(t, "mermaid", blocks[5].Caption)
	assert.Equal(t, "graph TD", blocks[5].Text)

	assert.Equal(t, "shell", blocks[6].Language)
	assert.Empty(t, blocks[6].Caption)

	assert.Equal(t, Block{Type: BlockEquation, Text: "E = mc^2"}, blocks[7])
	assert.Equal(t, Block{Type: BlockEquation, Text: "dE/dt = -2 nu Z"}, blocks[8])

	assert.Equal(t, BlockImage, blocks[9].Type)
	assert.Equal(t, "alt text", blocks[9].Caption)
	assert.Equal(t, "papers/p1/figures/fig_0001.png", blocks[9].LocalTarget)
	assert.Empty(t, blocks[9].URL)
}

func TestParseMarkdown_ExternalImageAndDefaultAlt(t *testing.T) {
	blocks := ParseMarkdown("![](https://example.com/a.png)")
	require.Len(t, blocks, 1)
	assert.Equal(t, BlockImage, blocks[0].Type)
	assert.Equal(t, "figure", blocks[0].Caption)
	assert.Equal(t, "https://example.com/a.png", blocks[0].URL)
	assert.Empty(t, blocks[0].LocalTarget)
}

func TestParseMarkdown_LongParagraphSplits(t *testing.T) {
	long := strings.Repeat("x", maxParagraphLen+100)
	blocks := ParseMarkdown(long)
	require.Len(t, blocks, 2)
	assert.Equal(t, maxParagraphLen, len(blocks[0].Text))
	assert.Equal(t, 100, len(blocks[1].Text))
}

func TestSplitByLen_BreaksOnRuneBoundaries(t *testing.T) {
	parts := splitByLen("aa∂∇ω", 3)
	assert.Equal(t, []string{"aa", "∂", "∇", "ω"}, parts)
	for _, p := range parts {
		assert.True(t, utf8.ValidString(p))
	}
	assert.Equal(t, "aa∂∇ω", strings.Join(parts, ""))
}

func TestTruncate_KeepsValidUTF8(t *testing.T) {
	// 400 three-byte runes: the byte cap lands mid-rune and must walk back.
	expr := strings.Repeat("∂", 400)
	got := truncate(expr, maxEquationLen)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), maxEquationLen)
	assert.Equal(t, strings.Repeat("∂", 333), got)
}

func TestRichText_SplitsLongRuns(t *testing.T) {
	runs := richText(strings.Repeat("a", maxRunLen+10))
	require.Len(t, runs, 2)

	runs = richText("")
	assert.Empty(t, runs)
	assert.NotNil(t, runs)
}

// fakeNotion is an httptest-backed stand-in for the publish API.
type fakeNotion struct {
	mu          sync.Mutex
	appendSizes []int
	appendBody  [][]map[string]any
	failUploads bool

	server *httptest.Server
}

func newFakeNotion(t *testing.T) *fakeNotion {
	t.Helper()
	f := &fakeNotion{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/pages":
			json.NewEncoder(w).Encode(map[string]string{
				"id":  "page-1",
				"url": "https://notion.example/page-1",
			})

		case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/blocks/"):
			var payload struct {
				Children []map[string]any `json:"children"`
			}
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &payload))
			f.appendSizes = append(f.appendSizes, len(payload.Children))
			f.appendBody = append(f.appendBody, payload.Children)
			w.Write([]byte(`{}`))

		case r.Method == http.MethodPost && r.URL.Path == "/file_uploads":
			if f.failUploads {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "upload-1"})

		case strings.HasSuffix(r.URL.Path, "/send"), strings.HasSuffix(r.URL.Path, "/complete"):
			w.Write([]byte(`{}`))

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeNotion) client() *Client {
	return NewClient(types.PublishConfig{
		BaseURL:           f.server.URL,
		RequestsPerSecond: 1000,
	}, "test-token", f.server.Client())
}

func writeMarkdown(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "report.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAppendBlocks_ChunksOfOneHundred(t *testing.T) {
	fake := newFakeNotion(t)
	c := fake.client()

	payloads := make([]map[string]any, 250)
	for i := range payloads {
		payloads[i] = fallbackParagraph(fmt.Sprintf("block %d", i))
	}

	require.NoError(t, c.AppendBlocks(context.Background(), "page-1", payloads))
	assert.Equal(t, []int{100, 100, 50}, fake.appendSizes)

	// Chunk indices in the publish log are 1-based.
	events := c.Events()
	require.Len(t, events, 3)
	assert.Equal(t, 1, events[0].ChunkIndex)
	assert.Equal(t, 3, events[2].ChunkIndex)
	assert.Equal(t, 50, events[2].ChunkSize)
}

func TestPublishReport_WritesArtifacts(t *testing.T) {
	fake := newFakeNotion(t)
	c := fake.client()

	dir := t.TempDir()
	figDir := filepath.Join(dir, "papers", "p1", "figures")
	require.NoError(t, os.MkdirAll(figDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(figDir, "fig_0001.png"), []byte("png-bytes"), 0o644))

	md := strings.Join([]string{
		"# Research Corpus Report",
		"",
		"## Per-Paper Summaries",
		"",
		"Some paragraph.",
		"",
		"![fig_0001.png](papers/p1/figures/fig_0001.png)",
		"![remote](https://example.com/r.png)",
	}, "\n")
	mdPath := writeMarkdown(t, dir, md)

	var out strings.Builder
	meta, err := c.PublishReport(context.Background(), mdPath, dir, dir,
		"Research Corpus Report", "parent-1", "run-42", &out)
	require.NoError(t, err)

	assert.Equal(t, "page-1", meta.PageID)
	assert.Equal(t, "https://notion.example/page-1", meta.PageURL)
	assert.Equal(t, "parent-1", meta.ParentPageID)
	assert.Equal(t, 5, meta.BlockCount)
	assert.Equal(t, 2, meta.HeadingCount)
	assert.Equal(t, 2, meta.ImageCount)

	// Both artifacts are written next to the run outputs.
	metaBytes, err := os.ReadFile(filepath.Join(dir, "notion_page_meta.json"))
	require.NoError(t, err)
	var onDisk types.PageMeta
	require.NoError(t, json.Unmarshal(metaBytes, &onDisk))
	assert.Equal(t, "page-1", onDisk.PageID)

	logBytes, err := os.ReadFile(filepath.Join(dir, "notion_publish_log.json"))
	require.NoError(t, err)
	var log types.PublishLogFile
	require.NoError(t, json.Unmarshal(logBytes, &log))
	assert.Equal(t, "run-42", log.RunID)

	names := make([]string, 0, len(log.Events))
	for _, ev := range log.Events {
		names = append(names, ev.Event)
	}
	assert.Contains(t, names, "file_upload_create")
	assert.Contains(t, names, "file_upload_send")
	assert.Contains(t, names, "file_upload_complete")
	assert.Contains(t, names, "image_external")
	assert.Contains(t, names, "page_create")
	assert.Contains(t, names, "append_chunk")

	// The local image rode through the upload path; the remote stayed external.
	require.Len(t, fake.appendBody, 1)
	var uploaded, external bool
	for _, blk := range fake.appendBody[0] {
		if blk["type"] != "image" {
			continue
		}
		img := blk["image"].(map[string]any)
		switch img["type"] {
		case "file_upload":
			uploaded = true
		case "external":
			external = true
		}
	}
	assert.True(t, uploaded)
	assert.True(t, external)

	assert.Contains(t, out.String(), "created page: page-1")
}

func TestPublishReport_UploadFailureFallsBackToParagraph(t *testing.T) {
	fake := newFakeNotion(t)
	fake.failUploads = true
	c := fake.client()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fig.png"), []byte("x"), 0o644))
	mdPath := writeMarkdown(t, dir, "![f](fig.png)")

	_, err := c.PublishReport(context.Background(), mdPath, dir, dir,
		"T", "parent-1", "", io.Discard)
	require.NoError(t, err)

	require.Len(t, fake.appendBody, 1)
	blk := fake.appendBody[0][0]
	assert.Equal(t, "paragraph", blk["type"])
	text := blk["paragraph"].(map[string]any)["rich_text"].([]any)[0].(map[string]any)["text"].(map[string]any)["content"]
	assert.Equal(t, "Image upload failed for local file: fig.png", text)
}

func TestPublishReport_MissingImageFallsBackToParagraph(t *testing.T) {
	fake := newFakeNotion(t)
	c := fake.client()

	dir := t.TempDir()
	mdPath := writeMarkdown(t, dir, "![f](nope/missing.png)")

	_, err := c.PublishReport(context.Background(), mdPath, dir, dir,
		"T", "parent-1", "", io.Discard)
	require.NoError(t, err)

	require.Len(t, fake.appendBody, 1)
	blk := fake.appendBody[0][0]
	assert.Equal(t, "paragraph", blk["type"])
	text := blk["paragraph"].(map[string]any)["rich_text"].([]any)[0].(map[string]any)["text"].(map[string]any)["content"]
	assert.Equal(t, "Image file not found: nope/missing.png", text)
}

func TestClient_SetsIdentityHeaders(t *testing.T) {
	var ua, notionVersion, auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		notionVersion = r.Header.Get("Notion-Version")
		auth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]string{"id": "page-1"})
	}))
	defer ts.Close()

	c := NewClient(types.PublishConfig{
		HTTPConfig:        types.HTTPConfig{UserAgent: "corpus-report/0.1"},
		BaseURL:           ts.URL,
		RequestsPerSecond: 1000,
	}, "tok", ts.Client())

	_, _, err := c.CreatePage(context.Background(), "parent", "Title")
	require.NoError(t, err)

	assert.Equal(t, "corpus-report/0.1", ua)
	assert.Equal(t, DefaultNotionVersion, notionVersion)
	assert.Equal(t, "Bearer tok", auth)
}

func TestCreatePage_ErrorOnFailureStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"restricted"}`))
	}))
	defer ts.Close()

	c := NewClient(types.PublishConfig{BaseURL: ts.URL, RequestsPerSecond: 1000}, "tok", ts.Client())
	_, _, err := c.CreatePage(context.Background(), "parent", "Title")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create page: 403")
}
