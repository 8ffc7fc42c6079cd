// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftool

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/corpus-report/internal/execx"
)

// fakeRunner returns canned results keyed on the binary name.
type fakeRunner struct {
	results map[string]execx.Result
	calls   []string
}

func (f *fakeRunner) Run(_ context.Context, _ time.Duration, name string, args ...string) execx.Result {
	f.calls = append(f.calls, name+" "+strings.Join(args, " "))
	if res, ok := f.results[name]; ok {
		return res
	}
	return execx.Result{Code: 1, Stderr: "unexpected binary " + name}
}

const sampleImageList = `page   num  type   width height color comp bpc  enc interp  object ID x-ppi y-ppi size ratio
--------------------------------------------------------------------------------------------
   1     0 image     893   187  rgb     3   8  jpeg   no        11  0   200   200 14.4K 2.9%
   3     1 image     500   500  rgb     3   8  image  no        24  0   300   300  60K  22%
   3     2 smask     500   500  gray    1   8  image  no        25  0   300   300  12K  9.8%
garbage line that should be skipped
`

func TestParseImageList(t *testing.T) {
	rows := ParseImageList(sampleImageList)
	require.Len(t, rows, 3)

	assert.Equal(t, 1, rows[0].Page)
	assert.Equal(t, 0, rows[0].Num)
	assert.Equal(t, "image", rows[0].Type)
	assert.Equal(t, 893, rows[0].Width)
	assert.Equal(t, 187, rows[0].Height)
	wantSize := 14.4 * 1024
	assert.Equal(t, int64(wantSize), rows[0].SizeBytes)

	assert.Equal(t, "smask", rows[2].Type)
	assert.Equal(t, 2, rows[2].Num)
}

func TestParseSizeToken(t *testing.T) {
	tests := []struct {
		token string
		want  int64
	}{
		{"8268B", 8268},
		{"102K", 102 * 1024},
		{"1.5M", int64(1.5 * 1024 * 1024)},
		{"2G", 2 * 1024 * 1024 * 1024},
		{"512", 512},
		{"junk", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSizeToken(tt.token), "token %q", tt.token)
	}
}

func TestParsePageCount(t *testing.T) {
	out := "Title:          Some Paper\nPages:          14\nEncrypted:      no\n"
	n, ok := ParsePageCount(out)
	require.True(t, ok)
	assert.Equal(t, 14, n)

	_, ok = ParsePageCount("no pages line here")
	assert.False(t, ok)
}

func TestSplitPages(t *testing.T) {
	pages := SplitPages("page one\fpage two\f")
	assert.Equal(t, []string{"page one", "page two"}, pages)

	pages = SplitPages("only page")
	assert.Equal(t, []string{"only page"}, pages)
}

func TestImageIndexFromFilename(t *testing.T) {
	n, ok := ImageIndexFromFilename("/tmp/raw/img-007.png")
	require.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok = ImageIndexFromFilename("noindex.png")
	assert.False(t, ok)
}

func TestToolchain_PageCount(t *testing.T) {
	fr := &fakeRunner{results: map[string]execx.Result{
		"pdfinfo": {Code: 0, Stdout: "Pages: 9\n"},
	}}
	tc := New(fr)

	n, ok := tc.PageCount(context.Background(), "a.pdf")
	require.True(t, ok)
	assert.Equal(t, 9, n)
}

func TestToolchain_PageCount_ProbeFailure(t *testing.T) {
	fr := &fakeRunner{results: map[string]execx.Result{
		"pdfinfo": {Code: 1, Stderr: "broken"},
	}}
	tc := New(fr)

	_, ok := tc.PageCount(context.Background(), "a.pdf")
	assert.False(t, ok)
}

func TestToolchain_ListImages(t *testing.T) {
	fr := &fakeRunner{results: map[string]execx.Result{
		"pdfimages": {Code: 0, Stdout: sampleImageList},
	}}
	tc := New(fr)

	rows, res := tc.ListImages(context.Background(), "a.pdf")
	assert.True(t, res.OK())
	assert.Len(t, rows, 3)
}

func TestNativeText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.pdf")

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	doc.Cell(40, 10, "vorticity transport equation")
	doc.AddPage()
	doc.Cell(40, 10, "second page text")
	require.NoError(t, doc.OutputFileAndClose(path))

	text, err := NativeText(path)
	require.NoError(t, err)
	assert.Contains(t, text, "vorticity")

	pages := SplitPages(text)
	assert.Len(t, pages, 2)
}
