// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package manifest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshintel/corpus-report/internal/execx"
	"github.com/meshintel/corpus-report/internal/pdftool"
	"github.com/meshintel/corpus-report/pkg/types"
)

// probeRunner fakes the PDF toolchain. pdfinfo always reports 4 pages;
// pdftotext succeeds with text unless the target file name appears in
// failDirect (in which case only staged copies produce text) or failAll.
type probeRunner struct {
	failDirect map[string]bool
	failAll    map[string]bool
}

func (p *probeRunner) Run(_ context.Context, _ time.Duration, name string, args ...string) execx.Result {
	switch name {
	case "pdfinfo":
		return execx.Result{Code: 0, Stdout: "Pages: 4\n"}
	case "pdftotext":
		path := args[len(args)-2]
		target := filepath.Base(path)
		staged := strings.Contains(path, "temp_probe")
		if p.failAll[target] {
			return execx.Result{Code: 1, Stderr: "cannot extract"}
		}
		if p.failDirect[target] && !staged {
			return execx.Result{Code: 0, Stdout: ""}
		}
		return execx.Result{Code: 0, Stdout: "some first page text"}
	}
	return execx.Result{Code: 1, Stderr: "unexpected " + name}
}

func writePDFs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func buildWith(t *testing.T, runner execx.Runner, papersDir string) (*types.ManifestAll, *types.ManifestUnique, string) {
	t.Helper()
	outDir := t.TempDir()
	cfg := types.ManifestConfig{PapersDir: papersDir, OutDir: outDir}

	var log bytes.Buffer
	all, unique, err := Build(context.Background(), pdftool.New(runner), cfg, papersDir, &log)
	require.NoError(t, err)
	return all, unique, outDir
}

func TestBuild_DeduplicatesIdenticalContent(t *testing.T) {
	dir := writePDFs(t, map[string]string{
		"a.pdf": "identical bytes",
		"b.pdf": "identical bytes",
		"c.pdf": "different bytes",
	})

	all, unique, outDir := buildWith(t, &probeRunner{}, dir)

	assert.Equal(t, 3, all.TotalFiles)
	assert.Equal(t, 2, all.UniqueFiles)
	assert.Equal(t, 1, all.DuplicateGroups)

	require.Len(t, unique.Papers, 2)
	group := unique.Papers[0]
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, group.AliasFileNames)
	assert.Equal(t, 1, group.DuplicateCount)
	assert.Equal(t, "a.pdf", group.CanonicalFileName)

	assert.Equal(t, []string{"c.pdf"}, unique.Papers[1].AliasFileNames)
	assert.Equal(t, 0, unique.Papers[1].DuplicateCount)

	// Both artifacts exist; staging directory is gone.
	_, err := os.Stat(AllPath(outDir))
	assert.NoError(t, err)
	_, err = os.Stat(UniquePath(outDir))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "temp_probe"))
	assert.True(t, os.IsNotExist(err))
}

func TestBuild_PaperIDsStableAcrossRuns(t *testing.T) {
	dir := writePDFs(t, map[string]string{
		"zeta.pdf":  "content z",
		"alpha.pdf": "content a",
		"Mid.pdf":   "content m",
	})

	_, first, _ := buildWith(t, &probeRunner{}, dir)
	_, second, _ := buildWith(t, &probeRunner{}, dir)

	require.Len(t, first.Papers, 3)
	for i := range first.Papers {
		assert.Equal(t, first.Papers[i].PaperID, second.Papers[i].PaperID)
	}

	// Sequence numbers are 1..N in case-insensitive canonical-name order.
	assert.Equal(t, "alpha.pdf", first.Papers[0].CanonicalFileName)
	assert.Equal(t, "Mid.pdf", first.Papers[1].CanonicalFileName)
	assert.Equal(t, "zeta.pdf", first.Papers[2].CanonicalFileName)
	assert.True(t, strings.HasPrefix(first.Papers[0].PaperID, "paper_001_"))
	assert.True(t, strings.HasPrefix(first.Papers[2].PaperID, "paper_003_"))
}

func TestBuild_ExtractabilityStatuses(t *testing.T) {
	dir := writePDFs(t, map[string]string{
		"ok.pdf":     "content 1",
		"staged.pdf": "content 2",
		"broken.pdf": "content 3",
	})
	runner := &probeRunner{
		failDirect: map[string]bool{"staged.pdf": true},
		failAll:    map[string]bool{"broken.pdf": true},
	}

	_, unique, _ := buildWith(t, runner, dir)
	byName := map[string]types.ExtractabilityStatus{}
	for _, p := range unique.Papers {
		byName[p.CanonicalFileName] = p.ExtractabilityStatus
	}

	assert.Equal(t, types.ExtractDirectOK, byName["ok.pdf"])
	assert.Equal(t, types.ExtractRequiresStaging, byName["staged.pdf"])
	assert.Equal(t, types.ExtractFailed, byName["broken.pdf"])
}

func TestBuild_MissingDirectoryIsFatal(t *testing.T) {
	cfg := types.ManifestConfig{
		PapersDir: filepath.Join(t.TempDir(), "does-not-exist"),
		OutDir:    t.TempDir(),
	}

	var log bytes.Buffer
	_, _, err := Build(context.Background(), pdftool.New(&probeRunner{}), cfg, ".", &log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "papers directory does not exist")
}

func TestStagePathFor_ASCIIAndCollisions(t *testing.T) {
	staging := t.TempDir()

	p := stagePathFor("/papers/Ωmega–paper.pdf", staging)
	base := filepath.Base(p)
	assert.Equal(t, "megapaper.pdf", base)

	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	p2 := stagePathFor("/papers/Ωmega–paper.pdf", staging)
	assert.Equal(t, "megapaper_1.pdf", filepath.Base(p2))
}
