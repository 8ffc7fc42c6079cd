// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest enumerates a directory of PDFs and builds the
// content-addressed, deduplicated corpus manifest. The manifest's unique
// paper ordering is the sole source of citation numbering downstream, so
// bucket ordering must be deterministic: buckets sort by the
// case-insensitive minimum file name among their members.
//
// See docs/ARCHITECTURE.md § Manifest.
package manifest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meshintel/corpus-report/internal/contentstore"
	"github.com/meshintel/corpus-report/internal/pdftool"
	"github.com/meshintel/corpus-report/pkg/types"
)

const (
	// stagingDirName holds probe staging copies; removed when Build returns,
	// on success and on failure.
	stagingDirName = "temp_probe"

	allFileName    = "manifest_all.json"
	uniqueFileName = "manifest_unique.json"
)

// AllPath returns the manifest_all.json location for a run directory.
func AllPath(outDir string) string { return filepath.Join(outDir, allFileName) }

// UniquePath returns the manifest_unique.json location for a run directory.
func UniquePath(outDir string) string { return filepath.Join(outDir, uniqueFileName) }

// Build scans cfg.PapersDir, probes every PDF, groups byte-identical files,
// and writes manifest_all.json and manifest_unique.json under cfg.OutDir.
// A missing papers directory is fatal and aborts before any I/O. Individual
// probe failures are recorded as status flags, never returned as errors.
func Build(ctx context.Context, tools *pdftool.Toolchain, cfg types.ManifestConfig, repoRoot string, w io.Writer) (*types.ManifestAll, *types.ManifestUnique, error) {
	papersDir, err := filepath.Abs(cfg.PapersDir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving papers directory: %w", err)
	}
	if info, err := os.Stat(papersDir); err != nil || !info.IsDir() {
		return nil, nil, fmt.Errorf("papers directory does not exist: %s", papersDir)
	}

	stagingDir := filepath.Join(cfg.OutDir, stagingDirName)
	if err := contentstore.EnsureDir(stagingDir); err != nil {
		return nil, nil, err
	}
	defer os.RemoveAll(stagingDir)

	pdfs, err := listPDFs(papersDir)
	if err != nil {
		return nil, nil, err
	}

	records := make([]types.PdfRecord, 0, len(pdfs))
	for _, pdfPath := range pdfs {
		rec, err := probeFile(ctx, tools, pdfPath, stagingDir, repoRoot)
		if err != nil {
			return nil, nil, err
		}
		fmt.Fprintf(w, "probed: %s (%s)\n", rec.FileName, rec.ExtractabilityStatus)
		records = append(records, rec)
	}

	all, unique := group(records, papersDir)

	if err := contentstore.WriteJSON(AllPath(cfg.OutDir), all); err != nil {
		return nil, nil, err
	}
	if err := contentstore.WriteJSON(UniquePath(cfg.OutDir), unique); err != nil {
		return nil, nil, err
	}

	fmt.Fprintf(w, "\nManifest: %d files, %d unique, %d duplicate groups\n",
		all.TotalFiles, all.UniqueFiles, all.DuplicateGroups)
	return all, unique, nil
}

// listPDFs returns the absolute paths of all *.pdf files in dir, sorted by
// case-insensitive name.
func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading papers directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Slice(paths, func(i, j int) bool {
		return strings.ToLower(filepath.Base(paths[i])) < strings.ToLower(filepath.Base(paths[j]))
	})
	return paths, nil
}

// probeFile hashes one PDF and runs the page-count and extractability probes.
// Hash or stat failures are real errors; probe failures become status flags.
func probeFile(ctx context.Context, tools *pdftool.Toolchain, pdfPath, stagingDir, repoRoot string) (types.PdfRecord, error) {
	info, err := os.Stat(pdfPath)
	if err != nil {
		return types.PdfRecord{}, fmt.Errorf("stat %s: %w", pdfPath, err)
	}

	sum, err := contentstore.SHA256File(pdfPath)
	if err != nil {
		return types.PdfRecord{}, err
	}

	rec := types.PdfRecord{
		FileName:     filepath.Base(pdfPath),
		AbsolutePath: pdfPath,
		RelativePath: contentstore.RepoRelative(pdfPath, repoRoot),
		SHA256:       sum,
		SizeBytes:    info.Size(),
	}

	if pages, ok := tools.PageCount(ctx, pdfPath); ok {
		rec.Pages = &pages
	}

	rec.ExtractabilityStatus, rec.ExtractabilityNote = probeExtractability(ctx, tools, pdfPath, stagingDir)
	return rec, nil
}

// probeExtractability runs the single-page text probe directly, then against
// an ASCII-only staging copy when the direct path yields nothing.
func probeExtractability(ctx context.Context, tools *pdftool.Toolchain, pdfPath, stagingDir string) (types.ExtractabilityStatus, string) {
	direct := tools.ProbeFirstPage(ctx, pdfPath)
	if direct.OK() && strings.TrimSpace(direct.Stdout) != "" {
		return types.ExtractDirectOK, "pdftotext direct path succeeded"
	}

	stagePath := stagePathFor(pdfPath, stagingDir)
	if err := contentstore.CopyFile(pdfPath, stagePath); err != nil {
		return types.ExtractFailed, fmt.Sprintf("direct failed; staging copy failed: %v", err)
	}

	staged := tools.ProbeFirstPage(ctx, stagePath)
	if staged.OK() && strings.TrimSpace(staged.Stdout) != "" {
		return types.ExtractRequiresStaging, "pdftotext succeeds only with ASCII staging path"
	}
	return types.ExtractFailed, "pdftotext failed on direct and staged path"
}

// stagePathFor builds a collision-free ASCII-only staging file name.
func stagePathFor(pdfPath, stagingDir string) string {
	stem := asciiStem(strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath)))

	stagePath := filepath.Join(stagingDir, stem+".pdf")
	for idx := 1; ; idx++ {
		if _, err := os.Stat(stagePath); os.IsNotExist(err) {
			return stagePath
		}
		stagePath = filepath.Join(stagingDir, fmt.Sprintf("%s_%d.pdf", stem, idx))
	}
}

// asciiStem strips non-ASCII runes; an empty result falls back to "paper".
func asciiStem(stem string) string {
	var b strings.Builder
	for _, r := range stem {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "paper"
	}
	return b.String()
}

// group buckets records by hash and assigns paper IDs in deterministic order.
func group(records []types.PdfRecord, papersDir string) (*types.ManifestAll, *types.ManifestUnique) {
	buckets := make(map[string][]types.PdfRecord)
	for _, rec := range records {
		buckets[rec.SHA256] = append(buckets[rec.SHA256], rec)
	}

	hashes := make([]string, 0, len(buckets))
	for h := range buckets {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool {
		return minAlias(buckets[hashes[i]]) < minAlias(buckets[hashes[j]])
	})

	var (
		uniques      []types.UniquePaper
		groupsDetail [][]string
		dupGroups    int
	)
	for idx, h := range hashes {
		bucket := buckets[h]
		sort.Slice(bucket, func(i, j int) bool {
			return strings.ToLower(bucket[i].FileName) < strings.ToLower(bucket[j].FileName)
		})
		canonical := bucket[0]

		aliases := make([]string, len(bucket))
		for i, rec := range bucket {
			aliases[i] = rec.FileName
		}
		groupsDetail = append(groupsDetail, aliases)
		if len(aliases) > 1 {
			dupGroups++
		}

		uniques = append(uniques, types.UniquePaper{
			PaperID:               fmt.Sprintf("paper_%03d_%s", idx+1, h[:8]),
			SHA256:                h,
			CanonicalFileName:     canonical.FileName,
			CanonicalAbsolutePath: canonical.AbsolutePath,
			CanonicalRelativePath: canonical.RelativePath,
			SizeBytes:             canonical.SizeBytes,
			Pages:                 canonical.Pages,
			ExtractabilityStatus:  canonical.ExtractabilityStatus,
			ExtractabilityNote:    canonical.ExtractabilityNote,
			AliasFileNames:        aliases,
			DuplicateCount:        len(aliases) - 1,
		})
	}

	now := contentstore.UTCNowISO()
	all := &types.ManifestAll{
		GeneratedAtUTC:        now,
		PapersDir:             papersDir,
		TotalFiles:            len(records),
		UniqueFiles:           len(uniques),
		DuplicateGroups:       dupGroups,
		Records:               records,
		DuplicateGroupsDetail: groupsDetail,
	}
	unique := &types.ManifestUnique{
		GeneratedAtUTC:    now,
		SourceTotalFiles:  len(records),
		SourceUniqueFiles: len(uniques),
		Papers:            uniques,
	}
	return all, unique
}

func minAlias(bucket []types.PdfRecord) string {
	min := strings.ToLower(bucket[0].FileName)
	for _, rec := range bucket[1:] {
		if name := strings.ToLower(rec.FileName); name < min {
			min = name
		}
	}
	return min
}
