// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meshintel/corpus-report/internal/contentstore"
	"github.com/meshintel/corpus-report/internal/pdftool"
	"github.com/meshintel/corpus-report/pkg/types"
)

// Figure filter thresholds. Embedded images failing any check are rejected
// with a stable reason code so the index explains every discard.
const (
	minFigureDim      = 160
	minFigureArea     = 60000
	maxFigureAspect   = 6.0
	minFigureBytes    = 8192
	frontmatterPages  = 2
	frontmatterMaxDim = 420
	frontmatterBytes  = 50000

	fallbackRenderCap = 12
)

// ShouldKeepImage decides whether one probed embedded image is a plausible
// scientific figure. The reason is "kept" or the rejection code.
func ShouldKeepImage(row pdftool.ImageRow, fileSize int64) (bool, string) {
	imageType := strings.ToLower(row.Type)
	if imageType == "mask" || imageType == "smask" || imageType == "stencil" {
		return false, "mask_or_stencil"
	}
	if row.Width < minFigureDim || row.Height < minFigureDim {
		return false, "too_small_dimensions"
	}
	if row.Width*row.Height < minFigureArea {
		return false, "too_small_area"
	}
	if row.Width == 0 || row.Height == 0 {
		return false, "invalid_dimensions"
	}

	longer, shorter := row.Width, row.Height
	if shorter > longer {
		longer, shorter = shorter, longer
	}
	if float64(longer)/float64(shorter) > maxFigureAspect {
		return false, "extreme_aspect_ratio"
	}
	if fileSize < minFigureBytes {
		return false, "too_small_file"
	}

	// Journal logos and icons cluster on the first pages and stay small.
	if row.Page <= frontmatterPages &&
		row.Width <= frontmatterMaxDim && row.Height <= frontmatterMaxDim &&
		fileSize < frontmatterBytes {
		return false, "likely_decorative_frontmatter"
	}

	return true, "kept"
}

// extractFigures pulls embedded images out of workingPDF into figuresDir,
// filtering and content-deduplicating them. When nothing survives it falls
// back to rendering the first pages. rawDir holds intermediate tool output
// and is removed before returning, success or not.
func extractFigures(ctx context.Context, tools *pdftool.Toolchain, workingPDF, figuresDir, rawDir, outDir string, pageCount int) (types.FigureIndex, error) {
	if err := contentstore.EnsureDir(figuresDir); err != nil {
		return types.FigureIndex{}, err
	}
	if err := contentstore.EnsureDir(rawDir); err != nil {
		return types.FigureIndex{}, err
	}
	defer os.RemoveAll(rawDir)

	rows, listRes := tools.ListImages(ctx, workingPDF)
	extractRes := tools.ExtractImages(ctx, workingPDF, filepath.Join(rawDir, "img"))

	fileByIndex, err := indexRawImages(rawDir, "img-*.png")
	if err != nil {
		return types.FigureIndex{}, err
	}

	idx := types.FigureIndex{
		ImageListRows:        len(rows),
		ImageListExitCode:    listRes.Code,
		ImageExtractExitCode: extractRes.Code,
		Figures:              []types.Figure{},
		Rejections:           []types.FigureRejection{},
	}

	seenHashes := make(map[string]bool)
	for _, row := range rows {
		imagePath, ok := fileByIndex[row.Num]
		if !ok {
			idx.Rejections = append(idx.Rejections, types.FigureRejection{Num: row.Num, Reason: "missing_output_file"})
			continue
		}

		info, err := os.Stat(imagePath)
		if err != nil {
			idx.Rejections = append(idx.Rejections, types.FigureRejection{Num: row.Num, Reason: "missing_output_file"})
			continue
		}

		keep, reason := ShouldKeepImage(row, info.Size())
		if !keep {
			idx.Rejections = append(idx.Rejections, types.FigureRejection{Num: row.Num, Reason: reason})
			os.Remove(imagePath)
			continue
		}

		sum, err := contentstore.SHA1File(imagePath)
		if err != nil {
			return types.FigureIndex{}, err
		}
		if seenHashes[sum] {
			idx.Rejections = append(idx.Rejections, types.FigureRejection{Num: row.Num, Reason: "duplicate_hash"})
			os.Remove(imagePath)
			continue
		}
		seenHashes[sum] = true

		outName := fmt.Sprintf("fig_%04d%s", len(idx.Figures)+1, strings.ToLower(filepath.Ext(imagePath)))
		outPath := filepath.Join(figuresDir, outName)
		if err := os.Rename(imagePath, outPath); err != nil {
			return types.FigureIndex{}, fmt.Errorf("moving figure %s: %w", imagePath, err)
		}

		width, height := row.Width, row.Height
		idx.Figures = append(idx.Figures, types.Figure{
			FigureID:     outName,
			Source:       types.FigureEmbedded,
			Page:         row.Page,
			Width:        &width,
			Height:       &height,
			SizeBytes:    info.Size(),
			RelativePath: contentstore.RepoRelative(outPath, outDir),
			CaptionHint:  fmt.Sprintf("Embedded figure from page %d", row.Page),
		})
	}

	if len(idx.Figures) == 0 && pageCount > 0 {
		idx.FallbackUsed = true
		if err := renderFallbackPages(ctx, tools, workingPDF, figuresDir, rawDir, outDir, pageCount, &idx); err != nil {
			return types.FigureIndex{}, err
		}
	}

	idx.KeptCount = len(idx.Figures)
	idx.RejectedCount = len(idx.Rejections)
	return idx, nil
}

// renderFallbackPages renders the first pages of the document as figures when
// no embedded image survived filtering. A failed render is not an error; the
// paper simply ends up without figures.
func renderFallbackPages(ctx context.Context, tools *pdftool.Toolchain, workingPDF, figuresDir, rawDir, outDir string, pageCount int, idx *types.FigureIndex) error {
	last := pageCount
	if last > fallbackRenderCap {
		last = fallbackRenderCap
	}

	res := tools.RenderPages(ctx, workingPDF, filepath.Join(rawDir, "page"), last)
	if !res.OK() {
		return nil
	}

	rendered, err := filepath.Glob(filepath.Join(rawDir, "page-*.png"))
	if err != nil {
		return err
	}
	sort.Strings(rendered)

	for i, pageImg := range rendered {
		outName := fmt.Sprintf("render_%04d.png", i+1)
		outPath := filepath.Join(figuresDir, outName)
		if err := os.Rename(pageImg, outPath); err != nil {
			return fmt.Errorf("moving render %s: %w", pageImg, err)
		}

		info, err := os.Stat(outPath)
		if err != nil {
			return err
		}
		idx.Figures = append(idx.Figures, types.Figure{
			FigureID:     outName,
			Source:       types.FigurePageRender,
			Page:         i + 1,
			SizeBytes:    info.Size(),
			RelativePath: contentstore.RepoRelative(outPath, outDir),
			CaptionHint:  fmt.Sprintf("Fallback rendered page %d", i+1),
		})
	}
	return nil
}

// indexRawImages maps the numeric suffix of each extracted image file to its
// path.
func indexRawImages(rawDir, pattern string) (map[int]string, error) {
	matches, err := filepath.Glob(filepath.Join(rawDir, pattern))
	if err != nil {
		return nil, err
	}

	byIndex := make(map[int]string, len(matches))
	for _, path := range matches {
		if n, ok := pdftool.ImageIndexFromFilename(path); ok {
			byIndex[n] = path
		}
	}
	return byIndex, nil
}
