// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftool wraps the external PDF toolchain (pdfinfo, pdftotext,
// pdfimages, pdftoppm) behind a Toolchain value backed by execx. The tools
// are opaque subprocesses: any non-zero exit or timeout is a soft failure
// surfaced through the returned Result, never a Go error.
//
// See docs/ARCHITECTURE.md § External Interfaces.
package pdftool

import (
	"context"
	"strconv"
	"time"

	"github.com/meshintel/corpus-report/internal/execx"
)

const (
	binPdfinfo   = "pdfinfo"
	binPdftotext = "pdftotext"
	binPdfimages = "pdfimages"
	binPdftoppm  = "pdftoppm"
)

// Per-tool-class timeouts. Image extraction and page rendering get the long
// budget; probes stay short so a wedged tool cannot stall the whole batch.
const (
	infoTimeout    = 120 * time.Second
	probeTimeout   = 90 * time.Second
	textTimeout    = 600 * time.Second
	listTimeout    = 600 * time.Second
	extractTimeout = 1200 * time.Second
	renderTimeout  = 1200 * time.Second
)

// Toolchain invokes the PDF command-line tools through a Runner.
type Toolchain struct {
	runner execx.Runner
}

// New returns a Toolchain backed by the given runner.
func New(runner execx.Runner) *Toolchain {
	return &Toolchain{runner: runner}
}

// PageCount probes the declared page count via pdfinfo. The bool result is
// false when the probe failed or produced no Pages line.
func (t *Toolchain) PageCount(ctx context.Context, pdfPath string) (int, bool) {
	res := t.runner.Run(ctx, infoTimeout, binPdfinfo, pdfPath)
	if !res.OK() {
		return 0, false
	}
	return ParsePageCount(res.Stdout)
}

// ProbeFirstPage extracts page 1 text to stdout. Used by the manifest stage
// to decide extractability.
func (t *Toolchain) ProbeFirstPage(ctx context.Context, pdfPath string) execx.Result {
	return t.runner.Run(ctx, probeTimeout, binPdftotext, "-f", "1", "-l", "1", pdfPath, "-")
}

// ExtractText runs full-document text extraction into outPath.
func (t *Toolchain) ExtractText(ctx context.Context, pdfPath, outPath string) execx.Result {
	return t.runner.Run(ctx, textTimeout, binPdftotext, pdfPath, outPath)
}

// ListImages returns the parsed embedded-image table and the raw result.
func (t *Toolchain) ListImages(ctx context.Context, pdfPath string) ([]ImageRow, execx.Result) {
	res := t.runner.Run(ctx, listTimeout, binPdfimages, "-list", pdfPath)
	if !res.OK() {
		return nil, res
	}
	return ParseImageList(res.Stdout), res
}

// ExtractImages rasterizes every embedded image to PNG files named
// <prefix>-NNN.png.
func (t *Toolchain) ExtractImages(ctx context.Context, pdfPath, prefix string) execx.Result {
	return t.runner.Run(ctx, extractTimeout, binPdfimages, "-png", pdfPath, prefix)
}

// RenderPages renders pages 1..last to PNG files named <prefix>-N.png.
func (t *Toolchain) RenderPages(ctx context.Context, pdfPath, prefix string, last int) execx.Result {
	return t.runner.Run(ctx, renderTimeout, binPdftoppm,
		"-png", "-f", "1", "-l", strconv.Itoa(last), pdfPath, prefix)
}
