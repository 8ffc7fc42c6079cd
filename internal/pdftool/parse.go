// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftool

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	pagesRe      = regexp.MustCompile(`(?m)^Pages:\s*(\d+)`)
	imageIndexRe = regexp.MustCompile(`-(\d+)\.[A-Za-z0-9]+$`)
)

// ParsePageCount extracts the page count from pdfinfo stdout.
func ParsePageCount(stdout string) (int, bool) {
	m := pagesRe.FindStringSubmatch(stdout)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ImageRow is one entry of the pdfimages -list table.
type ImageRow struct {
	Page   int
	Num    int
	Type   string
	Width  int
	Height int
	Color  string

	// SizeBytes is decoded from the human-readable size token (e.g. "102K").
	// The extracted file's actual stat size is authoritative for filtering;
	// this value is the probe's estimate.
	SizeBytes int64

	SizeToken string
	Ratio     string
}

// ParseImageList parses pdfimages -list output. The table is fixed-width but
// image type strings can contain no spaces, so rows are aligned from the
// right: the final 16 whitespace-separated tokens are the known columns.
// Malformed rows are dropped.
func ParseImageList(stdout string) []ImageRow {
	var rows []ImageRow
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "page") || strings.HasPrefix(line, "-") {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) < 16 {
			continue
		}
		t := tokens[len(tokens)-16:]

		page, err1 := strconv.Atoi(t[0])
		num, err2 := strconv.Atoi(t[1])
		width, err3 := strconv.Atoi(t[3])
		height, err4 := strconv.Atoi(t[4])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}

		rows = append(rows, ImageRow{
			Page:      page,
			Num:       num,
			Type:      t[2],
			Width:     width,
			Height:    height,
			Color:     t[5],
			SizeToken: t[14],
			SizeBytes: ParseSizeToken(t[14]),
			Ratio:     t[15],
		})
	}
	return rows
}

// ParseSizeToken decodes pdfimages size tokens like "8268B", "102K", "1.2M"
// into bytes. Unparseable tokens decode to 0.
func ParseSizeToken(token string) int64 {
	token = strings.ToUpper(strings.TrimSpace(token))
	if token == "" {
		return 0
	}

	unit := token[len(token)-1]
	if unit >= '0' && unit <= '9' {
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return 0
		}
		return int64(v)
	}

	v, err := strconv.ParseFloat(token[:len(token)-1], 64)
	if err != nil {
		return 0
	}
	switch unit {
	case 'B':
		return int64(v)
	case 'K':
		return int64(v * 1024)
	case 'M':
		return int64(v * 1024 * 1024)
	case 'G':
		return int64(v * 1024 * 1024 * 1024)
	}
	return int64(v)
}

// SplitPages splits pdftotext output on the form-feed page separator,
// dropping a trailing empty page.
func SplitPages(fullText string) []string {
	pages := strings.Split(fullText, "\f")
	if len(pages) > 0 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

// ImageIndexFromFilename recovers the numeric index from a pdfimages or
// pdftoppm output name like img-007.png.
func ImageIndexFromFilename(path string) (int, bool) {
	m := imageIndexRe.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
