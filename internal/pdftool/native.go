// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdftool

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// NativeText extracts text with the pure-Go PDF reader, joining pages with
// the same form-feed separator pdftotext uses so downstream page splitting
// is identical. It is the last-chance fallback when the external tool fails
// on both the direct and staged paths.
func NativeText(pdfPath string) (string, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	defer f.Close()

	var b strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			b.WriteString("\f")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page degrades to empty, not failure.
			text = ""
		}
		b.WriteString(text)
		b.WriteString("\f")
	}

	out := b.String()
	if strings.TrimSpace(strings.ReplaceAll(out, "\f", "")) == "" {
		return "", fmt.Errorf("native extraction produced no text for %s", pdfPath)
	}
	return out, nil
}
