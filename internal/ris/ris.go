// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ris parses RIS bibliographic reference files and resolves paper
// metadata against them. An absent reference file yields an empty index;
// lookups then simply find nothing.
package ris

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/meshintel/corpus-report/internal/textutil"
)

// Entry is one bibliographic record.
type Entry struct {
	Type      string
	Authors   []string
	Title     string
	Journal   string
	Year      string
	DOI       string
	URL       string
	Volume    string
	Issue     string
	StartPage string
	EndPage   string
	Publisher string
}

// Parse reads a RIS file. Records are delimited by the "ER  -" terminator;
// a record without a "TY  -" tag is ignored. A missing file is not an error.
func Parse(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading RIS file %s: %w", path, err)
	}

	var entries []Entry
	for _, raw := range strings.Split(string(data), "ER  -") {
		if !strings.Contains(raw, "TY  -") {
			continue
		}
		entries = append(entries, parseRecord(raw))
	}
	return entries, nil
}

func parseRecord(raw string) Entry {
	var e Entry
	for _, line := range strings.Split(raw, "\n") {
		tag, value, ok := strings.Cut(line, " - ")
		if !ok {
			continue
		}
		tag = strings.TrimSpace(tag)
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		switch tag {
		case "TY":
			e.Type = value
		case "AU":
			e.Authors = append(e.Authors, value)
		case "T1", "TI":
			e.Title = value
		case "T2", "JO", "JA", "JF":
			if e.Journal == "" {
				e.Journal = value
			}
		case "PY":
			if len(value) > 4 {
				value = value[:4]
			}
			e.Year = value
		case "DO":
			e.DOI = value
		case "UR":
			e.URL = value
		case "VL":
			e.Volume = value
		case "IS":
			e.Issue = value
		case "SP":
			e.StartPage = value
		case "EP":
			e.EndPage = value
		case "PB":
			e.Publisher = value
		}
	}
	return e
}

// Index supports metadata lookup by DOI (case-insensitive exact) and by
// normalized title (exact, then substring containment either way).
type Index struct {
	byDOI   map[string]*Entry
	byTitle map[string]*Entry

	// titleKeys keeps the relaxed-containment scan deterministic.
	titleKeys []string
}

// NewIndex builds lookup tables over the entries.
func NewIndex(entries []Entry) Index {
	idx := Index{
		byDOI:   make(map[string]*Entry),
		byTitle: make(map[string]*Entry),
	}
	for i := range entries {
		e := &entries[i]
		if doi := strings.ToLower(strings.TrimSpace(e.DOI)); doi != "" {
			idx.byDOI[doi] = e
		}
		if key := textutil.NormalizeKey(e.Title); key != "" {
			if _, seen := idx.byTitle[key]; !seen {
				idx.titleKeys = append(idx.titleKeys, key)
			}
			idx.byTitle[key] = e
		}
	}
	sort.Strings(idx.titleKeys)
	return idx
}

// Len returns the number of distinct titles indexed.
func (idx Index) Len() int {
	return len(idx.byTitle)
}

// Find resolves an entry by DOI first, then normalized title, then relaxed
// title containment. Returns nil when nothing matches.
func (idx Index) Find(doi, title string) *Entry {
	if doi != "" {
		if e, ok := idx.byDOI[strings.ToLower(doi)]; ok {
			return e
		}
	}
	if title == "" {
		return nil
	}

	norm := textutil.NormalizeKey(title)
	if norm == "" {
		return nil
	}
	if e, ok := idx.byTitle[norm]; ok {
		return e
	}
	for _, key := range idx.titleKeys {
		if strings.Contains(key, norm) || strings.Contains(norm, key) {
			return idx.byTitle[key]
		}
	}
	return nil
}
