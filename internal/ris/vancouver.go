// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ris

import (
	"fmt"
	"strings"
)

// Vancouver synthesizes a Vancouver-style citation string from whatever
// fields resolved, omitting any unavailable field. fallbackTitle and
// fallbackURL fill in when the entry lacks those fields entirely.
func Vancouver(e Entry, fallbackTitle, fallbackURL string) string {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		title = fallbackTitle
	}
	url := strings.TrimSpace(e.URL)
	if url == "" {
		url = fallbackURL
	}

	var authors []string
	for _, a := range e.Authors {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}

	var parts []string
	if len(authors) > 0 {
		parts = append(parts, strings.Join(authors, ", ")+".")
	}
	if title != "" {
		parts = append(parts, title+".")
	}

	journal := strings.TrimSpace(e.Journal)
	year := strings.TrimSpace(e.Year)
	switch {
	case journal != "":
		volIssue := ""
		switch {
		case e.Volume != "" && e.Issue != "":
			volIssue = fmt.Sprintf("%s(%s)", e.Volume, e.Issue)
		case e.Volume != "":
			volIssue = e.Volume
		case e.Issue != "":
			volIssue = "(" + e.Issue + ")"
		}

		pages := ""
		switch {
		case e.StartPage != "" && e.EndPage != "":
			pages = ":" + e.StartPage + "-" + e.EndPage
		case e.StartPage != "":
			pages = ":" + e.StartPage
		}

		yearBlock := ""
		if year != "" {
			yearBlock = year + ";"
		}
		parts = append(parts, fmt.Sprintf("%s. %s%s%s.", journal, yearBlock, volIssue, pages))
	case year != "":
		parts = append(parts, year+".")
	}

	if doi := strings.TrimSpace(e.DOI); doi != "" {
		parts = append(parts, "doi:"+doi+".")
	}
	if url != "" {
		parts = append(parts, "Available from: "+url+".")
	}

	if len(parts) == 0 {
		return fallbackTitle
	}
	return strings.Join(parts, " ")
}
