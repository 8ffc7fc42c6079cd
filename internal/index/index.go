// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index maintains a SQLite FTS5 search index over the corpus summary
// artifact so summarized papers can be queried by content.
//
// The index lives at OutDir/index/corpus.db and is rebuilt from
// paper_summaries.json whenever that file's modification time changes;
// unchanged summaries are skipped so repeated queries stay cheap.
//
// See docs/ARCHITECTURE.md § Corpus Index.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meshintel/corpus-report/internal/contentstore"
	"github.com/meshintel/corpus-report/pkg/types"
)

const (
	indexDirName = "index"
	dbFile       = "corpus.db"

	defaultMaxResults = 20
	snippetTokens     = 18
)

// Store manages the corpus search database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the search database at outDir/index/corpus.db,
// creating the schema when absent.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.OutDir, indexDirName)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			paper_id TEXT PRIMARY KEY,
			citation_number INTEGER NOT NULL,
			title TEXT,
			citation TEXT,
			doi TEXT,
			year TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS sections (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id TEXT NOT NULL REFERENCES papers(paper_id),
			section TEXT NOT NULL,
			content TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sections_paper_id ON sections(paper_id)`,
		`CREATE TABLE IF NOT EXISTS index_status (
			source TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='sections_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE sections_fts USING fts5(content, content=sections, content_rowid=rowid)`,
			`CREATE TRIGGER sections_ai AFTER INSERT ON sections BEGIN
				INSERT INTO sections_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER sections_ad AFTER DELETE ON sections BEGIN
				INSERT INTO sections_fts(sections_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
			`CREATE TRIGGER sections_au AFTER UPDATE ON sections BEGIN
				INSERT INTO sections_fts(sections_fts, rowid, content) VALUES('delete', old.rowid, old.content);
				INSERT INTO sections_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// Refresh rebuilds the index from summaryPath when the summary file changed
// since the last build. It reports whether a rebuild happened.
func (s *Store) Refresh(ctx context.Context, summaryPath string) (bool, error) {
	info, err := os.Stat(summaryPath)
	if err != nil {
		return false, fmt.Errorf("stat summary %s: %w", summaryPath, err)
	}
	modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

	var storedModTime string
	err = s.db.QueryRowContext(ctx,
		`SELECT file_mod_time FROM index_status WHERE source = ?`, summaryPath,
	).Scan(&storedModTime)
	if err == nil && storedModTime == modTime {
		return false, nil
	}

	var sum types.SummaryFile
	if err := contentstore.ReadJSON(summaryPath, &sum); err != nil {
		return false, err
	}

	if err := s.rebuild(ctx, &sum, summaryPath, modTime); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) rebuild(ctx context.Context, sum *types.SummaryFile, summaryPath, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Whole-index rebuild: the summary file is the single source of truth.
	if _, err := tx.ExecContext(ctx, `DELETE FROM sections`); err != nil {
		return fmt.Errorf("clearing sections: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM papers`); err != nil {
		return fmt.Errorf("clearing papers: %w", err)
	}

	paperStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (paper_id, citation_number, title, citation, doi, year)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing paper insert: %w", err)
	}
	defer paperStmt.Close()

	sectionStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sections (paper_id, section, content) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing section insert: %w", err)
	}
	defer sectionStmt.Close()

	for _, p := range sum.Papers {
		if _, err := paperStmt.ExecContext(ctx,
			p.PaperID, p.CitationNumber, p.Title, p.Citation, p.DOI, p.Year,
		); err != nil {
			return fmt.Errorf("inserting paper %s: %w", p.PaperID, err)
		}

		sections := []struct {
			name, content string
		}{
			{"title", p.Title},
			{"objective", p.Objective},
			{"methods", p.Methods},
			{"findings", p.Findings},
			{"limitations", p.Limitations},
			{"abstract", p.AbstractExcerpt},
			{"citation", p.Citation},
		}
		for _, sec := range sections {
			if strings.TrimSpace(sec.content) == "" {
				continue
			}
			if _, err := sectionStmt.ExecContext(ctx, p.PaperID, sec.name, sec.content); err != nil {
				return fmt.Errorf("inserting section %s/%s: %w", p.PaperID, sec.name, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO index_status (source, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(source) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		summaryPath, modTime,
	); err != nil {
		return fmt.Errorf("updating index status: %w", err)
	}

	return tx.Commit()
}

// Result is one query hit: the matched section plus the owning paper's
// citation identity and a short snippet around the match.
type Result struct {
	PaperID        string `json:"paper_id"`
	CitationNumber int    `json:"citation_number"`
	Title          string `json:"title"`
	Section        string `json:"section"`
	Snippet        string `json:"snippet"`
}

// Query runs an FTS5 match over the indexed summary sections, ranked by
// relevance. maxResults of zero uses the store default.
func (s *Store) Query(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty query")
	}
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT sec.paper_id, p.citation_number, p.title, sec.section,
			snippet(sections_fts, 0, '', '', '...', ?)
		FROM sections_fts
		JOIN sections sec ON sec.rowid = sections_fts.rowid
		JOIN papers p ON p.paper_id = sec.paper_id
		WHERE sections_fts MATCH ?
		ORDER BY sections_fts.rank
		LIMIT ?`,
		snippetTokens, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.PaperID, &r.CitationNumber, &r.Title, &r.Section, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
