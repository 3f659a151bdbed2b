// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the paper curation lifecycle in SQLite: paper
// metadata with status, the verdict audit trail from filtering, and
// classification results. The database is the source of truth between CLI
// invocations; the export stage reads it to build the static site data.
// See docs/ARCHITECTURE.md § State Store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mlsec/paper-curator/internal/pipeline"
	"github.com/mlsec/paper-curator/pkg/types"
)

const dbFile = "curation.db"

// Store manages the curation SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at dataDir/curation.db, creating the
// schema when absent.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
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
			id TEXT PRIMARY KEY,
			title TEXT,
			abstract TEXT,
			venue TEXT,
			year INTEGER,
			authors TEXT,
			citation_count INTEGER,
			url TEXT,
			pdf_url TEXT,
			source TEXT,
			keywords_matched TEXT,
			status TEXT NOT NULL,
			first_seen TEXT,
			updated_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_status ON papers(status)`,
		`CREATE TABLE IF NOT EXISTS verdicts (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id TEXT NOT NULL REFERENCES papers(id),
			position INTEGER NOT NULL,
			stage TEXT NOT NULL,
			relevant INTEGER NOT NULL,
			reason TEXT NOT NULL,
			confidence TEXT NOT NULL,
			decided_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verdicts_paper_id ON verdicts(paper_id)`,
		`CREATE TABLE IF NOT EXISTS classifications (
			paper_id TEXT PRIMARY KEY REFERENCES papers(id),
			labels TEXT NOT NULL,
			paper_type TEXT NOT NULL,
			domains TEXT,
			model_types TEXT,
			tags TEXT,
			confidence TEXT NOT NULL,
			reasoning TEXT,
			fallback INTEGER NOT NULL DEFAULT 0,
			flags TEXT,
			classified_at TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// AddRefs inserts pending references that are not already tracked. A
// reference becomes a paper row with only an ID and pending status.
func (s *Store) AddRefs(ctx context.Context, refs []string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := timestamp()
	added := 0
	for _, ref := range refs {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO papers (id, status, first_seen, updated_at) VALUES (?, ?, ?, ?)`,
			ref, types.StatusPending, now, now)
		if err != nil {
			return 0, fmt.Errorf("inserting reference %s: %w", ref, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing references: %w", err)
	}
	return added, nil
}

// PendingRefs returns the IDs of papers still awaiting metadata, oldest
// first.
func (s *Store) PendingRefs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM papers WHERE status = ? ORDER BY first_seen, id`, types.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("querying pending references: %w", err)
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("scanning reference: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// UpsertPapers writes fetched metadata, moving each paper to the given
// status. Papers are keyed by canonical ID; when a fetch resolved a
// reference to a different ID the caller retires the old row with
// RetireRefs.
func (s *Store) UpsertPapers(ctx context.Context, papers []types.Paper, status types.PaperStatus) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := timestamp()
	for _, p := range papers {
		authors, err := marshalList(p.Authors)
		if err != nil {
			return fmt.Errorf("encoding authors for %s: %w", p.ID, err)
		}
		keywords, err := marshalList(p.KeywordsMatched)
		if err != nil {
			return fmt.Errorf("encoding keywords for %s: %w", p.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO papers (id, title, abstract, venue, year, authors, citation_count,
				url, pdf_url, source, keywords_matched, status, first_seen, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				abstract = excluded.abstract,
				venue = excluded.venue,
				year = excluded.year,
				authors = excluded.authors,
				citation_count = excluded.citation_count,
				url = excluded.url,
				pdf_url = excluded.pdf_url,
				source = excluded.source,
				keywords_matched = excluded.keywords_matched,
				status = excluded.status,
				updated_at = excluded.updated_at`,
			p.ID, p.Title, p.Abstract, p.Venue, p.Year, authors, p.CitationCount,
			p.URL, p.PDFURL, p.Source, keywords, status, now, now)
		if err != nil {
			return fmt.Errorf("upserting paper %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing papers: %w", err)
	}
	return nil
}

// RetireRefs deletes pending reference rows that were resolved to a
// different canonical ID, so later fetch runs do not retry them. Rows that
// have advanced past pending are left alone.
func (s *Store) RetireRefs(ctx context.Context, refs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ref := range refs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM papers WHERE id = ? AND status = ?`, ref, types.StatusPending); err != nil {
			return fmt.Errorf("retiring reference %s: %w", ref, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing retired references: %w", err)
	}
	return nil
}

// ListByStatus returns papers in the given status ordered by ID.
func (s *Store) ListByStatus(ctx context.Context, status types.PaperStatus) ([]types.Paper, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, abstract, venue, year, authors, citation_count,
			url, pdf_url, source, keywords_matched
		FROM papers WHERE status = ? ORDER BY id`, status)
	if err != nil {
		return nil, fmt.Errorf("querying papers by status: %w", err)
	}
	defer rows.Close()

	return scanPapers(rows)
}

// RecordResults stores pipeline results: each paper's status moves to
// accepted or rejected and its evaluated verdicts replace any prior audit
// trail.
func (s *Store) RecordResults(ctx context.Context, results []pipeline.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := timestamp()
	for _, res := range results {
		status := types.StatusRejected
		if res.Relevant {
			status = types.StatusAccepted
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE papers SET status = ?, updated_at = ? WHERE id = ?`,
			status, now, res.Paper.ID); err != nil {
			return fmt.Errorf("updating status for %s: %w", res.Paper.ID, err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM verdicts WHERE paper_id = ?`, res.Paper.ID); err != nil {
			return fmt.Errorf("clearing verdicts for %s: %w", res.Paper.ID, err)
		}

		for i, v := range res.Verdicts {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO verdicts (paper_id, position, stage, relevant, reason, confidence, decided_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				res.Paper.ID, i, v.Stage, boolInt(v.Relevant), v.Reason, v.Confidence, now); err != nil {
				return fmt.Errorf("inserting verdict for %s: %w", res.Paper.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing results: %w", err)
	}
	return nil
}

// RecordClassification stores a classification and moves the paper to
// classified status.
func (s *Store) RecordClassification(ctx context.Context, paperID string, c types.Classification) error {
	labels, err := marshalList(c.Labels)
	if err != nil {
		return fmt.Errorf("encoding labels for %s: %w", paperID, err)
	}
	domains, _ := marshalList(c.Domains)
	modelTypes, _ := marshalList(c.ModelTypes)
	tags, _ := marshalList(c.Tags)
	flags, _ := marshalList(c.Flags)

	now := timestamp()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO classifications (paper_id, labels, paper_type, domains, model_types,
			tags, confidence, reasoning, fallback, flags, classified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(paper_id) DO UPDATE SET
			labels = excluded.labels,
			paper_type = excluded.paper_type,
			domains = excluded.domains,
			model_types = excluded.model_types,
			tags = excluded.tags,
			confidence = excluded.confidence,
			reasoning = excluded.reasoning,
			fallback = excluded.fallback,
			flags = excluded.flags,
			classified_at = excluded.classified_at`,
		paperID, labels, c.PaperType, domains, modelTypes,
		tags, c.Confidence, c.Reasoning, boolInt(c.Fallback), flags, now)
	if err != nil {
		return fmt.Errorf("upserting classification for %s: %w", paperID, err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE papers SET status = ?, updated_at = ? WHERE id = ?`,
		types.StatusClassified, now, paperID); err != nil {
		return fmt.Errorf("updating status for %s: %w", paperID, err)
	}
	return nil
}

// CountsByStatus returns the number of papers in each lifecycle status.
func (s *Store) CountsByStatus(ctx context.Context) (map[types.PaperStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, count(*) FROM papers GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting papers: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.PaperStatus]int)
	for rows.Next() {
		var status types.PaperStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func marshalList(list []string) (string, error) {
	if len(list) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalList(data string) []string {
	if data == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil
	}
	if len(list) == 0 {
		return nil
	}
	return list
}

func scanPapers(rows *sql.Rows) ([]types.Paper, error) {
	var papers []types.Paper
	for rows.Next() {
		var p types.Paper
		var authors, keywords sql.NullString
		var title, abstract, venue, url, pdfURL, source sql.NullString
		var year, citations sql.NullInt64
		if err := rows.Scan(&p.ID, &title, &abstract, &venue, &year, &authors,
			&citations, &url, &pdfURL, &source, &keywords); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		p.Title = title.String
		p.Abstract = abstract.String
		p.Venue = venue.String
		p.Year = int(year.Int64)
		p.CitationCount = int(citations.Int64)
		p.URL = url.String
		p.PDFURL = pdfURL.String
		p.Source = source.String
		p.Authors = unmarshalList(authors.String)
		p.KeywordsMatched = unmarshalList(keywords.String)
		papers = append(papers, p)
	}
	return papers, rows.Err()
}
