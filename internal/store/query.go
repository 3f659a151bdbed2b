// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mlsec/paper-curator/pkg/types"
)

// CuratedPaper joins a paper with its deciding verdict and, when present,
// its classification. The export stage consumes these rows.
type CuratedPaper struct {
	Paper           types.Paper
	FinalStage      string
	FinalReason     string
	FinalConfidence types.Confidence
	Classification  *types.Classification
}

// AcceptedPapers returns accepted and classified papers with their deciding
// verdict and classification, ordered by ID for deterministic export.
func (s *Store) AcceptedPapers(ctx context.Context) ([]CuratedPaper, error) {
	return s.curatedByStatus(ctx, types.StatusAccepted, types.StatusClassified)
}

// RejectedPapers returns rejected papers with their deciding verdict,
// ordered by ID.
func (s *Store) RejectedPapers(ctx context.Context) ([]CuratedPaper, error) {
	return s.curatedByStatus(ctx, types.StatusRejected, types.StatusRejected)
}

func (s *Store) curatedByStatus(ctx context.Context, a, b types.PaperStatus) ([]CuratedPaper, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.title, p.abstract, p.venue, p.year, p.authors, p.citation_count,
			p.url, p.pdf_url, p.source, p.keywords_matched,
			v.stage, v.reason, v.confidence,
			c.labels, c.paper_type, c.domains, c.model_types, c.tags,
			c.confidence, c.reasoning, c.fallback, c.flags
		FROM papers p
		LEFT JOIN verdicts v ON v.paper_id = p.id
			AND v.position = (SELECT max(position) FROM verdicts WHERE paper_id = p.id)
		LEFT JOIN classifications c ON c.paper_id = p.id
		WHERE p.status IN (?, ?)
		ORDER BY p.id`, a, b)
	if err != nil {
		return nil, fmt.Errorf("querying curated papers: %w", err)
	}
	defer rows.Close()

	var out []CuratedPaper
	for rows.Next() {
		var cp CuratedPaper
		var title, abstract, venue, url, pdfURL, source, authors, keywords sql.NullString
		var year, citations sql.NullInt64
		var stage, reason, confidence sql.NullString
		var labels, paperType, domains, modelTypes, tags sql.NullString
		var clsConfidence, reasoning, flags sql.NullString
		var fallback sql.NullInt64

		if err := rows.Scan(&cp.Paper.ID, &title, &abstract, &venue, &year, &authors,
			&citations, &url, &pdfURL, &source, &keywords,
			&stage, &reason, &confidence,
			&labels, &paperType, &domains, &modelTypes, &tags,
			&clsConfidence, &reasoning, &fallback, &flags); err != nil {
			return nil, fmt.Errorf("scanning curated paper: %w", err)
		}

		cp.Paper.Title = title.String
		cp.Paper.Abstract = abstract.String
		cp.Paper.Venue = venue.String
		cp.Paper.Year = int(year.Int64)
		cp.Paper.CitationCount = int(citations.Int64)
		cp.Paper.URL = url.String
		cp.Paper.PDFURL = pdfURL.String
		cp.Paper.Source = source.String
		cp.Paper.Authors = unmarshalList(authors.String)
		cp.Paper.KeywordsMatched = unmarshalList(keywords.String)
		cp.FinalStage = stage.String
		cp.FinalReason = reason.String
		cp.FinalConfidence = types.Confidence(confidence.String)

		if labels.Valid {
			cp.Classification = &types.Classification{
				Labels:     unmarshalList(labels.String),
				PaperType:  paperType.String,
				Domains:    unmarshalList(domains.String),
				ModelTypes: unmarshalList(modelTypes.String),
				Tags:       unmarshalList(tags.String),
				Confidence: types.Confidence(clsConfidence.String),
				Reasoning:  reasoning.String,
				Fallback:   fallback.Int64 != 0,
				Flags:      unmarshalList(flags.String),
			}
		}

		out = append(out, cp)
	}
	return out, rows.Err()
}
