// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-curator pipeline.
// See docs/ARCHITECTURE.md § Data Structures.
package types

import "strings"

// PaperStatus tracks a paper through the curation lifecycle.
type PaperStatus string

const (
	// StatusPending means the paper is known only by reference (ID or URL).
	StatusPending PaperStatus = "pending"
	// StatusFetched means metadata has been retrieved from an academic API.
	StatusFetched PaperStatus = "fetched"
	// StatusAccepted means the filtering pipeline judged the paper relevant.
	StatusAccepted PaperStatus = "accepted"
	// StatusRejected means the filtering pipeline judged the paper irrelevant.
	StatusRejected PaperStatus = "rejected"
	// StatusClassified means classification enrichment has completed.
	StatusClassified PaperStatus = "classified"
)

// Paper holds the metadata for one candidate paper. Instances are built once
// at batch load time and read-only afterwards; filters never mutate them.
type Paper struct {
	// ID is the canonical identifier from the source (arXiv ID, DOI, or
	// OpenAlex work ID). Unique within a batch.
	ID string `json:"paper_id" yaml:"paper_id"`

	// Title is the paper title. Required; a paper without a title is
	// rejected before any filter runs.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract. Empty when the source had none; an
	// absent abstract is a defined filtering path, not an error.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Venue is the publication venue, when known. Descriptive only.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Year is the publication year, 0 when unknown. Descriptive only.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// Authors lists the paper authors in source order. Descriptive only.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// CitationCount is the citation count reported by the source.
	CitationCount int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	// URL is the landing page for the paper.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// PDFURL is a direct PDF link, when the source provides one.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// Source identifies which backend supplied the metadata
	// (e.g. "openalex", "arxiv", "semantic_scholar").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// KeywordsMatched records which discovery keywords matched this paper.
	KeywordsMatched []string `json:"keywords_matched,omitempty" yaml:"keywords_matched,omitempty"`
}

// HasAbstract reports whether the paper carries a non-blank abstract.
func (p Paper) HasAbstract() bool {
	return strings.TrimSpace(p.Abstract) != ""
}

// TitleLower returns the title lowercased for case-insensitive matching.
func (p Paper) TitleLower() string {
	return strings.ToLower(p.Title)
}

// AbstractLower returns the abstract lowercased for case-insensitive matching.
func (p Paper) AbstractLower() string {
	return strings.ToLower(p.Abstract)
}
