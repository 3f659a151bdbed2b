// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mlsec/paper-curator/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivBackend fetches preprint metadata from the arXiv API.
type ArxivBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return "arxiv" }

// Fetch retrieves one preprint by arXiv ID. Non-arXiv references are an
// error so the batch falls through to another backend.
func (b *ArxivBackend) Fetch(ctx context.Context, ref string, cfg types.FetchConfig) (types.Paper, error) {
	id := strings.TrimPrefix(ref, "arXiv:")
	if !IsArxivID(id) {
		return types.Paper{}, fmt.Errorf("not an arXiv identifier: %q", ref)
	}

	reqURL := fmt.Sprintf("%s?id_list=%s&max_results=1", arxivAPIBase, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return types.Paper{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := b.Client.Do(req)
	if err != nil {
		return types.Paper{}, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Paper{}, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return types.Paper{}, fmt.Errorf("parsing arXiv response: %w", err)
	}
	if len(feed.Entries) == 0 {
		return types.Paper{}, fmt.Errorf("arXiv found no entry for %q", id)
	}

	entry := feed.Entries[0]
	p := types.Paper{
		ID:       id,
		Title:    collapseWhitespace(entry.Title),
		Abstract: collapseWhitespace(entry.Summary),
		Venue:    "arXiv",
		Source:   "arxiv",
		URL:      "https://arxiv.org/abs/" + id,
		PDFURL:   "https://arxiv.org/pdf/" + id,
	}

	for _, a := range entry.Authors {
		p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
	}

	if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
		p.Year = t.Year()
	}

	return p, nil
}

// collapseWhitespace trims and folds the newline-wrapped text arXiv feeds
// carry into single-spaced prose.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// arXiv Atom feed structures.
type arxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}
