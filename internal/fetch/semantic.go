// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mlsec/paper-curator/internal/httputil"
	"github.com/mlsec/paper-curator/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper endpoint. Declared as a var
// so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper"

const semanticFields = "paperId,title,abstract,venue,year,authors,citationCount,url,openAccessPdf"

// SemanticScholarBackend fetches paper metadata from the Semantic Scholar
// graph API. It is the fallback backend: heavily rate limited without a
// key, so requests go through the shared retry helper.
type SemanticScholarBackend struct {
	Client *http.Client
	APIKey string
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return "semantic_scholar" }

// Fetch retrieves one paper by arXiv ID or DOI.
func (b *SemanticScholarBackend) Fetch(ctx context.Context, ref string, cfg types.FetchConfig) (types.Paper, error) {
	id := ref
	switch {
	case IsArxivID(ref):
		id = "arXiv:" + ref
	case IsDOI(ref):
		id = "DOI:" + ref
	default:
		return types.Paper{}, fmt.Errorf("semantic scholar needs an arXiv ID or DOI, got %q", ref)
	}

	reqURL := semanticAPIBase + "/" + url.PathEscape(id) + "?fields=" + semanticFields

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return types.Paper{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return types.Paper{}, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Paper{}, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sp semanticPaper
	if err := json.NewDecoder(resp.Body).Decode(&sp); err != nil {
		return types.Paper{}, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	p := types.Paper{
		ID:            ref,
		Title:         sp.Title,
		Abstract:      sp.Abstract,
		Venue:         sp.Venue,
		Year:          sp.Year,
		CitationCount: sp.CitationCount,
		URL:           sp.URL,
		PDFURL:        sp.OpenAccessPdf.URL,
		Source:        "semantic_scholar",
	}
	for _, a := range sp.Authors {
		if a.Name != "" {
			p.Authors = append(p.Authors, a.Name)
		}
	}
	return p, nil
}

// Semantic Scholar API JSON structures.
type semanticPaper struct {
	PaperID       string               `json:"paperId"`
	Title         string               `json:"title"`
	Abstract      string               `json:"abstract"`
	Venue         string               `json:"venue"`
	Year          int                  `json:"year"`
	CitationCount int                  `json:"citationCount"`
	URL           string               `json:"url"`
	Authors       []semanticAuthor     `json:"authors"`
	OpenAccessPdf semanticOpenAccessPdf `json:"openAccessPdf"`
}

type semanticAuthor struct {
	Name string `json:"name"`
}

type semanticOpenAccessPdf struct {
	URL string `json:"url"`
}
