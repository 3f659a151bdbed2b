// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mlsec/paper-curator/pkg/types"
)

// openAlexWorksBase is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexWorksBase = "https://api.openalex.org/works"

// OpenAlexBackend fetches work metadata from the OpenAlex API.
type OpenAlexBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() string { return "openalex" }

// Fetch retrieves one work. DOI references resolve directly; anything else
// goes through a title search taking the top hit.
func (b *OpenAlexBackend) Fetch(ctx context.Context, ref string, cfg types.FetchConfig) (types.Paper, error) {
	if IsDOI(ref) {
		return b.fetchByDOI(ctx, ref, cfg)
	}
	return b.fetchBySearch(ctx, ref, cfg)
}

func (b *OpenAlexBackend) fetchByDOI(ctx context.Context, doi string, cfg types.FetchConfig) (types.Paper, error) {
	reqURL := openAlexWorksBase + "/doi:" + url.PathEscape(doi)
	if cfg.OpenAlexEmail != "" {
		reqURL += "?mailto=" + url.QueryEscape(cfg.OpenAlexEmail)
	}

	var work openAlexWork
	if err := b.getJSON(ctx, reqURL, cfg, &work); err != nil {
		return types.Paper{}, err
	}
	return workToPaper(work), nil
}

func (b *OpenAlexBackend) fetchBySearch(ctx context.Context, ref string, cfg types.FetchConfig) (types.Paper, error) {
	params := url.Values{
		"search":   {ref},
		"per_page": {"1"},
	}
	if cfg.OpenAlexEmail != "" {
		params.Set("mailto", cfg.OpenAlexEmail)
	}

	var oar openAlexListResponse
	if err := b.getJSON(ctx, openAlexWorksBase+"?"+params.Encode(), cfg, &oar); err != nil {
		return types.Paper{}, err
	}
	if len(oar.Results) == 0 {
		return types.Paper{}, fmt.Errorf("OpenAlex found no work for %q", ref)
	}
	return workToPaper(oar.Results[0]), nil
}

func (b *OpenAlexBackend) getJSON(ctx context.Context, reqURL string, cfg types.FetchConfig, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := b.Client.Do(req)
	if err != nil {
		return fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return nil
}

func workToPaper(work openAlexWork) types.Paper {
	p := types.Paper{
		Title:         work.Title,
		Abstract:      reconstructAbstract(work.AbstractInvertedIndex),
		Venue:         work.PrimaryLocation.Source.DisplayName,
		CitationCount: work.CitedByCount,
		Source:        "openalex",
		PDFURL:        work.OpenAccess.OAURL,
	}

	for _, authorship := range work.Authorships {
		if authorship.Author.DisplayName != "" {
			p.Authors = append(p.Authors, authorship.Author.DisplayName)
		}
	}

	if work.PublicationYear > 0 {
		p.Year = work.PublicationYear
	} else if work.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", work.PublicationDate); err == nil {
			p.Year = t.Year()
		}
	}

	// Prefer DOI as identifier since OpenAlex is DOI-centric. Strip the
	// https://doi.org/ prefix to get the bare DOI.
	if work.DOI != "" {
		doi := strings.TrimPrefix(work.DOI, "https://doi.org/")
		p.ID = doi
		p.URL = "https://doi.org/" + doi
	} else if work.ID != "" {
		p.ID = work.ID
		p.URL = work.ID
	}

	return p
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexListResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	CitedByCount          int                  `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	PrimaryLocation       openAlexLocation     `json:"primary_location"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexLocation struct {
	Source openAlexSource `json:"source"`
}

type openAlexSource struct {
	DisplayName string `json:"display_name"`
}

type openAlexOpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}
