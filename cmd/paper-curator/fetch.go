// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/mlsec/paper-curator/internal/fetch"
	"github.com/mlsec/paper-curator/internal/secrets"
	"github.com/mlsec/paper-curator/internal/store"
	"github.com/mlsec/paper-curator/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [references...]",
	Short: "Fetch paper metadata from academic APIs",
	Long: `Fetch retrieves metadata (title, abstract, venue, authors) for paper
references from OpenAlex, arXiv, and Semantic Scholar. References given as
arguments are added to the database first; without arguments, all pending
references are fetched. A reference is an arXiv ID, a DOI, or a title.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	fetchCmd.Flags().Duration("delay", 0, "delay between consecutive API requests (default 1s)")
	fetchCmd.Flags().String("openalex-email", "", "email for the OpenAlex polite pool")
	fetchCmd.Flags().String("s2-api-key", "", "Semantic Scholar API key")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	delay, _ := cmd.Flags().GetDuration("delay")
	if delay == 0 {
		delay = defaultDelay
	}
	email, _ := cmd.Flags().GetString("openalex-email")
	s2Key, _ := cmd.Flags().GetString("s2-api-key")

	cfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		RequestDelay:          delay,
		OpenAlexEmail:         secrets.Get(loadedSecrets, "openalex-email", email),
		SemanticScholarAPIKey: secrets.Get(loadedSecrets, "semantic-scholar-api-key", s2Key),
	}

	st, err := store.Open(dataDir(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()

	if len(args) > 0 {
		added, err := st.AddRefs(ctx, args)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Added %d new reference(s)\n", added)
	}

	refs, err := st.PendingRefs(ctx)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		fmt.Fprintln(os.Stdout, "No pending references")
		return nil
	}

	client := &http.Client{Timeout: cfg.Timeout}
	backends := fetch.DefaultBackends(client, cfg.SemanticScholarAPIKey)

	resolved, summary, err := fetch.FetchBatch(ctx, refs, backends, cfg, os.Stdout)
	if err != nil {
		return err
	}

	papers := make([]types.Paper, 0, len(resolved))
	var stale []string
	for _, r := range resolved {
		papers = append(papers, r.Paper)
		if r.Ref != r.Paper.ID {
			stale = append(stale, r.Ref)
		}
	}

	if err := st.UpsertPapers(ctx, papers, types.StatusFetched); err != nil {
		return err
	}
	if err := st.RetireRefs(ctx, stale); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Fetched %d paper(s), %d failed\n", summary.Fetched, summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%d reference(s) failed to fetch", summary.Failed)
	}
	return nil
}
