// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mlsec/paper-curator/internal/domain"
	"github.com/mlsec/paper-curator/internal/pipeline"
	"github.com/mlsec/paper-curator/internal/store"
	"github.com/mlsec/paper-curator/pkg/types"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Run the relevance-filtering pipeline over fetched papers",
	Long: `Filter evaluates every fetched paper against the domain ruleset through
the three-stage pipeline: exclusion signals, relevance terminology, and topic
dominance. Papers are marked accepted or rejected in the database with a full
verdict audit trail, and a summary report is printed.`,
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().String("domain", "", "domain ruleset YAML (default from config)")
	filterCmd.Flags().String("input", "", "optional JSON file of papers to load before filtering")
	filterCmd.Flags().Int("concurrency", 1, "parallel pipeline workers")

	rootCmd.AddCommand(filterCmd)
}

// inputFile mirrors the exported envelope shape so previously exported
// collections can be re-filtered.
type inputFile struct {
	Papers []types.Paper `json:"papers"`
}

func runFilter(cmd *cobra.Command, args []string) error {
	domainPath, _ := cmd.Flags().GetString("domain")
	if domainPath == "" {
		domainPath = viper.GetString("filter.domain_file")
	}
	if domainPath == "" {
		return fmt.Errorf("no domain ruleset: pass --domain or set filter.domain_file")
	}

	rules, err := domain.Load(domainPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Using domain ruleset: %s\n", rules.DisplayName())

	st, err := store.Open(dataDir(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()

	if inputPath, _ := cmd.Flags().GetString("input"); inputPath != "" {
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return fmt.Errorf("reading input %s: %w", inputPath, err)
		}
		var in inputFile
		if err := json.Unmarshal(data, &in); err != nil {
			return fmt.Errorf("parsing input %s: %w", inputPath, err)
		}
		if err := st.UpsertPapers(ctx, in.Papers, types.StatusFetched); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Loaded %d paper(s) from %s\n", len(in.Papers), inputPath)
	}

	papers, err := st.ListByStatus(ctx, types.StatusFetched)
	if err != nil {
		return err
	}
	if len(papers) == 0 {
		fmt.Fprintln(os.Stdout, "No fetched papers to filter")
		return nil
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	pl := pipeline.Default()

	var results []pipeline.Result
	if concurrency > 1 {
		results, err = pl.ProcessBatchConcurrent(ctx, papers, rules, concurrency)
		if err != nil {
			return err
		}
	} else {
		results = pl.ProcessBatch(papers, rules, func(done, total int) {
			if done%100 == 0 || done == total {
				fmt.Fprintf(os.Stderr, "  processed %d/%d papers\r", done, total)
			}
		})
		fmt.Fprintln(os.Stderr)
	}

	if err := st.RecordResults(ctx, results); err != nil {
		return err
	}

	pipeline.Summarize(results).WriteSummary(os.Stdout)
	return nil
}
