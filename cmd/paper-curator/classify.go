// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mlsec/paper-curator/internal/classify"
	"github.com/mlsec/paper-curator/internal/secrets"
	"github.com/mlsec/paper-curator/internal/store"
	"github.com/mlsec/paper-curator/pkg/types"
)

const defaultModel = "claude-sonnet-4-5-20250929"

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify accepted papers into the security taxonomy",
	Long: `Classify sends each accepted paper to the Claude API for multi-label
taxonomy assignment. Responses are validated and normalized; unparseable
responses, failures, and timeouts degrade to a flagged fallback result
instead of aborting the batch.`,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().String("model", "", "AI model identifier")
	classifyCmd.Flags().Int("concurrency", 0, "parallel labeler calls (default 4)")
	classifyCmd.Flags().Duration("timeout", 0, "per-call timeout (default 60s)")
	classifyCmd.Flags().Int("max-retries", 0, "retries per labeler call (default 3)")

	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	apiKey := secrets.Get(loadedSecrets, "anthropic-api-key", viper.GetString("classify.api_key"))
	if apiKey == "" {
		return fmt.Errorf("no Anthropic API key: add .secrets/anthropic-api-key or set classify.api_key")
	}

	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = viper.GetString("classify.model")
	}
	if model == "" {
		model = defaultModel
	}
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")

	cfg := types.ClassifyConfig{
		AIConfig: types.AIConfig{
			Model:      model,
			APIKey:     apiKey,
			MaxRetries: maxRetries,
		},
		Concurrency: concurrency,
		CallTimeout: timeout,
	}

	st, err := store.Open(dataDir(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()

	papers, err := st.ListByStatus(ctx, types.StatusAccepted)
	if err != nil {
		return err
	}
	if len(papers) == 0 {
		fmt.Fprintln(os.Stdout, "No accepted papers to classify")
		return nil
	}

	labeler := &classify.AnthropicLabeler{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
		Client: &http.Client{Timeout: 2 * time.Minute},
	}
	enricher := classify.NewEnricher(labeler, cfg)

	results, summary, err := enricher.ClassifyBatch(ctx, papers, os.Stdout)
	if err != nil {
		return err
	}

	for i, c := range results {
		if err := st.RecordClassification(ctx, papers[i].ID, c); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stdout, "Classified %d paper(s), %d fallback(s)\n", summary.Classified, summary.Fallbacks)
	return nil
}
