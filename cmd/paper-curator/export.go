// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mlsec/paper-curator/internal/export"
	"github.com/mlsec/paper-curator/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write static JSON for the website",
	Long: `Export writes papers.json (accepted papers with classifications),
excluded.json (rejected papers with reasons), and needs_review.json (accepted
papers flagged for human review) to the output directory.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("out", "", "output directory (default site/data)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	outDir, _ := cmd.Flags().GetString("out")
	if outDir == "" {
		outDir = viper.GetString("export.out_dir")
	}
	if outDir == "" {
		outDir = "site/data"
	}

	st, err := store.Open(dataDir(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := export.Run(cmd.Context(), st, outDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Exported %d accepted, %d excluded, %d needing review to %s\n",
		summary.Accepted, summary.Excluded, summary.NeedsReview, outDir)
	return nil
}
