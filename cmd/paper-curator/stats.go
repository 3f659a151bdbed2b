// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mlsec/paper-curator/internal/store"
	"github.com/mlsec/paper-curator/pkg/types"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection statistics",
	Long: `Stats prints the number of papers in each lifecycle status and, for
rejected papers, the breakdown by rejecting stage and confidence.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	st, err := store.Open(dataDir(cmd))
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()

	counts, err := st.CountsByStatus(ctx)
	if err != nil {
		return err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	fmt.Fprintf(os.Stdout, "Total papers: %d\n", total)
	for _, status := range []types.PaperStatus{
		types.StatusPending, types.StatusFetched, types.StatusAccepted,
		types.StatusRejected, types.StatusClassified,
	} {
		if counts[status] > 0 {
			fmt.Fprintf(os.Stdout, "  %-10s %d\n", status, counts[status])
		}
	}

	rejected, err := st.RejectedPapers(ctx)
	if err != nil {
		return err
	}
	if len(rejected) == 0 {
		return nil
	}

	type group struct {
		stage      string
		confidence types.Confidence
	}
	byGroup := map[group]int{}
	for _, cp := range rejected {
		byGroup[group{cp.FinalStage, cp.FinalConfidence}]++
	}

	groups := make([]group, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if byGroup[groups[i]] != byGroup[groups[j]] {
			return byGroup[groups[i]] > byGroup[groups[j]]
		}
		return groups[i].stage < groups[j].stage
	})

	fmt.Fprintln(os.Stdout, "Rejections by stage:")
	for _, g := range groups {
		fmt.Fprintf(os.Stdout, "  %4d  %s (%s)\n", byGroup[g], g.stage, g.confidence)
	}
	return nil
}
