package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"infrapulse/internal/snapshot"
)

func newHistoryCmd(g *globals) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past overall scores from the snapshot store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			paths, err := g.cfg.Paths.Resolve()
			if err != nil {
				return err
			}
			store, err := snapshot.Open(ctx, paths)
			if err != nil {
				return err
			}
			defer store.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TAKEN AT\tRUN\tOVERALL")
			snaps, err := snapshot.History(ctx, store, limit)
			if err != nil {
				return err
			}
			for _, s := range snaps {
				fmt.Fprintf(tw, "%s\t%s\t%.2f\n", s.TakenAt.Format(time.RFC3339), s.RunID, s.OverallScore)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 30, "number of snapshots")
	return cmd
}
