package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"infrapulse/internal/config"
)

func newRegionsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List configured regions and their provider tiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printRegions(cmd.OutOrStdout(), g.cfg.Regions)
			return nil
		},
	}
}

func printRegions(out io.Writer, regions []config.RegionConfig) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tSHARE\tPROVIDERS")
	total := 0.0
	for _, r := range regions {
		names := make([]string, 0, len(r.Providers))
		for _, p := range r.Providers {
			names = append(names, p.Name+" ("+p.Kind+")")
		}
		if len(names) == 0 {
			names = append(names, "portal stub only")
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t%s\n", r.Code, r.Name, r.Apportionment*100, strings.Join(names, " > "))
		total += r.Apportionment
	}
	fmt.Fprintf(tw, "\t\t%.1f%%\t\n", total*100)
	_ = tw.Flush()
}
