package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"infrapulse/internal/exporter"
	"infrapulse/internal/operations"
	"infrapulse/pkg/contracts/domain"
)

type runOptions struct {
	regions   []string
	reference string
	csv       bool
	xlsx      bool
	json      bool
}

func newRunCmd(g *globals) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one aggregation and publish the report",
		Long: `Fetches every configured region, scores the market and writes the
latest report JSON plus a history snapshot. Fails with a lock error when
another process is already running.`,
		Example: `  infrapulse run
  infrapulse run --regions NY,PA --csv --xlsx
  infrapulse run --reference 2025-11-03 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), g, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringSliceVar(&opts.regions, "regions", nil, "limit the run to these region codes")
	cmd.Flags().StringVar(&opts.reference, "reference", "", "reference date (YYYY-MM-DD) for time weighting")
	cmd.Flags().BoolVar(&opts.csv, "csv", false, "also write the project list as CSV to the reports directory")
	cmd.Flags().BoolVar(&opts.xlsx, "xlsx", false, "also write an Excel workbook to the reports directory")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the full report as JSON instead of a summary")
	return cmd
}

func (o *runOptions) request() (operations.RunRequest, error) {
	req := operations.RunRequest{}
	for _, r := range o.regions {
		req.Regions = append(req.Regions, strings.ToUpper(strings.TrimSpace(r)))
	}
	if o.reference != "" {
		ref, err := time.Parse("2006-01-02", o.reference)
		if err != nil {
			return req, fmt.Errorf("invalid --reference: %w", err)
		}
		req.ReferenceTime = ref
	}
	return req, req.Validate()
}

func runOnce(ctx context.Context, g *globals, opts *runOptions, out io.Writer) error {
	req, err := opts.request()
	if err != nil {
		return err
	}

	a, err := g.application(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	report, resp, err := a.Reports.Run(ctx, req)
	if err != nil {
		return err
	}

	stamp := report.ReferenceTime.Format("2006-01-02")
	var written []string
	if opts.csv {
		name := fmt.Sprintf("projects_%s.csv", stamp)
		if err := exporter.NewCSVWriter(a.Paths, g.logger).WriteProjects(name, report.Projects); err != nil {
			return err
		}
		written = append(written, filepath.Join(a.Paths.ReportsDir, name))
	}
	if opts.xlsx {
		path := filepath.Join(a.Paths.ReportsDir, fmt.Sprintf("market_health_%s.xlsx", stamp))
		if err := exporter.SaveWorkbook(path, report); err != nil {
			return err
		}
		written = append(written, path)
	}

	if opts.json {
		return exporter.WriteReport(out, report)
	}
	printSummary(out, report, resp)
	fmt.Fprintf(out, "\nreport: %s\n", a.Paths.LatestJSON)
	for _, path := range written {
		fmt.Fprintf(out, "export: %s\n", path)
	}
	return nil
}

func printSummary(out io.Writer, report *domain.MarketHealthReport, resp operations.RunResponse) {
	fmt.Fprintf(out, "run %s completed in %s\n", resp.ID, resp.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "overall %.1f (%s)  coverage %.0f%%  pipeline $%.0f\n\n",
		report.Health.OverallScore,
		report.Health.OverallStatus,
		report.Coverage.CapturedRatio*100,
		report.Coverage.ExtrapolatedTotal)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDICATOR\tSCORE\tTREND\tSOURCE\tACTION")
	for _, s := range report.Health.Ordered() {
		fmt.Fprintf(tw, "%s\t%.1f\t%s\t%s\t%s\n", s.Name, s.Score, s.Trend, s.ConfidenceSource, s.RecommendedAction)
	}
	_ = tw.Flush()
}
