package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"infrapulse/pkg/contracts"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// no configuration needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			v := contracts.GetVersionInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "infrapulse %s (%s) commit %s built %s %s/%s\n",
				v.Version, v.Stage, v.GitCommit, v.BuildTime, v.OS, v.Architecture)
		},
	}
}
