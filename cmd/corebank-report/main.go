package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// corebank-report is the operator's window into a running corebankd:
// usage breakdowns, daily trends and allocation balances rendered as
// plain tables over the query API.
func main() {
	root := &cobra.Command{
		Use:     "corebank-report",
		Short:   "Report on allocation usage and balances from a corebank site",
		Version: version,
	}

	root.AddCommand(
		newUsageCmd(),
		newTrendCmd(),
		newBalanceCmd(),
		newBalancesCmd(),
		newRollupCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
