package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ruadash",
	Short: "DMARC RUA mailbox scorecard",
	Long: `ruadash ingests a mailbox (mbox) of DMARC aggregate (RUA) report mail,
extracts and parses the attached reports, and produces a scorecard:
pass/fail volume, top failing sources, top reporting orgs, weekly trend,
and a provider classification of the failing senders.

Example:
  ruadash parse reports.mbox
  ruadash parse reports.mbox --digest
  ruadash parse reports.mbox --json --from 2026-01-01 --to 2026-01-31`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
