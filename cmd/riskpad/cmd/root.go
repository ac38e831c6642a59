package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "riskpad",
	Short: "RiskPad is a trading risk calculator client",
	Long: `A command-line client for the RiskPad trading risk service.
Manages the authenticated session against the remote API: signing in and
out, recovering a session from stored cookies, and keeping the access
token fresh in the background.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
