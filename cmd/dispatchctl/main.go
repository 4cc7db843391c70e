package main

import (
	"fmt"
	"os"

	"github.com/readyresponse/dispatch/internal/cli"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dispatchctl",
		Short: "Operator tooling for the dispatch service",
		Long: `dispatchctl manages the dispatch database schema, seeds accounts
for each role, and issues bearer tokens for testing.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.UserCmd())
	rootCmd.AddCommand(cli.TokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
