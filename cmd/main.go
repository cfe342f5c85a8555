package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/akylbek/payment-system/payments-api/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "payments-api",
		Short:         "Payment initiation and reconciliation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if envFile != "" {
				config.LoadDotEnv(envFile)
				return
			}
			config.LoadDotEnv()
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default: ./.env if present)")

	serve := newServeCmd()
	root.AddCommand(serve, newMigrateCmd())

	// running the binary without a subcommand serves
	root.RunE = serve.RunE
	return root
}
