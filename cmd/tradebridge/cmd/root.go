package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tradebridge",
	Short: "Bridge between an authenticated order API and a remote trade terminal",
	Long: `Tradebridge connects a web-facing order API to a remote trading-terminal
execution venue while keeping a local ledger of accounts and trades
consistent with what actually executed remotely.

It provides:
  - An authenticated HTTP API for price lookups and market orders
  - A per-operation session lifecycle against the terminal gateway
  - A sqlite ledger with trade/execution reconciliation
  - An administrative balance override`,
}

var cfgPath string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "f", "tradebridge.yaml", "path to config file (YAML or JSON)")
}
