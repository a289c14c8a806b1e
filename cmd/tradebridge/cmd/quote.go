package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/tradebridge/bridge"
	"github.com/rustyeddy/tradebridge/config"
	"github.com/rustyeddy/tradebridge/terminal"
)

var quoteCmd = &cobra.Command{
	Use:   "quote SYMBOL",
	Short: "Fetch a one-shot quote from the venue",
	Long: `Open a session against the terminal gateway, fetch the latest tick for the
symbol, and print it. Useful for verifying connectivity and credentials.

Example:
  tradebridge quote EURUSD`,
	Args: cobra.ExactArgs(1),
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	creds, err := bridge.NewCredentials(cfg.Venue.Login, cfg.Venue.Password, cfg.Venue.Server)
	if err != nil {
		return err
	}

	term := terminal.NewClient(cfg.Venue.GatewayURL)
	sessions := bridge.NewSessionManager(creds, term, zap.NewNop(), cfg.Venue.SerializeOperations)
	quotes := bridge.NewQuoteService(sessions)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	tick, err := quotes.GetQuote(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s  bid=%.5f  ask=%.5f  spread=%.5f  %s\n",
		tick.Symbol, tick.Bid, tick.Ask, tick.Spread(), tick.Time.Format(time.RFC3339))
	return nil
}
