package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/tradebridge/api"
	"github.com/rustyeddy/tradebridge/bridge"
	"github.com/rustyeddy/tradebridge/config"
	"github.com/rustyeddy/tradebridge/ledger"
	"github.com/rustyeddy/tradebridge/logging"
	"github.com/rustyeddy/tradebridge/terminal"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge HTTP server",
	Long: `Start the HTTP server that exposes price lookups, trade opening, and the
administrative balance override. Venue credentials are validated at startup;
a missing field aborts the process.

Example:
  tradebridge serve -f tradebridge.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	creds, err := bridge.NewCredentials(cfg.Venue.Login, cfg.Venue.Password, cfg.Venue.Server)
	if err != nil {
		return err
	}

	store, err := ledger.NewStore(cfg.Ledger.DBPath)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	// One session manager instance, shared by reference with every service.
	term := terminal.NewClient(cfg.Venue.GatewayURL)
	sessions := bridge.NewSessionManager(creds, term, log, cfg.Venue.SerializeOperations)

	quotes := bridge.NewQuoteService(sessions)
	orders := bridge.NewOrderService(sessions, log)
	reconciler := ledger.NewReconciler(orders, store, log)

	server := api.NewServer(quotes, reconciler, store, log, cfg.Auth.JWTSecret, cfg.Auth.AdminSecret)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
