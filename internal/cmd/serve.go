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

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vigil-io/vigil/internal/config"
	"github.com/vigil-io/vigil/internal/monitor"
	"github.com/vigil-io/vigil/internal/redact"
	"github.com/vigil-io/vigil/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Vigil HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP server port (overrides VIGIL_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	var redactOpts []redact.Option
	if cfg.RuleFile != "" {
		redactOpts = append(redactOpts, redact.WithRuleFile(cfg.RuleFile))
	}
	redactor, err := redact.NewRedactor(redactOpts...)
	if err != nil {
		return fmt.Errorf("building redactor: %w", err)
	}

	mon := monitor.New(
		monitor.WithMaxEvents(cfg.MaxEvents),
		monitor.WithMaxAnomalies(cfg.MaxAnomalies),
		monitor.WithMaxTurns(cfg.MaxTurns),
		monitor.WithRedactor(redactor),
	)

	srv := server.NewServer(mon,
		server.WithVersion(resolvedVersion()),
		server.WithRateLimiter(server.NewRateLimiter(cfg.GlobalRPM, cfg.PerCallerRPM)),
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("vigil_server_starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("vigil_server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
