package main

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

	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/logger"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/roster"
	"github.com/warp/payroll-engine/store/sqlite"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Int("port", 8080, "HTTP server port (overrides PAYROLL_PORT)")
}

// app is everything a command needs, built from one Config.
type app struct {
	store  *sqlite.Store
	policy *factory.Policy
	ledger *generic.DefaultLedger
}

func openApp(c *config.Config) (*app, error) {
	policy, err := factory.NewPolicyFactory().LoadFile(c.App.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	store, err := sqlite.New(c.App.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return &app{store: store, policy: policy, ledger: generic.NewLedger(store)}, nil
}

func (a *app) Close() error { return a.store.Close() }

// newCoordinator loads the roster and restores the saved display currency
// and organization name.
func (a *app) newCoordinator(ctx context.Context, c *config.Config) (*payroll.Coordinator, error) {
	r := roster.New(a.store, a.store, logger.WithComponent("roster"))
	if err := r.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	display := a.policy.Engine.Canonical()
	if saved, ok, err := a.store.GetPreference(ctx, generic.PrefSelectedCurrency); err != nil {
		return nil, err
	} else if ok {
		if _, err := a.policy.Rates.Lookup(generic.CurrencyCode(saved)); err == nil {
			display = generic.CurrencyCode(saved)
		}
	}

	coordinator, err := payroll.NewCoordinator(payroll.CoordinatorConfig{
		Engine:          a.policy.Engine,
		Roster:          r,
		Statuses:        a.policy.Statuses,
		Ledger:          a.ledger,
		Preferences:     a.store,
		Logger:          logger.WithComponent("payroll"),
		Period:          generic.CurrentPeriod(),
		DisplayCurrency: display,
	})
	if err != nil {
		return nil, err
	}

	if _, ok, err := a.store.GetPreference(ctx, generic.PrefOrganizationName); err == nil && !ok {
		if err := coordinator.SetOrganization(ctx, c.App.OrgName); err != nil {
			return nil, err
		}
	}
	return coordinator, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("server")
	ctx := cmd.Context()

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	coordinator, err := a.newCoordinator(ctx, cfg)
	if err != nil {
		return err
	}

	handler := api.NewHandler(coordinator, logger.WithComponent("api"))
	router := api.NewRouter(handler, api.NewRequestLogger(os.Stdout))

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("db", cfg.App.DBPath).
			Str("period", coordinator.Config().Period.String()).
			Int("employees", coordinator.Roster().Len()).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}
