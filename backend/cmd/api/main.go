// backend/cmd/api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/ps-vitor/immo-sys/backend/internal/api/handlers"
	"github.com/ps-vitor/immo-sys/backend/internal/api/services"
	"github.com/ps-vitor/immo-sys/backend/internal/app"
	"github.com/ps-vitor/immo-sys/backend/internal/config"
	"github.com/ps-vitor/immo-sys/backend/internal/services/importer"
	"github.com/ps-vitor/immo-sys/backend/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		logger.New("immo-api", logger.Options{}).Error("server stopped", logger.Err(err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig(configDir())
	if err != nil {
		return err
	}
	log := logger.New("immo-api", logger.Options{Level: cfg.App.Level(), JSON: cfg.App.LogJSON})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup dependencies
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	a, err := app.New(connectCtx, cfg, log)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			log.Warn("disconnect mongodb", logger.Err(err))
		}
	}()

	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}
	if cfg.Admin.Secret == "" {
		log.Warn("admin secret not set, import, bulk and scrape routes will refuse every request")
	}
	tracker := importer.NewTracker(ctx, a.Orchestrator, log)
	leads := services.NewLeadsClient(cfg.Leads.Endpoint, nil)
	site := handlers.Site{URL: cfg.App.SiteURL, APIURL: cfg.App.APIURL, Location: loc}

	router := handlers.NewRouter(log, cfg.Admin.Secret, handlers.Routes{
		Public: []handlers.RouteRegistrar{
			handlers.NewAPIHandler(a.Listing, a.Content, a.Assets, site, log),
			handlers.NewPublicHandler(a.Alerts, leads, log),
		},
		Admin: []handlers.RouteRegistrar{
			handlers.NewScrapingHandler(a.Scraper, log),
			handlers.NewImportHandler(tracker, a.Bulk, log),
		},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "configs"
}
