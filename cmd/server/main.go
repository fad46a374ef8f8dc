package main

import (
	"context"
	"database/sql"
	"dispatch-route-service/internal/adapters/cache"
	"dispatch-route-service/internal/adapters/optimizer"
	"dispatch-route-service/internal/adapters/repositories"
	"dispatch-route-service/internal/adapters/routing"
	"dispatch-route-service/internal/api"
	"dispatch-route-service/internal/config"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/platform/db"
	"dispatch-route-service/internal/platform/obs"
	"dispatch-route-service/internal/ports"
	"dispatch-route-service/internal/services"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// main is the application composition root.
// It wires concrete adapters (SQLite, routing provider, optimizer) behind
// ports, starts the dispatch loop and serves the read-only HTTP surface.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	sqliteDB, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer sqliteDB.Close()

	// Initialize schema and seed the scenario on startup for local runs.
	if err := initAndSeed(sqliteDB, cfg); err != nil {
		log.Fatal(err)
	}

	repo := repositories.NewSqliteResourceRepository(sqliteDB)
	resources, emergencies, err := loadScenario(repo)
	if err != nil {
		log.Fatal(err)
	}

	routeCache, closeCache, err := openRouteCache(cfg, sqliteDB)
	if err != nil {
		log.Fatal(err)
	}
	defer closeCache()

	provider, err := newRouteProvider(cfg, routeCache)
	if err != nil {
		log.Fatal(err)
	}

	opt, err := optimizer.NewHTTPOptimizer(cfg.OptimizerURL, cfg.OptimizerTimeout)
	if err != nil {
		log.Fatal(err)
	}

	store, err := services.NewResourceStore(resources, newPace(cfg))
	if err != nil {
		log.Fatal(err)
	}

	metrics := obs.NewMetrics()
	reconciler := services.NewReconciler(store, provider, cfg.RoutingTimeout, metrics)
	board := services.NewEmergencyBoard(emergencies)
	scheduler := services.NewTickScheduler(services.SchedulerConfig{
		Interval:         cfg.TickInterval,
		OptimizerTimeout: cfg.OptimizerTimeout,
	}, store, board, opt, reconciler, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := api.NewRouter(api.Deps{
		Resources:   store,
		Emergencies: board,
		Clock:       scheduler,
		Metrics:     metrics,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	scheduler.Start(ctx)
	log.Printf(
		"Dispatch loop started resources=%d emergencies=%d interval=%s provider=%s",
		store.Len(), board.Len(), cfg.TickInterval, cfg.RoutingProvider,
	)

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Server listening addr=:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutdown signal received")
	case err := <-serveErr:
		log.Printf("Server failed err=%v", err)
	}

	scheduler.Stop()
	reconciler.Close()
	store.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed err=%v", err)
	}
	log.Println("Shutdown complete")
}

func initAndSeed(sqliteDB *sql.DB, cfg config.Config) error {
	if err := repositories.InitSchema(sqliteDB); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if cfg.ResourcesSeedPath != "" {
		if err := repositories.SeedResourcesFromJSON(sqliteDB, cfg.ResourcesSeedPath); err != nil {
			return fmt.Errorf("init and seed: %w", err)
		}
	}

	if cfg.EmergenciesSeedPath != "" {
		if err := repositories.SeedEmergenciesFromJSON(sqliteDB, cfg.EmergenciesSeedPath); err != nil {
			return fmt.Errorf("init and seed: %w", err)
		}
	}

	return nil
}

func loadScenario(repo ports.ResourceRepository) ([]domain.Resource, []domain.Emergency, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resources, err := repo.ListResources(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load scenario: %w", err)
	}

	emergencies, err := repo.ListEmergencies(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load scenario: %w", err)
	}

	return resources, emergencies, nil
}

// openRouteCache prefers the shared Postgres cache when DATABASE_URL is set
// and falls back to the local SQLite database.
func openRouteCache(cfg config.Config, sqliteDB *sql.DB) (ports.RouteCache, func(), error) {
	if cfg.DatabaseURL == "" {
		return cache.NewSqliteRouteCache(sqliteDB), func() {}, nil
	}

	pg, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := repositories.InitPostgresSchema(pg); err != nil {
		_ = pg.Close()
		return nil, nil, err
	}

	log.Println("Route cache backed by Postgres")
	return cache.NewSQLRouteCache(pg), func() { _ = pg.Close() }, nil
}

func newRouteProvider(cfg config.Config, routeCache ports.RouteCache) (ports.RouteProvider, error) {
	opts := routing.Options{
		APIKey:    cfg.RoutingAPIKey,
		BaseURL:   cfg.RoutingBaseURL,
		Profile:   cfg.RoutingProfile,
		Timeout:   cfg.RoutingTimeout,
		RateLimit: cfg.RoutingRateLimit,
	}

	var next ports.RouteProvider
	switch cfg.RoutingProvider {
	case config.ProviderORS:
		p, err := routing.NewORSRouteProvider(opts)
		if err != nil {
			return nil, err
		}
		next = p
	default:
		p, err := routing.NewMapboxRouteProvider(opts)
		if err != nil {
			return nil, err
		}
		next = p
	}

	return routing.NewCachedRouteProvider(next, routeCache)
}

func newPace(cfg config.Config) services.Pace {
	if cfg.ProgressMode == config.ProgressModeSpeed {
		return services.SpeedPace{MetersPerSecond: cfg.SpeedMPS}
	}
	return services.FixedPace{Fraction: cfg.ProgressIncrement}
}
