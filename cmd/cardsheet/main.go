package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ryanbastic/go-cardsheet/internal/actor"
	"github.com/ryanbastic/go-cardsheet/internal/api"
	"github.com/ryanbastic/go-cardsheet/internal/circuitbreaker"
	"github.com/ryanbastic/go-cardsheet/internal/cluster"
	"github.com/ryanbastic/go-cardsheet/internal/config"
	"github.com/ryanbastic/go-cardsheet/internal/dataset"
	"github.com/ryanbastic/go-cardsheet/internal/metrics"
	"github.com/ryanbastic/go-cardsheet/internal/sheet"
	"github.com/ryanbastic/go-cardsheet/internal/storage"
	"github.com/ryanbastic/go-cardsheet/internal/trigger"
	"github.com/ryanbastic/go-cardsheet/internal/workspace"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	boardCfg, err := config.LoadBoardConfig(cfg.BoardConfigPath)
	if err != nil {
		logger.Error("failed to load board config", "error", err)
		os.Exit(1)
	}
	var actorCfg *config.ActorConfig
	if cfg.ActorConfigPath != "" {
		if actorCfg, err = config.LoadActorConfig(cfg.ActorConfigPath); err != nil {
			logger.Error("failed to load actor config", "error", err)
			os.Exit(1)
		}
	}

	// Card kinds and the board
	datasets := dataset.NewStore()
	actors := actor.NewRegistry(datasets, logger)
	if err := workspace.RegisterActors(actors, actorCfg); err != nil {
		logger.Error("failed to register actors", "error", err)
		os.Exit(1)
	}
	board := sheet.NewBoard()
	engine := cluster.NewEngine(board, cfg.ClusterPadding, logger)
	svc := workspace.New(board, datasets, actors, engine, logger)
	if err := svc.ApplyBoardConfig(boardCfg); err != nil {
		logger.Error("failed to apply board config", "error", err)
		os.Exit(1)
	}
	logger.Info("board ready", "sheets", len(boardCfg.Sheets), "actors", len(actors.List()))

	backends := make(map[string]api.Pinger)
	plugins := trigger.NewPluginRegistry()

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		logger.Info("connected to database")

		if err := storage.RunMigrations(ctx, pool); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		if err := storage.RunPluginMigration(ctx, pool); err != nil {
			logger.Error("failed to run plugin migration", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations complete")

		prometheus.MustRegister(metrics.NewPoolCollector(map[string]*pgxpool.Pool{"entries": pool}))
		backends["entries"] = pool

		svc.WithEntryStore(storage.NewPostgresStore(pool, cfg.QueryTimeout))
		n, err := svc.Restore(ctx)
		if err != nil {
			logger.Error("failed to restore cards", "error", err)
			os.Exit(1)
		}
		logger.Info("restore complete", "cards", n)

		plugins = trigger.NewPluginRegistry(trigger.NewPostgresPluginStore(pool, cfg.QueryTimeout))
		if err := plugins.LoadAll(ctx); err != nil {
			logger.Error("failed to load plugins", "error", err)
			os.Exit(1)
		}
		logger.Info("plugins loaded", "count", len(plugins.List()))
	} else if cfg.SQLitePath != "" {
		entries, err := storage.NewSQLiteStore(ctx, cfg.SQLitePath, cfg.QueryTimeout)
		if err != nil {
			logger.Error("failed to open sqlite store", "path", cfg.SQLitePath, "error", err)
			os.Exit(1)
		}
		defer entries.Close()
		backends["entries"] = entries

		svc.WithEntryStore(entries)
		n, err := svc.Restore(ctx)
		if err != nil {
			logger.Error("failed to restore cards", "error", err)
			os.Exit(1)
		}
		logger.Info("restore complete", "cards", n, "sqlite", cfg.SQLitePath)
		logger.Warn("plugins are kept in memory only without DATABASE_URL")
	} else {
		logger.Warn("no DATABASE_URL or SQLITE_PATH, cards and plugins are kept in memory only")
	}

	// Trigger framework
	breakers := circuitbreaker.NewGroup(cfg.BreakerMaxFailures, cfg.BreakerResetTimeout,
		func(endpoint string, from, to circuitbreaker.State) {
			metrics.SetBreakerState(endpoint, int(to))
			logger.Warn("plugin breaker state changed", "endpoint", endpoint, "from", from.String(), "to", to.String())
		})
	rpc := trigger.NewRPCClient(cfg.TriggerRetryMax, cfg.TriggerRetryBackoff, cfg.TriggerRPCTimeout).WithBreakers(breakers)
	notifier := trigger.NewNotifier(plugins, rpc, logger)
	svc.WithNotifier(notifier)

	// Start HTTP server
	handler := api.NewServer(logger, svc, plugins, api.Options{Backends: backends, Breakers: breakers})
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		logger.Info("starting HTTP server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}

	// Let in-flight plugin notifications finish.
	notifier.Wait()

	logger.Info("shutdown complete")
}
