// Command server starts the cloud document search service.
//
// The service accepts plain-text uploads via POST /upload, indexes them into
// an in-memory inverted index, and answers keyword queries via POST /search.
// PostgreSQL (raw document archive), Redis (search cache), and Kafka
// (analytics events) are all optional: the service starts degraded without
// any of them.
//
// Usage:
//
//	go run ./cmd/server [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudsearch-labs/docsearch/internal/analytics"
	"github.com/cloudsearch-labs/docsearch/internal/archive"
	"github.com/cloudsearch-labs/docsearch/internal/indexer"
	"github.com/cloudsearch-labs/docsearch/internal/indexer/index"
	"github.com/cloudsearch-labs/docsearch/internal/searcher"
	"github.com/cloudsearch-labs/docsearch/internal/searcher/cache"
	"github.com/cloudsearch-labs/docsearch/internal/server"
	"github.com/cloudsearch-labs/docsearch/pkg/config"
	"github.com/cloudsearch-labs/docsearch/pkg/health"
	"github.com/cloudsearch-labs/docsearch/pkg/kafka"
	"github.com/cloudsearch-labs/docsearch/pkg/logger"
	"github.com/cloudsearch-labs/docsearch/pkg/metrics"
	"github.com/cloudsearch-labs/docsearch/pkg/postgres"
	pkgredis "github.com/cloudsearch-labs/docsearch/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting document search service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	store := index.NewStore()

	var arch *archive.Archive
	if cfg.Postgres.Enabled {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, document archiving disabled", "error", err)
		} else {
			defer db.Close()
			arch = archive.New(db, m)
			if err := arch.EnsureSchema(ctx); err != nil {
				slog.Error("failed to prepare archive schema", "error", err)
				os.Exit(1)
			}
			slog.Info("document archive enabled", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		}
	}

	var queryCache *cache.QueryCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, search caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
		slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	var collector *analytics.Collector
	var analyticsH *analytics.Handler
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer producer.Close()
		collector = analytics.NewCollector(producer, 10000)
		collector.Start(ctx)
		defer collector.Close()

		aggregator := analytics.NewAggregator()
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents, analytics.HandleEvent(aggregator))
		go func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("analytics consumer error", "error", err)
			}
		}()
		analyticsH = analytics.NewHandler(aggregator)
		slog.Info("analytics enabled", "topic", cfg.Kafka.Topics.AnalyticsEvents)
	}

	engine := indexer.NewEngine(store, arch, collector, m)
	searchEngine := searcher.New(store)

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d terms", store.DocCount(), store.TermCount()),
		}
	})
	checker.Register("archive", func(ctx context.Context) health.ComponentHealth {
		if arch == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := arch.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: "circuit " + arch.BreakerState().String()}
	})
	checker.Register("cache", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := server.New(engine, searchEngine, queryCache, collector, arch, m, cfg.Upload.MaxFileBytes)
	router := server.NewRouter(h, analyticsH, checker, m, cfg.Server.WriteTimeout)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("document search service listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("document search service stopped")
}
