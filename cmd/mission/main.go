package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	httpadapter "github.com/couchcryptid/mission-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/mission-service/internal/adapter/kafka"
	"github.com/couchcryptid/mission-service/internal/adapter/mapbox"
	"github.com/couchcryptid/mission-service/internal/adapter/memory"
	"github.com/couchcryptid/mission-service/internal/adapter/postgres"
	"github.com/couchcryptid/mission-service/internal/adapter/rabbitmq"
	"github.com/couchcryptid/mission-service/internal/config"
	"github.com/couchcryptid/mission-service/internal/observability"
	"github.com/couchcryptid/mission-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	if err := run(cfg, logger); err != nil {
		logger.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []namedCloser
	defer func() {
		// Close in reverse order of construction.
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				logger.Error("close error", "component", closers[i].name, "error", err)
			}
		}
	}()

	store, checks, err := newStore(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	if c, ok := store.(io.Closer); ok {
		closers = append(closers, namedCloser{name: cfg.StoreBackend, Closer: c})
	}

	writer, err := newWriter(cfg, logger)
	if err != nil {
		return err
	}
	closers = append(closers, namedCloser{name: cfg.EventSink, Closer: writer})

	reader := kafkaadapter.NewReader(cfg, logger)
	closers = append(closers, namedCloser{name: "kafka reader", Closer: reader})

	extractor := pipeline.NewExtractor(reader, logger)
	transformer := pipeline.NewTransformer(newPlanner(cfg, metrics, logger), store, logger, metrics)
	loader := pipeline.NewLoader(writer, logger)

	p := pipeline.New(extractor, transformer, loader, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger, checks...)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := p.Run(gctx); err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}

type namedCloser struct {
	io.Closer
	name string
}

// storeCloser pairs the postgres mission store with its connection pool.
type storeCloser struct {
	*postgres.MissionStore
	io.Closer
}

func newStore(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (pipeline.MissionStore, []httpadapter.DependencyCheck, error) {
	if cfg.StoreBackend != config.StorePostgres {
		logger.Info("using in-memory mission store")
		return memory.NewMissionStore(), nil, nil
	}

	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	store := postgres.NewMissionStore(db, metrics)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	logger.Info("using postgres mission store")
	return storeCloser{MissionStore: store, Closer: db}, []httpadapter.DependencyCheck{store}, nil
}

type eventWriter interface {
	pipeline.MessageWriter
	io.Closer
}

func newWriter(cfg *config.Config, logger *slog.Logger) (eventWriter, error) {
	if cfg.EventSink == config.SinkRabbitMQ {
		pub, err := rabbitmq.NewPublisher(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq publisher: %w", err)
		}
		return pub, nil
	}
	return kafkaadapter.NewWriter(cfg, logger), nil
}

func newPlanner(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) pipeline.RoutePlanner {
	if !cfg.MapboxEnabled {
		logger.Info("mapbox disabled, missions are planned without steps")
		return memory.RoutePlanner{}
	}
	return mapbox.NewClient(cfg.MapboxToken, cfg.MapboxProfile, cfg.MapboxTimeout, metrics, logger)
}
