package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/hsse-asset-health/internal/alerts"
	"github.com/ukydev/hsse-asset-health/internal/cache"
	"github.com/ukydev/hsse-asset-health/internal/config"
	"github.com/ukydev/hsse-asset-health/internal/db"
	"github.com/ukydev/hsse-asset-health/internal/handlers"
	"github.com/ukydev/hsse-asset-health/internal/health"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if err := config.ConfigureLogging(cfg.Log); err != nil {
		log.WithError(err).Fatal("Failed to configure logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.WithError(err).WithField("driver", cfg.Store.Driver).Fatal("Failed to open store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.WithError(err).Warn("Failed to close store")
		}
	}()
	log.WithField("driver", cfg.Store.Driver).Info("Connected to store")

	scoreCache := openCache(ctx, cfg.Cache)
	defer func() {
		if err := scoreCache.Close(); err != nil {
			log.WithError(err).Warn("Failed to close Redis client")
		}
	}()

	publisher, err := alerts.New(alerts.Config{
		Transport:       cfg.Alerts.Transport,
		MQTTBroker:      cfg.Alerts.MQTTBroker,
		MQTTClientID:    cfg.Alerts.MQTTClientID,
		MQTTTopicPrefix: cfg.Alerts.MQTTTopicPrefix,
		KafkaBrokers:    cfg.Alerts.KafkaBrokers,
		KafkaTopic:      cfg.Alerts.KafkaTopic,
	})
	if err != nil {
		log.WithError(err).WithField("transport", cfg.Alerts.Transport).Fatal("Failed to create alert publisher")
	}
	defer publisher.Close()

	srv := &http.Server{
		Handler:           buildHandler(cfg, store, handlerCache(scoreCache), publisher),
		ReadHeaderTimeout: 5 * time.Second,
	}
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.Server.Port))
	if err != nil {
		log.WithError(err).Fatal("Failed to listen")
	}
	log.WithField("addr", ln.Addr().String()).Info("HTTP server listening")

	if err := serve(ctx, srv, ln); err != nil {
		log.WithError(err).Error("HTTP server stopped with error")
	}
	log.Info("Shutdown complete")
}

// buildHandler wires the scoring engine and the HTTP routes.
func buildHandler(cfg *config.Config, store db.Store, scoreCache handlers.ScoreCache, publisher health.AlertPublisher) http.Handler {
	engine := health.NewEngine(store, health.Options{
		ModelVersion: cfg.Scoring.ModelVersion,
		Alerts:       publisher,
		Logger:       log.WithField("component", "engine"),
	})
	h := handlers.NewHealthHandler(engine, store, scoreCache, log.WithField("component", "http"), cfg.Server.FetchTimeout)
	return handlers.NewRouter(h, handlers.RateLimit{
		Requests:      cfg.RateLimit.Requests,
		WindowSeconds: cfg.RateLimit.WindowSeconds,
	}, log.WithField("component", "http"))
}

func openStore(ctx context.Context, cfg config.StoreConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		store := db.NewMongoStore(client, cfg.MongoDB)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return store, nil
	case config.DriverPostgres:
		pool, err := db.ConnectPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		store := db.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// openCache returns nil when Redis is not configured or unreachable; the
// service then reads scores straight from the store.
func openCache(ctx context.Context, cfg config.CacheConfig) *cache.ScoreCache {
	if cfg.RedisURL == "" {
		return nil
	}
	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, running without score cache")
		return nil
	}
	log.Info("Connected to Redis")
	return cache.NewScoreCache(client, cfg.TTL)
}

// handlerCache keeps a disabled cache a nil interface so handlers skip it.
func handlerCache(c *cache.ScoreCache) handlers.ScoreCache {
	if c == nil {
		return nil
	}
	return c
}

// serve runs srv on ln until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
