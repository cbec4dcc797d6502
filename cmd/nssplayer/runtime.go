package main

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	"nssplayer/internal/app"
	"nssplayer/internal/domain/ports"
	"nssplayer/internal/repository/memory"
	mongorepo "nssplayer/internal/repository/mongo"
	redisrepo "nssplayer/internal/repository/redis"
	"nssplayer/internal/services/netaddr"
	"nssplayer/internal/services/streaming"
	"nssplayer/internal/storage/localfile"
	"nssplayer/internal/usecase"
)

type closeFunc func(context.Context) error

func noopClose(context.Context) error { return nil }

// openHistory connects the configured history backend. An unreachable mongo
// or redis falls back to the in-memory store.
func openHistory(ctx context.Context, cfg app.Config, logger *slog.Logger) (ports.ShareHistoryStore, closeFunc, error) {
	switch cfg.HistoryBackend {
	case "", "memory":
		return memory.NewHistoryStore(cfg.HistoryLimit), noopClose, nil
	case "mongo":
		store, closer, err := openMongoHistory(ctx, cfg)
		if err != nil {
			logger.Warn("mongo history unavailable, using memory",
				slog.String("error", err.Error()),
			)
			return memory.NewHistoryStore(cfg.HistoryLimit), noopClose, nil
		}
		return store, closer, nil
	case "redis":
		store, closer, err := openRedisHistory(ctx, cfg)
		if err != nil {
			logger.Warn("redis history unavailable, using memory",
				slog.String("error", err.Error()),
			)
			return memory.NewHistoryStore(cfg.HistoryLimit), noopClose, nil
		}
		return store, closer, nil
	default:
		return nil, nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
	}
}

func openMongoHistory(ctx context.Context, cfg app.Config) (ports.ShareHistoryStore, closeFunc, error) {
	client, err := mongorepo.Connect(ctx, cfg.MongoURI, options.Client().SetMonitor(otelmongo.NewMonitor()))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	repo := mongorepo.NewHistoryRepository(client, cfg.MongoDatabase, cfg.MongoCollection)
	if err := repo.EnsureIndexes(ctx); err != nil {
		slog.Default().Warn("mongo ensure indexes failed", slog.String("error", err.Error()))
	}
	return repo, client.Disconnect, nil
}

func openRedisHistory(ctx context.Context, cfg app.Config) (ports.ShareHistoryStore, closeFunc, error) {
	if cfg.RedisURL == "" {
		return nil, nil, fmt.Errorf("REDIS_URL is not set")
	}
	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	store := redisrepo.NewHistoryStore(client, cfg.HistoryLimit)
	if err := store.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return store, func(context.Context) error { return client.Close() }, nil
}

func newResolver(cfg app.Config, logger *slog.Logger) (*netaddr.Chain, error) {
	subnets, err := netaddr.ParsePrefixes(cfg.ShareSubnets)
	if err != nil {
		return nil, err
	}
	return netaddr.New(netaddr.Options{
		Strategy:  cfg.AddressStrategy,
		Host:      cfg.ShareHost,
		Subnets:   subnets,
		ProbeAddr: cfg.ProbeAddr,
		Logger:    logger,
	})
}

// newController wires the sharing controller with its resolver, history
// and streaming settings. The returned closer releases the history backend.
func newController(ctx context.Context, cfg app.Config, logger *slog.Logger, extra ...usecase.SharingOption) (*usecase.SharingController, closeFunc, error) {
	resolver, err := newResolver(cfg, logger.With(slog.String("component", "netaddr")))
	if err != nil {
		return nil, nil, err
	}
	history, closeHistory, err := openHistory(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	opts := []usecase.SharingOption{
		usecase.WithBindAddress(cfg.ShareBindHost, cfg.SharePort),
		usecase.WithShutdownTimeout(cfg.ShutdownTimeout),
		usecase.WithAddressResolver(resolver),
		usecase.WithHistory(history),
		usecase.WithSharingLogger(logger.With(slog.String("component", "sharing"))),
		usecase.WithStreamingOptions(
			streaming.WithMediaSource(localfile.NewSource()),
			streaming.WithChunkSize(cfg.ChunkSize),
			streaming.WithMaxStreams(cfg.MaxStreams),
		),
	}
	return usecase.NewSharingController(append(opts, extra...)...), closeHistory, nil
}
