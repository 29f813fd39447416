package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pokechat/pokechat-server/internal/auth"
	"github.com/pokechat/pokechat-server/internal/config"
	"github.com/pokechat/pokechat-server/internal/core"
	"github.com/pokechat/pokechat-server/internal/history"
	"github.com/pokechat/pokechat-server/internal/identity"
	"github.com/pokechat/pokechat-server/internal/presence"
	"github.com/pokechat/pokechat-server/internal/store"
	"github.com/pokechat/pokechat-server/internal/store/sqlite"
	transporthttp "github.com/pokechat/pokechat-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	rdb             *redis.Client
	log             *zerolog.Logger
}

// New constructs the application with provided configuration. Both
// backing stores must be reachable at boot; a server that cannot mint
// identities or archive messages has nothing useful to serve.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info().Str("redis_addr", cfg.RedisAddr).Msg("redis connected")

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	tracker := presence.NewTracker(rdb)
	// A restart orphans the presence set; clear it so the first count
	// broadcast after boot reflects live connections only.
	if err := tracker.Reset(ctx); err != nil {
		_ = st.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("reset presence: %w", err)
	}

	registry := identity.NewRegistry(rdb, identity.NewGenerator(time.Now().UnixNano()), cfg.IdentityTTL, logger)
	ring := history.NewRing(rdb, cfg.HistoryLimit)
	hub := core.NewHub(registry, tracker, ring, st, logger)

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      24 * time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	server := transporthttp.NewServer(hub, authService, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		rdb:             rdb,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and redis connections.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}
