package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nekogravitycat/resource-booking-backend/internal/app"
	"github.com/nekogravitycat/resource-booking-backend/internal/config"
	"github.com/nekogravitycat/resource-booking-backend/internal/db"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/logger"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
	log.Info().Msg("server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// Connect DB
	var pool *pgxpool.Pool
	if cfg.StorageDriver == config.StoragePostgres {
		var err error
		pool, err = db.NewPool(ctx, cfg.DBDSN, db.PoolOptions{
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			MaxConnIdleTime: cfg.DBMaxConnIdleTime,
		})
		if err != nil {
			return err
		}
		defer pool.Close()

		if cfg.DBAutoMigrate {
			if err := db.EnsureSchema(ctx, pool); err != nil {
				return err
			}
			log.Info().Msg("database schema ensured")
		}
	}

	var redisClient *redis.Client
	if cfg.NotifyTransport == config.TransportRedis {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
	}

	container, err := app.NewContainer(app.Config{
		IsProduction:      cfg.IsProduction,
		ProdOrigins:       cfg.ProdOrigins,
		StorageDriver:     cfg.StorageDriver,
		DBPool:            pool,
		JWTSecret:         cfg.JWTSecret,
		JWTTTL:            cfg.JWTAccessTokenTTL,
		AdminPasswordHash: cfg.AdminPasswordHash,
		NotifyTransport:   cfg.NotifyTransport,
		NotifyTopic:       cfg.NotifyTopic,
		RedisClient:       redisClient,
		Logger:            log,
	})
	if err != nil {
		return err
	}
	defer container.Close()

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return container.RunEvents(ctx)
	})

	g.Go(func() error {
		if container.EventRouter != nil {
			select {
			case <-container.EventRouter.Running():
			case <-ctx.Done():
				return nil
			}
		}

		log.Info().
			Str("addr", cfg.HTTPAddr).
			Str("storage", cfg.StorageDriver).
			Str("notify_transport", cfg.NotifyTransport).
			Msg("server running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutdown signal received")

		// Create a shutdown context with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server forced to shutdown")
			return err
		}
		return nil
	})

	return g.Wait()
}
