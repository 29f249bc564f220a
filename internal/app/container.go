package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nekogravitycat/resource-booking-backend/internal/api"
	"github.com/nekogravitycat/resource-booking-backend/internal/auth"
	"github.com/nekogravitycat/resource-booking-backend/internal/booking"
	"github.com/nekogravitycat/resource-booking-backend/internal/config"
	"github.com/nekogravitycat/resource-booking-backend/internal/notification"
	"github.com/nekogravitycat/resource-booking-backend/internal/notification/events"
	"github.com/nekogravitycat/resource-booking-backend/internal/pkg/logger"
	"github.com/nekogravitycat/resource-booking-backend/internal/resource"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	StorageDriver     string
	DBPool            *pgxpool.Pool // required when StorageDriver is postgres
	JWTSecret         string
	JWTTTL            time.Duration
	BcryptCost        int
	AdminPasswordHash string
	NotifyTransport   string
	NotifyTopic       string
	RedisClient       *redis.Client // required when NotifyTransport is redis
	Logger            zerolog.Logger
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router              *gin.Engine
	JWTManager          *auth.JWTManager
	BookingService      booking.Service
	NotificationService notification.Service

	// EventRouter consumes booking events; nil with the direct transport.
	EventRouter *message.Router
	transport   *events.Transport
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Storage
	var (
		resRepo     resource.Repository
		bookingRepo booking.Repository
		notifRepo   notification.Repository
		healthCheck func(ctx context.Context) error
	)
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		if cfg.DBPool == nil {
			return nil, fmt.Errorf("postgres storage requires a database pool")
		}
		resRepo = resource.NewPgxRepository(cfg.DBPool)
		bookingRepo = booking.NewPgxRepository(cfg.DBPool)
		notifRepo = notification.NewPgxRepository(cfg.DBPool)
		healthCheck = cfg.DBPool.Ping
	case config.StorageMemory:
		resRepo = resource.NewMemoryRepository()
		bookingRepo = booking.NewMemoryRepository()
		notifRepo = notification.NewMemoryRepository()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	// Resource Module
	resService := resource.NewService(resRepo, cfg.Logger)

	// Notification Module
	notifService := notification.NewService(notifRepo, resService, cfg.Logger)

	c := &Container{
		JWTManager:          jwtManager,
		NotificationService: notifService,
	}

	// Notification delivery
	var notifier booking.Notifier = notifService
	if cfg.NotifyTransport != config.TransportDirect && cfg.NotifyTransport != "" {
		wlog := logger.NewWatermillAdapter(cfg.Logger)

		var transport events.Transport
		switch cfg.NotifyTransport {
		case config.TransportGoChannel:
			transport = events.NewGoChannelTransport(wlog)
		case config.TransportRedis:
			if cfg.RedisClient == nil {
				return nil, fmt.Errorf("redis transport requires a redis client")
			}
			var err error
			if transport, err = events.NewRedisTransport(cfg.RedisClient, wlog); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unknown notify transport %q", cfg.NotifyTransport)
		}

		router, err := events.NewRouter(transport.Subscriber, cfg.NotifyTopic, events.NewHandler(notifService, wlog), wlog)
		if err != nil {
			_ = transport.Close()
			return nil, fmt.Errorf("create event router failed: %w", err)
		}

		notifier = events.NewPublisher(transport.Publisher, cfg.NotifyTopic)
		c.EventRouter = router
		c.transport = &transport
	}

	// Booking Module
	c.BookingService = booking.NewService(bookingRepo, resService, notifier, cfg.Logger)

	// Router
	router, err := api.NewRouter(api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		Logger:              cfg.Logger,
		JWTManager:          jwtManager,
		PasswordHasher:      passwordHasher,
		AdminPasswordHash:   cfg.AdminPasswordHash,
		ResourceService:     resService,
		BookingService:      c.BookingService,
		NotificationService: notifService,
		HealthCheck:         healthCheck,
	})
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Router = router

	return c, nil
}

// RunEvents runs the event router until ctx is done. Without a bus it just waits.
func (c *Container) RunEvents(ctx context.Context) error {
	if c.EventRouter == nil {
		<-ctx.Done()
		return nil
	}
	return c.EventRouter.Run(ctx)
}

// Close releases the event bus.
func (c *Container) Close() error {
	var firstErr error
	if c.EventRouter != nil {
		firstErr = c.EventRouter.Close()
	}
	if c.transport != nil {
		if err := c.transport.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
