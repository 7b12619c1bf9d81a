package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/lucasvdj/rifa-go/internal/config"
	"github.com/lucasvdj/rifa-go/internal/postgres"
	redisx "github.com/lucasvdj/rifa-go/internal/redis"
	postgresrepo "github.com/lucasvdj/rifa-go/internal/repository/postgres"
	redisrepo "github.com/lucasvdj/rifa-go/internal/repository/redis"
	"github.com/lucasvdj/rifa-go/internal/service"
	"github.com/lucasvdj/rifa-go/internal/service/checkout"
	"github.com/lucasvdj/rifa-go/internal/service/query"
	httpgin "github.com/lucasvdj/rifa-go/internal/transport/http/gin"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	scheduler  gocron.Scheduler
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redisx.New(context.Background(), redisx.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisx.NewRafflePubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "rl", 10, 1*time.Minute)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)
	bonusStore := redisrepo.NewBonusStore(rdb)

	// Initialize services
	services := service.NewServices(store, cache, pubsub, limiter, bonusStore, service.Config{
		Checkout: checkout.Config{
			Raffle:  cfg.Raffle,
			Pricing: cfg.Pricing,
		},
		Query: query.Config{
			SummaryTTL:       60 * time.Second,
			AvailabilityTTL:  15 * time.Second,
			TopBuyersTTL:     30 * time.Second,
			DefaultGridPage:  100,
			MaxGridPage:      500,
			TopBuyersDefault: 5,
		},
	})

	scheduler, err := newBonusScheduler(services, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	// Initialize Gin router
	router := httpgin.NewRouter(services, idempotencyStore, cfg, logger)

	return &App{
		cfg:       cfg,
		logger:    logger,
		scheduler: scheduler,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
	}, nil
}

// newBonusScheduler rotates the daily bonus number shortly after
// midnight so the first morning request doesn't pay for the pick.
func newBonusScheduler(svcs *service.Services, cfg *config.Config, logger *slog.Logger) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(
				gocron.NewAtTime(0, 5, 0),
			),
		),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			n, err := svcs.Luck.Rotate(ctx, cfg.Raffle.ID)
			if err != nil {
				logger.Error("bonus number rotation failed", "error", err)
				return
			}
			logger.Info("bonus number rotated", "raffle_id", cfg.Raffle.ID, "number", n)
		}),
	)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	a.scheduler.Start()

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down")

		if err := a.scheduler.Shutdown(); err != nil {
			a.logger.Error("scheduler shutdown failed", "error", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
