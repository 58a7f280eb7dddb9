package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rewear/internal/cache"
	"rewear/internal/config"
	"rewear/internal/database"
	"rewear/internal/handler"
	"rewear/internal/queue"
	appredis "rewear/internal/redis"
	"rewear/internal/repository"
	"rewear/internal/service"
	"rewear/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// 3. Connect to Redis. The stream and trending cache degrade to no-ops
	// when Redis is down; the marketplace itself keeps working.
	var publisher queue.Publisher = queue.NopPublisher{}
	var trending cache.TrendingCache
	var rdb *appredis.Client
	if rdb, err = appredis.NewClient(cfg.RedisURL); err != nil {
		log.Printf("[WARN] Redis unavailable, events disabled: %v", err)
		rdb = nil
	} else if err := rdb.Ping(context.Background()); err != nil {
		log.Printf("[WARN] Redis unavailable, events disabled: %v", err)
		rdb.Close()
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
		publisher = queue.NewPublisher(rdb.Client)
		trending = cache.NewTrendingCache(rdb.Client)
	}

	// 4. Repositories
	userRepo := repository.NewUserRepository(db)
	itemRepo := repository.NewItemRepository(db)
	swapRepo := repository.NewSwapRepository(db)

	// 5. Services
	itemService := service.NewItemService(itemRepo, userRepo, publisher, trending)
	userService := service.NewUserService(userRepo, itemRepo, swapRepo)
	swapService := service.NewSwapService(swapRepo, itemRepo, userRepo, publisher, time.Duration(cfg.SwapExpiryDays)*24*time.Hour)

	mediaService, err := service.NewMediaService(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to init media service: %w", err)
	}

	// 6. Background workers
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	var manager *worker.Manager
	if rdb != nil {
		manager = worker.NewManager(queue.NewConsumer(rdb.Client), worker.NewHandler(trending), worker.ManagerConfig{
			WorkerCount: cfg.WorkerCount,
		})
		if err := manager.Start(workerCtx); err != nil {
			log.Printf("[WARN] Stream workers not started: %v", err)
			manager = nil
		}
	}

	sweeper := worker.NewSweeper(swapService, time.Duration(cfg.SweepIntervalMinutes)*time.Minute, 0)
	sweeper.Start(workerCtx)

	// 7. Handlers and routes
	router := NewRouter(RouterConfig{
		UserHandler:  handler.NewUserHandler(userService, itemService, mediaService),
		ItemHandler:  handler.NewItemHandler(itemService),
		SwapHandler:  handler.NewSwapHandler(swapService),
		MediaHandler: handler.NewMediaHandler(mediaService),
		JWTSecret:    cfg.SessionJWTSecret,
	})

	server := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	// 8. Serve until interrupted, then drain
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Printf("Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	sweeper.Stop()
	if manager != nil {
		manager.Stop()
	}

	return nil
}
