package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/audiosplit/api/internal/config"
	"github.com/audiosplit/api/internal/handler"
	"github.com/audiosplit/api/internal/model"
	"github.com/audiosplit/api/internal/queue"
	"github.com/audiosplit/api/internal/registry"
	"github.com/audiosplit/api/internal/separation"
	"github.com/audiosplit/api/internal/service"
	"github.com/audiosplit/api/internal/storage"
	"github.com/audiosplit/api/internal/worker"
	ws "github.com/audiosplit/api/internal/websocket"
	"github.com/audiosplit/api/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Prepare data directories
	paths := storage.NewPaths(cfg.Storage.Root)
	if err := paths.EnsureDirs(); err != nil {
		log.Fatalf("Failed to prepare data directories: %v", err)
	}

	// Separation model adapter
	separator := separation.NewDemucsAdapter(cfg.Separation.BinPath, cfg.Separation.Device)

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Job registry: Redis-backed when configured, in-memory otherwise
	var store registry.Store
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("Warning: Redis not available: %v", err)
		}
		store = registry.NewRedisStore(redisClient, 24*time.Hour)
	} else {
		store = registry.NewMemoryStore()
	}

	// Workers
	separationWorker := worker.NewSeparationWorker(store, separator, paths, hub)
	mixWorker := worker.NewMixWorker(store, paths, hub)
	karaokeWorker := worker.NewKaraokeWorker(store, separator, paths, hub)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskTypeSeparation, separationWorker.ProcessTask)
	mux.HandleFunc(queue.TaskTypeMix, mixWorker.ProcessTask)
	mux.HandleFunc(queue.TaskTypeKaraoke, karaokeWorker.ProcessTask)

	// Scheduling substrate: asynq through Redis when configured, otherwise
	// an in-process pool driving the same mux
	var dispatcher queue.Dispatcher
	if cfg.Redis.Enabled {
		asynqClient := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer asynqClient.Close()
		dispatcher = queue.NewAsynqDispatcher(asynqClient)

		go startWorkerServer(cfg, mux)
	} else {
		dispatcher = queue.NewLocalDispatcher(mux, cfg.Worker.Concurrency)
	}

	// Initialize services
	separationService := service.NewSeparationService(store, dispatcher)
	mixService := service.NewMixService(store, dispatcher)
	karaokeService := service.NewKaraokeService(store, dispatcher)
	jobService := service.NewJobService(store)

	// Initialize handlers
	separationHandler := handler.NewSeparationHandler(separationService, paths, cfg.Upload.MaxBytes)
	mixHandler := handler.NewMixHandler(mixService, jobService, paths, cfg.Upload.MaxBytes)
	karaokeHandler := handler.NewKaraokeHandler(karaokeService, jobService, paths, cfg.Upload.MaxBytes)
	jobHandler := handler.NewJobHandler(jobService)

	// Initialize Fiber app. The body limit is generous on purpose: a mix
	// submission carries several files and the per-file limit is enforced
	// in the handlers.
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    1024 * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// API routes
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(model.HealthResponse{Status: "healthy"})
	})

	api.Post("/upload", separationHandler.Upload)
	api.Get("/status/:jobID", jobHandler.Status)
	api.Get("/download/:jobID/:filename", separationHandler.Download)

	api.Post("/mix", mixHandler.Mix)
	api.Get("/download_mixed/:jobID", mixHandler.DownloadMixed)

	api.Post("/karaoke", karaokeHandler.Karaoke)
	api.Get("/download_karaoke/:jobID", karaokeHandler.DownloadKaraoke)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:jobID", websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobID")

		// A job already in a terminal state is pushed right away; otherwise
		// the hub delivers it when a worker finishes.
		if job, err := store.Get(context.Background(), jobID); err == nil && job.Status.Terminal() {
			if data, err := json.Marshal(model.WSJobMessage{Type: model.WSMessageTypeJob, Job: job}); err == nil {
				_ = c.WriteMessage(websocket.TextMessage, data)
			}
		}

		hub.HandleConnection(c, jobID)
	}))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(cfg *config.Config, mux *asynq.ServeMux) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				queue.QueueSeparation: 5,
				queue.QueueMix:        3,
				queue.QueueKaraoke:    2,
			},
		},
	)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, code, response.CodeServiceError, message, nil)
}
