package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"clipstudy-backend/internal/cache"
	"clipstudy-backend/internal/config"
	"clipstudy-backend/internal/database"
	"clipstudy-backend/internal/handlers"
	"clipstudy-backend/internal/middleware"
	"clipstudy-backend/internal/repository"
	"clipstudy-backend/internal/router"
	"clipstudy-backend/internal/services"
	"clipstudy-backend/internal/websocket"
	"clipstudy-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting ClipStudy Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL (optional) ────
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		p, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("✗ PostgreSQL connection failed: %v", err)
		}
		defer p.Close()

		if err := database.RunMigrations(p, "migrations"); err != nil {
			log.Fatalf("✗ Database migration failed: %v", err)
		}
		pool = p
		log.Println("✓ PostgreSQL connected, migrations applied")
	} else {
		log.Println("- PostgreSQL not configured (history and jobs disabled)")
	}

	// ──── Step 3: Initialize Redis (optional) ────
	var redisClients *database.RedisClients
	if cfg.RedisURL != "" {
		rc, err := database.NewRedisClients(cfg.RedisURL)
		if err != nil {
			log.Fatalf("✗ Redis connection failed: %v", err)
		}
		defer rc.Close()
		redisClients = rc
		log.Println("✓ Redis connected")
	} else {
		log.Println("- Redis not configured (async jobs disabled)")
	}

	// ──── Step 4: Initialize Result Cache ────
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	var store cache.Store
	if cfg.CacheBackend == "redis" {
		store = cache.NewRedisStore(redisClients.Queue, ttl)
	} else {
		store = cache.NewMemoryStore(ttl, time.Duration(cfg.CacheSweepSeconds)*time.Second)
	}
	defer store.Close()
	log.Printf("✓ Result cache initialized (backend: %s, TTL: %s)", store.Backend(), ttl)

	// ──── Step 5: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(
		cfg.GeminiAPIKey,
		cfg.GeminiModel,
		cfg.GeminiTemperature,
		cfg.GeminiMaxTokens,
		cfg.GeminiConcurrentReqs,
		cfg.PromptCharBudget,
	)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	log.Printf("✓ Gemini client initialized (model: %s)", cfg.GeminiModel)

	// ──── Step 6: Initialize Services ────
	youtubeService := services.NewYouTubeService()
	fileExtractService := services.NewFileExtractService()

	var historyRepo *repository.HistoryRepo
	if pool != nil {
		historyRepo = repository.NewHistoryRepo(pool)
	}

	var processor *services.Processor
	if historyRepo != nil {
		processor = services.NewProcessor(store, youtubeService, geminiService, historyRepo)
	} else {
		processor = services.NewProcessor(store, youtubeService, geminiService, nil)
	}

	// ──── Step 7: Initialize Handlers ────
	production := cfg.IsProduction()
	adminAuth := middleware.NewAdminAuth(cfg.AdminJWTSecret)
	healthHandler := handlers.NewHealthHandler(cfg.Env, cfg.GeminiAPIKey != "", store.Backend(), pool != nil, pool != nil && redisClients != nil)
	processHandler := handlers.NewProcessHandler(processor, fileExtractService, production)
	cacheAdminHandler := handlers.NewCacheAdminHandler(store)

	var historyHandler *handlers.HistoryHandler
	if historyRepo != nil {
		historyHandler = handlers.NewHistoryHandler(historyRepo, production)
	}

	// ──── Step 8: Start Worker Pool + WebSocket Hub (requires Redis + Postgres) ────
	var jobHandler *handlers.JobHandler
	var wsHub *websocket.Hub
	var workerPool *worker.Pool
	if redisClients != nil && pool != nil {
		jobRepo := repository.NewJobRepo(pool)
		jobHandler = handlers.NewJobHandler(jobRepo, redisClients.Queue, store, production)

		workerPool = worker.NewPool(redisClients.Queue, redisClients.PubSub, processor, jobRepo, cfg.GeminiConcurrentReqs)
		workerPool.Start()
		log.Printf("✓ Worker pool started (%d goroutines)", cfg.GeminiConcurrentReqs)

		wsHub = websocket.NewHub(redisClients.PubSub)
		log.Println("✓ WebSocket hub started")
	}

	// ──── Step 9: Start HTTP Server ────
	r := router.New(
		healthHandler,
		processHandler,
		cacheAdminHandler,
		historyHandler,
		jobHandler,
		wsHub,
		adminAuth,
		cfg.RateLimitMax,
		time.Duration(cfg.RateLimitWindowSeconds)*time.Second,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // generation can take a while
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		if workerPool != nil {
			workerPool.Stop()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ ClipStudy Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
