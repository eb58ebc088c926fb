package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/smartcity/gateway/internal/cache"
	"github.com/smartcity/gateway/internal/delivery/http"
	"github.com/smartcity/gateway/internal/service"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Configuration
	cfg := loadConfig()

	// Redis connection: unreachable or disabled cache means every lookup
	// misses; predictions are still served.
	var redisClient *redis.Client
	if cfg.CacheEnabled {
		redisClient = connectRedis(cfg.RedisURL)
	} else {
		log.Println("Cache disabled by configuration")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Dependency Injection: collaborators
	resultCache := cache.NewResultCache(redisClient, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	registry := service.NewModelClient(cfg.ModelServerURL, 10*time.Second)
	for _, name := range []string{"personalization", "route_model", "outage_eta", "image_triage"} {
		if desc := registry.Descriptors()[name]; desc != "" {
			log.Printf("Model loaded: %s (%s)", name, desc)
		} else {
			log.Printf("Model absent: %s, heuristic fallback active", name)
		}
	}

	// Dependency Injection: services
	gateway := service.NewGateway(resultCache, registry)
	batch := service.NewBatchOrchestrator(gateway)
	health := service.NewHealthReporter(resultCache, registry)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "Prediction Gateway v" + service.Version,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		BodyLimit:    10 * 1024 * 1024, // image uploads
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes
	http.SetupRoutes(app, gateway, batch, health, registry)

	// Graceful shutdown
	go func() {
		port := cfg.Port
		if port == "" {
			port = "8080"
		}
		log.Printf("Server starting on :%s", port)
		if err := app.Listen(":" + port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited gracefully")
}

type Config struct {
	RedisURL        string
	CacheTTLSeconds int
	CacheEnabled    bool
	ModelServerURL  string
	Port            string
	Env             string
}

func loadConfig() *Config {
	ttl, err := strconv.Atoi(getEnv("CACHE_TTL_SECONDS", "60"))
	if err != nil || ttl <= 0 {
		ttl = 60
	}
	return &Config{
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CacheTTLSeconds: ttl,
		CacheEnabled:    getEnv("CACHE_ENABLED", "true") != "false",
		ModelServerURL:  getEnv("MODEL_SERVER_URL", ""),
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("GO_ENV", "development"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// connectRedis returns nil when Redis cannot be reached; the gateway then
// runs with caching degraded to always-miss.
func connectRedis(redisURL string) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("Warning: invalid REDIS_URL, running without cache: %v", err)
		return nil
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available, running without cache: %v", err)
		client.Close()
		return nil
	}

	log.Println("Connected to Redis")
	return client
}
