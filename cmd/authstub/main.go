// AUTH STUB - cmd/authstub/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loginprobe/internal/authstub"
	"loginprobe/internal/middleware"
	"loginprobe/pkg/cache"
	"loginprobe/pkg/config"
	"loginprobe/pkg/logger"
)

func main() {
	envErr := config.LoadDotEnv()

	cfg := config.Load()
	log := logger.NewWithLevel("authstub", cfg.LogLevel)

	if envErr != nil {
		log.Debug("No .env file loaded", map[string]interface{}{"error": envErr.Error()})
	}

	if err := cfg.ValidateCore(); err != nil {
		log.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	var limiter *middleware.RateLimiter
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
		}
		defer redisCache.Close()
		limiter = middleware.NewRateLimiter(redisCache, cfg.RateLimit.Max, cfg.RateLimit.Window, log)
	} else {
		log.Warn("REDIS_URL not set, login rate limiting disabled", nil)
	}

	r, err := authstub.NewRouter(cfg, limiter, log)
	if err != nil {
		log.Fatal("Failed to seed user store", map[string]interface{}{"error": err.Error()})
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		log.Info("Auth stub starting", map[string]interface{}{
			"port":       cfg.Server.Port,
			"seed_email": cfg.Seed.Email,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Server stopped", nil)
}
