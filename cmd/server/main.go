package main

import (
	"log"
	"net/http"

	_ "authgate/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"authgate/internal/config"
	"authgate/internal/db"
	"authgate/internal/handler"
	"authgate/internal/metrics"
	appmw "authgate/internal/middleware"
	"authgate/internal/model"
	"authgate/internal/password"
	"authgate/internal/repository"
	"authgate/internal/router"
	"authgate/internal/service"
	"authgate/internal/token"
)

// @title Authgate API
// @version 1.0
// @description Credential authentication service with JWT bearer tokens and request throttling.
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}
	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	// Window counters live in Redis when configured so limits hold across
	// instances; otherwise they stay in process memory.
	var limiterStore appmw.WindowStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		limiterStore = appmw.NewRedisWindowStore(client)
	} else {
		log.Println("REDIS_ADDR not set, rate-limit counters are process-local")
		limiterStore = appmw.NewMemoryWindowStore()
	}

	userRepo := repository.NewUserRepository(gormDB)
	hasher := password.NewHasher(cfg.BcryptCost, cfg.HashConcurrency)
	tokens := token.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	authService := service.NewAuthService(userRepo, hasher, tokens)
	authHandler := handler.NewAuthHandler(authService)

	e := echo.New()
	e.HideBanner = true
	if err := router.Register(e, cfg, authHandler, tokens, limiterStore); err != nil {
		log.Fatalf("router init: %v", err)
	}

	addr := ":" + cfg.ServerPort
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
