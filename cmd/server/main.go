package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tobiaswld/chatdesk/internal/api"
	"github.com/tobiaswld/chatdesk/internal/auth"
	"github.com/tobiaswld/chatdesk/internal/chat"
	"github.com/tobiaswld/chatdesk/internal/db"
	"github.com/tobiaswld/chatdesk/internal/openrouter"
	"github.com/tobiaswld/chatdesk/internal/ratelimit"
	"github.com/tobiaswld/chatdesk/internal/utils"
	"github.com/tobiaswld/chatdesk/web"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config: failed to load: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("logger: failed to build: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx := context.Background()

	mongoStore, err := db.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		sugar.Fatalw("mongo connect failed", "error", err)
	}
	defer func() {
		if err := mongoStore.Close(context.Background()); err != nil {
			sugar.Warnw("mongo close failed", "error", err)
		}
	}()

	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		sugar.Fatalw("mongo ensure indexes failed", "error", err)
	}

	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry, cfg.BcryptCost, mongoStore)
	if err != nil {
		sugar.Fatalw("auth service init failed", "error", err)
	}

	gateway := openrouter.NewClient(cfg.OpenRouter, sugar)
	chatService := chat.NewService(mongoStore, gateway, sugar)

	var limiter ratelimit.Limiter = ratelimit.NewMemory(cfg.RateLimit.Max, cfg.RateLimit.Window)
	if cfg.RedisURL != "" {
		redisClient, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			sugar.Fatalw("redis connect failed", "error", err)
		}
		defer redisClient.Close()
		limiter = ratelimit.NewRedis(redisClient, cfg.RateLimit.Max, cfg.RateLimit.Window)
		sugar.Infow("rate limiting backed by redis")
	}

	router := setupRouter(cfg, authService, chatService, limiter, sugar)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sugar.Infow("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("server crashed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("graceful shutdown failed", "error", err)
	}

	sugar.Infow("server stopped cleanly")
}

func setupRouter(cfg *utils.Config, authService *auth.Service, chatService *chat.Service, limiter ratelimit.Limiter, sugar *zap.SugaredLogger) *gin.Engine {
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(api.RequestLogger(sugar), gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api.NewHandler(authService, chatService, limiter, sugar, cfg.Development()).RegisterRoutes(router)
	web.Register(router)

	return router
}
