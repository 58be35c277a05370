package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"board-service/internal/config"
	"board-service/internal/db"
	"board-service/internal/geoip"
	"board-service/internal/handlers"
	"board-service/internal/logging"
	"board-service/internal/middleware"
	"board-service/internal/observability"
	"board-service/internal/rabbitmq"
	"board-service/internal/repositories"
	"board-service/internal/telemetry"
)

const serviceName = "board-service"

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting board-service", zap.String("environment", cfg.Environment))

	shutdownTracing := observability.InitTracing(ctx, serviceName, cfg.Environment, logger)

	database, err := db.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}
	defer database.Close()

	var geoCache geoip.Cache = geoip.NopCache{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, geoip cache disabled", zap.Error(err))
		} else {
			logger.Info("geoip cache enabled", zap.String("addr", cfg.RedisAddr))
			geoCache = geoip.NewRedisCache(rdb, cfg.GeoIP.CacheTTL, logger)
			defer rdb.Close()
		}
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer publisher.Close()
	logger.Info("events publisher ready",
		zap.String("mode", rabbitmq.PublisherMode(publisher)),
		zap.String("reason", rabbitmq.PublisherNoopReason(publisher)))

	geoClient := geoip.NewHTTPClient(cfg.GeoIP.BaseURL, cfg.GeoIP.Timeout, geoCache, logger)
	messageRepo := repositories.NewMessageRepo(database)
	emitter := telemetry.NewEventEmitter(publisher, "messages.created", serviceName, cfg.Environment, logger)
	messageHandler := handlers.NewMessageHandler(messageRepo, geoClient, emitter, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(otelgin.Middleware(serviceName))

	router.LoadHTMLGlob("templates/*")
	router.Static("/static", "./static")

	router.GET("/", handlers.Index)
	router.POST("/send-message", messageHandler.SubmitMessage)
	router.GET("/stats", messageHandler.Stats)
	router.GET("/metrics", observability.MetricsHandler())
	handlers.RegisterDebugRoutes(router, messageHandler, cfg.DebugRoutes)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		logger.Info("listening", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown failed", zap.Error(err))
	}
}
