package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"qayyim-backend/internal/auth"
	"qayyim-backend/internal/cache"
	"qayyim-backend/internal/config"
	"qayyim-backend/internal/events"
	"qayyim-backend/internal/handlers"
	"qayyim-backend/internal/media"
	"qayyim-backend/internal/service"
	"qayyim-backend/internal/store/mongostore"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if cfg.IsProduction() && cfg.JWTSecret == "SECRET" {
		logger.Warn("JWT_SECRET is not set, using the development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	logger.Info("connecting to MongoDB", "db", cfg.MongoDB)
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Error("failed to connect to MongoDB", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("failed to disconnect from MongoDB", "err", err)
		}
	}()
	if err := client.Ping(connectCtx, nil); err != nil {
		logger.Error("failed to ping MongoDB", "err", err)
		os.Exit(1)
	}
	db := client.Database(cfg.MongoDB)
	if err := mongostore.EnsureIndexes(connectCtx, db); err != nil {
		logger.Error("failed to create indexes", "err", err)
		os.Exit(1)
	}

	users := mongostore.NewUserRepository(db)
	orders := mongostore.NewOrderRepository(db)

	var productCache cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rdb, err := cache.Dial(connectCtx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Warn("redis unavailable, product cache disabled", "addr", cfg.RedisAddr, "err", err)
		} else {
			defer rdb.Close()
			productCache = cache.NewRedisCache(rdb)
			logger.Info("product cache enabled", "addr", cfg.RedisAddr)
		}
	}
	products := cache.NewProducts(mongostore.NewProductRepository(db), productCache, cache.ProductTTL, logger)

	broker, err := events.New(events.Config{
		Broker:           cfg.EventBroker,
		RabbitMQURL:      cfg.RabbitMQURL,
		RabbitMQExchange: cfg.RabbitMQExchange,
		KafkaBrokers:     cfg.KafkaBrokers,
	}, logger)
	if err != nil {
		logger.Error("failed to create event publisher", "broker", cfg.EventBroker, "err", err)
		os.Exit(1)
	}
	publisher := events.NewAsync(broker, logger)
	defer publisher.Close()

	var uploader media.ImageUploader
	if cfg.S3Bucket != "" {
		s3Uploader, err := media.NewS3Uploader(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Folder)
		if err != nil {
			logger.Error("failed to configure S3", "err", err)
			os.Exit(1)
		}
		uploader = s3Uploader
	} else {
		logger.Warn("S3_BUCKET not set, image upload disabled")
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	h := handlers.NewHandler(handlers.Deps{
		Users:    service.NewUserService(users, products, tokens, logger),
		Catalog:  service.NewCatalogService(products, logger),
		Orders:   service.NewOrderService(orders, products, users, publisher, logger),
		Uploader: uploader,
		Tokens:   tokens,
		Loader:   users,
		Logger:   logger,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(h, handlers.RouterOptions{
		Production:  cfg.IsProduction(),
		CORSOrigins: cfg.CORSOrigins,
		RequestLog:  !cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server running", "env", cfg.Env, "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}
