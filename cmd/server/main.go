// Package main runs the restaurant ordering HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/comanda-app/backend/config"
	"github.com/comanda-app/backend/internal/auth"
	"github.com/comanda-app/backend/internal/realtime"
	"github.com/comanda-app/backend/internal/server"
	"github.com/comanda-app/backend/pkg/database"
	"github.com/comanda-app/backend/pkg/logger"
	"github.com/comanda-app/backend/pkg/redis"
	"github.com/comanda-app/backend/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	gin.SetMode(cfg.Server.GinMode)
	ctx := context.Background()

	db, err := database.Open(ctx, cfg.Database.URL, log)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer db.Close()

	if err := db.ApplySchema(ctx); err != nil {
		log.Fatal("apply schema", zap.Error(err))
	}

	bridge, err := openBridge(ctx, cfg, log)
	if err != nil {
		log.Fatal("realtime bridge", zap.Error(err))
	}
	if bridge != nil {
		defer bridge.Close()
	}
	hub := realtime.NewHub(log, bridge)

	images, err := openImageStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("image store", zap.Error(err))
	}

	if cfg.Operator.Key == "" {
		log.Warn("ADMIN_SECRET is not set; provisioning endpoints will reject every request")
	}

	router, err := server.NewRouter(server.Deps{
		DB:          db,
		Hub:         hub,
		JWT:         auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours),
		Images:      images,
		OperatorKey: cfg.Operator.Key,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		Logger:      log,
	})
	if err != nil {
		log.Fatal("router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.String("backend", db.Backend()),
			zap.String("bridge", cfg.Realtime.Bridge),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}

// openBridge returns nil when kitchen events stay in this process.
func openBridge(ctx context.Context, cfg *config.Config, log *zap.Logger) (realtime.Bridge, error) {
	switch cfg.Realtime.Bridge {
	case config.BridgeRedis:
		rdb, err := redis.Connect(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		if err != nil {
			return nil, err
		}
		return realtime.NewRedisBridge(rdb, log), nil
	case config.BridgeAMQP:
		return realtime.NewAMQPBridge(cfg.AMQP.URL, log)
	case config.BridgeNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown REALTIME_BRIDGE %q", cfg.Realtime.Bridge)
	}
}

// openImageStore uses S3 when a bucket is configured and local disk otherwise.
func openImageStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.ImageStore, error) {
	if cfg.AWS.ImagesBucket != "" {
		return storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Bucket:          cfg.AWS.ImagesBucket,
		}, log)
	}
	log.Info("storing images on local disk", zap.String("dir", cfg.Storage.UploadDir))
	return storage.NewLocal(cfg.Storage.UploadDir, cfg.Storage.PublicPath)
}
