package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pms-rateops/internal/config"
	"pms-rateops/internal/database"
	httpapi "pms-rateops/internal/http"
	"pms-rateops/internal/logger"
	"pms-rateops/internal/pmsapi"
	"pms-rateops/internal/repository"
	"pms-rateops/internal/service"
	"pms-rateops/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "pms-rateops")
	if err != nil {
		log, _ = zap.NewProduction()
	}
	defer log.Sync()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	kv := store.NewRedisKV(redisClient)

	pmsClient := pmsapi.NewClient(
		cfg.PMS.BaseURL,
		cfg.PMS.APIKey,
		time.Duration(cfg.PMS.TimeoutSeconds)*time.Second,
		log,
	)

	// Audit repo: DB-backed when available, in-memory fallback otherwise
	// (history survives restarts only with the DB).
	var db *sql.DB
	var opsRepo repository.BulkOperationsRepo = repository.NewMemoryBulkOperationsRepo()
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			opsRepo = repository.NewPostgresBulkOperationsRepo(db)
			log.Info("DB enabled for pms-rateops")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory audit repo", zap.Error(err))
		}
	}

	previewSvc := service.NewPreviewService(
		pmsClient,
		kv,
		opsRepo,
		time.Duration(cfg.Cache.ReferenceTTLSeconds)*time.Second,
		time.Duration(cfg.Cache.PreviewTTLSeconds)*time.Second,
		log,
	)
	applySvc := service.NewApplyService(
		pmsClient,
		kv,
		opsRepo,
		previewSvc,
		time.Duration(cfg.Cache.ProgressTTLSeconds)*time.Second,
		log,
	)

	router := httpapi.NewRouter(log)
	router.RegisterRateOpsRoutes(httpapi.NewRateOpsHandler(previewSvc, applySvc, opsRepo, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	if db != nil {
		_ = db.Close()
	}
}
