package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"elevate-rewards/internal/core/cache"
	"elevate-rewards/internal/core/config"
	"elevate-rewards/internal/core/database"
	"elevate-rewards/internal/core/kv"
	"elevate-rewards/internal/core/logger"
	"elevate-rewards/internal/core/server"
	"elevate-rewards/internal/core/token"
	"elevate-rewards/internal/directory"
	"elevate-rewards/internal/rewards"
	"elevate-rewards/internal/session"
	"elevate-rewards/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := newLogger(cfg)
	defer cleanup()

	store, closeStore := mustOpenStore(cfg, log)
	defer closeStore()
	log.Info("store opened", zap.String("backend", cfg.Store.Backend))

	users := directory.NewUsers(store, log)
	txs := directory.NewTransactions(store, log)
	issuer := &token.Issuer{}
	sessions := session.NewManager(users, txs, issuer, store, log)

	var walletCache *cache.Cache
	if cfg.Cache.Enabled {
		walletCache = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}
	facade := rewards.New(users, txs, sessions, walletCache,
		time.Duration(cfg.Cache.WalletTTLSec)*time.Second, log)

	if err := facade.Bootstrap(context.Background()); err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}
	log.Info("bootstrap done")

	r := router.NewAPIEngine(log, facade, sessions)

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("rewards api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("rewards api start FAILED", zap.Error(err))
		}
	}()
	log.Info("rewards api started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("rewards api stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, func()) {
	if cfg.Log.File != "" {
		return logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File,
			cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays, cfg.Log.Compress)
	}
	return logger.New(cfg.Log.Level, cfg.Log.JSON)
}

func mustOpenStore(cfg *config.Config, l *zap.Logger) (kv.Store, func()) {
	switch cfg.Store.Backend {
	case "", "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = "./data/rewards.db"
		}
		s, err := kv.NewSQLite(path)
		if err != nil {
			l.Fatal("sqlite store open", zap.Error(err))
		}
		return s, func() { _ = s.Close() }
	case "memory":
		return kv.NewMemory(), func() {}
	case "redis":
		s := kv.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		return s, func() { _ = s.Close() }
	case "gorm":
		db, err := database.NewGorm(database.Opts{
			Driver:             cfg.DB.Driver,
			DSN:                cfg.DB.DSN,
			MaxOpenConns:       cfg.DB.MaxOpenConns,
			MaxIdleConns:       cfg.DB.MaxIdleConns,
			ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
			LogLevel:           cfg.DB.LogLevel,
		})
		if err != nil {
			l.Fatal("db open", zap.Error(err))
		}
		s, err := kv.NewGorm(db)
		if err != nil {
			l.Fatal("kv migrate", zap.Error(err))
		}
		return s, func() {}
	default:
		l.Fatal("unknown store backend", zap.String("backend", cfg.Store.Backend))
		return nil, func() {}
	}
}
