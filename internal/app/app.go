// Package app 组装两个进程共用的依赖：日志、数据库、查询工厂、缓存、JWT
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"gin-gorm-querydsl/internal/core/auth"
	"gin-gorm-querydsl/internal/core/cache"
	"gin-gorm-querydsl/internal/core/config"
	"gin-gorm-querydsl/internal/core/database"
	"gin-gorm-querydsl/internal/core/logger"
	"gin-gorm-querydsl/internal/query"
	"gin-gorm-querydsl/internal/repo"
	"gin-gorm-querydsl/internal/transport/http/router"
	"gin-gorm-querydsl/pkg/utils"
)

type App struct {
	Cfg     *config.Config
	Log     *zap.Logger
	DB      *gorm.DB
	Factory *query.Factory
	Deps    router.Deps

	closers []func()
}

// Close 逆序释放
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func NewLogger(c config.Log) (*zap.Logger, func()) {
	return logger.New(logger.Options{
		Level:       c.Level,
		JSON:        c.JSON,
		AddCaller:   true,
		Development: !c.JSON,
		Rotate: logger.FileRotate{
			Enable:     c.File.Enable,
			Filename:   c.File.Filename,
			MaxSizeMB:  c.File.MaxSizeMB,
			MaxBackups: c.File.MaxBackups,
			MaxAgeDays: c.File.MaxAgeDays,
			Compress:   c.File.Compress,
		},
	})
}

func OpenDB(c config.DB, l *zap.Logger) (*gorm.DB, error) {
	return database.NewGorm(database.Opts{
		Driver:             c.Driver,
		DSN:                c.DSN,
		Username:           c.Username,
		Password:           c.Password,
		MaxOpenConns:       c.MaxOpenConns,
		MaxIdleConns:       c.MaxIdleConns,
		ConnMaxLifetimeMin: c.ConnMaxLifetimeMin,
		LogLevel:           c.LogLevel,
		Logger:             l,
	})
}

// adminAccount 配置里只有明文密码时现场哈希
func adminAccount(c config.Admin) (router.AdminAccount, error) {
	acct := router.AdminAccount{Username: c.Username, PasswordHash: c.PasswordHash}
	if acct.PasswordHash == "" && c.Password != "" {
		h, err := utils.HashPassword(c.Password)
		if err != nil {
			return acct, err
		}
		acct.PasswordHash = h
	}
	return acct, nil
}

// New 连库、迁移、（可选）写演示数据并构造路由依赖
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, syncLog := NewLogger(cfg.Log)
	a := &App{Cfg: cfg, Log: log}
	a.closers = append(a.closers, syncLog)
	a.closers = append(a.closers, logger.RedirectStdLog(log, zapcore.InfoLevel))

	db, err := OpenDB(cfg.DB, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open db: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Factory = query.NewFactory(db,
		query.WithLogger(log.Named("query")),
		query.WithMetrics(query.NewMetrics(reg)),
	)

	if cfg.DB.AutoMigrate {
		if err := repo.AutoMigrate(db); err != nil {
			a.Close()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
		log.Info("automigrate done")
	}
	if cfg.DB.Seed {
		n, err := repo.SeedDemo(ctx, a.Factory)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
		if n > 0 {
			log.Info("demo data seeded", zap.Int("customers", n))
		}
	}

	c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log.Named("cache"))
	if err := c.Ping(ctx); err != nil {
		log.Warn("redis unavailable, cache disabled", zap.Error(err))
		_ = c.Close()
		c = nil
	}
	a.closers = append(a.closers, func() { _ = c.Close() })

	acct, err := adminAccount(cfg.Admin)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("admin account: %w", err)
	}

	a.Deps = router.Deps{
		Log:        log,
		Factory:    a.Factory,
		Cache:      c,
		CacheTTL:   time.Duration(cfg.Redis.TTLSec) * time.Second,
		JWT:        auth.NewJWTer(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.AccessTokenTTLMin)*time.Minute),
		Admin:      acct,
		Limits:     cfg.Limits,
		Registerer: reg,
		Gatherer:   reg,
	}
	return a, nil
}
