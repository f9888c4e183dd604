package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"gin-gorm-querydsl/internal/core/auth"
	"gin-gorm-querydsl/internal/core/cache"
	"gin-gorm-querydsl/internal/core/config"
	"gin-gorm-querydsl/internal/core/server"
	"gin-gorm-querydsl/internal/feature/customer"
	"gin-gorm-querydsl/internal/feature/order"
	"gin-gorm-querydsl/internal/query"
	mdw "gin-gorm-querydsl/internal/transport/http/middleware"
)

// AdminAccount 后台登录账号；PasswordHash 为 bcrypt
type AdminAccount struct {
	Username     string
	PasswordHash string
}

// Deps 两个引擎共用的依赖
type Deps struct {
	Log      *zap.Logger
	Factory  *query.Factory
	Cache    *cache.Cache
	CacheTTL time.Duration
	JWT      *auth.JWTer
	Admin    AdminAccount
	Limits   config.Limits

	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

func (d Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

// Modules 业务模块
func (d Deps) Modules() *Registry {
	var reg Registry
	reg.Register(
		customer.New(d.Factory, d.Cache, d.CacheTTL, d.logger()),
		order.New(d.Factory, d.logger()),
	)
	return &reg
}

// baseEngine 公共中间件 + /health + /metrics
func baseEngine(d Deps, name string) *gin.Engine {
	l := d.logger()
	r := server.NewRouter(l)

	handlers := []gin.HandlerFunc{
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(d.Limits.RPS), d.Limits.Burst),
		mdw.RateLimitPerIP(rate.Limit(d.Limits.PerIPRPS), d.Limits.PerIPBurst),
		mdw.ConcurrencyLimit(d.Limits.Concurrency),
		mdw.MaxBodyBytes(d.Limits.MaxBodyMB << 20),
		mdw.Timeout(time.Duration(d.Limits.TimeoutSec) * time.Second),
		mdw.Recovery(l),
	}
	if d.Registerer != nil {
		handlers = append(handlers, mdw.NewHTTPMetrics(d.Registerer, name).Handler())
	}
	handlers = append(handlers, mdw.AccessLog(l))
	r.Use(handlers...)

	r.GET("/health", func(c *gin.Context) {
		if d.Factory != nil {
			if err := ping(c.Request.Context(), d.Factory); err != nil {
				l.Warn("health: db ping failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": 0})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

func ping(ctx context.Context, f *query.Factory) error {
	sqlDB, err := f.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
