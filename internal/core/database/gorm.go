package database

import (
	"errors"
	"fmt"
	stdlog "log"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"

	applog "gin-gorm-querydsl/internal/core/logger"
)

type Opts struct {
	Driver             string // mysql / postgres / sqlite
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string
	SkipPrepare        bool        // 关闭预编译缓存（sqlite 内存库测试用）
	Logger             *zap.Logger // 为空则用 gorm 默认 logger
}

var ErrUnsupportedDriver = errors.New("database: unsupported driver")

func NewGorm(o Opts) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch o.Driver {
	case "postgres":
		dial = postgres.Open(o.DSN)
	case "mysql":
		dsn := normalizeMySQLDSN(o.DSN, o.Username, o.Password)
		if o.Logger != nil {
			o.Logger.Info("mysql dsn", zap.String("dsn", maskDSN(dsn)))
		}
		dial = mysql.Open(dsn)
	case "sqlite":
		dial = sqlite.Open(o.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, o.Driver)
	}
	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         gormLogger(o.Logger, o.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)
	db = db.
		Session(&gorm.Session{
			PrepareStmt:            !o.SkipPrepare, // 预编译缓存，提高 QPS
			CreateBatchSize:        200,            // 批量写
			SkipDefaultTransaction: true,           // 只在需要时手动开 Tx
		})
	return db, nil
}

// gormLogger 把 gorm 的 SQL 日志写进 zap
func gormLogger(l *zap.Logger, level string) logger.Interface {
	lvl := logger.Warn
	switch level {
	case "silent":
		lvl = logger.Silent
	case "error":
		lvl = logger.Error
	case "info":
		lvl = logger.Info
	}
	if l == nil {
		return logger.Default.LogMode(lvl)
	}
	w := stdlog.New(applog.ToWriter(l.Named("gorm"), zapcore.InfoLevel), "", 0)
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  lvl,
		IgnoreRecordNotFoundError: true,
	})
}

// maskDSN 隐藏 user:pass@ 中的密码
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at <= 0 {
		return dsn
	}
	if colon := strings.Index(dsn[:at], ":"); colon > 0 {
		return dsn[:colon+1] + "****" + dsn[at:]
	}
	return dsn
}

// normalizeMySQLDSN 把 jdbc:mysql:// 或 mysql:// 形式的 URL 改写成 go-sql-driver 的
// user:pass@tcp(host)/db?...；本来就是驱动格式的原样返回
func normalizeMySQLDSN(input, user, pass string) string {
	in := strings.TrimSpace(input)
	if strings.HasPrefix(in, "jdbc:mysql://") {
		in = strings.TrimPrefix(in, "jdbc:")
	}
	if !strings.HasPrefix(in, "mysql://") {
		return in
	}
	u, err := url.Parse(in)
	if err != nil {
		return in // 交给驱动报错
	}
	q := u.Query()
	cred := credentials(u, q, user, pass)
	adaptJDBCParams(q)

	dsn := fmt.Sprintf("%stcp(%s)/%s", cred, u.Host, strings.TrimPrefix(u.Path, "/"))
	if enc := q.Encode(); enc != "" {
		dsn += "?" + enc
	}
	return dsn
}

// credentials 优先级：显式传入 > query 里的 user/password > URL userinfo
func credentials(u *url.URL, q url.Values, user, pass string) string {
	var uu, pp string
	if u.User != nil {
		uu = u.User.Username()
		pp, _ = u.User.Password()
	}
	for key, dst := range map[string]*string{"user": &uu, "password": &pp} {
		if v := q.Get(key); v != "" {
			*dst = v
		}
		q.Del(key)
	}
	if user != "" {
		uu = user
	}
	if pass != "" {
		pp = pass
	}
	switch {
	case uu == "" && pp == "":
		return ""
	case pp == "":
		return uu + "@"
	}
	return uu + ":" + pp + "@"
}

// JDBC 参数 → go-sql-driver 参数
var jdbcRenames = map[string]string{
	"characterEncoding": "charset",
	"serverTimezone":    "loc",
}

// 驱动不认识的 JDBC 参数
var jdbcDropped = []string{"useUnicode", "zeroDateTimeBehavior"}

func adaptJDBCParams(q url.Values) {
	for from, to := range jdbcRenames {
		if v := q.Get(from); v != "" && q.Get(to) == "" {
			q.Set(to, v)
		}
		q.Del(from)
	}
	for _, k := range jdbcDropped {
		q.Del(k)
	}
	if v := strings.ToLower(q.Get("useSSL")); v != "" {
		switch v {
		case "true", "1":
			q.Set("tls", "true")
		case "skip-verify", "preferred":
			q.Set("tls", v)
		default:
			q.Set("tls", "false")
		}
		q.Del("useSSL")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "true")
	}
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
}
