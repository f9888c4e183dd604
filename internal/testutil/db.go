// Package testutil 提供测试用的内存 sqlite 库
package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gin-gorm-querydsl/internal/core/database"
	"gin-gorm-querydsl/internal/domain"
	"gin-gorm-querydsl/internal/query"
)

// NewDB 每个测试一个独立的内存库，单连接避免 shared cache 锁冲突
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     "silent",
		SkipPrepare:  true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Models()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func NewFactory(t testing.TB) *query.Factory {
	return query.NewFactory(NewDB(t))
}

func IntPtr(v int) *int { return &v }

func StrPtr(s string) *string { return &s }

// InTx 在事务里执行 fn，失败直接终止测试
func InTx(t testing.TB, f *query.Factory, fn func(tx *query.Factory) error) {
	t.Helper()
	require.NoError(t, f.Transaction(context.Background(), fn))
}
