package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	cases := []struct {
		name       string
		in         string
		user, pass string
		want       string
	}{
		{
			name: "driver dsn untouched",
			in:   "root:pw@tcp(127.0.0.1:3306)/querydsl?parseTime=true",
			want: "root:pw@tcp(127.0.0.1:3306)/querydsl?parseTime=true",
		},
		{
			name: "jdbc url",
			in:   "jdbc:mysql://root:pw@127.0.0.1:3306/querydsl?useUnicode=true&characterEncoding=utf8&serverTimezone=Asia%2FShanghai&useSSL=false",
			want: "root:pw@tcp(127.0.0.1:3306)/querydsl?charset=utf8&loc=Asia%2FShanghai&parseTime=true&tls=false",
		},
		{
			name: "credentials override",
			in:   "mysql://127.0.0.1:3306/querydsl",
			user: "app", pass: "secret",
			want: "app:secret@tcp(127.0.0.1:3306)/querydsl?charset=utf8mb4&parseTime=true",
		},
		{name: "blank", in: "  ", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeMySQLDSN(tc.in, tc.user, tc.pass))
		})
	}
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "root:****@tcp(127.0.0.1:3306)/querydsl", maskDSN("root:pw@tcp(127.0.0.1:3306)/querydsl"))
	assert.Equal(t, "file:querydsl.db?cache=shared", maskDSN("file:querydsl.db?cache=shared"))
	assert.Equal(t, "root@tcp(db)/x", maskDSN("root@tcp(db)/x"))
}

func TestNewGormSQLite(t *testing.T) {
	db, err := NewGorm(Opts{
		Driver:       "sqlite",
		DSN:          "file:gorm_test?mode=memory&cache=shared",
		MaxOpenConns: 1,
		LogLevel:     "silent",
		SkipPrepare:  true,
		Logger:       zap.NewNop(),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	assert.NoError(t, sqlDB.Ping())
	assert.Equal(t, "sqlite", db.Dialector.Name())
}

func TestNewGormUnsupportedDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}
