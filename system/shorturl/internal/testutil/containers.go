// Package testutil 测试用的数据库和容器
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"shortlink/pkg/core/config"
	"shortlink/system/shorturl/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// NewSqliteDB 临时目录中的 sqlite，已建好短链表
func NewSqliteDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := config.InitSqlite(config.Database{Path: filepath.Join(t.TempDir(), "shortlink.db")})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.ShortLink{}))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewRedis 启动 redis 容器，-short 下跳过
func NewRedis(t testing.TB) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("需要 docker，-short 下跳过")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{
		Addr:         endpoint,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, rdb.Ping(pingCtx).Err())
	return rdb
}

// NewMongo 启动 mongodb 容器，-short 下跳过
func NewMongo(t testing.TB) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("需要 docker，-short 下跳过")
	}

	ctx := context.Background()
	container, err := tcmongo.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := config.InitMongo(ctx, config.MongoConfig{URI: uri, DBName: "shortlink_test", Timeout: 10 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Client().Disconnect(context.Background()) })
	return db
}
