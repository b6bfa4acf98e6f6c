package config

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoConfig struct {
	URI     string        `yaml:"uri"`
	DBName  string        `yaml:"db-name"`
	Timeout time.Duration `yaml:"timeout"`
}

func InitMongo(ctx context.Context, config MongoConfig) (*mongo.Database, error) {
	if config.DBName == "" {
		return nil, errors.New("数据库名不存在")
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	opts := options.Client().
		ApplyURI(config.URI).
		SetMaxPoolSize(100).
		SetTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err = client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client.Database(config.DBName), nil
}
