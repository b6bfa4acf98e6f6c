package config

import (
	"strings"
	"time"

	"github.com/go-redis/cache/v9"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Mode     string `yaml:"mode"`
	Host     string `yaml:"host"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

var cacheJSON = jsoniter.ConfigCompatibleWithStandardLibrary

func InitRDB(redisConfig RedisConfig) *redis.Client {
	if redisConfig.Mode == "single" || redisConfig.Mode == "" {
		return redis.NewClient(&redis.Options{
			Addr:     redisConfig.Host,
			Password: redisConfig.Password,
			DB:       redisConfig.DB,
		})
	}

	return redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:       "mymaster",
		SentinelAddrs:    strings.Split(redisConfig.Host, ","),
		Password:         redisConfig.Password,
		SentinelPassword: redisConfig.Password,
		DB:               redisConfig.DB,
	})
}

// InitCache 二级缓存，本地 TinyLFU 加 redis，值用 json 编码
func InitCache(rdb redis.UniversalClient, localSize int) *cache.Cache {
	opts := &cache.Options{
		Redis: rdb,
		Marshal: func(v interface{}) ([]byte, error) {
			return cacheJSON.Marshal(v)
		},
		Unmarshal: func(b []byte, v interface{}) error {
			return cacheJSON.Unmarshal(b, v)
		},
	}
	if localSize > 0 {
		opts.LocalCache = cache.NewTinyLFU(localSize, time.Minute)
	}
	return cache.New(opts)
}
