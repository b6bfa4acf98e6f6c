package base

import (
	"shortlink/pkg/core/logger"
	"shortlink/pkg/core/security"
	"shortlink/pkg/core/start"
	"shortlink/pkg/scheduler"

	"github.com/bsm/redislock"
	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

var (
	Configures *start.Configures
	Logger     *logger.Log
	ENV        string
	UserAuth   *security.UserAuth
	DB         *gorm.DB
	RDB        *redis.Client
	Cache      *cache.Cache
	Mongo      *mongo.Database
	Locker     *redislock.Client
	Scheduler  *scheduler.Scheduler
)
