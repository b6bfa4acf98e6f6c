package start

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"shortlink/pkg/core/config"
	errorc "shortlink/pkg/core/err"
	"shortlink/pkg/core/logger"
	"shortlink/pkg/core/security"

	"github.com/bsm/redislock"
	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type Config struct {
	AppName   string                 `yaml:"app-name"`
	Env       string                 `yaml:"env"`
	Port      int                    `yaml:"port"`
	BaseURL   string                 `yaml:"base-url"`
	Log       config.LogConfig       `yaml:"log"`
	Jwt       config.JwtConfig       `yaml:"jwt"`
	Redis     config.RedisConfig     `yaml:"redis"`
	Database  config.Database        `yaml:"db"`
	Mongo     config.MongoConfig     `yaml:"mongo"`
	ShortURL  config.ShortURLConfig  `yaml:"shorturl"`
	Analytics config.AnalyticsConfig `yaml:"analytics"`
	RateLimit config.RateLimitConfig `yaml:"rate-limit"`
	Reaper    config.ReaperConfig    `yaml:"reaper"`
}

type Configures struct {
	Config   Config
	Logger   *logger.Log
	UserAuth *security.UserAuth
}

// 环境变量覆盖配置文件中的密钥和地址
const (
	EnvDBPassword = "SHORTLINK_DB_PASSWORD"
	EnvJwtSecret  = "SHORTLINK_JWT_SECRET"
	EnvRedisHost  = "SHORTLINK_REDIS_HOST"
	EnvMongoURI   = "SHORTLINK_MONGO_URI"
	EnvBaseURL    = "SHORTLINK_BASE_URL"
)

// ParseConfig 解析 yaml 并补齐默认值
func ParseConfig(file []byte, env string) (Config, error) {
	cfg := Config{
		AppName:   "shortlink",
		Port:      8080,
		ShortURL:  config.DefaultShortURLConfig(),
		Analytics: config.DefaultAnalyticsConfig(),
		RateLimit: config.DefaultRateLimitConfig(),
		Reaper:    config.DefaultReaperConfig(),
	}
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return cfg, fmt.Errorf("读取文件信息失败，因为%w", err)
	}
	cfg.Env = env
	applyEnv(&cfg)

	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Jwt.ExpireTime <= 0 {
		cfg.Jwt.ExpireTime = 24
	}
	if cfg.Jwt.Secret == "" {
		return cfg, fmt.Errorf("jwt.secret 未配置，可通过 %s 设置", EnvJwtSecret)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDBPassword); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv(EnvJwtSecret); v != "" {
		cfg.Jwt.Secret = v
	}
	if v := os.Getenv(EnvRedisHost); v != "" {
		cfg.Redis.Host = v
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
}

// NewConfiguresFrom 使用已解析的配置初始化日志和鉴权
func NewConfiguresFrom(cfg Config) *Configures {
	c := &Configures{
		Config: cfg,
		Logger: logger.InitLogger(cfg.Log.Level),
	}
	// 完整堆栈只在 debug 级别输出
	errorc.SetStackTraceEnabled(cfg.Log.Level == "debug")
	if cfg.Log.Sls.Enabled() {
		c.Logger.AddHook(logger.NewSlsHook(cfg.AppName, cfg.Log.Sls))
	}
	c.UserAuth = c.EnableUserAuth()

	return c
}

func (c *Configures) EnableUserAuth() *security.UserAuth {
	return security.NewUserAuth([]byte(c.Config.Jwt.Secret), time.Duration(c.Config.Jwt.ExpireTime)*time.Hour)
}

func (c *Configures) EnableRedis() *redis.Client {
	return config.InitRDB(c.Config.Redis)
}

func (c *Configures) EnableCache(rdb *redis.Client) *cache.Cache {
	return config.InitCache(rdb, 1000)
}

func (c *Configures) EnableLocker(rdb *redis.Client) *redislock.Client {
	return redislock.New(rdb)
}

func (c *Configures) EnableDB() *gorm.DB {
	db, err := config.InitDB(c.Config.Database)
	if err != nil {
		c.Logger.WithField("driver", c.Config.Database.Driver).WithField("database", c.Config.Database.Host).WithErr(err).Panic("failed connect database")
	}
	c.Logger.WithField("driver", c.Config.Database.Driver).Info("connect database success")
	return db
}

func (c *Configures) EnableMongo(ctx context.Context) *mongo.Database {
	db, err := config.InitMongo(ctx, c.Config.Mongo)
	if err != nil {
		c.Logger.WithField("db", c.Config.Mongo.DBName).WithErr(err).Panic("failed connect mongo")
	}
	c.Logger.Info("connect mongo success")
	return db
}
