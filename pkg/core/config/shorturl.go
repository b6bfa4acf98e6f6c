package config

import "time"

// ShortURLConfig 短链核心配置
type ShortURLConfig struct {
	CodeLength    int           `yaml:"code-length"`
	MaxRetries    int           `yaml:"max-retries"`
	LinkCacheTTL  time.Duration `yaml:"link-cache-ttl"`
	ListCacheTTL  time.Duration `yaml:"list-cache-ttl"`
	LookupTimeout time.Duration `yaml:"lookup-timeout"`
}

// AnalyticsConfig 异步统计派发配置
type AnalyticsConfig struct {
	Workers       int           `yaml:"workers"`
	QueueSize     int           `yaml:"queue-size"`
	MaxEvents     int           `yaml:"max-events"`
	RetryAttempts int           `yaml:"retry-attempts"`
	RetryBackoff  time.Duration `yaml:"retry-backoff"`
	JobTimeout    time.Duration `yaml:"job-timeout"`
	DrainTimeout  time.Duration `yaml:"drain-timeout"`
	// GeoIPDB MaxMind mmdb 路径，为空时地理信息为 Unknown
	GeoIPDB string `yaml:"geoip-db"`
}

type RateLimitConfig struct {
	Max    int64         `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

// ReaperConfig 过期短链清理任务
type ReaperConfig struct {
	Cron      string `yaml:"cron"`
	BatchSize int    `yaml:"batch-size"`
}

func DefaultShortURLConfig() ShortURLConfig {
	return ShortURLConfig{
		CodeLength:    7,
		MaxRetries:    10,
		LinkCacheTTL:  time.Hour,
		ListCacheTTL:  5 * time.Minute,
		LookupTimeout: 2 * time.Second,
	}
}

func DefaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		Workers:       4,
		QueueSize:     1024,
		MaxEvents:     1000,
		RetryAttempts: 3,
		RetryBackoff:  100 * time.Millisecond,
		JobTimeout:    5 * time.Second,
		DrainTimeout:  10 * time.Second,
	}
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Max: 100, Window: 15 * time.Minute}
}

func DefaultReaperConfig() ReaperConfig {
	return ReaperConfig{Cron: "0 */10 * * * *", BatchSize: 500}
}
