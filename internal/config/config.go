package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	MigrateOnly bool   `mapstructure:"-"`
	ConfigFile  string `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Driver    string // mysql | postgres
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
	SSLMode   string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ScoringConfig struct {
	DefaultTotalItems            int `mapstructure:"default_total_items"`
	LockTTLSeconds               int `mapstructure:"lock_ttl_seconds"`
	LockWaitSeconds              int `mapstructure:"lock_wait_seconds"`
	ResultCacheTTLSeconds        int `mapstructure:"result_cache_ttl_seconds"`
	RematerializeIntervalMinutes int `mapstructure:"rematerialize_interval_minutes"`
	RematerializeWorkers         int `mapstructure:"rematerialize_workers"`
}

func (s ScoringConfig) LockTTL() time.Duration {
	return time.Duration(s.LockTTLSeconds) * time.Second
}

func (s ScoringConfig) LockWait() time.Duration {
	return time.Duration(s.LockWaitSeconds) * time.Second
}

func (s ScoringConfig) ResultCacheTTL() time.Duration {
	return time.Duration(s.ResultCacheTTLSeconds) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("rate_limit.max_requests", 100000)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("scoring.default_total_items", 40)
	v.SetDefault("scoring.lock_ttl_seconds", 30)
	v.SetDefault("scoring.lock_wait_seconds", 10)
	v.SetDefault("scoring.result_cache_ttl_seconds", 600)
	v.SetDefault("scoring.rematerialize_interval_minutes", 0)
	v.SetDefault("scoring.rematerialize_workers", 4)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("IELTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "IELTS_DATABASE_DRIVER")
	v.BindEnv("database.host", "IELTS_DATABASE_HOST")
	v.BindEnv("database.port", "IELTS_DATABASE_PORT")
	v.BindEnv("database.user", "IELTS_DATABASE_USER")
	v.BindEnv("database.password", "IELTS_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "IELTS_DATABASE_NAME")

	// Redis
	v.BindEnv("redis.enabled", "IELTS_REDIS_ENABLED")
	v.BindEnv("redis.host", "IELTS_REDIS_HOST")
	v.BindEnv("redis.port", "IELTS_REDIS_PORT")
	v.BindEnv("redis.password", "IELTS_REDIS_PASSWORD")

	// Server
	v.BindEnv("server.port", "IELTS_SERVER_PORT")
	v.BindEnv("server.mode", "IELTS_SERVER_MODE")

	// Tracing
	v.BindEnv("tracing.enabled", "IELTS_TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "IELTS_TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Scoring.DefaultTotalItems <= 0 {
		return fmt.Errorf("scoring.default_total_items must be positive, got %d", c.Scoring.DefaultTotalItems)
	}
	if c.Scoring.RematerializeWorkers <= 0 {
		c.Scoring.RematerializeWorkers = 1
	}
	return nil
}
