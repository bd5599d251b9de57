package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	API       APIConfig `mapstructure:"api"`
	Database  DatabaseConfig
	Storage   StorageConfig
	Retry     RetryConfig     `mapstructure:"retry"`
	Playback  PlaybackConfig  `mapstructure:"playback"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ConfigPath string `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

// APIConfig 远端 GraphQL 服务
type APIConfig struct {
	GraphQLURL     string        `mapstructure:"graphql_url"`
	TimeoutSeconds int           `mapstructure:"timeout_seconds"`
	Timeout        time.Duration `mapstructure:"-"`
}

type DatabaseConfig struct {
	Driver    string
	Path      string
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type StorageConfig struct {
	PublicBaseURL string `mapstructure:"public_base_url"`
	BackendHost   string `mapstructure:"backend_host"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioSecure   bool   `mapstructure:"minio_secure"`
	Presign       bool   `mapstructure:"presign"`
	PresignMinute int    `mapstructure:"presign_minutes"`
}

// RetryConfig 课程列表自动重试策略
type RetryConfig struct {
	MaxRetries     int `mapstructure:"max_retries"`
	DelayMillis    int `mapstructure:"delay_ms"`
	PreFetchMillis int `mapstructure:"prefetch_delay_ms"`
}

type PlaybackConfig struct {
	ReportIntervalSeconds int     `mapstructure:"report_interval_seconds"`
	CompletionThreshold   float64 `mapstructure:"completion_threshold"`
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8787")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("api.graphql_url", "http://127.0.0.1:3000/graphql")
	v.SetDefault("api.timeout_seconds", 30)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/session.db")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)

	v.SetDefault("storage.public_base_url", "http://127.0.0.1:9000")
	v.SetDefault("storage.minio_bucket", "learn-with-me")
	v.SetDefault("storage.presign_minutes", 60)

	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.delay_ms", 2000)
	v.SetDefault("retry.prefetch_delay_ms", 500)

	v.SetDefault("playback.report_interval_seconds", 10)
	v.SetDefault("playback.completion_threshold", 0.9)

	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("rate_limit.max_requests", 6000)
	v.SetDefault("rate_limit.window_minutes", 1)
}

func LoadConfig(path string) (*Config, error) {
	// 优先加载 .env（不存在时忽略）
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("LWM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// API
	v.BindEnv("api.graphql_url", "GRAPHQL_URL")

	// Storage
	v.BindEnv("storage.public_base_url", "MINIO_BASE_URL")
	v.BindEnv("storage.backend_host", "BACKEND_HOST")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.path", "DATABASE_PATH")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		// 没有配置文件时使用默认值和环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	return &cfg, nil
}

func (c *Config) normalize() error {
	if c.API.GraphQLURL == "" {
		return fmt.Errorf("api.graphql_url is required")
	}
	c.API.Timeout = time.Duration(c.API.TimeoutSeconds) * time.Second

	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative (got %d)", c.Retry.MaxRetries)
	}
	if c.Playback.CompletionThreshold <= 0 || c.Playback.CompletionThreshold > 1 {
		return fmt.Errorf("playback.completion_threshold must be in (0, 1] (got %v)", c.Playback.CompletionThreshold)
	}
	if c.Playback.ReportIntervalSeconds <= 0 {
		return fmt.Errorf("playback.report_interval_seconds must be positive")
	}

	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

func (r RetryConfig) Delay() time.Duration {
	return time.Duration(r.DelayMillis) * time.Millisecond
}

func (r RetryConfig) PreFetchDelay() time.Duration {
	return time.Duration(r.PreFetchMillis) * time.Millisecond
}

func (p PlaybackConfig) ReportInterval() time.Duration {
	return time.Duration(p.ReportIntervalSeconds) * time.Second
}
