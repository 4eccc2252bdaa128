package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPServer struct {
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DbServer struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Pass     string `mapstructure:"pass"`
	Name     string `mapstructure:"name"`
	MaxConns int32  `mapstructure:"max_conns"`
	Migrate  bool   `mapstructure:"migrate"`
}

func (config *DbServer) GetConnectionStr() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		config.User, config.Pass, config.Host, config.Port, config.Name,
	)
}

type HTTPClient struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type RateSource struct {
	URL string `mapstructure:"url"`
}

type Sync struct {
	FetchTimeoutSeconds int `mapstructure:"fetch_timeout_seconds"`
}

type Scheduler struct {
	RefreshCron       string `mapstructure:"refresh_cron"`
	JobTimeoutSeconds int    `mapstructure:"job_timeout_seconds"`
	LockTTLSeconds    int    `mapstructure:"lock_ttl_seconds"`
}

type Cache struct {
	Enabled    bool  `mapstructure:"enabled"`
	MaxItems   int64 `mapstructure:"max_items"`
	TTLSeconds int   `mapstructure:"ttl_seconds"`
}

type Redis struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Pass    string `mapstructure:"pass"`
	DB      int    `mapstructure:"db"`
}

type Logging struct {
	Level string `mapstructure:"level"`
}

type AppConfig struct {
	HTTPServer HTTPServer `mapstructure:"http_server"`
	DbServer   DbServer   `mapstructure:"db_server"`
	HTTPClient HTTPClient `mapstructure:"http_client"`
	RateSource RateSource `mapstructure:"rate_source"`
	Sync       Sync       `mapstructure:"sync"`
	Scheduler  Scheduler  `mapstructure:"scheduler"`
	Cache      Cache      `mapstructure:"cache"`
	Redis      Redis      `mapstructure:"redis"`
	Logging    Logging    `mapstructure:"logging"`
}

// Init reads config.yaml from the working directory. Values from .env and the process environment override it.
func Init() (*AppConfig, error) {
	return load("config.yaml")
}

func load(configFile string) (*AppConfig, error) {
	var cfg AppConfig

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	setDefaults(v)
	bindEnv(v)

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_server.port", "8080")
	v.SetDefault("http_server.allowed_origins", []string{"http://localhost:63342"})
	v.SetDefault("db_server.max_conns", 10)
	v.SetDefault("db_server.migrate", true)
	v.SetDefault("http_client.timeout_seconds", 10)
	v.SetDefault("rate_source.url", "https://www.cbr-xml-daily.ru/daily_json.js")
	v.SetDefault("sync.fetch_timeout_seconds", 15)
	v.SetDefault("scheduler.refresh_cron", "0 0 * * *")
	v.SetDefault("scheduler.job_timeout_seconds", 120)
	v.SetDefault("scheduler.lock_ttl_seconds", 300)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.max_items", 1024)
	v.SetDefault("cache.ttl_seconds", 60)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("logging.level", "info")
}

func bindEnv(v *viper.Viper) {
	// http server env vars
	_ = v.BindEnv("http_server.port", "HTTP_PORT")

	// db server env vars
	_ = v.BindEnv("db_server.host", "DB_HOST")
	_ = v.BindEnv("db_server.port", "DB_PORT")
	_ = v.BindEnv("db_server.user", "DB_USER")
	_ = v.BindEnv("db_server.pass", "DB_PASS")
	_ = v.BindEnv("db_server.name", "DB_NAME")
	_ = v.BindEnv("db_server.max_conns", "DB_MAX_CONNS")

	// http client env vars
	_ = v.BindEnv("http_client.timeout_seconds", "HTTP_CLIENT_TIMEOUT_SECONDS")

	_ = v.BindEnv("rate_source.url", "RATE_SOURCE_URL")

	// redis env vars
	_ = v.BindEnv("redis.enabled", "REDIS_ENABLED")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.pass", "REDIS_PASS")

	_ = v.BindEnv("logging.level", "LOG_LEVEL")
}

func (c *AppConfig) validate() error {
	if strings.TrimSpace(c.RateSource.URL) == "" {
		return errors.New("rate_source.url is required")
	}
	if strings.TrimSpace(c.Scheduler.RefreshCron) == "" {
		return errors.New("scheduler.refresh_cron is required")
	}
	if c.Scheduler.LockTTLSeconds <= c.Scheduler.JobTimeoutSeconds {
		return fmt.Errorf(
			"scheduler.lock_ttl_seconds (%d) must be greater than scheduler.job_timeout_seconds (%d)",
			c.Scheduler.LockTTLSeconds, c.Scheduler.JobTimeoutSeconds,
		)
	}
	if c.Cache.Enabled && c.Cache.MaxItems <= 0 {
		return fmt.Errorf("cache.max_items must be positive, got %d", c.Cache.MaxItems)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when redis is enabled")
	}
	return nil
}
