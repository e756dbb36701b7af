package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log      Logger         `mapstructure:"logger"`
	DB       Database       `mapstructure:"database"`
	API      API            `mapstructure:"api"`
	Cache    Cache          `mapstructure:"cache"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Bybit    Bybit          `mapstructure:"bybit"`
	Screener Screener       `mapstructure:"screener"`
	Engine   Engine         `mapstructure:"engine"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type API struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type TelegramConfig struct {
	BotToken                  string        `mapstructure:"bot_token"`
	ChatID                    int64         `mapstructure:"chat_id"`
	AdminIDs                  []int64       `mapstructure:"admin_ids"`
	WebhookURL                string        `mapstructure:"webhook_url"`
	TimeoutDuration           time.Duration `mapstructure:"timeout_duration"`
	SendInterval              time.Duration `mapstructure:"send_interval"`
	MaxGlobalRequestPerSecond int           `mapstructure:"max_global_request_per_second"`
	MaxUserRequestPerSecond   int           `mapstructure:"max_user_request_per_second"`
}

// Bybit holds access to the public market data API used for price resolution.
type Bybit struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	Categories          []string      `mapstructure:"categories"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
}

type Screener struct {
	BaseURL          string        `mapstructure:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Interval         time.Duration `mapstructure:"interval"`
	CacheDuration    time.Duration `mapstructure:"cache_duration"`
	MinChangePercent float64       `mapstructure:"min_change_percent"`
	Limit            int           `mapstructure:"limit"`
}

// Engine controls the polling loops that evaluate positions and alerts.
type Engine struct {
	PositionInterval     time.Duration `mapstructure:"position_interval"`
	AlertInterval        time.Duration `mapstructure:"alert_interval"`
	PriceWorkers         int           `mapstructure:"price_workers"`
	ShutdownGrace        time.Duration `mapstructure:"shutdown_grace"`
	ClosureRetryAttempts int           `mapstructure:"closure_retry_attempts"`
	ClosureRetryBackoff  time.Duration `mapstructure:"closure_retry_backoff"`
	MaxAlerts            int           `mapstructure:"max_alerts"`
	LastPriceTTL         time.Duration `mapstructure:"last_price_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")

	// every key needs a default so AutomaticEnv can override it during Unmarshal
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "trading_panel")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.time_zone", "UTC")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.log_level", "Warn")

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("telegram.admin_ids", []int64{})
	v.SetDefault("telegram.webhook_url", "")

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.shutdown_timeout", 10*time.Second)

	v.SetDefault("cache.default_expiration", 5*time.Minute)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)

	v.SetDefault("telegram.timeout_duration", 10*time.Second)
	v.SetDefault("telegram.send_interval", 50*time.Millisecond)
	v.SetDefault("telegram.max_global_request_per_second", 25)
	v.SetDefault("telegram.max_user_request_per_second", 1)

	v.SetDefault("bybit.base_url", "https://api.bybit.com/v5")
	v.SetDefault("bybit.timeout", 5*time.Second)
	v.SetDefault("bybit.categories", []string{"linear", "inverse"})
	v.SetDefault("bybit.max_request_per_minute", 600)

	v.SetDefault("screener.base_url", "https://stakan.io/api/screener")
	v.SetDefault("screener.timeout", 15*time.Second)
	v.SetDefault("screener.interval", 10*time.Second)
	v.SetDefault("screener.cache_duration", 30*time.Second)
	v.SetDefault("screener.min_change_percent", 10.0)
	v.SetDefault("screener.limit", 10)

	v.SetDefault("engine.position_interval", 2*time.Second)
	v.SetDefault("engine.alert_interval", 5*time.Second)
	v.SetDefault("engine.price_workers", 5)
	v.SetDefault("engine.shutdown_grace", 2*time.Second)
	v.SetDefault("engine.closure_retry_attempts", 3)
	v.SetDefault("engine.closure_retry_backoff", 200*time.Millisecond)
	v.SetDefault("engine.max_alerts", 1)
	v.SetDefault("engine.last_price_ttl", time.Minute)
}

func Load() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// PriceAccessConfigured reports whether the price provider can be reached at all.
func (c *Config) PriceAccessConfigured() bool {
	return c.Bybit.BaseURL != ""
}
