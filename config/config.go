package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log        Logger           `mapstructure:"logger"`
	DB         Database         `mapstructure:"database"`
	API        API              `mapstructure:"api"`
	MarketData MarketData       `mapstructure:"market_data"`
	Cache      Cache            `mapstructure:"cache"`
	Automation Automation       `mapstructure:"automation"`
	Scheduler  Scheduler        `mapstructure:"scheduler"`
	Telegram   TelegramNotifier `mapstructure:"telegram"`
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
	Port          int     `mapstructure:"port"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	RateBurst     int     `mapstructure:"rate_burst"`
}

type MarketData struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	KlineLimit          int           `mapstructure:"kline_limit"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type Automation struct {
	RateLimitWindow     time.Duration `mapstructure:"rate_limit_window"`
	OrderTimeout        time.Duration `mapstructure:"order_timeout"`
	LastPriceExpiration time.Duration `mapstructure:"last_price_expiration"`
}

type Scheduler struct {
	CronExpression string `mapstructure:"cron_expression"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`
}

type TelegramNotifier struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

func Load() (*Config, error) {
	// .env is optional, env vars win either way
	_ = godotenv.Load()

	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	setDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "json")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.rate_per_second", 10)
	viper.SetDefault("api.rate_burst", 20)
	viper.SetDefault("market_data.base_url", "https://api.binance.com")
	viper.SetDefault("market_data.timeout", 10*time.Second)
	viper.SetDefault("market_data.max_request_per_minute", 60)
	viper.SetDefault("market_data.kline_limit", 500)
	viper.SetDefault("cache.default_expiration", 5*time.Minute)
	viper.SetDefault("cache.cleanup_interval", 10*time.Minute)
	viper.SetDefault("automation.rate_limit_window", time.Hour)
	viper.SetDefault("automation.order_timeout", 10*time.Second)
	viper.SetDefault("automation.last_price_expiration", time.Minute)
	viper.SetDefault("scheduler.cron_expression", "* * * * *")
	viper.SetDefault("scheduler.max_concurrency", 4)
}
