package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/shagomeals/pricing"
)

type DBConfig struct {
	Driver       string
	DSN          string
	MaxOpenConns int
}

type Config struct {
	Port           string
	GinMode        string
	DB             DBConfig
	JWTSecret      string
	JWTTTL         time.Duration
	CORSOrigin     string
	RateLimitRPS   float64
	RateLimitBurst int
	LogLevel       string
	LogJSON        bool
	OrderIDRetries int
	Fees           pricing.FeeSchedule
	FeesFile       string
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Load reads the environment. A .env file, if any, must already be loaded.
func Load() (*Config, error) {
	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		GinMode:    getEnv("GIN_MODE", "debug"),
		JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-me"),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogJSON:    strings.EqualFold(getEnv("LOG_FORMAT", "text"), "json"),
		FeesFile:   getEnv("FEES_FILE", ""),
		DB: DBConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DSN:    getEnv("DB_DSN", "shagomeals.db"),
		},
	}

	var err error
	if cfg.DB.MaxOpenConns, err = intEnv("DB_MAX_OPEN_CONNS", 10); err != nil {
		return nil, err
	}
	if cfg.JWTTTL, err = time.ParseDuration(getEnv("JWT_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("JWT_TTL: %w", err)
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = intEnv("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}
	if cfg.OrderIDRetries, err = intEnv("ORDER_ID_RETRIES", 5); err != nil {
		return nil, err
	}

	defaults := pricing.DefaultFeeSchedule()
	if cfg.Fees.DeliveryFlat, err = decimalEnv("FEE_DELIVERY_FLAT", defaults.DeliveryFlat); err != nil {
		return nil, err
	}
	if cfg.Fees.VAT, err = decimalEnv("FEE_VAT", defaults.VAT); err != nil {
		return nil, err
	}
	if cfg.Fees.ProcessingFlat, err = decimalEnv("FEE_PROCESSING_FLAT", defaults.ProcessingFlat); err != nil {
		return nil, err
	}
	cfg.Fees.VATMode = pricing.VATMode(strings.ToLower(getEnv("FEE_VAT_MODE", string(defaults.VATMode))))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER: unsupported driver %q", c.DB.Driver)
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("GIN_MODE: unknown mode %q", c.GinMode)
	}
	if c.DB.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.OrderIDRetries < 1 {
		return fmt.Errorf("ORDER_ID_RETRIES must be at least 1")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit must be positive")
	}
	if err := c.Fees.Validate(); err != nil {
		return fmt.Errorf("fees: %w", err)
	}
	return nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func decimalEnv(key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// InitDB opens the configured database. Unique violations are translated
// to gorm.ErrDuplicatedKey, which the cart and checkout retries rely on.
func InitDB(cfg DBConfig, logLevel logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	maxOpen := cfg.MaxOpenConns
	if cfg.Driver == "sqlite" {
		// one writer at a time, and ":memory:" is per connection
		maxOpen = 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}
