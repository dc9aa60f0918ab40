package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration, loaded from YAML with
// environment overrides.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Log       LogConfig       `yaml:"log"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Booking   BookingConfig   `yaml:"booking"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// Enabled gates the idempotency and counter-cache features; the
	// engine is fully functional without Redis.
	Enabled bool `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
	OpsEmail  string `yaml:"ops_email"`
}

// PricingConfig carries the business rates the pricing and returns
// components apply.
type PricingConfig struct {
	TaxPercent                 float64 `yaml:"tax_percent"`
	MaxCombinedDiscountPercent float64 `yaml:"max_combined_discount_percent"`
	LateFeePercentPerDay       float64 `yaml:"late_fee_percent_per_day"`
	DeliveryChargeCents        int64   `yaml:"delivery_charge_cents"`
	PickupChargeCents          int64   `yaml:"pickup_charge_cents"`
}

type BookingConfig struct {
	// DeliveryLeadDays is how many days before the start date a delivery
	// may begin.
	DeliveryLeadDays    int  `yaml:"delivery_lead_days"`
	EarlyReturnProrated bool `yaml:"early_return_prorated"`
}

type SchedulerConfig struct {
	MarkOverdueInstallments string `yaml:"mark_overdue_installments"`
	SendOverdueReminders    string `yaml:"send_overdue_reminders"`
	ReconcileUnitCounters   string `yaml:"reconcile_unit_counters"`
}

// Load reads configuration from a YAML file, applies environment
// overrides and validates the result.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) overrideWithEnv() {
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
		c.Redis.Enabled = true
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks required settings and fills scheduler and pricing
// defaults.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required when redis is enabled")
	}

	if c.Pricing.TaxPercent < 0 || c.Pricing.TaxPercent > 100 {
		return fmt.Errorf("tax_percent must be between 0 and 100")
	}
	if c.Pricing.MaxCombinedDiscountPercent == 0 {
		c.Pricing.MaxCombinedDiscountPercent = 100
	}
	if c.Pricing.MaxCombinedDiscountPercent < 0 || c.Pricing.MaxCombinedDiscountPercent > 100 {
		return fmt.Errorf("max_combined_discount_percent must be between 0 and 100")
	}
	if c.Pricing.LateFeePercentPerDay < 0 {
		return fmt.Errorf("late_fee_percent_per_day must not be negative")
	}
	if c.Booking.DeliveryLeadDays < 0 {
		return fmt.Errorf("delivery_lead_days must not be negative")
	}

	// Scheduler defaults, 6-field cron with seconds, UTC.
	if c.Scheduler.MarkOverdueInstallments == "" {
		c.Scheduler.MarkOverdueInstallments = "0 0 2 * * *" // 2 AM UTC
	}
	if c.Scheduler.SendOverdueReminders == "" {
		c.Scheduler.SendOverdueReminders = "0 0 3 * * *" // 3 AM UTC
	}
	if c.Scheduler.ReconcileUnitCounters == "" {
		c.Scheduler.ReconcileUnitCounters = "0 30 3 * * *" // 3:30 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string.
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server listen address.
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
