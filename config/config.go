package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port               string        `mapstructure:"port"`
	DBConnectionString string        `mapstructure:"db_connection_string"`
	RedisHost          string        `mapstructure:"redis_host"`
	RedisPort          string        `mapstructure:"redis_port"`
	RedisDB            int           `mapstructure:"redis_db"`
	OrderEventsChannel string        `mapstructure:"order_events_channel"`
	OrderEventsTimeout time.Duration `mapstructure:"order_events_timeout"`
	OrderNotifyTo      string        `mapstructure:"order_notify_to"`
	SMTPHost           string        `mapstructure:"smtp_host"`
	SMTPPort           int           `mapstructure:"smtp_port"`
	SMTPUsername       string        `mapstructure:"smtp_username"`
	SMTPPassword       string        `mapstructure:"smtp_password"`
	SMTPFrom           string        `mapstructure:"smtp_from"`
	LongQueryDelay     time.Duration `mapstructure:"long_query_delay"`
	RateLimitPermit    int           `mapstructure:"rate_limit_permit"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
	LogLevel           string        `mapstructure:"log_level"`
	LogSQL             bool          `mapstructure:"log_sql"`
}

var defaults = map[string]interface{}{
	"port":                 "8000",
	"db_connection_string": "",
	"redis_host":           "",
	"redis_port":           "6379",
	"redis_db":             0,
	"order_events_channel": "orders.created",
	"order_events_timeout": 3 * time.Second,
	"order_notify_to":      "",
	"smtp_host":            "",
	"smtp_port":            587,
	"smtp_username":        "",
	"smtp_password":        "",
	"smtp_from":            "",
	"long_query_delay":     5 * time.Second,
	"rate_limit_permit":    1,
	"rate_limit_window":    5 * time.Second,
	"log_level":            "info",
	"log_sql":              false,
}

// Load reads the environment, after applying any of the given dotenv files
// that exist. Variables already set in the environment win.
func Load(files ...string) (*Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBConnectionString == "" {
		return errors.New("please provide DB_CONNECTION_STRING environment variable")
	}

	if c.RateLimitPermit < 1 {
		return fmt.Errorf("RATE_LIMIT_PERMIT must be at least 1, got %d", c.RateLimitPermit)
	}

	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}

	if c.OrderEventsTimeout <= 0 {
		return fmt.Errorf("ORDER_EVENTS_TIMEOUT must be positive, got %s", c.OrderEventsTimeout)
	}

	if c.SMTPHost != "" && c.SMTPFrom == "" {
		return errors.New("SMTP_FROM is required when SMTP_HOST is set")
	}

	if c.LongQueryDelay < 0 {
		return fmt.Errorf("LONG_QUERY_DELAY must not be negative, got %s", c.LongQueryDelay)
	}
	return nil
}

// OrderNotifyRecipients splits ORDER_NOTIFY_TO on commas. It is empty when
// no SMTP host is configured.
func (c *Config) OrderNotifyRecipients() []string {
	if c.SMTPHost == "" {
		return nil
	}

	var to []string
	for _, addr := range strings.Split(c.OrderNotifyTo, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	return to
}

// RedisAddr is empty when no redis host is configured.
func (c *Config) RedisAddr() string {
	if c.RedisHost == "" {
		return ""
	}
	return c.RedisHost + ":" + c.RedisPort
}
