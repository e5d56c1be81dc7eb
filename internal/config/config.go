package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port        string   `mapstructure:"port"`
		CORSOrigins []string `mapstructure:"cors_origins"`
		Mode        string   `mapstructure:"mode"`
	} `mapstructure:"server"`

	Database struct {
		Host         string `mapstructure:"host"`
		Port         string `mapstructure:"port"`
		User         string `mapstructure:"user"`
		Password     string `mapstructure:"password"`
		Name         string `mapstructure:"name"`
		SSLMode      string `mapstructure:"sslmode"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
		MaxIdleConns int    `mapstructure:"max_idle_conns"`

		ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	} `mapstructure:"database"`

	Auth struct {
		JWTSecret string        `mapstructure:"jwt_secret"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`

	Business struct {
		Timezone              string        `mapstructure:"timezone"`
		OrderWindowTTL        time.Duration `mapstructure:"order_window_ttl"`
		ReferralRewardAmount  float64       `mapstructure:"referral_reward_amount"`
		ReferralRewardTTL     time.Duration `mapstructure:"referral_reward_ttl"`
		WelcomeCouponAmount   float64       `mapstructure:"welcome_coupon_amount"`
		ProductLookupParallel int           `mapstructure:"product_lookup_parallel"`
	} `mapstructure:"business"`

	Kafka struct {
		Enabled    bool     `mapstructure:"enabled"`
		Brokers    []string `mapstructure:"brokers"`
		AdminTopic string   `mapstructure:"admin_topic"`
	} `mapstructure:"kafka"`

	Webhook struct {
		URL     string        `mapstructure:"url"`
		Secret  string        `mapstructure:"secret"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"webhook"`

	Notify struct {
		Workers    int           `mapstructure:"workers"`
		QueueSize  int           `mapstructure:"queue_size"`
		JobTimeout time.Duration `mapstructure:"job_timeout"`
	} `mapstructure:"notify"`

	Tracing struct {
		Enabled     bool   `mapstructure:"enabled"`
		ServiceName string `mapstructure:"service_name"`
	} `mapstructure:"tracing"`

	Log struct {
		Level  string `mapstructure:"level"`
		Pretty bool   `mapstructure:"pretty"`
	} `mapstructure:"log"`
}

// DSN builds the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name, c.Database.SSLMode)
}

// Location resolves the business timezone used for order-hour checks.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Business.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading business timezone %q: %w", c.Business.Timezone, err)
	}
	return loc, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("server.mode", "release")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "grocery")
	v.SetDefault("database.password", "grocery")
	v.SetDefault("database.name", "grocery")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("business.timezone", "Europe/Istanbul")
	v.SetDefault("business.order_window_ttl", 60*time.Second)
	v.SetDefault("business.referral_reward_amount", 50.0)
	v.SetDefault("business.referral_reward_ttl", 30*24*time.Hour)
	v.SetDefault("business.welcome_coupon_amount", 25.0)
	v.SetDefault("business.product_lookup_parallel", 8)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"127.0.0.1:9092"})
	v.SetDefault("kafka.admin_topic", "admin-events")

	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.timeout", 5*time.Second)

	v.SetDefault("notify.workers", 2)
	v.SetDefault("notify.queue_size", 256)
	v.SetDefault("notify.job_timeout", 10*time.Second)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "grocery-backend")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
}

// Load reads configuration from an optional config file and GROCERY_* environment variables.
// An empty path searches ./config.yaml and ./config/config.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("GROCERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Business.OrderWindowTTL <= 0 {
		return errors.New("business.order_window_ttl must be positive")
	}
	if c.Notify.Workers <= 0 || c.Notify.QueueSize <= 0 {
		return errors.New("notify.workers and notify.queue_size must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required when kafka is enabled")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
