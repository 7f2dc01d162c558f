package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Automation AutomationConfig `mapstructure:"automation"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// BaseURL is the externally reachable address tracking pixel and
	// click links are rendered against.
	BaseURL string `mapstructure:"base_url"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// SMTPConfig configures the email sink. An empty Host selects the
// log-only stub sender.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// AuthConfig holds the shared secret the external identity provider
// signs tokens with.
type AuthConfig struct {
	TokenSecret string `mapstructure:"token_secret"`
	Issuer      string `mapstructure:"issuer"`
	Audience    string `mapstructure:"audience"`
}

// AutomationConfig holds sweep thresholds and cadences.
type AutomationConfig struct {
	AssignmentInterval time.Duration `mapstructure:"assignment_interval"`
	StaleCheckInterval time.Duration `mapstructure:"stale_check_interval"`
	FollowUpInterval   time.Duration `mapstructure:"follow_up_interval"`

	StaleAfter      time.Duration `mapstructure:"stale_after"`
	EscalateAfter   time.Duration `mapstructure:"escalate_after"`
	ColdPoolAfter   time.Duration `mapstructure:"cold_pool_after"`
	AssignmentBatch int           `mapstructure:"assignment_batch"`
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.base_url", "http://localhost:8080")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "crm")
	viper.SetDefault("database.name", "crm")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("redis.url", "redis://localhost:6379/0")

	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.from", "crm@salesdeck.io")

	viper.SetDefault("automation.assignment_interval", "30s")
	viper.SetDefault("automation.stale_check_interval", "12h")
	viper.SetDefault("automation.follow_up_interval", "1h")
	viper.SetDefault("automation.stale_after", "72h")
	viper.SetDefault("automation.escalate_after", "120h")
	viper.SetDefault("automation.cold_pool_after", "240h")
	viper.SetDefault("automation.assignment_batch", 50)
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; env vars and defaults carry the rest.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
