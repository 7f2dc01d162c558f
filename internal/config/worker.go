package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// WorkerConfig is the env-only configuration for the automation worker
// process. The worker deliberately skips the yaml file the API reads.
type WorkerConfig struct {
	DatabaseHost     string `envconfig:"DB_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DB_PORT" default:"5432"`
	DatabaseUser     string `envconfig:"DB_USER" default:"crm"`
	DatabasePassword string `envconfig:"DB_PASSWORD"`
	DatabaseName     string `envconfig:"DB_NAME" default:"crm"`
	DatabaseSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	RedisURL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"crm@salesdeck.io"`

	HealthPort int `envconfig:"WORKER_HEALTH_PORT" default:"8081"`

	AssignmentInterval time.Duration `envconfig:"ASSIGNMENT_INTERVAL" default:"30s"`
	StaleCheckInterval time.Duration `envconfig:"STALE_CHECK_INTERVAL" default:"12h"`
	FollowUpInterval   time.Duration `envconfig:"FOLLOW_UP_INTERVAL" default:"1h"`

	StaleAfter      time.Duration `envconfig:"STALE_AFTER" default:"72h"`
	EscalateAfter   time.Duration `envconfig:"ESCALATE_AFTER" default:"120h"`
	ColdPoolAfter   time.Duration `envconfig:"COLD_POOL_AFTER" default:"240h"`
	AssignmentBatch int           `envconfig:"ASSIGNMENT_BATCH" default:"50"`
}

func LoadWorkerConfig() (*WorkerConfig, error) {
	var cfg WorkerConfig
	if err := envconfig.Process("crm", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process worker env config: %w", err)
	}
	return &cfg, nil
}

// Database maps the worker env fields onto the shared DatabaseConfig.
func (c *WorkerConfig) Database() DatabaseConfig {
	return DatabaseConfig{
		Host:     c.DatabaseHost,
		Port:     c.DatabasePort,
		User:     c.DatabaseUser,
		Password: c.DatabasePassword,
		Name:     c.DatabaseName,
		SSLMode:  c.DatabaseSSLMode,
	}
}

// SMTP maps the worker env fields onto the shared SMTPConfig.
func (c *WorkerConfig) SMTP() SMTPConfig {
	return SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
	}
}

// Automation maps the worker env fields onto the shared AutomationConfig.
func (c *WorkerConfig) Automation() AutomationConfig {
	return AutomationConfig{
		AssignmentInterval: c.AssignmentInterval,
		StaleCheckInterval: c.StaleCheckInterval,
		FollowUpInterval:   c.FollowUpInterval,
		StaleAfter:         c.StaleAfter,
		EscalateAfter:      c.EscalateAfter,
		ColdPoolAfter:      c.ColdPoolAfter,
		AssignmentBatch:    c.AssignmentBatch,
	}
}
