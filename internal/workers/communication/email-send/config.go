// internal/workers/communication/email-send/config.go
package emailsend

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Provider      string        `mapstructure:"provider"`
	FallbackToSES bool          `mapstructure:"fallback_to_ses"`
	SMTPHost      string        `mapstructure:"smtp_host"`
	SMTPPort      int           `mapstructure:"smtp_port"`
	SMTPUsername  string        `mapstructure:"smtp_username"`
	SMTPPassword  string        `mapstructure:"smtp_password"`
	UseTLS        bool          `mapstructure:"use_tls"`
	DefaultFrom   string        `mapstructure:"default_from"`
}

const (
	ProviderSMTP = "smtp"
	ProviderSES  = "ses"
)

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		Provider:      ProviderSMTP,
		FallbackToSES: true,
		SMTPPort:      587,
		UseTLS:        true,
		DefaultFrom:   "notifications@bidbuddy.app",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.Provider != ProviderSMTP && c.Provider != ProviderSES {
		return fmt.Errorf("provider must be %q or %q", ProviderSMTP, ProviderSES)
	}
	if c.Provider == ProviderSMTP {
		if c.SMTPHost == "" {
			return fmt.Errorf("smtp_host is required")
		}
		if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
			return fmt.Errorf("smtp_port must be between 1 and 65535")
		}
	}
	if c.DefaultFrom == "" {
		return fmt.Errorf("default_from email is required")
	}
	return nil
}
