// internal/workers/auth/refresh-google-token/config.go
package refreshgoogletoken

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	// ExpirySlack is subtracted from Google's expires_in when deciding how
	// long the cached token stays trustworthy.
	ExpirySlack time.Duration `mapstructure:"expiry_slack"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       15 * time.Second,
		ExpirySlack:   60 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ExpirySlack < 0 {
		return fmt.Errorf("expiry_slack must not be negative")
	}
	return nil
}
