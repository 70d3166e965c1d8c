// internal/workers/communication/render-notification/config.go
package rendernotification

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxJobsActive    int           `mapstructure:"max_jobs_active"`
	Timeout          time.Duration `mapstructure:"timeout"`
	TemplateRegistry string        `mapstructure:"template_registry"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:          true,
		MaxJobsActive:    10,
		Timeout:          5 * time.Second,
		TemplateRegistry: "configs/notification-templates.json",
		CacheTTL:         5 * time.Minute,
	}
}

func (c *Config) Validate() error {
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.TemplateRegistry == "" {
		return fmt.Errorf("template_registry is required")
	}
	return nil
}
