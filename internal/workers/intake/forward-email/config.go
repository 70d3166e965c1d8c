// internal/workers/intake/forward-email/config.go
package forwardemail

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled        bool          `mapstructure:"enabled"`
	MaxJobsActive  int           `mapstructure:"max_jobs_active"`
	Timeout        time.Duration `mapstructure:"timeout"`
	ForwardFrom    string        `mapstructure:"forward_from"`
	ForwardTo      string        `mapstructure:"forward_to"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
	MaxAttachments int           `mapstructure:"max_attachments"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		MaxJobsActive:  5,
		Timeout:        30 * time.Second,
		SubjectPrefix:  "Fwd: ",
		MaxAttachments: 10,
	}
}

func (c *Config) Validate() error {
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ForwardFrom == "" {
		return fmt.Errorf("forward_from is required")
	}
	return nil
}
