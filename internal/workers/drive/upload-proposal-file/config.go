// internal/workers/drive/upload-proposal-file/config.go
package uploadproposalfile

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`

	// FallbackFolderName is where uploads land when no project folder
	// matches the extracted project name well enough.
	FallbackFolderName string `mapstructure:"fallback_folder_name"`

	// MatchThreshold is the minimum name similarity for a project folder
	// to win. Below it the upload goes to the fallback folder.
	MatchThreshold float64 `mapstructure:"match_threshold"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:            true,
		MaxJobsActive:      3,
		Timeout:            120 * time.Second,
		FallbackFolderName: "Uncertain Bids",
		MatchThreshold:     0.5,
	}
}

func (c *Config) Validate() error {
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.FallbackFolderName == "" {
		return fmt.Errorf("fallback_folder_name is required")
	}
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("match_threshold must be in (0, 1]")
	}
	return nil
}
