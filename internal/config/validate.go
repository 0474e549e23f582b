package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// maxPaddingCeiling is the largest length a single metadata block can
// declare: the block header stores it in 24 bits.
const maxPaddingCeiling = 1<<24 - 1

// ParsePaddingSize resolves a padding ceiling expressed as a byte count
// ("8192") or a human-readable size ("8 KiB"). Values beyond what a single
// metadata block can address are rejected.
func ParsePaddingSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = defaultMaxPadding
	}
	parsed, err := humanize.ParseBytes(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse padding size %q: %w", value, err)
	}
	if parsed > maxPaddingCeiling {
		return 0, fmt.Errorf("padding size %q exceeds the %d byte metadata block limit", value, int64(maxPaddingCeiling))
	}
	return int64(parsed), nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRewrite(); err != nil {
		return err
	}
	if err := c.validateRun(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if c.Rewrite.ExportPictures && c.Paths.ExportDir == "" {
		return errors.New("paths.export_dir must be set when rewrite.export_pictures is true")
	}
	return nil
}

func (c *Config) validateRewrite() error {
	if _, err := ParsePaddingSize(c.Rewrite.MaxPadding); err != nil {
		return fmt.Errorf("rewrite.max_padding: %w", err)
	}
	return nil
}

func (c *Config) validateRun() error {
	if c.Run.Jobs < 1 {
		return errors.New("run.jobs must be at least 1")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.Enabled && c.History.KeepRuns < 1 {
		return errors.New("history.keep_runs must be at least 1 when history.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
