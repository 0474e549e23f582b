package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"flacfixer/internal/config"
)

// commandContext resolves configuration once per invocation and shares the
// result across subcommands.
type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// resolvedConfigPath reports where configuration was (or would be) read from.
// Valid only after ensureConfig succeeded.
func (c *commandContext) resolvedConfigPath() (string, bool) {
	return c.configPath, c.configExists
}

// shouldSkipConfig reports whether the command or any ancestor opted out of
// configuration loading, e.g. "config init" which must run before a file
// exists.
func shouldSkipConfig(cmd *cobra.Command) bool {
	for current := cmd; current != nil; current = current.Parent() {
		if current.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
