package testsupport

import (
	"path/filepath"
	"testing"

	"flacfixer/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// History is disabled by default so tests opt in to the ledger explicitly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.ExportDir = filepath.Join(base, "pictures")
	cfgVal.Paths.LogDir = ""
	cfgVal.History.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithHistory enables the run ledger on the test config.
func WithHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = true
	}
}

// WithExportPictures enables picture export on the test config.
func WithExportPictures() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Rewrite.ExportPictures = true
	}
}

// WithMaxPadding overrides the padding ceiling on the test config.
func WithMaxPadding(value string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Rewrite.MaxPadding = value
	}
}

// WithJobs overrides the worker count on the test config.
func WithJobs(jobs int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Run.Jobs = jobs
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
