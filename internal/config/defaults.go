package config

const (
	defaultStateDir   = "~/.local/share/flacfixer"
	defaultExportDir  = "~/.local/share/flacfixer/pictures"
	defaultMaxPadding = "8 KiB"
	defaultJobs       = 1
	defaultKeepRuns   = 50
	defaultLogFormat  = "console"
	defaultLogLevel   = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:  defaultStateDir,
			ExportDir: defaultExportDir,
		},
		Rewrite: Rewrite{
			RemovePictures: true,
			RemoveID3:      true,
			MaxPadding:     defaultMaxPadding,
		},
		Run: Run{
			Jobs: defaultJobs,
		},
		History: History{
			Enabled:  true,
			KeepRuns: defaultKeepRuns,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
