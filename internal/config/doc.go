// Package config loads, normalizes, and validates flacfixer configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, honours the FLACFIXER_STATE_DIR environment
// override, and resolves human-readable sizes such as "8 KiB" into byte
// counts. The Config type centralizes every knob the CLI needs.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
