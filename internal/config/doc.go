// Package config loads, normalizes, and validates ffcraft configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FFCRAFT_FFMPEG. The Config type centralizes every knob the CLI, queue, and
// worker need so directories and encoder binaries are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
