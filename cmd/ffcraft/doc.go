// Package main hosts the ffcraft CLI entrypoint and command graph.
//
// Commands read a declarative encoding state from JSON, validate it, render
// the ffmpeg invocation and run batches through the job queue. Saved states
// live in the presets database. Configuration resolution and logging setup
// are centralized here so subcommands stay small; behavior belongs in the
// internal packages.
package main
