// Package config loads, normalizes, and validates m4b-tools configuration.
//
// Configuration is read from TOML (default ~/.config/m4b-tools/config.toml,
// falling back to ./m4b-tools.toml), expanded for ~ paths, overlaid with
// M4B_TOOLS_* environment overrides, and validated before use. Load returns
// the resolved path and whether a file existed so callers can report it.
// CreateSample writes the embedded sample_config.toml for `config init`.
package config
