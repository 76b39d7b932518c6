// Package config loads, normalizes, and validates Missive configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MISSIVE_SMTP_PASSWORD. The Config type centralizes every knob the server
// and CLI need, so data directories and mail credentials are discovered in
// one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
