// Package config loads, normalizes, and validates crashnotifyd configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// CRASHNOTIFY_WATCH_DIR and the APPORT_REPORT_DIR fallback. The Config type
// centralizes every knob the daemon and CLI need so the watch directory,
// reporter command and guard strategy are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
