// Package config loads, normalizes, and validates digidub configuration.
//
// It supplies defaults for every matching and detection knob, expands user
// paths (including tilde shortcuts), reads TOML files, and honours the
// DIGIDUB_CACHE_DIR and XDG_CACHE_HOME environment fallbacks for the cache
// location. Validation errors name the offending TOML key.
package config
