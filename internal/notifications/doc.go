// Package notifications pushes match run outcomes to ntfy.
//
// The topic URL comes from the [notifications] section of config.toml. When it
// is empty NewService returns a no-op implementation, so commands can call the
// Service unconditionally.
package notifications
