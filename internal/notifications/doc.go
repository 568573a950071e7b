// Package notifications delivers job lifecycle notifications via pluggable
// notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set.
// Per-category toggles (completed, failed, errors) suppress individual
// notification kinds without touching call sites.
//
// Extend this package if you need alternative transports; the job manager
// depends only on the simple Service interface.
package notifications
