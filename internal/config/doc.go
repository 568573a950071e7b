// Package config loads, validates, and normalizes the vellum TOML
// configuration.
//
// Configuration resolution order: an explicit --config path, then
// ~/.config/vellum/config.toml, then ./vellum.toml, falling back to built-in
// defaults when no file exists. All directory values are tilde-expanded and
// made absolute before any other package sees them.
//
// Inspection thresholds and per-tier conversion settings are deliberately
// configuration, not constants; operators tune them per document corpus.
package config
