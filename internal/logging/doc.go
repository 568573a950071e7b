// Package logging assembles structured slog loggers shared by all vellum
// components.
//
// It owns the console and JSON handlers, level/output plumbing, standardized
// attribute keys (job_id, component, event_type), and a progress sampler that
// keeps per-page engine progress from flooding the logs. Prefer these
// constructors over hand-rolled slog setup so every component emits the same
// line shape.
package logging
