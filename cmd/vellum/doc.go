// Package main hosts the vellum CLI entrypoint and command graph.
//
// The Cobra-based command tree renders environment checks, job history, and
// event timelines from the durable store, scaffolds configuration, and sends
// test notifications. It centralizes configuration resolution so subcommands
// can focus on output.
//
// The CLI reads the SQLite store directly; job control (cancel, delete)
// belongs to the daemon process that owns the in-memory registry.
package main
