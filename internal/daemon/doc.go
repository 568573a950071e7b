// Package daemon hosts the long-running vellum process: it holds the
// single-instance lock, gates startup on preflight checks, runs the job
// manager, and watches the inbox directory for dropped documents.
package daemon
