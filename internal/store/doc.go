// Package store persists job records and their event history in SQLite.
//
// The store is deliberately dumb: statuses and event types are plain strings
// written by the jobs manager, and the schema favors upserts so status
// persistence stays race-tolerant when a job finishes while a cleanup or
// timeout scan touches the same row. Busy errors are retried with backoff
// because WAL still serializes writers.
package store
