// Package jobs owns the conversion job lifecycle: admission, the
// queued → processing → {completed, failed, cancelled} state machine,
// cancellation, runtime limits, and TTL-based workspace cleanup.
//
// The manager keeps the authoritative in-memory registry; the SQLite store
// receives best-effort copies so history survives restarts, and the
// broadcaster receives every observable transition. A job runs its pipeline
// in a dedicated goroutine after acquiring one of max_concurrent slots; slot
// acquisition is the only place a job waits.
//
// Terminal states are final. Transitions that would regress are rejected and
// logged, never applied, so a cancel racing a natural completion settles on
// whichever transition lands first.
package jobs
