// Package pipeline runs one document through the adaptive conversion flow:
// inspect, pick a compression profile, then drive the engine through up to
// three degrading settings tiers.
//
// The pipeline is synchronous and runs inside a job slot owned by the jobs
// manager; it reports back exclusively through the progress and event
// callbacks it was handed. Callbacks are guarded so observer failures can
// never change a conversion's outcome.
//
// Escalation policy: only renderer-crash-class failures move to the next
// tier. Tier 2 trades fidelity for stability (lower resolution, optimization
// off, vector removal off, compliance level down one step); tier 3
// additionally forces OCR off. Anything else fails the attempt immediately,
// and a prior-artifact result is success.
package pipeline
