// Package broadcast fans job status, progress, and pipeline events out to
// registered sinks.
//
// Progress updates are throttled per job: at most one delivery per interval,
// and when updates arrive faster than that only the latest one is kept and
// flushed when the interval elapses. Status changes and pipeline events are
// never throttled; a status delivery first flushes any pending progress so
// sinks never observe progress for a job they already saw finish.
//
// A sink that returns an error from Send is removed from every future
// delivery for that job. Sink failures never propagate to publishers.
package broadcast
