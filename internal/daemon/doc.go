// Package daemon runs the crash directory watch loop.
//
// Run acquires the instance guard, subscribes to the watch directory with
// retries, optionally dispatches reports that arrived while the daemon was
// down, and then reads, decodes and dispatches events until its context is
// cancelled. Losing the subscription (directory removed, moved or unmounted)
// triggers a fresh subscription; failing to re-establish it ends Run with
// ErrWatchLost.
package daemon
