// Package dispatch decides which watch events describe a finished crash
// report and hands each such report to the external bug-reporting command.
//
// The reporter is spawned with an argument vector, never through a shell:
// report names come from a world-writable directory and are passed to the
// reporter as a single argument. Dispatch is synchronous; events that arrive
// while the reporter runs wait in the kernel queue.
package dispatch
