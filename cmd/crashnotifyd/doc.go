// Package main hosts the crashnotifyd entrypoint and command graph.
//
// Invoked without a subcommand the binary runs the watch daemon in the
// foreground of its process. The status, reports and config subcommands are
// short-lived helpers that inspect the same configuration without touching
// the running instance.
package main
