// Package guard keeps a single crashnotifyd instance per user.
//
// Two strategies are available. ScanGuard inspects the process table for
// another process of the same user running the daemon; FileGuard holds an
// advisory lock for the daemon's lifetime. Chain combines them so the scan
// catches instances that predate the lock file and the lock closes the window
// between scan and startup.
package guard
