// Package preflight provides readiness checks for the filesystem paths
// crashnotifyd depends on.
//
// These checks run in two contexts:
//   - The daemon runtime logs failed checks at startup so a misconfigured
//     watch directory shows up before the first subscription attempt.
//   - The CLI "crashnotifyd status" command displays every result.
package preflight
