// Package crashreport recognizes crash report files in the watched directory
// and tracks whether they have already been looked at.
//
// A report counts as seen when its access time is newer than its
// modification time, or when it is empty. Bug-reporting tools mark reports
// this way after showing them, so the daemon can skip reports a user has
// already handled.
package crashreport
