// Package inotify subscribes to a single directory through the Linux inotify
// interface and decodes the packed variable-length records it produces.
//
// The decoder is platform neutral so it can be exercised with synthetic
// buffers anywhere; Open is Linux only and returns ErrUnsupported elsewhere.
package inotify

import "errors"

// ErrUnsupported is returned by Open on platforms without inotify.
var ErrUnsupported = errors.New("inotify: not supported on this platform")
