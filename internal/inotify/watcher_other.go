//go:build !linux

package inotify

import "os"

// Watcher is unavailable outside Linux.
type Watcher struct{}

// Open always fails with ErrUnsupported.
func Open(dir string, mask Mask) (*Watcher, error) {
	return nil, ErrUnsupported
}

func (w *Watcher) Read(p []byte) (int, error) { return 0, ErrUnsupported }

func (w *Watcher) Close() error { return os.ErrClosed }

func (w *Watcher) WatchDescriptor() int32 { return -1 }

func (w *Watcher) Dir() string { return "" }
