//go:build linux

package inotify

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Watcher is a single-directory inotify subscription. Read blocks in the
// runtime poller and returns os.ErrClosed once Close is called.
type Watcher struct {
	file *os.File
	dir  string
	wd   int32
	mask Mask
}

// Open subscribes to mask on dir. The descriptor is close-on-exec so spawned
// reporters do not inherit it.
func Open(dir string, mask Mask) (*Watcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("inotify init: %w", err)
	}

	wd, err := unix.InotifyAddWatch(fd, dir, uint32(mask|OnlyDir))
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("inotify watch %s: %w", dir, err)
	}

	return &Watcher{
		file: os.NewFile(uintptr(fd), "inotify:"+dir),
		dir:  dir,
		wd:   int32(wd),
		mask: mask,
	}, nil
}

// Read fills p with whole records. p must hold at least one maximal record.
func (w *Watcher) Read(p []byte) (int, error) {
	return w.file.Read(p)
}

// Close releases the descriptor and unblocks a pending Read.
func (w *Watcher) Close() error {
	return w.file.Close()
}

// WatchDescriptor returns the kernel watch descriptor for the directory.
func (w *Watcher) WatchDescriptor() int32 {
	return w.wd
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}
