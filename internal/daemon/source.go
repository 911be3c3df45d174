package daemon

import (
	"io"

	"crashnotify/internal/inotify"
)

// Source is an open directory subscription.
type Source interface {
	io.ReadCloser
	WatchDescriptor() int32
}

// Opener subscribes to mask on dir.
type Opener func(dir string, mask inotify.Mask) (Source, error)

// SystemOpener opens a kernel inotify subscription.
func SystemOpener(dir string, mask inotify.Mask) (Source, error) {
	w, err := inotify.Open(dir, mask)
	if err != nil {
		return nil, err
	}
	return w, nil
}
