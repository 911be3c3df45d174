package inotify

const (
	// HeaderSize is sizeof(struct inotify_event) without the name.
	HeaderSize = 16
	// MaxNameLen is NAME_MAX.
	MaxNameLen = 255
)

// Event is one decoded inotify record.
type Event struct {
	Wd     int32
	Mask   Mask
	Cookie uint32
	// Name is relative to the watched directory; empty for events on the
	// directory itself.
	Name string
	// Index is the position of the record within the batch it was read from.
	Index int
}

// IsDir reports whether the subject of the event is a directory.
func (e Event) IsDir() bool {
	return e.Mask.Has(IsDir)
}

// BufferSize returns a read buffer large enough for n maximal-length records.
func BufferSize(n int) int {
	if n <= 0 {
		n = 1
	}
	return n * (HeaderSize + MaxNameLen + 1)
}
