package testsupport

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/lunixbochs/struc"

	"crashnotify/internal/inotify"
)

type recordHeader struct {
	Wd     int32
	Mask   uint32
	Cookie uint32
	Len    uint32
}

// Record encodes ev the way the kernel does: the name is NUL terminated and
// padded to a multiple of the header size, and Len counts the padding.
func Record(t testing.TB, ev inotify.Event) []byte {
	t.Helper()

	var name []byte
	if ev.Name != "" {
		padded := (len(ev.Name) + 1 + inotify.HeaderSize - 1) / inotify.HeaderSize * inotify.HeaderSize
		name = make([]byte, padded)
		copy(name, ev.Name)
	}
	return RawRecord(t, ev.Wd, ev.Mask, ev.Cookie, name)
}

// RawRecord encodes a header followed by name verbatim, with Len set to
// len(name).
func RawRecord(t testing.TB, wd int32, mask inotify.Mask, cookie uint32, name []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	hdr := recordHeader{Wd: wd, Mask: uint32(mask), Cookie: cookie, Len: uint32(len(name))}
	if err := struc.PackWithOptions(&buf, &hdr, &struc.Options{Order: binary.NativeEndian}); err != nil {
		t.Fatalf("pack inotify header: %v", err)
	}
	buf.Write(name)
	return buf.Bytes()
}

// Records concatenates the encodings of events into one read buffer.
func Records(t testing.TB, events ...inotify.Event) []byte {
	t.Helper()
	var out []byte
	for _, ev := range events {
		out = append(out, Record(t, ev)...)
	}
	return out
}
