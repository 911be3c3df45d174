package inotify

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/lunixbochs/struc"
)

// ErrShortRecord reports a record that does not fit in the remaining buffer.
var ErrShortRecord = errors.New("inotify: truncated record")

// header mirrors struct inotify_event up to the flexible name member.
type header struct {
	Wd     int32
	Mask   uint32
	Cookie uint32
	Len    uint32
}

// Decoder walks the variable-length records of one read from an inotify
// descriptor. Usage follows bufio.Scanner:
//
//	dec := NewDecoder(buf[:n])
//	for dec.Next() {
//		handle(dec.Event())
//	}
//	if err := dec.Err(); err != nil { ... }
//
// Each record occupies exactly HeaderSize+Len bytes; the kernel already
// counts name padding in Len. A trailing record that does not fit stops the
// walk with ErrShortRecord.
type Decoder struct {
	buf    []byte
	off    int
	index  int
	event  Event
	err    error
	reader bytes.Reader
	opts   struc.Options
}

// NewDecoder returns a decoder positioned at the start of buf.
func NewDecoder(buf []byte) *Decoder {
	d := &Decoder{opts: struc.Options{Order: binary.NativeEndian}}
	d.Reset(buf)
	return d
}

// Reset restarts decoding over buf, which may be the same slice.
func (d *Decoder) Reset(buf []byte) {
	d.buf = buf
	d.off = 0
	d.index = 0
	d.event = Event{}
	d.err = nil
}

// Next advances to the next record. It returns false at the end of the
// buffer or on a malformed record; Err distinguishes the two.
func (d *Decoder) Next() bool {
	if d.err != nil || d.off >= len(d.buf) {
		return false
	}

	rest := d.buf[d.off:]
	if len(rest) < HeaderSize {
		d.err = fmt.Errorf("%w: %d bytes at offset %d, header needs %d", ErrShortRecord, len(rest), d.off, HeaderSize)
		return false
	}

	var hdr header
	d.reader.Reset(rest[:HeaderSize])
	if err := struc.UnpackWithOptions(&d.reader, &hdr, &d.opts); err != nil {
		d.err = fmt.Errorf("inotify: decode header at offset %d: %w", d.off, err)
		return false
	}

	if uint64(hdr.Len) > uint64(len(rest)-HeaderSize) {
		d.err = fmt.Errorf("%w: name of %d bytes at offset %d exceeds remaining %d", ErrShortRecord, hdr.Len, d.off, len(rest)-HeaderSize)
		return false
	}

	size := HeaderSize + int(hdr.Len)
	name := rest[HeaderSize:size]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}

	d.event = Event{
		Wd:     hdr.Wd,
		Mask:   Mask(hdr.Mask),
		Cookie: hdr.Cookie,
		Name:   string(name),
		Index:  d.index,
	}
	d.index++
	d.off += size
	return true
}

// Event returns the record decoded by the last successful Next.
func (d *Decoder) Event() Event {
	return d.event
}

// Err returns the error that stopped decoding, if any.
func (d *Decoder) Err() error {
	return d.err
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int {
	return d.off
}

// Decode returns every complete record in buf. Records decoded before a
// malformed one are returned together with the error.
func Decode(buf []byte) ([]Event, error) {
	dec := NewDecoder(buf)
	var events []Event
	for dec.Next() {
		events = append(events, dec.Event())
	}
	return events, dec.Err()
}
