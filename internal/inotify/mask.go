package inotify

import (
	"fmt"
	"strconv"
	"strings"
)

// Mask is the inotify event bitset carried by every record.
type Mask uint32

// Event bits as defined by <sys/inotify.h>.
const (
	Access       Mask = 0x00000001
	Modify       Mask = 0x00000002
	Attrib       Mask = 0x00000004
	CloseWrite   Mask = 0x00000008
	CloseNoWrite Mask = 0x00000010
	Opened       Mask = 0x00000020
	MovedFrom    Mask = 0x00000040
	MovedTo      Mask = 0x00000080
	Create       Mask = 0x00000100
	Delete       Mask = 0x00000200
	DeleteSelf   Mask = 0x00000400
	MoveSelf     Mask = 0x00000800
	Unmount      Mask = 0x00002000
	QOverflow    Mask = 0x00004000
	Ignored      Mask = 0x00008000
	OnlyDir      Mask = 0x01000000
	DontFollow   Mask = 0x02000000
	ExclUnlink   Mask = 0x04000000
	MaskAdd      Mask = 0x20000000
	IsDir        Mask = 0x40000000
	OneShot      Mask = 0x80000000
)

var maskNames = []struct {
	bit  Mask
	name string
}{
	{Access, "IN_ACCESS"},
	{Modify, "IN_MODIFY"},
	{Attrib, "IN_ATTRIB"},
	{CloseWrite, "IN_CLOSE_WRITE"},
	{CloseNoWrite, "IN_CLOSE_NOWRITE"},
	{Opened, "IN_OPEN"},
	{MovedFrom, "IN_MOVED_FROM"},
	{MovedTo, "IN_MOVED_TO"},
	{Create, "IN_CREATE"},
	{Delete, "IN_DELETE"},
	{DeleteSelf, "IN_DELETE_SELF"},
	{MoveSelf, "IN_MOVE_SELF"},
	{Unmount, "IN_UNMOUNT"},
	{QOverflow, "IN_Q_OVERFLOW"},
	{Ignored, "IN_IGNORED"},
	{OnlyDir, "IN_ONLYDIR"},
	{DontFollow, "IN_DONT_FOLLOW"},
	{ExclUnlink, "IN_EXCL_UNLINK"},
	{MaskAdd, "IN_MASK_ADD"},
	{IsDir, "IN_ISDIR"},
	{OneShot, "IN_ONESHOT"},
}

// triggerNames are the event names accepted in configuration.
var triggerNames = map[string]Mask{
	"close_write": CloseWrite,
	"create":      Create,
	"attrib":      Attrib,
	"modify":      Modify,
	"moved_to":    MovedTo,
}

// Has reports whether any bit of other is set in m.
func (m Mask) Has(other Mask) bool {
	return m&other != 0
}

// String renders the mask as IN_* names joined with '|'. Unknown bits are
// appended in hex.
func (m Mask) String() string {
	if m == 0 {
		return "0"
	}
	var parts []string
	rest := m
	for _, entry := range maskNames {
		if m&entry.bit != 0 {
			parts = append(parts, entry.name)
			rest &^= entry.bit
		}
	}
	if rest != 0 {
		parts = append(parts, "0x"+strconv.FormatUint(uint64(rest), 16))
	}
	return strings.Join(parts, "|")
}

// ParseMask converts configuration event names (close_write, create, attrib,
// modify, moved_to) into a mask.
func ParseMask(names []string) (Mask, error) {
	var mask Mask
	for _, name := range names {
		bit, ok := triggerNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("unknown event %q (want one of %s)", name, strings.Join(TriggerNames(), ", "))
		}
		mask |= bit
	}
	return mask, nil
}

// TriggerNames lists the event names accepted by ParseMask in a stable order.
func TriggerNames() []string {
	return []string{"close_write", "create", "attrib", "modify", "moved_to"}
}
