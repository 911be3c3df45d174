package dispatch

import (
	"crashnotify/internal/crashreport"
	"crashnotify/internal/inotify"
)

// Policy selects the events that trigger a dispatch.
type Policy struct {
	Suffix  string
	Trigger inotify.Mask
}

// Reasons returned by Policy.Check for events that are not dispatched.
const (
	ReasonNoName    = "no file name"
	ReasonDirectory = "directory"
	ReasonSuffix    = "suffix mismatch"
	ReasonEvent     = "event not a trigger"
)

// Check returns "" when ev should be dispatched and the reason otherwise.
func (p Policy) Check(ev inotify.Event) string {
	switch {
	case ev.Name == "":
		return ReasonNoName
	case ev.IsDir():
		return ReasonDirectory
	case !crashreport.IsEligible(ev.Name, p.Suffix):
		return ReasonSuffix
	case !ev.Mask.Has(p.Trigger):
		return ReasonEvent
	default:
		return ""
	}
}

// ShouldDispatch reports whether ev names an eligible report and carries one
// of the trigger bits.
func (p Policy) ShouldDispatch(ev inotify.Event) bool {
	return p.Check(ev) == ""
}
