// Package slot maps wall-clock time onto the four day-parts used to throttle
// check-ins to at most one per part of the day.
package slot

import (
	"fmt"
	"time"
)

// Slot is a named day-part. The zero value None means "no slot yet".
type Slot string

const (
	None      Slot = ""
	Morning   Slot = "morning"
	Afternoon Slot = "afternoon"
	Evening   Slot = "evening"
	Night     Slot = "night"
)

// All lists the slots in day order starting from morning.
var All = []Slot{Morning, Afternoon, Evening, Night}

type hourRange struct {
	slot  Slot
	start int // inclusive
	end   int // exclusive
}

// ranges are half-open hour intervals. Night wraps midnight.
var ranges = []hourRange{
	{Morning, 6, 12},
	{Afternoon, 12, 17},
	{Evening, 17, 21},
	{Night, 21, 6},
}

// For returns the slot for t, read in t's own location.
func For(t time.Time) Slot {
	return ForHour(t.Hour())
}

// ForHour returns the slot for an hour of a 24-hour clock. Any hour no range
// claims falls back to Night.
func ForHour(hour int) Slot {
	for _, r := range ranges {
		if r.contains(hour) {
			return r.slot
		}
	}
	return Night
}

func (r hourRange) contains(hour int) bool {
	if r.start <= r.end {
		return hour >= r.start && hour < r.end
	}
	return hour >= r.start || hour < r.end
}

// Parse decodes a stored slot value. The empty string decodes to None.
func Parse(s string) (Slot, error) {
	sl := Slot(s)
	if sl == None || sl.Valid() {
		return sl, nil
	}
	return None, fmt.Errorf("unknown slot %q", s)
}

// Valid reports whether s is one of the four named slots.
func (s Slot) Valid() bool {
	switch s {
	case Morning, Afternoon, Evening, Night:
		return true
	default:
		return false
	}
}

func (s Slot) String() string {
	if s == None {
		return "none"
	}
	return string(s)
}
