// Package slots generates candidate appointment slots on a fixed grid and
// filters them against calendar busy blocks.
package slots

import (
	"strings"
	"time"
)

// Slot is a half-open appointment interval [Start, End).
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Equal reports whether two slots cover the same instant-for-instant interval.
func (s Slot) Equal(o Slot) bool {
	return s.Start.Equal(o.Start) && s.End.Equal(o.End)
}

// Format renders a slot for speech, e.g. "Tue 30 Dec at 14:30".
func (s Slot) Format() string {
	return s.Start.Format("Mon 02 Jan at 15:04")
}

// Busy is an occupied interval [Start, End) reported by the calendar.
type Busy struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals intersect. Touching edges
// do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	lo := aStart
	if bStart.After(lo) {
		lo = bStart
	}
	hi := aEnd
	if bEnd.Before(hi) {
		hi = bEnd
	}
	return lo.Before(hi)
}

// Generate produces fixed-duration slots on a grid aligned to durationMin,
// starting from the next aligned boundary at or after windowStart. Slots are
// restricted to Monday-Friday within [dayStartHour:00, dayEndHour:00) and
// never extend past windowEnd; partially fitting slots are dropped entirely.
func Generate(windowStart, windowEnd time.Time, durationMin, dayStartHour, dayEndHour int) []Slot {
	if durationMin <= 0 {
		return nil
	}
	step := time.Duration(durationMin) * time.Minute

	cursor := windowStart.Truncate(time.Minute)
	if cursor.Before(windowStart) {
		cursor = cursor.Add(time.Minute)
	}
	if mod := cursor.Minute() % durationMin; mod != 0 {
		cursor = cursor.Add(time.Duration(durationMin-mod) * time.Minute)
	}

	var out []Slot
	for cursor.Before(windowEnd) {
		wd := cursor.Weekday()
		if wd >= time.Monday && wd <= time.Friday {
			y, m, d := cursor.Date()
			loc := cursor.Location()
			dayStart := time.Date(y, m, d, dayStartHour, 0, 0, 0, loc)
			dayEnd := time.Date(y, m, d, dayEndHour, 0, 0, 0, loc)

			end := cursor.Add(step)
			if !cursor.Before(dayStart) && !end.After(dayEnd) && !end.After(windowEnd) {
				out = append(out, Slot{Start: cursor, End: end})
			}
		}
		cursor = cursor.Add(step)
	}
	return out
}

// FilterFree drops candidates that overlap any busy block. An empty busy list
// leaves the candidates untouched.
func FilterFree(candidates []Slot, busy []Busy) []Slot {
	free := make([]Slot, 0, len(candidates))
	for _, s := range candidates {
		blocked := false
		for _, b := range busy {
			if Overlaps(s.Start, s.End, b.Start, b.End) {
				blocked = true
				break
			}
		}
		if !blocked {
			free = append(free, s)
		}
	}
	return free
}

// Suggest generates candidates for the window and removes busy overlaps,
// returning free slots in chronological order.
func Suggest(windowStart, windowEnd time.Time, durationMin, dayStartHour, dayEndHour int, busy []Busy) []Slot {
	return FilterFree(Generate(windowStart, windowEnd, durationMin, dayStartHour, dayEndHour), busy)
}

// SuggestPreferred runs a two-pass search: first inside the caller's
// time-of-day preference window, then, if that yields nothing, across the
// clinic's full working hours. A narrow first pass coming up empty must never
// be reported as no availability.
func SuggestPreferred(windowStart, windowEnd time.Time, durationMin int, pref Window, fullStart, fullEnd int, busy []Busy) []Slot {
	if free := Suggest(windowStart, windowEnd, durationMin, pref.StartHour, pref.EndHour, busy); len(free) > 0 {
		return free
	}
	return Suggest(windowStart, windowEnd, durationMin, fullStart, fullEnd, busy)
}

// Window is a time-of-day sub-window in whole hours.
type Window struct {
	StartHour int
	EndHour   int
}

// PreferenceWindow maps a spoken time-of-day preference onto an hour window.
// Unrecognised preferences report ok=false and callers fall back to full
// working hours.
func PreferenceWindow(pref string) (Window, bool) {
	p := strings.ToLower(pref)
	switch {
	case strings.Contains(p, "morning"):
		return Window{StartHour: 9, EndHour: 12}, true
	case strings.Contains(p, "afternoon"):
		return Window{StartHour: 12, EndHour: 17}, true
	case strings.Contains(p, "evening"), strings.Contains(p, "after work"):
		return Window{StartHour: 17, EndHour: 20}, true
	}
	return Window{}, false
}

// Take returns the first n slots, or all of them when fewer exist.
func Take(free []Slot, n int) []Slot {
	if len(free) <= n {
		return free
	}
	return free[:n]
}
