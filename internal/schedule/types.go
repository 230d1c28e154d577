package schedule

import "time"

// State is the canonical power state carried by an interval. Labels outside
// the two known tokens are kept as-is after lowercasing.
type State string

const (
	StateOn  State = "on"
	StateOff State = "off"
)

// Interval is one contiguous time range with a power state. Both timestamps
// are UTC and StartTime <= EndTime. Intervals are value types; merging
// produces new ones.
type Interval struct {
	State     State
	StartTime time.Time
	EndTime   time.Time
}

// Covers reports whether at falls inside the interval, bounds included.
func (i Interval) Covers(at time.Time) bool {
	return !at.Before(i.StartTime) && !at.After(i.EndTime)
}

// Overlaps reports whether the interval intersects [start, end], bounds
// included.
func (i Interval) Overlaps(start, end time.Time) bool {
	return !i.StartTime.After(end) && !start.After(i.EndTime)
}

// Group is one consumer group's ordered intervals for a single day.
type Group struct {
	ID        string
	Intervals []Interval
}

// Schedule is one day's full outage plan as published by the source.
// DateString is the calendar-day key; at most one schedule per DateString
// lives in a Store.
type Schedule struct {
	ID         string
	Date       time.Time
	DateString string
	ImageURL   string
	Groups     []Group
}

// Group returns the entry for the given group id.
func (s Schedule) Group(id string) (Group, bool) {
	for _, group := range s.Groups {
		if group.ID == id {
			return group, true
		}
	}
	return Group{}, false
}
