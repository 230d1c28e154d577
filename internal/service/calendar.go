package service

import (
	"time"

	"github.com/Jurkash/ha-loe-outages/internal/schedule"
)

// CalendarEvent is the presentation shape handed to the smart-home
// platform's calendar entity. Summary and description carry the raw state
// token; translation is layered outside this addon.
type CalendarEvent struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// CurrentCalendarEvent returns the event covering now, if any.
func (s *Service) CurrentCalendarEvent(now time.Time) (CalendarEvent, bool) {
	event, ok := s.EventAt(now)
	if !ok {
		return CalendarEvent{}, false
	}
	return toCalendarEvent(event), true
}

// CalendarEvents returns all events of the configured group within
// [start, end], merged and ascending.
func (s *Service) CalendarEvents(start, end time.Time) []CalendarEvent {
	intervals := s.EventsBetween(start, end)
	events := make([]CalendarEvent, 0, len(intervals))
	for _, interval := range intervals {
		events = append(events, toCalendarEvent(interval))
	}
	return events
}

func toCalendarEvent(interval schedule.Interval) CalendarEvent {
	return CalendarEvent{
		Summary:     string(interval.State),
		Description: string(interval.State),
		Start:       interval.StartTime,
		End:         interval.EndTime,
	}
}
