package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DecodeError describes a payload the decoder refused. A refused payload is
// never partially admitted.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "decode error"
	}
	return fmt.Sprintf("invalid schedule payload: %s: %s", e.Field, e.Reason)
}

type intervalRecord struct {
	State     string `json:"state"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type groupRecord struct {
	ID        string           `json:"id"`
	Intervals []intervalRecord `json:"intervals"`
}

type scheduleRecord struct {
	ID         string        `json:"id"`
	Date       string        `json:"date"`
	DateString string        `json:"dateString"`
	ImageURL   string        `json:"imageUrl"`
	Groups     []groupRecord `json:"groups"`
}

// timestampLayouts covers the source's ISO-8601 variants. Layouts without a
// zone designator are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// DecodeSchedule parses a single raw schedule record.
func DecodeSchedule(data []byte) (Schedule, error) {
	var record scheduleRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return Schedule{}, &DecodeError{Field: "schedule", Reason: err.Error()}
	}
	return decodeRecord(record)
}

// DecodeSchedules parses a raw array of schedule records, preserving input
// order. Sorting by date is the store's job.
func DecodeSchedules(data []byte) ([]Schedule, error) {
	var records []scheduleRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &DecodeError{Field: "schedules", Reason: err.Error()}
	}
	schedules := make([]Schedule, 0, len(records))
	for _, record := range records {
		decoded, err := decodeRecord(record)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, decoded)
	}
	return schedules, nil
}

func decodeRecord(record scheduleRecord) (Schedule, error) {
	if strings.TrimSpace(record.ID) == "" {
		return Schedule{}, &DecodeError{Field: "id", Reason: "missing"}
	}
	if strings.TrimSpace(record.DateString) == "" {
		return Schedule{}, &DecodeError{Field: "dateString", Reason: "missing"}
	}
	date, err := parseTimestamp("date", record.Date)
	if err != nil {
		return Schedule{}, err
	}

	groups := make([]Group, 0, len(record.Groups))
	for _, group := range record.Groups {
		if strings.TrimSpace(group.ID) == "" {
			return Schedule{}, &DecodeError{Field: "groups.id", Reason: "missing"}
		}
		intervals := make([]Interval, 0, len(group.Intervals))
		for _, interval := range group.Intervals {
			decoded, err := decodeInterval(interval)
			if err != nil {
				return Schedule{}, err
			}
			intervals = append(intervals, decoded)
		}
		groups = append(groups, Group{ID: group.ID, Intervals: intervals})
	}

	return Schedule{
		ID:         record.ID,
		Date:       date,
		DateString: record.DateString,
		ImageURL:   record.ImageURL,
		Groups:     groups,
	}, nil
}

func decodeInterval(record intervalRecord) (Interval, error) {
	state := strings.ToLower(strings.TrimSpace(record.State))
	if state == "" {
		return Interval{}, &DecodeError{Field: "intervals.state", Reason: "missing"}
	}
	// Wire labels are PowerOn/PowerOff; map those to the canonical
	// tokens, anything else passes through lowercased.
	switch state {
	case "poweron":
		state = "on"
	case "poweroff":
		state = "off"
	}

	start, err := parseTimestamp("intervals.startTime", record.StartTime)
	if err != nil {
		return Interval{}, err
	}
	end, err := parseTimestamp("intervals.endTime", record.EndTime)
	if err != nil {
		return Interval{}, err
	}
	if end.Before(start) {
		return Interval{}, &DecodeError{Field: "intervals.endTime", Reason: "before startTime"}
	}
	return Interval{State: State(state), StartTime: start, EndTime: end}, nil
}

func parseTimestamp(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &DecodeError{Field: field, Reason: "missing"}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, &DecodeError{Field: field, Reason: fmt.Sprintf("unparseable timestamp %q", raw)}
}
