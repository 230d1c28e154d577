package schedule

import (
	"errors"
	"testing"
	"time"
)

const sampleSchedule = `{
	"id": "abc123",
	"date": "2024-05-01T00:00:00+03:00",
	"dateString": "2024-05-01",
	"imageUrl": "https://example.test/schedule.png",
	"groups": [
		{
			"id": "1.1",
			"intervals": [
				{"state": "PowerOff", "startTime": "2024-05-01T00:00:00+03:00", "endTime": "2024-05-01T06:00:00+03:00"},
				{"state": "PowerOn", "startTime": "2024-05-01T06:00:00+03:00", "endTime": "2024-05-02T00:00:00+03:00"}
			]
		}
	]
}`

func TestDecodeScheduleNormalizesToUTC(t *testing.T) {
	decoded, err := DecodeSchedule([]byte(sampleSchedule))
	if err != nil {
		t.Fatalf("DecodeSchedule() error: %v", err)
	}
	if decoded.ID != "abc123" {
		t.Fatalf("ID = %q, want %q", decoded.ID, "abc123")
	}
	if decoded.DateString != "2024-05-01" {
		t.Fatalf("DateString = %q, want %q", decoded.DateString, "2024-05-01")
	}
	wantDate := time.Date(2024, 4, 30, 21, 0, 0, 0, time.UTC)
	if !decoded.Date.Equal(wantDate) {
		t.Fatalf("Date = %v, want %v", decoded.Date, wantDate)
	}
	if decoded.Date.Location() != time.UTC {
		t.Fatalf("Date location = %v, want UTC", decoded.Date.Location())
	}

	group, ok := decoded.Group("1.1")
	if !ok {
		t.Fatalf("group 1.1 missing")
	}
	if len(group.Intervals) != 2 {
		t.Fatalf("intervals = %d, want 2", len(group.Intervals))
	}
	if group.Intervals[0].State != StateOff {
		t.Fatalf("first state = %q, want %q", group.Intervals[0].State, StateOff)
	}
	if group.Intervals[1].State != StateOn {
		t.Fatalf("second state = %q, want %q", group.Intervals[1].State, StateOn)
	}
	wantStart := time.Date(2024, 4, 30, 21, 0, 0, 0, time.UTC)
	if !group.Intervals[0].StartTime.Equal(wantStart) {
		t.Fatalf("first start = %v, want %v", group.Intervals[0].StartTime, wantStart)
	}
}

func TestDecodeScheduleKeepsUnknownStateLowercased(t *testing.T) {
	decoded, err := DecodeSchedule([]byte(`{
		"id": "x",
		"date": "2024-05-01T00:00:00Z",
		"dateString": "2024-05-01",
		"imageUrl": "",
		"groups": [{"id": "2.2", "intervals": [
			{"state": "Maybe", "startTime": "2024-05-01T00:00:00Z", "endTime": "2024-05-01T01:00:00Z"}
		]}]
	}`))
	if err != nil {
		t.Fatalf("DecodeSchedule() error: %v", err)
	}
	group, _ := decoded.Group("2.2")
	if got := group.Intervals[0].State; got != State("maybe") {
		t.Fatalf("state = %q, want %q", got, "maybe")
	}
}

func TestDecodeSchedulePassesThroughPowerPrefixedStates(t *testing.T) {
	decoded, err := DecodeSchedule([]byte(`{
		"id": "x",
		"date": "2024-05-01T00:00:00Z",
		"dateString": "2024-05-01",
		"imageUrl": "",
		"groups": [{"id": "2.2", "intervals": [
			{"state": "PowerSave", "startTime": "2024-05-01T00:00:00Z", "endTime": "2024-05-01T01:00:00Z"}
		]}]
	}`))
	if err != nil {
		t.Fatalf("DecodeSchedule() error: %v", err)
	}
	group, _ := decoded.Group("2.2")
	if got := group.Intervals[0].State; got != State("powersave") {
		t.Fatalf("state = %q, want %q", got, "powersave")
	}
}

func TestDecodeScheduleRejectsBadTimestamp(t *testing.T) {
	_, err := DecodeSchedule([]byte(`{
		"id": "x",
		"date": "2024-05-01T00:00:00Z",
		"dateString": "2024-05-01",
		"groups": [{"id": "1.1", "intervals": [
			{"state": "PowerOff", "startTime": "not-a-time", "endTime": "2024-05-01T01:00:00Z"}
		]}]
	}`))
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Field != "intervals.startTime" {
		t.Fatalf("field = %q, want intervals.startTime", decodeErr.Field)
	}
}

func TestDecodeScheduleRejectsMissingFields(t *testing.T) {
	cases := map[string]string{
		"id":         `{"date": "2024-05-01T00:00:00Z", "dateString": "2024-05-01"}`,
		"dateString": `{"id": "x", "date": "2024-05-01T00:00:00Z"}`,
		"date":       `{"id": "x", "dateString": "2024-05-01"}`,
	}
	for field, payload := range cases {
		_, err := DecodeSchedule([]byte(payload))
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			t.Fatalf("%s: expected DecodeError, got %v", field, err)
		}
		if decodeErr.Field != field {
			t.Fatalf("field = %q, want %q", decodeErr.Field, field)
		}
	}
}

func TestDecodeSchedulesPreservesInputOrder(t *testing.T) {
	decoded, err := DecodeSchedules([]byte(`[
		{"id": "b", "date": "2024-05-02T00:00:00Z", "dateString": "2024-05-02", "groups": []},
		{"id": "a", "date": "2024-05-01T00:00:00Z", "dateString": "2024-05-01", "groups": []}
	]`))
	if err != nil {
		t.Fatalf("DecodeSchedules() error: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("len = %d, want 2", len(decoded))
	}
	if decoded[0].ID != "b" || decoded[1].ID != "a" {
		t.Fatalf("order = %q,%q, want b,a", decoded[0].ID, decoded[1].ID)
	}
}

func TestDecodeSchedulesFailsWholesale(t *testing.T) {
	_, err := DecodeSchedules([]byte(`[
		{"id": "a", "date": "2024-05-01T00:00:00Z", "dateString": "2024-05-01", "groups": []},
		{"id": "b", "date": "garbage", "dateString": "2024-05-02", "groups": []}
	]`))
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}
