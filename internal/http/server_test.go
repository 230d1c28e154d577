package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Jurkash/ha-loe-outages/internal/optsync"
	"github.com/Jurkash/ha-loe-outages/internal/poller"
	"github.com/Jurkash/ha-loe-outages/internal/schedule"
	"github.com/Jurkash/ha-loe-outages/internal/service"
	"github.com/Jurkash/ha-loe-outages/internal/storage"
)

type fakeClient struct {
	history []schedule.Schedule
	latest  schedule.Schedule
}

func (f *fakeClient) FetchHistory(_ context.Context) ([]schedule.Schedule, error) {
	return f.history, nil
}

func (f *fakeClient) FetchLatest(_ context.Context) (schedule.Schedule, error) {
	return f.latest, nil
}

func newTestAPI(t *testing.T, client service.ScheduleClient) (*API, *service.Service, *storage.Repository) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	journal, err := storage.New(ctx, filepath.Join(t.TempDir(), "journal.db"), logger)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = journal.Close() })

	store := schedule.NewStore()
	opts := optsync.NewManager(optsync.NewClient(filepath.Join(t.TempDir(), "missing.json")), logger)
	svc := service.New(store, client, journal, opts, logger)
	p := poller.New(svc, time.Minute, logger)
	return New(svc, p, journal, logger), svc, journal
}

func outageDay(date time.Time, start, end time.Time) schedule.Schedule {
	return schedule.Schedule{
		ID:         "s-" + date.Format("2006-01-02"),
		Date:       date,
		DateString: date.Format("2006-01-02"),
		Groups: []schedule.Group{{
			ID:        "1.1",
			Intervals: []schedule.Interval{{State: schedule.StateOff, StartTime: start, EndTime: end}},
		}},
	}
}

func TestHealthReflectsInitialization(t *testing.T) {
	now := time.Now().UTC()
	client := &fakeClient{history: []schedule.Schedule{
		outageDay(now, now.Add(-time.Hour), now.Add(time.Hour)),
	}}
	api, svc, _ := newTestAPI(t, client)
	handler := api.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Status      string `json:"status"`
		Initialized bool   `json:"initialized"`
		Snapshots   int    `json:"snapshots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Initialized {
		t.Fatalf("initialized = true before first refresh")
	}

	if err := svc.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("RefreshOnce() error: %v", err)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Initialized || body.Snapshots != 1 {
		t.Fatalf("initialized/snapshots = %v/%d, want true/1", body.Initialized, body.Snapshots)
	}
}

func TestStateDuringOutage(t *testing.T) {
	now := time.Now().UTC()
	client := &fakeClient{history: []schedule.Schedule{
		outageDay(now, now.Add(-time.Hour), now.Add(time.Hour)),
	}}
	api, svc, _ := newTestAPI(t, client)
	if err := svc.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("RefreshOnce() error: %v", err)
	}

	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Group            string     `json:"group"`
		State            string     `json:"state"`
		NextConnectivity *time.Time `json:"next_connectivity"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Group != "1.1" {
		t.Fatalf("group = %q, want 1.1", body.Group)
	}
	if body.State != "off" {
		t.Fatalf("state = %q, want off", body.State)
	}
	if body.NextConnectivity == nil {
		t.Fatalf("next_connectivity missing during outage")
	}
}

func TestEventsEndpoint(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Hour)
	client := &fakeClient{history: []schedule.Schedule{
		outageDay(now, now.Add(-time.Hour), now.Add(time.Hour)),
	}}
	api, svc, _ := newTestAPI(t, client)
	if err := svc.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("RefreshOnce() error: %v", err)
	}

	url := "/api/events?start=" + now.Add(-2*time.Hour).Format(time.RFC3339) +
		"&end=" + now.Add(2*time.Hour).Format(time.RFC3339)
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Items []struct {
			State string    `json:"state"`
			Start time.Time `json:"startTime"`
			End   time.Time `json:"endTime"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(body.Items))
	}
	if body.Items[0].State != "off" {
		t.Fatalf("state = %q, want off", body.Items[0].State)
	}
}

func TestEventsEndpointRejectsBadRange(t *testing.T) {
	api, _, _ := newTestAPI(t, &fakeClient{})

	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events?start=yesterday&end=tomorrow", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	url := "/api/events?start=2024-05-02T00:00:00Z&end=2024-05-01T00:00:00Z"
	rec = httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d for inverted range, want 400", rec.Code)
	}
}

func TestRefreshEndpointAccepted(t *testing.T) {
	api, _, _ := newTestAPI(t, &fakeClient{})

	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	api, _, journal := newTestAPI(t, &fakeClient{})
	entry := storage.RefreshEntry{
		At:            time.Now().UTC(),
		Outcome:       storage.OutcomeOK,
		SnapshotCount: 2,
	}
	if err := journal.RecordRefresh(context.Background(), entry); err != nil {
		t.Fatalf("RecordRefresh() error: %v", err)
	}

	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Items []storage.RefreshEntry `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Items) != 1 || body.Items[0].Outcome != storage.OutcomeOK {
		t.Fatalf("items = %+v, want one ok entry", body.Items)
	}

	rec = httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history?limit=0", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d for limit=0, want 400", rec.Code)
	}
}
