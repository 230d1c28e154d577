package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Jurkash/ha-loe-outages/internal/poller"
	"github.com/Jurkash/ha-loe-outages/internal/schedule"
	"github.com/Jurkash/ha-loe-outages/internal/service"
	"github.com/Jurkash/ha-loe-outages/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

type API struct {
	service *service.Service
	poller  *poller.Poller
	journal *storage.Repository
	logger  *slog.Logger
}

func New(svc *service.Service, p *poller.Poller, journal *storage.Repository, logger *slog.Logger) *API {
	return &API{service: svc, poller: p, journal: journal, logger: logger}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(20 * time.Second))
	r.Use(stripIngressPrefix)

	r.Get("/healthz", a.health)
	r.Route("/api", func(api chi.Router) {
		api.Get("/state", a.state)
		api.Get("/events", a.events)
		api.Get("/calendar", a.calendar)
		api.Get("/calendar/current", a.calendarCurrent)
		api.Get("/history", a.history)
		api.Post("/refresh", a.refresh)
	})
	return r
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"initialized": a.service.Initialized(),
		"snapshots":   a.service.SnapshotCount(),
	})
}

func (a *API) state(w http.ResponseWriter, _ *http.Request) {
	now := time.Now().UTC()
	payload := map[string]any{
		"group": a.service.Group(),
		"state": a.service.CurrentState(now),
	}
	if next, ok := a.service.NextOutage(now); ok {
		payload["next_outage"] = next
	}
	if next, ok := a.service.NextConnectivity(now); ok {
		payload["next_connectivity"] = next
	}
	writeJSON(w, http.StatusOK, payload)
}

func (a *API) events(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseRange(w, r)
	if !ok {
		return
	}
	events := a.service.EventsBetween(start, end)
	writeJSON(w, http.StatusOK, map[string]any{"items": toEventItems(events)})
}

func (a *API) calendar(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseRange(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": a.service.CalendarEvents(start, end)})
}

func (a *API) calendarCurrent(w http.ResponseWriter, _ *http.Request) {
	event, ok := a.service.CurrentCalendarEvent(time.Now().UTC())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"event": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": event})
}

func (a *API) history(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = value
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	entries, err := a.journal.RecentRefreshes(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}

func (a *API) refresh(w http.ResponseWriter, _ *http.Request) {
	a.poller.TriggerRefresh()
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

type eventItem struct {
	State string    `json:"state"`
	Start time.Time `json:"startTime"`
	End   time.Time `json:"endTime"`
}

func toEventItems(intervals []schedule.Interval) []eventItem {
	items := make([]eventItem, 0, len(intervals))
	for _, interval := range intervals {
		items = append(items, eventItem{
			State: string(interval.State),
			Start: interval.StartTime,
			End:   interval.EndTime,
		})
	}
	return items
}

func parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_start", "start must be an RFC3339 timestamp")
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_end", "end must be an RFC3339 timestamp")
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "invalid_range", "end must not be before start")
		return time.Time{}, time.Time{}, false
	}
	return start.UTC(), end.UTC(), true
}

func stripIngressPrefix(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefix := strings.TrimSpace(r.Header.Get("X-Ingress-Path"))
		if prefix != "" && strings.HasPrefix(r.URL.Path, prefix) {
			r.URL.Path = strings.TrimPrefix(r.URL.Path, prefix)
			if r.URL.Path == "" {
				r.URL.Path = "/"
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

func RunServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", "err", err)
			return err
		}
		return nil
	}
}
