package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Jurkash/ha-loe-outages/internal/loeapi"
	"github.com/Jurkash/ha-loe-outages/internal/optsync"
	"github.com/Jurkash/ha-loe-outages/internal/schedule"
	"github.com/Jurkash/ha-loe-outages/internal/storage"
)

// lookaheadWindow is how far ahead the next-event sensors search.
const lookaheadWindow = 24 * time.Hour

// ScheduleClient is the slice of the outage API the service needs.
type ScheduleClient interface {
	FetchHistory(ctx context.Context) ([]schedule.Schedule, error)
	FetchLatest(ctx context.Context) (schedule.Schedule, error)
}

type Service struct {
	store   *schedule.Store
	client  ScheduleClient
	journal *storage.Repository
	options *optsync.Manager
	logger  *slog.Logger
}

func New(store *schedule.Store, client ScheduleClient, journal *storage.Repository, options *optsync.Manager, logger *slog.Logger) *Service {
	return &Service{store: store, client: client, journal: journal, options: options, logger: logger}
}

// RefreshOnce runs one refresh cycle: a full historical fetch while the
// store is empty, an incremental latest fetch afterwards. Any transport or
// decode failure aborts the cycle with the store untouched; the next tick
// retries.
func (s *Service) RefreshOnce(ctx context.Context) error {
	var err error
	if s.store.Len() == 0 {
		err = s.refreshHistory(ctx)
	} else {
		err = s.refreshLatest(ctx)
	}
	s.recordOutcome(ctx, err)
	return err
}

func (s *Service) refreshHistory(ctx context.Context) error {
	snapshots, err := s.client.FetchHistory(ctx)
	if err != nil {
		return err
	}
	if err := s.store.Init(snapshots); err != nil {
		return err
	}
	s.logger.Info("schedule history loaded", "snapshots", len(snapshots))
	return nil
}

func (s *Service) refreshLatest(ctx context.Context) error {
	snapshot, err := s.client.FetchLatest(ctx)
	if err != nil {
		return err
	}
	if err := s.store.UpsertLatest(snapshot); err != nil {
		return err
	}
	s.logger.Debug("latest schedule reconciled", "dateString", snapshot.DateString)
	return nil
}

func (s *Service) recordOutcome(ctx context.Context, refreshErr error) {
	if s.journal == nil {
		return
	}
	entry := storage.RefreshEntry{
		At:            time.Now().UTC(),
		Outcome:       outcomeFor(refreshErr),
		SnapshotCount: s.store.Len(),
	}
	if refreshErr != nil {
		entry.Detail = refreshErr.Error()
	}
	if latest, ok := s.store.Latest(); ok {
		entry.LatestDateString = latest.DateString
	}
	if err := s.journal.RecordRefresh(ctx, entry); err != nil {
		s.logger.Warn("refresh journal write failed", "err", err)
	}
}

func outcomeFor(err error) string {
	if err == nil {
		return storage.OutcomeOK
	}
	var transportErr *loeapi.TransportError
	if errors.As(err, &transportErr) {
		return storage.OutcomeTransportError
	}
	var decodeErr *schedule.DecodeError
	if errors.As(err, &decodeErr) {
		return storage.OutcomeDecodeError
	}
	return storage.OutcomeError
}

// Group returns the configured consumer group.
func (s *Service) Group() string {
	return s.options.Group()
}

// Initialized reports whether the first full fetch has populated the store.
func (s *Service) Initialized() bool {
	return s.store.Len() > 0
}

// SnapshotCount reports the number of reconciled snapshots.
func (s *Service) SnapshotCount() int {
	return s.store.Len()
}

// EventAt returns the interval covering at for the configured group.
func (s *Service) EventAt(at time.Time) (schedule.Interval, bool) {
	return s.store.EventAt(s.Group(), at)
}

// EventsBetween returns merged intervals of the configured group
// overlapping [start, end].
func (s *Service) EventsBetween(start, end time.Time) []schedule.Interval {
	return s.store.EventsBetween(s.Group(), start, end)
}

// CurrentState reports "on" or "off" at now. No covering event means the
// power is assumed available: absence of data never alarms.
func (s *Service) CurrentState(now time.Time) schedule.State {
	event, ok := s.EventAt(now)
	if ok && event.State == schedule.StateOff {
		return schedule.StateOff
	}
	return schedule.StateOn
}

// NextOutage returns the start of the next scheduled outage within the
// lookahead window.
func (s *Service) NextOutage(now time.Time) (time.Time, bool) {
	return s.nextEventStart(now, schedule.StateOff)
}

// NextConnectivity returns when power is next expected. During an outage
// that is the outage's end; otherwise the start of the next explicit
// on-period, if any.
func (s *Service) NextConnectivity(now time.Time) (time.Time, bool) {
	if event, ok := s.EventAt(now); ok && event.State == schedule.StateOff {
		return event.EndTime, true
	}
	return s.nextEventStart(now, schedule.StateOn)
}

func (s *Service) nextEventStart(now time.Time, state schedule.State) (time.Time, bool) {
	now = now.UTC()
	for _, event := range s.EventsBetween(now, now.Add(lookaheadWindow)) {
		if event.State == state && event.StartTime.After(now) {
			return event.StartTime, true
		}
	}
	return time.Time{}, false
}
