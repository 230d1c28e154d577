package schedule

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNotInitialized is returned when an incremental upsert arrives
	// before the store was ever populated.
	ErrNotInitialized = errors.New("schedule store not initialized")
	// ErrAlreadyInitialized is returned when Init is called on a
	// populated store.
	ErrAlreadyInitialized = errors.New("schedule store already initialized")
)

// retainWindow bounds store growth: snapshots this much older than the
// newest incoming one are dropped during reconciliation. It stays well
// clear of the 2-day query staleness window.
const retainWindow = 7 * 24 * time.Hour

// Store holds the reconciled timeline of daily schedules, ascending by
// Date, at most one per DateString. Reconciliation replaces the backing
// slice as a whole so readers never observe a half-applied upsert.
type Store struct {
	mu        sync.RWMutex
	snapshots []Schedule
}

func NewStore() *Store {
	return &Store{}
}

// Init adopts the full historical schedule set. Valid only while the store
// is empty. The bulk history may carry several revisions of the same day;
// the latest-dated revision wins, as in UpsertLatest, and days older than
// the retain window relative to the newest snapshot are dropped.
func (s *Store) Init(snapshots []Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.snapshots) > 0 {
		return ErrAlreadyInitialized
	}
	sorted := make([]Schedule, len(snapshots))
	copy(sorted, snapshots)
	sortByDate(sorted)

	next := make([]Schedule, 0, len(sorted))
	if len(sorted) > 0 {
		cutoff := sorted[len(sorted)-1].Date.Add(-retainWindow)
		seen := make(map[string]struct{}, len(sorted))
		// Walk newest-first so the latest revision of a day wins.
		for i := len(sorted) - 1; i >= 0; i-- {
			snapshot := sorted[i]
			if snapshot.Date.Before(cutoff) {
				break
			}
			if _, ok := seen[snapshot.DateString]; ok {
				continue
			}
			seen[snapshot.DateString] = struct{}{}
			next = append(next, snapshot)
		}
		for i, j := 0, len(next)-1; i < j; i, j = i+1, j-1 {
			next[i], next[j] = next[j], next[i]
		}
	}
	s.snapshots = next
	return nil
}

// UpsertLatest reconciles one freshly published schedule into the store:
// any entry with the same DateString is replaced wholesale, entries older
// than the retain window are dropped, and chronological order is restored
// by a full re-sort since the source occasionally republishes out of order.
func (s *Store) UpsertLatest(snapshot Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.snapshots) == 0 {
		return ErrNotInitialized
	}
	cutoff := snapshot.Date.Add(-retainWindow)
	next := make([]Schedule, 0, len(s.snapshots)+1)
	for _, existing := range s.snapshots {
		if existing.DateString == snapshot.DateString {
			continue
		}
		if existing.Date.Before(cutoff) {
			continue
		}
		next = append(next, existing)
	}
	next = append(next, snapshot)
	sortByDate(next)
	s.snapshots = next
	return nil
}

// Len reports the number of stored snapshots.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

// Latest returns the most recently dated snapshot.
func (s *Store) Latest() (Schedule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.snapshots) == 0 {
		return Schedule{}, false
	}
	return s.snapshots[len(s.snapshots)-1], true
}

// Snapshots returns a copy of the stored timeline, ascending by date.
func (s *Store) Snapshots() []Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Schedule, len(s.snapshots))
	copy(out, s.snapshots)
	return out
}

func sortByDate(snapshots []Schedule) {
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Date.Before(snapshots[j].Date)
	})
}
