package schedule

import (
	"sort"
	"time"
)

// stalenessWindow is how far behind a query's reference point a snapshot's
// publication date may lag before queries ignore it.
const stalenessWindow = 48 * time.Hour

// EventAt returns the interval covering at for the given group. Snapshots
// are scanned newest-first and the most recent in-window snapshot answers
// alone: a coverage gap in it is reported as no event rather than falling
// through to older days. Absence is a normal outcome, not an error.
func (s *Store) EventAt(group string, at time.Time) (Interval, bool) {
	at = at.UTC()
	cutoff := at.Add(-stalenessWindow)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.snapshots) - 1; i >= 0; i-- {
		snapshot := s.snapshots[i]
		if snapshot.Date.Before(cutoff) {
			break
		}
		entry, ok := snapshot.Group(group)
		if ok {
			for _, interval := range entry.Intervals {
				if interval.Covers(at) {
					return interval, true
				}
			}
		}
		// The newest in-window snapshot's answer wins, matched or not.
		break
	}
	return Interval{}, false
}

// EventsBetween returns every interval of the group overlapping
// [start, end], collected across all in-window snapshots, ascending by
// start time, with adjacent same-state intervals merged. Daily snapshots
// split one continuous period at the day boundary; the merge removes that
// artifact.
func (s *Store) EventsBetween(group string, start, end time.Time) []Interval {
	start = start.UTC()
	end = end.UTC()
	cutoff := start.Add(-stalenessWindow)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var collected []Interval
	for i := len(s.snapshots) - 1; i >= 0; i-- {
		snapshot := s.snapshots[i]
		if snapshot.Date.Before(cutoff) {
			break
		}
		entry, ok := snapshot.Group(group)
		if !ok {
			continue
		}
		for _, interval := range entry.Intervals {
			if interval.Overlaps(start, end) {
				collected = append(collected, interval)
			}
		}
	}

	sort.SliceStable(collected, func(i, j int) bool {
		return collected[i].StartTime.Before(collected[j].StartTime)
	})
	return mergeAdjacent(collected)
}

func mergeAdjacent(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}
	merged := make([]Interval, 0, len(intervals))
	merged = append(merged, intervals[0])
	for _, next := range intervals[1:] {
		last := merged[len(merged)-1]
		if last.State == next.State && last.EndTime.Equal(next.StartTime) {
			merged[len(merged)-1] = Interval{
				State:     last.State,
				StartTime: last.StartTime,
				EndTime:   next.EndTime,
			}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}
