package duration

import (
	"sort"
	"time"

	"github.com/rgeorgiev/clockin/internal/models"
)

// Elapsed computes the total active time recorded by a session's event log.
//
// Events are walked in timestamp order, with the append sequence breaking
// ties between equal timestamps: a start or resume opens an active
// interval, a pause or stop closes it. If the last interval is still open
// after the final event, it is closed at ref. Orphan pause/stop events
// contribute nothing, and a start/resume while an interval is already open
// simply moves the interval's beginning; malformed logs degrade to a
// best-effort total instead of failing a stats read.
func Elapsed(events []*models.SessionEvent, ref time.Time) time.Duration {
	if len(events) == 0 {
		return 0
	}

	ordered := make([]*models.SessionEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Timestamp.Equal(ordered[j].Timestamp) {
			return ordered[i].Seq < ordered[j].Seq
		}
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var total time.Duration
	var activeSince time.Time
	active := false

	for _, event := range ordered {
		switch event.Type {
		case models.EventTypeStart, models.EventTypeResume:
			activeSince = event.Timestamp
			active = true
		case models.EventTypePause, models.EventTypeStop:
			if active {
				total += clamp(event.Timestamp.Sub(activeSince))
				active = false
			}
		}
	}

	// Session is still running; close the open interval at the reference time.
	if active {
		total += clamp(ref.Sub(activeSince))
	}

	return total
}

// LastEventTime returns the latest timestamp in the event log, and false
// when the log is empty.
func LastEventTime(events []*models.SessionEvent) (time.Time, bool) {
	var last time.Time
	found := false
	for _, event := range events {
		if !found || event.Timestamp.After(last) {
			last = event.Timestamp
			found = true
		}
	}
	return last, found
}

// clamp guards against clock skew producing a negative interval
func clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
