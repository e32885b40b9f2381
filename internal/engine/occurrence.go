package engine

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soundcue/soundcue/internal/model"
)

// lookaheadDays bounds the occurrence search to today plus one full week,
// which covers every weekly recurrence pattern.
const lookaheadDays = 8

// NextOccurrence returns the earliest future instant (UTC) at which the
// schedule's local start time next falls on a scheduled day, or false if no
// such instant exists within the lookahead window. It is pure: no I/O, no
// side effects beyond logging malformed records.
func NextOccurrence(s model.Schedule, now time.Time) (time.Time, bool) {
	if !s.Active {
		return time.Time{}, false
	}
	if s.OneShot() && s.OneShotTriggered {
		return time.Time{}, false
	}
	loc, err := s.Location()
	if err != nil {
		log.Warn().Err(err).Int("schedule_id", s.ID).Msg("cannot compute next occurrence")
		return time.Time{}, false
	}

	nowLocal := now.In(loc)
	y, m, d := nowLocal.Date()

	for i := 0; i < lookaheadDays; i++ {
		candidate, err := resolveLocal(y, m, d+i, s.StartTimeLocal, loc)
		if err != nil {
			// Spring-forward gap or fall-back overlap: never fire on an
			// invalid or duplicated local instant, try the next date.
			log.Debug().Err(err).
				Int("schedule_id", s.ID).
				Str("start_time", s.StartTimeLocal.String()).
				Msg("skipping DST-affected candidate date")
			continue
		}

		if s.OneShot() {
			// One-shot schedules are never projected past "today" (local).
			cy, cm, cd := candidate.Date()
			if cy != nowLocal.Year() || cm != nowLocal.Month() || cd != nowLocal.Day() {
				continue
			}
		} else if !s.DaysOfWeek.Contains(candidate.Weekday()) {
			continue
		}

		if utc := candidate.UTC(); utc.After(now) {
			return utc, true
		}
	}
	return time.Time{}, false
}

// resolveLocal combines a calendar date with a wall-clock time in loc and
// rejects values distorted by a DST transition. time.Date normalizes a
// nonexistent wall time onto a neighboring hour, so a round-trip mismatch
// exposes the spring-forward gap; the same wall clock recurring one hour
// away exposes the fall-back overlap.
func resolveLocal(year int, month time.Month, day int, ct model.ClockTime, loc *time.Location) (time.Time, error) {
	t := time.Date(year, month, day, ct.Hour, ct.Minute, 0, 0, loc)
	// Normalized date the candidate was meant to land on (day may overflow
	// the month during iteration).
	want := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Hour() != ct.Hour || t.Minute() != ct.Minute ||
		t.Day() != want.Day() || t.Month() != want.Month() || t.Year() != want.Year() {
		return time.Time{}, ErrNonexistentTime
	}
	for _, shift := range []time.Duration{-time.Hour, time.Hour} {
		u := t.Add(shift)
		if u.Year() == t.Year() && u.Month() == t.Month() && u.Day() == t.Day() &&
			u.Hour() == ct.Hour && u.Minute() == ct.Minute {
			return time.Time{}, ErrAmbiguousTime
		}
	}
	return t, nil
}
