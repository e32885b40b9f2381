package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soundcue/soundcue/internal/model"
)

// runStartPass decides which schedules are due to start this tick and runs
// the start sequence for each. Trigger bookkeeping is persisted only after
// the start command itself succeeds, so a failed attempt is retried on the
// next tick landing in the same minute and abandoned once the minute rolls
// over.
func (e *Engine) runStartPass(ctx context.Context, now time.Time, schedules []model.Schedule) {
	var due []model.Schedule
	for _, s := range schedules {
		ok, err := dueToStart(s, now)
		if err != nil {
			log.Warn().Err(err).Int("schedule_id", s.ID).Msg("skipping malformed schedule")
			continue
		}
		if ok {
			log.Info().Int("schedule_id", s.ID).Str("owner", s.Owner).Msg("schedule due to start")
			due = append(due, s)
		}
	}
	if len(due) == 0 {
		log.Debug().Msg("no schedules due to start this tick")
		return
	}

	for _, s := range due {
		e.startSchedule(ctx, s)
	}
}

// dueToStart applies the minute-equality, day-membership and
// duplicate-fire tests. The minute test is deliberately an equality check
// against the current local minute, not the forward search in
// NextOccurrence: this is what drives real-time firing during polling.
func dueToStart(s model.Schedule, now time.Time) (bool, error) {
	loc, err := s.Location()
	if err != nil {
		return false, &DataError{ScheduleID: s.ID, Reason: err.Error()}
	}
	nowLocal := now.In(loc)

	if model.ClockTimeOf(nowLocal) != s.StartTimeLocal {
		return false, nil
	}

	if s.OneShot() {
		if s.OneShotTriggered {
			return false, nil
		}
	} else if !s.DaysOfWeek.Contains(nowLocal.Weekday()) {
		return false, nil
	}

	// Duplicate-fire guard: a previous trigger at or after the start of the
	// current local minute means a second tick landed in the same minute.
	if s.LastTriggeredUTC != nil {
		minuteStart := time.Date(
			nowLocal.Year(), nowLocal.Month(), nowLocal.Day(),
			nowLocal.Hour(), nowLocal.Minute(), 0, 0, loc,
		).UTC()
		if !s.LastTriggeredUTC.Before(minuteStart) {
			log.Debug().Int("schedule_id", s.ID).Msg("already triggered this minute")
			return false, nil
		}
	}
	return true, nil
}

// startSchedule runs the strictly ordered start sequence for one due
// schedule: volume, start, settle, shuffle, settle, verify. Only the start
// call is fatal to the attempt.
func (e *Engine) startSchedule(ctx context.Context, s model.Schedule) {
	sess, err := e.sessions.Session(ctx, s.Owner)
	if err != nil {
		if errors.Is(err, ErrSessionUnavailable) {
			log.Warn().Int("schedule_id", s.ID).Str("owner", s.Owner).
				Msg("no player session; schedule will retry next tick")
		} else {
			log.Error().Err(err).Int("schedule_id", s.ID).Msg("session acquisition failed")
		}
		return
	}

	if err := e.performStart(ctx, sess, s); err != nil {
		log.Error().Err(err).Int("schedule_id", s.ID).
			Str("playlist", s.PlaylistURI).Str("device", s.DeviceID).
			Msg("start playback failed; trigger state untouched")
		return
	}

	firedAt := e.clock.Now().UTC()
	log.Info().Int("schedule_id", s.ID).Time("fired_at", firedAt).Msg("playback started")

	if err := e.store.RecordStart(ctx, s.ID, firedAt, s.OneShot()); err != nil {
		log.Error().Err(err).Int("schedule_id", s.ID).Msg("failed to persist trigger bookkeeping")
	}
	if e.notifier != nil {
		e.notifier.ScheduleStarted(s, firedAt)
	}

	e.applyShuffle(ctx, sess, s)
}

// performStart sets volume (best effort) and issues the start command.
// A missing device aborts outright, since the start call would fail the
// same way.
func (e *Engine) performStart(ctx context.Context, sess PlayerSession, s model.Schedule) error {
	if s.Volume != nil {
		if err := sess.SetVolume(ctx, *s.Volume, s.DeviceID); err != nil {
			if errors.Is(err, ErrDeviceNotFound) {
				return err
			}
			// Volume is best effort: playback still starts without it.
			log.Warn().Err(err).Int("schedule_id", s.ID).Msg("could not set volume")
		} else {
			e.clock.Sleep(ctx, e.settle.AfterVolume)
		}
	}

	// Shuffle off must play deterministically from the first track, so the
	// start call pins the position; shuffle on leaves it to the player.
	return sess.Start(ctx, s.DeviceID, s.PlaylistURI, !s.Shuffle)
}

// PlayNow runs the start sequence for a schedule immediately, outside the
// poll cycle. Trigger bookkeeping is deliberately not touched: a manual
// play is not a trigger.
func (e *Engine) PlayNow(ctx context.Context, s model.Schedule) error {
	sess, err := e.sessions.Session(ctx, s.Owner)
	if err != nil {
		return err
	}
	if err := e.performStart(ctx, sess, s); err != nil {
		return err
	}
	e.applyShuffle(ctx, sess, s)
	return nil
}

// applyShuffle brings the device into the requested shuffle state after a
// settle window, then reads live state back once. A mismatch is logged and
// never retried.
func (e *Engine) applyShuffle(ctx context.Context, sess PlayerSession, s model.Schedule) {
	e.clock.Sleep(ctx, e.settle.AfterStart)

	if err := sess.SetShuffle(ctx, s.Shuffle, s.DeviceID); err != nil {
		log.Warn().Err(err).Int("schedule_id", s.ID).Bool("shuffle", s.Shuffle).
			Msg("could not set shuffle state")
		return
	}

	e.clock.Sleep(ctx, e.settle.BeforeVerify)
	state, err := sess.LiveState(ctx)
	if err != nil {
		log.Warn().Err(err).Int("schedule_id", s.ID).Msg("could not verify shuffle state")
		return
	}
	if state != nil && state.DeviceID == s.DeviceID && state.ShuffleState != s.Shuffle {
		log.Warn().Int("schedule_id", s.ID).
			Bool("expected", s.Shuffle).Bool("reported", state.ShuffleState).
			Msg("shuffle state mismatch after set")
	}
}
