package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soundcue/soundcue/internal/model"
)

// runStopPass decides which schedules should stop playback this tick. It is
// stateless and read-only with respect to the store: a stop window spanning
// several ticks may issue the pause more than once, which the player API
// treats as idempotent.
func (e *Engine) runStopPass(ctx context.Context, now time.Time, schedules []model.Schedule) {
	// Sessions are cached per owner for the duration of the pass only.
	sessions := make(map[string]PlayerSession)

	for _, s := range schedules {
		if s.StopTimeLocal == nil || s.DeviceID == "" || s.Timezone == "" {
			continue
		}
		loc, err := s.Location()
		if err != nil {
			log.Warn().Err(err).Int("schedule_id", s.ID).Msg("skipping stop check")
			continue
		}
		if model.ClockTimeOf(now.In(loc)) != *s.StopTimeLocal {
			continue
		}

		log.Info().Int("schedule_id", s.ID).Str("stop_time", s.StopTimeLocal.String()).
			Str("timezone", s.Timezone).Msg("stop time matches; checking live playback")

		sess, ok := sessions[s.Owner]
		if !ok {
			sess, err = e.sessions.Session(ctx, s.Owner)
			if err != nil {
				if errors.Is(err, ErrSessionUnavailable) {
					log.Warn().Int("schedule_id", s.ID).Str("owner", s.Owner).
						Msg("no player session for stop check")
				} else {
					log.Error().Err(err).Int("schedule_id", s.ID).Msg("session acquisition failed")
				}
				continue
			}
			sessions[s.Owner] = sess
		}

		e.stopSchedule(ctx, sess, s, now)
	}
}

// stopSchedule reconciles the stop decision against live playback state and
// pauses only when the state actually belongs to this schedule.
func (e *Engine) stopSchedule(ctx context.Context, sess PlayerSession, s model.Schedule, now time.Time) {
	state, err := sess.LiveState(ctx)
	if err != nil {
		log.Warn().Err(err).Int("schedule_id", s.ID).Msg("could not read live playback state")
		return
	}

	if !shouldPause(state, s) {
		return
	}

	if err := sess.Pause(ctx, s.DeviceID); err != nil {
		log.Warn().Err(err).Int("schedule_id", s.ID).Str("device", s.DeviceID).
			Msg("pause command failed")
		return
	}
	log.Info().Int("schedule_id", s.ID).Str("device", s.DeviceID).Msg("playback paused")

	if e.notifier != nil {
		e.notifier.ScheduleStopped(s, now)
	}
}

// shouldPause holds only when playback is active on the schedule's target
// device and the playing context matches the schedule's playlist. A single
// track playing with no context at all is accepted on device match alone.
func shouldPause(state *model.PlayerState, s model.Schedule) bool {
	if state == nil || !state.IsPlaying {
		log.Debug().Int("schedule_id", s.ID).Msg("skipping pause: no active playback")
		return false
	}
	if state.DeviceID != s.DeviceID {
		log.Debug().Int("schedule_id", s.ID).Str("active_device", state.DeviceID).
			Msg("skipping pause: playback active on a different device")
		return false
	}
	if state.ContextURI == s.PlaylistURI {
		return true
	}
	if state.ContextURI == "" && state.CurrentItem != "" {
		log.Warn().Int("schedule_id", s.ID).
			Msg("pausing on device match alone: single track playing with no context")
		return true
	}
	log.Debug().Int("schedule_id", s.ID).Str("playing_context", state.ContextURI).
		Str("scheduled_context", s.PlaylistURI).
		Msg("skipping pause: playback context does not match")
	return false
}
