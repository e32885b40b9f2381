package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soundcue/soundcue/internal/model"
)

// ScheduleStore is the engine's view of schedule persistence. Reads happen
// every tick; the only write is the trigger bookkeeping applied after a
// confirmed successful start.
type ScheduleStore interface {
	GetActiveSchedules(ctx context.Context) ([]model.Schedule, error)
	RecordStart(ctx context.Context, scheduleID int, firedAt time.Time, markOneShotDone bool) error
}

// SessionSource produces an authenticated player session for an owner.
// Returns ErrSessionUnavailable when no valid credential exists.
type SessionSource interface {
	Session(ctx context.Context, owner string) (PlayerSession, error)
}

// PlayerSession is an authenticated handle onto one account's playback.
// Every call is an independently failable network round trip.
type PlayerSession interface {
	Start(ctx context.Context, deviceID, playlistURI string, startAtFirstTrack bool) error
	SetVolume(ctx context.Context, percent int, deviceID string) error
	SetShuffle(ctx context.Context, enabled bool, deviceID string) error
	LiveState(ctx context.Context) (*model.PlayerState, error)
	Pause(ctx context.Context, deviceID string) error
}

// Notifier receives engine events after playback actions succeed. Failures
// inside a notifier must never affect the tick.
type Notifier interface {
	ScheduleStarted(s model.Schedule, at time.Time)
	ScheduleStopped(s model.Schedule, at time.Time)
}

// SettleDelays are the mandatory pauses between dependent player calls.
// The player API applies volume, playback and shuffle eventually rather
// than atomically, so the ordering and minimum delays are part of the
// contract with it.
type SettleDelays struct {
	AfterVolume  time.Duration
	AfterStart   time.Duration
	BeforeVerify time.Duration
}

// DefaultSettleDelays matches the delays the player API has been observed
// to need.
func DefaultSettleDelays() SettleDelays {
	return SettleDelays{
		AfterVolume:  500 * time.Millisecond,
		AfterStart:   1500 * time.Millisecond,
		BeforeVerify: 500 * time.Millisecond,
	}
}

// Engine runs the per-tick start and stop decision passes over the active
// schedule set. It holds no cross-schedule mutable state; each schedule is
// judged independently per tick.
type Engine struct {
	store    ScheduleStore
	sessions SessionSource
	notifier Notifier
	clock    Clock
	settle   SettleDelays
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock substitutes the wall clock, for deterministic tests.
func WithClock(c Clock) Option { return func(e *Engine) { e.clock = c } }

// WithNotifier attaches an event notifier.
func WithNotifier(n Notifier) Option { return func(e *Engine) { e.notifier = n } }

// WithSettleDelays overrides the settle windows between player calls.
func WithSettleDelays(s SettleDelays) Option { return func(e *Engine) { e.settle = s } }

func New(store ScheduleStore, sessions SessionSource, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		sessions: sessions,
		clock:    SystemClock(),
		settle:   DefaultSettleDelays(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunTick executes one poll cycle: fetch a fresh snapshot of active
// schedules, run the start pass, then the stop pass. No error evaluating
// one schedule aborts any other; the returned error only reports a failed
// snapshot fetch.
func (e *Engine) RunTick(ctx context.Context) error {
	now := e.clock.Now().UTC()

	schedules, err := e.store.GetActiveSchedules(ctx)
	if err != nil {
		log.Error().Err(err).Msg("tick aborted: could not fetch active schedules")
		return err
	}
	log.Debug().Int("count", len(schedules)).Time("now", now).Msg("tick started")

	e.runStartPass(ctx, now, schedules)
	e.runStopPass(ctx, now, schedules)
	return nil
}
