package engine

import (
	"context"
	"sync"
	"time"

	"github.com/soundcue/soundcue/internal/model"
)

// fakeClock is a settable clock whose Sleep returns immediately.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time                          { return c.now }
func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) {}

// fakeStore serves a fixed schedule set and applies trigger bookkeeping in
// memory so consecutive ticks see the updated rows.
type fakeStore struct {
	mu        sync.Mutex
	schedules []model.Schedule
	recorded  []recordedStart
	fetchErr  error
	recordErr error
}

type recordedStart struct {
	scheduleID      int
	firedAt         time.Time
	markOneShotDone bool
}

func (f *fakeStore) GetActiveSchedules(ctx context.Context) ([]model.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]model.Schedule, len(f.schedules))
	copy(out, f.schedules)
	return out, nil
}

func (f *fakeStore) RecordStart(ctx context.Context, scheduleID int, firedAt time.Time, markOneShotDone bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded = append(f.recorded, recordedStart{scheduleID, firedAt, markOneShotDone})
	for i := range f.schedules {
		if f.schedules[i].ID == scheduleID {
			t := firedAt
			f.schedules[i].LastTriggeredUTC = &t
			if markOneShotDone {
				f.schedules[i].OneShotTriggered = true
			}
		}
	}
	return nil
}

// fakeSessions hands out one session per owner, or a configured error.
type fakeSessions struct {
	sessions map[string]*fakeSession
	err      error
}

func (f *fakeSessions) Session(ctx context.Context, owner string) (PlayerSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	sess, ok := f.sessions[owner]
	if !ok {
		return nil, ErrSessionUnavailable
	}
	return sess, nil
}

type startCall struct {
	deviceID          string
	playlistURI       string
	startAtFirstTrack bool
}

type shuffleCall struct {
	enabled  bool
	deviceID string
}

// fakeSession records every player command and returns configured errors.
type fakeSession struct {
	starts   []startCall
	volumes  []int
	shuffles []shuffleCall
	pauses   []string

	state *model.PlayerState

	startErr   error
	volumeErr  error
	shuffleErr error
	stateErr   error
	pauseErr   error
}

func (f *fakeSession) Start(ctx context.Context, deviceID, playlistURI string, startAtFirstTrack bool) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.starts = append(f.starts, startCall{deviceID, playlistURI, startAtFirstTrack})
	return nil
}

func (f *fakeSession) SetVolume(ctx context.Context, percent int, deviceID string) error {
	if f.volumeErr != nil {
		return f.volumeErr
	}
	f.volumes = append(f.volumes, percent)
	return nil
}

func (f *fakeSession) SetShuffle(ctx context.Context, enabled bool, deviceID string) error {
	if f.shuffleErr != nil {
		return f.shuffleErr
	}
	f.shuffles = append(f.shuffles, shuffleCall{enabled, deviceID})
	return nil
}

func (f *fakeSession) LiveState(ctx context.Context) (*model.PlayerState, error) {
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	return f.state, nil
}

func (f *fakeSession) Pause(ctx context.Context, deviceID string) error {
	if f.pauseErr != nil {
		return f.pauseErr
	}
	f.pauses = append(f.pauses, deviceID)
	return nil
}

type notifiedEvent struct {
	scheduleID int
	kind       string
	at         time.Time
}

type fakeNotifier struct {
	events []notifiedEvent
}

func (f *fakeNotifier) ScheduleStarted(s model.Schedule, at time.Time) {
	f.events = append(f.events, notifiedEvent{s.ID, "started", at})
}

func (f *fakeNotifier) ScheduleStopped(s model.Schedule, at time.Time) {
	f.events = append(f.events, notifiedEvent{s.ID, "stopped", at})
}

func mustSet(t string) model.WeekdaySet {
	set, err := model.ParseWeekdaySet(t)
	if err != nil {
		panic(err)
	}
	return set
}

func clock(s string) model.ClockTime {
	ct, err := model.ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return ct
}
