package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundcue/soundcue/internal/model"
)

func newTestEngine(store *fakeStore, sessions *fakeSessions, now time.Time, opts ...Option) (*Engine, *fakeClock) {
	fc := &fakeClock{now: now}
	opts = append([]Option{WithClock(fc), WithSettleDelays(SettleDelays{})}, opts...)
	return New(store, sessions, opts...), fc
}

func dueSchedule(now time.Time) model.Schedule {
	s := baseSchedule()
	s.DaysOfWeek = mustSet("0,1,2,3,4,5,6")
	s.StartTimeLocal = model.ClockTimeOf(now)
	return s
}

func TestRunTick_FiresDueSchedule(t *testing.T) {
	now := utc("2025-01-15T14:00:10Z")
	s := dueSchedule(now)
	vol := 40
	s.Volume = &vol

	sess := &fakeSession{}
	store := &fakeStore{schedules: []model.Schedule{s}}
	notifier := &fakeNotifier{}
	eng, _ := newTestEngine(store, &fakeSessions{sessions: map[string]*fakeSession{"owner": sess}}, now,
		WithNotifier(notifier))

	require.NoError(t, eng.RunTick(context.Background()))

	require.Len(t, sess.starts, 1)
	assert.Equal(t, "device-1", sess.starts[0].deviceID)
	assert.Equal(t, "spotify:playlist:abc", sess.starts[0].playlistURI)
	assert.True(t, sess.starts[0].startAtFirstTrack, "shuffle off pins the first track")
	assert.Equal(t, []int{40}, sess.volumes)

	require.Len(t, store.recorded, 1)
	assert.Equal(t, 1, store.recorded[0].scheduleID)
	assert.False(t, store.recorded[0].markOneShotDone)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, "started", notifier.events[0].kind)
}

func TestRunTick_SecondTickSameMinuteDoesNotRefire(t *testing.T) {
	now := utc("2025-01-15T14:00:05Z")
	s := dueSchedule(now)

	sess := &fakeSession{}
	store := &fakeStore{schedules: []model.Schedule{s}}
	eng, fc := newTestEngine(store, &fakeSessions{sessions: map[string]*fakeSession{"owner": sess}}, now)

	require.NoError(t, eng.RunTick(context.Background()))
	require.Len(t, sess.starts, 1)

	// A second tick lands 30 seconds later, still inside 14:00. The
	// bookkeeping written by the first tick suppresses it.
	fc.now = utc("2025-01-15T14:00:35Z")
	require.NoError(t, eng.RunTick(context.Background()))

	assert.Len(t, sess.starts, 1)
	assert.Len(t, store.recorded, 1)
}

func TestRunTick_OneShotMarkedDone(t *testing.T) {
	now := utc("2025-01-15T14:00:00Z")
	s := baseSchedule() // one-shot
	s.StartTimeLocal = model.ClockTimeOf(now)

	sess := &fakeSession{}
	store := &fakeStore{schedules: []model.Schedule{s}}
	eng, fc := newTestEngine(store, &fakeSessions{sessions: map[string]*fakeSession{"owner": sess}}, now)

	require.NoError(t, eng.RunTick(context.Background()))
	require.Len(t, store.recorded, 1)
	assert.True(t, store.recorded[0].markOneShotDone)

	// The next day at the same time it stays silent.
	fc.now = utc("2025-01-16T14:00:00Z")
	require.NoError(t, eng.RunTick(context.Background()))
	assert.Len(t, sess.starts, 1)
}

func TestRunTick_NotDueOutsideStartMinute(t *testing.T) {
	now := utc("2025-01-15T13:59:59Z")
	s := dueSchedule(utc("2025-01-15T14:00:00Z"))

	sess := &fakeSession{}
	store := &fakeStore{schedules: []model.Schedule{s}}
	eng, _ := newTestEngine(store, &fakeSessions{sessions: map[string]*fakeSession{"owner": sess}}, now)

	require.NoError(t, eng.RunTick(context.Background()))
	assert.Empty(t, sess.starts)
	assert.Empty(t, store.recorded)
}

func TestRunTick_SessionUnavailableLeavesStateUntouched(t *testing.T) {
	now := utc("2025-01-15T14:00:00Z")
	s := dueSchedule(now)

	store := &fakeStore{schedules: []model.Schedule{s}}
	eng, fc := newTestEngine(store, &fakeSessions{}, now)

	require.NoError(t, eng.RunTick(context.Background()))
	assert.Empty(t, store.recorded, "no trigger bookkeeping without a session")

	// Once a session exists within the same minute, the schedule fires.
	sess := &fakeSession{}
	eng.sessions = &fakeSessions{sessions: map[string]*fakeSession{"owner": sess}}
	fc.now = utc("2025-01-15T14:00:30Z")
	require.NoError(t, eng.RunTick(context.Background()))
	assert.Len(t, sess.starts, 1)
}

func TestRunTick_StartFailureLeavesStateUntouched(t *testing.T) {
	now := utc("2025-01-15T14:00:00Z")
	s := dueSchedule(now)

	sess := &fakeSession{startErr: errors.New("player exploded")}
	store := &fakeStore{schedules: []model.Schedule{s}}
	eng, _ := newTestEngine(store, &fakeSessions{sessions: map[string]*fakeSession{"owner": sess}}, now)

	require.NoError(t, eng.RunTick(context.Background()))
	assert.Empty(t, store.recorded)
	assert.Empty(t, sess.shuffles, "shuffle is never touched after a failed start")
}

func TestRunTick_VolumeFailureIsNotFatal(t *testing.T) {
	now := utc("2025-01-15T14:00:00Z")
	s := dueSchedule(now)
	vol := 60
	s.Volume = &vol

	sess := &fakeSession{volumeErr: errors.New("volume not supported")}
	store := &fakeStore{schedules: []model.Schedule{s}}
	eng, _ := newTestEngine(store, &fakeSessions{sessions: map[string]*fakeSession{"owner": sess}}, now)

	require.NoError(t, eng.RunTick(context.Background()))
	assert.Len(t, sess.starts, 1)
	assert.Len(t, store.recorded, 1)
}

func TestRunTick_MissingDeviceAbortsStart(t *testing.T) {
	now := utc("2025-01-15T14:00:00Z")
	s := dueSchedule(now)
	vol := 60
	s.Volume = &vol

	sess := &fakeSession{volumeErr: ErrDeviceNotFound}
	store := &fakeStore{schedules: []model.Schedule{s}}
	eng, _ := newTestEngine(store, &fakeSessions{sessions: map[string]*fakeSession{"owner": sess}}, now)

	require.NoError(t, eng.RunTick(context.Background()))
	assert.Empty(t, sess.starts)
	assert.Empty(t, store.recorded)
}

func TestRunTick_ShuffleAppliedAndVerified(t *testing.T) {
	now := utc("2025-01-15T14:00:00Z")
	s := dueSchedule(now)
	s.Shuffle = true

	sess := &fakeSession{state: &model.PlayerState{
		IsPlaying:    true,
		DeviceID:     "device-1",
		ShuffleState: true,
	}}
	store := &fakeStore{schedules: []model.Schedule{s}}
	eng, _ := newTestEngine(store, &fakeSessions{sessions: map[string]*fakeSession{"owner": sess}}, now)

	require.NoError(t, eng.RunTick(context.Background()))
	require.Len(t, sess.starts, 1)
	assert.False(t, sess.starts[0].startAtFirstTrack, "shuffle on leaves the start position to the player")
	require.Len(t, sess.shuffles, 1)
	assert.Equal(t, shuffleCall{enabled: true, deviceID: "device-1"}, sess.shuffles[0])
}

func TestRunTick_SnapshotFetchErrorAbortsTick(t *testing.T) {
	store := &fakeStore{fetchErr: errors.New("db down")}
	eng, _ := newTestEngine(store, &fakeSessions{}, utc("2025-01-15T14:00:00Z"))

	assert.Error(t, eng.RunTick(context.Background()))
}

func TestPlayNow_SkipsTriggerBookkeeping(t *testing.T) {
	now := utc("2025-01-15T09:12:00Z")
	s := baseSchedule()

	sess := &fakeSession{}
	store := &fakeStore{schedules: []model.Schedule{s}}
	eng, _ := newTestEngine(store, &fakeSessions{sessions: map[string]*fakeSession{"owner": sess}}, now)

	require.NoError(t, eng.PlayNow(context.Background(), s))
	assert.Len(t, sess.starts, 1)
	assert.Empty(t, store.recorded, "a manual play is not a trigger")
}

func TestPlayNow_PropagatesSessionError(t *testing.T) {
	eng, _ := newTestEngine(&fakeStore{}, &fakeSessions{}, utc("2025-01-15T09:12:00Z"))

	err := eng.PlayNow(context.Background(), baseSchedule())
	assert.ErrorIs(t, err, ErrSessionUnavailable)
}
