// internal/db/schedules.go
package db

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soundcue/soundcue/internal/model"
)

const scheduleColumns = `
	id, owner_spotify_id, playlist_uri, playlist_name,
	target_device_id, target_device_name,
	days_of_week, start_time_local, stop_time_local, timezone,
	volume, shuffle_state, is_active, one_shot_triggered, last_triggered_utc,
	created_at, updated_at`

// NewScheduleParams carries the user-editable fields of a schedule.
type NewScheduleParams struct {
	Owner          string
	PlaylistURI    string
	PlaylistName   *string
	DeviceID       string
	DeviceName     *string
	DaysOfWeek     model.WeekdaySet
	StartTimeLocal model.ClockTime
	StopTimeLocal  *model.ClockTime
	Timezone       string
	Volume         *int
	Shuffle        bool
}

func CreateSchedule(p NewScheduleParams) (model.Schedule, error) {
	var s model.Schedule
	const q = `
	INSERT INTO schedules
	  (owner_spotify_id, playlist_uri, playlist_name,
	   target_device_id, target_device_name,
	   days_of_week, start_time_local, stop_time_local, timezone,
	   volume, shuffle_state, is_active, one_shot_triggered,
	   created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,true,false,now(),now())
	RETURNING` + scheduleColumns + `;`
	err := DB.Get(&s, q,
		p.Owner, p.PlaylistURI, p.PlaylistName,
		p.DeviceID, p.DeviceName,
		p.DaysOfWeek, p.StartTimeLocal, p.StopTimeLocal, p.Timezone,
		p.Volume, p.Shuffle,
	)
	if err != nil {
		log.Error().Err(err).Msg("CreateSchedule failed")
		return model.Schedule{}, err
	}
	return s, nil
}

func GetSchedule(scheduleID int, owner string) (model.Schedule, error) {
	var s model.Schedule
	const q = `SELECT` + scheduleColumns + `
	  FROM schedules WHERE id = $1 AND owner_spotify_id = $2;`
	if err := DB.Get(&s, q, scheduleID, owner); err != nil {
		log.Error().Err(err).Int("schedule_id", scheduleID).Msg("GetSchedule failed")
		return model.Schedule{}, err
	}
	return s, nil
}

func ListSchedules(owner string) ([]model.Schedule, error) {
	var out []model.Schedule
	const q = `SELECT` + scheduleColumns + `
	  FROM schedules WHERE owner_spotify_id = $1 ORDER BY id;`
	if err := DB.Select(&out, q, owner); err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("ListSchedules failed")
		return nil, err
	}
	return out, nil
}

// UpdateSchedule replaces the user-editable fields of an owned schedule.
// Trigger bookkeeping columns are never touched here.
func UpdateSchedule(scheduleID int, owner string, p NewScheduleParams) (model.Schedule, error) {
	var s model.Schedule
	const q = `
	UPDATE schedules SET
	  playlist_uri = $3, playlist_name = $4,
	  target_device_id = $5, target_device_name = $6,
	  days_of_week = $7, start_time_local = $8, stop_time_local = $9,
	  timezone = $10, volume = $11, shuffle_state = $12,
	  updated_at = now()
	WHERE id = $1 AND owner_spotify_id = $2
	RETURNING` + scheduleColumns + `;`
	err := DB.Get(&s, q, scheduleID, owner,
		p.PlaylistURI, p.PlaylistName,
		p.DeviceID, p.DeviceName,
		p.DaysOfWeek, p.StartTimeLocal, p.StopTimeLocal,
		p.Timezone, p.Volume, p.Shuffle,
	)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", scheduleID).Msg("UpdateSchedule failed")
		return model.Schedule{}, err
	}
	return s, nil
}

func DeleteSchedule(scheduleID int, owner string) error {
	res, err := DB.Exec(`DELETE FROM schedules WHERE id = $1 AND owner_spotify_id = $2;`, scheduleID, owner)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", scheduleID).Msg("DeleteSchedule failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleScheduleActive flips is_active and returns the updated row.
func ToggleScheduleActive(scheduleID int, owner string) (model.Schedule, error) {
	var s model.Schedule
	const q = `
	UPDATE schedules SET is_active = NOT is_active, updated_at = now()
	WHERE id = $1 AND owner_spotify_id = $2
	RETURNING` + scheduleColumns + `;`
	if err := DB.Get(&s, q, scheduleID, owner); err != nil {
		log.Error().Err(err).Int("schedule_id", scheduleID).Msg("ToggleScheduleActive failed")
		return model.Schedule{}, err
	}
	return s, nil
}

// GetActiveSchedules returns every schedule the engine should consider this
// tick. Inactive schedules are invisible to the engine entirely.
func GetActiveSchedules(ctx context.Context) ([]model.Schedule, error) {
	var out []model.Schedule
	const q = `SELECT` + scheduleColumns + `
	  FROM schedules WHERE is_active = true ORDER BY id;`
	if err := DB.SelectContext(ctx, &out, q); err != nil {
		log.Error().Err(err).Msg("GetActiveSchedules failed")
		return nil, err
	}
	return out, nil
}

// RecordStart persists trigger bookkeeping for a confirmed successful start.
// The update is a narrow per-row write so it never clobbers concurrent user
// edits, and GREATEST keeps last_triggered_utc monotonically non-decreasing
// (which also makes the call idempotent).
func RecordStart(ctx context.Context, scheduleID int, firedAt time.Time, markOneShotDone bool) error {
	const q = `
	UPDATE schedules SET
	  last_triggered_utc = GREATEST(COALESCE(last_triggered_utc, 'epoch'::timestamptz), $2),
	  one_shot_triggered = one_shot_triggered OR $3
	WHERE id = $1;`
	if _, err := DB.ExecContext(ctx, q, scheduleID, firedAt.UTC(), markOneShotDone); err != nil {
		log.Error().Err(err).Int("schedule_id", scheduleID).Msg("RecordStart failed")
		return err
	}
	return nil
}
