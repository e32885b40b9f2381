package endpoints

import (
	"database/sql"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/soundcue/soundcue/internal/db"
	"github.com/soundcue/soundcue/internal/engine"
	"github.com/soundcue/soundcue/internal/http/api"
	"github.com/soundcue/soundcue/internal/http/api/admin/packets"
	"github.com/soundcue/soundcue/internal/model"
)

// ScheduleModule mounts the schedule CRUD and playback endpoints.
func ScheduleModule(store db.Store, eng *engine.Engine) api.Module {
	ctl := &ScheduleController{store: store, engine: eng}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/schedules", ctl.listSchedules)
		c.POST("/schedules", ctl.createSchedule)
		c.GET("/schedules/:id", ctl.getSchedule)
		c.PUT("/schedules/:id", ctl.updateSchedule)
		c.DELETE("/schedules/:id", ctl.deleteSchedule)
		c.POST("/schedules/:id/toggle", ctl.toggleSchedule)
		c.POST("/schedules/:id/play_now", ctl.playScheduleNow)
		c.POST("/play_now", ctl.playNow)
	})
}

type ScheduleController struct {
	store  db.Store
	engine *engine.Engine
}

// ownerFor resolves the caller's linked account; every schedule endpoint
// needs one.
func (s *ScheduleController) ownerFor(user *model.User) (string, *api.APIError) {
	account, err := s.store.GetSpotifyAccountByUserID(user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", &api.APIError{Code: http.StatusConflict, Message: "spotify account not linked"}
		}
		return "", &api.APIError{Code: http.StatusInternalServerError, Message: "could not load linked account"}
	}
	return account.SpotifyUserID, nil
}

func scheduleID(ctx *gin.Context) (int, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, &api.APIError{Code: http.StatusBadRequest, Message: "invalid schedule id"}
	}
	return id, nil
}

// scheduleParams validates a request body into storable parameters.
func scheduleParams(owner string, req packets.ScheduleRequest) (db.NewScheduleParams, *api.APIError) {
	days, err := model.ParseWeekdaySet(req.DaysOfWeek)
	if err != nil {
		return db.NewScheduleParams{}, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	start, err := model.ParseClockTime(req.StartTimeLocal)
	if err != nil {
		return db.NewScheduleParams{}, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	var stop *model.ClockTime
	if req.StopTimeLocal != nil && *req.StopTimeLocal != "" {
		parsed, err := model.ParseClockTime(*req.StopTimeLocal)
		if err != nil {
			return db.NewScheduleParams{}, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
		}
		stop = &parsed
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return db.NewScheduleParams{}, &api.APIError{Code: http.StatusBadRequest, Message: "unknown timezone " + strconv.Quote(req.Timezone)}
	}

	return db.NewScheduleParams{
		Owner:          owner,
		PlaylistURI:    req.PlaylistURI,
		PlaylistName:   req.PlaylistName,
		DeviceID:       req.DeviceID,
		DeviceName:     req.DeviceName,
		DaysOfWeek:     days,
		StartTimeLocal: start,
		StopTimeLocal:  stop,
		Timezone:       req.Timezone,
		Volume:         req.Volume,
		Shuffle:        req.Shuffle,
	}, nil
}

func annotate(s model.Schedule, now time.Time) packets.ScheduleResponse {
	resp := packets.ScheduleResponse{Schedule: s}
	if next, ok := engine.NextOccurrence(s, now); ok {
		formatted := next.Format(time.RFC3339)
		resp.NextPlayTimeUTC = &formatted
	}
	return resp
}

// GET /api/admin/schedules
//
// Schedules are sorted by their next fire time, soonest first; ones that
// will never fire again sort last.
func (s *ScheduleController) listSchedules(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	owner, apiErr := s.ownerFor(user)
	if apiErr != nil {
		return nil, apiErr
	}
	schedules, err := s.store.ListSchedules(owner)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not list schedules"}
	}

	now := time.Now().UTC()
	out := make([]packets.ScheduleResponse, 0, len(schedules))
	for _, sched := range schedules {
		out = append(out, annotate(sched, now))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].NextPlayTimeUTC, out[j].NextPlayTimeUTC
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return out, nil
}

// POST /api/admin/schedules
func (s *ScheduleController) createSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	owner, apiErr := s.ownerFor(user)
	if apiErr != nil {
		return nil, apiErr
	}
	var req packets.ScheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	params, apiErr := scheduleParams(owner, req)
	if apiErr != nil {
		return nil, apiErr
	}

	created, err := s.store.CreateSchedule(params)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create schedule"}
	}
	log.Info().Int("schedule_id", created.ID).Str("owner", owner).Msg("schedule created")
	return annotate(created, time.Now().UTC()), nil
}

// GET /api/admin/schedules/:id
func (s *ScheduleController) getSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	owner, apiErr := s.ownerFor(user)
	if apiErr != nil {
		return nil, apiErr
	}
	id, apiErr := scheduleID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	sched, err := s.store.GetSchedule(id, owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load schedule"}
	}
	return annotate(sched, time.Now().UTC()), nil
}

// PUT /api/admin/schedules/:id
func (s *ScheduleController) updateSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	owner, apiErr := s.ownerFor(user)
	if apiErr != nil {
		return nil, apiErr
	}
	id, apiErr := scheduleID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	var req packets.ScheduleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}
	params, apiErr := scheduleParams(owner, req)
	if apiErr != nil {
		return nil, apiErr
	}

	updated, err := s.store.UpdateSchedule(id, owner, params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update schedule"}
	}
	return annotate(updated, time.Now().UTC()), nil
}

// DELETE /api/admin/schedules/:id
func (s *ScheduleController) deleteSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	owner, apiErr := s.ownerFor(user)
	if apiErr != nil {
		return nil, apiErr
	}
	id, apiErr := scheduleID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	if err := s.store.DeleteSchedule(id, owner); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete schedule"}
	}
	log.Info().Int("schedule_id", id).Str("owner", owner).Msg("schedule deleted")
	return gin.H{"message": "deleted"}, nil
}

// POST /api/admin/schedules/:id/toggle
func (s *ScheduleController) toggleSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	owner, apiErr := s.ownerFor(user)
	if apiErr != nil {
		return nil, apiErr
	}
	id, apiErr := scheduleID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	toggled, err := s.store.ToggleScheduleActive(id, owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not toggle schedule"}
	}
	return annotate(toggled, time.Now().UTC()), nil
}

// POST /api/admin/schedules/:id/play_now
//
// Starts the schedule's playback immediately without touching trigger
// bookkeeping, so the timed run still happens.
func (s *ScheduleController) playScheduleNow(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	owner, apiErr := s.ownerFor(user)
	if apiErr != nil {
		return nil, apiErr
	}
	id, apiErr := scheduleID(ctx)
	if apiErr != nil {
		return nil, apiErr
	}
	sched, err := s.store.GetSchedule(id, owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load schedule"}
	}

	if apiErr := s.startPlayback(ctx, sched); apiErr != nil {
		return nil, apiErr
	}
	return gin.H{"message": "playback started"}, nil
}

// POST /api/admin/play_now
func (s *ScheduleController) playNow(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	owner, apiErr := s.ownerFor(user)
	if apiErr != nil {
		return nil, apiErr
	}
	var req packets.PlayNowRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	sched := model.Schedule{
		Owner:       owner,
		PlaylistURI: req.PlaylistURI,
		DeviceID:    req.DeviceID,
		Volume:      req.Volume,
		Shuffle:     req.Shuffle,
	}
	if apiErr := s.startPlayback(ctx, sched); apiErr != nil {
		return nil, apiErr
	}
	return gin.H{"message": "playback started"}, nil
}

func (s *ScheduleController) startPlayback(ctx *gin.Context, sched model.Schedule) *api.APIError {
	err := s.engine.PlayNow(ctx.Request.Context(), sched)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, engine.ErrSessionUnavailable):
		return &api.APIError{Code: http.StatusServiceUnavailable, Message: "spotify session unavailable; re-authorize"}
	case errors.Is(err, engine.ErrDeviceNotFound):
		return &api.APIError{Code: http.StatusNotFound, Message: "target device not found or offline"}
	default:
		log.Error().Err(err).Str("owner", sched.Owner).Msg("manual playback failed")
		return &api.APIError{Code: http.StatusBadGateway, Message: "could not start playback"}
	}
}
