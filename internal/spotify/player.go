// internal/spotify/player.go
package spotify

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/soundcue/soundcue/internal/model"
)

// session is one owner's authenticated handle onto the player API. It
// implements engine.PlayerSession.
type session struct {
	client      *Client
	owner       string
	accessToken string
}

type startPlaybackBody struct {
	ContextURI string       `json:"context_uri"`
	Offset     *startOffset `json:"offset,omitempty"`
}

type startOffset struct {
	Position int `json:"position"`
}

// Start begins playback of a playlist on a device. With startAtFirstTrack
// the position offset is pinned to the first track, which keeps shuffle-off
// playback deterministic.
func (s *session) Start(ctx context.Context, deviceID, playlistURI string, startAtFirstTrack bool) error {
	q := url.Values{}
	if deviceID != "" {
		q.Set("device_id", deviceID)
	}
	body := startPlaybackBody{ContextURI: playlistURI}
	if startAtFirstTrack {
		body.Offset = &startOffset{Position: 0}
	}
	log.Debug().Str("owner", s.owner).Str("playlist", playlistURI).
		Str("device", deviceID).Bool("pin_first_track", startAtFirstTrack).
		Msg("starting playback")
	return s.client.doAPI(ctx, s.accessToken, http.MethodPut, "/me/player/play", q, body, nil)
}

func (s *session) Pause(ctx context.Context, deviceID string) error {
	q := url.Values{}
	if deviceID != "" {
		q.Set("device_id", deviceID)
	}
	return s.client.doAPI(ctx, s.accessToken, http.MethodPut, "/me/player/pause", q, nil, nil)
}

func (s *session) SetVolume(ctx context.Context, percent int, deviceID string) error {
	q := url.Values{}
	q.Set("volume_percent", strconv.Itoa(percent))
	if deviceID != "" {
		q.Set("device_id", deviceID)
	}
	return s.client.doAPI(ctx, s.accessToken, http.MethodPut, "/me/player/volume", q, nil, nil)
}

func (s *session) SetShuffle(ctx context.Context, enabled bool, deviceID string) error {
	q := url.Values{}
	q.Set("state", strconv.FormatBool(enabled))
	if deviceID != "" {
		q.Set("device_id", deviceID)
	}
	return s.client.doAPI(ctx, s.accessToken, http.MethodPut, "/me/player/shuffle", q, nil, nil)
}

// LiveState reads the owner's current playback. A nil state means the player
// reports nothing active anywhere.
func (s *session) LiveState(ctx context.Context) (*model.PlayerState, error) {
	var payload struct {
		IsPlaying    bool `json:"is_playing"`
		ShuffleState bool `json:"shuffle_state"`
		Device       *struct {
			ID string `json:"id"`
		} `json:"device"`
		Context *struct {
			URI string `json:"uri"`
		} `json:"context"`
		Item *struct {
			URI string `json:"uri"`
		} `json:"item"`
	}
	// The player returns 204 with an empty body when idle; doAPI leaves the
	// zero value in place for that case.
	if err := s.client.doAPI(ctx, s.accessToken, http.MethodGet, "/me/player", nil, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Device == nil {
		return nil, nil
	}
	state := &model.PlayerState{
		IsPlaying:    payload.IsPlaying,
		ShuffleState: payload.ShuffleState,
		DeviceID:     payload.Device.ID,
	}
	if payload.Context != nil {
		state.ContextURI = payload.Context.URI
	}
	if payload.Item != nil {
		state.CurrentItem = payload.Item.URI
	}
	return state, nil
}
