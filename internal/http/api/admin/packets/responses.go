package packets

import "github.com/soundcue/soundcue/internal/model"

type ProfileResponse struct {
	ID        int     `json:"id"`
	Email     string  `json:"email"`
	Name      *string `json:"name"`
	CreatedAt string  `json:"created_at"`
}

// SpotifyStatusResponse reports whether the current user has a linked
// player account.
type SpotifyStatusResponse struct {
	Linked        bool    `json:"linked"`
	SpotifyUserID string  `json:"spotify_user_id,omitempty"`
	DisplayName   *string `json:"display_name,omitempty"`
}

// ScheduleResponse is a schedule annotated with the next instant it will
// fire, when one exists within the lookahead window.
type ScheduleResponse struct {
	model.Schedule
	NextPlayTimeUTC *string `json:"next_play_time_utc"`
}
