package model

import "time"

// SpotifyAccount links a local user to a Spotify identity. The refresh
// token never leaves the server; schedules reference the account through
// SpotifyUserID.
type SpotifyAccount struct {
	UserID        int       `db:"user_id"`
	SpotifyUserID string    `db:"spotify_user_id"`
	DisplayName   *string   `db:"display_name"`
	RefreshToken  string    `db:"refresh_token"`
	Scope         string    `db:"scope"`
	LinkedAt      time.Time `db:"linked_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}
