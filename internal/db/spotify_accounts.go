// internal/db/spotify_accounts.go
package db

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/soundcue/soundcue/internal/model"
)

// UpsertSpotifyAccount links (or refreshes the link of) a Spotify account
// to a local user. The refresh token is the durable credential the engine
// mints access tokens from.
func UpsertSpotifyAccount(userID int, spotifyUserID string, displayName *string, refreshToken, scope string) error {
	const q = `
	INSERT INTO spotify_accounts (user_id, spotify_user_id, display_name, refresh_token, scope, linked_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, now(), now())
	ON CONFLICT (user_id) DO UPDATE SET
	  spotify_user_id = EXCLUDED.spotify_user_id,
	  display_name    = EXCLUDED.display_name,
	  refresh_token   = EXCLUDED.refresh_token,
	  scope           = EXCLUDED.scope,
	  updated_at      = now();`
	if _, err := DB.Exec(q, userID, spotifyUserID, displayName, refreshToken, scope); err != nil {
		log.Error().Err(err).Int("user_id", userID).Msg("UpsertSpotifyAccount failed")
		return err
	}
	return nil
}

func GetSpotifyAccountByUserID(userID int) (*model.SpotifyAccount, error) {
	var a model.SpotifyAccount
	const q = `
	SELECT user_id, spotify_user_id, display_name, refresh_token, scope, linked_at, updated_at
	FROM spotify_accounts WHERE user_id = $1;`
	if err := DB.Get(&a, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		log.Error().Err(err).Int("user_id", userID).Msg("GetSpotifyAccountByUserID failed")
		return nil, err
	}
	return &a, nil
}

// GetSpotifyAccountByOwner looks an account up by its Spotify user id, the
// key schedules reference as owner.
func GetSpotifyAccountByOwner(spotifyUserID string) (*model.SpotifyAccount, error) {
	var a model.SpotifyAccount
	const q = `
	SELECT user_id, spotify_user_id, display_name, refresh_token, scope, linked_at, updated_at
	FROM spotify_accounts WHERE spotify_user_id = $1;`
	if err := DB.Get(&a, q, spotifyUserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		log.Error().Err(err).Str("spotify_user_id", spotifyUserID).Msg("GetSpotifyAccountByOwner failed")
		return nil, err
	}
	return &a, nil
}

func UnlinkSpotifyAccount(userID int) error {
	res, err := DB.Exec(`DELETE FROM spotify_accounts WHERE user_id = $1;`, userID)
	if err != nil {
		log.Error().Err(err).Int("user_id", userID).Msg("UnlinkSpotifyAccount failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
