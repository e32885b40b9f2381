package endpoints

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/soundcue/soundcue/internal/db"
	"github.com/soundcue/soundcue/internal/engine"
	"github.com/soundcue/soundcue/internal/http/api"
	"github.com/soundcue/soundcue/internal/http/api/admin/packets"
	"github.com/soundcue/soundcue/internal/http/middleware"
	"github.com/soundcue/soundcue/internal/model"
	"github.com/soundcue/soundcue/internal/spotify"
)

// SpotifyLinkModule mounts account-linking endpoints (JWT required except
// the OAuth callback, which arrives from the provider's redirect and
// carries the user binding in the signed state parameter).
func SpotifyLinkModule(jwtSecret string, store db.Store, player *spotify.Client) api.Module {
	ctl := &SpotifyController{jwtSecret: jwtSecret, store: store, player: player}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/spotify/authorize", ctl.authorizeURL)
		c.GET("/spotify/status", ctl.linkStatus)
		c.DELETE("/spotify/link", ctl.unlink)
		c.GET("/spotify/devices", ctl.listDevices)
		c.GET("/spotify/playlists", ctl.listPlaylists)
	})
}

// SpotifyCallbackModule mounts the public OAuth redirect target.
func SpotifyCallbackModule(jwtSecret string, store db.Store, player *spotify.Client) api.Module {
	ctl := &SpotifyController{jwtSecret: jwtSecret, store: store, player: player}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/spotify/callback", ctl.callback)
	})
}

type SpotifyController struct {
	jwtSecret string
	store     db.Store
	player    *spotify.Client
}

// GET /api/admin/spotify/authorize
func (s *SpotifyController) authorizeURL(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	state, err := middleware.GenerateJWT(user.ID, s.jwtSecret)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not build state"}
	}
	return gin.H{"url": s.player.AuthorizeURL(state)}, nil
}

// GET /api/admin/spotify/callback?code=...&state=...
func (s *SpotifyController) callback(ctx *gin.Context) (any, *api.APIError) {
	code := ctx.Query("code")
	state := ctx.Query("state")
	if code == "" || state == "" {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "missing code or state"}
	}

	userID, err := middleware.ParseJWT(state, s.jwtSecret)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: "invalid state"}
	}

	tok, err := s.player.Exchange(ctx.Request.Context(), code)
	if err != nil {
		log.Error().Err(err).Msg("authorization code exchange failed")
		return nil, &api.APIError{Code: http.StatusBadGateway, Message: "could not exchange authorization code"}
	}
	if tok.RefreshToken == "" {
		return nil, &api.APIError{Code: http.StatusBadGateway, Message: "provider returned no refresh token"}
	}

	profile, err := s.player.CurrentProfile(ctx.Request.Context(), tok.AccessToken)
	if err != nil {
		log.Error().Err(err).Msg("could not fetch linked profile")
		return nil, &api.APIError{Code: http.StatusBadGateway, Message: "could not fetch profile"}
	}

	var displayName *string
	if profile.DisplayName != "" {
		displayName = &profile.DisplayName
	}
	if err := s.store.UpsertSpotifyAccount(userID, profile.ID, displayName, tok.RefreshToken, tok.Scope); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not store linked account"}
	}

	log.Info().Int("user_id", userID).Str("spotify_user_id", profile.ID).Msg("spotify account linked")
	return gin.H{"linked": true, "spotify_user_id": profile.ID}, nil
}

// GET /api/admin/spotify/status
func (s *SpotifyController) linkStatus(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	account, err := s.store.GetSpotifyAccountByUserID(user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return packets.SpotifyStatusResponse{Linked: false}, nil
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not load link status"}
	}
	return packets.SpotifyStatusResponse{
		Linked:        true,
		SpotifyUserID: account.SpotifyUserID,
		DisplayName:   account.DisplayName,
	}, nil
}

// DELETE /api/admin/spotify/link
func (s *SpotifyController) unlink(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	if err := s.store.UnlinkSpotifyAccount(user.ID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "no linked account"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not unlink account"}
	}
	return gin.H{"message": "unlinked"}, nil
}

// GET /api/admin/spotify/devices
func (s *SpotifyController) listDevices(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	catalog, owner, apiErr := s.catalogFor(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	devices, err := catalog.Devices(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("could not list devices")
		return nil, &api.APIError{Code: http.StatusBadGateway, Message: "could not list devices"}
	}
	return devices, nil
}

// GET /api/admin/spotify/playlists
func (s *SpotifyController) listPlaylists(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	catalog, owner, apiErr := s.catalogFor(ctx, user)
	if apiErr != nil {
		return nil, apiErr
	}
	playlists, err := catalog.Playlists(ctx.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("could not list playlists")
		return nil, &api.APIError{Code: http.StatusBadGateway, Message: "could not list playlists"}
	}
	return playlists, nil
}

func (s *SpotifyController) catalogFor(ctx *gin.Context, user *model.User) (spotify.Catalog, string, *api.APIError) {
	account, err := s.store.GetSpotifyAccountByUserID(user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", &api.APIError{Code: http.StatusConflict, Message: "spotify account not linked"}
		}
		return nil, "", &api.APIError{Code: http.StatusInternalServerError, Message: "could not load linked account"}
	}

	catalog, err := s.player.CatalogFor(ctx.Request.Context(), account.SpotifyUserID)
	if err != nil {
		if errors.Is(err, engine.ErrSessionUnavailable) {
			return nil, "", &api.APIError{Code: http.StatusServiceUnavailable, Message: "spotify session unavailable; re-authorize"}
		}
		return nil, "", &api.APIError{Code: http.StatusBadGateway, Message: "could not open spotify session"}
	}
	return catalog, account.SpotifyUserID, nil
}
