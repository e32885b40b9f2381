// internal/spotify/catalog.go
package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/soundcue/soundcue/internal/model"
)

// Profile identifies the Spotify user behind an access token.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// CurrentProfile fetches the profile for a raw access token, used right
// after the authorization-code exchange to learn who just linked.
func (c *Client) CurrentProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var p Profile
	if err := c.doAPI(ctx, accessToken, http.MethodGet, "/me", nil, nil, &p); err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return &p, nil
}

// Devices lists the owner's available playback devices.
func (s *session) Devices(ctx context.Context) ([]model.Device, error) {
	var payload struct {
		Devices []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Type     string `json:"type"`
			IsActive bool   `json:"is_active"`
		} `json:"devices"`
	}
	if err := s.client.doAPI(ctx, s.accessToken, http.MethodGet, "/me/player/devices", nil, nil, &payload); err != nil {
		return nil, err
	}
	out := make([]model.Device, 0, len(payload.Devices))
	for _, d := range payload.Devices {
		out = append(out, model.Device{ID: d.ID, Name: d.Name, Type: d.Type, IsActive: d.IsActive})
	}
	return out, nil
}

// Playlists fetches every playlist the owner can play, paging through the
// collection 50 at a time.
func (s *session) Playlists(ctx context.Context) ([]model.Playlist, error) {
	const pageSize = 50
	var out []model.Playlist

	for offset := 0; ; offset += pageSize {
		var payload struct {
			Items []struct {
				ID   string `json:"id"`
				URI  string `json:"uri"`
				Name string `json:"name"`
			} `json:"items"`
			Next string `json:"next"`
		}
		q := url.Values{}
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(offset))
		if err := s.client.doAPI(ctx, s.accessToken, http.MethodGet, "/me/playlists", q, nil, &payload); err != nil {
			return nil, fmt.Errorf("fetching playlists page at offset %d: %w", offset, err)
		}
		for _, p := range payload.Items {
			out = append(out, model.Playlist{ID: p.ID, URI: p.URI, Name: p.Name})
		}
		if payload.Next == "" || len(payload.Items) == 0 {
			break
		}
	}
	log.Debug().Str("owner", s.owner).Int("count", len(out)).Msg("fetched playlists")
	return out, nil
}

// Catalog is the read-only browsing surface the web API exposes on top of a
// session: the pieces needed to populate schedule forms.
type Catalog interface {
	Devices(ctx context.Context) ([]model.Device, error)
	Playlists(ctx context.Context) ([]model.Playlist, error)
}

var _ Catalog = (*session)(nil)
