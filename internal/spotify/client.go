// internal/spotify/client.go
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/soundcue/soundcue/internal/engine"
	"github.com/soundcue/soundcue/internal/model"
)

const (
	defaultAPIBaseURL      = "https://api.spotify.com/v1"
	defaultAccountsBaseURL = "https://accounts.spotify.com"
)

// Scopes covers everything the engine and the control plane need: playback
// commands, live state reads and playlist listings.
var Scopes = []string{
	"user-modify-playback-state",
	"user-read-playback-state",
	"user-read-currently-playing",
	"playlist-read-private",
	"playlist-read-collaborative",
}

// Config carries the OAuth application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// AccountSource resolves the durable refresh token for an owner. Implemented
// by the db store.
type AccountSource interface {
	GetSpotifyAccountByOwner(spotifyUserID string) (*model.SpotifyAccount, error)
}

// Client talks to the Spotify Web API on behalf of linked accounts.
type Client struct {
	cfg         Config
	accounts    AccountSource
	tokens      TokenCache
	httpClient  *http.Client
	apiBase     string
	accountBase string
}

func NewClient(cfg Config, accounts AccountSource, tokens TokenCache) *Client {
	return &Client{
		cfg:      cfg,
		accounts: accounts,
		tokens:   tokens,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		apiBase:     defaultAPIBaseURL,
		accountBase: defaultAccountsBaseURL,
	}
}

// SetBaseURLs points the client at alternate endpoints (tests).
func (c *Client) SetBaseURLs(api, accounts string) {
	c.apiBase = strings.TrimRight(api, "/")
	c.accountBase = strings.TrimRight(accounts, "/")
}

// APIError is a non-2xx response from the Spotify Web API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify api: %d %s", e.Status, e.Message)
}

// doAPI issues an authenticated request against the Web API and decodes the
// response into out when non-nil. A 404 is surfaced as ErrDeviceNotFound so
// the engine can abort a start attempt early.
func (c *Client) doAPI(ctx context.Context, accessToken, method, path string, query url.Values, body any, out any) error {
	endpoint := c.apiBase + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = strings.NewReader(string(payload))
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := decodeAPIError(resp)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", engine.ErrDeviceNotFound, apiErr.Message)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) *APIError {
	var payload struct {
		Error struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := http.StatusText(resp.StatusCode)
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error.Message != "" {
		msg = payload.Error.Message
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
