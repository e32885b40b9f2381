// internal/spotify/auth.go
package spotify

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/soundcue/soundcue/internal/engine"
)

// TokenCache holds short-lived access tokens keyed by owner. Implemented on
// Redis so every process shares one refresh cadence per account.
type TokenCache interface {
	GetToken(ctx context.Context, owner string) (string, error)
	SetToken(ctx context.Context, owner, token string, ttl time.Duration) error
}

// TokenResponse is the accounts-service reply for both the authorization
// code exchange and refresh grants.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// AuthorizeURL builds the user-consent URL for linking an account.
func (c *Client) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.cfg.ClientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("scope", strings.Join(Scopes, " "))
	q.Set("state", state)
	return c.accountBase + "/authorize?" + q.Encode()
}

// Exchange trades an authorization code for tokens.
func (c *Client) Exchange(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURI)
	return c.tokenRequest(ctx, form)
}

// Refresh mints a fresh access token from a stored refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.tokenRequest(ctx, form)
}

func (c *Client) tokenRequest(ctx context.Context, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.accountBase+"/api/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building token request: %w", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientID + ":" + c.cfg.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeAPIError(resp)
	}
	var tok TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	return &tok, nil
}

// Session returns an authenticated player session for an owner, minting an
// access token from the stored refresh token and caching it until shortly
// before expiry. No linked account, or a failed refresh, maps to
// engine.ErrSessionUnavailable: the schedule simply retries next tick.
func (c *Client) Session(ctx context.Context, owner string) (engine.PlayerSession, error) {
	sess, err := c.newSession(ctx, owner)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// CatalogFor returns the browsing surface (devices, playlists) for an owner.
func (c *Client) CatalogFor(ctx context.Context, owner string) (Catalog, error) {
	sess, err := c.newSession(ctx, owner)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (c *Client) newSession(ctx context.Context, owner string) (*session, error) {
	if token, err := c.tokens.GetToken(ctx, owner); err == nil && token != "" {
		return &session{client: c, owner: owner, accessToken: token}, nil
	}

	account, err := c.accounts.GetSpotifyAccountByOwner(owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn().Str("owner", owner).Msg("no linked account; user must authorize via the web app")
			return nil, engine.ErrSessionUnavailable
		}
		return nil, fmt.Errorf("loading account for %s: %w", owner, err)
	}

	tok, err := c.Refresh(ctx, account.RefreshToken)
	if err != nil {
		log.Warn().Err(err).Str("owner", owner).Msg("token refresh failed; needs re-authorization")
		return nil, engine.ErrSessionUnavailable
	}

	ttl := time.Duration(tok.ExpiresIn)*time.Second - time.Minute
	if ttl > 0 {
		if err := c.tokens.SetToken(ctx, owner, tok.AccessToken, ttl); err != nil {
			log.Warn().Err(err).Str("owner", owner).Msg("could not cache access token")
		}
	}
	return &session{client: c, owner: owner, accessToken: tok.AccessToken}, nil
}
