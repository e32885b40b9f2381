package spotify

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundcue/soundcue/internal/engine"
	"github.com/soundcue/soundcue/internal/model"
)

type memAccounts struct {
	accounts map[string]*model.SpotifyAccount
}

func (m *memAccounts) GetSpotifyAccountByOwner(spotifyUserID string) (*model.SpotifyAccount, error) {
	account, ok := m.accounts[spotifyUserID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return account, nil
}

type memTokens struct {
	tokens map[string]string
	ttls   map[string]time.Duration
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memTokens) GetToken(ctx context.Context, owner string) (string, error) {
	return m.tokens[owner], nil
}

func (m *memTokens) SetToken(ctx context.Context, owner, token string, ttl time.Duration) error {
	m.tokens[owner] = token
	m.ttls[owner] = ttl
	return nil
}

func TestAuthorizeURL(t *testing.T) {
	c := NewClient(Config{ClientID: "client-id", RedirectURI: "https://app.example/callback"}, nil, nil)

	raw := c.AuthorizeURL("opaque-state")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/authorize", u.Path)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "https://app.example/callback", q.Get("redirect_uri"))
	assert.Equal(t, "opaque-state", q.Get("state"))
	assert.Contains(t, q.Get("scope"), "user-modify-playback-state")
}

func TestSession_CachedTokenSkipsRefresh(t *testing.T) {
	refreshCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	tokens := newMemTokens()
	tokens.tokens["owner"] = "cached-token"
	c := NewClient(Config{ClientID: "id", ClientSecret: "secret"}, &memAccounts{}, tokens)
	c.SetBaseURLs(srv.URL, srv.URL)

	sess, err := c.newSession(context.Background(), "owner")
	require.NoError(t, err)
	assert.Equal(t, "cached-token", sess.accessToken)
	assert.Zero(t, refreshCalls)
}

func TestSession_RefreshesAndCaches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "stored-refresh", r.PostForm.Get("refresh_token"))
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)
		_, _ = w.Write([]byte(`{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)

	accounts := &memAccounts{accounts: map[string]*model.SpotifyAccount{
		"owner": {SpotifyUserID: "owner", RefreshToken: "stored-refresh"},
	}}
	tokens := newMemTokens()
	c := NewClient(Config{ClientID: "id", ClientSecret: "secret"}, accounts, tokens)
	c.SetBaseURLs(srv.URL, srv.URL)

	sess, err := c.newSession(context.Background(), "owner")
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", sess.accessToken)

	// Cached slightly short of expiry so a token never goes stale mid-tick.
	assert.Equal(t, "fresh-token", tokens.tokens["owner"])
	assert.Equal(t, 59*time.Minute, tokens.ttls["owner"])
}

func TestSession_NoLinkedAccount(t *testing.T) {
	c := NewClient(Config{}, &memAccounts{}, newMemTokens())

	_, err := c.Session(context.Background(), "stranger")
	assert.ErrorIs(t, err, engine.ErrSessionUnavailable)
}

func TestSession_FailedRefreshIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	t.Cleanup(srv.Close)

	accounts := &memAccounts{accounts: map[string]*model.SpotifyAccount{
		"owner": {SpotifyUserID: "owner", RefreshToken: "revoked"},
	}}
	c := NewClient(Config{ClientID: "id", ClientSecret: "secret"}, accounts, newMemTokens())
	c.SetBaseURLs(srv.URL, srv.URL)

	_, err := c.Session(context.Background(), "owner")
	assert.ErrorIs(t, err, engine.ErrSessionUnavailable)
}

func TestExchange_SendsAuthorizationCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "https://app.example/callback", r.PostForm.Get("redirect_uri"))
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600,"scope":"user-read-playback-state"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Config{ClientID: "id", ClientSecret: "secret", RedirectURI: "https://app.example/callback"}, nil, nil)
	c.SetBaseURLs(srv.URL, srv.URL)

	tok, err := c.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)
	assert.Equal(t, "rt", tok.RefreshToken)
}
