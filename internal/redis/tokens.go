package redis

import (
	"context"
	"time"
)

const tokenKeyPrefix = "spotify:token:"

// TokenCache stores short-lived player access tokens keyed by owner. It
// implements spotify.TokenCache.
type TokenCache struct{}

func NewTokenCache() TokenCache { return TokenCache{} }

func (TokenCache) GetToken(ctx context.Context, owner string) (string, error) {
	return Get(ctx, tokenKeyPrefix+owner)
}

func (TokenCache) SetToken(ctx context.Context, owner, token string, ttl time.Duration) error {
	return Set(ctx, tokenKeyPrefix+owner, token, ttl)
}
