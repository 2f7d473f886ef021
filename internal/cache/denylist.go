package cache

import (
	"context"
	"time"
)

// TokenDenylist stores revoked token IDs in a Cache until they expire.
type TokenDenylist struct {
	cache Cache
}

// NewTokenDenylist wraps c for use by the JWT manager.
func NewTokenDenylist(c Cache) *TokenDenylist {
	return &TokenDenylist{cache: c}
}

func (d *TokenDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return d.cache.Set(ctx, "revoked:"+tokenID, []byte{1}, ttl)
}

func (d *TokenDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, ok, err := d.cache.Get(ctx, "revoked:"+tokenID)
	return ok, err
}
