package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenKey = "calendar:access_token"

// TokenStore keeps the external calendar access token in Redis. The
// authorization consult before a sync attempt is simply "is a token
// present"; the OAuth dance that produces the token lives outside the
// engine.
type TokenStore struct {
	client *redis.Client
}

func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

// Authorized reports whether a calendar token is currently stored.
func (s *TokenStore) Authorized(ctx context.Context) bool {
	if s == nil || s.client == nil {
		return false
	}
	n, err := s.client.Exists(ctx, tokenKey).Result()
	return err == nil && n > 0
}

// Token returns the stored access token.
func (s *TokenStore) Token(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, tokenKey).Result()
	if err != nil {
		return "", fmt.Errorf("no calendar token stored: %w", err)
	}
	return token, nil
}

// SetToken stores a token with its remaining lifetime; authorization lapses
// with the TTL so an expired grant naturally turns sync off.
func (s *TokenStore) SetToken(ctx context.Context, token string, ttl time.Duration) error {
	return s.client.Set(ctx, tokenKey, token, ttl).Err()
}

// Clear revokes the stored token.
func (s *TokenStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, tokenKey).Err()
}
