// Package tokenstore persists provider OAuth tokens in Redis so multiple
// instances share them and expiry is enforced by the store itself.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when no token is stored for a provider/user pair.
var ErrNotFound = errors.New("token not found")

// Token is a provider OAuth token as returned by a code exchange.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

// RedisStore stores tokens under "<prefix>:<provider>:<userKey>".
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// New connects to redisURL and returns a store using keyPrefix.
func New(redisURL, keyPrefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if keyPrefix == "" {
		keyPrefix = "maestro:tokens"
	}
	return &RedisStore{
		client:    redis.NewClient(opts),
		keyPrefix: keyPrefix,
	}, nil
}

// Close releases the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(provider, userKey string) string {
	return fmt.Sprintf("%s:%s:%s", s.keyPrefix, provider, userKey)
}

// Save stores the token. A token with ExpiresIn set expires from the store
// when the provider token does.
func (s *RedisStore) Save(ctx context.Context, provider, userKey string, token Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("serialize token: %w", err)
	}
	var ttl time.Duration
	if token.ExpiresIn > 0 {
		ttl = time.Duration(token.ExpiresIn) * time.Second
	}
	if err := s.client.Set(ctx, s.key(provider, userKey), data, ttl).Err(); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// Load returns the stored token for a provider/user pair.
func (s *RedisStore) Load(ctx context.Context, provider, userKey string) (*Token, error) {
	data, err := s.client.Get(ctx, s.key(provider, userKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	token := &Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, fmt.Errorf("deserialize token: %w", err)
	}
	return token, nil
}

// Delete removes a stored token.
func (s *RedisStore) Delete(ctx context.Context, provider, userKey string) error {
	if err := s.client.Del(ctx, s.key(provider, userKey)).Err(); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
