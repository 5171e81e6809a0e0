package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"crcsite/internal/ids"
	"crcsite/internal/models"
)

var ErrNotFound = errors.New("session not found")

const keyPrefix = "session:"

// Store keeps UI login sessions in Redis. Each session is a JSON blob
// under an unguessable ksuid key with the configured TTL; expiry is
// enforced by Redis itself.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Create persists a new session for the identity and returns its ID.
func (s *Store) Create(ctx context.Context, identity models.Identity) (string, error) {
	payload, err := json.Marshal(identity)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}

	id := ids.New()
	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return id, nil
}

// Get resolves a session ID to the identity it was created with.
func (s *Store) Get(ctx context.Context, id string) (models.Identity, error) {
	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Identity{}, ErrNotFound
		}
		return models.Identity{}, fmt.Errorf("load session: %w", err)
	}

	var identity models.Identity
	if err := json.Unmarshal(payload, &identity); err != nil {
		return models.Identity{}, fmt.Errorf("decode session: %w", err)
	}
	return identity, nil
}

// Delete removes a session. Deleting an unknown ID is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, keyPrefix+id).Err()
}

// TTL returns the configured session lifetime, used for the cookie
// max-age so cookie and server state expire together.
func (s *Store) TTL() time.Duration {
	return s.ttl
}
