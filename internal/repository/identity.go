package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var ErrIdentityNotFound = errors.New("identity not found")

// Identity is the mirror's own seat at the table: the player identifier the
// authority knows us by and the last game instance we were attached to. It is
// persisted so a restarted mirror reconnects as the same player. Game history
// is never stored.
type Identity struct {
	PlayerID string `json:"player_id"`
	GameID   string `json:"game_id,omitempty"`
}

type IdentityRepository interface {
	Save(ctx context.Context, identity *Identity) error
	Get(ctx context.Context) (*Identity, error)
}

const identityKey = "mirror:identity"

type dbIdentity struct {
	client *redis.Client
}

func NewIdentityRepository(client *redis.Client) IdentityRepository {
	return &dbIdentity{
		client: client,
	}
}

func (that *dbIdentity) Save(ctx context.Context, identity *Identity) error {
	identityJSON, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("could not marshal identity: %w", err)
	}

	err = that.client.Set(ctx, identityKey, identityJSON, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set identity: %w", err)
	}

	return nil
}

func (that *dbIdentity) Get(ctx context.Context) (*Identity, error) {
	response, err := that.client.Get(ctx, identityKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrIdentityNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	var identity Identity
	if err = json.Unmarshal([]byte(response), &identity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal identity: %w", err)
	}

	return &identity, nil
}
