package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/99minutos/auth-service/internal/core/domain"
)

const DefaultKeyPrefix = "auth:account:"

// CredentialStore keeps each account as one JSON value.
// Key format: <prefix><username>, default auth:account:<username>.
// Uniqueness comes from SET NX.
type CredentialStore struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

// NewCredentialStore wraps client. An empty prefix selects DefaultKeyPrefix.
func NewCredentialStore(client redis.Cmdable, prefix string) *CredentialStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &CredentialStore{client: client, prefix: prefix, now: time.Now}
}

type redisAccount struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	PasswordSalt   []byte    `json:"password_salt"`
	PasswordDigest []byte    `json:"password_digest"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *CredentialStore) Exists(ctx context.Context, username string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(username)).Result()
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return n > 0, nil
}

func (s *CredentialStore) Create(ctx context.Context, username string, salt, digest []byte) (*domain.Account, error) {
	rec := redisAccount{
		ID:             uuid.NewString(),
		Username:       username,
		PasswordSalt:   salt,
		PasswordDigest: digest,
		CreatedAt:      s.now().UTC(),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode account: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.key(username), payload, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	if !ok {
		return nil, domain.ErrDuplicateUsername
	}
	return rec.toDomain(), nil
}

func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	payload, err := s.client.Get(ctx, s.key(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	var rec redisAccount
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode account %q: %w", username, err)
	}
	return rec.toDomain(), nil
}

func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *CredentialStore) key(username string) string {
	return s.prefix + username
}

func (r redisAccount) toDomain() *domain.Account {
	return &domain.Account{
		ID:             r.ID,
		Username:       r.Username,
		PasswordSalt:   append([]byte(nil), r.PasswordSalt...),
		PasswordDigest: append([]byte(nil), r.PasswordDigest...),
		CreatedAt:      r.CreatedAt.UTC(),
	}
}
