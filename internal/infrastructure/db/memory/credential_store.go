// Package memory provides an in-process CredentialStore.
package memory

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/99minutos/auth-service/internal/core/domain"
)

const defaultShards = 16

// shard owns a slice of the username space. Its mutex is the single writer
// for every username that hashes to it.
type shard struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
}

// CredentialStore keeps accounts in memory, sharded by username.
type CredentialStore struct {
	shards []*shard
	now    func() time.Time
}

// NewCredentialStore creates a store with numShards shards.
// If numShards <= 0, defaultShards is used.
func NewCredentialStore(numShards int) *CredentialStore {
	if numShards <= 0 {
		numShards = defaultShards
	}
	s := &CredentialStore{
		shards: make([]*shard, numShards),
		now:    time.Now,
	}
	for i := range s.shards {
		s.shards[i] = &shard{accounts: make(map[string]domain.Account)}
	}
	return s
}

func (s *CredentialStore) Exists(ctx context.Context, username string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	sh := s.shardFor(username)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	_, ok := sh.accounts[username]
	return ok, nil
}

// Create checks and inserts under the shard lock.
func (s *CredentialStore) Create(ctx context.Context, username string, salt, digest []byte) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sh := s.shardFor(username)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.accounts[username]; ok {
		return nil, domain.ErrDuplicateUsername
	}

	account := domain.Account{
		ID:             uuid.NewString(),
		Username:       username,
		PasswordSalt:   clone(salt),
		PasswordDigest: clone(digest),
		CreatedAt:      s.now().UTC(),
	}
	sh.accounts[username] = account
	return copyAccount(account), nil
}

func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sh := s.shardFor(username)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	account, ok := sh.accounts[username]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return copyAccount(account), nil
}

func (s *CredentialStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// shardFor maps a username deterministically to a shard.
func (s *CredentialStore) shardFor(username string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// callers never share byte slices with the store
func copyAccount(a domain.Account) *domain.Account {
	a.PasswordSalt = clone(a.PasswordSalt)
	a.PasswordDigest = clone(a.PasswordDigest)
	return &a
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
