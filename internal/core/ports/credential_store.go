package ports

import (
	"context"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// CredentialStore persists account credentials. Usernames passed in are
// already normalized.
type CredentialStore interface {
	Exists(ctx context.Context, username string) (bool, error)
	// Create inserts the account atomically. A concurrent or prior account with
	// the same username yields domain.ErrDuplicateUsername.
	Create(ctx context.Context, username string, salt, digest []byte) (*domain.Account, error)
	// FindByUsername returns domain.ErrAccountNotFound when no account matches.
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	Ping(ctx context.Context) error
}
