package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// pgxIface is the part of *pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type pgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// CredentialStore keeps accounts in the accounts table. The UNIQUE constraint
// on username decides concurrent registrations.
type CredentialStore struct {
	pool pgxIface
}

func NewCredentialStore(pool pgxIface) *CredentialStore {
	return &CredentialStore{pool: pool}
}

const (
	existsSQL = `SELECT EXISTS(SELECT 1 FROM accounts WHERE username = $1)`
	insertSQL = `INSERT INTO accounts (username, password_salt, password_digest)
VALUES ($1, $2, $3)
RETURNING id, created_at`
	selectSQL = `SELECT id, username, password_salt, password_digest, created_at
FROM accounts WHERE username = $1`
)

func (s *CredentialStore) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, existsSQL, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

func (s *CredentialStore) Create(ctx context.Context, username string, salt, digest []byte) (*domain.Account, error) {
	var (
		id        string
		createdAt time.Time
	)
	err := s.pool.QueryRow(ctx, insertSQL, username, salt, digest).Scan(&id, &createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	return &domain.Account{
		ID:             id,
		Username:       username,
		PasswordSalt:   append([]byte(nil), salt...),
		PasswordDigest: append([]byte(nil), digest...),
		CreatedAt:      createdAt.UTC(),
	}, nil
}

func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var a domain.Account
	err := s.pool.QueryRow(ctx, selectSQL, username).
		Scan(&a.ID, &a.Username, &a.PasswordSalt, &a.PasswordDigest, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
