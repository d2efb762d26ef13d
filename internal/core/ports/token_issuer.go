package ports

import (
	"time"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	Issue(accountID, username string) (token string, expiresAt time.Time, err error)
	// Verify returns domain.ErrTokenExpired for an expired token and
	// domain.ErrTokenInvalid for anything else that fails.
	Verify(token string) (*domain.Claims, error)
}
