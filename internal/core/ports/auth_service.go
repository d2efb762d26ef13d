package ports

import (
	"context"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// TokenVerifier is the slice of AuthService the bearer middleware needs.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*domain.Claims, error)
}

type AuthService interface {
	TokenVerifier
	Register(ctx context.Context, username, password string) (*domain.Identity, error)
	Login(ctx context.Context, username, password string) (*domain.LoginResult, error)
}
