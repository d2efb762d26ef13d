package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/ports"
)

// Operation and result labels passed to a Recorder.
const (
	OpRegister = "register"
	OpLogin    = "login"
	OpVerify   = "verify_token"

	ResultSuccess            = "success"
	ResultInvalidInput       = "invalid_input"
	ResultUsernameTaken      = "username_taken"
	ResultInvalidCredentials = "invalid_credentials"
	ResultTokenInvalid       = "invalid"
	ResultTokenExpired       = "expired"
	ResultUnavailable        = "unavailable"
)

// Recorder receives one call per finished operation.
type Recorder func(op, result string)

// AuthService implements registration, login and token verification. It holds
// no per-call state; concurrent calls only share the store and the issuer.
type AuthService struct {
	store  ports.CredentialStore
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	policy domain.CredentialPolicy
	log    zerolog.Logger
	record Recorder

	// verified against when the username is unknown, so both login failures
	// cost one hash
	dummySalt   []byte
	dummyDigest []byte
}

// Option configures an AuthService.
type Option func(*AuthService)

// WithRecorder installs an outcome recorder, typically Prometheus counters.
func WithRecorder(r Recorder) Option {
	return func(s *AuthService) {
		if r != nil {
			s.record = r
		}
	}
}

// NewAuthService wires the service. It computes one throwaway digest up
// front, which costs a single hash.
func NewAuthService(
	store ports.CredentialStore,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	policy domain.CredentialPolicy,
	log zerolog.Logger,
	opts ...Option,
) (*AuthService, error) {
	s := &AuthService{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		policy: policy,
		log:    log,
		record: func(string, string) {},
	}
	for _, opt := range opts {
		opt(s)
	}

	salt, err := hasher.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("auth service: dummy salt: %w", err)
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("auth service: dummy password: %w", err)
	}
	digest, err := hasher.Hash(context.Background(), string(secret), salt)
	if err != nil {
		return nil, fmt.Errorf("auth service: dummy digest: %w", err)
	}
	s.dummySalt, s.dummyDigest = salt, digest

	return s, nil
}

// Register creates an account for the normalized username.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.Identity, error) {
	username = domain.NormalizeUsername(username)

	if err := s.policy.Validate(username, password); err != nil {
		s.record(OpRegister, ResultInvalidInput)
		return nil, err
	}

	exists, err := s.store.Exists(ctx, username)
	if err != nil {
		return nil, s.unavailable(OpRegister, "check username", username, err)
	}
	if exists {
		s.record(OpRegister, ResultUsernameTaken)
		return nil, domain.ErrUsernameTaken
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, s.unavailable(OpRegister, "generate salt", username, err)
	}
	digest, err := s.hasher.Hash(ctx, password, salt)
	if err != nil {
		return nil, s.unavailable(OpRegister, "hash password", username, err)
	}

	// hashing may have eaten the deadline; do not start an insert we cannot finish
	if err := ctx.Err(); err != nil {
		return nil, s.unavailable(OpRegister, "before create", username, err)
	}

	account, err := s.store.Create(ctx, username, salt, digest)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			s.record(OpRegister, ResultUsernameTaken)
			return nil, domain.ErrUsernameTaken
		}
		return nil, s.unavailable(OpRegister, "create account", username, err)
	}

	s.record(OpRegister, ResultSuccess)
	s.log.Info().
		Str("account_id", account.ID).
		Str("username", account.Username).
		Msg("account registered")

	return account.Identity(), nil
}

// Login checks the credentials and issues a token. Unknown usernames and wrong
// passwords return the same domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.LoginResult, error) {
	username = domain.NormalizeUsername(username)
	if username == "" || password == "" || s.policy.ExceedsMaxPassword(password) {
		s.record(OpLogin, ResultInvalidCredentials)
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			if _, verr := s.hasher.Verify(ctx, password, s.dummySalt, s.dummyDigest); verr != nil {
				return nil, s.unavailable(OpLogin, "verify password", username, verr)
			}
			return nil, s.rejectLogin(username)
		}
		return nil, s.unavailable(OpLogin, "find account", username, err)
	}

	ok, err := s.hasher.Verify(ctx, password, account.PasswordSalt, account.PasswordDigest)
	if err != nil {
		return nil, s.unavailable(OpLogin, "verify password", username, err)
	}
	if !ok {
		return nil, s.rejectLogin(username)
	}

	token, expiresAt, err := s.tokens.Issue(account.ID, account.Username)
	if err != nil {
		return nil, s.unavailable(OpLogin, "issue token", username, err)
	}

	s.record(OpLogin, ResultSuccess)
	s.log.Info().
		Str("account_id", account.ID).
		Str("username", account.Username).
		Time("expires_at", expiresAt).
		Msg("login succeeded")

	return &domain.LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		AccountID: account.ID,
		Username:  account.Username,
	}, nil
}

// VerifyToken authenticates a bearer token issued by Login.
func (s *AuthService) VerifyToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.tokens.Verify(token)
	switch {
	case err == nil:
		s.record(OpVerify, ResultSuccess)
		return claims, nil
	case errors.Is(err, domain.ErrTokenExpired):
		s.record(OpVerify, ResultTokenExpired)
		return nil, domain.ErrTokenExpired
	default:
		s.record(OpVerify, ResultTokenInvalid)
		s.log.Debug().Err(err).Msg("token rejected")
		return nil, domain.ErrTokenInvalid
	}
}

func (s *AuthService) rejectLogin(username string) error {
	s.record(OpLogin, ResultInvalidCredentials)
	s.log.Info().Str("username", username).Msg("login rejected")
	return domain.ErrInvalidCredentials
}

// unavailable logs the real cause and returns an error whose text is generic.
func (s *AuthService) unavailable(op, step, username string, err error) error {
	s.record(op, ResultUnavailable)
	s.log.Error().
		Err(err).
		Str("operation", op).
		Str("step", step).
		Str("username", username).
		Msg("auth operation failed")
	return domain.Unavailable(err)
}
