// Package token issues and verifies HMAC-signed JWT bearer tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/auth-service/internal/core/domain"
)

const (
	DefaultTTL       = 24 * time.Hour
	MinSecretLength  = 32
	DefaultAlgorithm = "HS512"
)

var (
	ErrSecretTooShort       = fmt.Errorf("signing secret must be at least %d bytes", MinSecretLength)
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
)

// accountClaims carries the account id in sub and the username in name.
type accountClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
}

// JWTIssuer implements ports.TokenIssuer. It is safe for concurrent use; all
// fields are fixed at construction.
type JWTIssuer struct {
	method *jwt.SigningMethodHMAC
	secret []byte
	ttl    time.Duration
	leeway time.Duration
	issuer string
	now    func() time.Time
}

// Option configures a JWTIssuer.
type Option func(*JWTIssuer)

// WithTTL sets the validity window of issued tokens.
func WithTTL(d time.Duration) Option {
	return func(j *JWTIssuer) {
		if d > 0 {
			j.ttl = d
		}
	}
}

// WithLeeway tolerates clock skew when checking expiry.
func WithLeeway(d time.Duration) Option {
	return func(j *JWTIssuer) {
		if d >= 0 {
			j.leeway = d
		}
	}
}

// WithIssuer sets the iss claim and requires it on verification.
func WithIssuer(iss string) Option {
	return func(j *JWTIssuer) {
		j.issuer = iss
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(j *JWTIssuer) {
		if now != nil {
			j.now = now
		}
	}
}

// NewJWTIssuer builds an issuer for one of HS256, HS384 or HS512. An empty
// algorithm selects DefaultAlgorithm. The secret is copied.
func NewJWTIssuer(secret []byte, algorithm string, opts ...Option) (*JWTIssuer, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	if algorithm == "" {
		algorithm = DefaultAlgorithm
	}

	var method *jwt.SigningMethodHMAC
	switch algorithm {
	case jwt.SigningMethodHS256.Alg():
		method = jwt.SigningMethodHS256
	case jwt.SigningMethodHS384.Alg():
		method = jwt.SigningMethodHS384
	case jwt.SigningMethodHS512.Alg():
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}

	j := &JWTIssuer{
		method: method,
		secret: append([]byte(nil), secret...),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Issue signs a token for the account. Issuance time is truncated to whole
// seconds so the exp claim is exactly iat + ttl.
func (j *JWTIssuer) Issue(accountID, username string) (string, time.Time, error) {
	if accountID == "" || username == "" {
		return "", time.Time{}, errors.New("token: account id and username are required")
	}

	issuedAt := j.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(j.ttl)

	claims := accountClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Name: username,
	}

	signed, err := jwt.NewWithClaims(j.method, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm and expiry. A token is valid strictly
// before its exp instant.
func (j *JWTIssuer) Verify(tokenString string) (*domain.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{j.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(j.leeway),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := &accountClaims{}
	tkn, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	})
	if err != nil {
		return nil, mapJWTError(err)
	}
	if !tkn.Valid || claims.Subject == "" || claims.Name == "" {
		return nil, domain.ErrTokenInvalid
	}

	out := &domain.Claims{
		AccountID: claims.Subject,
		Username:  claims.Name,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return out, nil
}

// mapJWTError collapses jwt errors into the two verification outcomes.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return fmt.Errorf("%w: %w", domain.ErrTokenExpired, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrTokenInvalid, err)
}
