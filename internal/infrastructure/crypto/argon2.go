// Package crypto implements password hashing with Argon2id.
package crypto

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// MinSaltLength is the shortest salt the hasher accepts.
const MinSaltLength = 16

// ErrInvalidParams is returned by NewArgon2idHasher for unusable parameters.
var ErrInvalidParams = errors.New("invalid argon2 parameters")

// Params controls the Argon2id work factor.
type Params struct {
	Time      uint32 // iterations
	MemoryKiB uint32
	Threads   uint8
	KeyLength uint32
	// SaltLength is the number of random bytes produced by GenerateSalt.
	SaltLength int
	// MaxConcurrency caps simultaneous hash computations. Zero means GOMAXPROCS.
	MaxConcurrency int
}

// DefaultParams returns the OWASP-recommended Argon2id settings.
func DefaultParams() Params {
	return Params{
		Time:       1,
		MemoryKiB:  64 * 1024,
		Threads:    4,
		KeyLength:  32,
		SaltLength: MinSaltLength,
	}
}

// Argon2idHasher implements ports.PasswordHasher.
type Argon2idHasher struct {
	params  Params
	slots   *semaphore.Weighted
	observe func(time.Duration)
	entropy io.Reader
}

// Option configures an Argon2idHasher.
type Option func(*Argon2idHasher)

// WithObserver registers a callback that receives the duration of every
// digest computation.
func WithObserver(fn func(time.Duration)) Option {
	return func(h *Argon2idHasher) {
		if fn != nil {
			h.observe = fn
		}
	}
}

func NewArgon2idHasher(p Params, opts ...Option) (*Argon2idHasher, error) {
	switch {
	case p.Time == 0:
		return nil, fmt.Errorf("%w: time must be positive", ErrInvalidParams)
	case p.Threads == 0:
		return nil, fmt.Errorf("%w: threads must be positive", ErrInvalidParams)
	case p.MemoryKiB < 8*uint32(p.Threads):
		return nil, fmt.Errorf("%w: memory must be at least 8 KiB per thread", ErrInvalidParams)
	case p.KeyLength < 16:
		return nil, fmt.Errorf("%w: key length must be at least 16 bytes", ErrInvalidParams)
	case p.SaltLength < MinSaltLength:
		return nil, fmt.Errorf("%w: salt length must be at least %d bytes", ErrInvalidParams, MinSaltLength)
	}

	limit := p.MaxConcurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	h := &Argon2idHasher{
		params:  p,
		slots:   semaphore.NewWeighted(int64(limit)),
		observe: func(time.Duration) {},
		entropy: rand.Reader,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// GenerateSalt returns fresh random bytes from crypto/rand.
func (h *Argon2idHasher) GenerateSalt() ([]byte, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(h.entropy, salt); err != nil {
		return nil, fmt.Errorf("%w: generate salt: %w", domain.ErrUnavailable, err)
	}
	return salt, nil
}

// Hash derives the digest of password under salt. It blocks while all hashing
// slots are busy and gives up when ctx is done.
func (h *Argon2idHasher) Hash(ctx context.Context, password string, salt []byte) ([]byte, error) {
	if len(salt) < MinSaltLength {
		return nil, fmt.Errorf("salt must be at least %d bytes, got %d", MinSaltLength, len(salt))
	}
	return h.derive(ctx, password, salt)
}

// Verify recomputes the digest and compares it in constant time.
func (h *Argon2idHasher) Verify(ctx context.Context, password string, salt, digest []byte) (bool, error) {
	if len(salt) < MinSaltLength || len(digest) != int(h.params.KeyLength) {
		return false, nil
	}
	computed, err := h.derive(ctx, password, salt)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(computed, digest) == 1, nil
}

func (h *Argon2idHasher) derive(ctx context.Context, password string, salt []byte) ([]byte, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer h.slots.Release(1)

	start := time.Now()
	digest := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLength)
	h.observe(time.Since(start))
	return digest, nil
}
