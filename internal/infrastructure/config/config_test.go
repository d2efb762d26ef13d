package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": secret,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" || cfg.StoreDriver != DriverMemory {
		t.Fatalf("unexpected defaults: port=%q driver=%q", cfg.Port, cfg.StoreDriver)
	}
	if cfg.Token.Algorithm != "HS512" || cfg.Token.TTL != 24*time.Hour || cfg.Token.Leeway != 0 {
		t.Fatalf("unexpected token config: %+v", cfg.Token)
	}
	if cfg.RequestTimeout != 5*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected timeouts: %v %v", cfg.RequestTimeout, cfg.ShutdownTimeout)
	}
	if cfg.Argon2.MemoryKiB != 64*1024 || cfg.Argon2.Threads != 4 {
		t.Fatalf("unexpected argon2 config: %+v", cfg.Argon2)
	}
	p := cfg.CredentialPolicy()
	if p.MinUsernameLength != 3 || p.MaxUsernameLength != 32 || p.MinPasswordLength != 8 || p.MaxPasswordLength != 128 {
		t.Fatalf("unexpected policy: %+v", p)
	}
	if cfg.Redis.KeyPrefix != "auth:account:" {
		t.Fatalf("unexpected key prefix %q", cfg.Redis.KeyPrefix)
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":   secret,
		"STORE_DRIVER": "postgres",
		"TOKEN_TTL":    "15m",
		"JWT_ISSUER":   "auth-service",
		"ARGON2_TIME":  "3",
		"REDIS_DB":     "2",
		"ENV":          "production",
		"TOKEN_LEEWAY": "30s",
		"POSTGRES_DSN": "postgres://u:p@db:5432/auth",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StoreDriver != DriverPostgres || cfg.Token.TTL != 15*time.Minute || cfg.Token.Issuer != "auth-service" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Argon2.Time != 3 || cfg.Redis.DB != 2 || cfg.Token.Leeway != 30*time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.IsDevelopment() {
		t.Fatalf("production env reported as development")
	}
}

func TestLoadFrom_MissingSecret(t *testing.T) {
	if _, err := LoadFrom(context.Background(), envconfig.MapLookuper(nil)); err == nil {
		t.Fatalf("expected error when JWT_SECRET is unset")
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "JWT_SECRET"},
		{"unknown driver", map[string]string{"JWT_SECRET": secret, "STORE_DRIVER": "sqlite"}, "STORE_DRIVER"},
		{"username bounds", map[string]string{"JWT_SECRET": secret, "MIN_USERNAME_LENGTH": "10", "MAX_USERNAME_LENGTH": "5"}, "MIN_USERNAME_LENGTH"},
		{"password bounds", map[string]string{"JWT_SECRET": secret, "MIN_PASSWORD_LENGTH": "200"}, "MIN_PASSWORD_LENGTH"},
		{"zero ttl", map[string]string{"JWT_SECRET": secret, "TOKEN_TTL": "0s"}, "TOKEN_TTL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFrom(context.Background(), envconfig.MapLookuper(tc.env))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}
