package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
	"github.com/99minutos/auth-service/internal/core/service"
	"github.com/99minutos/auth-service/internal/infrastructure/crypto"
	"github.com/99minutos/auth-service/internal/infrastructure/db/memory"
	"github.com/99minutos/auth-service/internal/infrastructure/token"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	hasher, err := crypto.NewArgon2idHasher(crypto.Params{Time: 1, MemoryKiB: 1024, Threads: 1, KeyLength: 32, SaltLength: 16})
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	issuer, err := token.NewJWTIssuer([]byte("router-test-secret-0123456789abcdef"), "")
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	store := memory.NewCredentialStore(0)
	svc, err := service.NewAuthService(store, hasher, issuer, domain.DefaultCredentialPolicy(), zerolog.Nop())
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	srv := httptest.NewServer(NewRouter(Deps{
		Auth:           svc,
		Store:          store,
		StoreDriver:    "memory",
		RequestTimeout: 5 * time.Second,
		Log:            zerolog.Nop(),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body, bearer string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func TestRouter_RegisterLoginMe(t *testing.T) {
	srv := newTestServer(t)

	code, body := do(t, http.MethodPost, srv.URL+"/auth/register", `{"username":"Alice","password":"correct-horse"}`, "")
	if code != http.StatusCreated || body["username"] != "alice" {
		t.Fatalf("register: %d %v", code, body)
	}

	code, body = do(t, http.MethodPost, srv.URL+"/auth/register", `{"username":"ALICE","password":"other-horse"}`, "")
	if code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d %v", code, body)
	}

	code, body = do(t, http.MethodPost, srv.URL+"/auth/login", `{"username":"alice","password":"correct-horse"}`, "")
	if code != http.StatusOK {
		t.Fatalf("login: %d %v", code, body)
	}
	tok, _ := body["token"].(string)
	if tok == "" {
		t.Fatalf("login returned no token: %v", body)
	}

	code, body = do(t, http.MethodGet, srv.URL+"/auth/me", "", tok)
	if code != http.StatusOK || body["username"] != "alice" {
		t.Fatalf("me: %d %v", code, body)
	}

	code, _ = do(t, http.MethodGet, srv.URL+"/auth/me", "", tok+"x")
	if code != http.StatusUnauthorized {
		t.Fatalf("tampered token: expected 401, got %d", code)
	}
}

func TestRouter_LoginFailuresLookAlike(t *testing.T) {
	srv := newTestServer(t)
	do(t, http.MethodPost, srv.URL+"/auth/register", `{"username":"alice","password":"correct-horse"}`, "")

	code1, body1 := do(t, http.MethodPost, srv.URL+"/auth/login", `{"username":"alice","password":"wrong-horse"}`, "")
	code2, body2 := do(t, http.MethodPost, srv.URL+"/auth/login", `{"username":"nobody","password":"correct-horse"}`, "")

	if code1 != http.StatusUnauthorized || code2 != http.StatusUnauthorized {
		t.Fatalf("expected 401 twice, got %d and %d", code1, code2)
	}
	if body1["error"] != body2["error"] {
		t.Fatalf("bodies differ: %v vs %v", body1, body2)
	}
}

func TestRouter_LoginEmptyPasswordIsUnauthorized(t *testing.T) {
	srv := newTestServer(t)
	do(t, http.MethodPost, srv.URL+"/auth/register", `{"username":"alice","password":"correct-horse"}`, "")

	_, wrong := do(t, http.MethodPost, srv.URL+"/auth/login", `{"username":"alice","password":"wrong-horse"}`, "")
	for _, body := range []string{
		`{"username":"alice","password":""}`,
		`{"username":"alice"}`,
		`{"username":"","password":"correct-horse"}`,
	} {
		code, resp := do(t, http.MethodPost, srv.URL+"/auth/login", body, "")
		if code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d %v", body, code, resp)
		}
		if resp["error"] != wrong["error"] {
			t.Fatalf("%s: body differs from wrong-password body: %v vs %v", body, resp, wrong)
		}
	}
}

func TestRouter_BodyLimit(t *testing.T) {
	srv := newTestServer(t)

	body := `{"username":"alice","password":"` + strings.Repeat("x", 64*1024) + `"}`
	code, _ := do(t, http.MethodPost, srv.URL+"/auth/login", body, "")
	if code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", code)
	}
}

func TestRouter_RegisterPolicyViolation(t *testing.T) {
	srv := newTestServer(t)

	code, body := do(t, http.MethodPost, srv.URL+"/auth/register", `{"username":"al","password":"correct-horse"}`, "")
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %v", code, body)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	if code, _ := do(t, http.MethodGet, srv.URL+"/health", "", ""); code != http.StatusOK {
		t.Fatalf("health: %d", code)
	}
	if code, body := do(t, http.MethodGet, srv.URL+"/health/ready", "", ""); code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("ready: %d %v", code, body)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: %d", resp.StatusCode)
	}
}
