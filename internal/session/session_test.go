package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/acrophobia/acroclient/internal/rest"
	"github.com/acrophobia/acroclient/internal/socket"
)

// offlineConn returns an event channel whose dial always fails fast, for tests
// that only exercise the identity flow.
func offlineConn() *socket.Conn {
	cfg := socket.DefaultConfig("ws://127.0.0.1:1")
	cfg.DialTimeout = 50 * time.Millisecond
	return socket.NewConn(cfg)
}

type identityRecorder struct {
	mu  sync.Mutex
	ids []Identity
}

func (r *identityRecorder) record(id Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

func (r *identityRecorder) last(t *testing.T) Identity {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ids) == 0 {
		t.Fatal("no identity change observed")
	}
	return r.ids[len(r.ids)-1]
}

func TestRestoreWithValidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != rest.MeEndpoint {
			t.Errorf("unexpected request %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer cached-tok" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(rest.Profile{Username: "alice"})
	}))
	defer srv.Close()

	store := NewCredentialStore(filepath.Join(t.TempDir(), "creds.json"))
	if err := store.Save(Credentials{Token: "cached-tok", Username: "alice"}); err != nil {
		t.Fatalf("seed credentials: %v", err)
	}

	m := NewManager(rest.NewClient(srv.URL), offlineConn(), store, time.Second)
	id := m.Restore(context.Background())

	if !id.Authenticated || id.Username != "alice" || id.Token != "cached-tok" {
		t.Fatalf("restored identity = %+v", id)
	}
	if got := m.Identity(); got != id {
		t.Fatalf("Identity() = %+v, want %+v", got, id)
	}
}

func TestRestoreFallsBackToCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case rest.MeEndpoint:
			http.Error(w, "token expired", http.StatusUnauthorized)
		case rest.LoginTokenEndpoint:
			json.NewEncoder(w).Encode(rest.AuthResponse{Token: "fresh-tok", Username: "alice"})
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	store := NewCredentialStore(filepath.Join(t.TempDir(), "creds.json"))
	if err := store.Save(Credentials{Token: "expired-tok", Cookie: "cookie-7"}); err != nil {
		t.Fatalf("seed credentials: %v", err)
	}

	m := NewManager(rest.NewClient(srv.URL), offlineConn(), store, time.Second)
	id := m.Restore(context.Background())

	if !id.Authenticated || id.Token != "fresh-tok" {
		t.Fatalf("restored identity = %+v", id)
	}

	// The refreshed token must be persisted for the next start.
	creds, err := store.Load()
	if err != nil {
		t.Fatalf("reload credentials: %v", err)
	}
	if creds.Token != "fresh-tok" || creds.Cookie != "cookie-7" {
		t.Fatalf("persisted credentials = %+v", creds)
	}
}

func TestRestoreWithoutCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s with no cached credentials", r.URL.Path)
	}))
	defer srv.Close()

	store := NewCredentialStore(filepath.Join(t.TempDir(), "creds.json"))
	m := NewManager(rest.NewClient(srv.URL), offlineConn(), store, time.Second)

	if id := m.Restore(context.Background()); id.Authenticated {
		t.Fatalf("identity without credentials = %+v", id)
	}
}

func TestRestoreFailsOpenOnTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		http.Error(w, "too late", http.StatusGatewayTimeout)
	}))
	defer srv.Close()
	defer close(release)

	store := NewCredentialStore(filepath.Join(t.TempDir(), "creds.json"))
	if err := store.Save(Credentials{Token: "cached-tok"}); err != nil {
		t.Fatalf("seed credentials: %v", err)
	}

	fc := clockwork.NewFakeClock()
	m := NewManagerWithClock(rest.NewClient(srv.URL), offlineConn(), store, 2*time.Second, fc)

	go func() {
		fc.BlockUntil(1)
		fc.Advance(3 * time.Second)
	}()

	id := m.Restore(context.Background())
	if id.Authenticated {
		t.Fatalf("timed-out restore resolved authenticated: %+v", id)
	}
}

func TestTimedOutRestoreDiscardsLateCookieRefresh(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case rest.MeEndpoint:
			http.Error(w, "token expired", http.StatusUnauthorized)
		case rest.LoginTokenEndpoint:
			select {
			case <-release:
			case <-r.Context().Done():
				return
			}
			json.NewEncoder(w).Encode(rest.AuthResponse{Token: "late-tok", Username: "alice"})
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	}))
	defer srv.Close()
	defer close(release)

	store := NewCredentialStore(filepath.Join(t.TempDir(), "creds.json"))
	seeded := Credentials{Token: "expired-tok", Cookie: "cookie-7"}
	if err := store.Save(seeded); err != nil {
		t.Fatalf("seed credentials: %v", err)
	}

	fc := clockwork.NewFakeClock()
	m := NewManagerWithClock(rest.NewClient(srv.URL), offlineConn(), store, 2*time.Second, fc)

	go func() {
		fc.BlockUntil(1)
		fc.Advance(3 * time.Second)
	}()

	if id := m.Restore(context.Background()); id.Authenticated {
		t.Fatalf("timed-out restore resolved authenticated: %+v", id)
	}

	// The cookie refresh that raced the deadline must be discarded, not
	// persisted or installed, even once its response arrives.
	deadline := time.After(300 * time.Millisecond)
	for {
		creds, err := store.Load()
		if err != nil {
			t.Fatalf("reload credentials: %v", err)
		}
		if creds == nil || *creds != seeded {
			t.Fatalf("timed-out restore rewrote credentials: %+v", creds)
		}
		select {
		case <-deadline:
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestLoginPersistsCredentialsAndNotifies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != rest.LoginEndpoint {
			t.Errorf("unexpected request %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(rest.AuthResponse{Token: "tok-1", Username: "alice"})
	}))
	defer srv.Close()

	store := NewCredentialStore(filepath.Join(t.TempDir(), "creds.json"))
	m := NewManager(rest.NewClient(srv.URL), offlineConn(), store, time.Second)

	rec := &identityRecorder{}
	m.OnIdentityChange(rec.record)

	id, err := m.Login(context.Background(), "alice", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !id.Authenticated || id.Username != "alice" {
		t.Fatalf("identity = %+v", id)
	}
	if got := rec.last(t); got != id {
		t.Fatalf("observer saw %+v, want %+v", got, id)
	}

	creds, err := store.Load()
	if err != nil || creds == nil {
		t.Fatalf("reload credentials: %+v, %v", creds, err)
	}
	if creds.Token != "tok-1" || creds.Username != "alice" {
		t.Fatalf("persisted credentials = %+v", creds)
	}
}

func TestLoginFailureKeepsIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad password", http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := NewCredentialStore(filepath.Join(t.TempDir(), "creds.json"))
	m := NewManager(rest.NewClient(srv.URL), offlineConn(), store, time.Second)

	if _, err := m.Login(context.Background(), "alice", "wrong"); err == nil {
		t.Fatal("expected login failure")
	}
	if id := m.Identity(); id.Authenticated {
		t.Fatalf("failed login mutated identity: %+v", id)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(rest.AuthResponse{Token: "tok-1", Username: "alice"})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "creds.json")
	store := NewCredentialStore(path)
	m := NewManager(rest.NewClient(srv.URL), offlineConn(), store, time.Second)

	if _, err := m.Login(context.Background(), "alice", "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	rec := &identityRecorder{}
	m.OnIdentityChange(rec.record)

	m.Logout()
	m.Logout()

	if id := m.Identity(); id.Authenticated {
		t.Fatalf("identity after logout = %+v", id)
	}
	if got := rec.last(t); got.Authenticated {
		t.Fatalf("observer saw %+v after logout", got)
	}
	if creds, err := store.Load(); err != nil || creds != nil {
		t.Fatalf("credentials after logout = %+v, %v", creds, err)
	}
}

func TestCredentialStoreRoundTrip(t *testing.T) {
	store := NewCredentialStore(filepath.Join(t.TempDir(), "nested", "creds.json"))

	// Missing file is not an error.
	if creds, err := store.Load(); err != nil || creds != nil {
		t.Fatalf("Load on empty store = %+v, %v", creds, err)
	}

	want := Credentials{Token: "tok", Cookie: "cky", Username: "alice"}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	creds, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *creds != want {
		t.Fatalf("Load = %+v, want %+v", *creds, want)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}
