package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/acrophobia/acroclient/internal/protocol"
	"github.com/acrophobia/acroclient/internal/rest"
	"github.com/acrophobia/acroclient/internal/socket"
)

// Identity is the resolved user behind this client. Owned exclusively by the
// Manager; everything else reads copies.
type Identity struct {
	Username      string
	Authenticated bool
	Token         string
}

// Manager gates all room and game functionality behind a resolved identity.
// It is the only component allowed to connect or disconnect the event
// channel, so a connection can never exist before identity is known.
type Manager struct {
	api            *rest.Client
	conn           *socket.Conn
	store          *CredentialStore
	clock          clockwork.Clock
	restoreTimeout time.Duration

	mu       sync.Mutex
	identity Identity

	observerMu sync.Mutex
	onIdentity func(Identity)
}

// NewManager wires the session manager to its REST client, event channel and
// credential store.
func NewManager(api *rest.Client, conn *socket.Conn, store *CredentialStore, restoreTimeout time.Duration) *Manager {
	return NewManagerWithClock(api, conn, store, restoreTimeout, clockwork.NewRealClock())
}

// NewManagerWithClock injects a clock, for tests.
func NewManagerWithClock(api *rest.Client, conn *socket.Conn, store *CredentialStore, restoreTimeout time.Duration, clock clockwork.Clock) *Manager {
	m := &Manager{
		api:            api,
		conn:           conn,
		store:          store,
		clock:          clock,
		restoreTimeout: restoreTimeout,
	}
	conn.OnStateChange(m.handleConnState)
	return m
}

// OnIdentityChange registers the single identity observer. The game layer
// uses it to reset room and round state when identity is lost.
func (m *Manager) OnIdentityChange(fn func(Identity)) {
	m.observerMu.Lock()
	defer m.observerMu.Unlock()
	m.onIdentity = fn
}

// Identity returns a copy of the current identity.
func (m *Manager) Identity() Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// Restore attempts a silent session restore: the cached bearer token first,
// then the stored cookie. It always resolves within the configured timeout
// and fails open to unauthenticated on any error, so the UI is never stuck
// behind an unresolved identity check.
func (m *Manager) Restore(ctx context.Context) Identity {
	creds, err := m.store.Load()
	if err != nil {
		log.Warn().Err(err).Msg("credential cache unreadable, starting unauthenticated")
		return m.apply(Identity{})
	}
	if creds == nil || (creds.Token == "" && creds.Cookie == "") {
		return m.apply(Identity{})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make(chan Identity, 1)
	go func() {
		result <- m.tryRestore(ctx, *creds)
	}()

	select {
	case id := <-result:
		resolved := m.apply(id)
		if resolved.Authenticated {
			m.connect(ctx, resolved.Token)
		}
		return resolved
	case <-m.clock.After(m.restoreTimeout):
		cancel()
		log.Warn().Dur("timeout", m.restoreTimeout).Msg("session restore timed out")
		m.api.SetToken("")
		m.api.SetCookie("")
		return m.apply(Identity{})
	case <-ctx.Done():
		return m.apply(Identity{})
	}
}

func (m *Manager) tryRestoreToken(ctx context.Context, token string) (Identity, bool) {
	m.api.SetToken(token)
	profile, err := m.api.Me(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("token restore rejected")
		m.api.SetToken("")
		return Identity{}, false
	}
	return Identity{Username: profile.Username, Authenticated: true, Token: token}, true
}

// tryRestore resolves credentials against the backend. The token takes
// precedence; the stored cookie is the fallback.
func (m *Manager) tryRestore(ctx context.Context, creds Credentials) Identity {
	if creds.Token != "" {
		if id, ok := m.tryRestoreToken(ctx, creds.Token); ok {
			return id
		}
	}

	if creds.Cookie != "" {
		m.api.SetCookie(creds.Cookie)
		auth, err := m.api.LoginToken(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("cookie restore rejected")
			m.api.SetCookie("")
			return Identity{}
		}
		// Restore may already have timed out and resolved unauthenticated; a
		// refresh that raced the deadline must not be installed or persisted.
		if ctx.Err() != nil {
			m.api.SetCookie("")
			return Identity{}
		}
		creds.Token = auth.Token
		creds.Username = auth.Username
		if err := m.store.Save(creds); err != nil {
			log.Warn().Err(err).Msg("failed to persist refreshed token")
		}
		m.api.SetToken(auth.Token)
		return Identity{Username: auth.Username, Authenticated: true, Token: auth.Token}
	}

	return Identity{}
}

// Login authenticates with a username and password. On success the credential
// is persisted and the event channel is connected with it.
func (m *Manager) Login(ctx context.Context, username, password string) (Identity, error) {
	auth, err := m.api.Login(ctx, username, password)
	if err != nil {
		return m.Identity(), err
	}
	return m.adopt(ctx, auth), nil
}

// Register creates an account and logs it in.
func (m *Manager) Register(ctx context.Context, username, email, password string) (Identity, error) {
	auth, err := m.api.Register(ctx, username, email, password)
	if err != nil {
		return m.Identity(), err
	}
	return m.adopt(ctx, auth), nil
}

func (m *Manager) adopt(ctx context.Context, auth *rest.AuthResponse) Identity {
	if err := m.store.Save(Credentials{Token: auth.Token, Username: auth.Username}); err != nil {
		log.Warn().Err(err).Msg("failed to persist credentials")
	}
	m.api.SetToken(auth.Token)

	id := m.apply(Identity{Username: auth.Username, Authenticated: true, Token: auth.Token})
	m.connect(ctx, auth.Token)
	return id
}

// Logout clears the credential, disconnects the event channel and resets
// identity. Calling it twice is harmless.
func (m *Manager) Logout() {
	if err := m.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("failed to clear credential cache")
	}
	m.api.SetToken("")
	m.api.SetCookie("")
	m.conn.Disconnect()
	m.apply(Identity{})
}

func (m *Manager) connect(ctx context.Context, token string) {
	if err := m.conn.Connect(ctx, token); err != nil {
		log.Warn().Err(err).Msg("event channel connect failed, will stay offline")
	}
}

// handleConnState re-runs the identity check after an automatic reconnect.
// Room membership is never assumed to survive a disconnect: if the check
// fails, identity and (through the observer) room state are cleared.
func (m *Manager) handleConnState(state socket.State) {
	if state != socket.StateReconnected {
		return
	}

	current := m.Identity()
	if !current.Authenticated {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.restoreTimeout)
	defer cancel()

	if _, ok := m.tryRestoreToken(ctx, current.Token); !ok {
		log.Warn().Msg("session check failed after reconnect, dropping to lobby")
		m.apply(Identity{})
		return
	}

	if err := m.conn.Emit(protocol.SessionCheck(current.Username)); err != nil {
		log.Warn().Err(err).Msg("failed to emit session check")
	}
}

// apply swaps the identity and fans the change out to the observer.
func (m *Manager) apply(id Identity) Identity {
	m.mu.Lock()
	m.identity = id
	m.mu.Unlock()

	m.observerMu.Lock()
	fn := m.onIdentity
	m.observerMu.Unlock()
	if fn != nil {
		fn(id)
	}

	log.Info().
		Str("username", id.Username).
		Bool("authenticated", id.Authenticated).
		Msg("identity resolved")
	return id
}
