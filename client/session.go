package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/DriveDocs-Network/data_layer/sessionstore"
)

// Session is the access/refresh token pair that authorizes API calls.
// Expires is a unix timestamp in seconds, as reported by the auth endpoints.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Expires      int64  `json:"expires"`
}

// ExpiresAt returns the server-reported expiry of the access token.
func (s *Session) ExpiresAt() time.Time {
	return time.Unix(s.Expires, 0)
}

// TokenExpiry returns the expiry embedded in the access token's JWT exp
// claim, falling back to the server-reported Expires field when the token is
// not a parseable JWT. The claim is read without signature verification;
// it is advisory only and never gates a request (the gateway reacts to
// HTTP 401, not to local clocks).
func (s *Session) TokenExpiry() time.Time {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(s.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return s.ExpiresAt()
}

// clone returns a copy so callers cannot mutate the stored session.
func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

// SessionStore holds the process-wide session and mirrors it to a durable
// storage backend. Exactly one session exists per process; all outbound
// authenticated calls share it. The store never blocks and never talks to
// the network; refreshing happens in the gateway.
type SessionStore struct {
	mu          sync.RWMutex
	storage     sessionstore.Storage
	log         zerolog.Logger
	session     *Session
	loggedIn    bool
	initialized bool
}

// NewSessionStore creates a session store over the given storage backend.
func NewSessionStore(storage sessionstore.Storage, log zerolog.Logger) *SessionStore {
	return &SessionStore{storage: storage, log: log}
}

// Initialize restores a persisted session, once per process lifetime.
// Re-invoking after initialization is a no-op. Must run before any
// authenticated call is attempted on process start.
func (st *SessionStore) Initialize(ctx context.Context) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.initialized {
		return nil
	}

	data, err := st.storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("load persisted session: %w", err)
	}
	st.initialized = true

	if data == nil {
		return nil
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// A torn or legacy record is unusable; treat as logged out.
		st.log.Warn().Err(err).Msg("discarding unreadable session record")
		if clearErr := st.storage.Clear(ctx); clearErr != nil {
			st.log.Warn().Err(clearErr).Msg("clear unreadable session record")
		}
		return nil
	}

	st.session = &sess
	st.loggedIn = true
	st.log.Debug().Time("expires", sess.ExpiresAt()).Msg("session restored")
	return nil
}

// Save replaces the in-memory and durable session and marks the store
// logged in. The in-memory copy is updated even if persistence fails, so a
// rotated refresh token is never lost to a disk error mid-process; the
// persistence error is still returned.
func (st *SessionStore) Save(ctx context.Context, sess Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.session = &sess
	st.loggedIn = true
	st.initialized = true

	data, err := json.Marshal(&sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := st.storage.Save(ctx, data); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Clear removes the in-memory and durable session and marks the store
// logged out.
func (st *SessionStore) Clear(ctx context.Context) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.session = nil
	st.loggedIn = false
	st.initialized = true

	if err := st.storage.Clear(ctx); err != nil {
		return fmt.Errorf("clear persisted session: %w", err)
	}
	return nil
}

// Session returns a copy of the current session, or nil when logged out.
func (st *SessionStore) Session() *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.session.clone()
}

// AccessToken returns the current access token. It never blocks and never
// triggers a refresh.
func (st *SessionStore) AccessToken() (string, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.session == nil {
		return "", false
	}
	return st.session.AccessToken, true
}

// LoggedIn reports whether a session currently exists.
func (st *SessionStore) LoggedIn() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.loggedIn
}
