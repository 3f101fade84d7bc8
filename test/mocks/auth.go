package mocks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/onboardkit/harness/internal/fixtures"
	"github.com/onboardkit/harness/internal/logger"
	"github.com/onboardkit/harness/test/fault"
)

// AuthEvent is emitted to listeners on session transitions
type AuthEvent string

// Auth events
const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	EventUserUpdated    AuthEvent = "USER_UPDATED"
)

// Auth error codes
const (
	CodeProviderDisabled = "provider_disabled"
	CodeAuthNetwork      = "network_error"
	CodeSignOutError     = "signout_error"
	CodeRefreshError     = "refresh_error"
	CodeInvalidToken     = "invalid_token"
)

const (
	// DisabledProvider is the OAuth provider rejected when errors are simulated
	DisabledProvider = "github"
	// SessionLifetime is the validity window of issued sessions
	SessionLifetime = time.Hour
	// DefaultAuthURL is the base of the authorize URL returned by SignInWithOAuth
	DefaultAuthURL = "https://auth.mock.local"

	signOutFailure = 0.05
	refreshFailure = 0.1
	tokenIssuer    = "onboarding-mock-auth"
)

// tokenKey signs mock access tokens. It only has to be stable, not secret.
var tokenKey = []byte("onboarding-harness-mock-auth-signing-key")

// AuthUser is the identity attached to a session
type AuthUser struct {
	ID          string        `json:"id"`
	Email       string        `json:"email"`
	Name        string        `json:"name"`
	Role        fixtures.Role `json:"role"`
	Permissions []string      `json:"permissions"`
	IsActive    bool          `json:"is_active"`
}

// HasPermission checks the explicit permission set only; the role is never consulted
func (u AuthUser) HasPermission(permission string) bool {
	return slices.Contains(u.Permissions, permission)
}

// AuthSession is a signed-in session
type AuthSession struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    time.Duration `json:"expires_in"`
	ExpiresAt    time.Time     `json:"expires_at"`
	User         AuthUser      `json:"user"`
}

// Valid reports whether the session has not expired at now
func (s *AuthSession) Valid(now time.Time) bool {
	return s != nil && s.ExpiresAt.After(now)
}

func (s *AuthSession) clone() *AuthSession {
	if s == nil {
		return nil
	}
	c := *s
	c.User.Permissions = slices.Clone(s.User.Permissions)
	return &c
}

// OAuthOptions are the optional sign-in parameters
type OAuthOptions struct {
	RedirectTo string
	Scopes     []string
}

// OAuthResult is returned by a successful sign-in
type OAuthResult struct {
	Provider string       `json:"provider"`
	URL      string       `json:"url"`
	Session  *AuthSession `json:"session"`
}

// AuthState is the introspection view of the auth mock
type AuthState struct {
	Session       *AuthSession `json:"session"`
	CallbackCount int          `json:"callback_count"`
}

// AuthListener receives auth events. Session is nil for SIGNED_OUT.
type AuthListener func(event AuthEvent, session *AuthSession)

type listenerEntry struct {
	id int
	fn AuthListener
}

type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// MockAuth is a single-tenant session state machine: signed out, or signed in
// with exactly one current session. current is replaced, never mutated.
type MockAuth struct {
	base
	cfg       fault.Config
	sessions  map[string]AuthSession
	current   *AuthSession
	listeners []listenerEntry
	nextID    int
}

// NewMockAuth creates a signed-out auth mock with one fixed session per fixture user
func NewMockAuth(opts ...Option) *MockAuth {
	a := &MockAuth{}
	a.base.init(ServiceAuth, opts)
	a.sessions = a.mintSessions()
	return a
}

func (a *MockAuth) mintSessions() map[string]AuthSession {
	issued := a.inj.Now()
	out := make(map[string]AuthSession)
	for _, u := range fixtures.Users() {
		claims := accessClaims{
			Email: u.Email,
			Role:  string(u.Role),
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:   tokenIssuer,
				Subject:  u.ID,
				IssuedAt: jwt.NewNumericDate(issued),
				ID:       uuid.NewString(),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tokenKey)
		if err != nil {
			// HS256 with a static key cannot fail
			panic(fmt.Sprintf("mocks: sign fixture token: %v", err))
		}
		out[u.ID] = AuthSession{
			AccessToken:  token,
			RefreshToken: uuid.NewString(),
			ExpiresIn:    SessionLifetime,
			User: AuthUser{
				ID:          u.ID,
				Email:       u.Email,
				Name:        u.Name,
				Role:        u.Role,
				Permissions: slices.Clone(u.Permissions),
				IsActive:    u.IsActive,
			},
		}
	}
	return out
}

// FixtureSession returns a fresh copy of the fixed session of a fixture user,
// valid for SessionLifetime from now
func (a *MockAuth) FixtureSession(userID string) (*AuthSession, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fixtureSessionLocked(userID)
}

func (a *MockAuth) fixtureSessionLocked(userID string) (*AuthSession, bool) {
	s, ok := a.sessions[userID]
	if !ok {
		return nil, false
	}
	fresh := (&s).clone()
	fresh.ExpiresAt = a.inj.Now().Add(fresh.ExpiresIn)
	return fresh, true
}

// Configure replaces the fault policy
func (a *MockAuth) Configure(cfg fault.Config) error {
	return a.ConfigureFaults(cfg)
}

// ConfigureFaults replaces the fault policy
func (a *MockAuth) ConfigureFaults(cfg fault.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg = cfg
	return nil
}

// Config returns the active fault policy
func (a *MockAuth) Config() fault.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

// SignInWithOAuth signs in as the main operator whatever the provider
func (a *MockAuth) SignInWithOAuth(ctx context.Context, provider string, opts *OAuthOptions) (res *OAuthResult, err error) {
	defer func() { a.observe("sign_in", err) }()

	cfg := a.Config()
	if err := a.inj.Delay(ctx, cfg); err != nil {
		return nil, err
	}
	if cfg.ShouldSimulateErrors && provider == DisabledProvider {
		return nil, fault.Simulated(CodeProviderDisabled, fmt.Sprintf("provider %s is not enabled", provider))
	}
	if a.inj.Roll(cfg) {
		return nil, fault.Simulated(CodeAuthNetwork, "network error during sign in")
	}

	a.mu.Lock()
	session, _ := a.fixtureSessionLocked(fixtures.MainOperatorID)
	a.current = session
	a.mu.Unlock()

	a.emit(EventSignedIn, session)
	return &OAuthResult{
		Provider: provider,
		URL:      authorizeURL(provider, opts),
		Session:  session.clone(),
	}, nil
}

func authorizeURL(provider string, opts *OAuthOptions) string {
	q := url.Values{}
	q.Set("provider", provider)
	if opts != nil {
		if opts.RedirectTo != "" {
			q.Set("redirect_to", opts.RedirectTo)
		}
		for _, scope := range opts.Scopes {
			q.Add("scopes", scope)
		}
	}
	return DefaultAuthURL + "/auth/v1/authorize?" + q.Encode()
}

// SignOut clears the current session. Signing out while signed out succeeds
// without emitting.
func (a *MockAuth) SignOut(ctx context.Context) (err error) {
	defer func() { a.observe("sign_out", err) }()

	cfg := a.Config()
	if err := a.inj.Delay(ctx, cfg); err != nil {
		return err
	}
	if cfg.ShouldSimulateErrors && a.inj.Chance(signOutFailure) {
		return fault.Simulated(CodeSignOutError, "failed to sign out")
	}

	a.mu.Lock()
	had := a.current != nil
	a.current = nil
	a.mu.Unlock()

	if had {
		a.emit(EventSignedOut, nil)
	}
	return nil
}

// Session returns the current session. An expired session is dropped on read,
// emitting SIGNED_OUT once, and nil is returned.
func (a *MockAuth) Session(ctx context.Context) (*AuthSession, error) {
	if err := a.inj.Delay(ctx, a.Config()); err != nil {
		return nil, err
	}

	a.mu.Lock()
	session := a.current
	expired := session != nil && !session.Valid(a.inj.Now())
	if expired {
		a.current = nil
	}
	a.mu.Unlock()

	if expired {
		logger.Debugf("mock session for %s expired", session.User.ID)
		a.emit(EventSignedOut, nil)
		return nil, nil
	}
	return session.clone(), nil
}

// User returns the user of the current session, or nil when signed out
func (a *MockAuth) User(ctx context.Context) (*AuthUser, error) {
	session, err := a.Session(ctx)
	if err != nil || session == nil {
		return nil, err
	}
	user := session.User
	return &user, nil
}

// RefreshSession extends the current session by its lifetime, keeping user and tokens.
// It returns nil without error when signed out. A simulated refresh failure signs the user out.
func (a *MockAuth) RefreshSession(ctx context.Context) (session *AuthSession, err error) {
	defer func() { a.observe("refresh", err) }()

	cfg := a.Config()
	if err := a.inj.Delay(ctx, cfg); err != nil {
		return nil, err
	}

	a.mu.Lock()
	if a.current == nil {
		a.mu.Unlock()
		return nil, nil
	}
	if cfg.ShouldSimulateErrors && a.inj.Chance(refreshFailure) {
		a.current = nil
		a.mu.Unlock()
		a.emit(EventSignedOut, nil)
		return nil, fault.Simulated(CodeRefreshError, "failed to refresh session")
	}
	refreshed := a.current.clone()
	refreshed.ExpiresAt = a.inj.Now().Add(refreshed.ExpiresIn)
	a.current = refreshed
	a.mu.Unlock()

	a.emit(EventTokenRefreshed, refreshed)
	return refreshed.clone(), nil
}

// OnAuthStateChange registers a listener and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (a *MockAuth) OnAuthStateChange(fn AuthListener) (unsubscribe func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	id := a.nextID
	a.listeners = append(a.listeners, listenerEntry{id: id, fn: fn})

	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.listeners = slices.DeleteFunc(a.listeners, func(e listenerEntry) bool { return e.id == id })
	}
}

// emit notifies a snapshot of the listeners taken before the first call, so
// listeners may subscribe or unsubscribe while being notified
func (a *MockAuth) emit(event AuthEvent, session *AuthSession) {
	a.mu.Lock()
	snapshot := slices.Clone(a.listeners)
	a.mu.Unlock()

	for _, l := range snapshot {
		notify(l.fn, event, session.clone())
	}
}

func notify(fn AuthListener, event AuthEvent, session *AuthSession) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorWithFields("auth state listener panicked", map[string]interface{}{
				"event": string(event),
				"panic": fmt.Sprint(r),
			})
		}
	}()
	fn(event, session)
}

// SetCurrentSession replaces the current session directly. Emits SIGNED_IN,
// SIGNED_OUT or USER_UPDATED depending on the transition; nil to nil emits nothing.
func (a *MockAuth) SetCurrentSession(session *AuthSession) {
	a.mu.Lock()
	before := a.current != nil
	a.current = session.clone()
	a.mu.Unlock()

	switch {
	case !before && session != nil:
		a.emit(EventSignedIn, session)
	case before && session == nil:
		a.emit(EventSignedOut, nil)
	case before && session != nil:
		a.emit(EventUserUpdated, session)
	}
}

// SetCurrentUser switches to the fixed session of a fixture user. Unknown IDs are ignored.
func (a *MockAuth) SetCurrentUser(userID string) {
	session, ok := a.FixtureSession(userID)
	if !ok {
		return
	}
	a.SetCurrentSession(session)
}

// ExpireCurrentSession moves the expiry of the current session into the past.
// Nothing is emitted until the next Session call observes it.
func (a *MockAuth) ExpireCurrentSession() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != nil {
		expired := a.current.clone()
		expired.ExpiresAt = a.inj.Now().Add(-time.Second)
		a.current = expired
	}
}

// ValidateAccessToken verifies a token minted by this mock and returns its fixture user
func (a *MockAuth) ValidateAccessToken(token string) (*AuthUser, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tokenKey, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(a.inj.Now))
	if err != nil || !parsed.Valid {
		return nil, fault.Validation(CodeInvalidToken, "invalid access token")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[claims.Subject]
	if !ok || s.AccessToken != token {
		return nil, fault.Validation(CodeInvalidToken, "token does not belong to a known session")
	}
	user := s.User
	user.Permissions = slices.Clone(s.User.Permissions)
	return &user, nil
}

// CurrentState returns the current session (without expiry checks) and listener count
func (a *MockAuth) CurrentState() AuthState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AuthState{Session: a.current.clone(), CallbackCount: len(a.listeners)}
}

// Reset signs out silently, drops all listeners and restores the default configuration
func (a *MockAuth) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = nil
	a.listeners = nil
	a.cfg = fault.Config{}
}
