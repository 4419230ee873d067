package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/trashdash/trashdash-go/internal/api"
	"github.com/trashdash/trashdash-go/internal/credentials"
	"github.com/trashdash/trashdash-go/internal/models"
)

// Backend is the slice of the API client the store depends on. Tests
// substitute a mock; production wires *api.Client.
type Backend interface {
	Login(ctx context.Context, creds models.LoginCredentials) (json.RawMessage, error)
	Register(ctx context.Context, data models.RegisterData) (json.RawMessage, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (json.RawMessage, error)
	Refresh(ctx context.Context, refreshToken string) (json.RawMessage, error)
}

// Config parameterizes one app's session store. The three apps differ only
// in their required role and their token storage key, so one store
// implementation serves all of them.
type Config struct {
	// App names the hosting app and scopes the persisted session record.
	App string

	// RequiredRole gates login: a normalized login whose user holds a
	// different role is rejected and its token discarded. Empty means no
	// gate (the customer app).
	RequiredRole models.Role

	// TokenKey is the durable-storage key the bearer token lives under.
	// Each app uses a distinct key to prevent cross-app session bleed.
	TokenKey string
}

// CustomerConfig is the ungated customer app session.
func CustomerConfig() Config {
	return Config{App: "customer", TokenKey: "token"}
}

// DasherConfig requires the dasher role.
func DasherConfig() Config {
	return Config{App: "dasher", RequiredRole: models.RoleDasher, TokenKey: "dasher_token"}
}

// AdminConfig requires the admin role.
func AdminConfig() Config {
	return Config{App: "admin", RequiredRole: models.RoleAdmin, TokenKey: "admin_token"}
}

// ConfigForApp returns the preset for an app name, or false for an unknown one.
func ConfigForApp(app string) (Config, bool) {
	switch app {
	case "customer":
		return CustomerConfig(), true
	case "dasher":
		return DasherConfig(), true
	case "admin":
		return AdminConfig(), true
	}
	return Config{}, false
}

// Session is a point-in-time snapshot of the store's state.
type Session struct {
	User            *models.User
	Token           string
	RefreshToken    string
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}

// Store is the single source of truth for one app's authentication state.
// All backend auth calls go through it, and all state transitions happen
// inside it.
//
// Session-mutating operations (Login, Register, Logout, GetProfile,
// RefreshAuth) are serialized by a single-slot operation guard: two
// overlapping calls never interleave their state updates, the second
// simply waits. State reads take a separate lock so snapshots never block
// behind an in-flight network call.
type Store struct {
	cfg     Config
	backend Backend
	tokens  credentials.TokenStore
	records *credentials.RecordStore
	log     zerolog.Logger

	opMu sync.Mutex

	mu      sync.Mutex
	user    *models.User
	token   string
	refresh string
	authed  bool
	loading bool
	lastErr string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store's diagnostics logger.
func WithLogger(log zerolog.Logger) StoreOption {
	return func(s *Store) { s.log = log }
}

// New creates a session store for one app. The store starts empty; call
// RefreshAuth once at app start to hydrate from durable storage.
func New(cfg Config, backend Backend, tokens credentials.TokenStore, records *credentials.RecordStore, opts ...StoreOption) *Store {
	s := &Store{
		cfg:     cfg,
		backend: backend,
		tokens:  tokens,
		records: records,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session returns a snapshot of the current state. The user is copied so
// callers cannot mutate store state through it.
func (s *Store) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user *models.User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return Session{
		User:            user,
		Token:           s.token,
		RefreshToken:    s.refresh,
		IsAuthenticated: s.authed,
		IsLoading:       s.loading,
		Error:           s.lastErr,
	}
}

// ClearError discards the last operation's error message.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

// Login authenticates with email and password. On success the token (and
// refresh token, when the backend issues one) is persisted and the session
// becomes authenticated. A role-gated store rejects users holding the
// wrong role before anything is persisted.
func (s *Store) Login(ctx context.Context, creds models.LoginCredentials) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.beginOp()
	body, err := s.backend.Login(ctx, creds)
	if err != nil {
		return s.failOp(err, "Login failed")
	}

	auth, err := normalizeAuth(body)
	if err != nil {
		return s.failOp(err, "Login failed")
	}

	if s.cfg.RequiredRole != "" && auth.User.Role != s.cfg.RequiredRole {
		// The backend handed us a token, but the gate rejects the user:
		// discard it so a failed login never leaves a usable credential.
		return s.failOp(&AccessDeniedError{Required: s.cfg.RequiredRole}, "Login failed")
	}

	if err := s.persist(auth); err != nil {
		return s.failOp(err, "Login failed")
	}

	s.completeOp(auth)
	s.log.Info().Str("app", s.cfg.App).Str("email", auth.User.Email).Msg("login successful")
	return nil
}

// Register creates a new account. Same contract as Login minus the role
// gate: new users get their role at creation.
func (s *Store) Register(ctx context.Context, data models.RegisterData) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.beginOp()
	body, err := s.backend.Register(ctx, data)
	if err != nil {
		return s.failOp(err, "Registration failed")
	}

	auth, err := normalizeAuth(body)
	if err != nil {
		return s.failOp(err, "Registration failed")
	}

	if err := s.persist(auth); err != nil {
		return s.failOp(err, "Registration failed")
	}

	s.completeOp(auth)
	return nil
}

// Logout ends the session. The backend call is best effort: its failure is
// logged and swallowed, because clearing the local session must always
// succeed. Logging out while already logged out is a no-op with no
// backend call.
func (s *Store) Logout(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	authed := s.authed
	s.mu.Unlock()

	if authed {
		if err := s.backend.Logout(ctx); err != nil {
			s.log.Warn().Err(err).Msg("logout request failed")
		}
	}
	s.clear()
}

// GetProfile fetches the current user with the stored token and replaces
// the session's user on success. On failure the previous user stays.
func (s *Store) GetProfile(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.getProfile(ctx)
}

// getProfile assumes the operation guard is held.
func (s *Store) getProfile(ctx context.Context) error {
	s.beginOp()
	body, err := s.backend.Profile(ctx)
	if err != nil {
		return s.failOp(err, "Failed to get profile")
	}

	user, err := normalizeProfile(body)
	if err != nil {
		return s.failOp(err, "Failed to get profile")
	}

	s.mu.Lock()
	s.user = user
	s.authed = s.token != ""
	s.loading = false
	s.lastErr = ""
	s.mu.Unlock()

	s.saveRecord()
	return nil
}

// RefreshAuth hydrates the session from durable storage at app start. With
// no persisted token it does nothing. With one, it restores the persisted
// record and revalidates against the backend: profile first, then the
// refresh-token exchange if the record holds one. If nothing validates the
// token is stale and the whole session is cleared rather than left behind.
func (s *Store) RefreshAuth(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	token, err := s.tokens.LoadToken(s.cfg.TokenKey)
	if err != nil || token == "" {
		if err != nil && !errors.Is(err, credentials.ErrNoToken) {
			s.log.Warn().Err(err).Msg("token store read failed during hydration")
		}
		return
	}

	rec, err := s.records.Load(s.cfg.App)
	if err != nil {
		s.log.Warn().Err(err).Msg("session record read failed during hydration")
		rec = &credentials.SessionRecord{}
	}

	s.mu.Lock()
	s.token = token
	s.refresh = rec.RefreshToken
	if rec.User != nil {
		s.user = rec.User
		s.authed = true
	}
	s.mu.Unlock()

	// An already-expired JWT makes the profile call pointless; skip
	// straight to the refresh exchange.
	if !tokenExpired(token) {
		if err := s.getProfile(ctx); err == nil {
			return
		}
	}

	if rec.RefreshToken != "" {
		if err := s.refreshToken(ctx, rec.RefreshToken); err == nil {
			return
		}
	}

	s.log.Info().Str("app", s.cfg.App).Msg("persisted token no longer valid, clearing session")
	s.clear()
}

// refreshToken exchanges the refresh token for a new pair. Assumes the
// operation guard is held.
func (s *Store) refreshToken(ctx context.Context, refreshToken string) error {
	s.beginOp()
	body, err := s.backend.Refresh(ctx, refreshToken)
	if err != nil {
		return s.failOp(err, "Token refresh failed")
	}

	auth, err := normalizeAuth(body)
	if err != nil {
		return s.failOp(err, "Token refresh failed")
	}

	if err := s.persist(auth); err != nil {
		return s.failOp(err, "Token refresh failed")
	}

	s.completeOp(auth)
	return nil
}

// ForceLogout tears the in-memory session down after the HTTP layer
// intercepted a 401 and already removed the persisted token. It is invoked
// from inside an in-flight operation, so it must not touch the operation
// guard; it only resets state and drops the session record.
func (s *Store) ForceLogout() {
	if err := s.records.Delete(s.cfg.App); err != nil {
		s.log.Warn().Err(err).Msg("failed to delete session record")
	}
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.refresh = ""
	s.authed = false
	s.mu.Unlock()
}

// beginOp marks an operation in flight and clears the previous error.
func (s *Store) beginOp() {
	s.mu.Lock()
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()
}

// failOp records the best available human-readable message for err and
// returns the operation's error. Backend-provided messages win over the
// generic fallback.
func (s *Store) failOp(err error, fallback string) error {
	msg := errorMessage(err, fallback)

	s.mu.Lock()
	s.loading = false
	s.lastErr = msg
	s.mu.Unlock()

	if err.Error() == msg {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// completeOp applies a successful auth result to the session.
func (s *Store) completeOp(auth *models.AuthResponse) {
	s.mu.Lock()
	s.user = auth.User
	s.token = auth.Token
	if auth.RefreshToken != "" {
		s.refresh = auth.RefreshToken
	}
	s.authed = true
	s.loading = false
	s.lastErr = ""
	s.mu.Unlock()
}

// persist writes the token to durable storage and the session record to
// disk. A token write failure fails the operation; a record write failure
// is logged only, since the record is rebuilt from the profile endpoint.
func (s *Store) persist(auth *models.AuthResponse) error {
	if err := s.tokens.SaveToken(s.cfg.TokenKey, auth.Token); err != nil {
		return err
	}

	rec := &credentials.SessionRecord{
		User:            auth.User,
		RefreshToken:    auth.RefreshToken,
		IsAuthenticated: true,
	}
	if rec.RefreshToken == "" {
		s.mu.Lock()
		rec.RefreshToken = s.refresh
		s.mu.Unlock()
	}
	if err := s.records.Save(s.cfg.App, rec); err != nil {
		s.log.Warn().Err(err).Msg("failed to save session record")
	}
	return nil
}

// saveRecord persists the current in-memory session as the record.
func (s *Store) saveRecord() {
	s.mu.Lock()
	rec := &credentials.SessionRecord{
		User:            s.user,
		RefreshToken:    s.refresh,
		IsAuthenticated: s.authed,
	}
	s.mu.Unlock()

	if err := s.records.Save(s.cfg.App, rec); err != nil {
		s.log.Warn().Err(err).Msg("failed to save session record")
	}
}

// clear removes the persisted token and record and resets the session to
// its empty state.
func (s *Store) clear() {
	if err := s.tokens.DeleteToken(s.cfg.TokenKey); err != nil {
		s.log.Warn().Err(err).Msg("failed to delete token")
	}
	if err := s.records.Delete(s.cfg.App); err != nil {
		s.log.Warn().Err(err).Msg("failed to delete session record")
	}

	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.refresh = ""
	s.authed = false
	s.loading = false
	s.lastErr = ""
	s.mu.Unlock()
}

// errorMessage picks the message shown to the user: the backend-provided
// one when the API error carried one, the error's own text for the
// normalization and role-gate failures, else the generic fallback.
func errorMessage(err error, fallback string) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}

	var denied *AccessDeniedError
	if errors.Is(err, ErrInvalidResponseFormat) || errors.Is(err, ErrMissingCredentials) || errors.As(err, &denied) {
		return err.Error()
	}
	return fallback
}
