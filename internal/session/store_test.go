package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trashdash/trashdash-go/internal/api"
	"github.com/trashdash/trashdash-go/internal/credentials"
	"github.com/trashdash/trashdash-go/internal/models"
)

// mockBackend scripts the API client's responses.
type mockBackend struct {
	loginBody   json.RawMessage
	loginErr    error
	regBody     json.RawMessage
	regErr      error
	profileBody json.RawMessage
	profileErr  error
	refreshBody json.RawMessage
	refreshErr  error
	logoutErr   error

	loginCalls   int
	regCalls     int
	profileCalls int
	refreshCalls int
	logoutCalls  int
}

func (m *mockBackend) Login(ctx context.Context, creds models.LoginCredentials) (json.RawMessage, error) {
	m.loginCalls++
	return m.loginBody, m.loginErr
}

func (m *mockBackend) Register(ctx context.Context, data models.RegisterData) (json.RawMessage, error) {
	m.regCalls++
	return m.regBody, m.regErr
}

func (m *mockBackend) Logout(ctx context.Context) error {
	m.logoutCalls++
	return m.logoutErr
}

func (m *mockBackend) Profile(ctx context.Context) (json.RawMessage, error) {
	m.profileCalls++
	return m.profileBody, m.profileErr
}

func (m *mockBackend) Refresh(ctx context.Context, refreshToken string) (json.RawMessage, error) {
	m.refreshCalls++
	return m.refreshBody, m.refreshErr
}

// memTokenStore is an in-memory stand-in for the OS keyring.
type memTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: map[string]string{}}
}

func (m *memTokenStore) SaveToken(key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[key] = token
	return nil
}

func (m *memTokenStore) LoadToken(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[key]
	if !ok {
		return "", credentials.ErrNoToken
	}
	return token, nil
}

func (m *memTokenStore) DeleteToken(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, key)
	return nil
}

func newTestStore(t *testing.T, cfg Config, backend Backend) (*Store, *memTokenStore) {
	t.Helper()
	tokens := newMemTokenStore()
	records := credentials.NewRecordStore(t.TempDir())
	return New(cfg, backend, tokens, records), tokens
}

const adminLoginBody = `{"success": true, "data": {"user": {"id": "u1", "email": "admin@trashdash.com", "role": "admin"}, "token": "abc123"}}`

func TestLogin_AdminGatePasses(t *testing.T) {
	backend := &mockBackend{loginBody: json.RawMessage(adminLoginBody)}
	store, tokens := newTestStore(t, AdminConfig(), backend)

	err := store.Login(context.Background(), models.LoginCredentials{
		Email:    "admin@trashdash.com",
		Password: "password123",
	})
	require.NoError(t, err)

	sess := store.Session()
	assert.True(t, sess.IsAuthenticated)
	assert.False(t, sess.IsLoading)
	assert.Empty(t, sess.Error)
	require.NotNil(t, sess.User)
	assert.Equal(t, "admin@trashdash.com", sess.User.Email)
	assert.Equal(t, "abc123", sess.Token)

	persisted, err := tokens.LoadToken("admin_token")
	require.NoError(t, err)
	assert.Equal(t, "abc123", persisted)
}

func TestLogin_RoleGateRejects(t *testing.T) {
	body := `{"success": true, "data": {"user": {"id": "u2", "email": "c@d.com", "role": "customer"}, "token": "abc123"}}`
	backend := &mockBackend{loginBody: json.RawMessage(body)}
	store, tokens := newTestStore(t, AdminConfig(), backend)

	err := store.Login(context.Background(), models.LoginCredentials{Email: "c@d.com", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, "Access denied. Admin privileges required.", err.Error())

	sess := store.Session()
	assert.False(t, sess.IsAuthenticated)
	assert.Equal(t, "Access denied. Admin privileges required.", sess.Error)
	assert.Nil(t, sess.User)

	// The backend handed out a token but the gate must have discarded it.
	_, err = tokens.LoadToken("admin_token")
	assert.ErrorIs(t, err, credentials.ErrNoToken)
}

func TestLogin_DasherGateMessage(t *testing.T) {
	body := `{"user": {"id": "u2", "role": "customer"}, "token": "t"}`
	backend := &mockBackend{loginBody: json.RawMessage(body)}
	store, _ := newTestStore(t, DasherConfig(), backend)

	err := store.Login(context.Background(), models.LoginCredentials{Email: "c@d.com", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, "Access denied. Dasher privileges required.", err.Error())
}

func TestLogin_CustomerStoreHasNoGate(t *testing.T) {
	// A customer-app store accepts any role, dashers included.
	body := `{"user": {"id": "u3", "role": "dasher"}, "token": "t"}`
	backend := &mockBackend{loginBody: json.RawMessage(body)}
	store, _ := newTestStore(t, CustomerConfig(), backend)

	require.NoError(t, store.Login(context.Background(), models.LoginCredentials{Email: "d@d.com", Password: "pw"}))
	assert.True(t, store.Session().IsAuthenticated)
}

func TestLogin_InvalidResponseFormat(t *testing.T) {
	backend := &mockBackend{loginBody: json.RawMessage(`{"foo": "bar"}`)}
	store, tokens := newTestStore(t, CustomerConfig(), backend)

	err := store.Login(context.Background(), models.LoginCredentials{Email: "a@b.com", Password: "pw"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidResponseFormat)

	sess := store.Session()
	assert.False(t, sess.IsAuthenticated)
	assert.Equal(t, "Invalid response format from server", sess.Error)

	_, err = tokens.LoadToken("token")
	assert.ErrorIs(t, err, credentials.ErrNoToken)
}

func TestLogin_MissingCredentials(t *testing.T) {
	backend := &mockBackend{loginBody: json.RawMessage(`{"success": true, "data": {"user": {"id": "u1"}}}`)}
	store, _ := newTestStore(t, CustomerConfig(), backend)

	err := store.Login(context.Background(), models.LoginCredentials{Email: "a@b.com", Password: "pw"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Equal(t, "Missing user data or token", store.Session().Error)
}

func TestLogin_BackendMessagePreferred(t *testing.T) {
	backend := &mockBackend{loginErr: &api.APIError{Status: 401, Message: "Invalid email or password"}}
	store, _ := newTestStore(t, CustomerConfig(), backend)

	err := store.Login(context.Background(), models.LoginCredentials{Email: "a@b.com", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", err.Error())
	assert.Equal(t, "Invalid email or password", store.Session().Error)
}

func TestLogin_NetworkErrorFallsBack(t *testing.T) {
	backend := &mockBackend{loginErr: errors.New("dial tcp 127.0.0.1:443: connection refused")}
	store, _ := newTestStore(t, CustomerConfig(), backend)

	err := store.Login(context.Background(), models.LoginCredentials{Email: "a@b.com", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, "Login failed", store.Session().Error)
	assert.Contains(t, err.Error(), "Login failed")
}

func TestRegister_PersistsSession(t *testing.T) {
	body := `{"accessToken": "newtok", "user": {"id": "u9", "email": "new@user.com", "role": "customer"}}`
	backend := &mockBackend{regBody: json.RawMessage(body)}
	store, tokens := newTestStore(t, CustomerConfig(), backend)

	err := store.Register(context.Background(), models.RegisterData{
		Email:     "new@user.com",
		Password:  "Password1!",
		FirstName: "New",
		LastName:  "User",
		Phone:     "5551234567",
	})
	require.NoError(t, err)

	sess := store.Session()
	assert.True(t, sess.IsAuthenticated)
	assert.Equal(t, "newtok", sess.Token)

	persisted, err := tokens.LoadToken("token")
	require.NoError(t, err)
	assert.Equal(t, "newtok", persisted)
}

func TestRegister_FallbackMessage(t *testing.T) {
	backend := &mockBackend{regErr: errors.New("boom")}
	store, _ := newTestStore(t, CustomerConfig(), backend)

	err := store.Register(context.Background(), models.RegisterData{Email: "a@b.com"})
	require.Error(t, err)
	assert.Equal(t, "Registration failed", store.Session().Error)
}

func TestRegister_SkipsRoleGate(t *testing.T) {
	// Registration on a gated store does not apply the gate; roles are
	// assigned at creation and checked on subsequent logins.
	body := `{"user": {"id": "u4", "role": "customer"}, "token": "t"}`
	backend := &mockBackend{regBody: json.RawMessage(body)}
	store, _ := newTestStore(t, AdminConfig(), backend)

	require.NoError(t, store.Register(context.Background(), models.RegisterData{Email: "a@b.com"}))
	assert.True(t, store.Session().IsAuthenticated)
}

func TestLogout_ClearsEverything(t *testing.T) {
	backend := &mockBackend{loginBody: json.RawMessage(adminLoginBody)}
	store, tokens := newTestStore(t, AdminConfig(), backend)
	require.NoError(t, store.Login(context.Background(), models.LoginCredentials{Email: "a@b.com", Password: "pw"}))

	store.Logout(context.Background())

	sess := store.Session()
	assert.False(t, sess.IsAuthenticated)
	assert.Nil(t, sess.User)
	assert.Empty(t, sess.Token)
	assert.Equal(t, 1, backend.logoutCalls)

	_, err := tokens.LoadToken("admin_token")
	assert.ErrorIs(t, err, credentials.ErrNoToken)
}

func TestLogout_WhenLoggedOutSkipsBackend(t *testing.T) {
	backend := &mockBackend{}
	store, _ := newTestStore(t, CustomerConfig(), backend)

	store.Logout(context.Background())
	store.Logout(context.Background())

	assert.Equal(t, 0, backend.logoutCalls)
	assert.False(t, store.Session().IsAuthenticated)
}

func TestLogout_BackendFailureStillClears(t *testing.T) {
	backend := &mockBackend{
		loginBody: json.RawMessage(adminLoginBody),
		logoutErr: errors.New("503 from backend"),
	}
	store, tokens := newTestStore(t, AdminConfig(), backend)
	require.NoError(t, store.Login(context.Background(), models.LoginCredentials{Email: "a@b.com", Password: "pw"}))

	store.Logout(context.Background())

	assert.False(t, store.Session().IsAuthenticated)
	_, err := tokens.LoadToken("admin_token")
	assert.ErrorIs(t, err, credentials.ErrNoToken)
}

func TestGetProfile_ReplacesUser(t *testing.T) {
	backend := &mockBackend{
		loginBody:   json.RawMessage(adminLoginBody),
		profileBody: json.RawMessage(`{"success": true, "data": {"id": "u1", "email": "admin@trashdash.com", "firstName": "Renamed", "role": "admin"}}`),
	}
	store, _ := newTestStore(t, AdminConfig(), backend)
	require.NoError(t, store.Login(context.Background(), models.LoginCredentials{Email: "a@b.com", Password: "pw"}))

	require.NoError(t, store.GetProfile(context.Background()))

	sess := store.Session()
	require.NotNil(t, sess.User)
	assert.Equal(t, "Renamed", sess.User.FirstName)
	assert.True(t, sess.IsAuthenticated)
}

func TestGetProfile_FailureKeepsUser(t *testing.T) {
	backend := &mockBackend{
		loginBody:  json.RawMessage(adminLoginBody),
		profileErr: &api.APIError{Status: 500, Message: "Internal server error"},
	}
	store, _ := newTestStore(t, AdminConfig(), backend)
	require.NoError(t, store.Login(context.Background(), models.LoginCredentials{Email: "a@b.com", Password: "pw"}))

	err := store.GetProfile(context.Background())
	require.Error(t, err)

	sess := store.Session()
	require.NotNil(t, sess.User)
	assert.Equal(t, "admin@trashdash.com", sess.User.Email)
	assert.Equal(t, "Internal server error", sess.Error)
}

func TestRefreshAuth_NoPersistedToken(t *testing.T) {
	backend := &mockBackend{}
	store, _ := newTestStore(t, CustomerConfig(), backend)

	store.RefreshAuth(context.Background())

	assert.False(t, store.Session().IsAuthenticated)
	assert.Equal(t, 0, backend.profileCalls)
	assert.Equal(t, 0, backend.refreshCalls)
}

func TestRefreshAuth_RestoresAndRevalidates(t *testing.T) {
	backend := &mockBackend{
		profileBody: json.RawMessage(`{"success": true, "data": {"id": "u1", "email": "a@b.com", "role": "customer"}}`),
	}
	tokens := newMemTokenStore()
	records := credentials.NewRecordStore(t.TempDir())
	store := New(CustomerConfig(), backend, tokens, records)

	require.NoError(t, tokens.SaveToken("token", "persisted"))
	require.NoError(t, records.Save("customer", &credentials.SessionRecord{
		User:            &models.User{ID: "u1", Email: "a@b.com"},
		IsAuthenticated: true,
	}))

	store.RefreshAuth(context.Background())

	sess := store.Session()
	assert.True(t, sess.IsAuthenticated)
	assert.Equal(t, "persisted", sess.Token)
	require.NotNil(t, sess.User)
	assert.Equal(t, "u1", sess.User.ID)
	assert.Equal(t, 1, backend.profileCalls)
}

func TestRefreshAuth_FallsBackToRefreshToken(t *testing.T) {
	backend := &mockBackend{
		profileErr:  &api.APIError{Status: 401, Message: "Unauthorized"},
		refreshBody: json.RawMessage(`{"success": true, "data": {"user": {"id": "u1", "role": "customer"}, "token": "fresh", "refreshToken": "fresh-refresh"}}`),
	}
	tokens := newMemTokenStore()
	records := credentials.NewRecordStore(t.TempDir())
	store := New(CustomerConfig(), backend, tokens, records)

	require.NoError(t, tokens.SaveToken("token", "stale"))
	require.NoError(t, records.Save("customer", &credentials.SessionRecord{
		User:            &models.User{ID: "u1"},
		RefreshToken:    "old-refresh",
		IsAuthenticated: true,
	}))

	store.RefreshAuth(context.Background())

	sess := store.Session()
	assert.True(t, sess.IsAuthenticated)
	assert.Equal(t, "fresh", sess.Token)
	assert.Equal(t, "fresh-refresh", sess.RefreshToken)
	assert.Equal(t, 1, backend.refreshCalls)

	persisted, err := tokens.LoadToken("token")
	require.NoError(t, err)
	assert.Equal(t, "fresh", persisted)
}

func TestRefreshAuth_NothingValidatesClears(t *testing.T) {
	backend := &mockBackend{
		profileErr: &api.APIError{Status: 401, Message: "Unauthorized"},
		refreshErr: &api.APIError{Status: 401, Message: "Invalid refresh token"},
	}
	tokens := newMemTokenStore()
	records := credentials.NewRecordStore(t.TempDir())
	store := New(CustomerConfig(), backend, tokens, records)

	require.NoError(t, tokens.SaveToken("token", "stale"))
	require.NoError(t, records.Save("customer", &credentials.SessionRecord{
		User:            &models.User{ID: "u1"},
		RefreshToken:    "also-stale",
		IsAuthenticated: true,
	}))

	store.RefreshAuth(context.Background())

	sess := store.Session()
	assert.False(t, sess.IsAuthenticated)
	assert.Nil(t, sess.User)
	assert.Empty(t, sess.Token)

	_, err := tokens.LoadToken("token")
	assert.ErrorIs(t, err, credentials.ErrNoToken)
}

func TestRefreshAuth_ExpiredJWTSkipsProfile(t *testing.T) {
	expired := signedToken(t, time.Now().Add(-time.Hour))
	backend := &mockBackend{
		refreshBody: json.RawMessage(`{"user": {"id": "u1", "role": "customer"}, "token": "fresh"}`),
	}
	tokens := newMemTokenStore()
	records := credentials.NewRecordStore(t.TempDir())
	store := New(CustomerConfig(), backend, tokens, records)

	require.NoError(t, tokens.SaveToken("token", expired))
	require.NoError(t, records.Save("customer", &credentials.SessionRecord{
		RefreshToken: "still-good",
	}))

	store.RefreshAuth(context.Background())

	assert.Equal(t, 0, backend.profileCalls)
	assert.Equal(t, 1, backend.refreshCalls)
	assert.True(t, store.Session().IsAuthenticated)
}

func TestForceLogout_ResetsStateOnly(t *testing.T) {
	backend := &mockBackend{loginBody: json.RawMessage(adminLoginBody)}
	store, _ := newTestStore(t, AdminConfig(), backend)
	require.NoError(t, store.Login(context.Background(), models.LoginCredentials{Email: "a@b.com", Password: "pw"}))

	store.ForceLogout()

	sess := store.Session()
	assert.False(t, sess.IsAuthenticated)
	assert.Nil(t, sess.User)
	assert.Empty(t, sess.Token)
	assert.Equal(t, 0, backend.logoutCalls)
}

func TestClearError(t *testing.T) {
	backend := &mockBackend{loginErr: errors.New("boom")}
	store, _ := newTestStore(t, CustomerConfig(), backend)

	_ = store.Login(context.Background(), models.LoginCredentials{Email: "a@b.com", Password: "pw"})
	require.NotEmpty(t, store.Session().Error)

	store.ClearError()
	assert.Empty(t, store.Session().Error)
}

func TestConcurrentOperations(t *testing.T) {
	backend := &mockBackend{loginBody: json.RawMessage(adminLoginBody)}
	store, _ := newTestStore(t, AdminConfig(), backend)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Login(context.Background(), models.LoginCredentials{Email: "a@b.com", Password: "pw"})
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Session()
		}()
	}
	wg.Wait()

	assert.True(t, store.Session().IsAuthenticated)
	assert.Equal(t, 4, backend.loginCalls)
}

func signedToken(t *testing.T, expiry time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(expiry),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}
