// Package auth manages the client's session with the remote auth service:
// login, registration, logout, and access-token refresh. Tokens are opaque
// strings issued by the server and persisted in the injected local store
// under the access_token / refresh_token keys.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storefront/internal/storage"
	"storefront/internal/types"
)

// State is the token lifecycle state observed by callers.
type State int

const (
	// StateExpired means no usable access token is held.
	StateExpired State = iota
	// StateValid means an access token is held and assumed usable until
	// the server rejects it.
	StateValid
	// StateRefreshing means a refresh call is in flight; concurrent
	// callers share its outcome.
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateRefreshing:
		return "refreshing"
	default:
		return "expired"
	}
}

// ErrNotAuthenticated reports a missing session where one is required.
var ErrNotAuthenticated = errors.New("not authenticated; run 'shop login' first")

// Manager owns the stored credentials. It is safe for concurrent use;
// refresh is single-flight so simultaneous 401 handlers trigger exactly
// one refresh call.
type Manager struct {
	store  storage.Store
	base   string
	client *http.Client
	log    *zap.Logger

	mu     sync.Mutex
	state  State
	access string

	sf singleflight.Group
}

// NewManager loads any persisted session from the store. base is the API
// root including the version prefix, e.g. "http://localhost:8080/api/v1".
func NewManager(store storage.Store, base string, client *http.Client, log *zap.Logger) *Manager {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{store: store, base: base, client: client, log: log}
	if tok, err := store.Get(storage.KeyAccessToken); err == nil && len(tok) > 0 {
		m.access = string(tok)
		m.state = StateValid
	}
	return m
}

// State returns the current token lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Access returns the current access token, empty when logged out.
func (m *Manager) Access() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access
}

// Authenticated reports whether a session is held.
func (m *Manager) Authenticated() bool {
	return m.Access() != ""
}

// CurrentUser returns the persisted account from the last login.
func (m *Manager) CurrentUser() (types.User, error) {
	data, err := m.store.Get(storage.KeyUser)
	if err != nil {
		return types.User{}, ErrNotAuthenticated
	}
	var u types.User
	if err := json.Unmarshal(data, &u); err != nil {
		return types.User{}, fmt.Errorf("stored user is corrupt: %w", err)
	}
	return u, nil
}

// envelope is the gateway's standard response wrapper.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (m *Manager) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.base+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Surface the server's structured message verbatim when present.
		switch {
		case env.Error != "":
			return errors.New(env.Error)
		case env.Message != "":
			return errors.New(env.Message)
		default:
			return fmt.Errorf("auth request failed: %s", resp.Status)
		}
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}

// Login authenticates and persists the issued tokens and user.
func (m *Manager) Login(ctx context.Context, email, password string) (types.User, error) {
	var data types.LoginResponse
	if err := m.post(ctx, "/auth/login", types.LoginRequest{Email: email, Password: password}, &data); err != nil {
		return types.User{}, err
	}

	if err := m.setSession(data.AccessToken, data.RefreshToken, &data.User); err != nil {
		return types.User{}, err
	}
	m.log.Debug("logged in", zap.String("user_id", data.User.ID))
	return data.User, nil
}

// Register creates an account. It does not log the user in; the server
// returns a confirmation message instead of tokens.
func (m *Manager) Register(ctx context.Context, req types.RegisterRequest) (types.RegisterResponse, error) {
	var data types.RegisterResponse
	if err := m.post(ctx, "/auth/register", req, &data); err != nil {
		return types.RegisterResponse{}, err
	}
	return data, nil
}

// Refresh exchanges the stored refresh token for a new access token.
// Concurrent callers share one in-flight refresh. On failure the stored
// credentials are cleared and the session is expired.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	v, err, _ := m.sf.Do("refresh", func() (any, error) {
		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	refreshTok, err := m.store.Get(storage.KeyRefreshToken)
	if err != nil || len(refreshTok) == 0 {
		m.expire()
		return "", ErrNotAuthenticated
	}

	m.mu.Lock()
	m.state = StateRefreshing
	m.mu.Unlock()

	var data types.RefreshResponse
	body := map[string]string{"refresh_token": string(refreshTok)}
	if err := m.post(ctx, "/auth/refresh", body, &data); err != nil {
		m.log.Debug("token refresh failed", zap.Error(err))
		m.clearCredentials()
		return "", fmt.Errorf("token refresh failed: %w", err)
	}

	if err := m.store.Set(storage.KeyAccessToken, []byte(data.AccessToken)); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.access = data.AccessToken
	m.state = StateValid
	m.mu.Unlock()
	return data.AccessToken, nil
}

// Logout revokes the refresh token best-effort and always clears the
// stored credentials, even when the server call fails.
func (m *Manager) Logout(ctx context.Context) error {
	if refreshTok, err := m.store.Get(storage.KeyRefreshToken); err == nil && len(refreshTok) > 0 {
		body := map[string]string{"refresh_token": string(refreshTok)}
		if err := m.post(ctx, "/auth/logout", body, nil); err != nil {
			m.log.Warn("logout call failed, clearing local session anyway", zap.Error(err))
		}
	}
	m.clearCredentials()
	return nil
}

func (m *Manager) setSession(access, refresh string, user *types.User) error {
	if err := m.store.Set(storage.KeyAccessToken, []byte(access)); err != nil {
		return err
	}
	if err := m.store.Set(storage.KeyRefreshToken, []byte(refresh)); err != nil {
		return err
	}
	if user != nil {
		data, err := json.Marshal(user)
		if err != nil {
			return err
		}
		if err := m.store.Set(storage.KeyUser, data); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.access = access
	m.state = StateValid
	m.mu.Unlock()
	return nil
}

func (m *Manager) clearCredentials() {
	_ = m.store.Delete(storage.KeyAccessToken)
	_ = m.store.Delete(storage.KeyRefreshToken)
	_ = m.store.Delete(storage.KeyUser)
	m.expire()
}

func (m *Manager) expire() {
	m.mu.Lock()
	m.access = ""
	m.state = StateExpired
	m.mu.Unlock()
}
