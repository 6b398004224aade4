package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/arklim/learnhub-client/internal/core/domain"
	"github.com/arklim/learnhub-client/internal/core/port"
	"github.com/arklim/learnhub-client/internal/infra/logger"
)

// Config carries the connection settings for the identity provider's REST API.
type Config struct {
	BaseURL       string
	AnonKey       string
	Timeout       time.Duration
	AutoRefresh   bool
	RefreshMargin time.Duration
	SessionFile   string
}

// Client talks to a GoTrue-compatible identity backend. It holds the current
// session in memory, optionally persists it to a local file so restarts pick
// it up, and pushes lifecycle events to registered callbacks.
type Client struct {
	baseURL     string
	anonKey     string
	httpClient  *http.Client
	log         *zap.Logger
	autoRefresh bool
	margin      time.Duration
	sessionFile string

	mu           sync.Mutex
	session      *domain.Session
	refreshTimer *time.Timer
	closed       bool

	cbMu      sync.Mutex
	callbacks map[int]port.SessionChangeFunc
	nextCbID  int
}

// ProviderError is the provider-reported failure, message preserved verbatim.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// IsAuthFailure reports whether the provider rejected the credentials or token.
func (e *ProviderError) IsAuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// NewClient validates the configuration and restores any persisted session.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("identity: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("identity: invalid base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	margin := cfg.RefreshMargin
	if margin <= 0 {
		margin = time.Minute
	}

	c := &Client{
		baseURL:     base,
		anonKey:     cfg.AnonKey,
		httpClient:  &http.Client{Timeout: timeout},
		log:         log,
		autoRefresh: cfg.AutoRefresh,
		margin:      margin,
		sessionFile: cfg.SessionFile,
		callbacks:   make(map[int]port.SessionChangeFunc),
	}

	if restored, err := c.loadPersistedSession(); err != nil {
		log.Warn("failed to restore persisted session", zap.Error(err))
	} else if restored != nil {
		c.session = restored
		c.scheduleRefreshLocked(restored)
		log.Info("restored persisted session",
			zap.String("user_id", restored.UserID()),
			zap.Time("expires_at", restored.ExpiresAt),
		)
	}

	return c, nil
}

// Close stops the refresh timer. The session itself is left untouched.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
}

// GetSession returns the current session, refreshing it first when expired
// and a refresh token is available. Returns (nil, nil) when no session exists.
func (c *Client) GetSession(ctx context.Context) (*domain.Session, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return nil, nil
	}

	if session.IsExpired(time.Now()) {
		if session.RefreshToken == "" {
			c.clearSession(true)
			return nil, nil
		}
		refreshed, err := c.refresh(ctx, session.RefreshToken)
		if err != nil {
			var provErr *ProviderError
			if errors.As(err, &provErr) && provErr.IsAuthFailure() {
				c.clearSession(true)
				return nil, nil
			}
			return nil, err
		}
		return refreshed, nil
	}

	copied := *session
	return &copied, nil
}

// OnSessionChange registers fn for session lifecycle events.
func (c *Client) OnSessionChange(fn port.SessionChangeFunc) func() {
	c.cbMu.Lock()
	id := c.nextCbID
	c.nextCbID++
	c.callbacks[id] = fn
	c.cbMu.Unlock()

	return func() {
		c.cbMu.Lock()
		delete(c.callbacks, id)
		c.cbMu.Unlock()
	}
}

// SignUp creates a new identity. The account starts unverified and no session
// is issued until the email is confirmed.
func (c *Client) SignUp(ctx context.Context, params port.SignUpParams) (*domain.Identity, error) {
	payload := map[string]any{
		"email":    params.Email,
		"password": params.Password,
	}
	if len(params.Metadata) > 0 {
		payload["data"] = params.Metadata
	}

	var resp signUpResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/signup", payload, "", &resp); err != nil {
		return nil, err
	}

	user := resp.User
	if user == nil {
		// Older GoTrue versions return the user object at the top level.
		user = &resp.userPayload
	}

	identity := user.toDomain()
	c.log.Info("identity created",
		zap.String("user_id", identity.ID),
		zap.String("email", logger.MaskEmail(identity.Email)),
	)

	return identity, nil
}

// SignInWithPassword exchanges credentials for a session via the password
// grant and emits SIGNED_IN on success.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.Identity, *domain.Session, error) {
	payload := map[string]any{
		"email":    email,
		"password": password,
	}

	var resp sessionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", payload, "", &resp); err != nil {
		return nil, nil, err
	}

	session := resp.toDomain()
	c.storeSession(session)
	c.emit(domain.AuthEventSignedIn, session)

	return session.Identity, session, nil
}

// SignOut invalidates the session with the provider. The local session is
// cleared only after the provider confirms.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return nil
	}

	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/logout", nil, session.AccessToken, nil); err != nil {
		return err
	}

	c.clearSession(true)
	return nil
}

// GetUser fetches the authenticated identity from the provider, which
// verifies the access token server-side. Returns (nil, nil) without a session.
func (c *Client) GetUser(ctx context.Context) (*domain.Identity, error) {
	session, err := c.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	var user userPayload
	if err := c.doJSON(ctx, http.MethodGet, "/auth/v1/user", nil, session.AccessToken, &user); err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) && provErr.IsAuthFailure() {
			c.clearSession(true)
			return nil, nil
		}
		return nil, err
	}

	return user.toDomain(), nil
}

// ResetPassword dispatches a password recovery email.
func (c *Client) ResetPassword(ctx context.Context, email string) error {
	payload := map[string]any{"email": email}
	return c.doJSON(ctx, http.MethodPost, "/auth/v1/recover", payload, "", nil)
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	payload := map[string]any{"refresh_token": refreshToken}

	var resp sessionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", payload, "", &resp); err != nil {
		return nil, err
	}

	session := resp.toDomain()
	c.storeSession(session)
	c.emit(domain.AuthEventTokenRefreshed, session)

	c.log.Debug("session refreshed",
		zap.String("user_id", session.UserID()),
		zap.Time("expires_at", session.ExpiresAt),
	)

	copied := *session
	return &copied, nil
}

func (c *Client) storeSession(session *domain.Session) {
	c.mu.Lock()
	c.session = session
	c.scheduleRefreshLocked(session)
	c.mu.Unlock()

	if err := c.persistSession(session); err != nil {
		c.log.Warn("failed to persist session", zap.Error(err))
	}
}

func (c *Client) clearSession(emitSignedOut bool) {
	c.mu.Lock()
	hadSession := c.session != nil
	c.session = nil
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
	c.mu.Unlock()

	if c.sessionFile != "" {
		if err := os.Remove(c.sessionFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.log.Warn("failed to remove persisted session", zap.Error(err))
		}
	}

	if hadSession && emitSignedOut {
		c.emit(domain.AuthEventSignedOut, nil)
	}
}

// scheduleRefreshLocked arms the refresh timer; caller must hold mu.
func (c *Client) scheduleRefreshLocked(session *domain.Session) {
	if !c.autoRefresh || c.closed || session == nil || session.RefreshToken == "" || session.ExpiresAt.IsZero() {
		return
	}

	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
	}

	wait := time.Until(session.ExpiresAt) - c.margin
	if wait < 0 {
		wait = 0
	}

	refreshToken := session.RefreshToken
	c.refreshTimer = time.AfterFunc(wait, func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.httpClient.Timeout)
		defer cancel()

		if _, err := c.refresh(ctx, refreshToken); err != nil {
			var provErr *ProviderError
			if errors.As(err, &provErr) && provErr.IsAuthFailure() {
				c.log.Warn("refresh token rejected, signing out", zap.Error(err))
				c.clearSession(true)
				return
			}
			c.log.Warn("background session refresh failed", zap.Error(err))
		}
	})
}

func (c *Client) emit(event domain.AuthEvent, session *domain.Session) {
	c.cbMu.Lock()
	fns := make([]port.SessionChangeFunc, 0, len(c.callbacks))
	for _, fn := range c.callbacks {
		fns = append(fns, fn)
	}
	c.cbMu.Unlock()

	for _, fn := range fns {
		var copied *domain.Session
		if session != nil {
			s := *session
			copied = &s
		}
		fn(event, copied)
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, bearer string, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("identity: marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("identity: build request: %w", err)
	}

	req.Header.Set("apikey", c.anonKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	} else if c.anonKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("identity: read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    providerMessage(raw, resp.StatusCode),
		}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("identity: decode response: %w", err)
		}
	}

	return nil
}

// providerMessage extracts the human-readable error text from the provider's
// response body without rewording it.
func providerMessage(raw []byte, status int) string {
	var payload struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		ErrorCode        string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		switch {
		case payload.Msg != "":
			return payload.Msg
		case payload.Message != "":
			return payload.Message
		case payload.ErrorDescription != "":
			return payload.ErrorDescription
		case payload.ErrorCode != "":
			return payload.ErrorCode
		}
	}
	return fmt.Sprintf("identity provider returned status %d", status)
}

type userPayload struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at"`
	UserMetadata     map[string]any `json:"user_metadata"`
	CreatedAt        time.Time      `json:"created_at"`
}

func (u *userPayload) toDomain() *domain.Identity {
	return &domain.Identity{
		ID:               u.ID,
		Email:            u.Email,
		EmailConfirmedAt: u.EmailConfirmedAt,
		Metadata:         u.UserMetadata,
		CreatedAt:        u.CreatedAt,
	}
}

type signUpResponse struct {
	User *userPayload `json:"user"`
	userPayload
}

type sessionResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	User         *userPayload `json:"user"`
}

func (r *sessionResponse) toDomain() *domain.Session {
	session := &domain.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		ExpiresAt:    r.expiry(),
	}
	if r.User != nil {
		session.Identity = r.User.toDomain()
	}
	return session
}

func (r *sessionResponse) expiry() time.Time {
	if r.ExpiresAt > 0 {
		return time.Unix(r.ExpiresAt, 0)
	}
	if r.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	if exp := tokenExpiry(r.AccessToken); !exp.IsZero() {
		return exp
	}
	return time.Time{}
}

// tokenExpiry decodes the exp claim of the access token without verifying the
// signature. Verification belongs to the provider, not this client.
func tokenExpiry(accessToken string) time.Time {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

type persistedSession struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         *userPayload `json:"user,omitempty"`
}

func (c *Client) persistSession(session *domain.Session) error {
	if c.sessionFile == "" || session == nil {
		return nil
	}

	stored := persistedSession{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    session.TokenType,
		ExpiresAt:    session.ExpiresAt,
	}
	if session.Identity != nil {
		stored.User = &userPayload{
			ID:               session.Identity.ID,
			Email:            session.Identity.Email,
			EmailConfirmedAt: session.Identity.EmailConfirmedAt,
			UserMetadata:     session.Identity.Metadata,
			CreatedAt:        session.Identity.CreatedAt,
		}
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(c.sessionFile, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (c *Client) loadPersistedSession() (*domain.Session, error) {
	if c.sessionFile == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(c.sessionFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var stored persistedSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	if stored.RefreshToken == "" && stored.AccessToken == "" {
		return nil, nil
	}

	session := &domain.Session{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		TokenType:    stored.TokenType,
		ExpiresAt:    stored.ExpiresAt,
	}
	if stored.User != nil {
		session.Identity = stored.User.toDomain()
	}
	return session, nil
}
