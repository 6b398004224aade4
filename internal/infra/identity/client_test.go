package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/arklim/learnhub-client/internal/core/domain"
	"github.com/arklim/learnhub-client/internal/core/port"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (r *eventRecorder) record(event domain.AuthEvent, _ *domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) recorded() []domain.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuthEvent(nil), r.events...)
}

func sessionBody(userID, email string) map[string]any {
	return map[string]any{
		"access_token":  "access-token-1",
		"refresh_token": "refresh-token-1",
		"token_type":    "bearer",
		"expires_in":    3600,
		"user": map[string]any{
			"id":         userID,
			"email":      email,
			"created_at": time.Now().UTC().Format(time.RFC3339),
		},
	}
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL: baseURL,
		AnonKey: "anon-key",
		Timeout: 5 * time.Second,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestSignInStoresSessionAndEmits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL)
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("missing apikey header, got %q", r.Header.Get("apikey"))
		}
		if r.Header.Get("Authorization") != "Bearer anon-key" {
			t.Errorf("unexpected authorization header: %q", r.Header.Get("Authorization"))
		}
		_ = json.NewEncoder(w).Encode(sessionBody("user-1", "jane@example.com"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	recorder := &eventRecorder{}
	unsubscribe := client.OnSessionChange(recorder.record)
	defer unsubscribe()

	identity, session, err := client.SignInWithPassword(context.Background(), "jane@example.com", "secret")
	if err != nil {
		t.Fatalf("SignInWithPassword returned error: %v", err)
	}

	if identity == nil || identity.ID != "user-1" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if session.AccessToken != "access-token-1" || session.RefreshToken != "refresh-token-1" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.ExpiresAt.IsZero() {
		t.Fatal("expected expiry derived from expires_in")
	}

	events := recorder.recorded()
	if len(events) != 1 || events[0] != domain.AuthEventSignedIn {
		t.Fatalf("unexpected events: %v", events)
	}

	current, err := client.GetSession(context.Background())
	if err != nil {
		t.Fatalf("GetSession returned error: %v", err)
	}
	if current == nil || current.UserID() != "user-1" {
		t.Fatalf("unexpected current session: %+v", current)
	}
}

func TestSignInProviderMessageVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"msg":"Invalid login credentials"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, _, err := client.SignInWithPassword(context.Background(), "jane@example.com", "wrong")
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if provErr.Message != "Invalid login credentials" {
		t.Fatalf("provider message reworded: %q", provErr.Message)
	}
	if provErr.IsAuthFailure() {
		t.Fatal("400 must not count as auth failure")
	}

	session, err := client.GetSession(context.Background())
	if err != nil || session != nil {
		t.Fatalf("expected no session after rejection, got %+v (err %v)", session, err)
	}
}

func TestSignOutClearsSessionOnlyAfterProviderConfirms(t *testing.T) {
	var logoutStatus int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			_ = json.NewEncoder(w).Encode(sessionBody("user-1", "jane@example.com"))
		case "/auth/v1/logout":
			if r.Header.Get("Authorization") != "Bearer access-token-1" {
				t.Errorf("logout must carry the session token, got %q", r.Header.Get("Authorization"))
			}
			w.WriteHeader(logoutStatus)
			if logoutStatus >= http.StatusBadRequest {
				_, _ = w.Write([]byte(`{"msg":"boom"}`))
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if _, _, err := client.SignInWithPassword(context.Background(), "jane@example.com", "secret"); err != nil {
		t.Fatalf("SignInWithPassword returned error: %v", err)
	}

	recorder := &eventRecorder{}
	unsubscribe := client.OnSessionChange(recorder.record)
	defer unsubscribe()

	logoutStatus = http.StatusInternalServerError
	if err := client.SignOut(context.Background()); err == nil {
		t.Fatal("expected sign-out failure to surface")
	}
	if session, _ := client.GetSession(context.Background()); session == nil {
		t.Fatal("session must survive a failed sign-out")
	}

	logoutStatus = http.StatusNoContent
	if err := client.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut returned error: %v", err)
	}
	if session, _ := client.GetSession(context.Background()); session != nil {
		t.Fatalf("session must be cleared after sign-out, got %+v", session)
	}

	events := recorder.recorded()
	if len(events) != 1 || events[0] != domain.AuthEventSignedOut {
		t.Fatalf("unexpected events: %v", events)
	}
}

func TestGetUserWithoutSessionSkipsNetwork(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	identity, err := client.GetUser(context.Background())
	if err != nil || identity != nil {
		t.Fatalf("expected (nil, nil), got %+v (err %v)", identity, err)
	}
	if calls != 0 {
		t.Fatalf("expected no provider calls, got %d", calls)
	}
}

func TestGetUserAuthFailureClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			_ = json.NewEncoder(w).Encode(sessionBody("user-1", "jane@example.com"))
		case "/auth/v1/user":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if _, _, err := client.SignInWithPassword(context.Background(), "jane@example.com", "secret"); err != nil {
		t.Fatalf("SignInWithPassword returned error: %v", err)
	}

	recorder := &eventRecorder{}
	unsubscribe := client.OnSessionChange(recorder.record)
	defer unsubscribe()

	identity, err := client.GetUser(context.Background())
	if err != nil || identity != nil {
		t.Fatalf("expected (nil, nil) on rejected token, got %+v (err %v)", identity, err)
	}

	if session, _ := client.GetSession(context.Background()); session != nil {
		t.Fatalf("expected session cleared, got %+v", session)
	}

	events := recorder.recorded()
	if len(events) != 1 || events[0] != domain.AuthEventSignedOut {
		t.Fatalf("unexpected events: %v", events)
	}
}

func TestSessionFilePersistenceRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sessionBody("user-1", "jane@example.com"))
	}))
	defer srv.Close()

	sessionFile := filepath.Join(t.TempDir(), "session.json")

	first, err := NewClient(Config{
		BaseURL:     srv.URL,
		AnonKey:     "anon-key",
		SessionFile: sessionFile,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	defer first.Close()

	if _, _, err := first.SignInWithPassword(context.Background(), "jane@example.com", "secret"); err != nil {
		t.Fatalf("SignInWithPassword returned error: %v", err)
	}

	info, err := os.Stat(sessionFile)
	if err != nil {
		t.Fatalf("session file not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("unexpected session file mode: %v", info.Mode().Perm())
	}

	second, err := NewClient(Config{
		BaseURL:     srv.URL,
		AnonKey:     "anon-key",
		SessionFile: sessionFile,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	defer second.Close()

	restored, err := second.GetSession(context.Background())
	if err != nil {
		t.Fatalf("GetSession returned error: %v", err)
	}
	if restored == nil || restored.AccessToken != "access-token-1" || restored.UserID() != "user-1" {
		t.Fatalf("unexpected restored session: %+v", restored)
	}
}

func TestSignOutRemovesPersistedSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			_ = json.NewEncoder(w).Encode(sessionBody("user-1", "jane@example.com"))
		case "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	sessionFile := filepath.Join(t.TempDir(), "session.json")

	client, err := NewClient(Config{
		BaseURL:     srv.URL,
		AnonKey:     "anon-key",
		SessionFile: sessionFile,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	defer client.Close()

	if _, _, err := client.SignInWithPassword(context.Background(), "jane@example.com", "secret"); err != nil {
		t.Fatalf("SignInWithPassword returned error: %v", err)
	}
	if err := client.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut returned error: %v", err)
	}

	if _, err := os.Stat(sessionFile); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected session file removed, got %v", err)
	}
}

func TestUnsubscribeStopsEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sessionBody("user-1", "jane@example.com"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	recorder := &eventRecorder{}
	unsubscribe := client.OnSessionChange(recorder.record)
	unsubscribe()

	if _, _, err := client.SignInWithPassword(context.Background(), "jane@example.com", "secret"); err != nil {
		t.Fatalf("SignInWithPassword returned error: %v", err)
	}

	if events := recorder.recorded(); len(events) != 0 {
		t.Fatalf("expected no events after unsubscribe, got %v", events)
	}
}

func TestSignUpParsesTopLevelUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/signup" {
			http.NotFound(w, r)
			return
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode sign-up payload: %v", err)
		}
		if data, ok := payload["data"].(map[string]any); !ok || data["full_name"] != "Jane Doe" {
			t.Errorf("metadata not forwarded: %+v", payload["data"])
		}

		_, _ = w.Write([]byte(`{"id":"user-1","email":"jane@example.com","created_at":"2026-01-02T15:04:05Z"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	identity, err := client.SignUp(context.Background(), port.SignUpParams{
		Email:    "jane@example.com",
		Password: "correct-horse-battery",
		Metadata: map[string]any{"full_name": "Jane Doe", "role": "student"},
	})
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if identity.ID != "user-1" || identity.Email != "jane@example.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if identity.EmailConfirmedAt != nil {
		t.Fatal("fresh sign-up must be unverified")
	}

	session, err := client.GetSession(context.Background())
	if err != nil || session != nil {
		t.Fatalf("sign-up must not issue a session, got %+v (err %v)", session, err)
	}
}
