package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"attendtrack/internal/models"
)

// hostSwitch fails requests to hosts marked down and passes the rest through
type hostSwitch struct {
	mu   sync.Mutex
	down map[string]bool
}

func (s *hostSwitch) set(rawURL string, down bool) {
	u, _ := url.Parse(rawURL)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down == nil {
		s.down = map[string]bool{}
	}
	s.down[u.Host] = down
}

func (s *hostSwitch) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	down := s.down[req.URL.Host]
	s.mu.Unlock()
	if down {
		return nil, errors.New("connection refused")
	}
	return http.DefaultTransport.RoundTrip(req)
}

type countingServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newCountingServer(t *testing.T, handler http.HandlerFunc) *countingServer {
	t.Helper()
	s := &countingServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func okJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

// closedURL returns the address of a server that is no longer listening
func closedURL(t *testing.T) string {
	t.Helper()
	s := httptest.NewServer(http.NotFoundHandler())
	addr := s.URL
	s.Close()
	return addr
}

type countingTokens struct {
	MemoryTokenStore
	clears atomic.Int32
}

func (s *countingTokens) Clear() error {
	s.clears.Add(1)
	return s.MemoryTokenStore.Clear()
}

func mustEndpoints(t *testing.T, urls ...string) *Endpoints {
	t.Helper()
	e, err := NewEndpoints(urls)
	if err != nil {
		t.Fatalf("NewEndpoints failed: %v", err)
	}
	return e
}

func TestNewEndpointsRequiresCandidate(t *testing.T) {
	if _, err := NewEndpoints([]string{" ", ""}); !errors.Is(err, ErrNoEndpoints) {
		t.Fatalf("expected ErrNoEndpoints, got %v", err)
	}
}

func TestFailoverCascadesAndSticks(t *testing.T) {
	live := newCountingServer(t, okJSON(`{"ok":true}`))
	endpoints := mustEndpoints(t, closedURL(t), closedURL(t), live.URL)
	c := New(Options{Endpoints: endpoints, Timeout: 2 * time.Second})

	var out map[string]bool
	if err := c.Do(context.Background(), http.MethodGet, "/health", nil, &out); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if !out["ok"] {
		t.Fatalf("unexpected response %v", out)
	}
	if i, base := endpoints.Current(); i != 2 || base != live.URL {
		t.Fatalf("cursor = (%d, %s), want (2, %s)", i, base, live.URL)
	}

	if err := c.Do(context.Background(), http.MethodGet, "/health", nil, nil); err != nil {
		t.Fatalf("second Do failed: %v", err)
	}
	if got := live.hits.Load(); got != 2 {
		t.Errorf("expected 2 hits on the live endpoint, got %d", got)
	}
}

func TestFailoverNeverWraps(t *testing.T) {
	first := newCountingServer(t, okJSON(`{}`))
	second := newCountingServer(t, okJSON(`{}`))
	sw := &hostSwitch{}
	sw.set(first.URL, true)

	endpoints := mustEndpoints(t, first.URL, second.URL)
	c := New(Options{Endpoints: endpoints, HTTPClient: &http.Client{Transport: sw, Timeout: 2 * time.Second}})

	if err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if i, _ := endpoints.Current(); i != 1 {
		t.Fatalf("expected cursor 1, got %d", i)
	}

	sw.set(first.URL, false)
	sw.set(second.URL, true)

	err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil)
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if tErr.Endpoint != second.URL {
		t.Errorf("TransportError endpoint = %s, want %s", tErr.Endpoint, second.URL)
	}
	if i, _ := endpoints.Current(); i != 1 {
		t.Errorf("cursor moved to %d", i)
	}
	if got := first.hits.Load(); got != 0 {
		t.Errorf("first endpoint should never be retried, got %d hits", got)
	}
}

func TestTransportErrorAfterExhaustion(t *testing.T) {
	last := closedURL(t)
	endpoints := mustEndpoints(t, closedURL(t), last)
	c := New(Options{Endpoints: endpoints, Timeout: 2 * time.Second})

	err := c.Do(context.Background(), http.MethodGet, "/health", nil, nil)
	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if tErr.Endpoint != last {
		t.Errorf("expected failure reported against %s, got %s", last, tErr.Endpoint)
	}
}

func TestRetryReplaysBody(t *testing.T) {
	var got Mark
	live := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Records []Mark `json:"records"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && len(body.Records) == 1 {
			got = body.Records[0]
		}
		okJSON(`{"message":"Attendance recorded successfully","successCount":1,"errorCount":0,"errors":[]}`)(w, r)
	})
	c := New(Options{Endpoints: mustEndpoints(t, closedURL(t), live.URL), Timeout: 2 * time.Second})

	summary, err := c.Record(context.Background(), []Mark{{StudentID: 7, ClassID: 3, Date: "2024-09-02", Status: "present"}})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if summary.SuccessCount != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if got.StudentID != 7 || got.Status != "present" {
		t.Errorf("retried request lost its body: %+v", got)
	}
}

func TestApplicationErrorDoesNotFailOver(t *testing.T) {
	failing := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"Failed to load classes"}`)
	})
	spare := newCountingServer(t, okJSON(`[]`))
	endpoints := mustEndpoints(t, failing.URL, spare.URL)
	c := New(Options{Endpoints: endpoints})

	_, err := c.Classes(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError || apiErr.Message != "Failed to load classes" {
		t.Errorf("unexpected APIError %+v", apiErr)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("500 must not match ErrUnauthorized")
	}
	if i, _ := endpoints.Current(); i != 0 {
		t.Errorf("application error moved the cursor to %d", i)
	}
	if spare.hits.Load() != 0 {
		t.Error("spare endpoint should not be contacted")
	}
}

func TestUnauthorizedClearsTokenOncePerResponse(t *testing.T) {
	var auth string
	s := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"Unauthorized"}`)
	})
	tokens := &countingTokens{}
	_ = tokens.Save("tok-1", nil)

	var redirects int
	c := New(Options{
		Endpoints:      mustEndpoints(t, s.URL),
		Tokens:         tokens,
		OnUnauthorized: func() { redirects++ },
	})

	_, err := c.Me(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if auth != "Bearer tok-1" {
		t.Errorf("expected bearer header, got %q", auth)
	}
	if tokens.clears.Load() != 1 || redirects != 1 {
		t.Fatalf("clears = %d, redirects = %d; want 1, 1", tokens.clears.Load(), redirects)
	}
	if tok, _ := tokens.Token(); tok != "" {
		t.Errorf("token should be cleared, got %q", tok)
	}

	_, _ = c.Me(context.Background())
	if tokens.clears.Load() != 2 {
		t.Errorf("expected one clear per 401, got %d", tokens.clears.Load())
	}
}

func TestDevEndpointsDoNotFailOver(t *testing.T) {
	endpoints := NewDevEndpoints(closedURL(t) + "/")
	if endpoints.Advance(0) {
		t.Fatal("dev endpoints must not advance")
	}
	c := New(Options{Endpoints: endpoints, Timeout: 2 * time.Second})
	var tErr *TransportError
	if err := c.Do(context.Background(), http.MethodGet, "/health", nil, nil); !errors.As(err, &tErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestCanceledContextDoesNotFailOver(t *testing.T) {
	spare := newCountingServer(t, okJSON(`{}`))
	endpoints := mustEndpoints(t, closedURL(t), spare.URL)
	c := New(Options{Endpoints: endpoints})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Do(ctx, http.MethodGet, "/health", nil, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if i, _ := endpoints.Current(); i != 0 {
		t.Errorf("canceled request moved the cursor to %d", i)
	}
}

func TestConcurrentAdvanceMovesOnce(t *testing.T) {
	endpoints := mustEndpoints(t, "http://a", "http://b", "http://c")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !endpoints.Advance(0) {
				t.Error("Advance(0) should report progress")
			}
		}()
	}
	wg.Wait()

	if i, base := endpoints.Current(); i != 1 || base != "http://b" {
		t.Fatalf("cursor = (%d, %s), want (1, http://b)", i, base)
	}
	if !endpoints.Advance(1) || endpoints.Advance(2) {
		t.Fatal("expected one more step then exhaustion")
	}
}

func TestLoginAndLogoutWithFileStore(t *testing.T) {
	var logoutAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", okJSON(`{"token":"abc","user":{"id":1,"username":"admin","role":"admin"}}`))
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		logoutAuth = r.Header.Get("Authorization")
		okJSON(`{"message":"Logged out successfully"}`)(w, r)
	})
	s := httptest.NewServer(mux)
	defer s.Close()

	store := NewFileTokenStore(filepath.Join(t.TempDir(), "nested", "session.json"))
	c := New(Options{Endpoints: mustEndpoints(t, s.URL), Tokens: store})

	user, err := c.Login(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.Username != "admin" || user.Role != models.RoleAdmin {
		t.Errorf("unexpected user %+v", user)
	}
	if tok, _ := store.Token(); tok != "abc" {
		t.Fatalf("expected stored token, got %q", tok)
	}
	if saved, _ := store.User(); saved == nil || saved.UserID != 1 {
		t.Errorf("expected stored user, got %+v", saved)
	}

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if logoutAuth != "Bearer abc" {
		t.Errorf("logout sent %q", logoutAuth)
	}
	if tok, err := store.Token(); tok != "" || err != nil {
		t.Errorf("expected cleared store, got (%q, %v)", tok, err)
	}
}

func TestProbe(t *testing.T) {
	live := newCountingServer(t, okJSON(`{"status":"ok"}`))
	dead := closedURL(t)
	endpoints := mustEndpoints(t, dead, live.URL)
	c := New(Options{Endpoints: endpoints})

	results := c.Probe(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Reachable || results[0].Error == "" {
		t.Errorf("dead endpoint reported reachable: %+v", results[0])
	}
	if !results[1].Reachable || results[1].StatusCode != http.StatusOK {
		t.Errorf("live endpoint not reachable: %+v", results[1])
	}
	if i, _ := endpoints.Current(); i != 0 {
		t.Errorf("probe moved the cursor to %d", i)
	}
}

func TestMalformedPathDoesNotFailOver(t *testing.T) {
	first := newCountingServer(t, okJSON(`{}`))
	second := newCountingServer(t, okJSON(`{}`))
	endpoints := mustEndpoints(t, first.URL, second.URL)
	c := New(Options{Endpoints: endpoints})

	err := c.Do(context.Background(), http.MethodGet, "/x\x7f%zz", nil, nil)
	if err == nil {
		t.Fatal("expected an error for a malformed path")
	}
	var tErr *TransportError
	if errors.As(err, &tErr) {
		t.Fatalf("malformed path reported as a transport failure: %v", err)
	}
	if i, _ := endpoints.Current(); i != 0 {
		t.Errorf("malformed path moved the cursor to %d", i)
	}
	if first.hits.Load() != 0 || second.hits.Load() != 0 {
		t.Error("no endpoint should be contacted")
	}

	if err := c.Do(context.Background(), http.MethodGet, "/ok", nil, nil); err != nil {
		t.Fatalf("follow-up request failed: %v", err)
	}
	if first.hits.Load() != 1 {
		t.Errorf("expected the first endpoint to serve the follow-up, got %d hits", first.hits.Load())
	}
}

func TestTimeoutFailsOver(t *testing.T) {
	hung := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	})
	live := newCountingServer(t, okJSON(`{"ok":true}`))
	endpoints := mustEndpoints(t, hung.URL, live.URL)
	c := New(Options{Endpoints: endpoints, Timeout: 100 * time.Millisecond})

	var out map[string]bool
	if err := c.Do(context.Background(), http.MethodGet, "/health", nil, &out); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if !out["ok"] {
		t.Fatalf("unexpected response %v", out)
	}
	if i, _ := endpoints.Current(); i != 1 {
		t.Errorf("expected cursor 1 after timeout, got %d", i)
	}
	if got := live.hits.Load(); got != 1 {
		t.Errorf("expected 1 hit on the live endpoint, got %d", got)
	}
}
