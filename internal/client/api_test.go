package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/taskdeck/cli/internal/config"
	"github.com/taskdeck/cli/internal/model"
)

// memTokens is a TokenSource whose pair can change between requests.
type memTokens struct {
	mu   sync.Mutex
	pair model.TokenPair
	ok   bool
}

func (m *memTokens) Load() (model.TokenPair, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pair, m.ok, nil
}

func (m *memTokens) set(pair model.TokenPair) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair, m.ok = pair, true
}

func (m *memTokens) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair, m.ok = model.TokenPair{}, false
}

func newTestClient(baseURL string, tokens TokenSource) *Client {
	return New(config.APIConfig{BaseURL: baseURL, Timeout: 2 * time.Second}, tokens)
}

func TestBearerReadFreshPerRequest(t *testing.T) {
	var gotAuth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tokens := &memTokens{}
	c := newTestClient(srv.URL, tokens)
	ctx := context.Background()

	if err := c.Get(ctx, "/first", nil); err != nil {
		t.Fatal(err)
	}

	tokens.set(model.TokenPair{Access: "tok-a"})
	if err := c.Get(ctx, "/second", nil); err != nil {
		t.Fatal(err)
	}

	tokens.clear()
	if err := c.Get(ctx, "/third", nil); err != nil {
		t.Fatal(err)
	}

	want := []string{"", "Bearer tok-a", ""}
	for i, w := range want {
		if gotAuth[i] != w {
			t.Fatalf("request %d Authorization = %q, want %q", i, gotAuth[i], w)
		}
	}
}

func TestRequestHeaders(t *testing.T) {
	var contentType, requestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		requestID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &memTokens{})
	if err := c.Post(context.Background(), "/x", map[string]string{"a": "b"}, nil); err != nil {
		t.Fatal(err)
	}

	if contentType != "application/json" {
		t.Fatalf("Content-Type = %q", contentType)
	}
	if requestID == "" {
		t.Fatal("expected X-Request-ID to be set")
	}
}

func TestNon2xxSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"username": ["A user with that username already exists."]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &memTokens{})
	err := c.Post(context.Background(), "/x", nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}

	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", apiErr.StatusCode)
	}
	msg, ok := apiErr.FieldError("username")
	if !ok || msg != "A user with that username already exists." {
		t.Fatalf("field error = %q ok=%v", msg, ok)
	}
}

func TestVerbs(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, &memTokens{})
	ctx := context.Background()

	if err := c.Get(ctx, "/a", nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Post(ctx, "/a", nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Patch(ctx, "/a", nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "/a"); err != nil {
		t.Fatal(err)
	}

	want := []string{"GET", "POST", "PATCH", "DELETE"}
	for i, w := range want {
		if methods[i] != w {
			t.Fatalf("call %d method = %s, want %s", i, methods[i], w)
		}
	}
}
