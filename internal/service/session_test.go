package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taskdeck/cli/internal/apitest"
	"github.com/taskdeck/cli/internal/client"
	"github.com/taskdeck/cli/internal/config"
	"github.com/taskdeck/cli/internal/tokenstore"
)

func newAuthStack(t *testing.T, srv *apitest.Server) (*tokenstore.Store, *SessionService) {
	t.Helper()
	store := tokenstore.New(t.TempDir())
	api := client.New(config.APIConfig{BaseURL: srv.URL(), Timeout: 2 * time.Second}, store)
	return store, NewSessionService(api, store)
}

func TestBootstrapAbsentPairIsAnonymous(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	_, session := newAuthStack(t, srv)
	if got := session.Bootstrap(context.Background()); got != StateAnonymous {
		t.Fatalf("state = %v, want anonymous", got)
	}
	if session.CurrentUser() != nil {
		t.Fatal("anonymous session must have no user")
	}
}

func TestBootstrapRejectedTokenClearsPair(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	store, session := newAuthStack(t, srv)
	pair := srv.Seed("alice", "pw1")
	if err := store.Save(pair); err != nil {
		t.Fatal(err)
	}
	srv.RevokeTokens()

	if got := session.Bootstrap(context.Background()); got != StateAnonymous {
		t.Fatalf("state = %v, want anonymous", got)
	}
	if _, ok, _ := store.Load(); ok {
		t.Fatal("rejected pair must be cleared from durable storage")
	}
}

func TestBootstrapVerifiedTokenAuthenticates(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	store, session := newAuthStack(t, srv)
	if err := store.Save(srv.Seed("alice", "pw1")); err != nil {
		t.Fatal(err)
	}

	if got := session.Bootstrap(context.Background()); got != StateAuthenticated {
		t.Fatalf("state = %v, want authenticated", got)
	}
	user := session.CurrentUser()
	if user == nil || user.Username != "alice" {
		t.Fatalf("user = %+v, want alice", user)
	}
}

func TestLoginThenProfileFailureLeavesAnonymous(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	store, session := newAuthStack(t, srv)
	srv.Seed("alice", "pw1")
	srv.FailNext("profile", 1)

	_, err := session.Login(context.Background(), "alice", "pw1")
	if err == nil {
		t.Fatal("expected error when profile verification fails")
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if session.State() != StateAnonymous {
		t.Fatalf("state = %v, want anonymous despite successful token exchange", session.State())
	}
	if _, ok, _ := store.Load(); ok {
		t.Fatal("tokens must be cleared after failed verification")
	}
}

func TestLoginSuccess(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	store, session := newAuthStack(t, srv)
	srv.Seed("alice", "pw1")

	user, err := session.Login(context.Background(), "alice", "pw1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("user = %+v", user)
	}
	if session.State() != StateAuthenticated {
		t.Fatalf("state = %v", session.State())
	}
	if _, ok, _ := store.Load(); !ok {
		t.Fatal("tokens must be persisted after verified login")
	}
}

func TestLoginBadCredentials(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	_, session := newAuthStack(t, srv)
	srv.Seed("alice", "pw1")

	_, err := session.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("err = %v, want ErrBadCredentials", err)
	}
	if session.State() != StateAnonymous {
		t.Fatalf("state = %v", session.State())
	}
}

func TestLogout(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	store, session := newAuthStack(t, srv)
	srv.Seed("alice", "pw1")
	if _, err := session.Login(context.Background(), "alice", "pw1"); err != nil {
		t.Fatal(err)
	}

	session.Logout()

	if session.State() != StateAnonymous || session.CurrentUser() != nil {
		t.Fatal("logout must clear state and user")
	}
	if _, ok, _ := store.Load(); ok {
		t.Fatal("logout must clear the persisted pair")
	}
}

// countingAPI records calls so tests can prove a code path never touched the
// network.
type countingAPI struct {
	calls int
}

func (c *countingAPI) Get(ctx context.Context, path string, out any) error {
	c.calls++
	return nil
}

func (c *countingAPI) Post(ctx context.Context, path string, body, out any) error {
	c.calls++
	return nil
}

func TestRegisterPasswordMismatchIsLocal(t *testing.T) {
	api := &countingAPI{}
	store := tokenstore.New(t.TempDir())
	session := NewSessionService(api, store)

	err := session.Register(context.Background(), "alice", "pw1", "pw2")
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("err = %v, want ErrPasswordMismatch", err)
	}
	if api.calls != 0 {
		t.Fatalf("mismatch must never issue a request, got %d", api.calls)
	}
	if UserMessage(err) != "Passwords do not match." {
		t.Fatalf("message = %q", UserMessage(err))
	}
}

func TestRegisterUsernameTaken(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	_, session := newAuthStack(t, srv)
	srv.Seed("alice", "pw1")

	err := session.Register(context.Background(), "alice", "pw99", "pw99")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("err = %v, want ErrUsernameTaken", err)
	}
}

func TestRegisterThenLoginFlow(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	_, session := newAuthStack(t, srv)

	if err := session.Register(context.Background(), "bob", "pw1", "pw1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	// Registration does not authenticate.
	if session.State() == StateAuthenticated {
		t.Fatal("register must not authenticate")
	}

	if _, err := session.Login(context.Background(), "bob", "pw1"); err != nil {
		t.Fatalf("login after register failed: %v", err)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"mismatch", ErrPasswordMismatch, "Passwords do not match."},
		{"taken", ErrUsernameTaken, "That username is already taken."},
		{"bad-creds", ErrBadCredentials, "Invalid username or password."},
		{"unauthorized", ErrUnauthorized, "Session expired, please log in again."},
		{"fallback", errors.New("boom"), "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
