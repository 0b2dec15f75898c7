package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/taskdeck/cli/internal/client"
	"github.com/taskdeck/cli/internal/model"
)

var (
	ErrBadCredentials   = errors.New("bad credentials")
	ErrUsernameTaken    = errors.New("username taken")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrUnauthorized     = errors.New("unauthorized")
)

// State is the session lifecycle position. A process starts bootstrapping and
// settles into exactly one of the other two.
type State int

const (
	StateBootstrapping State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateBootstrapping:
		return "bootstrapping"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// TokenStore is the durable home of the token pair. Satisfied by
// *tokenstore.Store.
type TokenStore interface {
	Save(model.TokenPair) error
	Load() (model.TokenPair, bool, error)
	Clear() error
}

// AuthAPI is the slice of the API client the session needs.
type AuthAPI interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// SessionService owns the current-user identity and the auth lifecycle.
// Invariant: CurrentUser is non-nil exactly when the state is authenticated;
// a token pair is only trusted after the most recent profile verification.
type SessionService struct {
	api   AuthAPI
	store TokenStore

	mu    sync.Mutex
	state State
	user  *model.User
}

func NewSessionService(api AuthAPI, store TokenStore) *SessionService {
	return &SessionService{
		api:   api,
		store: store,
		state: StateBootstrapping,
	}
}

func (s *SessionService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SessionService) CurrentUser() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Bootstrap runs once at process start. An absent pair means anonymous; a
// present pair is only as good as the profile fetch it enables, so any
// failure there tears the stored pair down rather than leaving an
// unverifiable credential behind.
func (s *SessionService) Bootstrap(ctx context.Context) State {
	_, ok, err := s.store.Load()
	if err != nil || !ok {
		s.setAnonymous()
		return StateAnonymous
	}

	user, err := s.fetchProfile(ctx)
	if err != nil {
		s.Logout()
		return StateAnonymous
	}

	s.setAuthenticated(user)
	return StateAuthenticated
}

// Login exchanges credentials for a token pair, persists it, then verifies it
// with a profile fetch. A login whose verification fails ends anonymous even
// though the token exchange itself succeeded.
func (s *SessionService) Login(ctx context.Context, username, password string) (*model.User, error) {
	var resp model.LoginResponse
	err := s.api.Post(ctx, "/api/auth/login/", model.LoginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		if apiErr, ok := client.AsAPIError(err); ok &&
			(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusBadRequest) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("login request failed: %w", err)
	}

	if err := s.store.Save(resp.Tokens); err != nil {
		return nil, fmt.Errorf("failed to persist tokens: %w", err)
	}

	user, err := s.fetchProfile(ctx)
	if err != nil {
		s.Logout()
		return nil, fmt.Errorf("%w: profile verification failed", ErrUnauthorized)
	}

	s.setAuthenticated(user)
	return user, nil
}

// Logout clears the in-memory identity and the persisted pair. Always lands
// in anonymous, even if removing the file fails.
func (s *SessionService) Logout() {
	// Nothing actionable if removal fails; the in-memory session is gone
	// either way.
	_ = s.store.Clear()
	s.setAnonymous()
}

// Register creates an account but does not authenticate; callers log in
// afterwards. The confirm check is local and never reaches the network.
func (s *SessionService) Register(ctx context.Context, username, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}

	err := s.api.Post(ctx, "/api/auth/register/", model.RegisterRequest{
		Username:        username,
		Password:        password,
		PasswordConfirm: confirm,
	}, nil)
	if err == nil {
		return nil
	}

	if apiErr, ok := client.AsAPIError(err); ok {
		if msg, ok := apiErr.FieldError("username"); ok {
			return fmt.Errorf("%w: %s", ErrUsernameTaken, msg)
		}
		if msg, ok := apiErr.FieldError("password"); ok {
			return fmt.Errorf("%w: password: %s", ErrBadCredentials, msg)
		}
	}
	return fmt.Errorf("registration failed: %w", err)
}

func (s *SessionService) fetchProfile(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := s.api.Get(ctx, "/api/auth/profile/", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SessionService) setAuthenticated(user *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthenticated
	s.user = user
}

func (s *SessionService) setAnonymous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAnonymous
	s.user = nil
}

// UserMessage flattens a session error into the short string shown to the
// user. Anything unclassified gets the generic fallback.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrPasswordMismatch):
		return "Passwords do not match."
	case errors.Is(err, ErrUsernameTaken):
		return "That username is already taken."
	case errors.Is(err, ErrBadCredentials):
		return "Invalid username or password."
	case errors.Is(err, ErrUnauthorized):
		return "Session expired, please log in again."
	default:
		return "Something went wrong. Please try again."
	}
}
