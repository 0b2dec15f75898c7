// Package apitest runs an in-process double of the todo backend for tests.
//
// It implements the consumed REST surface against in-memory maps: register
// with Django-shaped field errors, login issuing an HS256 access token plus an
// opaque refresh token, a bearer-authenticated profile, and the todo
// collection with is_completed/search filtering in newest-first order.
// FailNext injects one-shot failures so revert paths can be exercised.
// Imported only by tests; never shipped in a binary.
package apitest

import (
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskdeck/cli/internal/model"
)

const accessTTL = time.Hour

type user struct {
	id           int64
	username     string
	passwordHash string
}

type Server struct {
	srv    *httptest.Server
	secret []byte

	mu         sync.Mutex
	users      map[string]*user
	todos      map[int64]*storedTask
	nextUserID int64
	nextTaskID int64
	failNext   map[string]int
	revoked    bool
	listCount  int
	lastSearch string
}

type storedTask struct {
	model.Task
	ownerID int64
}

func New() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		secret:     []byte("apitest-secret"),
		users:      make(map[string]*user),
		todos:      make(map[int64]*storedTask),
		nextUserID: 1,
		nextTaskID: 1,
		failNext:   make(map[string]int),
	}

	r := gin.New()
	r.POST("/api/auth/register/", s.register)
	r.POST("/api/auth/login/", s.login)

	authed := r.Group("/", s.authMiddleware())
	authed.GET("/api/auth/profile/", s.profile)
	authed.GET("/api/todos/", s.listTodos)
	authed.POST("/api/todos/", s.createTodo)
	authed.PATCH("/api/todos/:id/", s.updateTodo)
	authed.POST("/api/todos/:id/toggle_complete/", s.toggleTodo)
	authed.DELETE("/api/todos/:id/", s.deleteTodo)

	s.srv = httptest.NewServer(r)
	return s
}

func (s *Server) URL() string { return s.srv.URL }

func (s *Server) Close() { s.srv.Close() }

// FailNext makes the next n requests hitting op answer 500. Ops: register,
// login, profile, list, create, update, toggle, delete.
func (s *Server) FailNext(op string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[op] = n
}

// RevokeTokens makes every bearer credential invalid from now on, simulating
// a backend that no longer accepts the stored pair.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked = true
}

// Seed registers a user directly and returns a valid token pair for it.
func (s *Server) Seed(username, password string) model.TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &user{id: s.nextUserID, username: username, passwordHash: string(hash)}
	s.nextUserID++
	s.users[username] = u

	return s.mintPair(u)
}

// SeedTask inserts a task for the given username and returns it.
func (s *Server) SeedTask(username, title string, completed bool) model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.users[username]
	now := time.Now().UTC()
	t := &storedTask{
		Task: model.Task{
			ID:          s.nextTaskID,
			Title:       title,
			IsCompleted: completed,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		ownerID: owner.id,
	}
	s.nextTaskID++
	s.todos[t.ID] = t
	return t.Task
}

// ListRequests reports the number of list requests served, for debounce tests.
func (s *Server) ListRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCount
}

// LastSearch reports the search term of the most recent list request.
func (s *Server) LastSearch() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSearch
}
