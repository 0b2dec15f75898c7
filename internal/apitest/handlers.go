package apitest

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskdeck/cli/internal/model"
)

const authUserKey = "auth_user"

func (s *Server) shouldFail(op string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext[op] > 0 {
		s.failNext[op]--
		return true
	}
	return false
}

func (s *Server) mintPair(u *user) model.TokenPair {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(u.id, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(accessTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	access, _ := token.SignedString(s.secret)

	return model.TokenPair{Access: access, Refresh: uuid.New().String()}
}

func (s *Server) register(c *gin.Context) {
	if s.shouldFail("register") {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"username": []string{"This field may not be blank."}})
		return
	}
	if req.Password != req.PasswordConfirm {
		c.JSON(http.StatusBadRequest, gin.H{"password": []string{"Password fields didn't match."}})
		return
	}
	if req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"password": []string{"This field may not be blank."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[req.Username]; exists {
		c.JSON(http.StatusBadRequest, gin.H{"username": []string{"A user with that username already exists."}})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	u := &user{id: s.nextUserID, username: req.Username, passwordHash: string(hash)}
	s.nextUserID++
	s.users[req.Username] = u

	c.JSON(http.StatusCreated, gin.H{"id": u.id, "username": u.username})
}

func (s *Server) login(c *gin.Context) {
	if s.shouldFail("login") {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[req.Username]
	if !ok || bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "No active account found with the given credentials"})
		return
	}

	c.JSON(http.StatusOK, model.LoginResponse{Tokens: s.mintPair(u)})
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		s.mu.Lock()
		revoked := s.revoked
		s.mu.Unlock()
		if revoked {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Set(authUserKey, userID)
		c.Next()
	}
}

func (s *Server) authedUser(c *gin.Context) (*user, bool) {
	val, ok := c.Get(authUserKey)
	if !ok {
		return nil, false
	}
	id := val.(int64)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.id == id {
			return u, true
		}
	}
	return nil, false
}

func (s *Server) profile(c *gin.Context) {
	if s.shouldFail("profile") {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	u, ok := s.authedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, model.User{ID: u.id, Username: u.username})
}

func (s *Server) listTodos(c *gin.Context) {
	u, ok := s.authedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	s.mu.Lock()
	s.listCount++
	s.lastSearch = c.Query("search")
	s.mu.Unlock()

	if s.shouldFail("list") {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	completedParam := c.Query("is_completed")
	search := strings.ToLower(c.Query("search"))

	s.mu.Lock()
	defer s.mu.Unlock()

	results := []model.Task{}
	for _, t := range s.todos {
		if t.ownerID != u.id {
			continue
		}
		if completedParam == "true" && !t.IsCompleted {
			continue
		}
		if completedParam == "false" && t.IsCompleted {
			continue
		}
		if search != "" {
			desc := ""
			if t.Description != nil {
				desc = *t.Description
			}
			if !strings.Contains(strings.ToLower(t.Title), search) &&
				!strings.Contains(strings.ToLower(desc), search) {
				continue
			}
		}
		results = append(results, t.Task)
	}

	// Newest first, the backend's default ordering.
	sort.Slice(results, func(i, j int) bool {
		return results[i].ID > results[j].ID
	})

	c.JSON(http.StatusOK, model.TaskListResponse{Results: results})
}

func (s *Server) createTodo(c *gin.Context) {
	if s.shouldFail("create") {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	u, ok := s.authedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req model.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"title": []string{"This field may not be blank."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	t := &storedTask{
		Task: model.Task{
			ID:        s.nextTaskID,
			Title:     req.Title,
			CreatedAt: now,
			UpdatedAt: now,
		},
		ownerID: u.id,
	}
	if req.Description != "" {
		desc := req.Description
		t.Description = &desc
	}
	s.nextTaskID++
	s.todos[t.ID] = t

	c.JSON(http.StatusCreated, t.Task)
}

func (s *Server) findOwned(c *gin.Context) (*storedTask, bool) {
	u, ok := s.authedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[id]
	if !ok || t.ownerID != u.id {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return nil, false
	}
	return t, true
}

func (s *Server) updateTodo(c *gin.Context) {
	if s.shouldFail("update") {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	t, ok := s.findOwned(c)
	if !ok {
		return
	}

	var req model.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Title != nil && *req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"title": []string{"This field may not be blank."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = req.Description
	}
	t.UpdatedAt = time.Now().UTC()

	c.JSON(http.StatusOK, t.Task)
}

func (s *Server) toggleTodo(c *gin.Context) {
	if s.shouldFail("toggle") {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	t, ok := s.findOwned(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t.IsCompleted = !t.IsCompleted
	t.UpdatedAt = time.Now().UTC()

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) deleteTodo(c *gin.Context) {
	if s.shouldFail("delete") {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	t, ok := s.findOwned(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.todos, t.ID)
	c.Status(http.StatusNoContent)
}
