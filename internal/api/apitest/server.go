// Package apitest runs an in-memory stand-in for the media-batch REST API
// so client flows can be exercised end to end in tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cyberwithaman/digicon/internal/models"
)

const (
	Username = "amy"
	Password = "secret"
	Token    = "tok-amy"
)

// Request is one call the server received.
type Request struct {
	Method      string
	Path        string
	Auth        string
	ContentType string
	Form        map[string][]string
	Files       map[string][]string
	FileTypes   map[string][]string
	JSON        map[string]any
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	batches  []models.Batch
	users    []models.User
	files    map[string][]byte
	failures map[string]int
	once     map[string]int
	requests []Request
	nextID   int64
}

func New() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		files:    make(map[string][]byte),
		failures: make(map[string]int),
		once:     make(map[string]int),
		nextID:   100,
	}
	s.users = []models.User{{ID: 1, Username: Username, Email: "amy@example.com", Role: models.RoleAdmin}}

	engine := gin.New()
	engine.Use(s.record())

	engine.POST("/auth/login/", s.login)
	engine.GET("/files/:name", s.file)

	authed := engine.Group("/")
	authed.Use(s.auth())
	authed.POST("/auth/logout/", s.ok)
	authed.GET("/batches/", s.listBatches)
	authed.POST("/batches/", s.createBatch)
	authed.GET("/batches/:id/", s.getBatch)
	authed.DELETE("/batches/:id/", s.deleteBatch)
	authed.POST("/batches/:id/images/", s.addImages)
	authed.DELETE("/media/:id/", s.deleteImage)
	authed.GET("/users/", s.listUsers)
	authed.POST("/users/", s.saveUser)
	authed.POST("/users/password/change/", s.ok)
	authed.GET("/users/:id/", s.getUser)
	authed.PUT("/users/:id/", s.saveUser)
	authed.DELETE("/users/:id/", s.deleteUser)
	authed.POST("/users/:id/reset-password/", s.ok)

	s.Server = httptest.NewServer(engine)
	return s
}

func (s *Server) Session() models.Session {
	return models.Session{Token: Token, IsAdmin: true, Username: Username, UserID: 1}
}

func (s *Server) SetBatches(batches []models.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append([]models.Batch(nil), batches...)
}

func (s *Server) Batches() []models.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Batch(nil), s.batches...)
}

func (s *Server) SetUsers(users []models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append([]models.User(nil), users...)
}

// PutFile serves data at /files/<name> and returns the absolute URL.
func (s *Server) PutFile(name string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
	return s.URL + "/files/" + name
}

// Fail makes every "METHOD path" call answer with status and a detail body.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// FailOnce makes only the next "METHOD path" call fail.
func (s *Server) FailOnce(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.once[method+" "+path] = status
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Last returns the most recent request matching method and path.
func (s *Server) Last(method, path string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Method == method && s.requests[i].Path == path {
			return s.requests[i], true
		}
	}
	return Request{}, false
}

func (s *Server) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		rec := Request{
			Method:      c.Request.Method,
			Path:        c.Request.URL.Path,
			Auth:        c.GetHeader("Authorization"),
			ContentType: c.ContentType(),
		}

		switch rec.ContentType {
		case "multipart/form-data":
			if err := c.Request.ParseMultipartForm(32 << 20); err == nil {
				rec.Form = c.Request.MultipartForm.Value
				rec.Files = make(map[string][]string)
				rec.FileTypes = make(map[string][]string)
				for field, headers := range c.Request.MultipartForm.File {
					for _, h := range headers {
						rec.Files[field] = append(rec.Files[field], h.Filename)
						rec.FileTypes[field] = append(rec.FileTypes[field], h.Header.Get("Content-Type"))
					}
				}
			}
		case "application/json":
			body, _ := io.ReadAll(c.Request.Body)
			_ = json.Unmarshal(body, &rec.JSON)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, rec)
		key := rec.Method + " " + rec.Path
		status, fail := s.failures[key]
		if once, ok := s.once[key]; ok {
			delete(s.once, key)
			status, fail = once, true
		}
		s.mu.Unlock()

		if fail {
			c.AbortWithStatusJSON(status, gin.H{"detail": fmt.Sprintf("forced failure %d", status)})
			return
		}
		c.Next()
	}
}

func (s *Server) auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Token "+Token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}
		c.Next()
	}
}

func (s *Server) ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"detail": "ok"})
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	_ = c.ShouldBindJSON(&req)

	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}
	if req.Username != Username || req.Password != Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": Token, "is_admin": true, "username": Username, "user_id": 1})
}

func (s *Server) file(c *gin.Context) {
	s.mu.Lock()
	data, ok := s.files[c.Param("name")]
	s.mu.Unlock()
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func (s *Server) listBatches(c *gin.Context) {
	c.JSON(http.StatusOK, s.Batches())
}

func (s *Server) createBatch(c *gin.Context) {
	rec, _ := s.Last(http.MethodPost, "/batches/")
	title, _ := rec.JSON["title"].(string)
	if strings.TrimSpace(title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"title": []string{"This field is required."}})
		return
	}

	s.mu.Lock()
	s.nextID++
	now := time.Now().UTC()
	ref := fmt.Sprintf("REF-ID-%06d", s.nextID)
	batch := models.Batch{
		ID:         s.nextID,
		Title:      &title,
		ReferralID: &ref,
		CreatedAt:  &now,
		Owner:      &models.Owner{ID: 1, Username: Username},
		Images:     []models.Image{},
	}
	s.batches = append(s.batches, batch)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, batch)
}

func (s *Server) findBatch(c *gin.Context) (int, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return -1, false
	}
	for i, b := range s.batches {
		if b.ID == id {
			return i, true
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Batch not found"})
	return -1, false
}

func (s *Server) getBatch(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.findBatch(c); ok {
		c.JSON(http.StatusOK, s.batches[i])
	}
}

func (s *Server) deleteBatch(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.findBatch(c); ok {
		s.batches = append(s.batches[:i], s.batches[i+1:]...)
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) addImages(c *gin.Context) {
	rec, _ := s.Last(http.MethodPost, c.Request.URL.Path)

	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findBatch(c)
	if !ok {
		return
	}
	for _, name := range rec.Files["images"] {
		s.nextID++
		s.batches[i].Images = append(s.batches[i].Images, models.Image{
			ID:  s.nextID,
			URL: s.URL + "/files/" + name,
		})
	}
	c.JSON(http.StatusOK, gin.H{"message": "Images added successfully"})
}

func (s *Server) deleteImage(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	for bi := range s.batches {
		for ii, img := range s.batches[bi].Images {
			if img.ID == id {
				s.batches[bi].Images = append(s.batches[bi].Images[:ii], s.batches[bi].Images[ii+1:]...)
				c.Status(http.StatusNoContent)
				return
			}
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
}

func (s *Server) listUsers(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.users)
}

func (s *Server) getUser(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			c.JSON(http.StatusOK, u)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
}

func (s *Server) saveUser(c *gin.Context) {
	rec, _ := s.Last(c.Request.Method, c.Request.URL.Path)

	role, err := models.ParseRole(first(rec.Form, "role"))
	if err != nil {
		role = models.RoleUser
	}
	user := models.User{
		Username: first(rec.Form, "username"),
		Email:    first(rec.Form, "email"),
		Role:     role,
	}
	if name := first(rec.Form, "full_name"); name != "" {
		user.FullName = &name
	}
	if user.Username == "" && rec.JSON != nil {
		user.Username, _ = rec.JSON["username"].(string)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c.Request.Method == http.MethodPost {
		for _, u := range s.users {
			if u.Username == user.Username {
				c.JSON(http.StatusBadRequest, gin.H{"username": []string{"A user with that username already exists."}})
				return
			}
		}
		s.nextID++
		user.ID = s.nextID
		s.users = append(s.users, user)
		c.JSON(http.StatusCreated, user)
		return
	}

	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	for i, u := range s.users {
		if u.ID != id {
			continue
		}
		if user.Username != "" {
			s.users[i].Username = user.Username
		}
		if user.Email != "" {
			s.users[i].Email = user.Email
		}
		if user.FullName != nil {
			s.users[i].FullName = user.FullName
		}
		if rec.JSON != nil {
			if name, ok := rec.JSON["full_name"].(string); ok {
				s.users[i].FullName = &name
			}
			if email, ok := rec.JSON["email"].(string); ok {
				s.users[i].Email = email
			}
		}
		if first(rec.Form, "role") != "" {
			s.users[i].Role = user.Role
		}
		c.JSON(http.StatusOK, s.users[i])
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
}

func (s *Server) deleteUser(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.users {
		if u.ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
}

func first(form map[string][]string, key string) string {
	if vals := form[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}
