package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"logiledger-api-server/internal/models"
	"logiledger-api-server/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuthenticator struct {
	users map[string]*models.User
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, &service.Error{Kind: service.ErrUnauthenticated, Message: "Invalid token"}
}

func newAuthRouter() *gin.Engine {
	authn := stubAuthenticator{users: map[string]*models.User{
		"company-token": {ID: primitive.NewObjectID(), Role: models.RoleCompany},
		"msme-token":    {ID: primitive.NewObjectID(), Role: models.RoleMSME},
	}}
	r := gin.New()
	r.GET("/company", Authenticate(authn), Authorize(models.RoleCompany), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"role": CurrentUser(c).Role})
	})
	return r
}

func TestAuthenticateAndAuthorize(t *testing.T) {
	r := newAuthRouter()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer msme-token", http.StatusForbidden},
		{"allowed", "Bearer company-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/company", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

type memoryLimiter struct {
	mu    sync.Mutex
	limit int
	hits  map[string]int
	err   error
}

func (l *memoryLimiter) Limit() int { return l.limit }

func (l *memoryLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	if l.err != nil {
		return true, l.limit, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hits[key]++
	remaining := l.limit - l.hits[key]
	if remaining < 0 {
		remaining = 0
	}
	return l.hits[key] <= l.limit, remaining, nil
}

func TestRateLimit(t *testing.T) {
	limiter := &memoryLimiter{limit: 2, hits: map[string]int{}}
	r := gin.New()
	r.Use(RateLimit(limiter))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	limiter.err = errors.New("redis down")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
