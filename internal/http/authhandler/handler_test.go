package authhandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cybermeetgo/internal/services/auth"
)

type stubSvc struct {
	registerErr error
	loginErr    error
}

func (s *stubSvc) Register(_ context.Context, username, _ string) (*auth.Session, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &auth.Session{Token: "tok", UserID: "u1", Username: username}, nil
}

func (s *stubSvc) Login(_ context.Context, username, _ string) (*auth.Session, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &auth.Session{Token: "tok", UserID: "u1", Username: username}, nil
}

func (s *stubSvc) VerifyToken(token string) (string, error) {
	if token != "good" {
		return "", auth.ErrInvalidToken
	}
	return "u1", nil
}

func newEngine(svc auth.IAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	New(svc).Register(engine.Group("/api/auth"))
	engine.GET("/guarded", Bearer(svc), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})
	return engine
}

func post(engine *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRegisterEndpoint(t *testing.T) {
	engine := newEngine(&stubSvc{})

	w := post(engine, "/api/auth/register", `{"username":"alice","password":"s3cret!"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"tok"`)
}

func TestRegisterConflict(t *testing.T) {
	engine := newEngine(&stubSvc{registerErr: auth.ErrUsernameTaken})

	w := post(engine, "/api/auth/register", `{"username":"alice","password":"s3cret!"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterValidatesBody(t *testing.T) {
	engine := newEngine(&stubSvc{})

	w := post(engine, "/api/auth/register", `{"username":"al"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	engine := newEngine(&stubSvc{loginErr: auth.ErrInvalidCredentials})

	w := post(engine, "/api/auth/login", `{"username":"alice","password":"wrong1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerMiddleware(t *testing.T) {
	engine := newEngine(&stubSvc{})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":"u1"`)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
