package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"luontovahdit/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSession pretends a user id is always present in the session.
type fixedSession struct{ id string }

func (f fixedSession) Login(*gin.Context, string) error { return nil }
func (f fixedSession) Logout(*gin.Context) error        { return nil }
func (f fixedSession) CurrentUserID(*gin.Context) (string, bool) {
	return f.id, f.id != ""
}

type userMap map[string]*models.User

func (m userMap) Find(_ context.Context, id string) (*models.User, error) {
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, errors.New("no such user")
}

func newEngine(provider SessionProvider, users UserFinder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery(), LoadUser(provider, users))
	r.GET("/open", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/closed", AuthRequired(), func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.String(http.StatusOK, user.Username)
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestAuthRequired(t *testing.T) {
	users := userMap{"u1": {ID: "u1", Username: "kettu01"}}

	r := newEngine(fixedSession{}, users)
	w := get(r, "/closed")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"You must be logged in."}`, w.Body.String())
	assert.Equal(t, http.StatusOK, get(r, "/open").Code)

	r = newEngine(fixedSession{id: "u1"}, users)
	w = get(r, "/closed")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "kettu01", w.Body.String())

	// session points at a user that no longer exists
	r = newEngine(fixedSession{id: "gone"}, users)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/closed").Code)
}

func TestRecovery(t *testing.T) {
	r := newEngine(fixedSession{}, userMap{})
	w := get(r, "/panic")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRateLimiterPerClient(t *testing.T) {
	rl, err := NewRateLimiter(0.001, 2)
	require.NoError(t, err)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))
}
