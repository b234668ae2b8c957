package middleware

import (
	"context"
	"net/http"

	"luontovahdit/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const CheckUserKey = "user"

const sessionUserKey = "user_id"

// SessionProvider 负责把已登录用户与请求关联起来
type SessionProvider interface {
	Login(c *gin.Context, userID string) error
	Logout(c *gin.Context) error
	CurrentUserID(c *gin.Context) (string, bool)
}

// CookieSessions keeps the user id in a signed gin-contrib session cookie.
// sessions.Sessions must run before any handler that uses it.
type CookieSessions struct{}

func (CookieSessions) Login(c *gin.Context, userID string) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserKey, userID)
	return session.Save()
}

func (CookieSessions) Logout(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}

func (CookieSessions) CurrentUserID(c *gin.Context) (string, bool) {
	id, ok := sessions.Default(c).Get(sessionUserKey).(string)
	return id, ok && id != ""
}

type UserFinder interface {
	Find(ctx context.Context, id string) (*models.User, error)
}

// LoadUser retrieves user from session and sets to context
func LoadUser(provider SessionProvider, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := provider.CurrentUserID(c); ok {
			user, err := users.Find(c.Request.Context(), userID)
			if err == nil {
				c.Set(CheckUserKey, user)
			} else {
				log.Debug().Err(err).Str("user_id", userID).Msg("Session user could not be loaded")
			}
		}
		c.Next()
	}
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "You must be logged in."})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(CheckUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}
