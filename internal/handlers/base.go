package handlers

import (
	"errors"
	"net/http"

	"luontovahdit/internal/middleware"
	"luontovahdit/internal/models"
	"luontovahdit/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var errMalformedBody = errors.New("Malformed request body.")

// respondError 将服务层错误映射为 HTTP 状态码，响应体统一为 {"error": ...}
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, services.ErrInvalidIdentifier),
		errors.Is(err, services.ErrInvalidCoordinates),
		errors.Is(err, services.ErrInvalidVoteType),
		errors.Is(err, errMalformedBody):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyVoted), errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrParentGone):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// currentUser is only called behind middleware.AuthRequired.
func currentUser(c *gin.Context) *models.User {
	user, _ := middleware.CurrentUser(c)
	return user
}

// bindJSON binds the request body; a failure is reported as a malformed body.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("Rejected request body")
		respondError(c, errMalformedBody)
		return false
	}
	return true
}

func Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"home": "redirect to home page"})
}
