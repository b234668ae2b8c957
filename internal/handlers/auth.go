package handlers

import (
	"net/http"

	"luontovahdit/internal/middleware"
	"luontovahdit/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type AuthHandler struct {
	users    *services.UserService
	sessions middleware.SessionProvider
}

func NewAuthHandler(users *services.UserService, sessions middleware.SessionProvider) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions}
}

type registerRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayname"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Password:    req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	c.JSON(http.StatusOK, gin.H{"message": "success"})
}

// Login POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.sessions.Login(c, user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Logout POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.Logout(c); err != nil {
		log.Warn().Err(err).Msg("Failed to clear session")
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Profile GET /profile
func (h *AuthHandler) Profile(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c).SessionView())
}
