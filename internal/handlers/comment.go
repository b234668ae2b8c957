package handlers

import (
	"net/http"
	"strings"

	"luontovahdit/internal/services"

	"github.com/gin-gonic/gin"
)

const userFilterPrefix = "user="

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type createCommentRequest struct {
	InHotspot string `json:"inHotspot"`
	Content   string `json:"content"`
}

type editCommentRequest struct {
	Content *string `json:"content"`
}

// List GET /api/comments
func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.comments.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// Get GET /api/comments/:id, or the comments of one user when id is "user=<userId>".
func (h *CommentHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if strings.HasPrefix(id, userFilterPrefix) {
		comments, err := h.comments.ListByUser(c.Request.Context(), strings.TrimPrefix(id, userFilterPrefix))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, comments)
		return
	}

	comment, err := h.comments.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Create POST /api/comments
func (h *CommentHandler) Create(c *gin.Context) {
	var req createCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), currentUser(c).ID, services.CreateCommentInput{
		InHotspot: req.InHotspot,
		Content:   req.Content,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// Edit POST /api/comments/:id/edit and PATCH /api/comments/:id
func (h *CommentHandler) Edit(c *gin.Context) {
	var req editCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := h.comments.Edit(c.Request.Context(), c.Param("id"), currentUser(c).ID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Delete DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.comments.Delete(c.Request.Context(), c.Param("id"), currentUser(c).ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Vote POST /api/comments/:id/vote
func (h *CommentHandler) Vote(c *gin.Context) {
	dir, ok := bindVote(c)
	if !ok {
		return
	}

	comment, err := h.comments.Vote(c.Request.Context(), c.Param("id"), currentUser(c).ID, dir)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Flag POST /api/comments/:id/flag
func (h *CommentHandler) Flag(c *gin.Context) {
	comment, err := h.comments.Flag(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}
