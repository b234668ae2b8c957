package handlers

import (
	"luontovahdit/internal/models"
	"luontovahdit/internal/services"

	"github.com/gin-gonic/gin"
)

type voteRequest struct {
	Type string `json:"type"`
}

// bindVote reads {"type": "upVote"|"downVote"}.
func bindVote(c *gin.Context) (models.VoteDirection, bool) {
	var req voteRequest
	if !bindJSON(c, &req) {
		return "", false
	}
	dir, err := services.ParseVoteType(req.Type)
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return dir, true
}
