package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"luontovahdit/internal/models"
	"luontovahdit/internal/store"
	"luontovahdit/internal/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DetailInvalidator drops cached hotspot detail views.
type DetailInvalidator interface {
	Invalidate(hotspotID string)
}

type CreateCommentInput struct {
	InHotspot string
	Content   string
}

type CommentService struct {
	store   store.Store
	ledger  *Ledger
	details DetailInvalidator
	ranking ScoreScheduler
}

func NewCommentService(st store.Store, ledger *Ledger, details DetailInvalidator, ranking ScoreScheduler) *CommentService {
	return &CommentService{
		store:   st,
		ledger:  ledger,
		details: details,
		ranking: ranking,
	}
}

// parentChanged is called whenever a hotspot's comment list or a comment in it changes.
func (s *CommentService) parentChanged(hotspotID string, rerank bool) {
	if s.details != nil {
		s.details.Invalidate(hotspotID)
	}
	if rerank && s.ranking != nil {
		s.ranking.ScheduleUpdate(hotspotID)
	}
}

// Create stores the comment and appends it to its hotspot. If the hotspot does not
// exist nothing is stored.
func (s *CommentService) Create(ctx context.Context, creator string, in CreateCommentInput) (*models.CommentView, error) {
	content := strings.TrimSpace(in.Content)
	err := validation.Errors{
		"content":   validation.Validate(content, validation.Required),
		"inHotspot": validation.Validate(in.InHotspot, validation.Required),
	}.Filter()
	if err != nil {
		return nil, fieldErrors(err)
	}

	parentID, err := parseID(in.InHotspot)
	if err != nil {
		return nil, err
	}

	c := models.Comment{
		ID:        uuid.NewString(),
		Content:   content,
		AddedBy:   creator,
		InHotspot: parentID,
		Tally:     models.NewTally(),
	}
	switch err := s.store.CreateComment(ctx, &c); {
	case errors.Is(err, store.ErrNotFound):
		return nil, notFound("Related hotspot")
	case errors.Is(err, store.ErrParentGone):
		return nil, ErrParentGone
	case err != nil:
		return nil, fmt.Errorf("create comment: %w", err)
	}
	s.parentChanged(parentID, true)

	view := c.View(utils.RenderMarkdown(c.Content))
	return &view, nil
}

func (s *CommentService) ListAll(ctx context.Context) ([]models.CommentView, error) {
	comments, err := s.store.ListComments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return commentViews(comments), nil
}

func (s *CommentService) ListByUser(ctx context.Context, userID string) ([]models.CommentView, error) {
	userID, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.ListCommentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list comments of user %s: %w", userID, err)
	}
	return commentViews(comments), nil
}

func (s *CommentService) GetByID(ctx context.Context, id string) (*models.CommentView, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	view := c.View(utils.RenderMarkdown(c.Content))
	return &view, nil
}

func (s *CommentService) find(ctx context.Context, id string) (*models.Comment, error) {
	c, err := s.store.FindComment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("Comment")
	}
	if err != nil {
		return nil, fmt.Errorf("find comment %s: %w", id, err)
	}
	return c, nil
}

// Edit replaces the content. Only the creator may edit; nothing else is mutable.
func (s *CommentService) Edit(ctx context.Context, id, requester string, content *string) (*models.CommentView, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.AddedBy != requester {
		return nil, ErrForbidden
	}
	if content == nil {
		return s.GetByID(ctx, id)
	}

	trimmed := strings.TrimSpace(*content)
	if err := validation.Validate(trimmed, validation.Required); err != nil {
		return nil, newValidationError("content")
	}
	if err := s.store.UpdateCommentContent(ctx, id, trimmed); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Comment")
		}
		return nil, fmt.Errorf("update comment %s: %w", id, err)
	}
	s.parentChanged(c.InHotspot, false)

	return s.GetByID(ctx, id)
}

// Delete removes the comment and its id from the parent hotspot. A missing comment
// is success; a missing parent is logged and tolerated.
func (s *CommentService) Delete(ctx context.Context, id, requester string) error {
	id, err := parseID(id)
	if err != nil {
		return err
	}
	c, err := s.find(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if c.AddedBy != requester {
		return ErrForbidden
	}

	parentMissing, err := s.store.DeleteComment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete comment %s: %w", id, err)
	}
	if parentMissing {
		log.Warn().
			Str("comment_id", id).
			Str("hotspot_id", c.InHotspot).
			Msg("Deleted comment whose hotspot no longer exists")
		return nil
	}
	s.parentChanged(c.InHotspot, true)
	return nil
}

func (s *CommentService) Vote(ctx context.Context, id, requester string, dir models.VoteDirection) (*models.CommentView, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Apply(ctx, models.KindComment, id, requester, dir); err != nil {
		return nil, err
	}

	view, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.parentChanged(view.InHotspot, false)
	return view, nil
}

func (s *CommentService) Flag(ctx context.Context, id string) (*models.CommentView, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := s.store.FlagComment(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Comment")
		}
		return nil, fmt.Errorf("flag comment %s: %w", id, err)
	}

	view, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.parentChanged(view.InHotspot, false)
	return view, nil
}

func commentViews(comments []models.Comment) []models.CommentView {
	views := make([]models.CommentView, len(comments))
	for i := range comments {
		views[i] = comments[i].View(utils.RenderMarkdown(comments[i].Content))
	}
	return views
}
