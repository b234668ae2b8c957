package services

import (
	"context"
	"testing"

	"luontovahdit/internal/models"
	"luontovahdit/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := newUserID()
	h := f.hotspot(t, newUserID(), 24.94, 60.17)

	c, err := f.comments.Create(ctx, author, CreateCommentInput{InHotspot: h.ID, Content: "Lots of *lichen*"})
	require.NoError(t, err)
	assert.Equal(t, author, c.AddedBy)
	assert.Equal(t, h.ID, c.InHotspot)
	assert.Equal(t, "Lots of *lichen*", c.Content)
	assert.Contains(t, string(c.ContentHTML), "<em>lichen</em>")

	parent, err := f.store.FindHotspot(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, []string(parent.CommentIDs))
	assert.Contains(t, f.ranking.scheduled(), h.ID)
}

func TestCreateCommentSanitizesHTML(t *testing.T) {
	f := newFixture(t)
	h := f.hotspot(t, newUserID(), 24.94, 60.17)

	c := f.comment(t, newUserID(), h.ID, `hello <script>alert(1)</script><a href="javascript:x()">x</a>`)
	assert.NotContains(t, string(c.ContentHTML), "<script>")
	assert.NotContains(t, string(c.ContentHTML), "javascript:")
}

func TestCreateCommentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.hotspot(t, newUserID(), 24.94, 60.17)

	_, err := f.comments.Create(ctx, newUserID(), CreateCommentInput{InHotspot: h.ID, Content: "  "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"content"}, verr.Fields)

	_, err = f.comments.Create(ctx, newUserID(), CreateCommentInput{Content: "hi"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"inHotspot"}, verr.Fields)

	_, err = f.comments.Create(ctx, newUserID(), CreateCommentInput{InHotspot: "123", Content: "hi"})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestCreateCommentMissingHotspot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.comments.Create(ctx, newUserID(), CreateCommentInput{InHotspot: newUserID(), Content: "orphan?"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Related hotspot not found.")

	all, err := f.comments.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

// vanishingParent simulates the hotspot disappearing between the existence check
// and the comment-id append.
type vanishingParent struct {
	*store.Memory
}

func (v vanishingParent) CreateComment(context.Context, *models.Comment) error {
	return store.ErrParentGone
}

func TestCreateCommentParentGone(t *testing.T) {
	mem := store.NewMemory()
	f := newFixtureWith(t, vanishingParent{mem})
	h, err := f.hotspots.Create(context.Background(), newUserID(), CreateHotspotInput{
		Title:       "Short-lived",
		Coordinates: []float64{24, 60},
	})
	require.NoError(t, err)

	_, err = f.comments.Create(context.Background(), newUserID(), CreateCommentInput{InHotspot: h.ID, Content: "late"})
	assert.ErrorIs(t, err, ErrParentGone)
}

func TestListCommentsByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := newUserID(), newUserID()
	h := f.hotspot(t, alice, 24.94, 60.17)

	a1 := f.comment(t, alice, h.ID, "one")
	f.comment(t, bob, h.ID, "two")
	a2 := f.comment(t, alice, h.ID, "three")

	got, err := f.comments.ListByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a1.ID, got[0].ID)
	assert.Equal(t, a2.ID, got[1].ID)

	got, err = f.comments.ListByUser(ctx, newUserID())
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = f.comments.ListByUser(ctx, "bob")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	all, err := f.comments.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestEditComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := newUserID()
	h := f.hotspot(t, newUserID(), 24.94, 60.17)
	c := f.comment(t, author, h.ID, "first draft")

	_, err := f.comments.Edit(ctx, c.ID, newUserID(), strPtr("vandalised"))
	assert.ErrorIs(t, err, ErrForbidden)

	unchanged, err := f.comments.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "first draft", unchanged.Content)

	got, err := f.comments.Edit(ctx, c.ID, author, strPtr("final"))
	require.NoError(t, err)
	assert.Equal(t, "final", got.Content)
	assert.Equal(t, h.ID, got.InHotspot)

	// 详情缓存中的评论也要更新
	detail, err := f.hotspots.GetByID(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "final", detail.Comments[0].Content)

	_, err = f.comments.Edit(ctx, c.ID, author, strPtr(""))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = f.comments.Edit(ctx, newUserID(), author, strPtr("x"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := newUserID()
	h := f.hotspot(t, newUserID(), 24.94, 60.17)
	keep := f.comment(t, newUserID(), h.ID, "keep")
	drop := f.comment(t, author, h.ID, "drop")

	assert.ErrorIs(t, f.comments.Delete(ctx, drop.ID, newUserID()), ErrForbidden)
	require.NoError(t, f.comments.Delete(ctx, drop.ID, author))

	parent, err := f.store.FindHotspot(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, []string(parent.CommentIDs))

	_, err = f.comments.GetByID(ctx, drop.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, f.comments.Delete(ctx, drop.ID, author))
}

// detachedParent reports that the parent hotspot was already gone on delete.
type detachedParent struct {
	*store.Memory
}

func (d detachedParent) DeleteComment(ctx context.Context, id string) (bool, error) {
	if _, err := d.Memory.DeleteComment(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

func TestDeleteCommentParentMissing(t *testing.T) {
	mem := store.NewMemory()
	f := newFixtureWith(t, detachedParent{mem})
	ctx := context.Background()
	author := newUserID()

	h, err := f.hotspots.Create(ctx, newUserID(), CreateHotspotInput{Title: "Fen", Coordinates: []float64{24, 60}})
	require.NoError(t, err)
	c, err := f.comments.Create(ctx, author, CreateCommentInput{InHotspot: h.ID, Content: "boardwalk broken"})
	require.NoError(t, err)

	require.NoError(t, f.comments.Delete(ctx, c.ID, author))
	_, err = mem.FindComment(ctx, c.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVoteComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	voter := newUserID()
	h := f.hotspot(t, newUserID(), 24.94, 60.17)
	c := f.comment(t, newUserID(), h.ID, "Cranes overhead")

	got, err := f.comments.Vote(ctx, c.ID, voter, models.VoteDown)
	require.NoError(t, err)
	assert.Equal(t, 1, got.DownVotes)
	assert.Equal(t, []string{voter}, got.DownVoters)

	_, err = f.comments.Vote(ctx, c.ID, voter, models.VoteUp)
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	_, err = f.comments.Vote(ctx, newUserID(), voter, models.VoteUp)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFlagComment(t *testing.T) {
	f := newFixture(t)
	h := f.hotspot(t, newUserID(), 24.94, 60.17)
	c := f.comment(t, newUserID(), h.ID, "spam spam")

	got, err := f.comments.Flag(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, got.Flagged)
}
