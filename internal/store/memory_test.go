package store

import (
	"context"
	"testing"
	"time"

	"luontovahdit/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHotspot(lon, lat float64) *models.Hotspot {
	return &models.Hotspot{
		ID:         uuid.NewString(),
		Title:      "Hotspot",
		Longitude:  lon,
		Latitude:   lat,
		AddedBy:    uuid.NewString(),
		Tally:      models.NewTally(),
		CommentIDs: pq.StringArray{},
	}
}

func newComment(hotspotID string) *models.Comment {
	return &models.Comment{
		ID:        uuid.NewString(),
		Content:   "comment",
		AddedBy:   uuid.NewString(),
		InHotspot: hotspotID,
		Tally:     models.NewTally(),
	}
}

func TestMemoryUsersUnique(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	u := &models.User{ID: uuid.NewString(), Username: "kettu", Email: "kettu@example.com"}
	require.NoError(t, m.CreateUser(ctx, u))
	assert.False(t, u.CreatedAt.IsZero())

	dupName := &models.User{ID: uuid.NewString(), Username: "kettu", Email: "other@example.com"}
	assert.ErrorIs(t, m.CreateUser(ctx, dupName), ErrDuplicate)

	dupEmail := &models.User{ID: uuid.NewString(), Username: "ilves", Email: "KETTU@example.com"}
	assert.ErrorIs(t, m.CreateUser(ctx, dupEmail), ErrDuplicate)

	got, err := m.FindUserByUsername(ctx, "kettu")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = m.FindUserByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCommentSequence(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	h := newHotspot(24, 60)
	require.NoError(t, m.CreateHotspot(ctx, h))

	c1, c2 := newComment(h.ID), newComment(h.ID)
	require.NoError(t, m.CreateComment(ctx, c1))
	require.NoError(t, m.CreateComment(ctx, c2))

	got, err := m.FindHotspot(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c1.ID, c2.ID}, []string(got.CommentIDs))

	comments, err := m.FindCommentsByIDs(ctx, []string{c2.ID, uuid.NewString(), c1.ID})
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, c2.ID, comments[0].ID)
	assert.Equal(t, c1.ID, comments[1].ID)

	parentMissing, err := m.DeleteComment(ctx, c1.ID)
	require.NoError(t, err)
	assert.False(t, parentMissing)

	got, err = m.FindHotspot(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{c2.ID}, []string(got.CommentIDs))

	_, err = m.DeleteComment(ctx, c1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCreateCommentWithoutParent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	assert.ErrorIs(t, m.CreateComment(ctx, newComment(uuid.NewString())), ErrNotFound)

	all, err := m.ListComments(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemoryDeleteHotspotCascades(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	h, other := newHotspot(24, 60), newHotspot(25, 61)
	require.NoError(t, m.CreateHotspot(ctx, h))
	require.NoError(t, m.CreateHotspot(ctx, other))
	require.NoError(t, m.CreateComment(ctx, newComment(h.ID)))
	kept := newComment(other.ID)
	require.NoError(t, m.CreateComment(ctx, kept))

	require.NoError(t, m.DeleteHotspot(ctx, h.ID))
	assert.ErrorIs(t, m.DeleteHotspot(ctx, h.ID), ErrNotFound)

	all, err := m.ListComments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, kept.ID, all[0].ID)
}

func TestMemoryCastVote(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	h := newHotspot(24, 60)
	require.NoError(t, m.CreateHotspot(ctx, h))
	voter := uuid.NewString()

	applied, err := m.CastVote(ctx, models.KindHotspot, h.ID, voter, models.VoteUp)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = m.CastVote(ctx, models.KindHotspot, h.ID, voter, models.VoteDown)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = m.CastVote(ctx, models.KindComment, uuid.NewString(), voter, models.VoteDown)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := m.FindHotspot(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Tally.UpVotes)
	assert.Equal(t, 0, got.Tally.DownVotes)
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	h := newHotspot(24, 60)
	require.NoError(t, m.CreateHotspot(ctx, h))

	got, err := m.FindHotspot(ctx, h.ID)
	require.NoError(t, err)
	got.Tally.UpVoters = append(got.Tally.UpVoters, "intruder")
	got.Title = "changed"

	again, err := m.FindHotspot(ctx, h.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Tally.UpVoters)
	assert.Equal(t, "Hotspot", again.Title)
}

func TestMemoryNearby(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	near, far := newHotspot(24.95, 60.17), newHotspot(24.60, 60.20)
	require.NoError(t, m.CreateHotspot(ctx, far))
	require.NoError(t, m.CreateHotspot(ctx, near))

	got, err := m.NearbyHotspots(ctx, 24.94, 60.17, 50_000, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, near.ID, got[0].ID)
	assert.Less(t, *got[0].Distance, *got[1].Distance)

	got, err = m.NearbyHotspots(ctx, 24.94, 60.17, 50_000, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = m.NearbyHotspots(ctx, 24.94, 60.17, 1_000, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMemoryListHotspotsNewest(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	a, b := newHotspot(24, 60), newHotspot(25, 61)
	require.NoError(t, m.CreateHotspot(ctx, a))
	require.NoError(t, m.CreateHotspot(ctx, b))
	assert.Equal(t, clock, a.CreatedAt)

	got, err := m.ListHotspots(ctx, models.OrderNewest)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b.ID, got[0].ID)
}
