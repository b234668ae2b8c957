package store

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"luontovahdit/internal/models"
	"luontovahdit/internal/utils"

	"github.com/lib/pq"
)

// Memory is a process-local Store. It backs STORE_DRIVER=memory and the tests.
// Every method holds the lock for its whole read-modify-write, which gives the same
// per-call atomicity the postgres store gets from single statements and transactions.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]models.User
	hotspots map[string]models.Hotspot
	comments map[string]models.Comment
	seq      map[string]int // insertion order, stands in for created_at ties
	next     int
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]models.User),
		hotspots: make(map[string]models.Hotspot),
		comments: make(map[string]models.Comment),
		seq:      make(map[string]int),
		now:      time.Now,
	}
}

func (m *Memory) stamp(id string, created, updated *time.Time) {
	now := m.now()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = now
	}
	m.next++
	m.seq[id] = m.next
}

func cloneStrings(s pq.StringArray) pq.StringArray {
	out := make(pq.StringArray, len(s))
	copy(out, s)
	return out
}

func cloneTally(t models.Tally) models.Tally {
	t.UpVoters = cloneStrings(t.UpVoters)
	t.DownVoters = cloneStrings(t.DownVoters)
	return t
}

func cloneHotspot(h models.Hotspot) models.Hotspot {
	h.Tally = cloneTally(h.Tally)
	h.CommentIDs = cloneStrings(h.CommentIDs)
	if h.Distance != nil {
		d := *h.Distance
		h.Distance = &d
	}
	return h
}

func cloneComment(c models.Comment) models.Comment {
	c.Tally = cloneTally(c.Tally)
	return c
}

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.ID == u.ID || existing.Username == u.Username || strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	m.stamp(u.ID, &u.CreatedAt, &u.UpdatedAt)
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) FindUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return m.seq[users[i].ID] < m.seq[users[j].ID] })
	return users, nil
}

func (m *Memory) CreateHotspot(_ context.Context, h *models.Hotspot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.hotspots[h.ID]; ok {
		return ErrDuplicate
	}
	if h.Tally.UpVoters == nil || h.Tally.DownVoters == nil {
		h.Tally = models.NewTally()
	}
	if h.CommentIDs == nil {
		h.CommentIDs = pq.StringArray{}
	}
	m.stamp(h.ID, &h.CreatedAt, &h.UpdatedAt)
	m.hotspots[h.ID] = cloneHotspot(*h)
	return nil
}

func (m *Memory) ListHotspots(_ context.Context, order models.HotspotOrder) ([]models.Hotspot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hotspots := make([]models.Hotspot, 0, len(m.hotspots))
	for _, h := range m.hotspots {
		hotspots = append(hotspots, cloneHotspot(h))
	}

	byAge := func(i, j int) bool { return m.seq[hotspots[i].ID] < m.seq[hotspots[j].ID] }
	switch order {
	case models.OrderNewest:
		sort.Slice(hotspots, func(i, j int) bool { return byAge(j, i) })
	case models.OrderHot:
		sort.Slice(hotspots, func(i, j int) bool {
			if hotspots[i].Score != hotspots[j].Score {
				return hotspots[i].Score > hotspots[j].Score
			}
			return byAge(j, i)
		})
	default:
		sort.Slice(hotspots, byAge)
	}
	return hotspots, nil
}

func (m *Memory) FindHotspot(_ context.Context, id string) (*models.Hotspot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.hotspots[id]
	if !ok {
		return nil, ErrNotFound
	}
	h = cloneHotspot(h)
	return &h, nil
}

func (m *Memory) NearbyHotspots(_ context.Context, lon, lat, radiusMeters float64, limit int) ([]models.Hotspot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hotspots []models.Hotspot
	for _, h := range m.hotspots {
		d := utils.Haversine(lon, lat, h.Longitude, h.Latitude)
		if d > radiusMeters {
			continue
		}
		h = cloneHotspot(h)
		h.Distance = &d
		hotspots = append(hotspots, h)
	}
	sort.SliceStable(hotspots, func(i, j int) bool { return *hotspots[i].Distance < *hotspots[j].Distance })
	if len(hotspots) > limit {
		hotspots = hotspots[:limit]
	}
	return hotspots, nil
}

func (m *Memory) UpdateHotspot(_ context.Context, id string, patch models.HotspotPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.hotspots[id]
	if !ok {
		return ErrNotFound
	}
	if patch.Title != nil {
		h.Title = *patch.Title
	}
	if patch.Description != nil {
		h.Description = *patch.Description
	}
	h.UpdatedAt = m.now()
	m.hotspots[id] = h
	return nil
}

func (m *Memory) DeleteHotspot(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.hotspots[id]; !ok {
		return ErrNotFound
	}
	for cid, c := range m.comments {
		if c.InHotspot == id {
			delete(m.comments, cid)
		}
	}
	delete(m.hotspots, id)
	return nil
}

func (m *Memory) SetHotspotScore(_ context.Context, id string, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.hotspots[id]
	if !ok {
		return ErrNotFound
	}
	h.Score = score
	m.hotspots[id] = h
	return nil
}

func (m *Memory) FlagHotspot(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.hotspots[id]
	if !ok {
		return ErrNotFound
	}
	h.Flagged = true
	m.hotspots[id] = h
	return nil
}

func (m *Memory) CreateComment(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	parent, ok := m.hotspots[c.InHotspot]
	if !ok {
		return ErrNotFound
	}
	if _, exists := m.comments[c.ID]; exists {
		return ErrDuplicate
	}
	if c.Tally.UpVoters == nil || c.Tally.DownVoters == nil {
		c.Tally = models.NewTally()
	}
	m.stamp(c.ID, &c.CreatedAt, &c.UpdatedAt)
	m.comments[c.ID] = cloneComment(*c)

	parent.CommentIDs = append(cloneStrings(parent.CommentIDs), c.ID)
	m.hotspots[parent.ID] = parent
	return nil
}

func (m *Memory) sortedComments(keep func(models.Comment) bool) []models.Comment {
	comments := make([]models.Comment, 0)
	for _, c := range m.comments {
		if keep(c) {
			comments = append(comments, cloneComment(c))
		}
	}
	sort.Slice(comments, func(i, j int) bool { return m.seq[comments[i].ID] < m.seq[comments[j].ID] })
	return comments
}

func (m *Memory) ListComments(_ context.Context) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedComments(func(models.Comment) bool { return true }), nil
}

func (m *Memory) ListCommentsByUser(_ context.Context, userID string) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedComments(func(c models.Comment) bool { return c.AddedBy == userID }), nil
}

func (m *Memory) FindComment(_ context.Context, id string) (*models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	c = cloneComment(c)
	return &c, nil
}

func (m *Memory) FindCommentsByIDs(_ context.Context, ids []string) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	comments := make([]models.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := m.comments[id]; ok {
			comments = append(comments, cloneComment(c))
		}
	}
	return comments, nil
}

func (m *Memory) UpdateCommentContent(_ context.Context, id, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.comments[id]
	if !ok {
		return ErrNotFound
	}
	c.Content = content
	c.UpdatedAt = m.now()
	m.comments[id] = c
	return nil
}

func (m *Memory) DeleteComment(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.comments[id]
	if !ok {
		return false, ErrNotFound
	}
	delete(m.comments, id)

	parent, ok := m.hotspots[c.InHotspot]
	if !ok {
		return true, nil
	}
	parent.CommentIDs = slices.DeleteFunc(cloneStrings(parent.CommentIDs), func(s string) bool { return s == id })
	m.hotspots[parent.ID] = parent
	return false, nil
}

func (m *Memory) FlagComment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.comments[id]
	if !ok {
		return ErrNotFound
	}
	c.Flagged = true
	m.comments[id] = c
	return nil
}

func (m *Memory) CastVote(_ context.Context, kind models.ItemKind, id, voter string, dir models.VoteDirection) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch kind {
	case models.KindHotspot:
		h, ok := m.hotspots[id]
		if !ok {
			return false, nil
		}
		h.Tally = cloneTally(h.Tally)
		if !h.Tally.Record(voter, dir) {
			return false, nil
		}
		m.hotspots[id] = h
		return true, nil
	case models.KindComment:
		c, ok := m.comments[id]
		if !ok {
			return false, nil
		}
		c.Tally = cloneTally(c.Tally)
		if !c.Tally.Record(voter, dir) {
			return false, nil
		}
		m.comments[id] = c
		return true, nil
	}
	return false, nil
}
