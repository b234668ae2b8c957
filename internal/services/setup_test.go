package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"luontovahdit/internal/models"
	"luontovahdit/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// recordingScheduler collects ranking requests instead of running a worker.
type recordingScheduler struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingScheduler) ScheduleUpdate(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

func (r *recordingScheduler) scheduled() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

// pausingStore blocks the first FindHotspot after arm until release is closed.
// The read itself happens before the pause, so the caller holds a stale copy.
type pausingStore struct {
	*store.Memory
	armed   atomic.Bool
	reached chan struct{}
	release chan struct{}
}

func newPausingStore() *pausingStore {
	return &pausingStore{
		Memory:  store.NewMemory(),
		reached: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (p *pausingStore) arm() { p.armed.Store(true) }

func (p *pausingStore) FindHotspot(ctx context.Context, id string) (*models.Hotspot, error) {
	h, err := p.Memory.FindHotspot(ctx, id)
	if p.armed.CompareAndSwap(true, false) {
		close(p.reached)
		<-p.release
	}
	return h, err
}

type fixture struct {
	store    *store.Memory
	ledger   *Ledger
	ranking  *recordingScheduler
	hotspots *HotspotService
	comments *CommentService
	users    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, store.NewMemory())
}

func newFixtureWith(t *testing.T, st store.Store) *fixture {
	t.Helper()

	mem, _ := st.(*store.Memory)
	ledger := NewLedger(st)
	ranking := &recordingScheduler{}
	hotspots, err := NewHotspotService(st, ledger, ranking, HotspotOptions{})
	require.NoError(t, err)

	return &fixture{
		store:    mem,
		ledger:   ledger,
		ranking:  ranking,
		hotspots: hotspots,
		comments: NewCommentService(st, ledger, hotspots, ranking),
		users:    NewUserService(st),
	}
}

func (f *fixture) hotspot(t *testing.T, owner string, lon, lat float64) *models.HotspotView {
	t.Helper()
	h, err := f.hotspots.Create(context.Background(), owner, CreateHotspotInput{
		Title:       "Kuusamo old forest",
		Description: "Siberian jays near the trail",
		Coordinates: []float64{lon, lat},
	})
	require.NoError(t, err)
	return h
}

func (f *fixture) comment(t *testing.T, owner, hotspotID, content string) *models.CommentView {
	t.Helper()
	c, err := f.comments.Create(context.Background(), owner, CreateCommentInput{
		InHotspot: hotspotID,
		Content:   content,
	})
	require.NoError(t, err)
	return c
}

func newUserID() string {
	return uuid.NewString()
}
