package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"luontovahdit/internal/metrics"
	"luontovahdit/internal/models"
	"luontovahdit/internal/store"
	"luontovahdit/internal/utils"

	"github.com/rs/zerolog/log"
)

const (
	rankingQueueSize = 1000
	rankingBatchSize = 50
	rankingInterval  = 500 * time.Millisecond
)

// RankingStore is what the ranking worker reads and writes.
type RankingStore interface {
	FindHotspot(ctx context.Context, id string) (*models.Hotspot, error)
	SetHotspotScore(ctx context.Context, id string, score int) error
}

// RankingService 异步计算并更新热点的 Score
type RankingService struct {
	store   RankingStore
	details DetailInvalidator
	queue   chan string // 待更新的热点 ID 队列
	pending map[string]bool
	mu      sync.Mutex
	wg      sync.WaitGroup
}

func NewRankingService(st RankingStore) *RankingService {
	return &RankingService{
		store:   st,
		queue:   make(chan string, rankingQueueSize),
		pending: make(map[string]bool),
	}
}

// SetInvalidator registers the cache to clear after a score changes. Call it before Start.
func (s *RankingService) SetInvalidator(details DetailInvalidator) {
	s.details = details
}

// Start runs the worker until ctx is cancelled. Wait blocks until it has drained.
func (s *RankingService) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
}

func (s *RankingService) Wait() {
	s.wg.Wait()
}

// ScheduleUpdate 将热点加入更新队列（异步）
// 同一热点在队列中只保留一份
func (s *RankingService) ScheduleUpdate(hotspotID string) {
	s.mu.Lock()
	if s.pending[hotspotID] {
		s.mu.Unlock()
		return
	}
	s.pending[hotspotID] = true
	s.mu.Unlock()

	select {
	case s.queue <- hotspotID:
	default:
		// 队列满了，移除 pending 标记
		s.mu.Lock()
		delete(s.pending, hotspotID)
		s.mu.Unlock()
		metrics.RankingQueueDropped.Inc()
		log.Warn().Str("hotspot_id", hotspotID).Msg("Ranking queue full, skipping score update")
	}
}

func (s *RankingService) worker(ctx context.Context) {
	batch := make([]string, 0, rankingBatchSize)
	ticker := time.NewTicker(rankingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if len(batch) > 0 {
				s.processBatch(context.Background(), batch)
			}
			return
		case id := <-s.queue:
			batch = append(batch, id)
			if len(batch) >= rankingBatchSize {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *RankingService) processBatch(ctx context.Context, ids []string) {
	for _, id := range ids {
		// 先清除标记，更新期间到达的请求会重新入队
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()

		s.updateScore(ctx, id)
	}
}

// updateScore 计算并更新单个热点的 Score
func (s *RankingService) updateScore(ctx context.Context, id string) {
	h, err := s.store.FindHotspot(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn().Str("hotspot_id", id).Msg("Score update skipped, hotspot no longer exists")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("hotspot_id", id).Msg("Failed to load hotspot for score update")
		return
	}

	score := utils.CalculateScore(h.CreatedAt, h.Tally.UpVotes, h.Tally.DownVotes, len(h.CommentIDs))
	if err := s.store.SetHotspotScore(ctx, id, int(score)); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Str("hotspot_id", id).Msg("Failed to update hotspot score")
		}
		return
	}
	if s.details != nil {
		s.details.Invalidate(id)
	}
}

// UpdateScoreSync recomputes the score immediately.
func (s *RankingService) UpdateScoreSync(ctx context.Context, hotspotID string) {
	s.updateScore(ctx, hotspotID)
}
