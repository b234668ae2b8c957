package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"luontovahdit/internal/models"
	"luontovahdit/internal/store"
	"luontovahdit/internal/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

const (
	DefaultMaxRadiusKm = 500
	DefaultMaxResults  = 100
)

// ScoreScheduler queues a hotspot for an asynchronous ranking update.
type ScoreScheduler interface {
	ScheduleUpdate(hotspotID string)
}

type HotspotOptions struct {
	MaxRadiusKm float64
	MaxResults  int
	CacheSize   int
	CacheTTL    time.Duration
}

type CreateHotspotInput struct {
	Title        string
	Description  string
	LocationType string
	Coordinates  []float64 // [lon, lat]
}

// EditHotspotInput is the allow-list of editable hotspot fields. Nil means unchanged.
type EditHotspotInput struct {
	Title       *string
	Description *string
}

type HotspotService struct {
	store       store.Store
	ledger      *Ledger
	ranking     ScoreScheduler
	details     *utils.Cache[models.HotspotDetail]
	detailsMu   sync.Mutex
	generation  uint64 // bumped by every Invalidate
	maxRadiusKm float64
	maxResults  int
}

func NewHotspotService(st store.Store, ledger *Ledger, ranking ScoreScheduler, opts HotspotOptions) (*HotspotService, error) {
	if opts.MaxRadiusKm <= 0 {
		opts.MaxRadiusKm = DefaultMaxRadiusKm
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 500
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}

	details, err := utils.NewCache[models.HotspotDetail](opts.CacheSize, opts.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("create hotspot cache: %w", err)
	}

	return &HotspotService{
		store:       st,
		ledger:      ledger,
		ranking:     ranking,
		details:     details,
		maxRadiusKm: opts.MaxRadiusKm,
		maxResults:  opts.MaxResults,
	}, nil
}

func detailKey(id string) string {
	return "hotspot:detail:" + id
}

// Invalidate drops the cached detail view of a hotspot. Detail reads that started
// before the call will not populate the cache.
func (s *HotspotService) Invalidate(hotspotID string) {
	s.detailsMu.Lock()
	defer s.detailsMu.Unlock()
	s.generation++
	s.details.Delete(detailKey(hotspotID))
}

func (s *HotspotService) currentGeneration() uint64 {
	s.detailsMu.Lock()
	defer s.detailsMu.Unlock()
	return s.generation
}

// cacheDetail stores detail unless an invalidation happened since generation was read.
func (s *HotspotService) cacheDetail(generation uint64, detail models.HotspotDetail) {
	s.detailsMu.Lock()
	defer s.detailsMu.Unlock()
	if s.generation == generation {
		s.details.Set(detailKey(detail.ID), detail)
	}
}

func (s *HotspotService) scheduleRanking(hotspotID string) {
	if s.ranking != nil {
		s.ranking.ScheduleUpdate(hotspotID)
	}
}

func coordinatesRule(value interface{}) error {
	c, _ := value.([]float64)
	if len(c) != 2 || !utils.ValidCoordinates(c[0], c[1]) {
		return errors.New("must be [longitude, latitude] within range")
	}
	return nil
}

func (s *HotspotService) Create(ctx context.Context, creator string, in CreateHotspotInput) (*models.HotspotView, error) {
	title := utils.SanitizeText(in.Title)
	description := utils.SanitizeText(in.Description)

	err := validation.Errors{
		"title": validation.Validate(title, validation.Required),
		"location": validation.Validate(in.Coordinates,
			validation.Required,
			validation.By(coordinatesRule),
		),
		"location.type": validation.Validate(in.LocationType, validation.In("Point")),
	}.Filter()
	if err != nil {
		return nil, fieldErrors(err)
	}

	h := models.Hotspot{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Longitude:   in.Coordinates[0],
		Latitude:    in.Coordinates[1],
		AddedBy:     creator,
		Tally:       models.NewTally(),
		CommentIDs:  []string{},
	}
	if err := s.store.CreateHotspot(ctx, &h); err != nil {
		return nil, fmt.Errorf("create hotspot: %w", err)
	}

	view := h.View()
	return &view, nil
}

func (s *HotspotService) List(ctx context.Context, order models.HotspotOrder) ([]models.HotspotView, error) {
	hotspots, err := s.store.ListHotspots(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("list hotspots: %w", err)
	}
	return hotspotViews(hotspots), nil
}

// ClampRadius applies the search ceiling: absent, non-positive or too large radii
// all become the maximum.
func (s *HotspotService) ClampRadius(radiusKm float64) float64 {
	if math.IsNaN(radiusKm) || radiusKm <= 0 || radiusKm > s.maxRadiusKm {
		return s.maxRadiusKm
	}
	return radiusKm
}

// FindNearby returns hotspots within radiusKm of lon/lat, nearest first.
// A radiusKm of 0 means "not given".
func (s *HotspotService) FindNearby(ctx context.Context, lon, lat, radiusKm float64) ([]models.HotspotView, error) {
	if !utils.ValidCoordinates(lon, lat) {
		return nil, ErrInvalidCoordinates
	}
	radius := s.ClampRadius(radiusKm)

	hotspots, err := s.store.NearbyHotspots(ctx, lon, lat, radius*1000, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("nearby hotspots: %w", err)
	}
	return hotspotViews(hotspots), nil
}

// GetByID returns the hotspot with its comments resolved.
func (s *HotspotService) GetByID(ctx context.Context, id string) (*models.HotspotDetail, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if cached, ok := s.details.Get(detailKey(id)); ok {
		return &cached, nil
	}
	generation := s.currentGeneration()

	h, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.FindCommentsByIDs(ctx, h.CommentIDs)
	if err != nil {
		return nil, fmt.Errorf("load comments of hotspot %s: %w", id, err)
	}

	detail := models.HotspotDetail{
		HotspotView: h.View(),
		Comments:    commentViews(comments),
	}
	s.cacheDetail(generation, detail)
	return &detail, nil
}

func (s *HotspotService) find(ctx context.Context, id string) (*models.Hotspot, error) {
	h, err := s.store.FindHotspot(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("Hotspot")
	}
	if err != nil {
		return nil, fmt.Errorf("find hotspot %s: %w", id, err)
	}
	return h, nil
}

// Edit changes title and/or description. Only the creator may edit.
func (s *HotspotService) Edit(ctx context.Context, id, requester string, in EditHotspotInput) (*models.HotspotView, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	h, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if h.AddedBy != requester {
		return nil, ErrForbidden
	}

	var patch models.HotspotPatch
	if in.Title != nil {
		title := utils.SanitizeText(*in.Title)
		if err := validation.Validate(title, validation.Required); err != nil {
			return nil, newValidationError("title")
		}
		patch.Title = &title
	}
	if in.Description != nil {
		description := utils.SanitizeText(*in.Description)
		patch.Description = &description
	}

	if err := s.store.UpdateHotspot(ctx, id, patch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Hotspot")
		}
		return nil, fmt.Errorf("update hotspot %s: %w", id, err)
	}
	s.Invalidate(id)

	return s.view(ctx, id)
}

// Delete removes the hotspot and its comments. Deleting an absent hotspot succeeds.
func (s *HotspotService) Delete(ctx context.Context, id, requester string) error {
	id, err := parseID(id)
	if err != nil {
		return err
	}
	h, err := s.find(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if h.AddedBy != requester {
		return ErrForbidden
	}

	if err := s.store.DeleteHotspot(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete hotspot %s: %w", id, err)
	}
	s.Invalidate(id)
	return nil
}

func (s *HotspotService) Vote(ctx context.Context, id, requester string, dir models.VoteDirection) (*models.HotspotView, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Apply(ctx, models.KindHotspot, id, requester, dir); err != nil {
		return nil, err
	}
	s.Invalidate(id)
	s.scheduleRanking(id)

	return s.view(ctx, id)
}

// Flag marks a hotspot for moderation.
func (s *HotspotService) Flag(ctx context.Context, id string) (*models.HotspotView, error) {
	id, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := s.store.FlagHotspot(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Hotspot")
		}
		return nil, fmt.Errorf("flag hotspot %s: %w", id, err)
	}
	s.Invalidate(id)

	return s.view(ctx, id)
}

func (s *HotspotService) view(ctx context.Context, id string) (*models.HotspotView, error) {
	h, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	view := h.View()
	return &view, nil
}

func hotspotViews(hotspots []models.Hotspot) []models.HotspotView {
	views := make([]models.HotspotView, len(hotspots))
	for i := range hotspots {
		views[i] = hotspots[i].View()
	}
	return views
}

// fieldErrors turns ozzo's per-field errors into a ValidationError.
func fieldErrors(err error) error {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	return newValidationError(fields...)
}
