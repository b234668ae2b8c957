// Package store is the entity store behind the hotspot and comment services.
// Implementations must make CastVote a single conditional atomic mutation and keep
// a hotspot's comment id sequence in step with comment creation and deletion.
package store

import (
	"context"
	"errors"

	"luontovahdit/internal/models"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("duplicate record")
	ErrParentGone = errors.New("parent hotspot vanished")
)

type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	CreateHotspot(ctx context.Context, h *models.Hotspot) error
	ListHotspots(ctx context.Context, order models.HotspotOrder) ([]models.Hotspot, error)
	FindHotspot(ctx context.Context, id string) (*models.Hotspot, error)
	// NearbyHotspots returns hotspots within radiusMeters of lon/lat ordered by
	// ascending distance, at most limit of them, with Distance filled in.
	NearbyHotspots(ctx context.Context, lon, lat, radiusMeters float64, limit int) ([]models.Hotspot, error)
	UpdateHotspot(ctx context.Context, id string, patch models.HotspotPatch) error
	// DeleteHotspot removes the hotspot together with all of its comments.
	// It returns ErrNotFound when nothing was deleted.
	DeleteHotspot(ctx context.Context, id string) error
	SetHotspotScore(ctx context.Context, id string, score int) error
	FlagHotspot(ctx context.Context, id string) error

	// CreateComment persists c and appends its id to the parent's comment sequence
	// as one unit. Nothing is persisted when it fails.
	CreateComment(ctx context.Context, c *models.Comment) error
	ListComments(ctx context.Context) ([]models.Comment, error)
	ListCommentsByUser(ctx context.Context, userID string) ([]models.Comment, error)
	FindComment(ctx context.Context, id string) (*models.Comment, error)
	// FindCommentsByIDs returns the comments that exist, in the order of ids.
	FindCommentsByIDs(ctx context.Context, ids []string) ([]models.Comment, error)
	UpdateCommentContent(ctx context.Context, id, content string) error
	// DeleteComment removes the comment and pulls its id from the parent hotspot.
	// parentMissing is true when the parent no longer existed.
	DeleteComment(ctx context.Context, id string) (parentMissing bool, err error)
	FlagComment(ctx context.Context, id string) error

	// CastVote increments the counter for dir and appends voter to the matching set,
	// only if voter is in neither set. applied is false when nothing changed, either
	// because the voter already voted or because the item does not exist.
	CastVote(ctx context.Context, kind models.ItemKind, id, voter string, dir models.VoteDirection) (applied bool, err error)
}
