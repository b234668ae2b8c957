package services

import (
	"context"
	"errors"
	"fmt"

	"luontovahdit/internal/metrics"
	"luontovahdit/internal/models"
	"luontovahdit/internal/store"
)

// VoteStore is the part of the store the ledger needs.
type VoteStore interface {
	CastVote(ctx context.Context, kind models.ItemKind, id, voter string, dir models.VoteDirection) (bool, error)
	FindHotspot(ctx context.Context, id string) (*models.Hotspot, error)
	FindComment(ctx context.Context, id string) (*models.Comment, error)
}

// Ledger applies one-shot, irrevocable votes to hotspots and comments.
// A voter may vote once per item, in either direction, and never change it.
type Ledger struct {
	store VoteStore
}

func NewLedger(st VoteStore) *Ledger {
	return &Ledger{store: st}
}

// ParseVoteType maps the wire value of a vote request to a direction.
func ParseVoteType(t string) (models.VoteDirection, error) {
	switch t {
	case "upVote":
		return models.VoteUp, nil
	case "downVote":
		return models.VoteDown, nil
	}
	return "", ErrInvalidVoteType
}

// Apply records voter's vote on the item. The store applies it as a single
// conditional update, so two concurrent votes by the same user cannot both land.
func (l *Ledger) Apply(ctx context.Context, kind models.ItemKind, id, voter string, dir models.VoteDirection) error {
	if !dir.Valid() {
		return ErrInvalidVoteType
	}

	applied, err := l.store.CastVote(ctx, kind, id, voter, dir)
	if err != nil {
		return fmt.Errorf("cast vote on %s %s: %w", kind, id, err)
	}
	if applied {
		metrics.VotesCast.WithLabelValues(string(kind), string(dir)).Inc()
		return nil
	}

	// nothing changed: either the item is gone or the voter already voted
	exists, err := l.exists(ctx, kind, id)
	if err != nil {
		return err
	}
	if !exists {
		return notFound(resourceName(kind))
	}
	metrics.VotesRejected.WithLabelValues(string(kind)).Inc()
	return ErrAlreadyVoted
}

func (l *Ledger) exists(ctx context.Context, kind models.ItemKind, id string) (bool, error) {
	var err error
	switch kind {
	case models.KindHotspot:
		_, err = l.store.FindHotspot(ctx, id)
	case models.KindComment:
		_, err = l.store.FindComment(ctx, id)
	default:
		return false, fmt.Errorf("unknown vote target %q", kind)
	}
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("look up %s %s: %w", kind, id, err)
	}
	return true, nil
}

func resourceName(kind models.ItemKind) string {
	if kind == models.KindComment {
		return "Comment"
	}
	return "Hotspot"
}
