package models

import (
	"slices"

	"github.com/lib/pq"
)

// VoteDirection is the side of a one-shot vote.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}

// ItemKind names the entity a vote is cast on.
type ItemKind string

const (
	KindHotspot ItemKind = "hotspot"
	KindComment ItemKind = "comment"
)

// Tally holds the vote counters and voter sets shared by hotspots and comments.
// UpVotes always equals len(UpVoters) and a voter id lives in at most one of the sets.
type Tally struct {
	UpVotes    int            `gorm:"not null;default:0" json:"upVotes"`
	DownVotes  int            `gorm:"not null;default:0" json:"downVotes"`
	UpVoters   pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"upVoters"`
	DownVoters pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"downVoters"`
}

// NewTally returns an empty tally with non-nil voter sets, so the columns never store NULL.
func NewTally() Tally {
	return Tally{UpVoters: pq.StringArray{}, DownVoters: pq.StringArray{}}
}

// HasVoted reports whether voter already appears on either side.
func (t *Tally) HasVoted(voter string) bool {
	return slices.Contains(t.UpVoters, voter) || slices.Contains(t.DownVoters, voter)
}

// Record applies a vote in memory. It returns false and leaves the tally untouched
// when the voter has already voted or the direction is unknown.
func (t *Tally) Record(voter string, dir VoteDirection) bool {
	if !dir.Valid() || t.HasVoted(voter) {
		return false
	}
	if dir == VoteUp {
		t.UpVotes++
		t.UpVoters = append(t.UpVoters, voter)
	} else {
		t.DownVotes++
		t.DownVoters = append(t.DownVoters, voter)
	}
	return true
}
