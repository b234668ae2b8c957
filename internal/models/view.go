package models

import (
	"html/template"
	"time"
)

// GeoPoint is the GeoJSON point a hotspot is rendered with. Coordinates are [lon, lat].
type GeoPoint struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Public representations. None of them can carry a password hash: users are only
// ever referenced by id, or rendered through UserView.

type HotspotView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    GeoPoint  `json:"location"`
	AddedBy     string    `json:"addedBy"`
	UpVotes     int       `json:"upVotes"`
	DownVotes   int       `json:"downVotes"`
	UpVoters    []string  `json:"upVoters"`
	DownVoters  []string  `json:"downVoters"`
	Comments    []string  `json:"comments"`
	Flagged     bool      `json:"flagged"`
	Score       int       `json:"score"`
	DistanceKm  *float64  `json:"distanceKm,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HotspotDetail is a hotspot with its comment id sequence resolved.
type HotspotDetail struct {
	HotspotView
	Comments []CommentView `json:"comments"`
}

type CommentView struct {
	ID          string        `json:"id"`
	Content     string        `json:"content"`
	ContentHTML template.HTML `json:"contentHtml"`
	AddedBy     string        `json:"addedBy"`
	InHotspot   string        `json:"inHotspot"`
	UpVotes     int           `json:"upVotes"`
	DownVotes   int           `json:"downVotes"`
	UpVoters    []string      `json:"upVoters"`
	DownVoters  []string      `json:"downVoters"`
	Flagged     bool          `json:"flagged"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type UserView struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayname"`
}

// SessionUserView is returned to the account owner only, e.g. after login.
type SessionUserView struct {
	UserView
	Email string `json:"email"`
}

func (h *Hotspot) View() HotspotView {
	v := HotspotView{
		ID:          h.ID,
		Title:       h.Title,
		Description: h.Description,
		Location:    GeoPoint{Type: "Point", Coordinates: [2]float64{h.Longitude, h.Latitude}},
		AddedBy:     h.AddedBy,
		UpVotes:     h.Tally.UpVotes,
		DownVotes:   h.Tally.DownVotes,
		UpVoters:    nonNil(h.Tally.UpVoters),
		DownVoters:  nonNil(h.Tally.DownVoters),
		Comments:    nonNil(h.CommentIDs),
		Flagged:     h.Flagged,
		Score:       h.Score,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
	if h.Distance != nil {
		km := *h.Distance / 1000
		v.DistanceKm = &km
	}
	return v
}

// View renders the comment; html is the pre-rendered markdown of its content.
func (c *Comment) View(html template.HTML) CommentView {
	return CommentView{
		ID:          c.ID,
		Content:     c.Content,
		ContentHTML: html,
		AddedBy:     c.AddedBy,
		InHotspot:   c.InHotspot,
		UpVotes:     c.Tally.UpVotes,
		DownVotes:   c.Tally.DownVotes,
		UpVoters:    nonNil(c.Tally.UpVoters),
		DownVoters:  nonNil(c.Tally.DownVoters),
		Flagged:     c.Flagged,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (u *User) View() UserView {
	return UserView{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
}

func (u *User) SessionView() SessionUserView {
	return SessionUserView{UserView: u.View(), Email: u.Email}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
