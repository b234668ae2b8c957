package models

import (
	"time"

	"github.com/lib/pq"
)

type Hotspot struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Longitude   float64        `gorm:"not null;index:idx_hotspot_location" json:"longitude"`
	Latitude    float64        `gorm:"not null;index:idx_hotspot_location" json:"latitude"`
	AddedBy     string         `gorm:"type:uuid;not null;index" json:"addedBy"`
	Tally       Tally          `gorm:"embedded" json:"tally"`
	CommentIDs  pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"comments"`
	Flagged     bool           `gorm:"not null;default:false" json:"flagged"`
	Score       int            `gorm:"not null;default:0;index" json:"score"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`

	// 查询时填充，单位米
	Distance *float64 `gorm:"->;-:migration" json:"distance,omitempty"`
}

// HotspotPatch lists the only fields an owner may change.
type HotspotPatch struct {
	Title       *string
	Description *string
}

// HotspotOrder selects the ordering of a full hotspot listing.
type HotspotOrder string

const (
	OrderCreated HotspotOrder = ""
	OrderNewest  HotspotOrder = "new"
	OrderHot     HotspotOrder = "hot"
)
