package models

import (
	"time"
)

type Comment struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	AddedBy   string    `gorm:"type:uuid;not null;index" json:"addedBy"`
	InHotspot string    `gorm:"type:uuid;not null;index" json:"inHotspot"` // immutable after creation
	Tally     Tally     `gorm:"embedded" json:"tally"`
	Flagged   bool      `gorm:"not null;default:false" json:"flagged"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
