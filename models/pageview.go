package models

import "time"

// PageView counts successful GET page renders per day and path.
type PageView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Day       time.Time `gorm:"uniqueIndex:idx_pv_day_path;type:date;not null" json:"day"`
	Path      string    `gorm:"uniqueIndex:idx_pv_day_path;size:255;not null" json:"path"`
	Hits      int64     `gorm:"not null;default:0" json:"hits"`
	UpdatedAt time.Time `json:"updated_at"`
}
