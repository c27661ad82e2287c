package model

import "time"

// Dataset holds the latest raw upload for one role (hot table).
type Dataset struct {
	Role      string    `gorm:"primaryKey;size:32"` // maps or reservations
	Revision  string    `gorm:"size:36;not null;uniqueIndex"`
	FileName  string    `gorm:"size:256"`
	Source    string    `gorm:"size:32;not null"` // upload or ingest
	Content   string    `gorm:"type:text;not null"`
	RowCount  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// DatasetHistory records an upload after it was replaced or cleared (cold table).
// Only metadata is kept; the raw text is not.
type DatasetHistory struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	Role       string    `gorm:"size:32;not null;index"`
	Revision   string    `gorm:"size:36;not null"`
	FileName   string    `gorm:"size:256"`
	Source     string    `gorm:"size:32;not null"`
	RowCount   int       `gorm:"not null"`
	UploadedAt time.Time `gorm:"not null"`
	ReplacedAt time.Time `gorm:"not null;index"`
}
