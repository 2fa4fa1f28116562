package model

import "time"

// Reel 短视频内容
type Reel struct {
	ID            string   `gorm:"primaryKey;type:varchar(36)"`
	AuthorID      string   `gorm:"type:varchar(36);index:idx_reel_author"`
	VideoURL      string   `gorm:"type:varchar(512);not null"`
	ThumbnailURL  string   `gorm:"type:varchar(512)"`
	Title         string   `gorm:"type:varchar(256)"`
	Description   string   `gorm:"type:text"`
	Hashtags      []string `gorm:"serializer:json"`
	Duration      int
	LikesCount    int64
	CommentsCount int64
	SavesCount    int64
	SharesCount   int64
	ViewCount     int64
	IsPublic      bool `gorm:"default:true"`
	IsDeleted     bool `gorm:"index"`
	IsArchived    bool
	CreatedAt     time.Time `gorm:"index:idx_reel_created"`
	UpdatedAt     time.Time
}

func (Reel) TableName() string { return "reels" }
