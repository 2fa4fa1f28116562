package model

import "time"

// SponsoredCreative 广告素材池。feed 层只读，投放管理属外部服务
type SponsoredCreative struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	AdvertiserID string `gorm:"type:varchar(36);index"`
	MediaURL     string `gorm:"type:varchar(512);not null"`
	ThumbnailURL string `gorm:"type:varchar(512)"`
	Caption      string `gorm:"type:varchar(512)"`
	TargetURL    string `gorm:"type:varchar(512)"`
	Weight       int    `gorm:"default:1"`
	IsActive     bool   `gorm:"index;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (SponsoredCreative) TableName() string { return "sponsored_creatives" }
