package model

import "time"

// User 账户主体（仅 feed 侧需要的字段；资料管理属外部服务）
type User struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	Username      string `gorm:"type:varchar(64);uniqueIndex;not null"`
	FullName      string `gorm:"type:varchar(128)"`
	Email         string `gorm:"type:varchar(128);uniqueIndex"`
	Password      string `gorm:"type:varchar(128)"`
	AvatarURL     string `gorm:"type:varchar(512)"`
	IsVerified    bool
	IsActive      bool `gorm:"default:true"`
	IsShadowBanned bool
	IsPrivate     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (User) TableName() string { return "users" }

// Visible reports whether the user's content may be surfaced in feeds.
func (u *User) Visible() bool { return u.IsActive && !u.IsShadowBanned }
