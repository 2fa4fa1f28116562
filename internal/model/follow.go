package model

import (
	"time"
)

// 关注边状态：私密账号先 pending，对方接受后 accepted；只有 accepted 参与扇出与拉取
const (
	FollowStatusPending  = "pending"
	FollowStatusAccepted = "accepted"
)

// Follow 关注关系（A 关注 B）
type Follow struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	FollowerID string `gorm:"type:varchar(36);index:idx_follow_follower;index:idx_follow_pair,unique;not null"`
	FolloweeID string `gorm:"type:varchar(36);not null;index:idx_follow_pair,unique"`
	Status     string `gorm:"type:varchar(16);index;default:accepted"`
	// 复合唯一键，避免重复关注
	// idx_follow_pair = (follower_id, followee_id)
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Follow) TableName() string { return "follows" }
