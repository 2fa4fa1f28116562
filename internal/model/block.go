package model

import "time"

// Block 拉黑关系（单向行，可见性判断做双向查询）
type Block struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"type:varchar(36);index:idx_block_pair,unique;not null"`
	BlockedID string `gorm:"type:varchar(36);not null;index:idx_block_blocked;index:idx_block_pair,unique"`
	CreatedAt time.Time
}

func (Block) TableName() string { return "blocks" }
