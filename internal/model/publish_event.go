package model

import "time"

// ContentKind 区分两条 feed（各自独立的有界列表与页缓存）
type ContentKind string

const (
	KindPost ContentKind = "posts"
	KindReel ContentKind = "reels"
)

// 事件状态机：pending -> processing -> done；失败回 pending，超过重试预算进 failed
const (
	EventStatusPending    = "pending"
	EventStatusProcessing = "processing"
	EventStatusDone       = "done"
	EventStatusFailed     = "failed"
)

// PublishEvent 发布事件外发盒，扇出调度器的唯一输入
type PublishEvent struct {
	ID          string      `gorm:"primaryKey;type:varchar(36)"`
	ContentID   string      `gorm:"type:varchar(36);uniqueIndex:ux_event_content"`
	AuthorID    string      `gorm:"type:varchar(36);index:idx_event_author"`
	Kind        ContentKind `gorm:"type:varchar(8);uniqueIndex:ux_event_content"`
	Status      string      `gorm:"type:varchar(16);index"`
	Attempts    int
	CreatedAt   time.Time `gorm:"index"`
	ProcessedAt *time.Time
	FanoutCount int64
}

func (PublishEvent) TableName() string { return "publish_events" }
