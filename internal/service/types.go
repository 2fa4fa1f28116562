package service

import (
	"time"

	"github.com/d60-Lab/feedgraph/pkg/pagination"
)

// AuthorInfo 装配后附在内容上的作者快照
type AuthorInfo struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	AvatarURL  string `json:"avatar_url"`
	IsVerified bool   `json:"is_verified"`
}

// FeedItem 帖子 feed 的渲染单元。Suggested 标记注入的 mood 推荐
type FeedItem struct {
	ID            string     `json:"id"`
	AuthorID      string     `json:"author_id"`
	Content       string     `json:"content"`
	MediaURLs     []string   `json:"media_urls,omitempty"`
	MediaType     string     `json:"media_type"`
	Location      string     `json:"location,omitempty"`
	Hashtags      []string   `json:"hashtags,omitempty"`
	Author        AuthorInfo `json:"user"`
	LikesCount    int64      `json:"likes_count"`
	CommentsCount int64      `json:"comments_count"`
	IsLiked       bool       `json:"is_liked"`
	Suggested     bool       `json:"suggested,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ReelItem reel feed 的渲染单元。Sponsored 条目不计入 total
type ReelItem struct {
	ID            string     `json:"id"`
	AuthorID      string     `json:"author_id,omitempty"`
	VideoURL      string     `json:"video_url"`
	ThumbnailURL  string     `json:"thumbnail_url,omitempty"`
	Title         string     `json:"title,omitempty"`
	Description   string     `json:"description,omitempty"`
	Duration      int        `json:"duration"`
	Author        AuthorInfo `json:"user"`
	LikesCount    int64      `json:"likes_count"`
	CommentsCount int64      `json:"comments_count"`
	SavesCount    int64      `json:"saves_count"`
	SharesCount   int64      `json:"shares_count"`
	ViewCount     int64      `json:"view_count"`
	IsLiked       bool       `json:"is_liked"`
	IsFollowing   bool       `json:"is_following"`
	Sponsored     bool       `json:"sponsored,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// FeedPage getFeed 的返回载荷（亦即页缓存的序列化形态）
type FeedPage struct {
	Items      []FeedItem      `json:"items"`
	Pagination pagination.Meta `json:"pagination"`
}

// ReelPage getReelsFeed 的返回载荷
type ReelPage struct {
	Items      []ReelItem      `json:"items"`
	Pagination pagination.Meta `json:"pagination"`
}
