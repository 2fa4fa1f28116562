package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/feedgraph/config"
	"github.com/d60-Lab/feedgraph/internal/model"
	"github.com/d60-Lab/feedgraph/internal/repository"
	"github.com/d60-Lab/feedgraph/internal/service"
	"github.com/d60-Lab/feedgraph/pkg/database"
)

// 本地开发数据：USERS 个用户、随机关注图、每人几条内容，发布事件入队待扇出
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	db, err := database.InitDB(cfg)
	if err != nil {
		panic(err)
	}
	if err := database.Migrate(db); err != nil {
		panic(err)
	}

	users := envInt("USERS", 50)
	followsPerUser := envInt("FOLLOWS", 10)
	postsPerUser := envInt("POSTS", 5)
	reelsPerUser := envInt("REELS", 3)

	ctx := context.Background()
	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	eventRepo := repository.NewPublishEventRepository(db)
	publisher := service.NewPublisher(db, eventRepo, repository.NewPostRepository(db), repository.NewReelRepository(db))

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}

	ids := make([]string, users)
	for i := 0; i < users; i++ {
		ids[i] = uuid.New().String()
		u := &model.User{
			ID:       ids[i],
			Username: fmt.Sprintf("user%03d", i),
			FullName: fmt.Sprintf("User %03d", i),
			Email:    fmt.Sprintf("user%03d@example.com", i),
			Password: string(hash),
			IsActive: true,
		}
		if err := db.Create(u).Error; err != nil {
			panic(err)
		}
	}

	// 播种期直接双写 fan 行，不走异步冗余
	for _, from := range ids {
		for j := 0; j < followsPerUser; j++ {
			to := ids[rand.Intn(users)]
			if to == from {
				continue
			}
			if err := followRepo.Create(ctx, from, to, model.FollowStatusAccepted); err != nil {
				panic(err)
			}
			if err := fanRepo.Create(ctx, to, from); err != nil {
				panic(err)
			}
		}
	}

	tags := []string{"travel", "food", "fitness", "music", "art", "tech", "nature", "fashion"}
	var postIDs, reelIDs []string
	for _, author := range ids {
		for j := 0; j < postsPerUser; j++ {
			post, err := publisher.CreatePost(ctx, author, service.PostInput{
				Content:  fmt.Sprintf("post %d from %s", j, author[:8]),
				Hashtags: []string{tags[rand.Intn(len(tags))]},
			})
			if err != nil {
				panic(err)
			}
			postIDs = append(postIDs, post.ID)
		}
		for j := 0; j < reelsPerUser; j++ {
			reel, err := publisher.CreateReel(ctx, author, service.ReelInput{
				VideoURL: fmt.Sprintf("https://cdn.example.com/%s/reel%d.mp4", author, j),
				Title:    fmt.Sprintf("reel %d", j),
				Hashtags: []string{tags[rand.Intn(len(tags))]},
				Duration: 15 + rand.Intn(45),
			})
			if err != nil {
				panic(err)
			}
			reelIDs = append(reelIDs, reel.ID)
		}
	}

	// 随机互动，让排序和 mood 标签有信号可用
	engRepo := repository.NewEngagementRepository(db)
	postRepo := repository.NewPostRepository(db)
	reelRepo := repository.NewReelRepository(db)
	for _, userID := range ids {
		for j := 0; j < 5; j++ {
			id := postIDs[rand.Intn(len(postIDs))]
			created, err := engRepo.CreateLike(ctx, userID, id)
			if err != nil {
				panic(err)
			}
			if created {
				if err := postRepo.AddCounters(ctx, id, 1, 0); err != nil {
					panic(err)
				}
			}
		}
		for j := 0; j < 3; j++ {
			id := reelIDs[rand.Intn(len(reelIDs))]
			created, err := engRepo.CreateLike(ctx, userID, id)
			if err != nil {
				panic(err)
			}
			views := int64(1 + rand.Intn(50))
			likes := int64(0)
			if created {
				likes = 1
			}
			if err := reelRepo.AddCounters(ctx, id, likes, 0, 0, 0, views); err != nil {
				panic(err)
			}
		}
	}

	var pending int64
	db.Model(&model.PublishEvent{}).Where("status = ?", model.EventStatusPending).Count(&pending)
	fmt.Printf("seeded %d users, %d pending publish events at %s\n", users, pending, time.Now().Format(time.RFC3339))
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}
