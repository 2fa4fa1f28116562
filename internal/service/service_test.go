package service

import (
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/feedgraph/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Post{},
		&model.Reel{},
		&model.Follow{},
		&model.Fan{},
		&model.Like{},
		&model.Comment{},
		&model.Save{},
		&model.Share{},
		&model.Block{},
		&model.SponsoredCreative{},
		&model.PublishEvent{},
	))
	return db
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func seedUser(t *testing.T, db *gorm.DB, id string) *model.User {
	t.Helper()
	u := &model.User{
		ID:       id,
		Username: id,
		Email:    fmt.Sprintf("%s@example.com", id),
		IsActive: true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
