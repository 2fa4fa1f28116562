package service

import (
	"context"
	"errors"

	"github.com/d60-Lab/feedgraph/internal/cache"
	"github.com/d60-Lab/feedgraph/internal/model"
	"github.com/d60-Lab/feedgraph/internal/repository"
)

var (
	ErrFollowSelf  = errors.New("cannot follow self")
	ErrUserBlocked = errors.New("user is blocked")
)

// RelationshipService 关系链服务。
// 私密账号产生 pending 边，accepted 边才写粉丝冗余表、进入推模式扇出范围
type RelationshipService interface {
	Follow(ctx context.Context, fromUserID, toUserID string) (status string, err error)
	Unfollow(ctx context.Context, fromUserID, toUserID string) error
	AcceptFollow(ctx context.Context, followerID, followeeID string) error
	ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error)
	ListFans(ctx context.Context, userID string, page, pageSize int) ([]string, error)
}

type relationshipService struct {
	followRepo repository.FollowRepository
	fanRepo    repository.FanRepository
	userRepo   repository.UserRepository
	blockRepo  repository.BlockRepository
	following  *cache.FollowingCache
	replicator *FanReplicator
}

func NewRelationshipService(
	followRepo repository.FollowRepository,
	fanRepo repository.FanRepository,
	userRepo repository.UserRepository,
	blockRepo repository.BlockRepository,
	following *cache.FollowingCache,
	replicator *FanReplicator,
) RelationshipService {
	return &relationshipService{
		followRepo: followRepo,
		fanRepo:    fanRepo,
		userRepo:   userRepo,
		blockRepo:  blockRepo,
		following:  following,
		replicator: replicator,
	}
}

func (s *relationshipService) Follow(ctx context.Context, fromUserID, toUserID string) (string, error) {
	if fromUserID == toUserID {
		return "", ErrFollowSelf
	}
	blocked, err := s.blockRepo.AnyBetween(ctx, fromUserID, toUserID)
	if err != nil {
		return "", err
	}
	if blocked {
		return "", ErrUserBlocked
	}
	target, err := s.userRepo.GetByID(ctx, toUserID)
	if err != nil {
		return "", err
	}
	status := model.FollowStatusAccepted
	if target.IsPrivate {
		status = model.FollowStatusPending
	}
	if err := s.followRepo.Create(ctx, fromUserID, toUserID, status); err != nil {
		return "", err
	}
	if status == model.FollowStatusAccepted {
		if s.replicator != nil {
			s.replicator.EnqueueAdd(toUserID, fromUserID)
		}
		_ = s.following.Invalidate(ctx, fromUserID)
	}
	return status, nil
}

func (s *relationshipService) Unfollow(ctx context.Context, fromUserID, toUserID string) error {
	if err := s.followRepo.Delete(ctx, fromUserID, toUserID); err != nil {
		return err
	}
	if s.replicator != nil {
		s.replicator.EnqueueRemove(toUserID, fromUserID)
	}
	return s.following.Invalidate(ctx, fromUserID)
}

// AcceptFollow 私密账号通过请求后，粉丝冗余与关注缓存补齐
func (s *relationshipService) AcceptFollow(ctx context.Context, followerID, followeeID string) error {
	if err := s.followRepo.Accept(ctx, followerID, followeeID); err != nil {
		return err
	}
	if s.replicator != nil {
		s.replicator.EnqueueAdd(followeeID, followerID)
	}
	return s.following.Invalidate(ctx, followerID)
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	items, err := s.followRepo.ListFollowings(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	res := make([]string, len(items))
	for i, it := range items {
		res[i] = it.FolloweeID
	}
	return res, nil
}

func (s *relationshipService) ListFans(ctx context.Context, userID string, page, pageSize int) ([]string, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	items, err := s.fanRepo.ListFans(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	res := make([]string, len(items))
	for i, it := range items {
		res[i] = it.FanID
	}
	return res, nil
}
