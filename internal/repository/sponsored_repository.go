package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/feedgraph/internal/model"
)

type SponsoredRepository interface {
	ListActive(ctx context.Context, limit int) ([]*model.SponsoredCreative, error)
}

type sponsoredRepository struct{ db *gorm.DB }

func NewSponsoredRepository(db *gorm.DB) SponsoredRepository { return &sponsoredRepository{db: db} }

func (r *sponsoredRepository) ListActive(ctx context.Context, limit int) ([]*model.SponsoredCreative, error) {
	var res []*model.SponsoredCreative
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("weight DESC, created_at DESC").
		Limit(limit).
		Find(&res).Error
	return res, err
}
