package repository

import (
	"context"
	"fmt"

	"github.com/meinhoongagan/groomly/models"
	"github.com/meinhoongagan/groomly/rating"
)

type ReviewRepository struct {
	db *DB
}

func NewReviewRepository(db *DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.conn(ctx).Create(review).Error; err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) ByID(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := r.db.conn(ctx).First(&review, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &review, nil
}

func (r *ReviewRepository) Update(ctx context.Context, review *models.Review) error {
	if err := r.db.conn(ctx).Save(review).Error; err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.conn(ctx).Delete(&models.Review{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) ListByProvider(ctx context.Context, providerID uint, page, limit int) ([]models.Review, int64, error) {
	var (
		reviews []models.Review
		total   int64
	)
	q := r.db.conn(ctx).Model(&models.Review{}).Where("provider_id = ?", providerID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	err := q.Preload("Customer").
		Order("created_at DESC").
		Offset(offset(page, limit)).Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, total, nil
}

// ReviewRatingStats ignores soft-deleted reviews.
func (r *ReviewRepository) ReviewRatingStats(ctx context.Context, providerID uint) (rating.Stats, error) {
	var stats rating.Stats
	err := r.db.conn(ctx).Model(&models.Review{}).
		Select("COUNT(rating) AS count, COALESCE(AVG(rating), 0)::float8 AS mean").
		Where("provider_id = ?", providerID).
		Scan(&stats).Error
	if err != nil {
		return rating.Stats{}, err
	}
	return stats, nil
}
