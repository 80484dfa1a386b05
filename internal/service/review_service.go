package service

import (
	"context"
	"fmt"
	"strings"

	"roastery-service/internal/models"
	"roastery-service/internal/util"

	"go.uber.org/zap"
)

// ReviewStore is the persistence surface the review service depends on.
type ReviewStore interface {
	CreateReview(ctx context.Context, review *models.Review) error
	GetApprovedReviews(ctx context.Context, productID int64) ([]models.Review, error)
	SetReviewStatus(ctx context.Context, reviewID int64, status string) (*models.Review, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
}

// ReviewService handles review submission and moderation.
type ReviewService struct {
	store  ReviewStore
	logger *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(st ReviewStore) *ReviewService {
	return &ReviewService{
		store:  st,
		logger: util.GetLogger(),
	}
}

// SubmitReviewRequest is a customer review submission
type SubmitReviewRequest struct {
	Author string `json:"author" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Body   string `json:"body" binding:"required"`
}

// Submit records a review in pending moderation state
func (rs *ReviewService) Submit(ctx context.Context, productID int64, req *SubmitReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}

	if _, err := rs.store.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}

	review := &models.Review{
		ProductID: productID,
		Author:    strings.TrimSpace(req.Author),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Rating:    req.Rating,
		Body:      req.Body,
		Status:    models.ReviewPending,
	}

	if err := rs.store.CreateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	util.ReviewsSubmittedTotal.Inc()
	rs.logger.Info("Review submitted",
		zap.Int64("review_id", review.ID),
		zap.Int64("product_id", productID))
	return review, nil
}

// ListApproved returns the approved reviews for a product
func (rs *ReviewService) ListApproved(ctx context.Context, productID int64) ([]models.Review, error) {
	return rs.store.GetApprovedReviews(ctx, productID)
}

// Moderate approves or rejects a pending review
func (rs *ReviewService) Moderate(ctx context.Context, reviewID int64, status string) (*models.Review, error) {
	if status != models.ReviewApproved && status != models.ReviewRejected {
		return nil, fmt.Errorf("invalid moderation status %q", status)
	}
	return rs.store.SetReviewStatus(ctx, reviewID, status)
}
