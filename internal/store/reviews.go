package store

import (
	"context"
	"database/sql"
	"fmt"

	"roastery-service/internal/models"
)

// CreateReview inserts a new review in pending moderation state
func (s *Store) CreateReview(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (product_id, author, email, rating, body, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return s.db.QueryRowxContext(ctx, query,
		review.ProductID, review.Author, review.Email,
		review.Rating, review.Body, review.Status,
	).Scan(&review.ID, &review.CreatedAt)
}

// GetApprovedReviews retrieves approved reviews for a product, newest first
func (s *Store) GetApprovedReviews(ctx context.Context, productID int64) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.SelectContext(ctx, &reviews,
		"SELECT * FROM reviews WHERE product_id = $1 AND status = $2 ORDER BY created_at DESC",
		productID, models.ReviewApproved)
	return reviews, err
}

// SetReviewStatus moderates a review, returning the updated row
func (s *Store) SetReviewStatus(ctx context.Context, reviewID int64, status string) (*models.Review, error) {
	var review models.Review
	err := s.db.GetContext(ctx, &review,
		"UPDATE reviews SET status = $1 WHERE id = $2 RETURNING *", status, reviewID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("review not found: %d", reviewID)
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}
