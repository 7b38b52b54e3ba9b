package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/toosila/toosila-api/internal/models"
)

type RatingRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, rating *models.Rating) error
	Exists(ctx context.Context, bookingID, raterID string) (bool, error)
	ListByRatedUser(ctx context.Context, userID string, page models.Page) ([]*models.Rating, error)
}

type ratingRepository struct {
	db *sqlx.DB
}

func NewRatingRepository(db *sqlx.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Create(ctx context.Context, tx *sqlx.Tx, rating *models.Rating) error {
	if rating.ID == "" {
		rating.ID = uuid.New().String()
	}
	rating.CreatedAt = time.Now()

	query := `
		INSERT INTO ratings (id, booking_id, rater_id, rated_user_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		rating.ID, rating.BookingID, rating.RaterID, rating.RatedUserID, rating.Rating, rating.Comment, rating.CreatedAt)
	return err
}

func (r *ratingRepository) Exists(ctx context.Context, bookingID, raterID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM ratings WHERE booking_id = $1 AND rater_id = $2)`
	err := r.db.GetContext(ctx, &exists, query, bookingID, raterID)
	return exists, err
}

func (r *ratingRepository) ListByRatedUser(ctx context.Context, userID string, page models.Page) ([]*models.Rating, error) {
	ratings := []*models.Rating{}
	query := `
		SELECT id, booking_id, rater_id, rated_user_id, rating, comment, created_at
		FROM ratings
		WHERE rated_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	err := r.db.SelectContext(ctx, &ratings, query, userID, page.Limit, page.Offset())
	return ratings, err
}
