package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/toosila/toosila-api/internal/database"
	apperrors "github.com/toosila/toosila-api/internal/errors"
	"github.com/toosila/toosila-api/internal/models"
	"github.com/toosila/toosila-api/internal/repository"
)

type RatingService interface {
	RateUser(ctx context.Context, raterID string, req *models.CreateRatingRequest) (*models.Rating, error)
	ListUserRatings(ctx context.Context, userID string, page models.Page) ([]*models.Rating, error)
}

type ratingService struct {
	db          *sqlx.DB
	ratingRepo  repository.RatingRepository
	bookingRepo repository.BookingRepository
	offerRepo   repository.OfferRepository
	userRepo    repository.UserRepository
	notifier    NotificationService
	logger      *slog.Logger
}

func NewRatingService(
	db *sqlx.DB,
	ratingRepo repository.RatingRepository,
	bookingRepo repository.BookingRepository,
	offerRepo repository.OfferRepository,
	userRepo repository.UserRepository,
	notifier NotificationService,
	logger *slog.Logger,
) RatingService {
	return &ratingService{
		db:          db,
		ratingRepo:  ratingRepo,
		bookingRepo: bookingRepo,
		offerRepo:   offerRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

// RateUser lets either side of a completed booking rate the other once
func (s *ratingService) RateUser(ctx context.Context, raterID string, req *models.CreateRatingRequest) (*models.Rating, error) {
	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperrors.NotFound("booking")
	}
	if booking.Status != models.BookingStatusCompleted {
		return nil, apperrors.Validation("You can only rate completed bookings")
	}

	offer, err := s.offerRepo.GetByID(ctx, booking.OfferID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, apperrors.NotFound("offer")
	}

	var ratedUserID string
	switch raterID {
	case booking.PassengerID:
		ratedUserID = offer.DriverID
	case offer.DriverID:
		ratedUserID = booking.PassengerID
	default:
		return nil, apperrors.Forbidden("only participants of this booking can rate it")
	}

	exists, err := s.ratingRepo.Exists(ctx, booking.ID, raterID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Conflict("You have already rated this booking")
	}

	rating := &models.Rating{
		BookingID:   booking.ID,
		RaterID:     raterID,
		RatedUserID: ratedUserID,
		Rating:      req.Rating,
	}
	if comment := strings.TrimSpace(req.Comment); comment != "" {
		rating.Comment = &comment
	}

	err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.ratingRepo.Create(ctx, tx, rating); err != nil {
			if database.IsUniqueViolation(err) {
				return apperrors.Conflict("You have already rated this booking")
			}
			return err
		}
		return s.userRepo.RefreshRatingStats(ctx, tx, ratedUserID)
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		data := map[string]string{"booking_id": booking.ID, "rating_id": rating.ID}
		msg := fmt.Sprintf("You received a %d-star rating", rating.Rating)
		if err := s.notifier.Notify(ctx, ratedUserID, models.NotificationNewRating, "New rating", msg, data); err != nil {
			s.logger.Warn("failed to create rating notification", "rating_id", rating.ID, "error", err)
		}
	}

	return rating, nil
}

func (s *ratingService) ListUserRatings(ctx context.Context, userID string, page models.Page) ([]*models.Rating, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}
	return s.ratingRepo.ListByRatedUser(ctx, userID, page)
}
