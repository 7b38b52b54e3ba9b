package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/toosila/toosila-api/internal/models"
)

const bookingColumns = `id, passenger_id, offer_id, seats, status, total_price, message, created_at, updated_at`

type BookingRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Booking, error)
	UpdateStatus(ctx context.Context, tx *sqlx.Tx, id, status string, totalPrice *float64) error
	SumPendingSeats(ctx context.Context, q sqlx.QueryerContext, offerID, excludeBookingID string) (int, error)
	PendingSeatsByOffer(ctx context.Context, offerIDs []string) (map[string]int, error)
	ListByPassenger(ctx context.Context, passengerID, status string, page models.Page) ([]*models.Booking, error)
	ListByOffer(ctx context.Context, offerID string) ([]*models.Booking, error)
}

type bookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, tx *sqlx.Tx, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	booking.Status = models.BookingStatusPending

	query := `
		INSERT INTO bookings (id, passenger_id, offer_id, seats, status, total_price, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, query,
		booking.ID, booking.PassengerID, booking.OfferID, booking.Seats, booking.Status,
		booking.TotalPrice, booking.Message, booking.CreatedAt, booking.UpdatedAt)
	return err
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	err := r.db.GetContext(ctx, &booking, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	err := tx.GetContext(ctx, &booking, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, tx *sqlx.Tx, id, status string, totalPrice *float64) error {
	query := `
		UPDATE bookings
		SET status = $1, total_price = COALESCE($2, total_price), updated_at = $3
		WHERE id = $4
	`
	_, err := tx.ExecContext(ctx, query, status, totalPrice, time.Now(), id)
	return err
}

// SumPendingSeats totals seats held by pending bookings on an offer.
// Accepted bookings are already deducted from offers.seats.
func (r *bookingRepository) SumPendingSeats(ctx context.Context, q sqlx.QueryerContext, offerID, excludeBookingID string) (int, error) {
	var total int
	query := `
		SELECT COALESCE(SUM(seats), 0) FROM bookings
		WHERE offer_id = $1 AND status = $2 AND ($3 = '' OR id::text <> $3)
	`
	err := sqlx.GetContext(ctx, q, &total, query, offerID, models.BookingStatusPending, excludeBookingID)
	return total, err
}

// PendingSeatsByOffer totals pending seats for several offers in one query.
// Offers without pending bookings are absent from the map.
func (r *bookingRepository) PendingSeatsByOffer(ctx context.Context, offerIDs []string) (map[string]int, error) {
	result := make(map[string]int, len(offerIDs))
	if len(offerIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`
		SELECT offer_id, SUM(seats) AS seats FROM bookings
		WHERE status = ? AND offer_id IN (?)
		GROUP BY offer_id
	`, models.BookingStatusPending, offerIDs)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		OfferID string `db:"offer_id"`
		Seats   int    `db:"seats"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.OfferID] = row.Seats
	}
	return result, nil
}

func (r *bookingRepository) ListByPassenger(ctx context.Context, passengerID, status string, page models.Page) ([]*models.Booking, error) {
	bookings := []*models.Booking{}
	query := `
		SELECT ` + bookingColumns + ` FROM bookings
		WHERE passenger_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	err := r.db.SelectContext(ctx, &bookings, query, passengerID, status, page.Limit, page.Offset())
	return bookings, err
}

func (r *bookingRepository) ListByOffer(ctx context.Context, offerID string) ([]*models.Booking, error) {
	bookings := []*models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE offer_id = $1 ORDER BY created_at ASC`
	err := r.db.SelectContext(ctx, &bookings, query, offerID)
	return bookings, err
}
