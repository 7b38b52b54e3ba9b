package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/toosila/toosila-api/internal/models"
)

// ErrSeatUnderflow is returned when a seat adjustment would drive an
// offer's counter below zero.
var ErrSeatUnderflow = errors.New("offer seat counter would go negative")

const offerColumns = `id, driver_id, from_city, to_city, departure_time, seats, price, notes, is_active, created_at, updated_at`

// availableSeatsExpr is the live counter less seats held by pending bookings
const availableSeatsExpr = `seats - COALESCE((SELECT SUM(b.seats) FROM bookings b WHERE b.offer_id = offers.id AND b.status = '` +
	models.BookingStatusPending + `'), 0)`

type OfferRepository interface {
	Create(ctx context.Context, offer *models.Offer) error
	GetByID(ctx context.Context, id string) (*models.Offer, error)
	GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Offer, error)
	Search(ctx context.Context, q models.OfferSearch) ([]*models.Offer, error)
	ListByDriver(ctx context.Context, driverID string) ([]*models.Offer, error)
	Update(ctx context.Context, offer *models.Offer) error
	AdjustSeats(ctx context.Context, tx *sqlx.Tx, id string, delta int) error
}

type offerRepository struct {
	db *sqlx.DB
}

func NewOfferRepository(db *sqlx.DB) OfferRepository {
	return &offerRepository{db: db}
}

func (r *offerRepository) Create(ctx context.Context, offer *models.Offer) error {
	if offer.ID == "" {
		offer.ID = uuid.New().String()
	}
	offer.CreatedAt = time.Now()
	offer.UpdatedAt = offer.CreatedAt
	offer.IsActive = true

	query := `
		INSERT INTO offers (id, driver_id, from_city, to_city, departure_time, seats, price, notes, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		offer.ID, offer.DriverID, offer.FromCity, offer.ToCity, offer.DepartureTime,
		offer.Seats, offer.Price, offer.Notes, offer.IsActive, offer.CreatedAt, offer.UpdatedAt)
	return err
}

func (r *offerRepository) GetByID(ctx context.Context, id string) (*models.Offer, error) {
	var offer models.Offer
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`
	err := r.db.GetContext(ctx, &offer, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// GetByIDForUpdate locks the offer row until tx ends. Every read-check-write
// of the seat counter goes through this lock.
func (r *offerRepository) GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.Offer, error) {
	var offer models.Offer
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1 FOR UPDATE`
	err := tx.GetContext(ctx, &offer, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *offerRepository) Search(ctx context.Context, q models.OfferSearch) ([]*models.Offer, error) {
	conds := []string{"is_active = TRUE", "departure_time > NOW()"}
	args := []interface{}{}

	if q.FromCity != "" {
		args = append(args, q.FromCity)
		conds = append(conds, fmt.Sprintf("from_city ILIKE $%d", len(args)))
	}
	if q.ToCity != "" {
		args = append(args, q.ToCity)
		conds = append(conds, fmt.Sprintf("to_city ILIKE $%d", len(args)))
	}
	if q.Date != nil {
		start := time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 0, 0, 0, 0, q.Date.Location())
		args = append(args, start, start.Add(24*time.Hour))
		conds = append(conds, fmt.Sprintf("departure_time >= $%d AND departure_time < $%d", len(args)-1, len(args)))
	}
	if q.MinSeats > 0 {
		args = append(args, q.MinSeats)
		conds = append(conds, fmt.Sprintf("%s >= $%d", availableSeatsExpr, len(args)))
	}

	args = append(args, q.Page.Limit, q.Page.Offset())
	query := `SELECT ` + offerColumns + ` FROM offers WHERE ` + strings.Join(conds, " AND ") +
		fmt.Sprintf(` ORDER BY departure_time ASC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	offers := []*models.Offer{}
	err := r.db.SelectContext(ctx, &offers, query, args...)
	return offers, err
}

func (r *offerRepository) ListByDriver(ctx context.Context, driverID string) ([]*models.Offer, error) {
	offers := []*models.Offer{}
	query := `SELECT ` + offerColumns + ` FROM offers WHERE driver_id = $1 ORDER BY departure_time DESC`
	err := r.db.SelectContext(ctx, &offers, query, driverID)
	return offers, err
}

func (r *offerRepository) Update(ctx context.Context, offer *models.Offer) error {
	offer.UpdatedAt = time.Now()
	query := `
		UPDATE offers
		SET departure_time = $1, price = $2, notes = $3, is_active = $4, updated_at = $5
		WHERE id = $6
	`
	_, err := r.db.ExecContext(ctx, query,
		offer.DepartureTime, offer.Price, offer.Notes, offer.IsActive, offer.UpdatedAt, offer.ID)
	return err
}

// AdjustSeats moves the live seat counter by delta inside tx. The guard in the
// WHERE clause keeps seats non-negative even if a caller skipped the check.
func (r *offerRepository) AdjustSeats(ctx context.Context, tx *sqlx.Tx, id string, delta int) error {
	query := `UPDATE offers SET seats = seats + $1, updated_at = $2 WHERE id = $3 AND seats + $1 >= 0`
	res, err := tx.ExecContext(ctx, query, delta, time.Now(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSeatUnderflow
	}
	return nil
}
