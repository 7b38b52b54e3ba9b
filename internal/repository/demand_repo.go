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

const demandColumns = `id, passenger_id, from_city, to_city, earliest_time, latest_time, seats, budget_max, is_active, created_at, updated_at`

type DemandRepository interface {
	Create(ctx context.Context, demand *models.Demand) error
	GetByID(ctx context.Context, id string) (*models.Demand, error)
	Search(ctx context.Context, q models.DemandSearch) ([]*models.Demand, error)
	ListByPassenger(ctx context.Context, passengerID string) ([]*models.Demand, error)
	Update(ctx context.Context, demand *models.Demand) error
}

type demandRepository struct {
	db *sqlx.DB
}

func NewDemandRepository(db *sqlx.DB) DemandRepository {
	return &demandRepository{db: db}
}

func (r *demandRepository) Create(ctx context.Context, demand *models.Demand) error {
	if demand.ID == "" {
		demand.ID = uuid.New().String()
	}
	demand.CreatedAt = time.Now()
	demand.UpdatedAt = demand.CreatedAt
	demand.IsActive = true

	query := `
		INSERT INTO demands (id, passenger_id, from_city, to_city, earliest_time, latest_time, seats, budget_max, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		demand.ID, demand.PassengerID, demand.FromCity, demand.ToCity, demand.EarliestTime, demand.LatestTime,
		demand.Seats, demand.BudgetMax, demand.IsActive, demand.CreatedAt, demand.UpdatedAt)
	return err
}

func (r *demandRepository) GetByID(ctx context.Context, id string) (*models.Demand, error) {
	var demand models.Demand
	query := `SELECT ` + demandColumns + ` FROM demands WHERE id = $1`
	err := r.db.GetContext(ctx, &demand, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &demand, nil
}

func (r *demandRepository) Search(ctx context.Context, q models.DemandSearch) ([]*models.Demand, error) {
	conds := []string{"is_active = TRUE", "latest_time > NOW()"}
	args := []interface{}{}

	if q.FromCity != "" {
		args = append(args, q.FromCity)
		conds = append(conds, fmt.Sprintf("from_city ILIKE $%d", len(args)))
	}
	if q.ToCity != "" {
		args = append(args, q.ToCity)
		conds = append(conds, fmt.Sprintf("to_city ILIKE $%d", len(args)))
	}

	args = append(args, q.Page.Limit, q.Page.Offset())
	query := `SELECT ` + demandColumns + ` FROM demands WHERE ` + strings.Join(conds, " AND ") +
		fmt.Sprintf(` ORDER BY earliest_time ASC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	demands := []*models.Demand{}
	err := r.db.SelectContext(ctx, &demands, query, args...)
	return demands, err
}

func (r *demandRepository) ListByPassenger(ctx context.Context, passengerID string) ([]*models.Demand, error) {
	demands := []*models.Demand{}
	query := `SELECT ` + demandColumns + ` FROM demands WHERE passenger_id = $1 ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &demands, query, passengerID)
	return demands, err
}

func (r *demandRepository) Update(ctx context.Context, demand *models.Demand) error {
	demand.UpdatedAt = time.Now()
	query := `
		UPDATE demands
		SET earliest_time = $1, latest_time = $2, seats = $3, budget_max = $4, is_active = $5, updated_at = $6
		WHERE id = $7
	`
	_, err := r.db.ExecContext(ctx, query,
		demand.EarliestTime, demand.LatestTime, demand.Seats, demand.BudgetMax, demand.IsActive,
		demand.UpdatedAt, demand.ID)
	return err
}
