package models

import (
	"time"
)

type Demand struct {
	ID           string    `db:"id" json:"id"`
	PassengerID  string    `db:"passenger_id" json:"passenger_id"`
	FromCity     string    `db:"from_city" json:"from_city"`
	ToCity       string    `db:"to_city" json:"to_city"`
	EarliestTime time.Time `db:"earliest_time" json:"earliest_time"`
	LatestTime   time.Time `db:"latest_time" json:"latest_time"`
	Seats        int       `db:"seats" json:"seats"`
	BudgetMax    *float64  `db:"budget_max" json:"budget_max,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type CreateDemandRequest struct {
	FromCity     string    `json:"from_city" validate:"required,min=2,max=100"`
	ToCity       string    `json:"to_city" validate:"required,min=2,max=100,nefield=FromCity"`
	EarliestTime time.Time `json:"earliest_time" validate:"required"`
	LatestTime   time.Time `json:"latest_time" validate:"required"`
	Seats        int       `json:"seats" validate:"required,min=1,max=8"`
	BudgetMax    *float64  `json:"budget_max,omitempty" validate:"omitempty,gt=0"`
}

type UpdateDemandRequest struct {
	EarliestTime *time.Time `json:"earliest_time,omitempty"`
	LatestTime   *time.Time `json:"latest_time,omitempty"`
	Seats        *int       `json:"seats,omitempty" validate:"omitempty,min=1,max=8"`
	BudgetMax    *float64   `json:"budget_max,omitempty" validate:"omitempty,gt=0"`
	IsActive     *bool      `json:"is_active,omitempty"`
}

type DemandSearch struct {
	FromCity string
	ToCity   string
	Page     Page
}

type DemandResponse struct {
	ID           string        `json:"id"`
	FromCity     string        `json:"from_city"`
	ToCity       string        `json:"to_city"`
	EarliestTime time.Time     `json:"earliest_time"`
	LatestTime   time.Time     `json:"latest_time"`
	Seats        int           `json:"seats"`
	BudgetMax    *float64      `json:"budget_max,omitempty"`
	IsActive     bool          `json:"is_active"`
	Passenger    *UserResponse `json:"passenger,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

func (d *Demand) ToResponse() *DemandResponse {
	return &DemandResponse{
		ID:           d.ID,
		FromCity:     d.FromCity,
		ToCity:       d.ToCity,
		EarliestTime: d.EarliestTime,
		LatestTime:   d.LatestTime,
		Seats:        d.Seats,
		BudgetMax:    d.BudgetMax,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt,
	}
}
