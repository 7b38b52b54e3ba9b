package models

import (
	"time"
)

type Offer struct {
	ID            string    `db:"id" json:"id"`
	DriverID      string    `db:"driver_id" json:"driver_id"`
	FromCity      string    `db:"from_city" json:"from_city"`
	ToCity        string    `db:"to_city" json:"to_city"`
	DepartureTime time.Time `db:"departure_time" json:"departure_time"`
	Seats         int       `db:"seats" json:"seats"`
	Price         float64   `db:"price" json:"price"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type CreateOfferRequest struct {
	FromCity      string    `json:"from_city" validate:"required,min=2,max=100"`
	ToCity        string    `json:"to_city" validate:"required,min=2,max=100,nefield=FromCity"`
	DepartureTime time.Time `json:"departure_time" validate:"required"`
	Seats         int       `json:"seats" validate:"required,min=1,max=8"`
	Price         float64   `json:"price" validate:"required,gt=0"`
	Notes         string    `json:"notes,omitempty" validate:"max=500"`
}

type UpdateOfferRequest struct {
	DepartureTime *time.Time `json:"departure_time,omitempty"`
	Price         *float64   `json:"price,omitempty" validate:"omitempty,gt=0"`
	Notes         *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
	IsActive      *bool      `json:"is_active,omitempty"`
}

type OfferSearch struct {
	FromCity string
	ToCity   string
	Date     *time.Time
	MinSeats int
	Page     Page
}

type OfferResponse struct {
	ID             string        `json:"id"`
	FromCity       string        `json:"from_city"`
	ToCity         string        `json:"to_city"`
	DepartureTime  time.Time     `json:"departure_time"`
	Seats          int           `json:"seats"`
	AvailableSeats *int          `json:"available_seats,omitempty"`
	Price          float64       `json:"price"`
	Notes          *string       `json:"notes,omitempty"`
	IsActive       bool          `json:"is_active"`
	Driver         *UserResponse `json:"driver,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

func (o *Offer) ToResponse() *OfferResponse {
	return &OfferResponse{
		ID:            o.ID,
		FromCity:      o.FromCity,
		ToCity:        o.ToCity,
		DepartureTime: o.DepartureTime,
		Seats:         o.Seats,
		Price:         o.Price,
		Notes:         o.Notes,
		IsActive:      o.IsActive,
		CreatedAt:     o.CreatedAt,
	}
}

// IsOwnedBy reports whether userID is the offer's driver
func (o *Offer) IsOwnedBy(userID string) bool {
	return o.DriverID == userID
}
