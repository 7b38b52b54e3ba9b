package models

import (
	"time"
)

// Booking status constants
const (
	BookingStatusPending   = "pending"
	BookingStatusAccepted  = "accepted"
	BookingStatusRejected  = "rejected"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// Valid booking state transitions
var ValidBookingTransitions = map[string][]string{
	BookingStatusPending:   {BookingStatusAccepted, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusAccepted:  {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusRejected:  {},
	BookingStatusCancelled: {},
	BookingStatusCompleted: {},
}

type Booking struct {
	ID          string    `db:"id" json:"id"`
	PassengerID string    `db:"passenger_id" json:"passenger_id"`
	OfferID     string    `db:"offer_id" json:"offer_id"`
	Seats       int       `db:"seats" json:"seats"`
	Status      string    `db:"status" json:"status"`
	TotalPrice  float64   `db:"total_price" json:"total_price"`
	Message     *string   `db:"message" json:"message,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type CreateBookingRequest struct {
	OfferID string `json:"offer_id" validate:"required,uuid"`
	Seats   int    `json:"seats" validate:"required,min=1,max=8"`
	Message string `json:"message,omitempty" validate:"max=500"`
}

type UpdateBookingStatusRequest struct {
	Status     string   `json:"status" validate:"required"`
	TotalPrice *float64 `json:"total_price,omitempty" validate:"omitempty,gte=0"`
}

type BookingResponse struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	Seats      int            `json:"seats"`
	TotalPrice float64        `json:"total_price"`
	Message    *string        `json:"message,omitempty"`
	Passenger  *UserResponse  `json:"passenger,omitempty"`
	Offer      *OfferResponse `json:"offer,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (b *Booking) ToResponse() *BookingResponse {
	return &BookingResponse{
		ID:         b.ID,
		Status:     b.Status,
		Seats:      b.Seats,
		TotalPrice: b.TotalPrice,
		Message:    b.Message,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

// CanTransitionTo checks if a booking can move to a new status
func (b *Booking) CanTransitionTo(newStatus string) bool {
	validNextStates, exists := ValidBookingTransitions[b.Status]
	if !exists {
		return false
	}

	for _, state := range validNextStates {
		if state == newStatus {
			return true
		}
	}
	return false
}

// HoldsSeats returns true while the booking counts against offer capacity
func (b *Booking) HoldsSeats() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusAccepted
}

// IsTerminal returns true if no further transition is possible
func (b *Booking) IsTerminal() bool {
	return len(ValidBookingTransitions[b.Status]) == 0
}

func IsValidBookingStatus(status string) bool {
	_, ok := ValidBookingTransitions[status]
	return ok
}
