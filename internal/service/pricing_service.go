package service

import (
	"math"
)

type PricingService interface {
	BookingTotal(pricePerSeat float64, seats int) float64
	AvailableSeats(offerSeats, pendingSeats int) int
}

type pricingService struct{}

func NewPricingService() PricingService {
	return &pricingService{}
}

// BookingTotal is the per-seat price times the seat count, rounded to cents
func (s *pricingService) BookingTotal(pricePerSeat float64, seats int) float64 {
	if seats <= 0 || pricePerSeat <= 0 {
		return 0
	}
	return round(pricePerSeat * float64(seats))
}

// AvailableSeats subtracts seats held by pending bookings from the offer's
// live counter. Accepted bookings are already deducted from offerSeats.
func (s *pricingService) AvailableSeats(offerSeats, pendingSeats int) int {
	available := offerSeats - pendingSeats
	if available < 0 {
		return 0
	}
	return available
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}
