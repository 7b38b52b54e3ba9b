package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/toosila/toosila-api/internal/database"
	apperrors "github.com/toosila/toosila-api/internal/errors"
	"github.com/toosila/toosila-api/internal/events"
	"github.com/toosila/toosila-api/internal/models"
	"github.com/toosila/toosila-api/internal/repository"
)

type BookingService interface {
	CreateBooking(ctx context.Context, userID string, req *models.CreateBookingRequest) (*models.BookingResponse, error)
	UpdateBookingStatus(ctx context.Context, bookingID, userID, role string, req *models.UpdateBookingStatusRequest) (*models.BookingResponse, error)
	CancelBooking(ctx context.Context, bookingID, userID, role string) (*models.BookingResponse, error)
	GetAvailableSeats(ctx context.Context, offerID string) (int, error)
	GetBooking(ctx context.Context, bookingID, userID, role string) (*models.BookingResponse, error)
	ListMyBookings(ctx context.Context, passengerID, status string, page models.Page) ([]*models.BookingResponse, error)
	ListOfferBookings(ctx context.Context, offerID, userID, role string) ([]*models.BookingResponse, error)
}

// BookingEvent is the payload published for every booking lifecycle change
type BookingEvent struct {
	BookingID   string  `json:"booking_id"`
	OfferID     string  `json:"offer_id"`
	PassengerID string  `json:"passenger_id"`
	DriverID    string  `json:"driver_id"`
	Seats       int     `json:"seats"`
	Status      string  `json:"status"`
	TotalPrice  float64 `json:"total_price"`
}

type bookingService struct {
	db          *sqlx.DB
	bookingRepo repository.BookingRepository
	offerRepo   repository.OfferRepository
	userRepo    repository.UserRepository
	pricing     PricingService
	notifier    NotificationService
	publisher   events.Publisher
	logger      *slog.Logger
}

func NewBookingService(
	db *sqlx.DB,
	bookingRepo repository.BookingRepository,
	offerRepo repository.OfferRepository,
	userRepo repository.UserRepository,
	pricing PricingService,
	notifier NotificationService,
	publisher events.Publisher,
	logger *slog.Logger,
) BookingService {
	return &bookingService{
		db:          db,
		bookingRepo: bookingRepo,
		offerRepo:   offerRepo,
		userRepo:    userRepo,
		pricing:     pricing,
		notifier:    notifier,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, userID string, req *models.CreateBookingRequest) (*models.BookingResponse, error) {
	var (
		booking *models.Booking
		offer   *models.Offer
	)

	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		offer, err = s.offerRepo.GetByIDForUpdate(ctx, tx, req.OfferID)
		if err != nil {
			return err
		}
		if offer == nil {
			return apperrors.NotFound("offer")
		}
		if !offer.IsActive {
			return apperrors.OfferInactive()
		}
		if offer.IsOwnedBy(userID) {
			return apperrors.SelfBooking()
		}

		pending, err := s.bookingRepo.SumPendingSeats(ctx, tx, offer.ID, "")
		if err != nil {
			return err
		}
		available := s.pricing.AvailableSeats(offer.Seats, pending)
		if req.Seats > available {
			return apperrors.InsufficientSeats(available)
		}

		booking = &models.Booking{
			PassengerID: userID,
			OfferID:     offer.ID,
			Seats:       req.Seats,
			TotalPrice:  s.pricing.BookingTotal(offer.Price, req.Seats),
		}
		if req.Message != "" {
			booking.Message = &req.Message
		}
		return s.bookingRepo.Create(ctx, tx, booking)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		"booking_id", booking.ID, "offer_id", offer.ID, "passenger_id", userID, "seats", booking.Seats)

	s.notify(ctx, offer.DriverID, models.NotificationBookingCreated,
		"New booking request",
		fmt.Sprintf("%d seat(s) requested on your ride %s → %s", booking.Seats, offer.FromCity, offer.ToCity),
		booking, offer)
	s.publish(ctx, events.BookingCreated, booking, offer)

	resp := booking.ToResponse()
	resp.Offer = offer.ToResponse()
	return resp, nil
}

func (s *bookingService) UpdateBookingStatus(ctx context.Context, bookingID, userID, role string, req *models.UpdateBookingStatusRequest) (*models.BookingResponse, error) {
	var (
		booking *models.Booking
		offer   *models.Offer
	)

	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		booking, offer, err = s.lockBookingAndOffer(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		if !offer.IsOwnedBy(userID) && role != models.RoleAdmin {
			return apperrors.Forbidden("only the driver can update this booking")
		}
		if !models.IsValidBookingStatus(req.Status) {
			return apperrors.InvalidStatus(req.Status)
		}
		if !booking.CanTransitionTo(req.Status) {
			return apperrors.InvalidTransition(booking.Status, req.Status)
		}

		switch {
		case req.Status == models.BookingStatusAccepted:
			pending, err := s.bookingRepo.SumPendingSeats(ctx, tx, offer.ID, booking.ID)
			if err != nil {
				return err
			}
			available := s.pricing.AvailableSeats(offer.Seats, pending)
			if booking.Seats > available {
				return apperrors.InsufficientSeats(available)
			}
			if err := s.adjustSeats(ctx, tx, offer, -booking.Seats); err != nil {
				return err
			}
		case booking.Status == models.BookingStatusAccepted && req.Status == models.BookingStatusCancelled:
			if err := s.adjustSeats(ctx, tx, offer, booking.Seats); err != nil {
				return err
			}
		}

		if err := s.bookingRepo.UpdateStatus(ctx, tx, booking.ID, req.Status, req.TotalPrice); err != nil {
			return err
		}

		booking.Status = req.Status
		if req.TotalPrice != nil {
			booking.TotalPrice = *req.TotalPrice
		}
		booking.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking status updated",
		"booking_id", booking.ID, "offer_id", offer.ID, "status", booking.Status, "by", userID)

	title, message := statusNotification(booking.Status, offer)
	s.notify(ctx, booking.PassengerID, "booking_"+booking.Status, title, message, booking, offer)
	s.publish(ctx, events.BookingStatusRoutingKey(booking.Status), booking, offer)

	resp := booking.ToResponse()
	resp.Offer = offer.ToResponse()
	return resp, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID, userID, role string) (*models.BookingResponse, error) {
	var (
		booking *models.Booking
		offer   *models.Offer
	)

	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		booking, offer, err = s.lockBookingAndOffer(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		if booking.PassengerID != userID && role != models.RoleAdmin {
			return apperrors.Forbidden("only the passenger can cancel this booking")
		}
		if booking.IsTerminal() {
			return apperrors.Validation(fmt.Sprintf("Booking is already %s", booking.Status))
		}

		if booking.Status == models.BookingStatusAccepted {
			if err := s.adjustSeats(ctx, tx, offer, booking.Seats); err != nil {
				return err
			}
		}

		if err := s.bookingRepo.UpdateStatus(ctx, tx, booking.ID, models.BookingStatusCancelled, nil); err != nil {
			return err
		}

		booking.Status = models.BookingStatusCancelled
		booking.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking cancelled", "booking_id", booking.ID, "offer_id", offer.ID, "by", userID)

	s.notify(ctx, offer.DriverID, models.NotificationBookingCancelled,
		"Booking cancelled",
		fmt.Sprintf("A booking of %d seat(s) on your ride %s → %s was cancelled", booking.Seats, offer.FromCity, offer.ToCity),
		booking, offer)
	s.publish(ctx, events.BookingCancelled, booking, offer)

	resp := booking.ToResponse()
	resp.Offer = offer.ToResponse()
	return resp, nil
}

// GetAvailableSeats returns the live seat counter minus seats held by
// pending bookings
func (s *bookingService) GetAvailableSeats(ctx context.Context, offerID string) (int, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return 0, err
	}
	if offer == nil {
		return 0, apperrors.NotFound("offer")
	}

	pending, err := s.bookingRepo.SumPendingSeats(ctx, s.db, offer.ID, "")
	if err != nil {
		return 0, err
	}
	return s.pricing.AvailableSeats(offer.Seats, pending), nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID, userID, role string) (*models.BookingResponse, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperrors.NotFound("booking")
	}

	offer, err := s.offerRepo.GetByID(ctx, booking.OfferID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, apperrors.NotFound("offer")
	}

	if booking.PassengerID != userID && !offer.IsOwnedBy(userID) && role != models.RoleAdmin {
		return nil, apperrors.Forbidden("you do not have access to this booking")
	}

	resp := booking.ToResponse()
	resp.Offer = offer.ToResponse()

	users, err := s.userRepo.GetByIDs(ctx, []string{booking.PassengerID, offer.DriverID})
	if err != nil {
		return nil, err
	}
	if p, ok := users[booking.PassengerID]; ok {
		resp.Passenger = p.ToPublicResponse()
	}
	if d, ok := users[offer.DriverID]; ok {
		resp.Offer.Driver = d.ToPublicResponse()
	}
	return resp, nil
}

func (s *bookingService) ListMyBookings(ctx context.Context, passengerID, status string, page models.Page) ([]*models.BookingResponse, error) {
	if status != "" && !models.IsValidBookingStatus(status) {
		return nil, apperrors.InvalidStatus(status)
	}

	bookings, err := s.bookingRepo.ListByPassenger(ctx, passengerID, status, page)
	if err != nil {
		return nil, err
	}

	result := make([]*models.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		result = append(result, b.ToResponse())
	}
	return result, nil
}

func (s *bookingService) ListOfferBookings(ctx context.Context, offerID, userID, role string) ([]*models.BookingResponse, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, apperrors.NotFound("offer")
	}
	if !offer.IsOwnedBy(userID) && role != models.RoleAdmin {
		return nil, apperrors.Forbidden("only the driver can view bookings for this offer")
	}

	bookings, err := s.bookingRepo.ListByOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.PassengerID)
	}
	passengers, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]*models.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp := b.ToResponse()
		if p, ok := passengers[b.PassengerID]; ok {
			resp.Passenger = p.ToPublicResponse()
		}
		result = append(result, resp)
	}
	return result, nil
}

// lockBookingAndOffer takes row locks in booking → offer order
func (s *bookingService) lockBookingAndOffer(ctx context.Context, tx *sqlx.Tx, bookingID string) (*models.Booking, *models.Offer, error) {
	booking, err := s.bookingRepo.GetByIDForUpdate(ctx, tx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if booking == nil {
		return nil, nil, apperrors.NotFound("booking")
	}

	offer, err := s.offerRepo.GetByIDForUpdate(ctx, tx, booking.OfferID)
	if err != nil {
		return nil, nil, err
	}
	if offer == nil {
		return nil, nil, apperrors.NotFound("offer")
	}
	return booking, offer, nil
}

func (s *bookingService) adjustSeats(ctx context.Context, tx *sqlx.Tx, offer *models.Offer, delta int) error {
	err := s.offerRepo.AdjustSeats(ctx, tx, offer.ID, delta)
	if errors.Is(err, repository.ErrSeatUnderflow) {
		return apperrors.InsufficientSeats(offer.Seats)
	}
	if err != nil {
		return err
	}
	offer.Seats += delta
	return nil
}

func (s *bookingService) notify(ctx context.Context, userID, notificationType, title, message string, booking *models.Booking, offer *models.Offer) {
	if s.notifier == nil {
		return
	}
	data := map[string]string{"booking_id": booking.ID, "offer_id": offer.ID}
	if err := s.notifier.Notify(ctx, userID, notificationType, title, message, data); err != nil {
		s.logger.Warn("failed to create booking notification",
			"booking_id", booking.ID, "user_id", userID, "type", notificationType, "error", err)
	}
}

func (s *bookingService) publish(ctx context.Context, routingKey string, booking *models.Booking, offer *models.Offer) {
	if s.publisher == nil {
		return
	}
	event := BookingEvent{
		BookingID:   booking.ID,
		OfferID:     offer.ID,
		PassengerID: booking.PassengerID,
		DriverID:    offer.DriverID,
		Seats:       booking.Seats,
		Status:      booking.Status,
		TotalPrice:  booking.TotalPrice,
	}
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		s.logger.Warn("failed to publish booking event",
			"booking_id", booking.ID, "routing_key", routingKey, "error", err)
	}
}

func statusNotification(status string, offer *models.Offer) (string, string) {
	route := offer.FromCity + " → " + offer.ToCity
	switch status {
	case models.BookingStatusAccepted:
		return "Booking accepted", "Your booking on " + route + " was accepted"
	case models.BookingStatusRejected:
		return "Booking rejected", "Your booking on " + route + " was rejected"
	case models.BookingStatusCancelled:
		return "Booking cancelled", "The driver cancelled your booking on " + route
	case models.BookingStatusCompleted:
		return "Ride completed", "Your ride " + route + " is complete. You can now rate the driver"
	default:
		return "Booking updated", "Your booking on " + route + " is now " + status
	}
}
