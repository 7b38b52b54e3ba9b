package service

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	apperrors "github.com/toosila/toosila-api/internal/errors"
	"github.com/toosila/toosila-api/internal/models"
	"github.com/toosila/toosila-api/internal/repository"
)

type OfferService interface {
	CreateOffer(ctx context.Context, driverID string, req *models.CreateOfferRequest) (*models.OfferResponse, error)
	GetOffer(ctx context.Context, id string) (*models.OfferResponse, error)
	SearchOffers(ctx context.Context, q models.OfferSearch) ([]*models.OfferResponse, error)
	ListDriverOffers(ctx context.Context, driverID string) ([]*models.OfferResponse, error)
	UpdateOffer(ctx context.Context, id, userID, role string, req *models.UpdateOfferRequest) (*models.OfferResponse, error)
	DeactivateOffer(ctx context.Context, id, userID, role string) error
}

type offerService struct {
	db          *sqlx.DB
	offerRepo   repository.OfferRepository
	bookingRepo repository.BookingRepository
	userRepo    repository.UserRepository
	pricing     PricingService
	now         func() time.Time
}

func NewOfferService(
	db *sqlx.DB,
	offerRepo repository.OfferRepository,
	bookingRepo repository.BookingRepository,
	userRepo repository.UserRepository,
	pricing PricingService,
) OfferService {
	return &offerService{
		db:          db,
		offerRepo:   offerRepo,
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		pricing:     pricing,
		now:         time.Now,
	}
}

func (s *offerService) CreateOffer(ctx context.Context, driverID string, req *models.CreateOfferRequest) (*models.OfferResponse, error) {
	from := strings.TrimSpace(req.FromCity)
	to := strings.TrimSpace(req.ToCity)
	if strings.EqualFold(from, to) {
		return nil, apperrors.Validation("departure and destination cities must differ")
	}
	if !req.DepartureTime.After(s.now()) {
		return nil, apperrors.Validation("departure time must be in the future")
	}

	offer := &models.Offer{
		DriverID:      driverID,
		FromCity:      from,
		ToCity:        to,
		DepartureTime: req.DepartureTime,
		Seats:         req.Seats,
		Price:         req.Price,
	}
	if req.Notes != "" {
		offer.Notes = &req.Notes
	}

	if err := s.offerRepo.Create(ctx, offer); err != nil {
		return nil, err
	}

	resp := offer.ToResponse()
	resp.AvailableSeats = &offer.Seats
	return resp, nil
}

func (s *offerService) GetOffer(ctx context.Context, id string) (*models.OfferResponse, error) {
	offer, err := s.offerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, apperrors.NotFound("offer")
	}

	pending, err := s.bookingRepo.SumPendingSeats(ctx, s.db, offer.ID, "")
	if err != nil {
		return nil, err
	}
	available := s.pricing.AvailableSeats(offer.Seats, pending)

	resp := offer.ToResponse()
	resp.AvailableSeats = &available

	driver, err := s.userRepo.GetByID(ctx, offer.DriverID)
	if err != nil {
		return nil, err
	}
	if driver != nil {
		resp.Driver = driver.ToPublicResponse()
	}
	return resp, nil
}

func (s *offerService) SearchOffers(ctx context.Context, q models.OfferSearch) ([]*models.OfferResponse, error) {
	q.FromCity = strings.TrimSpace(q.FromCity)
	q.ToCity = strings.TrimSpace(q.ToCity)

	offers, err := s.offerRepo.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.withDetails(ctx, offers, true)
}

func (s *offerService) ListDriverOffers(ctx context.Context, driverID string) ([]*models.OfferResponse, error) {
	offers, err := s.offerRepo.ListByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	return s.withDetails(ctx, offers, false)
}

func (s *offerService) UpdateOffer(ctx context.Context, id, userID, role string, req *models.UpdateOfferRequest) (*models.OfferResponse, error) {
	offer, err := s.ownedOffer(ctx, id, userID, role)
	if err != nil {
		return nil, err
	}

	if req.DepartureTime != nil {
		if !req.DepartureTime.After(s.now()) {
			return nil, apperrors.Validation("departure time must be in the future")
		}
		offer.DepartureTime = *req.DepartureTime
	}
	if req.Price != nil {
		offer.Price = *req.Price
	}
	if req.Notes != nil {
		offer.Notes = req.Notes
	}
	if req.IsActive != nil {
		offer.IsActive = *req.IsActive
	}

	if err := s.offerRepo.Update(ctx, offer); err != nil {
		return nil, err
	}
	return offer.ToResponse(), nil
}

func (s *offerService) DeactivateOffer(ctx context.Context, id, userID, role string) error {
	offer, err := s.ownedOffer(ctx, id, userID, role)
	if err != nil {
		return err
	}
	if !offer.IsActive {
		return nil
	}

	offer.IsActive = false
	return s.offerRepo.Update(ctx, offer)
}

func (s *offerService) ownedOffer(ctx context.Context, id, userID, role string) (*models.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, apperrors.NotFound("offer")
	}
	if !offer.IsOwnedBy(userID) && role != models.RoleAdmin {
		return nil, apperrors.Forbidden("only the driver can modify this offer")
	}
	return offer, nil
}

// withDetails attaches available seats to every offer and, when withDriver
// is set, the driver's public profile
func (s *offerService) withDetails(ctx context.Context, offers []*models.Offer, withDriver bool) ([]*models.OfferResponse, error) {
	offerIDs := make([]string, 0, len(offers))
	driverIDs := make([]string, 0, len(offers))
	for _, o := range offers {
		offerIDs = append(offerIDs, o.ID)
		driverIDs = append(driverIDs, o.DriverID)
	}

	pending, err := s.bookingRepo.PendingSeatsByOffer(ctx, offerIDs)
	if err != nil {
		return nil, err
	}

	var drivers map[string]*models.User
	if withDriver {
		drivers, err = s.userRepo.GetByIDs(ctx, driverIDs)
		if err != nil {
			return nil, err
		}
	}

	result := make([]*models.OfferResponse, 0, len(offers))
	for _, o := range offers {
		resp := o.ToResponse()
		available := s.pricing.AvailableSeats(o.Seats, pending[o.ID])
		resp.AvailableSeats = &available
		if d, ok := drivers[o.DriverID]; ok {
			resp.Driver = d.ToPublicResponse()
		}
		result = append(result, resp)
	}
	return result, nil
}
