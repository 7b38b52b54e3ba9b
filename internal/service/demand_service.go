package service

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/toosila/toosila-api/internal/errors"
	"github.com/toosila/toosila-api/internal/models"
	"github.com/toosila/toosila-api/internal/repository"
)

type DemandService interface {
	CreateDemand(ctx context.Context, passengerID string, req *models.CreateDemandRequest) (*models.DemandResponse, error)
	GetDemand(ctx context.Context, id string) (*models.DemandResponse, error)
	SearchDemands(ctx context.Context, q models.DemandSearch) ([]*models.DemandResponse, error)
	ListMyDemands(ctx context.Context, passengerID string) ([]*models.DemandResponse, error)
	UpdateDemand(ctx context.Context, id, userID, role string, req *models.UpdateDemandRequest) (*models.DemandResponse, error)
	DeactivateDemand(ctx context.Context, id, userID, role string) error
}

type demandService struct {
	demandRepo repository.DemandRepository
	userRepo   repository.UserRepository
	now        func() time.Time
}

func NewDemandService(demandRepo repository.DemandRepository, userRepo repository.UserRepository) DemandService {
	return &demandService{
		demandRepo: demandRepo,
		userRepo:   userRepo,
		now:        time.Now,
	}
}

func (s *demandService) CreateDemand(ctx context.Context, passengerID string, req *models.CreateDemandRequest) (*models.DemandResponse, error) {
	from := strings.TrimSpace(req.FromCity)
	to := strings.TrimSpace(req.ToCity)
	if strings.EqualFold(from, to) {
		return nil, apperrors.Validation("departure and destination cities must differ")
	}
	if err := s.checkWindow(req.EarliestTime, req.LatestTime); err != nil {
		return nil, err
	}

	demand := &models.Demand{
		PassengerID:  passengerID,
		FromCity:     from,
		ToCity:       to,
		EarliestTime: req.EarliestTime,
		LatestTime:   req.LatestTime,
		Seats:        req.Seats,
		BudgetMax:    req.BudgetMax,
	}
	if err := s.demandRepo.Create(ctx, demand); err != nil {
		return nil, err
	}
	return demand.ToResponse(), nil
}

func (s *demandService) GetDemand(ctx context.Context, id string) (*models.DemandResponse, error) {
	demand, err := s.demandRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if demand == nil {
		return nil, apperrors.NotFound("demand")
	}

	resp := demand.ToResponse()
	passenger, err := s.userRepo.GetByID(ctx, demand.PassengerID)
	if err != nil {
		return nil, err
	}
	if passenger != nil {
		resp.Passenger = passenger.ToPublicResponse()
	}
	return resp, nil
}

func (s *demandService) SearchDemands(ctx context.Context, q models.DemandSearch) ([]*models.DemandResponse, error) {
	q.FromCity = strings.TrimSpace(q.FromCity)
	q.ToCity = strings.TrimSpace(q.ToCity)

	demands, err := s.demandRepo.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(demands))
	for _, d := range demands {
		ids = append(ids, d.PassengerID)
	}
	passengers, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]*models.DemandResponse, 0, len(demands))
	for _, d := range demands {
		resp := d.ToResponse()
		if p, ok := passengers[d.PassengerID]; ok {
			resp.Passenger = p.ToPublicResponse()
		}
		result = append(result, resp)
	}
	return result, nil
}

func (s *demandService) ListMyDemands(ctx context.Context, passengerID string) ([]*models.DemandResponse, error) {
	demands, err := s.demandRepo.ListByPassenger(ctx, passengerID)
	if err != nil {
		return nil, err
	}

	result := make([]*models.DemandResponse, 0, len(demands))
	for _, d := range demands {
		result = append(result, d.ToResponse())
	}
	return result, nil
}

func (s *demandService) UpdateDemand(ctx context.Context, id, userID, role string, req *models.UpdateDemandRequest) (*models.DemandResponse, error) {
	demand, err := s.ownedDemand(ctx, id, userID, role)
	if err != nil {
		return nil, err
	}

	if req.EarliestTime != nil {
		demand.EarliestTime = *req.EarliestTime
	}
	if req.LatestTime != nil {
		demand.LatestTime = *req.LatestTime
	}
	if req.EarliestTime != nil || req.LatestTime != nil {
		if err := s.checkWindow(demand.EarliestTime, demand.LatestTime); err != nil {
			return nil, err
		}
	}
	if req.Seats != nil {
		demand.Seats = *req.Seats
	}
	if req.BudgetMax != nil {
		demand.BudgetMax = req.BudgetMax
	}
	if req.IsActive != nil {
		demand.IsActive = *req.IsActive
	}

	if err := s.demandRepo.Update(ctx, demand); err != nil {
		return nil, err
	}
	return demand.ToResponse(), nil
}

func (s *demandService) DeactivateDemand(ctx context.Context, id, userID, role string) error {
	demand, err := s.ownedDemand(ctx, id, userID, role)
	if err != nil {
		return err
	}
	if !demand.IsActive {
		return nil
	}

	demand.IsActive = false
	return s.demandRepo.Update(ctx, demand)
}

func (s *demandService) ownedDemand(ctx context.Context, id, userID, role string) (*models.Demand, error) {
	demand, err := s.demandRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if demand == nil {
		return nil, apperrors.NotFound("demand")
	}
	if demand.PassengerID != userID && role != models.RoleAdmin {
		return nil, apperrors.Forbidden("only the passenger can modify this demand")
	}
	return demand, nil
}

func (s *demandService) checkWindow(earliest, latest time.Time) error {
	if latest.Before(earliest) {
		return apperrors.Validation("earliest time must not be after latest time")
	}
	if !latest.After(s.now()) {
		return apperrors.Validation("travel window must end in the future")
	}
	return nil
}
