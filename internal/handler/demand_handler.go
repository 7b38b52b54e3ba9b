package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/toosila/toosila-api/internal/middleware"
	"github.com/toosila/toosila-api/internal/models"
	"github.com/toosila/toosila-api/internal/service"
	"github.com/toosila/toosila-api/pkg/utils"
)

type DemandHandler struct {
	demandService service.DemandService
	validate      *validator.Validate
	logger        *slog.Logger
}

func NewDemandHandler(demandService service.DemandService, logger *slog.Logger) *DemandHandler {
	return &DemandHandler{
		demandService: demandService,
		validate:      newValidator(),
		logger:        logger,
	}
}

func (h *DemandHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/demands", h.SearchDemands)
	r.Get("/demands/{id}", h.GetDemand)
}

func (h *DemandHandler) RegisterRoutes(r chi.Router) {
	r.Post("/demands", h.CreateDemand)
	r.Get("/demands/mine", h.ListMyDemands)
	r.Put("/demands/{id}", h.UpdateDemand)
	r.Delete("/demands/{id}", h.DeactivateDemand)
}

// GET /api/demands?from=&to=&page=&limit=
func (h *DemandHandler) SearchDemands(w http.ResponseWriter, r *http.Request) {
	page := utils.ParsePage(r)
	demands, err := h.demandService.SearchDemands(r.Context(), models.DemandSearch{
		FromCity: r.URL.Query().Get("from"),
		ToCity:   r.URL.Query().Get("to"),
		Page:     page,
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, models.ListResponse{Items: demands, Page: page.Number, Limit: page.Limit})
}

// GET /api/demands/{id}
func (h *DemandHandler) GetDemand(w http.ResponseWriter, r *http.Request) {
	demandID, ok := pathID(w, r, "id", "demand")
	if !ok {
		return
	}

	demand, err := h.demandService.GetDemand(r.Context(), demandID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, demand)
}

// POST /api/demands
func (h *DemandHandler) CreateDemand(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	var req models.CreateDemandRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	demand, err := h.demandService.CreateDemand(r.Context(), id.UserID, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Created(w, demand)
}

// GET /api/demands/mine
func (h *DemandHandler) ListMyDemands(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	demands, err := h.demandService.ListMyDemands(r.Context(), id.UserID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, demands)
}

// PUT /api/demands/{id}
func (h *DemandHandler) UpdateDemand(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	demandID, ok := pathID(w, r, "id", "demand")
	if !ok {
		return
	}

	var req models.UpdateDemandRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	demand, err := h.demandService.UpdateDemand(r.Context(), demandID, id.UserID, id.Role, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, demand)
}

// DELETE /api/demands/{id}
func (h *DemandHandler) DeactivateDemand(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	demandID, ok := pathID(w, r, "id", "demand")
	if !ok {
		return
	}

	if err := h.demandService.DeactivateDemand(r.Context(), demandID, id.UserID, id.Role); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.NoContent(w)
}
