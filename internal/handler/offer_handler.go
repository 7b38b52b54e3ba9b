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

type OfferHandler struct {
	offerService   service.OfferService
	bookingService service.BookingService
	validate       *validator.Validate
	logger         *slog.Logger
}

func NewOfferHandler(offerService service.OfferService, bookingService service.BookingService, logger *slog.Logger) *OfferHandler {
	return &OfferHandler{
		offerService:   offerService,
		bookingService: bookingService,
		validate:       newValidator(),
		logger:         logger,
	}
}

func (h *OfferHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/offers", h.SearchOffers)
	r.Get("/offers/{id}", h.GetOffer)
	r.Get("/offers/{id}/seats", h.GetAvailableSeats)
}

func (h *OfferHandler) RegisterRoutes(r chi.Router) {
	r.Post("/offers", h.CreateOffer)
	r.Get("/offers/mine", h.ListMyOffers)
	r.Put("/offers/{id}", h.UpdateOffer)
	r.Delete("/offers/{id}", h.DeactivateOffer)
	r.Get("/offers/{id}/bookings", h.ListOfferBookings)
}

// GET /api/offers?from=&to=&date=YYYY-MM-DD&seats=&page=&limit=
func (h *OfferHandler) SearchOffers(w http.ResponseWriter, r *http.Request) {
	date, err := utils.QueryDate(r, "date")
	if err != nil {
		utils.BadRequest(w, "date must be formatted as YYYY-MM-DD")
		return
	}

	page := utils.ParsePage(r)
	offers, err := h.offerService.SearchOffers(r.Context(), models.OfferSearch{
		FromCity: r.URL.Query().Get("from"),
		ToCity:   r.URL.Query().Get("to"),
		Date:     date,
		MinSeats: utils.QueryInt(r, "seats", 0),
		Page:     page,
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, models.ListResponse{Items: offers, Page: page.Number, Limit: page.Limit})
}

// GET /api/offers/{id}
func (h *OfferHandler) GetOffer(w http.ResponseWriter, r *http.Request) {
	offerID, ok := pathID(w, r, "id", "offer")
	if !ok {
		return
	}

	offer, err := h.offerService.GetOffer(r.Context(), offerID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, offer)
}

// GET /api/offers/{id}/seats
func (h *OfferHandler) GetAvailableSeats(w http.ResponseWriter, r *http.Request) {
	offerID, ok := pathID(w, r, "id", "offer")
	if !ok {
		return
	}

	available, err := h.bookingService.GetAvailableSeats(r.Context(), offerID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]interface{}{
		"offer_id":        offerID,
		"available_seats": available,
	})
}

// POST /api/offers
func (h *OfferHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	var req models.CreateOfferRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	offer, err := h.offerService.CreateOffer(r.Context(), id.UserID, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Created(w, offer)
}

// GET /api/offers/mine
func (h *OfferHandler) ListMyOffers(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	offers, err := h.offerService.ListDriverOffers(r.Context(), id.UserID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, offers)
}

// PUT /api/offers/{id}
func (h *OfferHandler) UpdateOffer(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	offerID, ok := pathID(w, r, "id", "offer")
	if !ok {
		return
	}

	var req models.UpdateOfferRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	offer, err := h.offerService.UpdateOffer(r.Context(), offerID, id.UserID, id.Role, &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, offer)
}

// DELETE /api/offers/{id}
func (h *OfferHandler) DeactivateOffer(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	offerID, ok := pathID(w, r, "id", "offer")
	if !ok {
		return
	}

	if err := h.offerService.DeactivateOffer(r.Context(), offerID, id.UserID, id.Role); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.NoContent(w)
}

// GET /api/offers/{id}/bookings
func (h *OfferHandler) ListOfferBookings(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.MustIdentity(r.Context())
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	offerID, ok := pathID(w, r, "id", "offer")
	if !ok {
		return
	}

	bookings, err := h.bookingService.ListOfferBookings(r.Context(), offerID, id.UserID, id.Role)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	utils.Success(w, http.StatusOK, bookings)
}
