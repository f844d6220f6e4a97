package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/booking"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/store"
	"github.com/md-rashed-zaman/slotbook/services/slot-service/internal/timeofday"
)

type SlotFinder interface {
	ForService(ctx context.Context, serviceID string, date model.Date) ([]model.AvailableSlot, error)
	ForCatalog(ctx context.Context, date model.Date) ([]model.AvailableSlot, error)
	Invalidate(ctx context.Context, serviceID string) error
}

type Booker interface {
	Book(ctx context.Context, serviceID string, req booking.Request) (model.BookedSlot, error)
}

type Catalog interface {
	GetService(ctx context.Context, id string) (model.Service, error)
	CreateService(ctx context.Context, svc model.Service) (model.Service, error)
}

type SlotHandler struct {
	finder  SlotFinder
	booker  Booker
	catalog Catalog
	logger  *slog.Logger
}

func NewSlotHandler(finder SlotFinder, booker Booker, catalog Catalog, logger *slog.Logger) *SlotHandler {
	return &SlotHandler{
		finder:  finder,
		booker:  booker,
		catalog: catalog,
		logger:  logger,
	}
}

// Register mounts the API routes on mux.
func (h *SlotHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/slots", h.ListSlots)
	mux.HandleFunc("GET /api/v1/services/{id}/slots", h.ListServiceSlots)
	mux.HandleFunc("POST /api/v1/bookings", h.CreateBooking)
	mux.HandleFunc("POST /api/v1/services", h.CreateService)
	mux.HandleFunc("GET /api/v1/services/{id}", h.GetService)
}

type slotsResponse struct {
	Date  model.Date            `json:"date"`
	Slots []model.AvailableSlot `json:"slots"`
}

func (h *SlotHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	slots, err := h.finder.ForCatalog(r.Context(), date)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, slotsResponse{Date: date, Slots: nonNil(slots)})
}

func (h *SlotHandler) ListServiceSlots(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	slots, err := h.finder.ForService(r.Context(), r.PathValue("id"), date)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, slotsResponse{Date: date, Slots: nonNil(slots)})
}

type createBookingRequest struct {
	ServiceID string               `json:"service_id"`
	Date      model.Date           `json:"date"`
	SlotTime  *timeofday.TimeOfDay `json:"slot_time"`
	Users     []string             `json:"users"`
}

type createBookingResponse struct {
	ServiceID string `json:"service_id"`
	model.BookedSlot
}

func (h *SlotHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid json body: "+err.Error())
		return
	}
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	if req.ServiceID == "" || req.Date.IsZero() || req.SlotTime == nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "service_id, date and slot_time are required")
		return
	}

	booked, err := h.booker.Book(r.Context(), req.ServiceID, booking.Request{
		Date:      req.Date,
		SlotStart: *req.SlotTime,
		Users:     req.Users,
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if booked.Users == nil {
		booked.Users = []string{}
	}
	httpx.WriteJSON(w, http.StatusCreated, createBookingResponse{ServiceID: req.ServiceID, BookedSlot: booked})
}

type createServiceRequest struct {
	Name                   string             `json:"name"`
	SlotDuration           int                `json:"slot_duration"`
	BreakBetweenSlots      int                `json:"break_between_slots"`
	AllowedBookingInterval int                `json:"allowed_booking_interval"`
	MaxClientsPerSlot      int                `json:"max_clients_per_slot"`
	ServiceDays            []model.ServiceDay `json:"service_days"`
	Breaks                 []model.Break      `json:"breaks"`
	PublicHolidays         []model.Date       `json:"public_holidays"`
}

func (h *SlotHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req createServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid json body: "+err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	svc, err := h.catalog.CreateService(r.Context(), model.Service{
		Name:                       req.Name,
		SlotDurationMinutes:        req.SlotDuration,
		BreakBetweenSlotsMinutes:   req.BreakBetweenSlots,
		MaxClientsPerSlot:          req.MaxClientsPerSlot,
		AllowedBookingIntervalDays: req.AllowedBookingInterval,
		PublicHolidays:             req.PublicHolidays,
		ServiceDays:                req.ServiceDays,
		Breaks:                     req.Breaks,
	})
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if err := h.finder.Invalidate(r.Context(), svc.ID); err != nil {
		h.logger.Warn("availability cache invalidation failed", "service_id", svc.ID, "err", err)
	}
	h.logger.Info("service created", "service_id", svc.ID, "name", svc.Name)
	httpx.WriteJSON(w, http.StatusCreated, svc)
}

func (h *SlotHandler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.catalog.GetService(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, svc)
}

func (h *SlotHandler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	if rej, ok := booking.AsRejection(err); ok {
		httpx.WriteError(w, http.StatusUnprocessableEntity, string(rej.Kind), rej.Message)
		return
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "service not found")
	case errors.Is(err, model.ErrInvalidService):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_service", err.Error())
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func dateParam(w http.ResponseWriter, r *http.Request) (model.Date, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "date query parameter is required")
		return model.Date{}, false
	}
	date, err := model.ParseDate(raw)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return model.Date{}, false
	}
	return date, true
}

func nonNil(slots []model.AvailableSlot) []model.AvailableSlot {
	if slots == nil {
		return []model.AvailableSlot{}
	}
	return slots
}
