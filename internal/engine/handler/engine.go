package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"bokari/internal/engine/service"
	apperrors "bokari/pkg/errors"
	httputil "bokari/pkg/http"
	"bokari/pkg/logger"
	"bokari/pkg/model"
)

type EngineHandler struct {
	service  service.EngineService
	location *time.Location
	log      *logger.Logger
}

func NewEngineHandler(service service.EngineService, location *time.Location, log *logger.Logger) *EngineHandler {
	return &EngineHandler{
		service:  service,
		location: location,
		log:      log,
	}
}

type slotsResponse struct {
	Slots []model.Slot       `json:"slots"`
	Sync  model.SyncSnapshot `json:"sync"`
}

type bookingRequest struct {
	Slot     string             `json:"slot"`
	Customer model.CustomerInfo `json:"customer"`
}

// GetSlots serves the bookable slots in the requested window. from/to are
// dates; to is inclusive. duration selects the slot length in minutes, with
// the configured default when absent. sync=force bypasses the reconciliation
// cache.
func (h *EngineHandler) GetSlots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	var from, to time.Time
	if fromStr := query.Get("from"); fromStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", fromStr, h.location)
		if err != nil {
			if writeErr := httputil.WriteError(w, apperrors.InvalidInput(fmt.Sprintf("invalid from parameter: %s", fromStr))); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "GetSlots", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		from = parsed
	}
	if toStr := query.Get("to"); toStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", toStr, h.location)
		if err != nil {
			if writeErr := httputil.WriteError(w, apperrors.InvalidInput(fmt.Sprintf("invalid to parameter: %s", toStr))); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "GetSlots", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		to = parsed.AddDate(0, 0, 1)
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("from must be before to")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetSlots", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	var durationMin int
	if durationStr := query.Get("duration"); durationStr != "" {
		parsed, err := strconv.Atoi(durationStr)
		if err != nil || parsed <= 0 {
			if writeErr := httputil.WriteError(w, apperrors.InvalidInput(fmt.Sprintf("duration must be a positive number of minutes, got: %s", durationStr))); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "GetSlots", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		durationMin = parsed
	}

	forceSync := query.Get("sync") == "force"

	slots, snapshot, err := h.service.GetAvailableSlots(r.Context(), from, to, durationMin, forceSync)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetSlots", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	if slots == nil {
		slots = []model.Slot{}
	}

	if err := httputil.WriteSuccess(w, slotsResponse{Slots: slots, Sync: snapshot}); err != nil {
		h.log.Error("failed to write success response", "handler", "GetSlots", "operation", "WriteSuccess", "error", err)
	}
}

func (h *EngineHandler) CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "CreateBooking", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	booking, err := h.service.BookSlot(r.Context(), req.Slot, req.Customer)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CreateBooking", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateBooking", "operation", "WriteCreated", "error", err)
	}
}

func (h *EngineHandler) GetBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	booking, err := h.service.GetBooking(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetBooking", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetBooking", "operation", "WriteSuccess", "error", err)
	}
}

func (h *EngineHandler) CancelBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if err := h.service.CancelBooking(r.Context(), id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "CancelBooking", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *EngineHandler) ForceSync(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	snapshot, err := h.service.ForceReconcile(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ForceSync", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, snapshot); err != nil {
		h.log.Error("failed to write success response", "handler", "ForceSync", "operation", "WriteSuccess", "error", err)
	}
}

func (h *EngineHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/slots", h.GetSlots)
	router.POST("/api/v1/bookings", h.CreateBooking)
	router.GET("/api/v1/bookings/:id", h.GetBooking)
	router.DELETE("/api/v1/bookings/:id", h.CancelBooking)
	router.POST("/api/v1/sync", h.ForceSync)
}
