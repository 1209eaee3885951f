package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chirostrong/booking-bot/internal/booking"
	"github.com/chirostrong/booking-bot/internal/slots"
	"github.com/chirostrong/booking-bot/pkg/logging"
)

// AdminBookingsHandler hosts the privileged booking management endpoints.
type AdminBookingsHandler struct {
	service *booking.Service
	logger  *logging.Logger
}

func NewAdminBookingsHandler(service *booking.Service, logger *logging.Logger) *AdminBookingsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminBookingsHandler{service: service, logger: logger}
}

type adminUpdateRequest struct {
	BookingName string `json:"booking_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	NewSlotID   string `json:"new_slot_id,omitempty"`
}

// List handles GET /api/admin/bookings.
func (h *AdminBookingsHandler) List(w http.ResponseWriter, r *http.Request) {
	booked, err := h.service.ListBooked(r.Context())
	if err != nil {
		h.logger.Error("admin booking list failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, bookResponse{OK: false, Error: "internal error"})
		return
	}
	out := make([]bookedSlotResponse, 0, len(booked))
	for _, s := range booked {
		out = append(out, bookedSlotResponse{
			slotResponse: toSlotResponse(s),
			BookingName:  s.Name,
			Phone:        s.Phone,
			Email:        s.Email,
			ReminderSent: s.ReminderSent,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Update handles PATCH /api/admin/bookings/{slotID}. When new_slot_id is
// set the booking moves to that slot; otherwise contact details are
// rewritten in place.
func (h *AdminBookingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	slotID, err := uuid.Parse(chi.URLParam(r, "slotID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, bookResponse{OK: false, Error: "slotID must be a valid UUID"})
		return
	}

	var req adminUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, bookResponse{OK: false, Error: "invalid JSON body"})
		return
	}

	newID := uuid.Nil
	if req.NewSlotID != "" {
		newID, err = uuid.Parse(req.NewSlotID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, bookResponse{OK: false, Error: "new_slot_id must be a valid UUID"})
			return
		}
	}

	contact := slots.Contact{Name: req.BookingName, Phone: req.Phone, Email: req.Email}
	if err := h.service.Update(r.Context(), slotID, newID, contact); err != nil {
		status, msg := bookingErrorStatus(err)
		writeJSON(w, status, bookResponse{OK: false, SlotID: slotID.String(), Error: msg})
		return
	}

	finalID := slotID
	if newID != uuid.Nil {
		finalID = newID
	}
	writeJSON(w, http.StatusOK, bookResponse{OK: true, SlotID: finalID.String()})
}

// Delete handles DELETE /api/admin/bookings/{slotID}. Cancelling an already
// free slot succeeds; the end state is the same.
func (h *AdminBookingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	slotID, err := uuid.Parse(chi.URLParam(r, "slotID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, bookResponse{OK: false, Error: "slotID must be a valid UUID"})
		return
	}
	if err := h.service.Cancel(r.Context(), slotID); err != nil {
		status, msg := bookingErrorStatus(err)
		writeJSON(w, status, bookResponse{OK: false, SlotID: slotID.String(), Error: msg})
		return
	}
	writeJSON(w, http.StatusOK, bookResponse{OK: true, SlotID: slotID.String()})
}
