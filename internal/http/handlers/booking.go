package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/chirostrong/booking-bot/internal/booking"
	"github.com/chirostrong/booking-bot/internal/notify"
	"github.com/chirostrong/booking-bot/internal/slots"
	"github.com/chirostrong/booking-bot/pkg/logging"
)

// BookingHandler hosts the public slot listing and booking endpoints.
type BookingHandler struct {
	service  *booking.Service
	notifier *notify.Service
	logger   *logging.Logger
}

func NewBookingHandler(service *booking.Service, notifier *notify.Service, logger *logging.Logger) *BookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{service: service, notifier: notifier, logger: logger}
}

type slotResponse struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Status string `json:"status"`
}

type bookedSlotResponse struct {
	slotResponse
	BookingName  string `json:"booking_name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	ReminderSent bool   `json:"reminder_sent"`
}

type bookRequest struct {
	SlotID      string `json:"slot_id"`
	BookingName string `json:"booking_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

type bookResponse struct {
	OK     bool   `json:"ok"`
	SlotID string `json:"slot_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ListSlots handles GET /api/slots. It returns every slot of the current
// booking window, booked ones included, so a frontend can grey them out.
func (h *BookingHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.ListSlots(r.Context())
	if err != nil {
		h.logger.Error("slot listing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, bookResponse{OK: false, Error: "internal error"})
		return
	}
	out := make([]slotResponse, 0, len(all))
	for _, s := range all {
		out = append(out, toSlotResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

// Book handles POST /api/book.
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, bookResponse{OK: false, Error: "invalid JSON body"})
		return
	}
	slotID, err := uuid.Parse(req.SlotID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, bookResponse{OK: false, Error: "slot_id must be a valid UUID"})
		return
	}

	contact := slots.Contact{Name: req.BookingName, Phone: req.Phone, Email: req.Email}
	if err := h.service.Book(r.Context(), slotID, contact); err != nil {
		status, msg := bookingErrorStatus(err)
		writeJSON(w, status, bookResponse{OK: false, SlotID: req.SlotID, Error: msg})
		return
	}

	if h.notifier != nil {
		if slot, err := h.service.Get(r.Context(), slotID); err == nil {
			// Confirmation email is best effort; the booking already stands.
			_ = h.notifier.SendBookingConfirmation(r.Context(), *slot)
		}
	}

	writeJSON(w, http.StatusOK, bookResponse{OK: true, SlotID: req.SlotID})
}

// HealthCheck handles GET /health.
func (h *BookingHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func bookingErrorStatus(err error) (int, string) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, slots.ErrSlotTaken):
		return http.StatusConflict, "slot is already booked"
	case errors.Is(err, slots.ErrNotFound):
		return http.StatusNotFound, "slot not found"
	case errors.Is(err, slots.ErrNotBooked):
		return http.StatusConflict, "slot is not booked"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func toSlotResponse(s slots.Slot) slotResponse {
	return slotResponse{
		ID:     s.ID.String(),
		Date:   s.DateISO(),
		Time:   s.Time,
		Status: s.Status,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
