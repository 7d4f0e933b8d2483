package bookings

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/clinic-scheduler/internal/scheduling"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

const maxBodyBytes = 1 << 20

// Handler wires the /api/calendly endpoints to the booking service.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Availability handles GET /api/calendly/availability?date=&appointment_type=.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.service.Availability(r.Context(), q.Get("date"), q.Get("appointment_type"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Book handles POST /api/calendly/book.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req BookingRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.logger.Warn("failed to decode booking request", "error", err)
		h.writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.Book(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// GetBooking handles GET /api/calendly/bookings/{bookingID}.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetBooking(r.Context(), chi.URLParam(r, "bookingID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, b)
}

type scheduleResponse struct {
	Date     string                `json:"date"`
	Override bool                  `json:"override"`
	Slots    []scheduling.TimeSlot `json:"slots"`
}

type scheduleRequest struct {
	Slots []scheduling.TimeSlot `json:"slots"`
}

// GetSchedule handles GET /api/calendly/schedule/{date}.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(chi.URLParam(r, "date"))
	slots, override, err := h.service.Schedule(r.Context(), date)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, scheduleResponse{Date: date, Override: override, Slots: slots})
}

// PutSchedule handles PUT /api/calendly/schedule/{date}.
func (h *Handler) PutSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Slots == nil {
		req.Slots = []scheduling.TimeSlot{}
	}

	date := strings.TrimSpace(chi.URLParam(r, "date"))
	if err := h.service.SetSchedule(r.Context(), date, req.Slots); err != nil {
		h.writeError(w, err)
		return
	}
	slots, _, err := h.service.Schedule(r.Context(), date)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, scheduleResponse{Date: date, Override: true, Slots: slots})
}

// StatusFor maps a service error onto its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidAppointmentType),
		errors.Is(err, ErrInvalidPatient),
		errors.Is(err, ErrInvalidBookingRequest),
		errors.Is(err, ErrInvalidSchedule):
		return http.StatusBadRequest
	case errors.Is(err, ErrSlotNotFound), errors.Is(err, ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSlotConflict), errors.Is(err, ErrDuplicateBookingID):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	detail := err.Error()
	switch {
	case errors.Is(err, ErrSlotNotFound):
		detail = "time slot not found"
	case errors.Is(err, ErrSlotConflict):
		detail = "time slot already booked"
	case errors.Is(err, ErrBookingNotFound):
		detail = "booking not found"
	case status == http.StatusInternalServerError:
		h.logger.Error("booking request failed", "error", err)
		detail = "booking storage unavailable"
	}
	h.writeDetail(w, status, detail)
}

func (h *Handler) writeDetail(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, map[string]string{"detail": detail})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
