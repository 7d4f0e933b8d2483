package bookings

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/clinic-scheduler/internal/observability/metrics"
	"github.com/wolfman30/clinic-scheduler/internal/scheduling"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

var bookingsTracer = otel.Tracer("clinic.internal.bookings")

const notifyTimeout = 10 * time.Second

// Notifier is told about every stored booking. Failures never fail the booking.
type Notifier interface {
	BookingConfirmed(ctx context.Context, booking Booking) error
}

// Service reconciles generated or overridden slots against stored bookings.
type Service struct {
	store    Store
	schedule ScheduleStore
	gen      *scheduling.Generator
	cal      *scheduling.Calendar
	metrics  *metrics.BookingMetrics
	notifier Notifier
	logger   *logging.Logger
}

// Option configures optional Service collaborators.
type Option func(*Service)

func WithScheduleStore(s ScheduleStore) Option {
	return func(svc *Service) { svc.schedule = s }
}

func WithGenerator(g *scheduling.Generator) Option {
	return func(svc *Service) {
		if g != nil {
			svc.gen = g
		}
	}
}

func WithCalendar(c *scheduling.Calendar) Option {
	return func(svc *Service) {
		if c != nil {
			svc.cal = c
		}
	}
}

func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(svc *Service) { svc.metrics = m }
}

func WithNotifier(n Notifier) Option {
	return func(svc *Service) { svc.notifier = n }
}

func NewService(store Store, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	svc := &Service{
		store:  store,
		gen:    scheduling.DefaultGenerator(),
		cal:    scheduling.NewCalendar(nil),
		logger: logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Availability returns the day's slots with booked ones marked unavailable.
func (s *Service) Availability(ctx context.Context, date, appointmentType string) (Availability, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.availability", trace.WithAttributes(
		attribute.String("clinic.date", date),
	))
	defer span.End()

	day, err := s.cal.ValidateBookable(date)
	if err != nil {
		s.metrics.ObserveAvailability("invalid")
		return Availability{}, err
	}
	if _, err := scheduling.ParseAppointmentType(appointmentType); err != nil {
		s.metrics.ObserveAvailability("invalid")
		return Availability{}, err
	}

	key := day.Format(scheduling.DateLayout)
	slots, err := s.markedSlots(ctx, day, key)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveAvailability("error")
		return Availability{}, err
	}
	s.metrics.ObserveAvailability("ok")
	return Availability{Date: key, AvailableSlots: slots}, nil
}

// Book validates the request, then records it. The store has the final word on
// conflicts, so two racing requests for one slot yield one ErrSlotConflict.
func (s *Service) Book(ctx context.Context, req BookingRequest) (Confirmation, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.book", trace.WithAttributes(
		attribute.String("clinic.date", req.Date),
		attribute.String("clinic.start_time", req.StartTime),
	))
	defer span.End()

	conf, err := s.book(ctx, req)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveBooking(strings.ToLower(strings.TrimSpace(req.AppointmentType)), outcome(err))
		return Confirmation{}, err
	}
	span.SetAttributes(attribute.String("clinic.booking_id", conf.BookingID))
	s.metrics.ObserveBooking(string(conf.Details.AppointmentType), StatusConfirmed)
	s.notify(ctx, conf.Details)
	return conf, nil
}

func (s *Service) book(ctx context.Context, req BookingRequest) (Confirmation, error) {
	day, err := s.cal.ValidateBookable(req.Date)
	if err != nil {
		return Confirmation{}, err
	}
	// Only availability queries default the type; a booking must name it.
	if strings.TrimSpace(req.AppointmentType) == "" {
		return Confirmation{}, fmt.Errorf("%w: appointment_type is required", ErrInvalidAppointmentType)
	}
	apptType, err := scheduling.ParseAppointmentType(req.AppointmentType)
	if err != nil {
		return Confirmation{}, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return Confirmation{}, fmt.Errorf("%w: reason is required", ErrInvalidBookingRequest)
	}
	patient, err := normalizePatient(req.Patient)
	if err != nil {
		return Confirmation{}, err
	}

	// Stores key bookings by the canonical date and clock strings.
	date := day.Format(scheduling.DateLayout)
	startTime := strings.TrimSpace(req.StartTime)

	slots, _, err := s.baseSlots(ctx, day, date)
	if err != nil {
		return Confirmation{}, err
	}
	if scheduling.FindSlot(slots, startTime) < 0 {
		return Confirmation{}, fmt.Errorf("bookings: %s %s: %w", date, startTime, ErrSlotNotFound)
	}

	booked, err := s.bookedSlots(ctx, date)
	if err != nil {
		return Confirmation{}, err
	}
	if _, taken := booked[startTime]; taken {
		return Confirmation{}, fmt.Errorf("bookings: %s %s: %w", date, startTime, ErrSlotConflict)
	}

	start := time.Now()
	stored, err := s.store.AddBooking(ctx, Booking{
		Date:            date,
		Time:            startTime,
		DurationMinutes: apptType.DurationMinutes(),
		AppointmentType: apptType,
		Patient:         patient,
		Reason:          reason,
	})
	s.metrics.ObserveStoreLatency("add_booking", time.Since(start).Seconds())
	if err != nil {
		return Confirmation{}, err
	}

	s.logger.Info("booking confirmed",
		"booking_id", stored.ID,
		"date", stored.Date,
		"time", stored.Time,
		"appointment_type", stored.AppointmentType,
	)
	return Confirmation{
		BookingID:        stored.ID,
		Status:           StatusConfirmed,
		ConfirmationCode: stored.ConfirmationCode,
		Details:          stored,
	}, nil
}

// GetBooking looks up a stored booking by id.
func (s *Service) GetBooking(ctx context.Context, id string) (Booking, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Booking{}, ErrBookingNotFound
	}
	return s.store.GetBooking(ctx, id)
}

// Schedule returns the base slots for date and whether they come from an override.
func (s *Service) Schedule(ctx context.Context, date string) ([]scheduling.TimeSlot, bool, error) {
	day, err := s.cal.ParseDate(date)
	if err != nil {
		return nil, false, err
	}
	return s.baseSlots(ctx, day, day.Format(scheduling.DateLayout))
}

// SetSchedule stores an override slot list for date.
func (s *Service) SetSchedule(ctx context.Context, date string, slots []scheduling.TimeSlot) error {
	day, err := s.cal.ParseDate(date)
	if err != nil {
		return err
	}
	date = day.Format(scheduling.DateLayout)
	if s.schedule == nil {
		return fmt.Errorf("bookings: schedule overrides: %w", ErrStorageUnavailable)
	}
	if err := scheduling.ValidateSlots(slots); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}
	if err := s.schedule.SetSlots(ctx, date, normalizeOverride(slots)); err != nil {
		return err
	}
	s.logger.Info("schedule override saved", "date", date, "slots", len(slots))
	return nil
}

func (s *Service) markedSlots(ctx context.Context, day time.Time, date string) ([]scheduling.TimeSlot, error) {
	slots, _, err := s.baseSlots(ctx, day, date)
	if err != nil {
		return nil, err
	}
	booked, err := s.bookedSlots(ctx, date)
	if err != nil {
		return nil, err
	}
	for i := range slots {
		if _, taken := booked[slots[i].StartTime]; taken {
			slots[i].Available = false
		}
	}
	return slots, nil
}

func (s *Service) baseSlots(ctx context.Context, day time.Time, date string) ([]scheduling.TimeSlot, bool, error) {
	if s.schedule != nil {
		override, ok, err := s.schedule.Slots(ctx, date)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return normalizeOverride(override), true, nil
		}
	}
	return s.gen.Slots(day), false, nil
}

func (s *Service) bookedSlots(ctx context.Context, date string) (map[string]struct{}, error) {
	start := time.Now()
	booked, err := s.store.BookedSlots(ctx, date)
	s.metrics.ObserveStoreLatency("booked_slots", time.Since(start).Seconds())
	return booked, err
}

func (s *Service) notify(ctx context.Context, b Booking) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.BookingConfirmed(nctx, b); err != nil {
		s.logger.Warn("booking confirmation not sent", "booking_id", b.ID, "error", err)
	}
}

// normalizeOverride copies slots with availability reset; availability is
// derived from bookings only.
func normalizeOverride(slots []scheduling.TimeSlot) []scheduling.TimeSlot {
	out := make([]scheduling.TimeSlot, len(slots))
	for i, slot := range slots {
		slot.Available = true
		out[i] = slot
	}
	return out
}

func normalizePatient(p Patient) (Patient, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	if p.Name == "" {
		return Patient{}, fmt.Errorf("%w: name is required", ErrInvalidPatient)
	}
	if p.Phone == "" {
		return Patient{}, fmt.Errorf("%w: phone is required", ErrInvalidPatient)
	}
	addr, err := mail.ParseAddress(p.Email)
	if err != nil || addr.Address != p.Email {
		return Patient{}, fmt.Errorf("%w: email is not a valid address", ErrInvalidPatient)
	}
	return p, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrSlotConflict):
		return "conflict"
	case errors.Is(err, ErrSlotNotFound):
		return "slot_not_found"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_error"
	default:
		return "invalid"
	}
}
