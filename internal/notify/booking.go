package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/clinic-scheduler/internal/bookings"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// BookingNotifier emails patients a confirmation after a booking is stored.
type BookingNotifier struct {
	email      EmailSender
	clinicName string
	logger     *logging.Logger
}

func NewBookingNotifier(email EmailSender, clinicName string, logger *logging.Logger) *BookingNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	if email == nil {
		email = NewStubEmailSender(logger)
	}
	if strings.TrimSpace(clinicName) == "" {
		clinicName = "the clinic"
	}
	return &BookingNotifier{email: email, clinicName: clinicName, logger: logger}
}

// BookingConfirmed sends the confirmation email. Bookings without a patient
// email are skipped.
func (n *BookingNotifier) BookingConfirmed(ctx context.Context, b bookings.Booking) error {
	if n == nil {
		return nil
	}
	if strings.TrimSpace(b.Patient.Email) == "" {
		n.logger.Debug("notify: booking has no patient email, skipping", "booking_id", b.ID)
		return nil
	}

	msg := EmailMessage{
		To:      b.Patient.Email,
		ToName:  b.Patient.Name,
		Subject: fmt.Sprintf("Appointment confirmed: %s at %s", formatDate(b.Date), b.Time),
		Body:    confirmationBody(b, n.clinicName),
	}
	if err := n.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: booking confirmation %s: %w", b.ID, err)
	}
	return nil
}

func confirmationBody(b bookings.Booking, clinicName string) string {
	var sb strings.Builder
	name := b.Patient.Name
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&sb, "Hi %s,\n\n", name)
	fmt.Fprintf(&sb, "Your %s appointment with %s is confirmed.\n\n", b.AppointmentType, clinicName)
	fmt.Fprintf(&sb, "Date: %s\n", formatDate(b.Date))
	fmt.Fprintf(&sb, "Time: %s (%d minutes)\n", b.Time, b.DurationMinutes)
	fmt.Fprintf(&sb, "Booking ID: %s\n", b.ID)
	fmt.Fprintf(&sb, "Confirmation code: %s\n", b.ConfirmationCode)
	if reason := strings.TrimSpace(b.Reason); reason != "" {
		fmt.Fprintf(&sb, "Reason for visit: %s\n", reason)
	}
	sb.WriteString("\nPlease keep this code handy when you arrive.\n")
	return sb.String()
}

func formatDate(date string) string {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return d.Format("Monday, January 2, 2006")
}
