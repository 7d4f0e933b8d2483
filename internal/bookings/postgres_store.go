package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/clinic-scheduler/internal/scheduling"
)

const (
	pgUniqueViolation = "23505"

	constraintBookingSlot = "bookings_date_start_time_key"
	constraintBookingID   = "bookings_booking_id_key"
)

// PgxPool is the subset of *pgxpool.Pool the stores use, so tests can swap in pgxmock.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists bookings in the bookings table. The UNIQUE (date, start_time)
// constraint is what makes concurrent AddBooking calls safe across processes.
type PostgresStore struct {
	pool PgxPool
	now  func() time.Time
}

func NewPostgresStore(pool PgxPool) *PostgresStore {
	if pool == nil {
		return nil
	}
	return &PostgresStore{pool: pool, now: time.Now}
}

const bookingColumns = `booking_id, date, start_time, duration_minutes, appointment_type, ` +
	`patient_name, patient_email, patient_phone, reason, confirmation_code, created_at`

func (s *PostgresStore) ListBookings(ctx context.Context) (map[string]Booking, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY seq`)
	if err != nil {
		return nil, storageError("list bookings", err)
	}
	defer rows.Close()

	all := make(map[string]Booking)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, storageError("scan booking", err)
		}
		all[b.ID] = b
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list bookings", err)
	}
	return all, nil
}

func (s *PostgresStore) AddBooking(ctx context.Context, booking Booking) (Booking, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Booking{}, storageError("begin tx", err)
	}

	var seq int64
	if err := tx.QueryRow(ctx, `SELECT nextval(pg_get_serial_sequence('bookings', 'seq'))`).Scan(&seq); err != nil {
		_ = tx.Rollback(ctx)
		return Booking{}, storageError("next booking seq", err)
	}

	stored := stamp(booking, seq, s.now())
	query := `
		INSERT INTO bookings (
			seq, booking_id, date, start_time, duration_minutes, appointment_type,
			patient_name, patient_email, patient_phone, reason, confirmation_code, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`
	_, err = tx.Exec(ctx, query,
		seq, stored.ID, stored.Date, stored.Time, stored.DurationMinutes, string(stored.AppointmentType),
		stored.Patient.Name, stored.Patient.Email, stored.Patient.Phone, stored.Reason,
		stored.ConfirmationCode, stored.CreatedAt,
	)
	if err != nil {
		_ = tx.Rollback(ctx)
		return Booking{}, classifyInsertError(stored, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Booking{}, classifyInsertError(stored, err)
	}
	return stored, nil
}

func classifyInsertError(b Booking, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if pgErr.ConstraintName == constraintBookingID {
			return fmt.Errorf("bookings: %s: %w", b.ID, ErrDuplicateBookingID)
		}
		return fmt.Errorf("bookings: %s %s: %w", b.Date, b.Time, ErrSlotConflict)
	}
	return storageError("insert booking", err)
}

func (s *PostgresStore) BookedSlots(ctx context.Context, date string) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT start_time FROM bookings WHERE date = $1`, date)
	if err != nil {
		return nil, storageError("booked slots", err)
	}
	defer rows.Close()

	booked := make(map[string]struct{})
	for rows.Next() {
		var start string
		if err := rows.Scan(&start); err != nil {
			return nil, storageError("scan booked slot", err)
		}
		booked[start] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("booked slots", err)
	}
	return booked, nil
}

func (s *PostgresStore) GetBooking(ctx context.Context, id string) (Booking, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_id = $1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, ErrBookingNotFound
	}
	if err != nil {
		return Booking{}, storageError("get booking", err)
	}
	return b, nil
}

func scanBooking(row pgx.Row) (Booking, error) {
	var (
		b       Booking
		apptTyp string
	)
	err := row.Scan(
		&b.ID, &b.Date, &b.Time, &b.DurationMinutes, &apptTyp,
		&b.Patient.Name, &b.Patient.Email, &b.Patient.Phone, &b.Reason,
		&b.ConfirmationCode, &b.CreatedAt,
	)
	if err != nil {
		return Booking{}, err
	}
	b.AppointmentType = scheduling.AppointmentType(apptTyp)
	b.CreatedAt = b.CreatedAt.UTC()
	return b, nil
}

// PostgresScheduleStore keeps slot overrides in schedule_overrides as JSONB.
type PostgresScheduleStore struct {
	pool PgxPool
}

func NewPostgresScheduleStore(pool PgxPool) *PostgresScheduleStore {
	if pool == nil {
		return nil
	}
	return &PostgresScheduleStore{pool: pool}
}

func (s *PostgresScheduleStore) Slots(ctx context.Context, date string) ([]scheduling.TimeSlot, bool, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT slots FROM schedule_overrides WHERE date = $1`, date).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageError("get schedule", err)
	}
	var slots []scheduling.TimeSlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, false, storageError("decode schedule", err)
	}
	return slots, true, nil
}

func (s *PostgresScheduleStore) SetSlots(ctx context.Context, date string, slots []scheduling.TimeSlot) error {
	if slots == nil {
		slots = []scheduling.TimeSlot{}
	}
	raw, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("bookings: encode schedule: %w", err)
	}
	query := `
		INSERT INTO schedule_overrides (date, slots, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (date) DO UPDATE
		SET slots = EXCLUDED.slots,
			updated_at = now()
	`
	if _, err := s.pool.Exec(ctx, query, date, raw); err != nil {
		return storageError("set schedule", err)
	}
	return nil
}
