package bookings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/clinic-scheduler/internal/scheduling"
)

func newTestBooking(date, start string) Booking {
	return Booking{
		Date:            date,
		Time:            start,
		DurationMinutes: 30,
		AppointmentType: scheduling.Consultation,
		Patient:         Patient{Name: "Ada", Email: "ada@example.com", Phone: "555-0100"},
		Reason:          "checkup",
	}
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "bookings.json"))

	all, err := store.ListBookings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	booked, err := store.BookedSlots(context.Background(), "2030-06-15")
	require.NoError(t, err)
	assert.Empty(t, booked)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	store := NewFileStore(path)

	_, err := store.ListBookings(context.Background())
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = store.AddBooking(context.Background(), newTestBooking("2030-06-15", "09:00"))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestFileStoreAddAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "bookings.json")
	store := NewFileStore(path)
	ctx := context.Background()

	first, err := store.AddBooking(ctx, newTestBooking("2030-06-15", "09:00"))
	require.NoError(t, err)
	assert.Equal(t, "APPT-2030-06-15-001", first.ID)
	assert.Equal(t, "CNF00001", first.ConfirmationCode)
	assert.Equal(t, time.UTC, first.CreatedAt.Location())

	second, err := store.AddBooking(ctx, newTestBooking("2030-06-16", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, "APPT-2030-06-16-002", second.ID)

	reopened := NewFileStore(path)
	all, err := reopened.ListBookings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first, all[first.ID])

	got, err := reopened.GetBooking(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	_, err = reopened.GetBooking(ctx, "APPT-nope")
	assert.ErrorIs(t, err, ErrBookingNotFound)

	booked, err := reopened.BookedSlots(ctx, "2030-06-15")
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"09:00": {}}, booked)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStoreRejectsSameSlot(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "bookings.json"))
	ctx := context.Background()

	_, err := store.AddBooking(ctx, newTestBooking("2030-06-15", "09:00"))
	require.NoError(t, err)

	_, err = store.AddBooking(ctx, newTestBooking("2030-06-15", "09:00"))
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestFileStoreRejectsDuplicateID(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "bookings.json"))
	ctx := context.Background()

	b := newTestBooking("2030-06-15", "09:00")
	b.ID = "custom-1"
	_, err := store.AddBooking(ctx, b)
	require.NoError(t, err)

	b.Time = "09:30"
	_, err = store.AddBooking(ctx, b)
	assert.ErrorIs(t, err, ErrDuplicateBookingID)
}

func TestFileStoreSkipsTakenSequenceIDs(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "bookings.json"))
	ctx := context.Background()

	// A caller-supplied id that collides with the next sequence value.
	b := newTestBooking("2030-06-15", "09:00")
	b.ID = "APPT-2030-06-15-002"
	_, err := store.AddBooking(ctx, b)
	require.NoError(t, err)

	next, err := store.AddBooking(ctx, newTestBooking("2030-06-15", "09:30"))
	require.NoError(t, err)
	assert.Equal(t, "APPT-2030-06-15-003", next.ID)
}

func TestFileStoreConcurrentSameSlot(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "bookings.json"))
	ctx := context.Background()

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.AddBooking(ctx, newTestBooking("2030-06-15", "11:00"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrSlotConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
}

func TestFileStoreConcurrentDistinctSlotsGetUniqueIDs(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "bookings.json"))
	ctx := context.Background()
	slots := scheduling.DefaultGenerator().Slots(time.Now())

	var wg sync.WaitGroup
	ids := make([]string, len(slots))
	for i, slot := range slots {
		wg.Add(1)
		go func(i int, start string) {
			defer wg.Done()
			b, err := store.AddBooking(ctx, newTestBooking("2030-06-15", start))
			if err != nil {
				t.Errorf("book %s: %v", start, err)
				return
			}
			ids[i] = b.ID
		}(i, slot.StartTime)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	all, err := store.ListBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(slots))
	for i := 1; i <= len(slots); i++ {
		assert.Contains(t, all, fmt.Sprintf("APPT-2030-06-15-%03d", i))
	}
}

func TestFileScheduleStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doctor_schedule.json")
	store := NewFileScheduleStore(path)
	ctx := context.Background()

	_, ok, err := store.Slots(ctx, "2030-06-15")
	require.NoError(t, err)
	assert.False(t, ok)

	slots := []scheduling.TimeSlot{{StartTime: "10:00", EndTime: "11:00", Available: true}}
	require.NoError(t, store.SetSlots(ctx, "2030-06-15", slots))

	got, ok, err := NewFileScheduleStore(path).Slots(ctx, "2030-06-15")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, slots, got)

	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))
	_, _, err = store.Slots(ctx, "2030-06-15")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}
