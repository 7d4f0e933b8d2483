package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps every booking in one JSON document keyed by booking id.
// All access goes through mu so the read-check-write in AddBooking is atomic
// within the process.
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileStore returns a store backed by path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

func (s *FileStore) ListBookings(ctx context.Context) (map[string]Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) AddBooking(ctx context.Context, booking Booking) (Booking, error) {
	if err := ctx.Err(); err != nil {
		return Booking{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return Booking{}, err
	}
	for _, existing := range all {
		if existing.Date == booking.Date && existing.Time == booking.Time {
			return Booking{}, fmt.Errorf("bookings: %s %s: %w", booking.Date, booking.Time, ErrSlotConflict)
		}
	}
	if booking.ID != "" {
		if _, ok := all[booking.ID]; ok {
			return Booking{}, fmt.Errorf("bookings: %s: %w", booking.ID, ErrDuplicateBookingID)
		}
	}

	seq := int64(len(all) + 1)
	if booking.ID == "" {
		for {
			if _, taken := all[FormatBookingID(booking.Date, seq)]; !taken {
				break
			}
			seq++
		}
	}

	stored := stamp(booking, seq, s.now())
	all[stored.ID] = stored
	if err := writeJSONAtomic(s.path, all); err != nil {
		return Booking{}, storageError("write bookings", err)
	}
	return stored, nil
}

func (s *FileStore) BookedSlots(ctx context.Context, date string) (map[string]struct{}, error) {
	all, err := s.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	booked := make(map[string]struct{})
	for _, b := range all {
		if b.Date == date {
			booked[b.Time] = struct{}{}
		}
	}
	return booked, nil
}

func (s *FileStore) GetBooking(ctx context.Context, id string) (Booking, error) {
	all, err := s.ListBookings(ctx)
	if err != nil {
		return Booking{}, err
	}
	b, ok := all[id]
	if !ok {
		return Booking{}, ErrBookingNotFound
	}
	return b, nil
}

// load must be called with mu held.
func (s *FileStore) load() (map[string]Booking, error) {
	all := make(map[string]Booking)
	if err := readJSON(s.path, &all); err != nil {
		return nil, storageError("read bookings", err)
	}
	if all == nil {
		all = make(map[string]Booking)
	}
	return all, nil
}

// readJSON decodes path into v. A missing or empty file leaves v untouched.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// writeJSONAtomic writes v to a temp file in the same directory and renames it
// over path, so readers never observe a partially written document.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
