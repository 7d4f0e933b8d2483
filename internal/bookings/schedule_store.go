package bookings

import (
	"context"
	"sync"

	"github.com/wolfman30/clinic-scheduler/internal/scheduling"
)

// FileScheduleStore reads per-date slot overrides from a JSON document shaped
// {"YYYY-MM-DD": [{"start_time": "...", "end_time": "...", "available": true}]}.
type FileScheduleStore struct {
	path string
	mu   sync.Mutex
}

func NewFileScheduleStore(path string) *FileScheduleStore {
	return &FileScheduleStore{path: path}
}

func (s *FileScheduleStore) Slots(ctx context.Context, date string) ([]scheduling.TimeSlot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, false, err
	}
	slots, ok := all[date]
	return slots, ok, nil
}

func (s *FileScheduleStore) SetSlots(ctx context.Context, date string, slots []scheduling.TimeSlot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	all[date] = slots
	if err := writeJSONAtomic(s.path, all); err != nil {
		return storageError("write schedule", err)
	}
	return nil
}

func (s *FileScheduleStore) load() (map[string][]scheduling.TimeSlot, error) {
	all := make(map[string][]scheduling.TimeSlot)
	if err := readJSON(s.path, &all); err != nil {
		return nil, storageError("read schedule", err)
	}
	if all == nil {
		all = make(map[string][]scheduling.TimeSlot)
	}
	return all, nil
}
