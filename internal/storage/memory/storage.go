package memorystorage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Josue049/CronoSpark/internal/storage"
)

type Storage struct {
	mu    sync.RWMutex
	data  map[int64]storage.Event
	idSeq int64
}

func New() *Storage {
	return &Storage{data: make(map[int64]storage.Event)}
}

func (s *Storage) Connect(_ context.Context) error {
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) Ping(_ context.Context) error {
	return nil
}

func (s *Storage) AddEvent(_ context.Context, e *storage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[e.ID]; ok {
		return fmt.Errorf("duplicate ID %d: %w", e.ID, storage.ErrDuplicateEventID)
	}
	if e.ID == 0 {
		e.ID = s.nextID()
	} else if e.ID > s.idSeq {
		s.idSeq = e.ID
	}
	e.CreatedAt = time.Now().UTC()
	s.data[e.ID] = *e
	return nil
}

func (s *Storage) GetEvent(_ context.Context, id int64) (storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[id]
	if !ok {
		return storage.Event{}, fmt.Errorf("failed to get event with id %d: %w", id, storage.ErrNotFoundEvent)
	}
	return e, nil
}

func (s *Storage) UpdateEvent(_ context.Context, id int64, e storage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.data[id]
	if !ok {
		return fmt.Errorf("failed to update event with id %d: %w", id, storage.ErrNotFoundEvent)
	}
	e.ID = id
	e.CreatedAt = old.CreatedAt
	s.data[id] = e
	return nil
}

func (s *Storage) RemoveEvent(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return fmt.Errorf("failed to remove event with id %d: %w", id, storage.ErrNotFoundEvent)
	}
	delete(s.data, id)
	return nil
}

func (s *Storage) ListEvents(_ context.Context) ([]storage.Event, error) {
	events := s.selectBy(func(storage.Event) bool { return true })
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return events, nil
}

func (s *Storage) ListUrgentEvents(_ context.Context, limit int) ([]storage.Event, error) {
	events := s.selectBy(func(e storage.Event) bool { return e.Urgent })
	sortByDate(events)
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (s *Storage) GetUrgentEventsBetween(_ context.Context, fromDate, toDate string) ([]storage.Event, error) {
	events := s.selectBy(func(e storage.Event) bool {
		return e.Urgent && e.Date != "" && e.Date >= fromDate && e.Date <= toDate
	})
	sortByDate(events)
	return events, nil
}

func (s *Storage) RemoveBefore(_ context.Context, date string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, e := range s.data {
		if e.Date != "" && e.Date < date {
			delete(s.data, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Storage) selectBy(match func(storage.Event) bool) []storage.Event {
	events := make([]storage.Event, 0)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, event := range s.data {
		if match(event) {
			events = append(events, event)
		}
	}
	return events
}

// Empty date sorts first, same as NULLS FIRST.
func sortByDate(events []storage.Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].ID < events[j].ID
	})
}

func (s *Storage) nextID() int64 {
	s.idSeq++
	return s.idSeq
}
