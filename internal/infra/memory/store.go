// Package memory is an in-process Store for tests and single-binary demos.
// Items are kept in insertion order, which is the order FindMany returns.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"
	"workq/internal/domain"
	"workq/internal/ports"

	"github.com/google/uuid"
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	order []string
	items map[string]domain.WorkItem
	now   func() time.Time
}

func New() *Store {
	return &Store{
		items: make(map[string]domain.WorkItem),
		now:   time.Now,
	}
}

// WithClock replaces the time source used for created/modified.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func clone(w domain.WorkItem) domain.WorkItem {
	w.HandlerID = domain.CopyHandlerID(w.HandlerID)
	if w.ExtraStatus != nil {
		e := *w.ExtraStatus
		w.ExtraStatus = &e
	}
	return w
}

func (s *Store) FindOne(ctx context.Context, f domain.Filter) (*domain.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.first(f)
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &w, nil
}

func (s *Store) first(f domain.Filter) (domain.WorkItem, bool) {
	for _, id := range s.order {
		if w := s.items[id]; f.Match(w) {
			return clone(w), true
		}
	}
	return domain.WorkItem{}, false
}

func (s *Store) FindMany(ctx context.Context, f domain.Filter) ([]domain.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.WorkItem
	for _, id := range s.order {
		if w := s.items[id]; f.Match(w) {
			out = append(out, clone(w))
		}
	}
	return out, nil
}

func (s *Store) InsertIfAbsent(ctx context.Context, f domain.Filter, defaults domain.WorkItem) (*domain.WorkItem, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.first(f); ok {
		return &w, false, nil
	}

	w := clone(defaults)
	w.ID = uuid.NewString()
	now := s.now().UTC()
	w.Created = now
	w.Modified = now
	s.items[w.ID] = w
	s.order = append(s.order, w.ID)

	out := clone(w)
	return &out, true, nil
}

func (s *Store) Save(ctx context.Context, w *domain.WorkItem, fields ...domain.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[w.ID]
	if !ok {
		return fmt.Errorf("save %s: %w", w.ID, ports.ErrNotFound)
	}
	for _, f := range fields {
		switch f {
		case domain.FieldStatus:
			cur.Status = w.Status
		case domain.FieldErrorMessage:
			cur.ErrorMessage = w.ErrorMessage
		case domain.FieldIsEnabled:
			cur.IsEnabled = w.IsEnabled
		case domain.FieldExtraStatus:
			cur.ExtraStatus = w.ExtraStatus
		case domain.FieldHandlerID:
			cur.HandlerID = w.HandlerID
		default:
			return fmt.Errorf("save %s: unknown field %q", w.ID, f)
		}
	}
	cur.Modified = s.now().UTC()
	s.items[w.ID] = clone(cur)
	w.Modified = cur.Modified
	return nil
}

// Put stores w as-is, keeping its timestamps. Tests use it to seed state an
// ordinary Create/Schedule call cannot produce.
func (s *Store) Put(w domain.WorkItem) domain.WorkItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Created.IsZero() {
		w.Created = s.now().UTC()
	}
	if w.Modified.IsZero() {
		w.Modified = w.Created
	}
	if _, ok := s.items[w.ID]; !ok {
		s.order = append(s.order, w.ID)
	}
	s.items[w.ID] = clone(w)
	return clone(w)
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }
