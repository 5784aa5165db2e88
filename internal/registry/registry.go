package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"workq/internal/domain"
)

var ErrUnknownHandler = errors.New("unknown handler")

// HandlerFunc runs one unit of work for the owner that made it.
type HandlerFunc func(ctx context.Context, owner domain.Owner) error

// Typed adapts a handler written against a concrete owner type. A mismatched
// owner fails the item instead of panicking.
func Typed[T domain.Owner](fn func(ctx context.Context, owner T) error) HandlerFunc {
	return func(ctx context.Context, owner domain.Owner) error {
		o, ok := owner.(T)
		if !ok {
			var zero T
			return fmt.Errorf("handler expects owner %T, got %T", zero, owner)
		}
		return fn(ctx, o)
	}
}

type Entry struct {
	ID      int
	Name    string
	Handler HandlerFunc
}

// Registry maps handler ids to handlers, scoped by owner type. Two owner types
// may reuse the same id for unrelated handlers. Fill it at startup; it is safe
// for concurrent reads afterwards.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]map[int]Entry
}

func New() *Registry {
	return &Registry{handlers: make(map[string]map[int]Entry)}
}

// Register associates id with fn for ownerType. Re-registering an id replaces
// the previous entry. fn is returned unchanged.
func (r *Registry) Register(ownerType string, id int, name string, fn HandlerFunc) HandlerFunc {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID, ok := r.handlers[ownerType]
	if !ok {
		byID = make(map[int]Entry)
		r.handlers[ownerType] = byID
	}
	byID[id] = Entry{ID: id, Name: name, Handler: fn}
	return fn
}

func (r *Registry) lookup(ownerType string, id *int) (Entry, bool) {
	if id == nil {
		return Entry{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.handlers[ownerType][*id]
	return e, ok
}

// ResolveName returns the upper-cased display name, or the raw id when the
// handler is unknown or has an empty name.
func (r *Registry) ResolveName(ownerType string, id *int) string {
	e, ok := r.lookup(ownerType, id)
	if !ok || e.Name == "" {
		return domain.HandlerLabel(id)
	}
	return strings.ToUpper(e.Name)
}

// Invoke runs the handler registered for the owner's type.
func (r *Registry) Invoke(ctx context.Context, owner domain.Owner, id *int) error {
	ref := owner.OwnerRef()
	e, ok := r.lookup(ref.Type, id)
	if !ok {
		return fmt.Errorf("%w %s for owner type %q", ErrUnknownHandler, domain.HandlerLabel(id), ref.Type)
	}
	return e.Handler(ctx, owner)
}

// Handlers lists the registrations for ownerType ordered by id.
func (r *Registry) Handlers(ownerType string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.handlers[ownerType]))
	for _, e := range r.handlers[ownerType] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OwnerTypes lists every owner type with at least one handler.
func (r *Registry) OwnerTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
