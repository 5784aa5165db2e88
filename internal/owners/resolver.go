package owners

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"workq/internal/domain"
)

var (
	ErrUnknownOwnerType = errors.New("unknown owner type")
	ErrOwnerNotFound    = errors.New("owner not found")
)

// LoadFunc fetches the owner with the given id. Return ErrOwnerNotFound
// (optionally wrapped) when it does not exist.
type LoadFunc func(ctx context.Context, id int64) (domain.Owner, error)

// Resolver turns an OwnerRef back into the entity it points at.
type Resolver struct {
	mu      sync.RWMutex
	loaders map[string]LoadFunc
}

func NewResolver() *Resolver {
	return &Resolver{loaders: make(map[string]LoadFunc)}
}

func (r *Resolver) Register(ownerType string, load LoadFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[ownerType] = load
}

func (r *Resolver) Resolve(ctx context.Context, ref domain.OwnerRef) (domain.Owner, error) {
	r.mu.RLock()
	load, ok := r.loaders[ref.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownOwnerType, ref.Type)
	}
	owner, err := load(ctx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve owner %s: %w", ref, err)
	}
	if owner == nil {
		return nil, fmt.Errorf("resolve owner %s: %w", ref, ErrOwnerNotFound)
	}
	return owner, nil
}

func (r *Resolver) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.loaders))
	for t := range r.loaders {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
