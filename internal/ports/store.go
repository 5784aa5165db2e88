package ports

import (
	"context"
	"errors"
	"workq/internal/domain"
)

var ErrNotFound = errors.New("work item not found")

// Store is the record store behind every queue. Implementations decide how
// InsertIfAbsent stays atomic; the filter semantics are domain.Filter.Match.
type Store interface {
	// FindOne returns ErrNotFound when nothing matches.
	FindOne(ctx context.Context, f domain.Filter) (*domain.WorkItem, error)
	FindMany(ctx context.Context, f domain.Filter) ([]domain.WorkItem, error)
	// InsertIfAbsent returns the first item matching f, or inserts defaults
	// and reports created=true.
	InsertIfAbsent(ctx context.Context, f domain.Filter, defaults domain.WorkItem) (item *domain.WorkItem, created bool, err error)
	// Save writes only the listed fields plus modified.
	Save(ctx context.Context, w *domain.WorkItem, fields ...domain.Field) error
	Ping(ctx context.Context) error
	Close() error
}

type Sweeper interface {
	// Run executes one pass over the due items.
	Run(ctx context.Context) (domain.SweepResult, error)
}
