// Package app assembles the store, owner resolver, queues and sweepers from
// configuration. Commands build one App and share it.
package app

import (
	"context"
	"fmt"
	"workq/internal/config"
	"workq/internal/domain"
	"workq/internal/infra/memory"
	"workq/internal/infra/postgres"
	"workq/internal/infra/redisq"
	"workq/internal/makers"
	"workq/internal/owners"
	"workq/internal/ports"
	"workq/internal/usecase"
)

type App struct {
	Cfg      *config.Config
	Store    ports.Store
	Owners   *owners.Resolver
	Queues   map[domain.Kind]*usecase.Queue
	Sweepers map[domain.Kind]*usecase.Sweeper
}

// New opens the configured store and registers the built-in makers.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return NewWithStore(cfg, store), nil
}

// NewWithStore builds the job and task queues over store.
func NewWithStore(cfg *config.Config, store ports.Store) *App {
	a := &App{
		Cfg:      cfg,
		Store:    store,
		Owners:   owners.NewResolver(),
		Queues:   make(map[domain.Kind]*usecase.Queue),
		Sweepers: make(map[domain.Kind]*usecase.Sweeper),
	}
	for _, k := range []domain.Kind{domain.KindJob, domain.KindTask} {
		q := usecase.NewQueue(k, store)
		a.Queues[k] = q
		a.Sweepers[k] = usecase.NewSweeper(q, a.Owners)
	}
	makers.Register(a.Owners, a.Queues[domain.KindJob], a.Queues[domain.KindTask])
	return a
}

func OpenStore(ctx context.Context, cfg *config.Config) (ports.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendRedis:
		return redisq.New(cfg.Redis), nil
	case config.BackendPostgres:
		return postgres.Connect(ctx, cfg.Postgres)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

func (a *App) Queue(kind domain.Kind) (*usecase.Queue, error) {
	q, ok := a.Queues[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	return q, nil
}

// SweepersFor returns the sweepers for kinds, or all of them when kinds is
// empty, in job-then-task order.
func (a *App) SweepersFor(kinds []domain.Kind) ([]ports.Sweeper, error) {
	if len(kinds) == 0 {
		kinds = []domain.Kind{domain.KindJob, domain.KindTask}
	}
	out := make([]ports.Sweeper, 0, len(kinds))
	for _, k := range kinds {
		s, ok := a.Sweepers[k]
		if !ok {
			return nil, fmt.Errorf("unknown kind %q", k)
		}
		out = append(out, s)
	}
	return out, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}
