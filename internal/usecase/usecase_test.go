package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"workq/internal/domain"
	"workq/internal/infra/memory"
	"workq/internal/owners"
	"workq/internal/ports"
	"workq/internal/registry"
	"workq/internal/usecase"

	"github.com/stretchr/testify/require"
)

type account struct {
	id int64

	mu    sync.Mutex
	calls []int
}

func (a *account) OwnerRef() domain.OwnerRef { return domain.OwnerRef{Type: "account", ID: a.id} }

func (a *account) record(h int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, h)
}

func (a *account) Calls() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]int(nil), a.calls...)
}

const (
	handlerWelcome = 1
	handlerFail    = 2
	handlerPanic   = 3
)

// fixture wires a job queue over a memory store with one owner type whose
// handlers record calls on the owner itself.
type fixture struct {
	store    *memory.Store
	queue    *usecase.Queue
	resolver *owners.Resolver
	sweeper  *usecase.Sweeper
	accounts map[int64]*account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.New(),
		resolver: owners.NewResolver(),
		accounts: make(map[int64]*account),
	}
	f.queue = usecase.NewQueue(domain.KindJob, f.store)
	f.resolver.Register("account", func(_ context.Context, id int64) (domain.Owner, error) {
		a, ok := f.accounts[id]
		if !ok {
			return nil, owners.ErrOwnerNotFound
		}
		return a, nil
	})
	f.queue.Register("account", handlerWelcome, "send welcome", registry.Typed(func(_ context.Context, a *account) error {
		a.record(handlerWelcome)
		return nil
	}))
	f.queue.Register("account", handlerFail, "always fail", registry.Typed(func(_ context.Context, a *account) error {
		a.record(handlerFail)
		return errors.New("smtp unreachable")
	}))
	f.queue.Register("account", handlerPanic, "panics", func(context.Context, domain.Owner) error {
		panic("nil map write")
	})
	f.sweeper = usecase.NewSweeper(f.queue, f.resolver)
	return f
}

func (f *fixture) account(id int64) *account {
	a := &account{id: id}
	f.accounts[id] = a
	return a
}

func (f *fixture) get(t *testing.T, id string) *domain.WorkItem {
	t.Helper()
	w, err := f.store.FindOne(context.Background(), domain.Filter{ID: id})
	require.NoError(t, err)
	return w
}

// failingStore fails Save after the first n successful calls.
type failingStore struct {
	ports.Store
	okSaves int
	saves   int
}

func (s *failingStore) Save(ctx context.Context, w *domain.WorkItem, fields ...domain.Field) error {
	s.saves++
	if s.saves > s.okSaves {
		return errors.New("connection reset")
	}
	return s.Store.Save(ctx, w, fields...)
}
