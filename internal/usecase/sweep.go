package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"
	"workq/internal/domain"
	"workq/internal/metrics"
	"workq/internal/ports"

	"github.com/rs/zerolog/log"
)

var ErrHandlerPanic = errors.New("handler panicked")

// OwnerResolver loads the entity an item points at.
type OwnerResolver interface {
	Resolve(ctx context.Context, ref domain.OwnerRef) (domain.Owner, error)
}

var _ ports.Sweeper = (*Sweeper)(nil)

// Sweeper runs one queue's due items. Passes on one Sweeper never overlap,
// but nothing stops two processes from sweeping the same store at once; run
// a single sweeper per store.
type Sweeper struct {
	Q      *Queue
	Owners OwnerResolver

	mu sync.Mutex
}

func NewSweeper(q *Queue, owners OwnerResolver) *Sweeper {
	return &Sweeper{Q: q, Owners: owners}
}

// Run executes every enabled SCHEDULED item once. Handler failures are
// recorded on the item and never fail the pass. Only a store failure or a
// canceled ctx ends it early, and both are returned.
func (s *Sweeper) Run(ctx context.Context) (res domain.SweepResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	res.Kind = s.Q.Kind
	defer func() { metrics.ObservePass(s.Q.Kind, res, time.Since(start), err) }()

	items, err := s.Q.Store.FindMany(ctx, domain.DueFilter(s.Q.Kind))
	if err != nil {
		return res, fmt.Errorf("find due %s items: %w", s.Q.Kind, err)
	}
	res.Selected = len(items)

	for i := range items {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		w := &items[i]

		stack, execErr := s.execute(ctx, w)
		if execErr != nil {
			ev := log.Ctx(ctx).Error().
				Err(execErr).
				Str("kind", string(w.Kind)).
				Str("item_id", w.ID).
				Str("owner", w.Owner.String()).
				Str("handler_id", domain.HandlerLabel(w.HandlerID)).
				Str("handler", s.Q.HandlerName(w.Owner.Type, w.HandlerID))
			if stack != nil {
				ev = ev.Bytes("stack", stack)
			}
			ev.Msgf("%s HANDLING ERROR", w.Kind.Label())

			w.Status = domain.StatusError
			w.ErrorMessage = execErr.Error()
			if err := s.Q.Store.Save(ctx, w, domain.FieldStatus, domain.FieldErrorMessage); err != nil {
				return res, fmt.Errorf("record failure of %s: %w", w.ID, err)
			}
			res.Failed++
			metrics.ObserveItem(w.Kind, metrics.OutcomeError)
			continue
		}

		// error_message is left alone; a stale one from an earlier failure stays.
		w.Status = domain.StatusDone
		if err := s.Q.Store.Save(ctx, w, domain.FieldStatus); err != nil {
			return res, fmt.Errorf("record success of %s: %w", w.ID, err)
		}
		res.Done++
		metrics.ObserveItem(w.Kind, metrics.OutcomeDone)
	}

	log.Ctx(ctx).Info().
		Str("kind", string(res.Kind)).
		Int("selected", res.Selected).
		Int("done", res.Done).
		Int("failed", res.Failed).
		Dur("took", time.Since(start)).
		Msg("sweep pass complete")
	return res, nil
}

// execute resolves the owner and runs the handler, turning a panic into an
// error plus the goroutine stack.
func (s *Sweeper) execute(ctx context.Context, w *domain.WorkItem) (stack []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
			stack = debug.Stack()
		}
	}()

	owner, err := s.Owners.Resolve(ctx, w.Owner)
	if err != nil {
		return nil, err
	}
	return nil, s.Q.Execute(ctx, owner, w.HandlerID)
}
