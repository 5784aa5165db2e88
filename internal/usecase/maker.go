package usecase

import (
	"context"
	"fmt"
	"workq/internal/domain"
	"workq/internal/ports"
	"workq/internal/registry"
)

// Queue is one kind of work item (job or task) over a shared store. The job
// and task queues differ only in Kind and in their handler registries.
type Queue struct {
	Kind     domain.Kind
	Store    ports.Store
	Handlers *registry.Registry
}

func NewQueue(kind domain.Kind, store ports.Store) *Queue {
	return &Queue{Kind: kind, Store: store, Handlers: registry.New()}
}

// Maker is what an owning entity can do with its work items.
type Maker interface {
	// RegisterHandler registers fn for every owner of this owner's type.
	RegisterHandler(handlerID int, name string, fn registry.HandlerFunc) registry.HandlerFunc
	// Create returns the owner's CREATED item for handlerID, inserting one
	// if there is none.
	Create(ctx context.Context, handlerID int) (*domain.WorkItem, bool, error)
	// Schedule returns any existing item for handlerID that is not CANCELED
	// or ERROR, untouched, or inserts a new SCHEDULED one.
	Schedule(ctx context.Context, handlerID int) (*domain.WorkItem, bool, error)
	HandlerName(handlerID int) string
	Execute(ctx context.Context, handlerID int) error
}

// Maker binds the queue to one owner.
func (q *Queue) Maker(owner domain.Owner) Maker {
	return &maker{q: q, owner: owner}
}

// Register adds a handler for ownerType without needing an owner instance,
// which is how handlers are wired at startup.
func (q *Queue) Register(ownerType string, handlerID int, name string, fn registry.HandlerFunc) registry.HandlerFunc {
	return q.Handlers.Register(ownerType, handlerID, name, fn)
}

// Create and Schedule key on owner and handlerID; a nil handlerID matches only
// items without a handler.
func (q *Queue) Create(ctx context.Context, owner domain.OwnerRef, handlerID *int) (*domain.WorkItem, bool, error) {
	f := domain.Filter{
		Kind:     q.Kind,
		Owner:    &owner,
		Statuses: []domain.Status{domain.StatusCreated},
	}.ForHandler(handlerID)
	w, created, err := q.Store.InsertIfAbsent(ctx, f, domain.NewWorkItem(q.Kind, owner, handlerID, domain.StatusCreated))
	if err != nil {
		return nil, false, fmt.Errorf("create %s for %s: %w", q.Kind, owner, err)
	}
	return w, created, nil
}

func (q *Queue) Schedule(ctx context.Context, owner domain.OwnerRef, handlerID *int) (*domain.WorkItem, bool, error) {
	f := domain.Filter{
		Kind:     q.Kind,
		Owner:    &owner,
		Statuses: domain.SchedulableStatuses,
	}.ForHandler(handlerID)
	w, created, err := q.Store.InsertIfAbsent(ctx, f, domain.NewWorkItem(q.Kind, owner, handlerID, domain.StatusScheduled))
	if err != nil {
		return nil, false, fmt.Errorf("schedule %s for %s: %w", q.Kind, owner, err)
	}
	return w, created, nil
}

func (q *Queue) HandlerName(ownerType string, handlerID *int) string {
	return q.Handlers.ResolveName(ownerType, handlerID)
}

func (q *Queue) Execute(ctx context.Context, owner domain.Owner, handlerID *int) error {
	return q.Handlers.Invoke(ctx, owner, handlerID)
}

type maker struct {
	q     *Queue
	owner domain.Owner
}

func (m *maker) RegisterHandler(handlerID int, name string, fn registry.HandlerFunc) registry.HandlerFunc {
	return m.q.Register(m.owner.OwnerRef().Type, handlerID, name, fn)
}

func (m *maker) Create(ctx context.Context, handlerID int) (*domain.WorkItem, bool, error) {
	return m.q.Create(ctx, m.owner.OwnerRef(), &handlerID)
}

func (m *maker) Schedule(ctx context.Context, handlerID int) (*domain.WorkItem, bool, error) {
	return m.q.Schedule(ctx, m.owner.OwnerRef(), &handlerID)
}

func (m *maker) HandlerName(handlerID int) string {
	return m.q.HandlerName(m.owner.OwnerRef().Type, &handlerID)
}

func (m *maker) Execute(ctx context.Context, handlerID int) error {
	return m.q.Execute(ctx, m.owner, &handlerID)
}
