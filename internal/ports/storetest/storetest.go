// Package storetest holds the behaviour every ports.Store must share.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"
	"workq/internal/domain"
	"workq/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises s against the filter, upsert and partial-save contract. s
// must start empty.
func Run(t *testing.T, newStore func(t *testing.T) ports.Store) {
	t.Run("InsertIfAbsent", func(t *testing.T) { testInsertIfAbsent(t, newStore(t)) })
	t.Run("InsertIfAbsentStatusSet", func(t *testing.T) { testInsertIfAbsentStatusSet(t, newStore(t)) })
	t.Run("InsertIfAbsentNullHandler", func(t *testing.T) { testInsertIfAbsentNullHandler(t, newStore(t)) })
	t.Run("FindMany", func(t *testing.T) { testFindMany(t, newStore(t)) })
	t.Run("FindOneNotFound", func(t *testing.T) { testFindOneNotFound(t, newStore(t)) })
	t.Run("SavePartial", func(t *testing.T) { testSavePartial(t, newStore(t)) })
	t.Run("SaveUnknown", func(t *testing.T) { testSaveUnknown(t, newStore(t)) })
	t.Run("ConcurrentInsertIfAbsent", func(t *testing.T) { testConcurrentInsert(t, newStore(t)) })
}

var owner = domain.OwnerRef{Type: "account", ID: 7}

func createdFilter(h int) domain.Filter {
	o := owner
	return domain.Filter{
		Kind:      domain.KindJob,
		Owner:     &o,
		HandlerID: domain.HandlerIDOf(h),
		Statuses:  []domain.Status{domain.StatusCreated},
	}
}

func testInsertIfAbsent(t *testing.T, s ports.Store) {
	ctx := context.Background()
	defaults := domain.NewWorkItem(domain.KindJob, owner, domain.HandlerIDOf(1), domain.StatusCreated)

	first, created, err := s.InsertIfAbsent(ctx, createdFilter(1), defaults)
	require.NoError(t, err)
	require.True(t, created)
	require.NotEmpty(t, first.ID)
	assert.False(t, first.Created.IsZero())
	assert.Equal(t, first.Created, first.Modified)
	assert.True(t, first.IsEnabled)
	assert.Equal(t, domain.StatusCreated, first.Status)
	assert.Equal(t, owner, first.Owner)
	require.NotNil(t, first.HandlerID)
	assert.Equal(t, 1, *first.HandlerID)

	second, created, err := s.InsertIfAbsent(ctx, createdFilter(1), defaults)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	other, created, err := s.InsertIfAbsent(ctx, createdFilter(2),
		domain.NewWorkItem(domain.KindJob, owner, domain.HandlerIDOf(2), domain.StatusCreated))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, other.ID)
}

func testInsertIfAbsentStatusSet(t *testing.T, s ports.Store) {
	ctx := context.Background()
	o := owner
	f := domain.Filter{
		Kind:      domain.KindTask,
		Owner:     &o,
		HandlerID: domain.HandlerIDOf(3),
		Statuses:  domain.SchedulableStatuses,
	}
	defaults := domain.NewWorkItem(domain.KindTask, owner, domain.HandlerIDOf(3), domain.StatusScheduled)

	w, created, err := s.InsertIfAbsent(ctx, f, defaults)
	require.NoError(t, err)
	require.True(t, created)

	w.Status = domain.StatusError
	w.ErrorMessage = "boom"
	require.NoError(t, s.Save(ctx, w, domain.FieldStatus, domain.FieldErrorMessage))

	fresh, created, err := s.InsertIfAbsent(ctx, f, defaults)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, w.ID, fresh.ID)
	assert.Equal(t, domain.StatusScheduled, fresh.Status)

	fresh.Status = domain.StatusDone
	require.NoError(t, s.Save(ctx, fresh, domain.FieldStatus))

	reused, created, err := s.InsertIfAbsent(ctx, f, defaults)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, fresh.ID, reused.ID)
	assert.Equal(t, domain.StatusDone, reused.Status)

	// A job with the same owner and handler is not visible to the task filter.
	jobs, err := s.FindMany(ctx, domain.Filter{Kind: domain.KindJob})
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func testInsertIfAbsentNullHandler(t *testing.T, s ports.Store) {
	ctx := context.Background()
	o := owner
	filter := func(h *int) domain.Filter {
		return domain.Filter{
			Kind:     domain.KindJob,
			Owner:    &o,
			Statuses: []domain.Status{domain.StatusCreated},
		}.ForHandler(h)
	}

	withHandler, created, err := s.InsertIfAbsent(ctx, filter(domain.HandlerIDOf(5)),
		domain.NewWorkItem(domain.KindJob, owner, domain.HandlerIDOf(5), domain.StatusCreated))
	require.NoError(t, err)
	require.True(t, created)

	bare, created, err := s.InsertIfAbsent(ctx, filter(nil),
		domain.NewWorkItem(domain.KindJob, owner, nil, domain.StatusCreated))
	require.NoError(t, err)
	require.True(t, created)
	assert.NotEqual(t, withHandler.ID, bare.ID)
	assert.Nil(t, bare.HandlerID)

	again, created, err := s.InsertIfAbsent(ctx, filter(nil),
		domain.NewWorkItem(domain.KindJob, owner, nil, domain.StatusCreated))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, bare.ID, again.ID)
	assert.Nil(t, again.HandlerID)

	found, err := s.FindMany(ctx, filter(nil))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, bare.ID, found[0].ID)
}

func testFindMany(t *testing.T, s ports.Store) {
	ctx := context.Background()
	seed := func(kind domain.Kind, h int, status domain.Status, enabled bool) *domain.WorkItem {
		o := owner
		d := domain.NewWorkItem(kind, owner, domain.HandlerIDOf(h), status)
		w, created, err := s.InsertIfAbsent(ctx, domain.Filter{
			Kind: kind, Owner: &o, HandlerID: domain.HandlerIDOf(h), Statuses: []domain.Status{status},
		}, d)
		require.NoError(t, err)
		require.True(t, created)
		if !enabled {
			w.IsEnabled = false
			require.NoError(t, s.Save(ctx, w, domain.FieldIsEnabled))
		}
		return w
	}

	due := seed(domain.KindJob, 1, domain.StatusScheduled, true)
	seed(domain.KindJob, 2, domain.StatusScheduled, false)
	seed(domain.KindJob, 3, domain.StatusCreated, true)
	seed(domain.KindTask, 4, domain.StatusScheduled, true)

	got, err := s.FindMany(ctx, domain.DueFilter(domain.KindJob))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, due.ID, got[0].ID)

	all, err := s.FindMany(ctx, domain.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	one, err := s.FindOne(ctx, domain.Filter{ID: due.ID})
	require.NoError(t, err)
	assert.Equal(t, due.ID, one.ID)

	cancel := domain.ExtraStatusToCancel
	one.ExtraStatus = &cancel
	require.NoError(t, s.Save(ctx, one, domain.FieldExtraStatus))
	flagged, err := s.FindMany(ctx, domain.Filter{ExtraStatus: &cancel})
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, due.ID, flagged[0].ID)
}

func testFindOneNotFound(t *testing.T, s ports.Store) {
	_, err := s.FindOne(context.Background(), domain.Filter{Kind: domain.KindJob})
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func testSavePartial(t *testing.T, s ports.Store) {
	ctx := context.Background()
	w, _, err := s.InsertIfAbsent(ctx, createdFilter(1),
		domain.NewWorkItem(domain.KindJob, owner, domain.HandlerIDOf(1), domain.StatusCreated))
	require.NoError(t, err)
	created := w.Created

	time.Sleep(5 * time.Millisecond)

	// Only status is listed, so the error message change is dropped.
	w.Status = domain.StatusDone
	w.ErrorMessage = "not persisted"
	require.NoError(t, s.Save(ctx, w, domain.FieldStatus))

	got, err := s.FindOne(ctx, domain.Filter{ID: w.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, got.Status)
	assert.Empty(t, got.ErrorMessage)
	assert.True(t, got.Created.Equal(created), "created must not change")
	assert.True(t, got.Modified.After(created), "modified must advance")
}

func testSaveUnknown(t *testing.T, s ports.Store) {
	w := domain.NewWorkItem(domain.KindJob, owner, nil, domain.StatusDone)
	w.ID = "00000000-0000-0000-0000-000000000000"
	err := s.Save(context.Background(), &w, domain.FieldStatus)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func testConcurrentInsert(t *testing.T, s ports.Store) {
	ctx := context.Background()
	defaults := domain.NewWorkItem(domain.KindJob, owner, domain.HandlerIDOf(5), domain.StatusCreated)

	const n = 8
	var wg sync.WaitGroup
	ids := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, _, err := s.InsertIfAbsent(ctx, createdFilter(5), defaults)
			errs[i] = err
			if err == nil {
				ids[i] = w.ID
			}
		}()
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	all, err := s.FindMany(ctx, createdFilter(5))
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
