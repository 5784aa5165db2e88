package memory

import (
	"context"
	"testing"
	"workq/internal/domain"
	"workq/internal/ports"
	"workq/internal/ports/storetest"

	"github.com/stretchr/testify/assert"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(*testing.T) ports.Store { return New() })
}

func TestStore_FindManyReturnsCopies(t *testing.T) {
	s := New()
	seeded := s.Put(domain.NewWorkItem(domain.KindJob, domain.OwnerRef{Type: "a", ID: 1}, domain.HandlerIDOf(1), domain.StatusScheduled))

	got, err := s.FindMany(context.Background(), domain.Filter{})
	assert.NoError(t, err)
	*got[0].HandlerID = 99
	got[0].Status = domain.StatusDone

	again, err := s.FindOne(context.Background(), domain.Filter{ID: seeded.ID})
	assert.NoError(t, err)
	assert.Equal(t, 1, *again.HandlerID)
	assert.Equal(t, domain.StatusScheduled, again.Status)
}
