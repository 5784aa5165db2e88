package makers

import (
	"context"
	"testing"
	"workq/internal/domain"
	"workq/internal/infra/memory"
	"workq/internal/owners"
	"workq/internal/registry"
	"workq/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	store := memory.New()
	resolver := owners.NewResolver()
	jobs := usecase.NewQueue(domain.KindJob, store)
	tasks := usecase.NewQueue(domain.KindTask, store)
	Register(resolver, jobs, tasks)

	assert.Equal(t, []string{AccountType, ReportType}, resolver.Types())
	assert.Equal(t, []string{AccountType, ReportType}, jobs.Handlers.OwnerTypes())

	owner, err := resolver.Resolve(context.Background(), domain.OwnerRef{Type: AccountType, ID: 4})
	require.NoError(t, err)
	assert.Equal(t, &Account{ID: 4}, owner)

	_, err = resolver.Resolve(context.Background(), domain.OwnerRef{Type: ReportType, ID: 0})
	assert.ErrorIs(t, err, owners.ErrOwnerNotFound)

	m := jobs.Maker(owner)
	assert.Equal(t, "SEND WELCOME EMAIL", m.HandlerName(AccountSendWelcome))
	assert.NoError(t, m.Execute(context.Background(), AccountSendWelcome))
	assert.ErrorContains(t, tasks.Maker(owner).Execute(context.Background(), AccountSendWelcome), "unknown handler")
}

func TestHandlersScopedByOwnerType(t *testing.T) {
	jobs := usecase.NewQueue(domain.KindJob, memory.New())
	Register(owners.NewResolver(), jobs, nil)
	report := &Report{ID: 1}

	// Id 1 is render for reports, the same id as the account welcome handler.
	assert.NoError(t, jobs.Execute(context.Background(), report, domain.HandlerIDOf(ReportRender)))

	err := jobs.Execute(context.Background(), report, domain.HandlerIDOf(AccountRecalculate))
	assert.ErrorIs(t, err, registry.ErrUnknownHandler)
}

func TestTypedHandlerRejectsForeignOwner(t *testing.T) {
	jobs := usecase.NewQueue(domain.KindJob, memory.New())
	jobs.Register(ReportType, 9, "misfiled", registry.Typed(sendWelcome))

	err := jobs.Execute(context.Background(), &Report{ID: 1}, domain.HandlerIDOf(9))
	assert.EqualError(t, err, "handler expects owner *makers.Account, got *makers.Report")
}
