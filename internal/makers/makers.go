// Package makers holds the owner types this binary ships with. Each type
// registers a loader with the owner resolver and its handlers with the job
// and task queues.
package makers

import (
	"context"
	"fmt"
	"workq/internal/domain"
	"workq/internal/owners"
	"workq/internal/registry"
	"workq/internal/usecase"

	"github.com/rs/zerolog/log"
)

const (
	AccountType = "account"
	ReportType  = "report"
)

// Account handler ids. Ids are only unique within an owner type.
const (
	AccountSendWelcome = 1
	AccountRecalculate = 2
)

const ReportRender = 1

type Account struct {
	ID int64
}

func (a *Account) OwnerRef() domain.OwnerRef { return domain.OwnerRef{Type: AccountType, ID: a.ID} }

type Report struct {
	ID int64
}

func (r *Report) OwnerRef() domain.OwnerRef { return domain.OwnerRef{Type: ReportType, ID: r.ID} }

func loadAccount(_ context.Context, id int64) (domain.Owner, error) {
	if id <= 0 {
		return nil, fmt.Errorf("account %d: %w", id, owners.ErrOwnerNotFound)
	}
	return &Account{ID: id}, nil
}

func loadReport(_ context.Context, id int64) (domain.Owner, error) {
	if id <= 0 {
		return nil, fmt.Errorf("report %d: %w", id, owners.ErrOwnerNotFound)
	}
	return &Report{ID: id}, nil
}

// Register wires the built-in owner types. Call once at startup, before any
// sweep runs.
func Register(resolver *owners.Resolver, jobs, tasks *usecase.Queue) {
	resolver.Register(AccountType, loadAccount)
	resolver.Register(ReportType, loadReport)

	if jobs != nil {
		jobs.Register(AccountType, AccountSendWelcome, "send welcome email", registry.Typed(sendWelcome))
		jobs.Register(AccountType, AccountRecalculate, "recalculate balance", registry.Typed(recalculate))
		jobs.Register(ReportType, ReportRender, "render report", registry.Typed(render))
	}
	if tasks != nil {
		tasks.Register(AccountType, AccountRecalculate, "recalculate balance", registry.Typed(recalculate))
		tasks.Register(ReportType, ReportRender, "render report", registry.Typed(render))
	}
}

func sendWelcome(ctx context.Context, a *Account) error {
	log.Ctx(ctx).Info().Int64("account_id", a.ID).Msg("sending welcome email")
	return nil
}

func recalculate(ctx context.Context, a *Account) error {
	log.Ctx(ctx).Info().Int64("account_id", a.ID).Msg("recalculating balance")
	return nil
}

func render(ctx context.Context, r *Report) error {
	log.Ctx(ctx).Info().Int64("report_id", r.ID).Msg("rendering report")
	return nil
}
