package aggregate

import (
	"context"

	"treasury_dashboard/internal/app/query"
	"treasury_dashboard/internal/app/service"
	"treasury_dashboard/internal/domain/entity"
)

// Source is the set of cached reads the views are built from.
type Source interface {
	Treasury(ctx context.Context) query.State[entity.TreasuryOverview]
	Transfers(ctx context.Context, page service.Page) query.State[[]entity.TransferRecord]
	Expenses(ctx context.Context, q service.ExpenseQuery) query.State[[]entity.Expense]
	Grants(ctx context.Context, q service.GrantQuery) query.State[[]entity.Grant]
	Grant(ctx context.Context, id string) query.State[entity.Grant]
	Milestones(ctx context.Context, id string) query.State[[]entity.GrantMilestone]
	Allocations(ctx context.Context) query.State[[]entity.MonthlyBudgetAllocation]
	AuditLog(ctx context.Context, q service.AuditLogQuery) query.State[[]entity.AuditLogEntry]
}

type servicesSource struct {
	s *service.Services
}

// FromServices exposes the resource services as a Source.
func FromServices(s *service.Services) Source {
	return servicesSource{s: s}
}

func (src servicesSource) Treasury(ctx context.Context) query.State[entity.TreasuryOverview] {
	return src.s.Treasury.Overview(ctx)
}

func (src servicesSource) Transfers(ctx context.Context, page service.Page) query.State[[]entity.TransferRecord] {
	return src.s.Transfers.List(ctx, page)
}

func (src servicesSource) Expenses(ctx context.Context, q service.ExpenseQuery) query.State[[]entity.Expense] {
	return src.s.Expenses.List(ctx, q)
}

func (src servicesSource) Grants(ctx context.Context, q service.GrantQuery) query.State[[]entity.Grant] {
	return src.s.Grants.List(ctx, q)
}

func (src servicesSource) Grant(ctx context.Context, id string) query.State[entity.Grant] {
	return src.s.Grants.Get(ctx, id)
}

func (src servicesSource) Milestones(ctx context.Context, id string) query.State[[]entity.GrantMilestone] {
	return src.s.Grants.Milestones(ctx, id)
}

func (src servicesSource) Allocations(ctx context.Context) query.State[[]entity.MonthlyBudgetAllocation] {
	return src.s.Budgets.Allocations(ctx)
}

func (src servicesSource) AuditLog(ctx context.Context, q service.AuditLogQuery) query.State[[]entity.AuditLogEntry] {
	return src.s.AuditLog.List(ctx, q)
}
