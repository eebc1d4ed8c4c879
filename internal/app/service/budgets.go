package service

import (
	"context"
	"fmt"
	"strings"

	"treasury_dashboard/internal/app/mapper"
	"treasury_dashboard/internal/app/query"
	"treasury_dashboard/internal/domain/entity"
	dto "treasury_dashboard/internal/entity"
)

// UpdateAllocationInput replaces the allocation with ID.
type UpdateAllocationInput struct {
	ID      string
	Payload dto.MonthlyBudgetAllocationPayload
}

// BudgetService manages monthly budget allocations.
type BudgetService struct {
	*base

	Create *query.Mutation[dto.MonthlyBudgetAllocationPayload, string]
	Update *query.Mutation[UpdateAllocationInput, entity.MonthlyBudgetAllocation]
	Delete *query.Mutation[string, struct{}]
}

func newBudgetService(b *base) *BudgetService {
	s := &BudgetService{base: b}
	s.Create = query.NewMutation(b.cache, "budgets.create", s.create,
		func(context.Context, dto.MonthlyBudgetAllocationPayload, string) {
			b.cache.Invalidate(BudgetAllocationsKey())
		})
	s.Update = query.NewMutation(b.cache, "budgets.update", s.update,
		func(context.Context, UpdateAllocationInput, entity.MonthlyBudgetAllocation) {
			b.cache.Invalidate(BudgetAllocationsKey())
		})
	s.Delete = query.NewMutation(b.cache, "budgets.delete", s.delete,
		func(context.Context, string, struct{}) { b.cache.Invalidate(BudgetAllocationsKey()) })
	return s
}

// Allocations returns every monthly budget allocation.
func (s *BudgetService) Allocations(ctx context.Context) query.State[[]entity.MonthlyBudgetAllocation] {
	return query.Fetch(ctx, s.cache, BudgetAllocationsKey(), func(ctx context.Context) ([]entity.MonthlyBudgetAllocation, error) {
		body, err := s.get(ctx, "budgets/allocations", nil)
		if err != nil {
			return nil, fmt.Errorf("fetch budget allocations: %w", err)
		}
		return s.mapper.BudgetAllocations(body), nil
	})
}

func checkAllocation(p *dto.MonthlyBudgetAllocationPayload) error {
	p.Category = strings.TrimSpace(p.Category)
	if p.Category == "" {
		return fmt.Errorf("budget allocation category is required")
	}
	v, err := amount("amount", p.Amount)
	if err != nil {
		return err
	}
	if v.IsNegative() {
		return fmt.Errorf("budget allocation amount %s is negative", v)
	}
	return nil
}

func (s *BudgetService) create(ctx context.Context, payload dto.MonthlyBudgetAllocationPayload) (string, error) {
	if err := checkAllocation(&payload); err != nil {
		return "", err
	}
	resp, err := s.send(ctx, "POST", "budgets/allocations", payload)
	if err != nil {
		return "", fmt.Errorf("create budget allocation: %w", err)
	}
	return mapper.DecodeObject[dto.CreatedIDResponse](resp.Body).ID, nil
}

func (s *BudgetService) update(ctx context.Context, in UpdateAllocationInput) (entity.MonthlyBudgetAllocation, error) {
	seg, err := segment(in.ID)
	if err != nil {
		return entity.MonthlyBudgetAllocation{}, err
	}
	if err := checkAllocation(&in.Payload); err != nil {
		return entity.MonthlyBudgetAllocation{}, err
	}
	resp, err := s.send(ctx, "PUT", "budgets/allocations/"+seg, in.Payload)
	if err != nil {
		return entity.MonthlyBudgetAllocation{}, fmt.Errorf("update budget allocation %s: %w", in.ID, err)
	}
	d := mapper.DecodeObject[dto.MonthlyBudgetAllocationDTO](resp.Body)
	return s.mapper.BudgetAllocation(&d), nil
}

func (s *BudgetService) delete(ctx context.Context, id string) (struct{}, error) {
	seg, err := segment(id)
	if err != nil {
		return struct{}{}, err
	}
	if _, err := s.send(ctx, "DELETE", "budgets/allocations/"+seg, nil); err != nil {
		return struct{}{}, fmt.Errorf("delete budget allocation %s: %w", id, err)
	}
	return struct{}{}, nil
}
