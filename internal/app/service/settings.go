package service

import (
	"context"
	"fmt"
	"strings"

	"treasury_dashboard/internal/app/query"
	"treasury_dashboard/internal/domain/entity"
	dto "treasury_dashboard/internal/entity"
)

// FundsRaisedInput sets the reported total funds raised. An empty Unit leaves it unchanged.
type FundsRaisedInput struct {
	Amount string
	Unit   entity.FundsUnit
}

// SettingsService updates organization settings shown on the treasury overview.
type SettingsService struct {
	*base

	UpdateName        *query.Mutation[string, struct{}]
	UpdateFundsRaised *query.Mutation[FundsRaisedInput, struct{}]
}

func newSettingsService(b *base) *SettingsService {
	s := &SettingsService{base: b}
	s.UpdateName = query.NewMutation(b.cache, "settings.updateName", s.updateName,
		func(context.Context, string, struct{}) { b.cache.Invalidate(TreasuryKey()) })
	s.UpdateFundsRaised = query.NewMutation(b.cache, "settings.updateFundsRaised", s.updateFundsRaised,
		func(context.Context, FundsRaisedInput, struct{}) { b.cache.Invalidate(TreasuryKey()) })
	return s
}

func (s *SettingsService) updateName(ctx context.Context, name string) (struct{}, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return struct{}{}, fmt.Errorf("organization name is required")
	}
	if _, err := s.send(ctx, "POST", "settings/name", dto.OrganizationNamePayload{Name: name}); err != nil {
		return struct{}{}, fmt.Errorf("update organization name: %w", err)
	}
	return struct{}{}, nil
}

func (s *SettingsService) updateFundsRaised(ctx context.Context, in FundsRaisedInput) (struct{}, error) {
	v, err := amount("totalFundsRaised", in.Amount)
	if err != nil {
		return struct{}{}, err
	}
	switch in.Unit {
	case "", entity.FundsUnitUSD, entity.FundsUnitETH:
	default:
		return struct{}{}, fmt.Errorf("unsupported funds unit %q", in.Unit)
	}
	if _, err := s.send(ctx, "POST", "settings/total-funds-raised", dto.TotalFundsRaisedPayload{TotalFundsRaised: v.String()}); err != nil {
		return struct{}{}, fmt.Errorf("update total funds raised: %w", err)
	}
	if in.Unit != "" {
		if _, err := s.send(ctx, "POST", "settings/total-funds-raised-unit", dto.TotalFundsRaisedUnitPayload{Unit: string(in.Unit)}); err != nil {
			return struct{}{}, fmt.Errorf("update total funds raised unit: %w", err)
		}
	}
	return struct{}{}, nil
}
