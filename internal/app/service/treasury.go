package service

import (
	"context"
	"fmt"
	"time"

	"treasury_dashboard/internal/app/mapper"
	"treasury_dashboard/internal/app/query"
	"treasury_dashboard/internal/domain/entity"
	dto "treasury_dashboard/internal/entity"
)

// TreasuryService reads the treasury overview and manages wallets and tracked assets.
type TreasuryService struct {
	*base
	staleTime time.Duration

	AddWallet    *query.Mutation[string, entity.TreasuryWallet]
	DeleteWallet *query.Mutation[string, struct{}]
	AddAsset     *query.Mutation[dto.TreasuryAssetPayload, struct{}]
}

func newTreasuryService(b *base, staleTime time.Duration) *TreasuryService {
	if staleTime <= 0 {
		staleTime = time.Minute
	}
	s := &TreasuryService{base: b, staleTime: staleTime}

	// The treasury key prefixes the wallets key.
	invalidate := func() { b.cache.Invalidate(TreasuryKey()) }
	s.AddWallet = query.NewMutation(b.cache, "treasury.addWallet", s.addWallet,
		func(context.Context, string, entity.TreasuryWallet) { invalidate() })
	s.DeleteWallet = query.NewMutation(b.cache, "treasury.deleteWallet", s.deleteWallet,
		func(context.Context, string, struct{}) { invalidate() })
	s.AddAsset = query.NewMutation(b.cache, "treasury.addAsset", s.addAsset,
		func(context.Context, dto.TreasuryAssetPayload, struct{}) { b.cache.Invalidate(TreasuryKey()) })
	return s
}

// Overview returns the treasury overview, cached for the treasury stale time.
func (s *TreasuryService) Overview(ctx context.Context) query.State[entity.TreasuryOverview] {
	return query.Fetch(ctx, s.cache, TreasuryKey(), func(ctx context.Context) (entity.TreasuryOverview, error) {
		body, err := s.get(ctx, "treasury", nil)
		if err != nil {
			return entity.TreasuryOverview{}, fmt.Errorf("fetch treasury: %w", err)
		}
		d := mapper.DecodeObject[dto.TreasuryResponseDTO](body)
		return s.mapper.Treasury(&d), nil
	}, query.WithStaleTime(s.staleTime))
}

// Wallets returns the registered treasury wallets.
func (s *TreasuryService) Wallets(ctx context.Context) query.State[[]entity.TreasuryWallet] {
	return query.Fetch(ctx, s.cache, TreasuryWalletsKey(), func(ctx context.Context) ([]entity.TreasuryWallet, error) {
		body, err := s.get(ctx, "treasury/wallets", nil)
		if err != nil {
			return nil, fmt.Errorf("fetch treasury wallets: %w", err)
		}
		return s.mapper.TreasuryWalletsBody(body), nil
	})
}

func (s *TreasuryService) addWallet(ctx context.Context, address string) (entity.TreasuryWallet, error) {
	addr, err := ValidateAddress(address)
	if err != nil {
		return entity.TreasuryWallet{}, err
	}
	resp, err := s.send(ctx, "POST", "treasury/wallets", dto.TreasuryWalletPayload{Address: addr})
	if err != nil {
		return entity.TreasuryWallet{}, fmt.Errorf("add treasury wallet: %w", err)
	}
	if resp.NoContent() {
		return s.mapper.TreasuryWallet(&dto.TreasuryWalletDTO{Address: addr}), nil
	}
	w := mapper.DecodeObject[dto.TreasuryWalletDTO](resp.Body)
	if w.Address == "" {
		w.Address = addr
	}
	return s.mapper.TreasuryWallet(&w), nil
}

func (s *TreasuryService) deleteWallet(ctx context.Context, address string) (struct{}, error) {
	addr, err := ValidateAddress(address)
	if err != nil {
		return struct{}{}, err
	}
	if _, err := s.send(ctx, "DELETE", "treasury/wallets/"+addr, nil); err != nil {
		return struct{}{}, fmt.Errorf("delete treasury wallet: %w", err)
	}
	return struct{}{}, nil
}

func (s *TreasuryService) addAsset(ctx context.Context, payload dto.TreasuryAssetPayload) (struct{}, error) {
	addr, err := ValidateAddress(payload.Address)
	if err != nil {
		return struct{}{}, err
	}
	payload.Address = addr
	if _, err := s.send(ctx, "POST", "treasury/assets", payload); err != nil {
		return struct{}{}, fmt.Errorf("add treasury asset: %w", err)
	}
	return struct{}{}, nil
}
