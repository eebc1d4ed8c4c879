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

// UpdatePartyInput renames the party behind Address.
type UpdatePartyInput struct {
	Address string
	Name    string
}

// TransferService reads transfers and manages named transfer parties.
type TransferService struct {
	*base

	CreateParty *query.Mutation[dto.TransferPartyPayload, entity.TransferParty]
	UpdateParty *query.Mutation[UpdatePartyInput, entity.TransferParty]
}

func newTransferService(b *base) *TransferService {
	s := &TransferService{base: b}
	// Party names show up on transfer rows too.
	invalidate := func() {
		b.cache.Invalidate(allTransferParties, allTransfers, query.Key{"transfer"})
	}
	s.CreateParty = query.NewMutation(b.cache, "transfers.createParty", s.createParty,
		func(context.Context, dto.TransferPartyPayload, entity.TransferParty) { invalidate() })
	s.UpdateParty = query.NewMutation(b.cache, "transfers.updateParty", s.updateParty,
		func(context.Context, UpdatePartyInput, entity.TransferParty) { invalidate() })
	return s
}

// List returns one page of transfers.
func (s *TransferService) List(ctx context.Context, page Page) query.State[[]entity.TransferRecord] {
	return query.Fetch(ctx, s.cache, TransfersKey(page), func(ctx context.Context) ([]entity.TransferRecord, error) {
		body, err := s.get(ctx, "transfers", page.query())
		if err != nil {
			return nil, fmt.Errorf("fetch transfers: %w", err)
		}
		return s.mapper.Transfers(body), nil
	})
}

// Get returns one transfer by id (its tx hash).
func (s *TransferService) Get(ctx context.Context, id string) query.State[entity.TransferRecord] {
	seg, err := segment(id)
	if err != nil {
		return query.State[entity.TransferRecord]{Status: query.StatusError, Err: err}
	}
	return query.Fetch(ctx, s.cache, TransferKey(id), func(ctx context.Context) (entity.TransferRecord, error) {
		body, err := s.get(ctx, "transfers/"+seg, nil)
		if err != nil {
			return entity.TransferRecord{}, fmt.Errorf("fetch transfer %s: %w", id, err)
		}
		d := mapper.DecodeObject[dto.TransferDTO](body)
		return s.mapper.Transfer(&d), nil
	})
}

// Parties returns one page of named transfer parties.
func (s *TransferService) Parties(ctx context.Context, page Page) query.State[[]entity.TransferParty] {
	return query.Fetch(ctx, s.cache, TransferPartiesKey(page), func(ctx context.Context) ([]entity.TransferParty, error) {
		body, err := s.get(ctx, "transfer-parties", page.query())
		if err != nil {
			return nil, fmt.Errorf("fetch transfer parties: %w", err)
		}
		return s.mapper.TransferParties(body), nil
	})
}

func (s *TransferService) createParty(ctx context.Context, payload dto.TransferPartyPayload) (entity.TransferParty, error) {
	addr, err := ValidateAddress(payload.Address)
	if err != nil {
		return entity.TransferParty{}, err
	}
	payload.Address = addr
	payload.Name = strings.TrimSpace(payload.Name)
	resp, err := s.send(ctx, "POST", "transfer-parties", payload)
	if err != nil {
		return entity.TransferParty{}, fmt.Errorf("create transfer party: %w", err)
	}
	return s.partyFrom(resp.Body, addr, payload.Name), nil
}

func (s *TransferService) updateParty(ctx context.Context, in UpdatePartyInput) (entity.TransferParty, error) {
	addr, err := ValidateAddress(in.Address)
	if err != nil {
		return entity.TransferParty{}, err
	}
	name := strings.TrimSpace(in.Name)
	resp, err := s.send(ctx, "PUT", "transfer-parties/"+addr, dto.TransferPartyUpdatePayload{Name: name})
	if err != nil {
		return entity.TransferParty{}, fmt.Errorf("update transfer party: %w", err)
	}
	return s.partyFrom(resp.Body, addr, name), nil
}

// partyFrom maps the echoed party, or the request values when the body is empty.
func (s *TransferService) partyFrom(body []byte, address, name string) entity.TransferParty {
	d := mapper.DecodeObject[dto.TransferPartyDTO](body)
	if d.Address == "" {
		d.Address = address
	}
	if d.Name == "" {
		d.Name = name
	}
	return s.mapper.TransferParty(&d)
}
