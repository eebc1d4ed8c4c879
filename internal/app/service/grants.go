package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"treasury_dashboard/internal/app/mapper"
	"treasury_dashboard/internal/app/query"
	"treasury_dashboard/internal/domain/entity"
	dto "treasury_dashboard/internal/entity"

	"github.com/shopspring/decimal"
)

// UpdateGrantInput replaces the grant with ID.
type UpdateGrantInput struct {
	ID      string
	Payload dto.GrantPayload
}

// UpdateMilestonesInput replaces the milestones of a grant.
type UpdateMilestonesInput struct {
	GrantID string
	Payload dto.GrantMilestoneUpdatePayload
}

// DisbursementInput creates a disbursement, or updates DisbursementID when set.
type DisbursementInput struct {
	GrantID        string
	DisbursementID string
	Payload        dto.GrantDisbursementPayload
}

// FundsUsageInput creates a funds usage entry, or updates UsageID when set.
type FundsUsageInput struct {
	GrantID string
	UsageID string
	Payload dto.ExpensePayload
}

// GrantService reads and writes grants with their milestones, disbursements and funds usage.
type GrantService struct {
	*base
	rejectOverDisbursement bool

	Create             *query.Mutation[dto.GrantPayload, entity.Grant]
	Update             *query.Mutation[UpdateGrantInput, entity.Grant]
	UpdateMilestones   *query.Mutation[UpdateMilestonesInput, entity.Grant]
	CreateDisbursement *query.Mutation[DisbursementInput, struct{}]
	UpdateDisbursement *query.Mutation[DisbursementInput, struct{}]
	CreateFundsUsage   *query.Mutation[FundsUsageInput, struct{}]
	UpdateFundsUsage   *query.Mutation[FundsUsageInput, struct{}]
}

func newGrantService(b *base, rejectOverDisbursement bool) *GrantService {
	s := &GrantService{base: b, rejectOverDisbursement: rejectOverDisbursement}

	seed := func(g entity.Grant) {
		if g.ID != "" {
			query.SetData(b.cache, GrantKey(g.ID), g)
		}
	}
	s.Create = query.NewMutation(b.cache, "grants.create", s.create,
		func(_ context.Context, _ dto.GrantPayload, g entity.Grant) {
			b.cache.Invalidate(allGrants)
			seed(g)
		})
	s.Update = query.NewMutation(b.cache, "grants.update", s.update,
		func(_ context.Context, in UpdateGrantInput, g entity.Grant) {
			b.cache.Invalidate(GrantKey(in.ID), allGrants)
			seed(g)
		})
	s.UpdateMilestones = query.NewMutation(b.cache, "grants.updateMilestones", s.updateMilestones,
		func(_ context.Context, in UpdateMilestonesInput, g entity.Grant) {
			b.cache.Invalidate(GrantKey(in.GrantID), GrantMilestonesKey(in.GrantID))
			seed(g)
		})
	disbursed := func(_ context.Context, in DisbursementInput, _ struct{}) {
		b.cache.Invalidate(GrantKey(in.GrantID), GrantDisbursementsKey(in.GrantID))
	}
	s.CreateDisbursement = query.NewMutation(b.cache, "grants.createDisbursement", s.createDisbursement, disbursed)
	s.UpdateDisbursement = query.NewMutation(b.cache, "grants.updateDisbursement", s.updateDisbursement, disbursed)
	used := func(_ context.Context, in FundsUsageInput, _ struct{}) {
		b.cache.Invalidate(GrantKey(in.GrantID), GrantFundsUsageKey(in.GrantID))
	}
	s.CreateFundsUsage = query.NewMutation(b.cache, "grants.createFundsUsage", s.createFundsUsage, used)
	s.UpdateFundsUsage = query.NewMutation(b.cache, "grants.updateFundsUsage", s.updateFundsUsage, used)
	return s
}

// List returns grants matching q.
func (s *GrantService) List(ctx context.Context, q GrantQuery) query.State[[]entity.Grant] {
	return query.Fetch(ctx, s.cache, GrantsKey(q), func(ctx context.Context) ([]entity.Grant, error) {
		body, err := s.get(ctx, "grants", q.query())
		if err != nil {
			return nil, fmt.Errorf("fetch grants: %w", err)
		}
		return s.mapper.Grants(body), nil
	})
}

// Get returns one grant with its nested records.
func (s *GrantService) Get(ctx context.Context, id string) query.State[entity.Grant] {
	seg, err := segment(id)
	if err != nil {
		return query.State[entity.Grant]{Status: query.StatusError, Err: err}
	}
	return query.Fetch(ctx, s.cache, GrantKey(id), func(ctx context.Context) (entity.Grant, error) {
		body, err := s.get(ctx, "grants/"+seg, nil)
		if err != nil {
			return entity.Grant{}, fmt.Errorf("fetch grant %s: %w", id, err)
		}
		return s.decodeGrant(body), nil
	})
}

// Milestones returns the milestones of a grant.
func (s *GrantService) Milestones(ctx context.Context, id string) query.State[[]entity.GrantMilestone] {
	return fetchSub(ctx, s, id, GrantMilestonesKey(id), "milestones", s.mapper.GrantMilestones)
}

// Disbursements returns the disbursements of a grant.
func (s *GrantService) Disbursements(ctx context.Context, id string) query.State[[]entity.GrantDisbursement] {
	return fetchSub(ctx, s, id, GrantDisbursementsKey(id), "disbursements", s.mapper.GrantDisbursements)
}

// FundsUsage returns the expenses paid from a grant.
func (s *GrantService) FundsUsage(ctx context.Context, id string) query.State[[]entity.Expense] {
	return fetchSub(ctx, s, id, GrantFundsUsageKey(id), "funds-usage", s.mapper.GrantFundsUsage)
}

func fetchSub[T any](ctx context.Context, s *GrantService, id string, key query.Key, sub string, mapBody func([]byte) T) query.State[T] {
	seg, err := segment(id)
	if err != nil {
		return query.State[T]{Status: query.StatusError, Err: err}
	}
	return query.Fetch(ctx, s.cache, key, func(ctx context.Context) (T, error) {
		body, err := s.get(ctx, "grants/"+seg+"/"+sub, nil)
		if err != nil {
			var zero T
			return zero, fmt.Errorf("fetch grant %s %s: %w", id, sub, err)
		}
		return mapBody(body), nil
	})
}

func (s *GrantService) decodeGrant(body []byte) entity.Grant {
	d := mapper.DecodeObject[dto.GrantDTO](body)
	return s.mapper.Grant(&d)
}

// amount parses a payload amount; blank is zero.
func amount(field, v string) (decimal.Decimal, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, v, err)
	}
	return d, nil
}

// checkGrantPayload validates the recipient and, under the rejection policy, that the
// initial amount does not exceed the total.
func (s *GrantService) checkGrantPayload(p *dto.GrantPayload) error {
	if strings.TrimSpace(p.RecipientAddress) != "" {
		addr, err := ValidateAddress(p.RecipientAddress)
		if err != nil {
			return err
		}
		p.RecipientAddress = addr
	}
	total, err := amount("totalGrantAmount", p.TotalGrantAmount)
	if err != nil {
		return err
	}
	initial, err := amount("initialGrantAmount", p.InitialGrantAmount)
	if err != nil {
		return err
	}
	if s.rejectOverDisbursement && initial.GreaterThan(total) {
		return fmt.Errorf("%w: initial %s > total %s", ErrOverDisbursement, initial, total)
	}
	return nil
}

func (s *GrantService) create(ctx context.Context, payload dto.GrantPayload) (entity.Grant, error) {
	if err := s.checkGrantPayload(&payload); err != nil {
		return entity.Grant{}, err
	}
	resp, err := s.send(ctx, "POST", "grants", payload)
	if err != nil {
		return entity.Grant{}, fmt.Errorf("create grant: %w", err)
	}
	return s.decodeGrant(resp.Body), nil
}

func (s *GrantService) update(ctx context.Context, in UpdateGrantInput) (entity.Grant, error) {
	seg, err := segment(in.ID)
	if err != nil {
		return entity.Grant{}, err
	}
	if err := s.checkGrantPayload(&in.Payload); err != nil {
		return entity.Grant{}, err
	}
	resp, err := s.send(ctx, "PUT", "grants/"+seg, in.Payload)
	if err != nil {
		return entity.Grant{}, fmt.Errorf("update grant %s: %w", in.ID, err)
	}
	return s.decodeGrant(resp.Body), nil
}

func (s *GrantService) updateMilestones(ctx context.Context, in UpdateMilestonesInput) (entity.Grant, error) {
	seg, err := segment(in.GrantID)
	if err != nil {
		return entity.Grant{}, err
	}
	resp, err := s.send(ctx, "PUT", "grants/"+seg+"/milestones", in.Payload)
	if err != nil {
		return entity.Grant{}, fmt.Errorf("update milestones of grant %s: %w", in.GrantID, err)
	}
	return s.decodeGrant(resp.Body), nil
}

// checkDisbursement compares a new disbursement with the grant, loading it through the
// cache when needed. A grant that cannot be loaded rejects the write.
func (s *GrantService) checkDisbursement(ctx context.Context, in DisbursementInput) error {
	if !s.rejectOverDisbursement {
		return nil
	}
	add, err := amount("amount", in.Payload.Amount)
	if err != nil {
		return err
	}
	g, err := s.Get(ctx, in.GrantID).Result()
	if g.ID == "" {
		if err == nil {
			err = errors.New("grant not found")
		}
		return fmt.Errorf("check disbursement against grant %s: %w", in.GrantID, err)
	}
	given := decimal.NewFromFloat(g.AmountGivenSoFar)
	if in.DisbursementID != "" {
		for _, d := range g.Disbursements {
			if d.ID == in.DisbursementID {
				given = given.Sub(decimal.NewFromFloat(d.Amount))
			}
		}
	}
	total := decimal.NewFromFloat(g.TotalGrantAmount)
	if next := given.Add(add); next.GreaterThan(total) {
		return fmt.Errorf("%w: %s of %s", ErrOverDisbursement, next, total)
	}
	return nil
}

func (s *GrantService) createDisbursement(ctx context.Context, in DisbursementInput) (struct{}, error) {
	seg, err := segment(in.GrantID)
	if err != nil {
		return struct{}{}, err
	}
	if err := s.checkDisbursement(ctx, in); err != nil {
		return struct{}{}, err
	}
	if _, err := s.send(ctx, "POST", "grants/"+seg+"/disbursements", in.Payload); err != nil {
		return struct{}{}, fmt.Errorf("create disbursement for grant %s: %w", in.GrantID, err)
	}
	return struct{}{}, nil
}

func (s *GrantService) updateDisbursement(ctx context.Context, in DisbursementInput) (struct{}, error) {
	seg, err := segment(in.GrantID)
	if err != nil {
		return struct{}{}, err
	}
	sub, err := segment(in.DisbursementID)
	if err != nil {
		return struct{}{}, err
	}
	if err := s.checkDisbursement(ctx, in); err != nil {
		return struct{}{}, err
	}
	if _, err := s.send(ctx, "PUT", "grants/"+seg+"/disbursements/"+sub, in.Payload); err != nil {
		return struct{}{}, fmt.Errorf("update disbursement %s: %w", in.DisbursementID, err)
	}
	return struct{}{}, nil
}

func (s *GrantService) createFundsUsage(ctx context.Context, in FundsUsageInput) (struct{}, error) {
	seg, err := segment(in.GrantID)
	if err != nil {
		return struct{}{}, err
	}
	if _, err := s.send(ctx, "POST", "grants/"+seg+"/funds-usage", in.Payload); err != nil {
		return struct{}{}, fmt.Errorf("create funds usage for grant %s: %w", in.GrantID, err)
	}
	return struct{}{}, nil
}

func (s *GrantService) updateFundsUsage(ctx context.Context, in FundsUsageInput) (struct{}, error) {
	seg, err := segment(in.GrantID)
	if err != nil {
		return struct{}{}, err
	}
	sub, err := segment(in.UsageID)
	if err != nil {
		return struct{}{}, err
	}
	if _, err := s.send(ctx, "PUT", "grants/"+seg+"/funds-usage/"+sub, in.Payload); err != nil {
		return struct{}{}, fmt.Errorf("update funds usage %s: %w", in.UsageID, err)
	}
	return struct{}{}, nil
}
