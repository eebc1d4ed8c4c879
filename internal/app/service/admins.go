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

// AdminService manages dashboard administrators.
type AdminService struct {
	*base

	Add    *query.Mutation[dto.AdminCreatePayload, entity.Admin]
	Remove *query.Mutation[string, struct{}]
}

func newAdminService(b *base) *AdminService {
	s := &AdminService{base: b}
	s.Add = query.NewMutation(b.cache, "admins.add", s.add,
		func(context.Context, dto.AdminCreatePayload, entity.Admin) { b.cache.Invalidate(AdminsKey()) })
	s.Remove = query.NewMutation(b.cache, "admins.remove", s.remove,
		func(context.Context, string, struct{}) { b.cache.Invalidate(AdminsKey()) })
	return s
}

// List returns every administrator.
func (s *AdminService) List(ctx context.Context) query.State[[]entity.Admin] {
	return query.Fetch(ctx, s.cache, AdminsKey(), func(ctx context.Context) ([]entity.Admin, error) {
		body, err := s.get(ctx, "admins", nil)
		if err != nil {
			return nil, fmt.Errorf("fetch admins: %w", err)
		}
		return s.mapper.Admins(body), nil
	})
}

func (s *AdminService) add(ctx context.Context, payload dto.AdminCreatePayload) (entity.Admin, error) {
	addr, err := ValidateAddress(payload.Address)
	if err != nil {
		return entity.Admin{}, err
	}
	payload.Address = addr
	payload.Name = strings.TrimSpace(payload.Name)
	resp, err := s.send(ctx, "POST", "admins", payload)
	if err != nil {
		return entity.Admin{}, fmt.Errorf("add admin: %w", err)
	}
	d := mapper.DecodeObject[dto.AdminDTO](resp.Body)
	if d.Address == "" {
		d = dto.AdminDTO{Name: payload.Name, Address: addr}
	}
	return entity.Admin{Name: d.Name, Address: d.Address}, nil
}

func (s *AdminService) remove(ctx context.Context, address string) (struct{}, error) {
	addr, err := ValidateAddress(address)
	if err != nil {
		return struct{}{}, err
	}
	if _, err := s.send(ctx, "DELETE", "admins/"+addr, nil); err != nil {
		return struct{}{}, fmt.Errorf("remove admin: %w", err)
	}
	return struct{}{}, nil
}
