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

// UpdateCategoryInput renames or redescribes the category called Name.
type UpdateCategoryInput struct {
	Name    string
	Payload dto.CategoryDTO
}

// CategoryService manages expense categories. Categories are addressed by name.
type CategoryService struct {
	*base

	Create *query.Mutation[dto.CategoryDTO, entity.Category]
	Update *query.Mutation[UpdateCategoryInput, struct{}]
	Delete *query.Mutation[string, struct{}]
}

func newCategoryService(b *base) *CategoryService {
	s := &CategoryService{base: b}
	invalidate := func() { b.cache.Invalidate(CategoriesKey()) }
	s.Create = query.NewMutation(b.cache, "categories.create", s.create,
		func(context.Context, dto.CategoryDTO, entity.Category) { invalidate() })
	s.Update = query.NewMutation(b.cache, "categories.update", s.update,
		func(context.Context, UpdateCategoryInput, struct{}) { invalidate() })
	s.Delete = query.NewMutation(b.cache, "categories.delete", s.delete,
		func(context.Context, string, struct{}) { invalidate() })
	return s
}

// List returns every category.
func (s *CategoryService) List(ctx context.Context) query.State[[]entity.Category] {
	return query.Fetch(ctx, s.cache, CategoriesKey(), func(ctx context.Context) ([]entity.Category, error) {
		body, err := s.get(ctx, "categories", nil)
		if err != nil {
			return nil, fmt.Errorf("fetch categories: %w", err)
		}
		return s.mapper.Categories(body), nil
	})
}

func (s *CategoryService) create(ctx context.Context, payload dto.CategoryDTO) (entity.Category, error) {
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		return entity.Category{}, fmt.Errorf("category name is required")
	}
	resp, err := s.send(ctx, "POST", "categories", payload)
	if err != nil {
		return entity.Category{}, fmt.Errorf("create category: %w", err)
	}
	d := mapper.DecodeObject[dto.CategoryDTO](resp.Body)
	if d.Name == "" {
		d = payload
	}
	return s.mapper.Category(&d), nil
}

func (s *CategoryService) update(ctx context.Context, in UpdateCategoryInput) (struct{}, error) {
	seg, err := segment(in.Name)
	if err != nil {
		return struct{}{}, err
	}
	if _, err := s.send(ctx, "PUT", "categories/"+seg, in.Payload); err != nil {
		return struct{}{}, fmt.Errorf("update category %q: %w", in.Name, err)
	}
	return struct{}{}, nil
}

func (s *CategoryService) delete(ctx context.Context, name string) (struct{}, error) {
	seg, err := segment(name)
	if err != nil {
		return struct{}{}, err
	}
	if _, err := s.send(ctx, "DELETE", "categories/"+seg, nil); err != nil {
		return struct{}{}, fmt.Errorf("delete category %q: %w", name, err)
	}
	return struct{}{}, nil
}
