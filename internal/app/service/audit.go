package service

import (
	"context"
	"fmt"

	"treasury_dashboard/internal/app/query"
	"treasury_dashboard/internal/domain/entity"
)

// AuditLogService reads the administrator audit log.
type AuditLogService struct {
	*base
}

func newAuditLogService(b *base) *AuditLogService {
	return &AuditLogService{base: b}
}

// List returns audit entries matching q. The action filter only accepts known actions.
func (s *AuditLogService) List(ctx context.Context, q AuditLogQuery) query.State[[]entity.AuditLogEntry] {
	if q.Action != "" {
		if _, err := entity.ParseAdminAction(q.Action); err != nil {
			return query.State[[]entity.AuditLogEntry]{Status: query.StatusError, Err: err}
		}
	}
	return query.Fetch(ctx, s.cache, AuditLogKey(q), func(ctx context.Context) ([]entity.AuditLogEntry, error) {
		body, err := s.get(ctx, "admin-actions", q.query())
		if err != nil {
			return nil, fmt.Errorf("fetch audit log: %w", err)
		}
		return s.mapper.AuditLog(body), nil
	})
}
