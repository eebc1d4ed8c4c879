package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"treasury_dashboard/internal/app/mapper"
	"treasury_dashboard/internal/app/port"
	"treasury_dashboard/internal/app/query"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInvalidAddress is returned before any request when an address is not 20-byte hex.
	ErrInvalidAddress = errors.New("invalid ethereum address")
	// ErrOverDisbursement is returned when a write would pay a grant beyond its total and
	// the rejection policy is on.
	ErrOverDisbursement = errors.New("disbursement exceeds total grant amount")
	// ErrEmptyID is returned when a detail read or write is missing its id.
	ErrEmptyID = errors.New("id is required")
)

// Options tunes the services.
type Options struct {
	// TreasuryStaleTime overrides the cache stale time of the treasury overview.
	TreasuryStaleTime time.Duration
	// RejectOverDisbursement turns over-disbursing writes into ErrOverDisbursement.
	RejectOverDisbursement bool
}

// base is shared by the resource services.
type base struct {
	api    port.APIClient
	cache  *query.Client
	mapper *mapper.Mapper
	logger port.Logger
}

func (b *base) get(ctx context.Context, path string, q map[string]any) ([]byte, error) {
	resp, err := b.api.Do(ctx, port.Request{Method: "GET", Path: path, Query: q})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (b *base) send(ctx context.Context, method, path string, body any) (*port.Response, error) {
	return b.api.Do(ctx, port.Request{Method: method, Path: path, Body: body})
}

func (b *base) debug(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

// Services groups the per-resource reads and writes over one cache.
type Services struct {
	Treasury   *TreasuryService
	Transfers  *TransferService
	Expenses   *ExpenseService
	Grants     *GrantService
	Budgets    *BudgetService
	Categories *CategoryService
	Admins     *AdminService
	AuditLog   *AuditLogService
	Settings   *SettingsService
	Auth       *AuthService

	cache *query.Client
}

// New wires every resource service to api and cache. session may be nil when sign-in is
// not needed.
func New(api port.APIClient, cache *query.Client, m *mapper.Mapper, session Session, logger port.Logger, opts Options) *Services {
	b := &base{api: api, cache: cache, mapper: m, logger: logger}
	return &Services{
		Treasury:   newTreasuryService(b, opts.TreasuryStaleTime),
		Transfers:  newTransferService(b),
		Expenses:   newExpenseService(b),
		Grants:     newGrantService(b, opts.RejectOverDisbursement),
		Budgets:    newBudgetService(b),
		Categories: newCategoryService(b),
		Admins:     newAdminService(b),
		AuditLog:   newAuditLogService(b),
		Settings:   newSettingsService(b),
		Auth:       newAuthService(b, session),
		cache:      cache,
	}
}

// Cache exposes the underlying query client.
func (s *Services) Cache() *query.Client {
	return s.cache
}

// ValidateAddress trims address and checks it is 20-byte hex.
func ValidateAddress(address string) (string, error) {
	a := strings.TrimSpace(address)
	if !common.IsHexAddress(a) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return a, nil
}

func segment(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrEmptyID
	}
	return url.PathEscape(id), nil
}
