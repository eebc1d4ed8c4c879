package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"treasury_dashboard/internal/app/query"
	"treasury_dashboard/internal/app/service"
	"treasury_dashboard/internal/domain/entity"
	"treasury_dashboard/internal/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LatestCount is how many recent records each dashboard section shows.
const LatestCount = 5

// ErrNotFound is returned for a detail view whose id is empty.
var ErrNotFound = errors.New("not found")

// SectionError records a dashboard section that could not be loaded.
type SectionError struct {
	Section string `json:"section"`
	Message string `json:"message"`
}

// DashboardView is the landing page.
type DashboardView struct {
	GeneratedAt     time.Time                `json:"generatedAt"`
	Treasury        *entity.TreasuryOverview `json:"treasury,omitempty"`
	TotalValue      string                   `json:"totalValue"`
	BurnRate        float64                  `json:"burnRate"`
	BurnRateDisplay string                   `json:"burnRateDisplay"`
	Runway          string                   `json:"runway"`
	Transfers       []TransferRow            `json:"transfers"`
	Expenses        []entity.Expense         `json:"expenses"`
	Grants          []entity.Grant           `json:"grants"`
	Errors          []SectionError           `json:"errors"`
}

// Options configures a Builder.
type Options struct {
	Matcher *CategoryMatcher
	Now     func() time.Time
	Logger  *zap.Logger
}

// Builder assembles view models from cached reads.
type Builder struct {
	src     Source
	matcher *CategoryMatcher
	now     func() time.Time
	logger  *zap.Logger
}

// NewBuilder returns a Builder over src.
func NewBuilder(src Source, opts Options) *Builder {
	if opts.Matcher == nil {
		opts.Matcher = NewCategoryMatcher(MatchExact)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Builder{
		src:     src,
		matcher: opts.Matcher,
		now:     opts.Now,
		logger:  opts.Logger.Named("Aggregate"),
	}
}

// value unwraps a read. A failed refetch that still holds earlier data is served as-is.
func value[T any](st query.State[T]) (T, error) {
	if st.IsError() && st.UpdatedAt.IsZero() {
		var zero T
		return zero, st.Err
	}
	return st.Data, nil
}

// latestExpenses returns the n most recent expenses, newest first.
func latestExpenses(expenses []entity.Expense, n int) []entity.Expense {
	sorted := append([]entity.Expense(nil), expenses...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Dashboard loads the overview, latest records and the full expense list in parallel.
// Sections that fail are reported in Errors; the rest of the view is still returned.
func (b *Builder) Dashboard(ctx context.Context) (*DashboardView, error) {
	view := &DashboardView{
		GeneratedAt: b.now(),
		Transfers:   []TransferRow{},
		Expenses:    []entity.Expense{},
		Grants:      []entity.Grant{},
		Errors:      []SectionError{},
	}

	var (
		mu        sync.Mutex
		overview  entity.TreasuryOverview
		hasTreas  bool
		transfers []entity.TransferRecord
		expenses  []entity.Expense
	)
	fail := func(section string, err error) {
		b.logger.Error("Dashboard section failed", zap.String("section", section), zap.Error(err))
		mu.Lock()
		view.Errors = append(view.Errors, SectionError{Section: section, Message: err.Error()})
		mu.Unlock()
	}

	eg, childCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		v, err := value(b.src.Treasury(childCtx))
		if err != nil {
			fail("treasury", err)
			return nil
		}
		overview, hasTreas = v, true
		return nil
	})
	eg.Go(func() error {
		v, err := value(b.src.Transfers(childCtx, service.NewPage(LatestCount, 0)))
		if err != nil {
			fail("transfers", err)
			return nil
		}
		transfers = v
		return nil
	})
	eg.Go(func() error {
		v, err := value(b.src.Expenses(childCtx, service.ExpenseQuery{}))
		if err != nil {
			fail("expenses", err)
			return nil
		}
		expenses = v
		return nil
	})
	eg.Go(func() error {
		v, err := value(b.src.Grants(childCtx, service.GrantQuery{Page: service.NewPage(LatestCount, 0)}))
		if err != nil {
			fail("grants", err)
			return nil
		}
		if len(v) > LatestCount {
			v = v[:LatestCount]
		}
		view.Grants = v
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	labeler := NewPartyLabeler(nil)
	resolver := NewDecimalsResolver(nil)
	if hasTreas {
		view.Treasury = &overview
		view.TotalValue = utils.FormatCurrency(overview.TotalValueUSD, "USD")
		labeler = NewPartyLabeler(overview.Wallets)
		resolver = NewDecimalsResolver(overview.Assets)
	}
	view.Transfers = TransferRows(transfers, labeler, resolver)
	view.Expenses = latestExpenses(expenses, LatestCount)
	view.BurnRate = BurnRate(expenses, view.GeneratedAt)
	view.BurnRateDisplay = utils.FormatCurrency(view.BurnRate, "USD")
	view.Runway = utils.NotAvailable
	if hasTreas {
		view.Runway = RunwayLabel(overview.TotalValueUSD, view.BurnRate)
	}

	b.logger.Info("Dashboard built",
		zap.Int("transferCount", len(view.Transfers)),
		zap.Int("expenseCount", len(expenses)),
		zap.Int("errorCount", len(view.Errors)))
	return view, nil
}

// Transfers returns one page of display rows. The treasury is loaded alongside for
// party labels and decimals; without it rows fall back to names and the default decimals.
func (b *Builder) Transfers(ctx context.Context, page service.Page) ([]TransferRow, error) {
	var (
		transfers []entity.TransferRecord
		overview  entity.TreasuryOverview
		treasErr  error
	)
	eg, childCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		v, err := value(b.src.Transfers(childCtx, page))
		if err != nil {
			return fmt.Errorf("load transfers: %w", err)
		}
		transfers = v
		return nil
	})
	eg.Go(func() error {
		overview, treasErr = value(b.src.Treasury(childCtx))
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if treasErr != nil {
		b.logger.Warn("Treasury unavailable for transfer labels", zap.Error(treasErr))
	}
	return TransferRows(transfers, NewPartyLabeler(overview.Wallets), NewDecimalsResolver(overview.Assets)), nil
}

// Budgets compares the allocations with every recorded expense.
func (b *Builder) Budgets(ctx context.Context) (BudgetSummary, error) {
	var (
		allocations []entity.MonthlyBudgetAllocation
		expenses    []entity.Expense
	)
	eg, childCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		v, err := value(b.src.Allocations(childCtx))
		if err != nil {
			return fmt.Errorf("load budget allocations: %w", err)
		}
		allocations = v
		return nil
	})
	eg.Go(func() error {
		v, err := value(b.src.Expenses(childCtx, service.ExpenseQuery{}))
		if err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		expenses = v
		return nil
	})
	if err := eg.Wait(); err != nil {
		return BudgetSummary{}, err
	}
	return BuildBudgetSummary(allocations, expenses, b.matcher), nil
}

// Grant builds the grant detail view with its milestone list.
func (b *Builder) Grant(ctx context.Context, id string) (*GrantView, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	var (
		grant      entity.Grant
		milestones []entity.GrantMilestone
	)
	eg, childCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		v, err := value(b.src.Grant(childCtx, id))
		if err != nil {
			return fmt.Errorf("load grant %s: %w", id, err)
		}
		grant = v
		return nil
	})
	eg.Go(func() error {
		v, err := value(b.src.Milestones(childCtx, id))
		if err != nil {
			b.logger.Warn("Milestones unavailable, using embedded list", zap.String("grantId", id), zap.Error(err))
			return nil
		}
		milestones = v
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	view := BuildGrantView(grant, milestones, b.now())
	return &view, nil
}

// AuditLog returns audit entries for export.
func (b *Builder) AuditLog(ctx context.Context, q service.AuditLogQuery) ([]entity.AuditLogEntry, error) {
	v, err := value(b.src.AuditLog(ctx, q))
	if err != nil {
		return nil, fmt.Errorf("load audit log: %w", err)
	}
	return v, nil
}
