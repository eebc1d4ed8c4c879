package aggregate

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"treasury_dashboard/internal/app/query"
	"treasury_dashboard/internal/app/service"
	"treasury_dashboard/internal/domain/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

func intPtr(i int) *int { return &i }

func allocation(id, category string, amount int64) entity.MonthlyBudgetAllocation {
	return entity.MonthlyBudgetAllocation{ID: id, Category: category, Amount: decimal.NewFromInt(amount)}
}

func expense(category string, price, quantity float64, date time.Time) entity.Expense {
	return entity.Expense{Category: category, Price: price, Quantity: quantity, Date: date}
}

func budgetFixture() ([]entity.MonthlyBudgetAllocation, []entity.Expense) {
	allocations := []entity.MonthlyBudgetAllocation{
		allocation("a1", "Engineering", 1000),
		allocation("a2", "Marketing", 500),
		allocation("a3", "Operations", 100),
	}
	expenses := []entity.Expense{
		expense("Engineering", 400, 2, testNow),
		expense("Marketing", 300, 2, testNow),
		expense("operations ", 50, 1, testNow),
	}
	return allocations, expenses
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestBudgetSummaryExactMatching(t *testing.T) {
	allocations, expenses := budgetFixture()
	summary := BuildBudgetSummary(allocations, expenses, NewCategoryMatcher(MatchExact))
	require.Len(t, summary.Rows, 3)

	eng := summary.Rows[0]
	assertDecimal(t, "800", eng.Actual)
	assertDecimal(t, "-200", eng.Variance)
	assertDecimal(t, "-20", *eng.VariancePercent)
	assertDecimal(t, "62.5", *eng.ShareOfBudget)
	assert.Equal(t, ToneUnderBudget, eng.Tone)

	mkt := summary.Rows[1]
	assertDecimal(t, "600", mkt.Actual)
	assertDecimal(t, "20", *mkt.VariancePercent)
	assert.Equal(t, ToneOverBudget, mkt.Tone)

	ops := summary.Rows[2]
	assert.True(t, ops.Actual.IsZero(), "case and whitespace differ")
	assert.Equal(t, []string{"operations "}, ops.Suggestions)

	assertDecimal(t, "1600", summary.Totals.Budgeted)
	assertDecimal(t, "1400", summary.Totals.Actual)
	assertDecimal(t, "-12.5", *summary.Totals.VariancePercent)
	assert.Equal(t, ToneUnderBudget, summary.Totals.Tone)
	assert.Equal(t, []string{"operations "}, summary.Unbudgeted)
	assert.Equal(t, []Insight{{Level: InsightSuccess, Message: "Total spending is 12.5% under budget"}}, summary.Insights)
}

func TestBudgetSummaryNormalizedMatching(t *testing.T) {
	allocations, expenses := budgetFixture()
	summary := BuildBudgetSummary(allocations, expenses, NewCategoryMatcher(MatchNormalized))

	ops := summary.Rows[2]
	assertDecimal(t, "50", ops.Actual)
	assert.Empty(t, ops.Suggestions)
	assert.Empty(t, summary.Unbudgeted)
	assertDecimal(t, "-9.375", *summary.Totals.VariancePercent)
	assert.Empty(t, summary.Insights, "9.4% under is inside the notice band")
}

func TestBudgetSummaryOverspendInsights(t *testing.T) {
	allocations := []entity.MonthlyBudgetAllocation{
		allocation("a1", "Marketing", 500),
		allocation("a2", "Legal", 0),
	}
	expenses := []entity.Expense{
		expense("Marketing", 350, 2, testNow),
		expense("Legal", 10, 1, testNow),
	}
	summary := BuildBudgetSummary(allocations, expenses, nil)

	assert.Nil(t, summary.Rows[1].VariancePercent, "nothing budgeted")
	assert.Equal(t, ToneOnTrack, summary.Rows[1].Tone)
	assert.Equal(t, []Insight{
		{Level: InsightWarning, Message: "Total spending is 42.0% over budget"},
		{Level: InsightWarning, Category: "Marketing", Message: "Marketing is 40% over budget"},
	}, summary.Insights)
}

func TestToneBands(t *testing.T) {
	p := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}
	assert.Equal(t, ToneOnTrack, ToneFor(p("10")))
	assert.Equal(t, ToneOverBudget, ToneFor(p("10.01")))
	assert.Equal(t, ToneOnTrack, ToneFor(p("-10")))
	assert.Equal(t, ToneUnderBudget, ToneFor(p("-10.5")))
	assert.Equal(t, ToneOnTrack, ToneFor(nil))
}

func TestCategoryMatcher(t *testing.T) {
	exact := NewCategoryMatcher("bogus")
	assert.Equal(t, MatchExact, exact.Mode())
	assert.False(t, exact.Match("Ops", "ops"))
	assert.True(t, NewCategoryMatcher(MatchNormalized).Match(" Legal  &  Compliance", "legal & compliance"))

	got := exact.Suggest("Infrastructure", []string{"Infrastucture", "infrastructure", "Research", "Infra"})
	assert.Equal(t, []string{"infrastructure", "Infrastucture"}, got)
	assert.Nil(t, exact.Suggest("Payroll", []string{"Research"}))
}

func TestBurnRateAndRunway(t *testing.T) {
	expenses := []entity.Expense{
		expense("ops", 100, 3, testNow.AddDate(0, 0, -11)),
		expense("ops", 50, 1, testNow.Add(-BurnWindow)),
		expense("ops", 1000, 1, testNow.AddDate(0, 0, -45)),
		expense("ops", 5000, 1, testNow.AddDate(0, 0, 60)),
		expense("ops", 25, 1, testNow),
	}
	burn := BurnRate(expenses, testNow)
	assert.InDelta(t, 175, burn, 1e-9, "price only, both window edges included, future dates skipped")

	months, ok := Runway(1000, burn)
	assert.True(t, ok)
	assert.Equal(t, int64(5), months)
	assert.Equal(t, "5", RunwayLabel(1000, burn))
	assert.Equal(t, "N/A", RunwayLabel(1000, 0))
}

func TestDecimalsResolutionOrder(t *testing.T) {
	r := NewDecimalsResolver([]entity.TreasuryAsset{
		{Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: intPtr(6)},
		{Symbol: "GNO", Address: "0xabc", Decimals: intPtr(18)},
		{Symbol: "BRIDGED", Address: "0x111", Decimals: intPtr(8)},
		{Symbol: "ODD", Address: "0x222"},
	})

	cases := []struct {
		name, address, symbol string
		want                  int
		ok                    bool
	}{
		{"address ignores case", "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", "", 6, true},
		{"ether placeholder", strings.ToUpper(entity.ETHPlaceholderAddress), "", 18, true},
		{"symbol metadata", "0xunknown", "gno", 18, true},
		{"address beats symbol", "0x111", "USDC", 8, true},
		{"common token table", "", "WBTC", 8, true},
		{"usdcet", "", "USDCet", 6, true},
		{"asset without decimals", "0x222", "odd", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := r.Resolve(tc.address, tc.symbol)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
	assert.Equal(t, 18, r.DecimalsOr("0x222", "odd", 18))
}

func TestPartyLabels(t *testing.T) {
	l := NewPartyLabeler([]entity.TreasuryWallet{{Address: "0xAbC0000000000000000000000000000000000001"}})
	treasury := "0xabc0000000000000000000000000000000000001"

	assert.False(t, l.IsTreasury("0xdef"))
	assert.False(t, l.IsTreasury(""))
	assert.True(t, l.IsTreasury(treasury))
	assert.True(t, l.IsTreasury("0x"+strings.ToUpper(treasury[2:])))
	assert.Equal(t, TreasuryLabel, l.Label("unknown", treasury))
	assert.Equal(t, TreasuryLabel, l.Label("  ", treasury))
	assert.Equal(t, "Alice", l.Label(" Alice ", treasury))
	assert.Equal(t, "Unknown", l.Label("", "0xdef"))
}

func TestTransferRowsScaleAmounts(t *testing.T) {
	rows := TransferRows([]entity.TransferRecord{
		{TxHash: "0x0123456789abcdef", Asset: "0xa0b8", AssetSymbol: "USDC", RawAmount: "1500000", PayerName: "Unknown"},
		{TxHash: "0xshort", Asset: "0xdead", Amount: 2e18},
	}, NewPartyLabeler(nil), NewDecimalsResolver(nil))

	require.Len(t, rows, 2)
	assert.Equal(t, 6, rows[0].Decimals)
	assert.Equal(t, "1.5", rows[0].DisplayAmount)
	assert.Equal(t, "1.5 USDC", rows[0].Formatted)
	assert.Equal(t, "0x01234567…", rows[0].ShortTxHash)
	assert.Equal(t, "Unknown", rows[0].PayerLabel)

	assert.Equal(t, 18, rows[1].Decimals)
	assert.Equal(t, "2", rows[1].DisplayAmount)
	assert.Equal(t, "2 0xdead", rows[1].Formatted)
	assert.Equal(t, "0xshort", rows[1].ShortTxHash)
}

func TestGrantView(t *testing.T) {
	g := entity.Grant{
		ID:                     "g1",
		Status:                 "milestone 2 of 3",
		TotalGrantAmount:       100,
		AmountGivenSoFar:       120,
		ExpectedCompletionDate: testNow.AddDate(0, -1, 0),
		Milestones:             []entity.GrantMilestone{{ID: "embedded"}},
	}
	v := BuildGrantView(g, []entity.GrantMilestone{
		{ID: "m1", Status: entity.MilestoneSignedOff, SignedOff: true},
		{ID: "m2", Status: entity.MilestoneCompleted},
		{ID: "m3", Status: "in_review"},
	}, testNow)

	require.Len(t, v.Milestones, 3)
	assert.Equal(t, StatusDisplay{Label: "Signed off", Variant: VariantSuccess}, v.Milestones[0].StatusDisplay)
	assert.Equal(t, StatusDisplay{Label: "Signed", Variant: VariantSuccess}, v.Milestones[0].SignOffDisplay)
	assert.Equal(t, StatusDisplay{Label: "Completed", Variant: VariantSuccess}, v.Milestones[1].StatusDisplay)
	assert.Equal(t, StatusDisplay{Label: "Pending", Variant: VariantInfo}, v.Milestones[2].StatusDisplay)
	assert.True(t, v.OverDisbursed)
	assert.Zero(t, v.Remaining)
	assert.True(t, v.Overdue)
	assert.Equal(t, VariantInfo, v.Status.Variant)

	g.Status = "completed"
	v = BuildGrantView(g, nil, testNow)
	assert.Equal(t, "embedded", v.Milestones[0].ID)
	assert.Equal(t, VariantSuccess, v.Status.Variant)
	assert.False(t, v.Overdue)
}

type fakeSource struct {
	treasury    query.State[entity.TreasuryOverview]
	transfers   query.State[[]entity.TransferRecord]
	expenses    query.State[[]entity.Expense]
	grants      query.State[[]entity.Grant]
	grant       query.State[entity.Grant]
	milestones  query.State[[]entity.GrantMilestone]
	allocations query.State[[]entity.MonthlyBudgetAllocation]
	audit       query.State[[]entity.AuditLogEntry]

	lastTransferPage service.Page
}

func ok[T any](v T) query.State[T] {
	return query.State[T]{Data: v, Status: query.StatusSuccess, UpdatedAt: testNow}
}

func failed[T any](err error) query.State[T] {
	return query.State[T]{Status: query.StatusError, Err: err}
}

func (f *fakeSource) Treasury(context.Context) query.State[entity.TreasuryOverview] {
	return f.treasury
}

func (f *fakeSource) Transfers(_ context.Context, p service.Page) query.State[[]entity.TransferRecord] {
	f.lastTransferPage = p
	return f.transfers
}

func (f *fakeSource) Expenses(context.Context, service.ExpenseQuery) query.State[[]entity.Expense] {
	return f.expenses
}

func (f *fakeSource) Grants(context.Context, service.GrantQuery) query.State[[]entity.Grant] {
	return f.grants
}

func (f *fakeSource) Grant(context.Context, string) query.State[entity.Grant] { return f.grant }

func (f *fakeSource) Milestones(context.Context, string) query.State[[]entity.GrantMilestone] {
	return f.milestones
}

func (f *fakeSource) Allocations(context.Context) query.State[[]entity.MonthlyBudgetAllocation] {
	return f.allocations
}

func (f *fakeSource) AuditLog(context.Context, service.AuditLogQuery) query.State[[]entity.AuditLogEntry] {
	return f.audit
}

func newFakeSource() *fakeSource {
	var expenses []entity.Expense
	for i := 0; i < 7; i++ {
		e := expense("ops", 100, 1, testNow.AddDate(0, 0, -i*10))
		e.ID = string(rune('a' + i))
		expenses = append(expenses, e)
	}
	return &fakeSource{
		treasury: ok(entity.TreasuryOverview{
			TotalValueUSD: 3000,
			Wallets:       []entity.TreasuryWallet{{Address: "0xTREASURY"}},
			Assets:        []entity.TreasuryAsset{{Symbol: "GNO", Address: "0xgno", Decimals: intPtr(18)}},
		}),
		transfers: ok([]entity.TransferRecord{{
			TxHash: "0x1", Asset: "0xgno", RawAmount: "3000000000000000000",
			PayerAddress: "0xtreasury", PayerName: "Unknown", PayeeName: "Bob",
		}}),
		expenses: ok(expenses),
		grants:   failed[[]entity.Grant](errors.New("grants unavailable")),
	}
}

func TestDashboardCollectsSectionErrors(t *testing.T) {
	src := newFakeSource()
	b := NewBuilder(src, Options{Now: func() time.Time { return testNow }})

	view, err := b.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []SectionError{{Section: "grants", Message: "grants unavailable"}}, view.Errors)
	assert.Empty(t, view.Grants)
	require.NotNil(t, view.Treasury)
	assert.Equal(t, "$3,000.00", view.TotalValue)

	require.Len(t, view.Transfers, 1)
	assert.Equal(t, TreasuryLabel, view.Transfers[0].PayerLabel)
	assert.Equal(t, "3", view.Transfers[0].DisplayAmount)
	assert.Equal(t, 5, *src.lastTransferPage.Limit)

	require.Len(t, view.Expenses, LatestCount)
	assert.Equal(t, "a", view.Expenses[0].ID)
	assert.InDelta(t, 400, view.BurnRate, 1e-9, "days 0, 10, 20 and 30")
	assert.Equal(t, "7", view.Runway)

	snap := NewSnapshot(view)
	assert.Equal(t, 3000.0, snap.Metrics.TotalValue)
	assert.Equal(t, 1, snap.Metrics.TransactionCount)
	assert.Len(t, snap.Assets, 1)
}

func TestDashboardWithoutTreasury(t *testing.T) {
	src := newFakeSource()
	src.treasury = failed[entity.TreasuryOverview](errors.New("down"))
	src.grants = ok([]entity.Grant{{ID: "g1"}})

	view, err := NewBuilder(src, Options{Now: func() time.Time { return testNow }}).Dashboard(context.Background())
	require.NoError(t, err)
	assert.Nil(t, view.Treasury)
	assert.Equal(t, "N/A", view.Runway)
	assert.Equal(t, "Unknown", view.Transfers[0].PayerLabel)
	assert.Len(t, view.Grants, 1)
}

func TestStaleDataServedAfterFailedRefetch(t *testing.T) {
	src := newFakeSource()
	src.allocations = query.State[[]entity.MonthlyBudgetAllocation]{
		Data:      []entity.MonthlyBudgetAllocation{allocation("a1", "ops", 1000)},
		Status:    query.StatusError,
		Err:       errors.New("bad gateway"),
		UpdatedAt: testNow,
	}
	summary, err := NewBuilder(src, Options{}).Budgets(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Rows, 1)
	assertDecimal(t, "700", summary.Rows[0].Actual)

	src.allocations = failed[[]entity.MonthlyBudgetAllocation](errors.New("bad gateway"))
	_, err = NewBuilder(src, Options{}).Budgets(context.Background())
	assert.EqualError(t, err, "load budget allocations: bad gateway")
}

func TestGrantDetailFallsBackToEmbeddedMilestones(t *testing.T) {
	src := newFakeSource()
	src.grant = ok(entity.Grant{ID: "g1", Milestones: []entity.GrantMilestone{{ID: "m1"}}})
	src.milestones = failed[[]entity.GrantMilestone](errors.New("404"))

	b := NewBuilder(src, Options{})
	v, err := b.Grant(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "m1", v.Milestones[0].ID)

	_, err = b.Grant(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuditLogCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteAuditLogCSV(&buf, []entity.AuditLogEntry{{
		ID:           "1",
		AdminAddress: "0xabc",
		AdminName:    "Ops, Inc",
		Action:       entity.ActionCreateExpense,
		ResourceType: entity.ResourceExpense,
		ResourceID:   "e1",
		Details:      map[string]any{"item": "Laptop"},
		Timestamp:    testNow,
	}})
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Admin Name", records[0][3])
	assert.Equal(t, []string{
		"1", "2024-03-31T00:00:00Z", "0xabc", "Ops, Inc", "create_expense", "expense", "e1", `{"item":"Laptop"}`,
	}, records[1])
}

func TestTransfersCSVAndFileName(t *testing.T) {
	rows := TransferRows([]entity.TransferRecord{{
		TxHash: "0x1", AssetSymbol: "USDC", RawAmount: "2500000", Direction: entity.TransferIncoming, BlockNumber: 42,
	}}, NewPartyLabeler(nil), NewDecimalsResolver(nil))

	var buf bytes.Buffer
	require.NoError(t, WriteTransfersCSV(&buf, rows))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "2.5", records[1][6])
	assert.Equal(t, "incoming", records[1][8])
	assert.Equal(t, "42", records[1][9])

	assert.Equal(t, "transfers_2024-03-31.csv", ExportFileName("transfers", "csv", testNow.Add(5*time.Hour)))
}
