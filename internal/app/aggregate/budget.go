package aggregate

import (
	"fmt"
	"sort"

	"treasury_dashboard/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// Tone is the display band of a variance.
type Tone string

const (
	ToneOverBudget  Tone = "over_budget"
	ToneUnderBudget Tone = "under_budget"
	ToneOnTrack     Tone = "on_track"
)

// InsightLevel mirrors the toast variants used for notices.
type InsightLevel string

const (
	InsightWarning InsightLevel = "warning"
	InsightSuccess InsightLevel = "success"
)

var (
	hundred = decimal.NewFromInt(100)

	toneBand          = decimal.RequireFromString("0.1")
	totalOverNotice   = decimal.NewFromInt(5)
	totalUnderNotice  = decimal.NewFromInt(-10)
	categoryOverRatio = decimal.RequireFromString("1.2")
)

// BudgetRow compares one allocation with the spend recorded in its category.
type BudgetRow struct {
	AllocationID string          `json:"allocationId"`
	Category     string          `json:"category"`
	Manager      string          `json:"manager,omitempty"`
	Budgeted     decimal.Decimal `json:"budgeted"`
	Actual       decimal.Decimal `json:"actual"`
	Variance     decimal.Decimal `json:"variance"`
	// VariancePercent is nil when nothing was budgeted.
	VariancePercent *decimal.Decimal `json:"variancePercent,omitempty"`
	// ShareOfBudget is the row's part of the total budget, in percent.
	ShareOfBudget *decimal.Decimal `json:"shareOfBudget,omitempty"`
	Tone          Tone             `json:"tone"`
	// Suggestions lists expense categories that look like this one when no expense matched.
	Suggestions []string `json:"suggestions,omitempty"`
}

// BudgetTotals sums every row.
type BudgetTotals struct {
	Budgeted        decimal.Decimal  `json:"budgeted"`
	Actual          decimal.Decimal  `json:"actual"`
	Variance        decimal.Decimal  `json:"variance"`
	VariancePercent *decimal.Decimal `json:"variancePercent,omitempty"`
	Tone            Tone             `json:"tone"`
}

// Insight is a notice shown under the budget table.
type Insight struct {
	Level    InsightLevel `json:"level"`
	Category string       `json:"category,omitempty"`
	Message  string       `json:"message"`
}

// BudgetSummary is the budget-vs-actual view.
type BudgetSummary struct {
	Rows     []BudgetRow  `json:"rows"`
	Totals   BudgetTotals `json:"totals"`
	Insights []Insight    `json:"insights"`
	// Unbudgeted lists expense categories with spend but no allocation.
	Unbudgeted []string `json:"unbudgeted,omitempty"`
}

// variancePercent is (actual/budgeted - 1) * 100, undefined for a zero budget.
func variancePercent(actual, budgeted decimal.Decimal) *decimal.Decimal {
	if budgeted.IsZero() {
		return nil
	}
	p := actual.DivRound(budgeted, 16).Sub(decimal.NewFromInt(1)).Mul(hundred)
	return &p
}

// ToneFor bands a variance percent: more than 10% over, more than 10% under, else on track.
func ToneFor(percent *decimal.Decimal) Tone {
	if percent == nil {
		return ToneOnTrack
	}
	ratio := percent.Div(hundred)
	switch {
	case ratio.GreaterThan(toneBand):
		return ToneOverBudget
	case ratio.LessThan(toneBand.Neg()):
		return ToneUnderBudget
	default:
		return ToneOnTrack
	}
}

// ActualsByCategory sums price times quantity per expense category.
func ActualsByCategory(expenses []entity.Expense) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		out[e.Category] = out[e.Category].Add(decimal.NewFromFloat(e.Total()))
	}
	return out
}

// BuildBudgetSummary attributes expense totals to allocations through matcher.
func BuildBudgetSummary(allocations []entity.MonthlyBudgetAllocation, expenses []entity.Expense, matcher *CategoryMatcher) BudgetSummary {
	if matcher == nil {
		matcher = NewCategoryMatcher(MatchExact)
	}
	actuals := ActualsByCategory(expenses)
	spent := make([]string, 0, len(actuals))
	for name := range actuals {
		spent = append(spent, name)
	}
	sort.Strings(spent)

	summary := BudgetSummary{Rows: make([]BudgetRow, 0, len(allocations)), Insights: []Insight{}}
	matched := make(map[string]bool, len(spent))

	for _, a := range allocations {
		row := BudgetRow{
			AllocationID: a.ID,
			Category:     a.Category,
			Manager:      a.Manager,
			Budgeted:     a.Amount,
			Actual:       decimal.Zero,
		}
		found := false
		for _, name := range spent {
			if matcher.Match(a.Category, name) {
				row.Actual = row.Actual.Add(actuals[name])
				matched[name] = true
				found = true
			}
		}
		if !found {
			row.Suggestions = matcher.Suggest(a.Category, spent)
		}
		row.Variance = row.Actual.Sub(row.Budgeted)
		row.VariancePercent = variancePercent(row.Actual, row.Budgeted)
		row.Tone = ToneFor(row.VariancePercent)

		summary.Totals.Budgeted = summary.Totals.Budgeted.Add(row.Budgeted)
		summary.Totals.Actual = summary.Totals.Actual.Add(row.Actual)
		summary.Rows = append(summary.Rows, row)
	}

	t := &summary.Totals
	t.Variance = t.Actual.Sub(t.Budgeted)
	t.VariancePercent = variancePercent(t.Actual, t.Budgeted)
	t.Tone = ToneFor(t.VariancePercent)

	if !t.Budgeted.IsZero() {
		for i := range summary.Rows {
			share := summary.Rows[i].Budgeted.DivRound(t.Budgeted, 16).Mul(hundred)
			summary.Rows[i].ShareOfBudget = &share
		}
	}

	if p := t.VariancePercent; p != nil {
		switch {
		case p.GreaterThan(totalOverNotice):
			summary.Insights = append(summary.Insights, Insight{
				Level:   InsightWarning,
				Message: fmt.Sprintf("Total spending is %s%% over budget", p.StringFixed(1)),
			})
		case p.LessThan(totalUnderNotice):
			summary.Insights = append(summary.Insights, Insight{
				Level:   InsightSuccess,
				Message: fmt.Sprintf("Total spending is %s%% under budget", p.Abs().StringFixed(1)),
			})
		}
	}
	for _, row := range summary.Rows {
		if row.Budgeted.IsZero() || !row.Actual.DivRound(row.Budgeted, 16).GreaterThan(categoryOverRatio) {
			continue
		}
		summary.Insights = append(summary.Insights, Insight{
			Level:    InsightWarning,
			Category: row.Category,
			Message:  fmt.Sprintf("%s is %s%% over budget", row.Category, row.VariancePercent.StringFixed(0)),
		})
	}

	for _, name := range spent {
		if !matched[name] {
			summary.Unbudgeted = append(summary.Unbudgeted, name)
		}
	}
	return summary
}
