package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyBudgetAllocation is the monthly amount budgeted for one expense category.
// Category is unique across allocations.
type MonthlyBudgetAllocation struct {
	ID        string          `json:"id"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Manager   string          `json:"manager,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
