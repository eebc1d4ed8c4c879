package service

import (
	"time"

	"treasury_dashboard/internal/app/query"
)

// Page is the shared limit/offset pair. Nil fields are left out of the request.
type Page struct {
	Limit  *int `json:"limit,omitempty"`
	Offset *int `json:"offset,omitempty"`
}

// NewPage builds a Page; non-positive limits and negative offsets are left unset.
func NewPage(limit, offset int) Page {
	var p Page
	if limit > 0 {
		p.Limit = &limit
	}
	if offset > 0 {
		p.Offset = &offset
	}
	return p
}

func (p Page) query() map[string]any {
	return map[string]any{"limit": p.Limit, "offset": p.Offset}
}

// ExpenseQuery filters the expense list.
type ExpenseQuery struct {
	Category string `json:"category,omitempty"`
	Page
}

func (q ExpenseQuery) query() map[string]any {
	out := q.Page.query()
	if q.Category != "" {
		out["category"] = q.Category
	}
	return out
}

// GrantListStatus selects active or previous grants.
type GrantListStatus string

const (
	GrantsActive   GrantListStatus = "active"
	GrantsPrevious GrantListStatus = "previous"
)

// GrantQuery filters the grant list.
type GrantQuery struct {
	Status GrantListStatus `json:"status,omitempty"`
	Search string          `json:"search,omitempty"`
	Page
}

func (q GrantQuery) query() map[string]any {
	out := q.Page.query()
	if q.Status != "" {
		out["status"] = string(q.Status)
	}
	if q.Search != "" {
		out["search"] = q.Search
	}
	return out
}

// AuditLogQuery filters the audit log.
type AuditLogQuery struct {
	AdminAddress string     `json:"adminAddress,omitempty"`
	Action       string     `json:"action,omitempty"`
	From         *time.Time `json:"from,omitempty"`
	To           *time.Time `json:"to,omitempty"`
	Page
}

func (q AuditLogQuery) query() map[string]any {
	out := q.Page.query()
	if q.AdminAddress != "" {
		out["adminAddress"] = q.AdminAddress
	}
	if q.Action != "" {
		out["action"] = q.Action
	}
	out["from"] = q.From
	out["to"] = q.To
	return out
}

// Cache keys. List keys carry their params, so invalidating the bare resource name
// covers every page and filter.

func TreasuryKey() query.Key {
	return query.Key{"treasury"}
}

func TreasuryWalletsKey() query.Key {
	return query.Key{"treasury", "wallets"}
}

func TransfersKey(p Page) query.Key {
	return query.Key{"transfers", p}
}

func TransferKey(id string) query.Key {
	return query.Key{"transfer", id}
}

func TransferPartiesKey(p Page) query.Key {
	return query.Key{"transfer-parties", p}
}

func ExpensesKey(q ExpenseQuery) query.Key {
	return query.Key{"expenses", q}
}

func ExpenseKey(id string) query.Key {
	return query.Key{"expense", id}
}

func GrantsKey(q GrantQuery) query.Key {
	return query.Key{"grants", q}
}

func GrantKey(id string) query.Key {
	return query.Key{"grant", id}
}

func GrantMilestonesKey(id string) query.Key {
	return query.Key{"grant", id, "milestones"}
}

func GrantDisbursementsKey(id string) query.Key {
	return query.Key{"grant", id, "disbursements"}
}

func GrantFundsUsageKey(id string) query.Key {
	return query.Key{"grant", id, "funds-usage"}
}

func AdminsKey() query.Key {
	return query.Key{"admins"}
}

func AuditLogKey(q AuditLogQuery) query.Key {
	return query.Key{"audit-log", q}
}

func BudgetAllocationsKey() query.Key {
	return query.Key{"budget-allocations"}
}

func CategoriesKey() query.Key {
	return query.Key{"categories"}
}

// Prefixes used to invalidate every variant of a list.
var (
	allTransfers       = query.Key{"transfers"}
	allTransferParties = query.Key{"transfer-parties"}
	allExpenses        = query.Key{"expenses"}
	allGrants          = query.Key{"grants"}
	allAuditLogs       = query.Key{"audit-log"}
)
