package entity

import (
	"strings"
	"time"
)

// GrantStatus is free text on read ("milestone 2 of 4", "active", ...). The named
// values are what the admin tools write; unknown values are passed through for display.
type GrantStatus string

const (
	GrantStatusPending   GrantStatus = "pending"
	GrantStatusActive    GrantStatus = "active"
	GrantStatusCompleted GrantStatus = "completed"
)

// IsKnown reports whether s is one of the statuses the admin tools write.
func (s GrantStatus) IsKnown() bool {
	switch s {
	case GrantStatusPending, GrantStatusActive, GrantStatusCompleted:
		return true
	}
	return false
}

// IsCompleted reports whether the status text marks the grant as finished.
func (s GrantStatus) IsCompleted() bool {
	return strings.Contains(string(s), string(GrantStatusCompleted))
}

// MilestoneStatus is the display status of a milestone. Unknown backend values pass through.
type MilestoneStatus string

const (
	MilestonePending   MilestoneStatus = "pending"
	MilestoneCompleted MilestoneStatus = "completed"
	MilestoneSignedOff MilestoneStatus = "signed_off"
)

// IsKnown reports whether s is one of the statuses the admin tools write.
func (s MilestoneStatus) IsKnown() bool {
	switch s {
	case MilestonePending, MilestoneCompleted, MilestoneSignedOff:
		return true
	}
	return false
}

// Grant is a funding commitment to an external recipient.
type Grant struct {
	ID                     string              `json:"id"`
	Name                   string              `json:"name"`
	RecipientName          string              `json:"recipientName"`
	RecipientAddress       string              `json:"recipientAddress"`
	Description            string              `json:"description"`
	TeamURL                string              `json:"teamUrl,omitempty"`
	ProjectURL             string              `json:"projectUrl,omitempty"`
	Status                 GrantStatus         `json:"status"`
	TotalGrantAmount       float64             `json:"totalGrantAmount"`
	InitialGrantAmount     float64             `json:"initialGrantAmount"`
	AmountGivenSoFar       float64             `json:"amountGivenSoFar"`
	StartDate              time.Time           `json:"startDate"`
	ExpectedCompletionDate time.Time           `json:"expectedCompletionDate"`
	Milestones             []GrantMilestone    `json:"milestones"`
	Disbursements          []GrantDisbursement `json:"disbursements"`
	FundsUsage             []Expense           `json:"fundsUsage"`
}

// OverDisbursed reports whether more has been paid out than the grant total.
// The backend does not enforce this, so it is surfaced as a flag.
func (g Grant) OverDisbursed() bool {
	return g.AmountGivenSoFar > g.TotalGrantAmount
}

// Remaining is the undisbursed part of the grant, never negative.
func (g Grant) Remaining() float64 {
	if g.OverDisbursed() {
		return 0
	}
	return g.TotalGrantAmount - g.AmountGivenSoFar
}

// GrantMilestone is a deliverable that unlocks part of a grant.
type GrantMilestone struct {
	ID          string          `json:"id"`
	GrantID     string          `json:"grantId,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	GrantAmount float64         `json:"grantAmount"`
	Completed   bool            `json:"completed"`
	SignedOff   bool            `json:"signedOff"`
	Status      MilestoneStatus `json:"status"`
	OrderIndex  *int            `json:"orderIndex,omitempty"`
	CreatedAt   *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

// GrantDisbursement is an on-chain payment made against a grant.
type GrantDisbursement struct {
	ID             string     `json:"id"`
	GrantID        string     `json:"grantId"`
	Amount         float64    `json:"amount"`
	TxHash         string     `json:"txHash"`
	BlockNumber    *int64     `json:"blockNumber,omitempty"`
	BlockTimestamp *int64     `json:"blockTimestamp,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}
