package mapper

import (
	"strings"

	"treasury_dashboard/internal/domain/entity"
	dto "treasury_dashboard/internal/entity"
)

// MilestoneStatus derives the display status: signed off, then completed, then the raw
// backend status, then pending.
func MilestoneStatus(d *dto.GrantMilestoneDTO) entity.MilestoneStatus {
	switch {
	case d == nil:
		return entity.MilestonePending
	case d.SignedOff:
		return entity.MilestoneSignedOff
	case d.Completed:
		return entity.MilestoneCompleted
	case trimmed(d.Status) != "":
		return entity.MilestoneStatus(trimmed(d.Status))
	default:
		return entity.MilestonePending
	}
}

// GrantMilestone maps a milestone.
func (m *Mapper) GrantMilestone(d *dto.GrantMilestoneDTO) entity.GrantMilestone {
	if d == nil {
		d = &dto.GrantMilestoneDTO{}
	}
	return entity.GrantMilestone{
		ID:          d.ID,
		GrantID:     d.GrantID,
		Name:        d.Name,
		Description: d.Description,
		GrantAmount: ToNumber(d.GrantAmount),
		Completed:   d.Completed,
		SignedOff:   d.SignedOff,
		Status:      MilestoneStatus(d),
		OrderIndex:  optionalInt(d.OrderIndex),
		CreatedAt:   optionalDate(d.CreatedAt, m.threshold),
		UpdatedAt:   optionalDate(d.UpdatedAt, m.threshold),
	}
}

func (m *Mapper) milestoneList(rows []*dto.GrantMilestoneDTO) []entity.GrantMilestone {
	out := make([]entity.GrantMilestone, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		out = append(out, m.GrantMilestone(row))
	}
	return out
}

// GrantMilestones maps GET /grants/:id/milestones, which is either a bare array or an
// {items, total} envelope.
func (m *Mapper) GrantMilestones(body []byte) []entity.GrantMilestone {
	rows, _ := decodeEach[*dto.GrantMilestoneDTO](itemsOrArray(body))
	return m.milestoneList(rows)
}

// GrantDisbursement maps a disbursement.
func (m *Mapper) GrantDisbursement(d *dto.GrantDisbursementDTO) entity.GrantDisbursement {
	if d == nil {
		d = &dto.GrantDisbursementDTO{}
	}
	return entity.GrantDisbursement{
		ID:             d.ID,
		GrantID:        d.GrantID,
		Amount:         ToNumber(d.Amount),
		TxHash:         d.TxHash,
		BlockNumber:    optionalInt64(d.BlockNumber),
		BlockTimestamp: optionalInt64(d.BlockTimestamp),
		CreatedAt:      optionalDate(d.CreatedAt, m.threshold),
	}
}

func (m *Mapper) disbursementList(rows []*dto.GrantDisbursementDTO) []entity.GrantDisbursement {
	out := make([]entity.GrantDisbursement, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		out = append(out, m.GrantDisbursement(row))
	}
	return out
}

// GrantDisbursements maps a disbursement list body (array, data or items envelope).
func (m *Mapper) GrantDisbursements(body []byte) []entity.GrantDisbursement {
	rows, _ := decodeEach[*dto.GrantDisbursementDTO](itemsOrArray(body))
	return m.disbursementList(rows)
}

// GrantFundsUsage maps a funds-usage list body (array, data or items envelope).
func (m *Mapper) GrantFundsUsage(body []byte) []entity.Expense {
	rows, _ := decodeEach[*dto.ExpenseDTO](itemsOrArray(body))
	return m.expenseList(rows)
}

// Grant maps a grant with its nested records. Over-disbursed grants are mapped as sent
// and logged.
func (m *Mapper) Grant(d *dto.GrantDTO) entity.Grant {
	if d == nil {
		d = &dto.GrantDTO{}
	}
	g := entity.Grant{
		ID:                     d.ID,
		Name:                   d.Name,
		RecipientName:          d.RecipientName,
		RecipientAddress:       strings.TrimSpace(d.RecipientAddress),
		Description:            d.Description,
		TeamURL:                trimmed(d.TeamURL),
		ProjectURL:             trimmed(d.ProjectURL),
		Status:                 entity.GrantStatus(d.Status),
		TotalGrantAmount:       ToNumber(d.TotalGrantAmount),
		InitialGrantAmount:     ToNumber(d.InitialGrantAmount),
		AmountGivenSoFar:       ToNumber(d.AmountGivenSoFar),
		StartDate:              ToDate(d.StartDate, m.threshold),
		ExpectedCompletionDate: ToDate(d.ExpectedCompletionDate, m.threshold),
		Milestones:             m.milestoneList(d.Milestones),
		Disbursements:          m.disbursementList(d.Disbursements),
		FundsUsage:             m.expenseList(d.FundsUsage),
	}
	if g.OverDisbursed() {
		m.warn("Grant disbursed beyond its total",
			"grantId", g.ID,
			"amountGivenSoFar", g.AmountGivenSoFar,
			"totalGrantAmount", g.TotalGrantAmount)
	}
	return g
}

// Grants maps a grant list body.
func (m *Mapper) Grants(body []byte) []entity.Grant {
	rows := ExtractList[*dto.GrantDTO](body)
	out := make([]entity.Grant, 0, len(rows))
	for _, row := range rows {
		out = append(out, m.Grant(row))
	}
	return out
}
