package aggregate

import (
	"time"

	"treasury_dashboard/internal/domain/entity"
)

// Variant is a status pill color.
type Variant string

const (
	VariantSuccess Variant = "success"
	VariantWarning Variant = "warning"
	VariantInfo    Variant = "info"
)

// StatusDisplay is a label and color for a status pill.
type StatusDisplay struct {
	Label   string  `json:"label"`
	Variant Variant `json:"variant"`
}

// MilestoneDisplay maps a milestone status to its pill.
func MilestoneDisplay(status entity.MilestoneStatus) StatusDisplay {
	switch status {
	case entity.MilestoneSignedOff:
		return StatusDisplay{Label: "Signed off", Variant: VariantSuccess}
	case entity.MilestoneCompleted:
		return StatusDisplay{Label: "Completed", Variant: VariantSuccess}
	default:
		return StatusDisplay{Label: "Pending", Variant: VariantInfo}
	}
}

// SignOffDisplay is the separate sign-off pill.
func SignOffDisplay(signedOff bool) StatusDisplay {
	if signedOff {
		return StatusDisplay{Label: "Signed", Variant: VariantSuccess}
	}
	return StatusDisplay{Label: "Pending", Variant: VariantWarning}
}

// GrantStatusDisplay colors free-text grant statuses: anything mentioning completion is green.
func GrantStatusDisplay(status entity.GrantStatus) StatusDisplay {
	label := string(status)
	if label == "" {
		label = string(entity.GrantStatusPending)
	}
	if status.IsCompleted() {
		return StatusDisplay{Label: label, Variant: VariantSuccess}
	}
	return StatusDisplay{Label: label, Variant: VariantInfo}
}

// MilestoneRow is a milestone with its pills.
type MilestoneRow struct {
	entity.GrantMilestone
	StatusDisplay  StatusDisplay `json:"statusDisplay"`
	SignOffDisplay StatusDisplay `json:"signOffDisplay"`
}

// GrantView is the grant detail page.
type GrantView struct {
	Grant         entity.Grant   `json:"grant"`
	Status        StatusDisplay  `json:"status"`
	Milestones    []MilestoneRow `json:"milestones"`
	OverDisbursed bool           `json:"overDisbursed"`
	Remaining     float64        `json:"remaining"`
	Overdue       bool           `json:"overdue"`
}

// BuildGrantView decorates g. milestones replaces the embedded list when non-nil.
func BuildGrantView(g entity.Grant, milestones []entity.GrantMilestone, now time.Time) GrantView {
	if milestones == nil {
		milestones = g.Milestones
	}
	rows := make([]MilestoneRow, 0, len(milestones))
	for _, m := range milestones {
		rows = append(rows, MilestoneRow{
			GrantMilestone: m,
			StatusDisplay:  MilestoneDisplay(m.Status),
			SignOffDisplay: SignOffDisplay(m.SignedOff),
		})
	}
	end := g.ExpectedCompletionDate
	return GrantView{
		Grant:         g,
		Status:        GrantStatusDisplay(g.Status),
		Milestones:    rows,
		OverDisbursed: g.OverDisbursed(),
		Remaining:     g.Remaining(),
		Overdue:       end.Unix() > 0 && end.Before(now) && !g.Status.IsCompleted(),
	}
}
