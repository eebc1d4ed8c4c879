package entity

import (
	"fmt"
	"time"
)

// AdminAction is the kind of write an administrator performed. The constants are
// the closed set accepted as filters; entries read back from the audit log may carry
// other values (the backend also records settings changes) and are displayed as-is.
type AdminAction string

const (
	ActionCreateExpense       AdminAction = "create_expense"
	ActionUpdateExpense       AdminAction = "update_expense"
	ActionDeleteExpense       AdminAction = "delete_expense"
	ActionUploadReceipt       AdminAction = "upload_receipt"
	ActionDeleteReceipt       AdminAction = "delete_receipt"
	ActionCreateGrant         AdminAction = "create_grant"
	ActionUpdateGrant         AdminAction = "update_grant"
	ActionUpdateMilestones    AdminAction = "update_milestones"
	ActionAddAdmin            AdminAction = "add_admin"
	ActionRemoveAdmin         AdminAction = "remove_admin"
	ActionUpdateTransferParty AdminAction = "update_transfer_party"
)

var knownAdminActions = map[AdminAction]struct{}{
	ActionCreateExpense:       {},
	ActionUpdateExpense:       {},
	ActionDeleteExpense:       {},
	ActionUploadReceipt:       {},
	ActionDeleteReceipt:       {},
	ActionCreateGrant:         {},
	ActionUpdateGrant:         {},
	ActionUpdateMilestones:    {},
	ActionAddAdmin:            {},
	ActionRemoveAdmin:         {},
	ActionUpdateTransferParty: {},
}

// IsKnown reports whether a belongs to the closed action set.
func (a AdminAction) IsKnown() bool {
	_, ok := knownAdminActions[a]
	return ok
}

// ParseAdminAction validates s against the closed action set.
func ParseAdminAction(s string) (AdminAction, error) {
	a := AdminAction(s)
	if !a.IsKnown() {
		return "", fmt.Errorf("unknown admin action %q", s)
	}
	return a, nil
}

// ResourceType is the kind of record an admin action touched.
type ResourceType string

const (
	ResourceExpense       ResourceType = "expense"
	ResourceReceipt       ResourceType = "receipt"
	ResourceGrant         ResourceType = "grant"
	ResourceAdmin         ResourceType = "admin"
	ResourceTransferParty ResourceType = "transfer_party"
)

// AuditLogEntry is one recorded administrator write.
type AuditLogEntry struct {
	ID           string         `json:"id"`
	AdminAddress string         `json:"adminAddress"`
	AdminName    string         `json:"adminName"`
	Action       AdminAction    `json:"action"`
	ResourceType ResourceType   `json:"resourceType"`
	ResourceID   string         `json:"resourceId"`
	Details      map[string]any `json:"details,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Admin is a dashboard administrator.
type Admin struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}
