package mapper

import (
	"strings"
	"time"

	"treasury_dashboard/internal/domain/entity"
	dto "treasury_dashboard/internal/entity"

	"github.com/shopspring/decimal"
)

func partyName(p *dto.TransferPartyDTO) *string {
	if p == nil {
		return nil
	}
	return &p.Name
}

func partyAddress(p *dto.TransferPartyDTO) *string {
	if p == nil {
		return nil
	}
	return &p.Address
}

// Transfer maps a transfer row. Party names and addresses are resolved across the
// snake_case, camelCase and nested spellings; the timestamp falls back to the block
// timestamp.
func (m *Mapper) Transfer(d *dto.TransferDTO) entity.TransferRecord {
	if d == nil {
		d = &dto.TransferDTO{}
	}
	link := d.EtherscanLink
	if link == "" {
		link = m.links.TxURL(d.TxHash)
	}
	ts := d.Timestamp
	if ts.IsNull() {
		ts = d.BlockTimestamp
	}
	var block int64
	if n := optionalInt64(d.BlockNumber); n != nil {
		block = *n
	}
	return entity.TransferRecord{
		ID:           d.TxHash,
		Chain:        d.Chain,
		TxHash:       d.TxHash,
		ExplorerURL:  link,
		Direction:    entity.TransferDirection(d.Direction),
		PayerName:    ResolveName(d.PayerNameSnake, d.PayerName, partyName(d.Payer)),
		PayerAddress: ResolveAddress(d.PayerAddrSnake, d.PayerAddress, partyAddress(d.Payer)),
		PayeeName:    ResolveName(d.PayeeNameSnake, d.PayeeName, partyName(d.Payee)),
		PayeeAddress: ResolveAddress(d.PayeeAddrSnake, d.PayeeAddress, partyAddress(d.Payee)),
		Timestamp:    ToDate(ts, m.threshold),
		BlockNumber:  block,
		Asset:        d.Asset,
		AssetSymbol:  resolveSymbol(d.AssetSymbol, d.AssetSymSnake),
		Amount:       ToNumber(d.Amount),
		RawAmount:    d.Amount.Raw(),
	}
}

// Transfers maps a transfer list body.
func (m *Mapper) Transfers(body []byte) []entity.TransferRecord {
	rows := ExtractList[*dto.TransferDTO](body)
	out := make([]entity.TransferRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, m.Transfer(row))
	}
	return out
}

// TransferParty maps a named counterparty.
func (m *Mapper) TransferParty(d *dto.TransferPartyDTO) entity.TransferParty {
	if d == nil {
		return entity.TransferParty{}
	}
	return entity.TransferParty{Name: strings.TrimSpace(d.Name), Address: strings.TrimSpace(d.Address)}
}

// TransferParties maps a transfer-party list body.
func (m *Mapper) TransferParties(body []byte) []entity.TransferParty {
	rows := ExtractList[*dto.TransferPartyDTO](body)
	out := make([]entity.TransferParty, 0, len(rows))
	for _, row := range rows {
		out = append(out, m.TransferParty(row))
	}
	return out
}

// Expense maps an expense row. A missing quantity counts as one item.
func (m *Mapper) Expense(d *dto.ExpenseDTO) entity.Expense {
	if d == nil {
		d = &dto.ExpenseDTO{}
	}
	quantity := 1.0
	if !d.Quantity.IsNull() {
		quantity = ToNumber(d.Quantity)
	}
	receipts := make([]entity.ExpenseReceipt, 0, len(d.Receipts))
	for _, r := range d.Receipts {
		if r == nil {
			continue
		}
		receipts = append(receipts, m.ExpenseReceipt(r))
	}
	return entity.Expense{
		ID:       d.ID,
		Item:     d.Item,
		Category: d.Category,
		Quantity: quantity,
		Price:    ToNumber(d.Price),
		Purpose:  d.Purpose,
		Date:     ToDate(d.Date, m.threshold),
		TxHash:   trimmed(d.TxHash),
		Receipts: receipts,
	}
}

// ExpenseReceipt maps a receipt reference.
func (m *Mapper) ExpenseReceipt(d *dto.ExpenseReceiptDTO) entity.ExpenseReceipt {
	if d == nil {
		return entity.ExpenseReceipt{}
	}
	return entity.ExpenseReceipt{ID: d.UUID, Name: d.Name, DownloadURL: d.DownloadURL}
}

// Expenses maps an expense list body.
func (m *Mapper) Expenses(body []byte) []entity.Expense {
	return m.expenseList(ExtractList[*dto.ExpenseDTO](body))
}

func (m *Mapper) expenseList(rows []*dto.ExpenseDTO) []entity.Expense {
	out := make([]entity.Expense, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		out = append(out, m.Expense(row))
	}
	return out
}

// Category maps an expense category.
func (m *Mapper) Category(d *dto.CategoryDTO) entity.Category {
	if d == nil {
		return entity.Category{}
	}
	return entity.Category{Name: d.Name, Description: d.Description}
}

// Categories maps a category list body.
func (m *Mapper) Categories(body []byte) []entity.Category {
	rows := ExtractList[*dto.CategoryDTO](body)
	out := make([]entity.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, m.Category(row))
	}
	return out
}

// Admins maps an admin list body.
func (m *Mapper) Admins(body []byte) []entity.Admin {
	rows := ExtractList[*dto.AdminDTO](body)
	out := make([]entity.Admin, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		out = append(out, entity.Admin{Name: row.Name, Address: row.Address})
	}
	return out
}

// AuditLogEntry maps an audit row. Actions outside the known set are kept as sent.
func (m *Mapper) AuditLogEntry(d *dto.AdminActionDTO) entity.AuditLogEntry {
	if d == nil {
		d = &dto.AdminActionDTO{}
	}
	action := entity.AdminAction(d.Action)
	if !action.IsKnown() && d.Action != "" {
		m.warn("Audit entry with unrecognized action", "action", d.Action, "id", d.ID)
	}
	return entity.AuditLogEntry{
		ID:           d.ID,
		AdminAddress: d.AdminAddress,
		AdminName:    d.AdminName,
		Action:       action,
		ResourceType: entity.ResourceType(d.ResourceType),
		ResourceID:   d.ResourceID,
		Details:      d.Details,
		Timestamp:    ToDate(d.Timestamp, m.threshold),
	}
}

// AuditLog maps an audit log list body.
func (m *Mapper) AuditLog(body []byte) []entity.AuditLogEntry {
	rows := ExtractList[*dto.AdminActionDTO](body)
	out := make([]entity.AuditLogEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, m.AuditLogEntry(row))
	}
	return out
}

// BudgetAllocation maps a budget line. The amount keeps its exact decimal value;
// unreadable amounts become zero.
func (m *Mapper) BudgetAllocation(d *dto.MonthlyBudgetAllocationDTO) entity.MonthlyBudgetAllocation {
	if d == nil {
		d = &dto.MonthlyBudgetAllocationDTO{}
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(d.Amount.Raw()))
	if err != nil {
		amount = decimal.NewFromFloat(ToNumber(d.Amount))
	}
	return entity.MonthlyBudgetAllocation{
		ID:        d.ID,
		Category:  d.Category,
		Amount:    amount,
		Manager:   trimmed(d.Manager),
		CreatedAt: ToDate(d.CreatedAt, m.threshold),
		UpdatedAt: ToDate(d.UpdatedAt, m.threshold),
	}
}

// BudgetAllocations maps an allocation list body.
func (m *Mapper) BudgetAllocations(body []byte) []entity.MonthlyBudgetAllocation {
	rows := ExtractList[*dto.MonthlyBudgetAllocationDTO](body)
	out := make([]entity.MonthlyBudgetAllocation, 0, len(rows))
	for _, row := range rows {
		out = append(out, m.BudgetAllocation(row))
	}
	return out
}

func optionalDate(v dto.Value, threshold float64) *time.Time {
	if v.IsNull() || (v.IsString() && strings.TrimSpace(v.Raw()) == "") {
		return nil
	}
	t := ToDate(v, threshold)
	return &t
}
