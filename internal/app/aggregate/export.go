package aggregate

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"treasury_dashboard/internal/domain/entity"
	"treasury_dashboard/internal/pkg/utils"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ExportFileName is "<prefix>_<yyyy-mm-dd>.<ext>" for the UTC date of now.
func ExportFileName(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, now.UTC().Format("2006-01-02"), ext)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// WriteTransfersCSV writes transfer rows with display amounts.
func WriteTransfersCSV(w io.Writer, rows []TransferRow) error {
	header := []string{
		"Date", "Transaction Hash", "From Address", "From Name", "To Address", "To Name",
		"Amount", "Asset", "Direction", "Block Number",
	}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			utils.FormatDateTime(r.Timestamp),
			r.TxHash,
			r.PayerAddress,
			r.PayerLabel,
			r.PayeeAddress,
			r.PayeeLabel,
			r.DisplayAmount,
			utils.FirstNonBlank(r.AssetSymbol, r.Asset),
			string(r.Direction),
			strconv.FormatInt(r.BlockNumber, 10),
		})
	}
	return writeCSV(w, header, records)
}

// WriteExpensesCSV writes one line per expense.
func WriteExpensesCSV(w io.Writer, expenses []entity.Expense) error {
	header := []string{"ID", "Date", "Item", "Category", "Quantity", "Price", "Total", "Purpose", "Transaction Hash", "Receipts"}
	records := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		records = append(records, []string{
			e.ID,
			utils.FormatDate(e.Date),
			e.Item,
			e.Category,
			strconv.FormatFloat(e.Quantity, 'f', -1, 64),
			strconv.FormatFloat(e.Price, 'f', 2, 64),
			strconv.FormatFloat(e.Total(), 'f', 2, 64),
			e.Purpose,
			e.TxHash,
			strconv.Itoa(len(e.Receipts)),
		})
	}
	return writeCSV(w, header, records)
}

// WriteAuditLogCSV writes audit entries; details are embedded as a JSON object.
func WriteAuditLogCSV(w io.Writer, entries []entity.AuditLogEntry) error {
	header := []string{"ID", "Timestamp", "Admin Address", "Admin Name", "Action", "Resource Type", "Resource ID", "Details"}
	records := make([][]string, 0, len(entries))
	for _, e := range entries {
		details := ""
		if len(e.Details) > 0 {
			raw, err := json.Marshal(e.Details)
			if err != nil {
				return fmt.Errorf("encode details of %s: %w", e.ID, err)
			}
			details = string(raw)
		}
		records = append(records, []string{
			e.ID,
			e.Timestamp.UTC().Format(time.RFC3339),
			e.AdminAddress,
			e.AdminName,
			string(e.Action),
			string(e.ResourceType),
			e.ResourceID,
			details,
		})
	}
	return writeCSV(w, header, records)
}

// SnapshotMetrics are the headline numbers of a snapshot.
type SnapshotMetrics struct {
	TotalValue       float64 `json:"totalValue"`
	MonthlyBurnRate  float64 `json:"monthlyBurnRate"`
	Runway           string  `json:"runway"`
	TransactionCount int     `json:"transactionCount"`
}

// Snapshot is the downloadable dashboard export.
type Snapshot struct {
	Timestamp      time.Time                `json:"timestamp"`
	Treasury       *entity.TreasuryOverview `json:"treasury,omitempty"`
	Assets         []entity.TreasuryAsset   `json:"assets"`
	Metrics        SnapshotMetrics          `json:"metrics"`
	RecentActivity []TransferRow            `json:"recentActivity"`
}

// maxSnapshotActivity caps the transfers carried in a snapshot.
const maxSnapshotActivity = 50

// NewSnapshot captures view.
func NewSnapshot(view *DashboardView) Snapshot {
	s := Snapshot{
		Timestamp:      view.GeneratedAt.UTC(),
		Treasury:       view.Treasury,
		Assets:         []entity.TreasuryAsset{},
		RecentActivity: view.Transfers,
		Metrics: SnapshotMetrics{
			MonthlyBurnRate:  view.BurnRate,
			Runway:           view.Runway,
			TransactionCount: len(view.Transfers),
		},
	}
	if view.Treasury != nil {
		s.Assets = view.Treasury.Assets
		s.Metrics.TotalValue = view.Treasury.TotalValueUSD
	}
	if len(s.RecentActivity) > maxSnapshotActivity {
		s.RecentActivity = s.RecentActivity[:maxSnapshotActivity]
	}
	return s
}

// WriteJSON writes v indented by two spaces.
func WriteJSON(w io.Writer, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	_, err = w.Write(append(raw, '\n'))
	return err
}
