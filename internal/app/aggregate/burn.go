package aggregate

import (
	"math"
	"strconv"
	"time"

	"treasury_dashboard/internal/domain/entity"
	"treasury_dashboard/internal/pkg/utils"
)

// BurnWindow is the trailing period the monthly burn rate is measured over.
const BurnWindow = 30 * 24 * time.Hour

// BurnRate sums expense prices dated within [now-BurnWindow, now]. Future-dated expenses are
// not spend yet. Quantity is not applied, matching how the ledger reports spend per line.
func BurnRate(expenses []entity.Expense, now time.Time) float64 {
	cutoff := now.Add(-BurnWindow)
	var total float64
	for _, e := range expenses {
		if e.Date.Before(cutoff) || e.Date.After(now) {
			continue
		}
		total += e.Price
	}
	return total
}

// Runway is floor(treasury / burn) in months; ok is false when burn is not positive.
func Runway(treasuryUSD, burn float64) (months int64, ok bool) {
	if burn <= 0 || math.IsNaN(burn) || math.IsInf(treasuryUSD, 0) {
		return 0, false
	}
	return int64(math.Floor(treasuryUSD / burn)), true
}

// RunwayLabel renders Runway for display, "N/A" when it is undefined.
func RunwayLabel(treasuryUSD, burn float64) string {
	months, ok := Runway(treasuryUSD, burn)
	if !ok {
		return utils.NotAvailable
	}
	return strconv.FormatInt(months, 10)
}
