package aggregate

import (
	"strings"

	"treasury_dashboard/internal/domain/entity"
	"treasury_dashboard/internal/pkg/utils"

	"github.com/shopspring/decimal"
)

// TreasuryLabel names a party that is one of the organization's own wallets.
const TreasuryLabel = "Treasury"

// knownTokenDecimals covers common assets the treasury may not list.
var knownTokenDecimals = map[string]int{
	"usdc":   6,
	"usdt":   6,
	"usdcet": 6,
	"busd":   18,
	"dai":    18,
	"weth":   18,
	"wbtc":   8,
	"btc":    8,
}

// DecimalsResolver finds the decimals of a transfer's asset from treasury asset metadata.
type DecimalsResolver struct {
	byAddress map[string]int
	bySymbol  map[string]int
}

// NewDecimalsResolver indexes the assets that carry decimals by lowercased address and symbol.
func NewDecimalsResolver(assets []entity.TreasuryAsset) *DecimalsResolver {
	r := &DecimalsResolver{
		byAddress: make(map[string]int),
		bySymbol:  make(map[string]int),
	}
	for _, a := range assets {
		if a.Decimals == nil {
			continue
		}
		if a.Address != "" {
			r.byAddress[strings.ToLower(a.Address)] = *a.Decimals
		}
		if a.Symbol != "" {
			r.bySymbol[strings.ToLower(a.Symbol)] = *a.Decimals
		}
	}
	return r
}

// Resolve looks decimals up by address, then the ether placeholder, then by symbol, then in
// the table of common tokens. ok is false when none applies.
func (r *DecimalsResolver) Resolve(address, symbol string) (decimals int, ok bool) {
	if a := strings.ToLower(address); a != "" {
		if d, found := r.byAddress[a]; found {
			return d, true
		}
		if a == entity.ETHPlaceholderAddress {
			return 18, true
		}
	}
	if s := strings.ToLower(symbol); s != "" {
		if d, found := r.bySymbol[s]; found {
			return d, true
		}
		if d, found := knownTokenDecimals[s]; found {
			return d, true
		}
	}
	return 0, false
}

// DecimalsOr is Resolve with a caller default.
func (r *DecimalsResolver) DecimalsOr(address, symbol string, fallback int) int {
	if d, ok := r.Resolve(address, symbol); ok {
		return d
	}
	return fallback
}

// PartyLabeler names transfer parties, recognizing the treasury's own wallets.
type PartyLabeler struct {
	wallets map[string]struct{}
}

// NewPartyLabeler builds a labeler from the treasury wallet list.
func NewPartyLabeler(wallets []entity.TreasuryWallet) *PartyLabeler {
	addresses := make([]string, 0, len(wallets))
	for _, w := range wallets {
		addresses = append(addresses, w.Address)
	}
	return &PartyLabeler{wallets: utils.LowerSet(addresses)}
}

// IsTreasury reports whether address is one of the treasury wallets, ignoring case.
func (l *PartyLabeler) IsTreasury(address string) bool {
	if address == "" {
		return false
	}
	_, ok := l.wallets[strings.ToLower(strings.TrimSpace(address))]
	return ok
}

// Label keeps a resolved name; an unknown name becomes "Treasury" for treasury wallets and
// "Unknown" otherwise.
func (l *PartyLabeler) Label(name, address string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed != "" && !strings.EqualFold(trimmed, entity.UnknownPartyName) {
		return trimmed
	}
	if l.IsTreasury(address) {
		return TreasuryLabel
	}
	return entity.UnknownPartyName
}

// TransferRow is a transfer prepared for display.
type TransferRow struct {
	entity.TransferRecord
	PayerLabel    string `json:"payerLabel"`
	PayeeLabel    string `json:"payeeLabel"`
	Decimals      int    `json:"decimals"`
	DisplayAmount string `json:"displayAmount"`
	Formatted     string `json:"formattedAmount"`
	ShortTxHash   string `json:"shortTxHash"`
}

// TransferRows labels parties and scales amounts to token units.
func TransferRows(transfers []entity.TransferRecord, labeler *PartyLabeler, decimals *DecimalsResolver) []TransferRow {
	rows := make([]TransferRow, 0, len(transfers))
	for _, t := range transfers {
		d := decimals.DecimalsOr(t.Asset, t.AssetSymbol, utils.DefaultTokenDecimals)
		raw := t.RawAmount
		if raw == "" {
			raw = decimal.NewFromFloat(t.Amount).String()
		}
		amount := utils.FromSmallestUnit(raw, d)
		symbol := utils.FirstNonBlank(t.AssetSymbol, t.Asset)
		value, _ := amount.Float64()
		rows = append(rows, TransferRow{
			TransferRecord: t,
			PayerLabel:     labeler.Label(t.PayerName, t.PayerAddress),
			PayeeLabel:     labeler.Label(t.PayeeName, t.PayeeAddress),
			Decimals:       d,
			DisplayAmount:  amount.String(),
			Formatted:      utils.FormatTokenAmount(value, symbol),
			ShortTxHash:    shortHash(t.TxHash),
		})
	}
	return rows
}

func shortHash(hash string) string {
	if len(hash) <= 10 {
		return hash
	}
	return hash[:10] + "…"
}
