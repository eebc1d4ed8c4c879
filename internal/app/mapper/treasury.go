package mapper

import (
	"sort"
	"strings"

	"treasury_dashboard/internal/domain/entity"
	dto "treasury_dashboard/internal/entity"
)

const unknownAssetName = "Unknown asset"

// KnownSymbol returns the symbol hardcoded for well-known placeholder addresses.
func KnownSymbol(address string) string {
	if strings.EqualFold(strings.TrimSpace(address), entity.ETHPlaceholderAddress) {
		return "ETH"
	}
	return ""
}

func balanceSymbol(address string, meta *dto.TreasuryAssetDTO, balance *dto.TreasuryWalletBalanceDTO) string {
	if balance != nil {
		if s := trimmed(balance.AssetSymbol); s != "" {
			return s
		}
	}
	if meta != nil {
		if s := trimmed(meta.Symbol); s != "" {
			return s
		}
	}
	return KnownSymbol(address)
}

func balanceName(address string, meta *dto.TreasuryAssetDTO, balance *dto.TreasuryWalletBalanceDTO) string {
	if symbol := balanceSymbol(address, meta, balance); symbol != "" {
		return symbol
	}
	if balance != nil {
		if s := trimmed(balance.AssetName); s != "" {
			return s
		}
	}
	if meta != nil {
		if s := strings.TrimSpace(meta.Name); s != "" {
			return s
		}
	}
	if address != "" {
		return address
	}
	return unknownAssetName
}

func assetIndex(assets []*dto.TreasuryAssetDTO) map[string]*dto.TreasuryAssetDTO {
	index := make(map[string]*dto.TreasuryAssetDTO, len(assets))
	for _, asset := range assets {
		if asset == nil || str(asset.Address) == "" {
			continue
		}
		index[strings.ToLower(*asset.Address)] = asset
	}
	return index
}

// aggregateWalletBalances sums balances of the same asset (keyed by lowercased address)
// across wallets, in first-seen order. Balances without an address are dropped.
func aggregateWalletBalances(balances []*dto.TreasuryWalletBalanceDTO, index map[string]*dto.TreasuryAssetDTO) []entity.TreasuryAsset {
	positions := make(map[string]int)
	var out []entity.TreasuryAsset

	for _, balance := range balances {
		if balance == nil {
			continue
		}
		address := str(balance.Address)
		key := strings.ToLower(address)
		if key == "" {
			continue
		}

		meta := index[key]
		symbol := balanceSymbol(address, meta, balance)
		name := balanceName(address, meta, balance)
		var decimals *int
		if meta != nil {
			decimals = optionalInt(meta.Decimals)
		}

		pos, seen := positions[key]
		if !seen {
			out = append(out, entity.TreasuryAsset{
				Name:     name,
				Symbol:   symbol,
				Address:  address,
				Decimals: decimals,
			})
			pos = len(out) - 1
			positions[key] = pos
		}
		existing := &out[pos]

		existing.Amount += ToNumber(balance.Amount)
		existing.UsdWorth += ToNumber(balance.UsdWorth)
		existing.EthWorth += ToNumber(balance.EthWorth)

		if symbol != "" && existing.Symbol == "" {
			existing.Symbol = symbol
		}
		if name != "" && (existing.Name == "" || strings.EqualFold(existing.Name, existing.Address)) {
			existing.Name = name
		}
		if decimals != nil && existing.Decimals == nil {
			existing.Decimals = decimals
		}
	}
	return out
}

func flatAssets(assets []*dto.TreasuryAssetDTO) []entity.TreasuryAsset {
	out := make([]entity.TreasuryAsset, 0, len(assets))
	for _, asset := range assets {
		if asset == nil {
			continue
		}
		name := asset.Name
		if asset.Symbol != nil {
			name = *asset.Symbol
		}
		out = append(out, entity.TreasuryAsset{
			Name:     name,
			Symbol:   str(asset.Symbol),
			Address:  str(asset.Address),
			Decimals: optionalInt(asset.Decimals),
			Amount:   ToNumber(asset.Amount),
			UsdWorth: ToNumber(asset.UsdWorth),
			EthWorth: ToNumber(asset.EthWorth),
		})
	}
	return out
}

// Treasury maps GET /treasury. Per-wallet balances, when present, are summed per asset
// and drive the ETH total; otherwise the flat asset list is used. Assets are sorted by
// USD worth, largest first.
func (m *Mapper) Treasury(d *dto.TreasuryResponseDTO) entity.TreasuryOverview {
	if d == nil {
		d = &dto.TreasuryResponseDTO{}
	}

	var assets []entity.TreasuryAsset
	totalETH := ToNumber(d.TotalValueEth)
	if len(d.WalletBalances) > 0 {
		assets = aggregateWalletBalances(d.WalletBalances, assetIndex(d.Assets))
		totalETH = 0
		for _, balance := range d.WalletBalances {
			if balance != nil {
				totalETH += ToNumber(balance.EthWorth)
			}
		}
	} else {
		assets = flatAssets(d.Assets)
	}
	if assets == nil {
		assets = []entity.TreasuryAsset{}
	}
	sort.SliceStable(assets, func(i, j int) bool {
		return assets[i].UsdWorth > assets[j].UsdWorth
	})

	unit := entity.FundsUnitUSD
	if d.TotalFundsRaisedUnit != nil {
		unit = entity.FundsUnit(*d.TotalFundsRaisedUnit)
	}

	return entity.TreasuryOverview{
		OrganizationName:     str(d.OrganizationName),
		TotalValueUSD:        ToNumber(d.TotalValueUsd),
		TotalValueETH:        totalETH,
		TotalFundsRaised:     ToNumber(d.TotalFundsRaised),
		TotalFundsRaisedUnit: unit,
		LastUpdated:          ToDate(d.LastUpdated, m.threshold),
		Assets:               assets,
		Wallets:              m.TreasuryWallets(d.Wallets),
	}
}

// TreasuryWallet maps a wallet, deriving the explorer link when the backend omits it.
func (m *Mapper) TreasuryWallet(d *dto.TreasuryWalletDTO) entity.TreasuryWallet {
	if d == nil {
		return entity.TreasuryWallet{}
	}
	link := str(d.EtherscanLink)
	if d.EtherscanLink == nil {
		link = m.links.AddressURL(d.Address)
	}
	return entity.TreasuryWallet{Address: d.Address, ExplorerURL: link}
}

// TreasuryWallets maps a wallet list; nil yields an empty slice.
func (m *Mapper) TreasuryWallets(wallets []*dto.TreasuryWalletDTO) []entity.TreasuryWallet {
	out := make([]entity.TreasuryWallet, 0, len(wallets))
	for _, w := range wallets {
		if w == nil {
			continue
		}
		out = append(out, m.TreasuryWallet(w))
	}
	return out
}

// TreasuryWalletsBody maps a GET /treasury/wallets body (bare array or data envelope).
func (m *Mapper) TreasuryWalletsBody(body []byte) []entity.TreasuryWallet {
	return m.TreasuryWallets(ExtractList[*dto.TreasuryWalletDTO](body))
}
