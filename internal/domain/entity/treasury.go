package entity

import "time"

// FundsUnit is the unit the organization reports its total funds raised in.
type FundsUnit string

const (
	FundsUnitUSD FundsUnit = "USD"
	FundsUnitETH FundsUnit = "ETH"
)

// ETHPlaceholderAddress stands in for native ether wherever an asset address is expected.
const ETHPlaceholderAddress = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

// TreasuryOverview is the organization-wide holdings snapshot.
type TreasuryOverview struct {
	OrganizationName     string           `json:"organizationName"`
	TotalValueUSD        float64          `json:"totalValueUsd"`
	TotalValueETH        float64          `json:"totalValueEth"`
	TotalFundsRaised     float64          `json:"totalFundsRaised"`
	TotalFundsRaisedUnit FundsUnit        `json:"totalFundsRaisedUnit"`
	LastUpdated          time.Time        `json:"lastUpdated"`
	Assets               []TreasuryAsset  `json:"assets"`
	Wallets              []TreasuryWallet `json:"wallets"`
}

// TreasuryAsset is one asset summed across all treasury wallets.
type TreasuryAsset struct {
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol,omitempty"`
	Address  string  `json:"address,omitempty"`
	Decimals *int    `json:"decimals,omitempty"`
	Amount   float64 `json:"amount"`
	UsdWorth float64 `json:"usdWorth"`
	EthWorth float64 `json:"ethWorth"`
}

// TreasuryWallet is an address registered as belonging to the organization.
type TreasuryWallet struct {
	Address     string `json:"address"`
	ExplorerURL string `json:"explorerUrl"`
}
