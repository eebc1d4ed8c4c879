package entity

// NetworkDefinition describes an EVM chain the dashboard can display data for.
type NetworkDefinition struct {
	ChainID          uint64 `json:"chainId" yaml:"chainId"`
	Name             string `json:"name" yaml:"name"`
	Identifier       string `json:"identifier" yaml:"identifier"` // short name, e.g. "mainnet", "base"
	NativeSymbol     string `json:"nativeSymbol" yaml:"nativeSymbol"`
	Decimals         int32  `json:"decimals" yaml:"decimals"` // native token decimals
	BlockExplorerURL string `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`
	Testnet          bool   `json:"testnet,omitempty" yaml:"testnet,omitempty"`
}
