package entity

import "math/big"

// NativeBalance is a wallet's native coin balance read directly from a chain.
type NativeBalance struct {
	Address   string   `json:"address"`
	ChainID   uint64   `json:"chainId"`
	Symbol    string   `json:"symbol"`
	Amount    *big.Int `json:"-"`
	Formatted string   `json:"formattedBalance"`
	Error     string   `json:"error,omitempty"`
}

// TxCheck is the on-chain state of a transaction hash.
type TxCheck struct {
	Hash          string `json:"hash"`
	ChainID       uint64 `json:"chainId"`
	Found         bool   `json:"found"`
	Success       bool   `json:"success"`
	BlockNumber   uint64 `json:"blockNumber,omitempty"`
	Confirmations uint64 `json:"confirmations,omitempty"`
	ExplorerURL   string `json:"explorerUrl,omitempty"`
	Error         string `json:"error,omitempty"`
}
