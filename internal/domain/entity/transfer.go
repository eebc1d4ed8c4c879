package entity

import "time"

// TransferDirection is relative to the treasury.
type TransferDirection string

const (
	TransferIncoming TransferDirection = "incoming"
	TransferOutgoing TransferDirection = "outgoing"
)

// UnknownPartyName is shown when no usable name was resolved for a party.
const UnknownPartyName = "Unknown"

// TransferRecord is a token movement into or out of a treasury wallet.
// TxHash is the row identity.
type TransferRecord struct {
	ID           string            `json:"id"`
	Chain        string            `json:"chain"`
	TxHash       string            `json:"txHash"`
	ExplorerURL  string            `json:"explorerUrl"`
	Direction    TransferDirection `json:"direction"`
	PayerName    string            `json:"payerName"`
	PayerAddress string            `json:"payerAddress,omitempty"`
	PayeeName    string            `json:"payeeName"`
	PayeeAddress string            `json:"payeeAddress,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
	BlockNumber  int64             `json:"blockNumber"`
	Asset        string            `json:"asset"`
	AssetSymbol  string            `json:"assetSymbol,omitempty"`
	// Amount is in the asset's smallest unit; RawAmount keeps the exact backend text.
	Amount    float64 `json:"amount"`
	RawAmount string  `json:"rawAmount"`
}

// TransferParty is a named counterparty address.
type TransferParty struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}
