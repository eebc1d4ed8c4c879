package port

// ExplorerLinker builds block explorer links for the default chain.
type ExplorerLinker interface {
	AddressURL(address string) string
	TxURL(txHash string) string
}
