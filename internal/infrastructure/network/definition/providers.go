package networkdefinition

import (
	"fmt"
	"strings"

	"treasury_dashboard/internal/app/port"
	"treasury_dashboard/internal/domain/entity"
)

// DefaultExplorerURL is used when no chain (or a chain without an explorer) is known.
const DefaultExplorerURL = "https://etherscan.io"

// ExplorerKind selects the explorer path segment.
type ExplorerKind string

const (
	ExplorerAddress ExplorerKind = "address"
	ExplorerTx      ExplorerKind = "tx"
)

// Predefined network definitions
var ( //nolint:gochecknoglobals // Global for definitions
	Mainnet = entity.NetworkDefinition{
		ChainID:          1,
		Name:             "Ethereum",
		Identifier:       "mainnet",
		NativeSymbol:     "ETH",
		Decimals:         18,
		BlockExplorerURL: "https://etherscan.io",
	}
	Optimism = entity.NetworkDefinition{
		ChainID:          10,
		Name:             "OP Mainnet",
		Identifier:       "optimism",
		NativeSymbol:     "ETH",
		Decimals:         18,
		BlockExplorerURL: "https://optimistic.etherscan.io",
	}
	Polygon = entity.NetworkDefinition{
		ChainID:          137,
		Name:             "Polygon",
		Identifier:       "polygon",
		NativeSymbol:     "POL",
		Decimals:         18,
		BlockExplorerURL: "https://polygonscan.com",
	}
	Arbitrum = entity.NetworkDefinition{
		ChainID:          42161,
		Name:             "Arbitrum One",
		Identifier:       "arbitrum",
		NativeSymbol:     "ETH",
		Decimals:         18,
		BlockExplorerURL: "https://arbiscan.io",
	}
	Base = entity.NetworkDefinition{
		ChainID:          8453,
		Name:             "Base",
		Identifier:       "base",
		NativeSymbol:     "ETH",
		Decimals:         18,
		BlockExplorerURL: "https://basescan.org",
	}
	Gnosis = entity.NetworkDefinition{
		ChainID:          100,
		Name:             "Gnosis",
		Identifier:       "gnosis",
		NativeSymbol:     "XDAI",
		Decimals:         18,
		BlockExplorerURL: "https://gnosisscan.io",
	}
	Celo = entity.NetworkDefinition{
		ChainID:          42220,
		Name:             "Celo",
		Identifier:       "celo",
		NativeSymbol:     "CELO",
		Decimals:         18,
		BlockExplorerURL: "https://celoscan.io",
	}
	Sepolia = entity.NetworkDefinition{
		ChainID:          11155111,
		Name:             "Sepolia",
		Identifier:       "sepolia",
		NativeSymbol:     "ETH",
		Decimals:         18,
		BlockExplorerURL: "https://sepolia.etherscan.io",
		Testnet:          true,
	}
)

var allKnownDefinitions = []entity.NetworkDefinition{
	Mainnet, Optimism, Polygon, Arbitrum, Base, Gnosis, Celo, Sepolia,
}

// DefaultChainIDs are the supported chains when configuration lists none.
var DefaultChainIDs = []uint64{Mainnet.ChainID, Optimism.ChainID, Base.ChainID}

// ChainByID looks a chain up in the registry.
func ChainByID(chainID uint64) (entity.NetworkDefinition, bool) {
	for _, def := range allKnownDefinitions {
		if def.ChainID == chainID {
			return def, true
		}
	}
	return entity.NetworkDefinition{}, false
}

// ChainByIdentifier looks a chain up by its short name (case-insensitive).
func ChainByIdentifier(identifier string) (entity.NetworkDefinition, bool) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	for _, def := range allKnownDefinitions {
		if def.Identifier == identifier {
			return def, true
		}
	}
	return entity.NetworkDefinition{}, false
}

// AllChains returns a copy of every known chain.
func AllChains() []entity.NetworkDefinition {
	defsCopy := make([]entity.NetworkDefinition, len(allKnownDefinitions))
	copy(defsCopy, allKnownDefinitions)
	return defsCopy
}

// NetworkDefinitionProvider holds the chains this deployment supports and the default one.
type NetworkDefinitionProvider struct {
	logger       port.Logger
	active       []entity.NetworkDefinition
	defaultChain entity.NetworkDefinition
}

// NewNetworkDefinitionProvider resolves the configured chain ids against the registry.
// Unknown ids are dropped; an empty result falls back to DefaultChainIDs. The default chain
// falls back to the first resolved chain when its id is not among them.
func NewNetworkDefinitionProvider(log port.Logger, chainIDs []uint64, defaultChainID uint64) *NetworkDefinitionProvider {
	p := &NetworkDefinitionProvider{logger: log}

	seen := make(map[uint64]struct{})
	for _, id := range chainIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		def, ok := ChainByID(id)
		if !ok {
			p.warn(fmt.Sprintf("Unknown chain id %d in configuration. Skipping.", id))
			continue
		}
		seen[id] = struct{}{}
		p.active = append(p.active, def)
	}

	if len(p.active) == 0 {
		for _, id := range DefaultChainIDs {
			def, _ := ChainByID(id)
			p.active = append(p.active, def)
		}
	}

	p.defaultChain = p.active[0]
	for _, def := range p.active {
		if def.ChainID == defaultChainID {
			p.defaultChain = def
			break
		}
	}
	if p.logger != nil {
		p.logger.Debug("Chains resolved", "active", len(p.active), "default", p.defaultChain.Identifier)
	}
	return p
}

func (p *NetworkDefinitionProvider) warn(msg string) {
	if p.logger != nil {
		p.logger.Warn(msg)
	}
}

// GetAllNetworkDefinitions returns the supported chains.
func (p *NetworkDefinitionProvider) GetAllNetworkDefinitions() []entity.NetworkDefinition {
	if p == nil {
		return []entity.NetworkDefinition{}
	}
	defsCopy := make([]entity.NetworkDefinition, len(p.active))
	copy(defsCopy, p.active)
	return defsCopy
}

// DefaultChain returns the chain used for explorer links.
func (p *NetworkDefinitionProvider) DefaultChain() entity.NetworkDefinition {
	if p == nil {
		return Mainnet
	}
	return p.defaultChain
}

// GetNetworkDefinitionByChainID returns a supported chain by id.
func (p *NetworkDefinitionProvider) GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool) {
	if p == nil {
		return entity.NetworkDefinition{}, false
	}
	for _, def := range p.active {
		if def.ChainID == chainID {
			return def, true
		}
	}
	return entity.NetworkDefinition{}, false
}

// AddressURL links an address on the default chain's explorer.
func (p *NetworkDefinitionProvider) AddressURL(address string) string {
	chain := p.DefaultChain()
	return ExplorerURL(ExplorerAddress, address, &chain)
}

// TxURL links a transaction on the default chain's explorer.
func (p *NetworkDefinitionProvider) TxURL(txHash string) string {
	chain := p.DefaultChain()
	return ExplorerURL(ExplorerTx, txHash, &chain)
}

// ExplorerURL builds "<explorer>/<kind>/<value>"; a nil chain or one without an explorer uses
// DefaultExplorerURL.
func ExplorerURL(kind ExplorerKind, value string, chain *entity.NetworkDefinition) string {
	base := DefaultExplorerURL
	if chain != nil && chain.BlockExplorerURL != "" {
		base = chain.BlockExplorerURL
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), kind, value)
}

// TruncateAddress shortens an address to "0x1234…abcd" style. Addresses shorter than
// lead+tail are returned unchanged.
func TruncateAddress(address string, lead, tail int) string {
	if lead < 0 || tail < 0 || len(address) <= lead+tail {
		return address
	}
	return address[:lead] + "…" + address[len(address)-tail:]
}
