package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	definition "treasury_dashboard/internal/infrastructure/network/definition"

	"go.uber.org/zap"
)

// ErrUnknownChain is returned for chain ids outside the configured registry.
var ErrUnknownChain = errors.New("chain is not configured")

const (
	defaultProviderConnectionTimeout = 10 * time.Second
	defaultRPCCallTimeout            = 15 * time.Second
)

// ProviderOptions configures an EVMClientProvider.
type ProviderOptions struct {
	// URLs lists RPC endpoints per chain id, primary first.
	URLs              map[uint64][]string
	ConnectionTimeout time.Duration
	RPCCallTimeout    time.Duration
	MaxBatchSize      int
	Logger            *zap.Logger
}

// EVMClientProvider hands out one cached EVMClient per chain.
type EVMClientProvider struct {
	mu         sync.Mutex
	clients    map[uint64]*EVMClient
	networks   *definition.NetworkDefinitionProvider
	urls       map[uint64][]string
	clientOpts ClientOptions
	logger     *zap.Logger
}

// NewEVMClientProvider creates a provider over the chains in networks.
func NewEVMClientProvider(networks *definition.NetworkDefinitionProvider, opts ProviderOptions) *EVMClientProvider {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	logger := opts.Logger.Named("EVMClientProvider")
	return &EVMClientProvider{
		clients:  make(map[uint64]*EVMClient),
		networks: networks,
		urls:     opts.URLs,
		clientOpts: ClientOptions{
			ConnectionTimeout: opts.ConnectionTimeout,
			RPCCallTimeout:    opts.RPCCallTimeout,
			MaxBatchSize:      opts.MaxBatchSize,
			Logger:            logger,
		},
		logger: logger,
	}
}

// GetClient returns the client for chainID, dialing it on first use. Zero selects the
// default chain.
func (p *EVMClientProvider) GetClient(ctx context.Context, chainID uint64) (*EVMClient, error) {
	netDef := p.networks.DefaultChain()
	if chainID != 0 {
		var ok bool
		if netDef, ok = p.networks.GetNetworkDefinitionByChainID(chainID); !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownChain, chainID)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[netDef.ChainID]; ok {
		return c, nil
	}
	p.logger.Info("Creating new EVM client", zap.String("network", netDef.Name), zap.Uint64("chainId", netDef.ChainID))
	c, err := NewEVMClient(ctx, netDef, p.urls[netDef.ChainID], p.clientOpts)
	if err != nil {
		return nil, err
	}
	p.clients[netDef.ChainID] = c
	return c, nil
}

// Close closes every dialed client.
func (p *EVMClientProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, c := range p.clients {
		c.Close()
		delete(p.clients, id)
	}
}
