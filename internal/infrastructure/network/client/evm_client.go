package client

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"treasury_dashboard/internal/domain/entity"
	definition "treasury_dashboard/internal/infrastructure/network/definition"
	"treasury_dashboard/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// ErrChainMismatch is returned when an RPC endpoint serves a different chain than configured.
var ErrChainMismatch = errors.New("rpc endpoint serves a different chain")

// receiptFields is the subset of eth_getTransactionReceipt the verifier reads.
type receiptFields struct {
	Status      hexutil.Uint64 `json:"status"`
	BlockNumber *hexutil.Big   `json:"blockNumber"`
}

// DefaultMaxBatchSize caps the calls sent in one JSON-RPC batch.
const DefaultMaxBatchSize = 100

// ClientOptions configures an EVMClient. Zero values take the package defaults.
type ClientOptions struct {
	ConnectionTimeout time.Duration
	RPCCallTimeout    time.Duration
	MaxBatchSize      int
	Logger            *zap.Logger
}

// EVMClient reads treasury state straight from one chain's JSON-RPC endpoint.
type EVMClient struct {
	rpc            *rpc.Client
	netDef         entity.NetworkDefinition
	rpcCallTimeout time.Duration
	maxBatchSize   int
	logger         *zap.Logger
}

// NewEVMClient dials the first reachable URL in rpcURLs and checks it serves netDef's chain.
func NewEVMClient(ctx context.Context, netDef entity.NetworkDefinition, rpcURLs []string, opts ClientOptions) (*EVMClient, error) {
	if len(rpcURLs) == 0 {
		return nil, fmt.Errorf("no RPC URL configured for %s (chain %d)", netDef.Name, netDef.ChainID)
	}
	if opts.ConnectionTimeout <= 0 {
		opts.ConnectionTimeout = defaultProviderConnectionTimeout
	}
	if opts.RPCCallTimeout <= 0 {
		opts.RPCCallTimeout = defaultRPCCallTimeout
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = DefaultMaxBatchSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var lastErr error
	for _, rpcURL := range rpcURLs {
		dialCtx, cancel := context.WithTimeout(ctx, opts.ConnectionTimeout)
		rc, err := rpc.DialContext(dialCtx, rpcURL)
		if err == nil {
			var id *big.Int
			id, err = ethclient.NewClient(rc).ChainID(dialCtx)
			if err == nil && id.Uint64() != netDef.ChainID {
				err = fmt.Errorf("%w: expected %d, got %s", ErrChainMismatch, netDef.ChainID, id)
			}
			if err != nil {
				rc.Close()
			}
		}
		cancel()

		if err == nil {
			logger.Debug("Connected to RPC", zap.String("network", netDef.Name), zap.String("url", rpcURL))
			return &EVMClient{
				rpc:            rc,
				netDef:         netDef,
				rpcCallTimeout: opts.RPCCallTimeout,
				maxBatchSize:   opts.MaxBatchSize,
				logger:         logger.With(zap.Uint64("chainId", netDef.ChainID)),
			}, nil
		}
		logger.Warn("RPC endpoint unusable", zap.String("url", rpcURL), zap.Error(err))
		lastErr = fmt.Errorf("failed to connect to RPC %s: %w", rpcURL, err)
	}
	return nil, fmt.Errorf("all RPC connection attempts failed for network %s: %w", netDef.Name, lastErr)
}

// Definition returns the network definition for this client.
func (c *EVMClient) Definition() entity.NetworkDefinition {
	return c.netDef
}

// Close releases the connection.
func (c *EVMClient) Close() {
	c.rpc.Close()
}

func (c *EVMClient) batch(ctx context.Context, elems []rpc.BatchElem) error {
	callCtx, cancel := context.WithTimeout(ctx, c.rpcCallTimeout)
	defer cancel()
	if err := c.rpc.BatchCallContext(callCtx, elems); err != nil {
		return fmt.Errorf("RPC batch call failed: %w", err)
	}
	return nil
}

// NativeBalances reads the native coin balance of every address. Per-address failures are
// reported on the item; only a failed batch returns an error.
func (c *EVMClient) NativeBalances(ctx context.Context, addresses []string) ([]entity.NativeBalance, error) {
	out := make([]entity.NativeBalance, 0, len(addresses))
	for _, batch := range utils.BatchStrings(addresses, c.maxBatchSize) {
		results, err := c.nativeBalances(ctx, batch)
		out = append(out, results...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func (c *EVMClient) nativeBalances(ctx context.Context, addresses []string) ([]entity.NativeBalance, error) {
	elems := make([]rpc.BatchElem, len(addresses))
	results := make([]entity.NativeBalance, len(addresses))
	for i, addr := range addresses {
		results[i] = entity.NativeBalance{Address: addr, ChainID: c.netDef.ChainID, Symbol: c.netDef.NativeSymbol}
		if !common.IsHexAddress(addr) {
			results[i].Error = fmt.Sprintf("invalid address %q", addr)
			elems[i] = rpc.BatchElem{Method: "eth_chainId", Result: new(hexutil.Big)}
			continue
		}
		elems[i] = rpc.BatchElem{
			Method: "eth_getBalance",
			Args:   []any{common.HexToAddress(addr), "latest"},
			Result: new(*hexutil.Big),
		}
	}

	if err := c.batch(ctx, elems); err != nil {
		return results, err
	}

	for i, elem := range elems {
		if results[i].Error != "" {
			continue
		}
		if elem.Error != nil {
			results[i].Error = fmt.Sprintf("failed to fetch balance: %v", elem.Error)
			continue
		}
		amount := big.NewInt(0)
		if r, ok := elem.Result.(**hexutil.Big); ok && r != nil && *r != nil {
			amount = (*big.Int)(*r)
		}
		results[i].Amount = amount
		results[i].Formatted = utils.FormatBigInt(amount, int(c.netDef.Decimals))
	}
	return results, nil
}

// VerifyTransactions looks up the receipt of every hash. Each batch also reads the chain
// head for confirmations. A hash without a receipt is reported as not found.
func (c *EVMClient) VerifyTransactions(ctx context.Context, hashes []string) ([]entity.TxCheck, error) {
	out := make([]entity.TxCheck, 0, len(hashes))
	for _, batch := range utils.BatchStrings(hashes, c.maxBatchSize-1) {
		results, err := c.verifyTransactions(ctx, batch)
		out = append(out, results...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func (c *EVMClient) verifyTransactions(ctx context.Context, hashes []string) ([]entity.TxCheck, error) {
	var head hexutil.Uint64
	elems := make([]rpc.BatchElem, 0, len(hashes)+1)
	elems = append(elems, rpc.BatchElem{Method: "eth_blockNumber", Result: &head})

	results := make([]entity.TxCheck, len(hashes))
	for i, h := range hashes {
		h = strings.TrimSpace(h)
		results[i] = entity.TxCheck{
			Hash:        h,
			ChainID:     c.netDef.ChainID,
			ExplorerURL: definition.ExplorerURL(definition.ExplorerTx, h, &c.netDef),
		}
		raw, err := hexutil.Decode(h)
		if err != nil || len(raw) != common.HashLength {
			results[i].Error = "invalid transaction hash"
		}
		elems = append(elems, rpc.BatchElem{
			Method: "eth_getTransactionReceipt",
			Args:   []any{common.HexToHash(h)},
			Result: new(*receiptFields),
		})
	}

	if err := c.batch(ctx, elems); err != nil {
		return results, err
	}
	if elems[0].Error != nil {
		c.logger.Warn("Chain head unavailable, confirmations omitted", zap.Error(elems[0].Error))
	}

	for i, elem := range elems[1:] {
		if results[i].Error != "" {
			continue
		}
		if elem.Error != nil {
			results[i].Error = fmt.Sprintf("failed to fetch receipt: %v", elem.Error)
			continue
		}
		r, ok := elem.Result.(**receiptFields)
		if !ok || r == nil || *r == nil {
			continue
		}
		results[i].Found = true
		results[i].Success = (*r).Status == 1
		if (*r).BlockNumber != nil {
			block := (*big.Int)((*r).BlockNumber).Uint64()
			results[i].BlockNumber = block
			if elems[0].Error == nil && uint64(head) >= block {
				results[i].Confirmations = uint64(head) - block + 1
			}
		}
	}
	return results, nil
}
