package mapper

import (
	"treasury_dashboard/internal/app/port"
	networkdefinition "treasury_dashboard/internal/infrastructure/network/definition"
)

// Mapper turns backend DTOs into domain records. Every method is total: malformed or
// missing fields degrade to zero values, empty slices or Epoch, and are never reported
// as errors.
type Mapper struct {
	links     port.ExplorerLinker
	threshold float64
	logger    port.Logger
}

// Option customizes a Mapper.
type Option func(*Mapper)

// WithExplorer sets the explorer used to backfill missing links.
func WithExplorer(links port.ExplorerLinker) Option {
	return func(m *Mapper) { m.links = links }
}

// WithEpochMillisThreshold sets the seconds/milliseconds cutoff for numeric timestamps.
func WithEpochMillisThreshold(threshold float64) Option {
	return func(m *Mapper) {
		if threshold > 0 {
			m.threshold = threshold
		}
	}
}

// WithLogger sets the logger that receives data-quality warnings.
func WithLogger(l port.Logger) Option {
	return func(m *Mapper) { m.logger = l }
}

// New creates a Mapper. Without options it links to mainnet Etherscan and uses the
// default epoch threshold.
func New(opts ...Option) *Mapper {
	m := &Mapper{
		links:     networkdefinition.NewNetworkDefinitionProvider(nil, nil, 0),
		threshold: DefaultEpochMillisThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mapper) warn(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}
