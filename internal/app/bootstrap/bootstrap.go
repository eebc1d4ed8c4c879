package bootstrap

import (
	"fmt"

	"treasury_dashboard/internal/app/aggregate"
	"treasury_dashboard/internal/app/mapper"
	"treasury_dashboard/internal/app/port"
	"treasury_dashboard/internal/app/query"
	"treasury_dashboard/internal/app/service"
	"treasury_dashboard/internal/app/store"
	"treasury_dashboard/internal/config"
	"treasury_dashboard/internal/infrastructure/apiclient"
	chainclient "treasury_dashboard/internal/infrastructure/network/client"
	"treasury_dashboard/internal/pkg/logger"
	"treasury_dashboard/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Runtime is the wired client stack shared by the binaries.
type Runtime struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Auth     *store.AuthStore
	UI       *store.UIStore
	API      port.APIClient
	Cache    *query.Client
	Services *service.Services
	Views    *aggregate.Builder
	// Chains dials RPC endpoints on first use.
	Chains *chainclient.EVMClientProvider
}

// Options for Build.
type Options struct {
	// Registerer receives the metrics; nil leaves them unregistered.
	Registerer prometheus.Registerer
	// OnToast observes every notification the UI store raises.
	OnToast func(store.Toast)
}

// Build wires config into a Runtime and restores the persisted session.
func Build(cfg *config.Config, zl *zap.Logger, opts Options) (*Runtime, error) {
	narrow := logger.NewZapAdapter(zl)
	m := metrics.New(opts.Registerer)

	auth := store.NewAuthStore(cfg.Auth.File, narrow)
	if err := auth.Hydrate(); err != nil {
		zl.Warn("Failed to restore auth state, starting signed out", zap.Error(err))
	}
	ui := store.NewUIStore(opts.OnToast)

	api, err := apiclient.New(apiclient.Options{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.Client.RequestTimeout,
		Tokens:    auth,
		Notifier:  ui,
		RateLimit: cfg.Client.RateLimit,
		Burst:     cfg.Client.BurstLimit,
		Metrics:   m,
		Logger:    zl,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	cache := query.NewClient(query.Options{
		StaleTime: cfg.Query.StaleTime,
		GCTime:    cfg.Query.GCTime,
		QueryRetry: query.RetryPolicy{
			Retries:   cfg.Query.QueryRetries,
			BaseDelay: cfg.Query.RetryBaseDelay,
			MaxDelay:  cfg.Query.RetryMaxDelay,
		},
		MutationRetry: query.RetryPolicy{
			Retries:   cfg.Query.MutationRetries,
			BaseDelay: cfg.Query.RetryBaseDelay,
			MaxDelay:  cfg.Query.RetryMaxDelay,
		},
		Logger:  zl,
		Metrics: m,
	})

	mp := mapper.New(
		mapper.WithExplorer(cfg.Networks()),
		mapper.WithEpochMillisThreshold(cfg.Policy.EpochMillisThreshold),
		mapper.WithLogger(narrow),
	)
	svc := service.New(api, cache, mp, auth, narrow, service.Options{
		TreasuryStaleTime:      cfg.Query.TreasuryStaleTime,
		RejectOverDisbursement: cfg.Policy.RejectOverDisbursement,
	})
	views := aggregate.NewBuilder(aggregate.FromServices(svc), aggregate.Options{
		Matcher: aggregate.NewCategoryMatcher(aggregate.MatchMode(cfg.Policy.CategoryMatch)),
		Logger:  zl,
	})

	return &Runtime{
		Config:   cfg,
		Logger:   zl,
		Metrics:  m,
		Auth:     auth,
		UI:       ui,
		API:      api,
		Cache:    cache,
		Services: svc,
		Views:    views,
		Chains: chainclient.NewEVMClientProvider(cfg.Networks(), chainclient.ProviderOptions{
			URLs:              cfg.RPC.URLs,
			ConnectionTimeout: cfg.RPC.ConnectTimeout,
			RPCCallTimeout:    cfg.RPC.CallTimeout,
			Logger:            zl,
		}),
	}, nil
}

// Close stops background refetches and drops RPC connections.
func (r *Runtime) Close() {
	r.Cache.Close()
	r.Chains.Close()
}
