package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"treasury_dashboard/internal/domain/entity"
	networkdefinition "treasury_dashboard/internal/infrastructure/network/definition"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrMissingAPIBaseURL is returned when no source provides an API base URL.
var ErrMissingAPIBaseURL = errors.New("missing API base URL in runtime configuration")

// Category matching modes for budget vs expense attribution.
const (
	CategoryMatchExact      = "exact"
	CategoryMatchNormalized = "normalized"
)

// Config holds the resolved runtime configuration.
type Config struct {
	APIBaseURL             string         `yaml:"apiBaseUrl"`
	DefaultChainID         uint64         `yaml:"defaultChainId"`
	SupportedChainIDs      []uint64       `yaml:"supportedChains"`
	WalletConnectProjectID string         `yaml:"walletConnectProjectId"`
	OrganizationName       string         `yaml:"organizationName"`
	Features               FeaturesConfig `yaml:"features"`
	Query                  QueryConfig    `yaml:"query"`
	Client                 ClientConfig   `yaml:"client"`
	Policy                 PolicyConfig   `yaml:"policy"`
	Server                 ServerConfig   `yaml:"server"`
	Swagger                SwaggerConfig  `yaml:"swagger"`
	Logging                LoggingConfig  `yaml:"logging"`
	Auth                   AuthConfig     `yaml:"auth"`
	RPC                    RPCConfig      `yaml:"rpc"`

	// Resolved from SupportedChainIDs / DefaultChainID against the chain registry.
	Chains       []entity.NetworkDefinition `yaml:"-"`
	DefaultChain entity.NetworkDefinition   `yaml:"-"`

	networks *networkdefinition.NetworkDefinitionProvider
}

// FeaturesConfig toggles optional dashboard features.
type FeaturesConfig struct {
	ReceiptsEnabled        bool `yaml:"receiptsEnabled"`
	AuditLogsExportEnabled bool `yaml:"auditLogsExportEnabled"`
}

// QueryConfig holds the query cache policy.
type QueryConfig struct {
	StaleTime         time.Duration `yaml:"staleTime"`
	TreasuryStaleTime time.Duration `yaml:"treasuryStaleTime"`
	GCTime            time.Duration `yaml:"gcTime"`
	QueryRetries      int           `yaml:"queryRetries"`
	MutationRetries   int           `yaml:"mutationRetries"`
	RetryBaseDelay    time.Duration `yaml:"retryBaseDelay"`
	RetryMaxDelay     time.Duration `yaml:"retryMaxDelay"`
}

// ClientConfig holds API client transport settings.
type ClientConfig struct {
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	RateLimit      float64       `yaml:"rateLimit"` // requests per second, 0 disables
	BurstLimit     int           `yaml:"burstLimit"`
}

// PolicyConfig carries the data-quality decisions that are deployment specific.
type PolicyConfig struct {
	// EpochMillisThreshold separates epoch seconds from epoch milliseconds.
	EpochMillisThreshold float64 `yaml:"epochMillisThreshold"`
	// CategoryMatch is "exact" or "normalized" (trimmed, case-folded).
	CategoryMatch string `yaml:"categoryMatch"`
	// RejectOverDisbursement makes disbursement writes fail when they would push a grant
	// past its total amount. Reads only flag it.
	RejectOverDisbursement bool `yaml:"rejectOverDisbursement"`
}

// ServerConfig holds the view server settings.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// SwaggerConfig controls the view server's API docs.
type SwaggerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
	File  string `yaml:"file"`
}

// RPCConfig lists JSON-RPC endpoints for on-chain verification.
type RPCConfig struct {
	// URLs maps a chain id to its endpoints, primary first.
	URLs           map[uint64][]string `yaml:"urls"`
	ConnectTimeout time.Duration       `yaml:"connectTimeout"`
	CallTimeout    time.Duration       `yaml:"callTimeout"`
	// DefaultChainURLs come from TREASURY_RPC_URLS and apply to the default chain.
	DefaultChainURLs []string `yaml:"-"`
}

// AuthConfig points at the persisted auth state.
type AuthConfig struct {
	File string `yaml:"file"`
}

// Default returns the hardcoded baseline configuration.
func Default() *Config {
	return &Config{
		APIBaseURL:        "http://localhost:8080/api/v1",
		DefaultChainID:    networkdefinition.Mainnet.ChainID,
		SupportedChainIDs: append([]uint64(nil), networkdefinition.DefaultChainIDs...),
		OrganizationName:  "Transparency Dashboard",
		Features: FeaturesConfig{
			ReceiptsEnabled:        true,
			AuditLogsExportEnabled: true,
		},
		Query: QueryConfig{
			StaleTime:         30 * time.Second,
			TreasuryStaleTime: 60 * time.Second,
			GCTime:            5 * time.Minute,
			QueryRetries:      2,
			MutationRetries:   1,
			RetryBaseDelay:    time.Second,
			RetryMaxDelay:     30 * time.Second,
		},
		Client: ClientConfig{
			RequestTimeout: 15 * time.Second,
		},
		Policy: PolicyConfig{
			EpochMillisThreshold: 1e12,
			CategoryMatch:        CategoryMatchExact,
		},
		Server: ServerConfig{
			Port:         ":8090",
			ReadTimeout:  10,
			WriteTimeout: 10,
			IdleTimeout:  60,
		},
		Swagger: SwaggerConfig{Enabled: true, Path: "/swagger"},
		Logging: LoggingConfig{Level: "info"},
		Auth:    AuthConfig{File: ".treasury/auth.json"},
		RPC: RPCConfig{
			ConnectTimeout: 10 * time.Second,
			CallTimeout:    15 * time.Second,
		},
	}
}

// Load builds the configuration: defaults, then the YAML document at path (optional),
// then TREASURY_* environment variables. A .env file in the working directory is loaded
// into the environment first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("Failed to load .env file: %v", err)
	}

	cfg := Default()

	if path != "" {
		logrus.Infof("Loading configuration from path: %s", path)
		data, err := os.ReadFile(path)
		if err != nil {
			logrus.Errorf("Failed to read config file %s: %v", path, err)
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
			return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
		}
	}

	applyEnv(cfg, os.LookupEnv)

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	logrus.Info("Configuration loaded successfully.")
	return cfg, nil
}

var (
	resolveOnce sync.Once
	resolved    *Config
	resolveErr  error
)

// Resolve loads the configuration once per process.
func Resolve(path string) (*Config, error) {
	resolveOnce.Do(func() {
		resolved, resolveErr = Load(path)
	})
	return resolved, resolveErr
}

// Networks returns the chain provider built from the resolved chain list.
func (c *Config) Networks() *networkdefinition.NetworkDefinitionProvider {
	if c.networks == nil {
		c.networks = networkdefinition.NewNetworkDefinitionProvider(nil, c.SupportedChainIDs, c.DefaultChainID)
	}
	return c.networks
}

func (c *Config) finalize() error {
	c.APIBaseURL = strings.TrimSpace(c.APIBaseURL)
	if c.APIBaseURL == "" {
		return ErrMissingAPIBaseURL
	}

	c.networks = networkdefinition.NewNetworkDefinitionProvider(nil, c.SupportedChainIDs, c.DefaultChainID)
	c.Chains = c.networks.GetAllNetworkDefinitions()
	c.DefaultChain = c.networks.DefaultChain()
	c.DefaultChainID = c.DefaultChain.ChainID
	c.SupportedChainIDs = make([]uint64, 0, len(c.Chains))
	for _, chain := range c.Chains {
		c.SupportedChainIDs = append(c.SupportedChainIDs, chain.ChainID)
	}

	if c.Query.StaleTime <= 0 {
		c.Query.StaleTime = 30 * time.Second
		logrus.Infof("Query.StaleTime not set, defaulting to %s", c.Query.StaleTime)
	}
	if c.Query.TreasuryStaleTime <= 0 {
		c.Query.TreasuryStaleTime = 60 * time.Second
		logrus.Infof("Query.TreasuryStaleTime not set, defaulting to %s", c.Query.TreasuryStaleTime)
	}
	if c.Query.GCTime <= 0 {
		c.Query.GCTime = 5 * time.Minute
		logrus.Infof("Query.GCTime not set, defaulting to %s", c.Query.GCTime)
	}
	if c.Query.QueryRetries < 0 {
		c.Query.QueryRetries = 0
	}
	if c.Query.MutationRetries < 0 {
		c.Query.MutationRetries = 0
	}
	if c.Query.RetryBaseDelay <= 0 {
		c.Query.RetryBaseDelay = time.Second
	}
	if c.Query.RetryMaxDelay < c.Query.RetryBaseDelay {
		c.Query.RetryMaxDelay = 30 * time.Second
	}
	if c.Client.RequestTimeout <= 0 {
		c.Client.RequestTimeout = 15 * time.Second
		logrus.Infof("Client.RequestTimeout not set, defaulting to %s", c.Client.RequestTimeout)
	}
	if c.Swagger.Enabled {
		c.Swagger.Path = "/" + strings.Trim(strings.TrimSpace(c.Swagger.Path), "/")
		if c.Swagger.Path == "/" {
			c.Swagger.Path = "/swagger"
			logrus.Infof("Swagger.Path not set, defaulting to %s", c.Swagger.Path)
		}
	}
	if len(c.RPC.DefaultChainURLs) > 0 {
		if c.RPC.URLs == nil {
			c.RPC.URLs = make(map[uint64][]string)
		}
		c.RPC.URLs[c.DefaultChainID] = c.RPC.DefaultChainURLs
	}
	if c.Client.RateLimit > 0 && c.Client.BurstLimit <= 0 {
		c.Client.BurstLimit = 1
	}
	if c.Policy.EpochMillisThreshold <= 0 {
		c.Policy.EpochMillisThreshold = 1e12
		logrus.Infof("Policy.EpochMillisThreshold not set, defaulting to %g", c.Policy.EpochMillisThreshold)
	}
	switch strings.ToLower(strings.TrimSpace(c.Policy.CategoryMatch)) {
	case CategoryMatchNormalized:
		c.Policy.CategoryMatch = CategoryMatchNormalized
	case "", CategoryMatchExact:
		c.Policy.CategoryMatch = CategoryMatchExact
	default:
		logrus.Warnf("Unknown policy.categoryMatch %q, using %q", c.Policy.CategoryMatch, CategoryMatchExact)
		c.Policy.CategoryMatch = CategoryMatchExact
	}
	if c.OrganizationName == "" {
		c.OrganizationName = "Transparency Dashboard"
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = ParseBool(v)
		}
	}
	duration := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			logrus.Warnf("Invalid duration in %s: %q", key, v)
			return
		}
		*dst = d
	}

	str("TREASURY_API_BASE_URL", &cfg.APIBaseURL)
	str("TREASURY_WALLETCONNECT_PROJECT_ID", &cfg.WalletConnectProjectID)
	str("TREASURY_ORGANIZATION_NAME", &cfg.OrganizationName)
	str("TREASURY_LOG_LEVEL", &cfg.Logging.Level)
	str("TREASURY_LOG_FILE", &cfg.Logging.File)
	str("TREASURY_AUTH_FILE", &cfg.Auth.File)
	str("TREASURY_SERVER_PORT", &cfg.Server.Port)
	str("TREASURY_CATEGORY_MATCH", &cfg.Policy.CategoryMatch)
	boolean("TREASURY_FEATURE_RECEIPTS", &cfg.Features.ReceiptsEnabled)
	boolean("TREASURY_FEATURE_AUDIT_EXPORTS", &cfg.Features.AuditLogsExportEnabled)
	boolean("TREASURY_SWAGGER_ENABLED", &cfg.Swagger.Enabled)
	boolean("TREASURY_REJECT_OVER_DISBURSEMENT", &cfg.Policy.RejectOverDisbursement)
	duration("TREASURY_REQUEST_TIMEOUT", &cfg.Client.RequestTimeout)
	duration("TREASURY_STALE_TIME", &cfg.Query.StaleTime)

	if v, ok := lookup("TREASURY_DEFAULT_CHAIN_ID"); ok && strings.TrimSpace(v) != "" {
		if id, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64); err == nil && id != 0 {
			cfg.DefaultChainID = id
		} else {
			logrus.Warnf("Invalid TREASURY_DEFAULT_CHAIN_ID: %q", v)
		}
	}
	if v, ok := lookup("TREASURY_CHAIN_IDS"); ok {
		if ids := ParseChainIDs(v); len(ids) > 0 {
			cfg.SupportedChainIDs = ids
		}
	}
	if v, ok := lookup("TREASURY_RPC_URLS"); ok {
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.RPC.DefaultChainURLs = append(cfg.RPC.DefaultChainURLs, u)
			}
		}
	}
	if v, ok := lookup("TREASURY_RATE_LIMIT"); ok && strings.TrimSpace(v) != "" {
		if rps, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && rps >= 0 {
			cfg.Client.RateLimit = rps
		} else {
			logrus.Warnf("Invalid TREASURY_RATE_LIMIT: %q", v)
		}
	}
}

// ParseBool accepts 1/true/yes/on (case-insensitive) as true; anything else is false.
func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// ParseChainIDs parses a comma separated list of chain ids, skipping entries that are not
// integers.
func ParseChainIDs(value string) []uint64 {
	var ids []uint64
	for _, part := range strings.Split(value, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
