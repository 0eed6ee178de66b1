package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete configuration for the proof engine and its
// collaborators. Only sections consumed by pkg/ots and cmd/otsctl live
// here — the core internal/otsproof packages never import this package,
// per the injection-over-globals design in spec.md §9.
type Config struct {
	// Version is the configuration schema version for migrations.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Calendar configures the OpenTimestamps calendar submission protocol.
	Calendar CalendarConfig `toml:"calendar" json:"calendar" yaml:"calendar"`

	// Bitcoin configures Bitcoin attestation verification.
	Bitcoin ChainConfig `toml:"bitcoin" json:"bitcoin" yaml:"bitcoin"`

	// Litecoin configures Litecoin attestation verification.
	Litecoin ChainConfig `toml:"litecoin" json:"litecoin" yaml:"litecoin"`

	// Ethereum configures Ethereum attestation verification.
	Ethereum ChainConfig `toml:"ethereum" json:"ethereum" yaml:"ethereum"`

	// Consensus configures the confidence scorer.
	Consensus ConsensusConfig `toml:"consensus" json:"consensus" yaml:"consensus"`

	// Cache configures the optional block/verdict cache.
	Cache CacheConfig `toml:"cache" json:"cache" yaml:"cache"`

	// Logging configures structured logging.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// mu protects concurrent access to the config.
	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// CalendarConfig holds calendar submission and upgrade settings.
type CalendarConfig struct {
	// URLs is the list of calendar server base URLs.
	URLs []string `toml:"urls" json:"urls" yaml:"urls"`

	// Strategy selects the submission strategy: "all", "quorum", "first_success".
	Strategy string `toml:"strategy" json:"strategy" yaml:"strategy"`

	// QuorumSize is validated to be at least 1 when Strategy is "quorum".
	// cmd/otsctl does not pass it to the calendar client, whose quorum
	// threshold is MinSuccessful.
	QuorumSize int `toml:"quorum_size" json:"quorum_size" yaml:"quorum_size"`

	// MinSuccessful is the number of successful calendar submissions the
	// "quorum" strategy requires. "all" requires every calendar and
	// "first_success" requires one, whatever MinSuccessful is set to.
	MinSuccessful int `toml:"min_successful" json:"min_successful" yaml:"min_successful"`

	// RequestTimeoutSec is the per-calendar request timeout.
	RequestTimeoutSec int `toml:"request_timeout_sec" json:"request_timeout_sec" yaml:"request_timeout_sec"`

	// BatchDeadlineSec bounds the whole submission round regardless of
	// how many individual calendars have responded.
	BatchDeadlineSec int `toml:"batch_deadline_sec" json:"batch_deadline_sec" yaml:"batch_deadline_sec"`

	// UpgradeCooldownSec is the minimum delay between upgrade retries for
	// the same pending attestation URI.
	UpgradeCooldownSec int `toml:"upgrade_cooldown_sec" json:"upgrade_cooldown_sec" yaml:"upgrade_cooldown_sec"`
}

// ChainConfig holds per-chain verification settings shared by Bitcoin,
// Litecoin, and Ethereum.
type ChainConfig struct {
	// RPCEndpoint is the full-node JSON-RPC URL, if any.
	RPCEndpoint string `toml:"rpc_endpoint" json:"rpc_endpoint" yaml:"rpc_endpoint"`

	// RPCUser / RPCPassword authenticate against the full node.
	RPCUser     string `toml:"rpc_user" json:"rpc_user" yaml:"rpc_user"`
	RPCPassword string `toml:"rpc_password" json:"rpc_password" yaml:"rpc_password"`

	// Explorers is the ordered list of block-explorer fallback URLs.
	Explorers []string `toml:"explorers" json:"explorers" yaml:"explorers"`

	// TimeoutSec is the request timeout for both RPC and explorer calls.
	TimeoutSec int `toml:"timeout_sec" json:"timeout_sec" yaml:"timeout_sec"`
}

// ConsensusConfig holds the weighting and threshold settings for the
// consensus scorer (spec.md §4.9). The values are loaded and validated,
// but package consensus and pkg/ots do not read them: scoring always uses
// attestation.Kind.Weight, consensus.DefaultMinScore, and the fixed
// security-level and time-window thresholds in package consensus.
type ConsensusConfig struct {
	// WeightBitcoin, WeightLitecoin, WeightEthereum, WeightPending are the
	// configured per-attestation-type weights.
	WeightBitcoin  float64 `toml:"weight_bitcoin" json:"weight_bitcoin" yaml:"weight_bitcoin"`
	WeightLitecoin float64 `toml:"weight_litecoin" json:"weight_litecoin" yaml:"weight_litecoin"`
	WeightEthereum float64 `toml:"weight_ethereum" json:"weight_ethereum" yaml:"weight_ethereum"`
	WeightPending  float64 `toml:"weight_pending" json:"weight_pending" yaml:"weight_pending"`

	// MinScore is the configured minimum confidence score for
	// overall_valid.
	MinScore float64 `toml:"min_score" json:"min_score" yaml:"min_score"`

	// StrongScore / ModerateScore / WeakScore are the score thresholds for
	// the security-level table in spec.md §4.9.
	StrongScore   float64 `toml:"strong_score" json:"strong_score" yaml:"strong_score"`
	ModerateScore float64 `toml:"moderate_score" json:"moderate_score" yaml:"moderate_score"`
	WeakScore     float64 `toml:"weak_score" json:"weak_score" yaml:"weak_score"`

	// ConsistentDriftSec / ModeratelyConsistentDriftSec bound the maximum
	// pairwise anchor-time drift for the time-window consistency check.
	ConsistentDriftSec           int `toml:"consistent_drift_sec" json:"consistent_drift_sec" yaml:"consistent_drift_sec"`
	ModeratelyConsistentDriftSec int `toml:"moderately_consistent_drift_sec" json:"moderately_consistent_drift_sec" yaml:"moderately_consistent_drift_sec"`
}

// CacheConfig configures the optional verified-block/verdict cache.
type CacheConfig struct {
	// Enabled determines whether a cache is wired into the verifier.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Backend names the cache implementation, "memory" or "sqlite". It is
	// validated, and EnsureDirectories creates Path's directory only for
	// "sqlite". cmd/otsctl does not read it: it opens the SQLite store at
	// Path whenever Enabled is true. No in-memory backend is implemented.
	Backend string `toml:"backend" json:"backend" yaml:"backend"`

	// Path is the SQLite database path.
	Path string `toml:"path" json:"path" yaml:"path"`

	// TTLSec is the default entry lifetime.
	TTLSec int `toml:"ttl_sec" json:"ttl_sec" yaml:"ttl_sec"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log output: "stdout", "stderr", or a file path.
	Output string `toml:"output" json:"output" yaml:"output"`

	// AddSource adds source file and line to log entries.
	AddSource bool `toml:"add_source" json:"add_source" yaml:"add_source"`
}

// DefaultConfig returns a configuration with sensible defaults matching
// spec.md's stated defaults (30s per-request timeout, min_successful=1,
// 300s upgrade cooldown, consensus weights and thresholds from §4.9).
func DefaultConfig() *Config {
	dir := DataDir()

	return &Config{
		Version: Version,
		Calendar: CalendarConfig{
			URLs:               DefaultCalendars(),
			Strategy:           "first_success",
			QuorumSize:         1,
			MinSuccessful:      1,
			RequestTimeoutSec:  30,
			BatchDeadlineSec:   60,
			UpgradeCooldownSec: 300,
		},
		Bitcoin: ChainConfig{
			Explorers:  DefaultBitcoinExplorers(),
			TimeoutSec: 30,
		},
		Litecoin: ChainConfig{
			Explorers:  DefaultLitecoinExplorers(),
			TimeoutSec: 30,
		},
		Ethereum: ChainConfig{
			Explorers:  DefaultEthereumExplorers(),
			TimeoutSec: 30,
		},
		Consensus: ConsensusConfig{
			WeightBitcoin:                1.0,
			WeightLitecoin:               0.8,
			WeightEthereum:               0.7,
			WeightPending:                0.1,
			MinScore:                     0.6,
			StrongScore:                  0.8,
			ModerateScore:                0.6,
			WeakScore:                    0.3,
			ConsistentDriftSec:           7200,
			ModeratelyConsistentDriftSec: 14400,
		},
		Cache: CacheConfig{
			Enabled: false,
			Backend: "memory",
			Path:    filepath.Join(dir, "cache.db"),
			TTLSec:  86400,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "otsproof.toml")
}

// DataDir returns the base data directory, honoring the OTSPROOF_DATA_DIR
// environment override.
func DataDir() string {
	if dir := os.Getenv("OTSPROOF_DATA_DIR"); dir != "" {
		return dir
	}
	return PlatformDataDir()
}

// Load reads configuration from the specified path. If the file doesn't
// exist, returns default configuration. Supports TOML, JSON, and YAML
// based on the file extension.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := decodeInto(cfg, path, data); err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

func decodeInto(cfg *Config, path string, data []byte) error {
	switch filepath.Ext(path) {
	case ".json":
		return decodeJSON(data, cfg)
	case ".yaml", ".yml":
		return decodeYAML(data, cfg)
	case ".toml", "":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("config: decode TOML: %w", err)
		}
		return nil
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("config: decode %s: %w", path, err)
		}
		return nil
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// ApplyEnvOverrides applies OTSPROOF_-prefixed environment overrides.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v := os.Getenv("OTSPROOF_BITCOIN_RPC"); v != "" {
		c.Bitcoin.RPCEndpoint = v
	}
	if v := os.Getenv("OTSPROOF_BITCOIN_RPC_PASSWORD"); v != "" {
		c.Bitcoin.RPCPassword = v
	}
	if v := os.Getenv("OTSPROOF_ETHEREUM_RPC"); v != "" {
		c.Ethereum.RPCEndpoint = v
	}
	if v := os.Getenv("OTSPROOF_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("OTSPROOF_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
}

// EnsureDirectories creates directories needed for file-backed collaborators.
func (c *Config) EnsureDirectories() error {
	if c.Cache.Backend != "sqlite" || c.Cache.Path == "" {
		return nil
	}
	dir := filepath.Dir(c.Cache.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("config: create directory %s: %w", dir, err)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := Config{
		Version:   c.Version,
		Calendar:  c.Calendar,
		Bitcoin:   c.Bitcoin,
		Litecoin:  c.Litecoin,
		Ethereum:  c.Ethereum,
		Consensus: c.Consensus,
		Cache:     c.Cache,
		Logging:   c.Logging,
	}
	clone.Calendar.URLs = append([]string{}, c.Calendar.URLs...)
	clone.Bitcoin.Explorers = append([]string{}, c.Bitcoin.Explorers...)
	clone.Litecoin.Explorers = append([]string{}, c.Litecoin.Explorers...)
	clone.Ethereum.Explorers = append([]string{}, c.Ethereum.Explorers...)
	return &clone
}

// RequestTimeout returns the calendar per-request timeout as a Duration.
func (c CalendarConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// BatchDeadline returns the batch submission deadline as a Duration.
func (c CalendarConfig) BatchDeadline() time.Duration {
	return time.Duration(c.BatchDeadlineSec) * time.Second
}

// UpgradeCooldown returns the upgrade retry cooldown as a Duration.
func (c CalendarConfig) UpgradeCooldown() time.Duration {
	return time.Duration(c.UpgradeCooldownSec) * time.Second
}

// Timeout returns the chain verification timeout as a Duration.
func (c ChainConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}
