package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a single configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig performs comprehensive validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{"version", fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version)})
	}

	errs = append(errs, validateCalendar(&c.Calendar)...)
	errs = append(errs, validateChain("bitcoin", &c.Bitcoin)...)
	errs = append(errs, validateChain("litecoin", &c.Litecoin)...)
	errs = append(errs, validateChain("ethereum", &c.Ethereum)...)
	errs = append(errs, validateConsensus(&c.Consensus)...)
	errs = append(errs, validateCache(&c.Cache)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateCalendar(c *CalendarConfig) ValidationErrors {
	var errs ValidationErrors

	if len(c.URLs) == 0 {
		errs = append(errs, ValidationError{"calendar.urls", "at least one calendar URL is required"})
	}
	for _, u := range c.URLs {
		if _, err := url.ParseRequestURI(u); err != nil {
			errs = append(errs, ValidationError{"calendar.urls", fmt.Sprintf("invalid URL %q: %v", u, err)})
		}
	}

	switch c.Strategy {
	case "all", "quorum", "first_success":
	default:
		errs = append(errs, ValidationError{"calendar.strategy", fmt.Sprintf("unknown strategy %q", c.Strategy)})
	}

	if c.Strategy == "quorum" && c.QuorumSize < 1 {
		errs = append(errs, ValidationError{"calendar.quorum_size", "must be >= 1 when strategy is quorum"})
	}
	if c.MinSuccessful < 1 {
		errs = append(errs, ValidationError{"calendar.min_successful", "must be >= 1"})
	}
	if c.RequestTimeoutSec <= 0 {
		errs = append(errs, ValidationError{"calendar.request_timeout_sec", "must be positive"})
	}
	if c.UpgradeCooldownSec < 0 {
		errs = append(errs, ValidationError{"calendar.upgrade_cooldown_sec", "must not be negative"})
	}

	return errs
}

func validateChain(name string, c *ChainConfig) ValidationErrors {
	var errs ValidationErrors

	if c.RPCEndpoint != "" {
		if _, err := url.ParseRequestURI(c.RPCEndpoint); err != nil {
			errs = append(errs, ValidationError{name + ".rpc_endpoint", fmt.Sprintf("invalid URL: %v", err)})
		}
	}
	for _, e := range c.Explorers {
		if _, err := url.ParseRequestURI(e); err != nil {
			errs = append(errs, ValidationError{name + ".explorers", fmt.Sprintf("invalid URL %q: %v", e, err)})
		}
	}
	if c.TimeoutSec <= 0 {
		errs = append(errs, ValidationError{name + ".timeout_sec", "must be positive"})
	}

	return errs
}

func validateConsensus(c *ConsensusConfig) ValidationErrors {
	var errs ValidationErrors

	weights := map[string]float64{
		"weight_bitcoin":  c.WeightBitcoin,
		"weight_litecoin": c.WeightLitecoin,
		"weight_ethereum": c.WeightEthereum,
		"weight_pending":  c.WeightPending,
	}
	for field, w := range weights {
		if w < 0 {
			errs = append(errs, ValidationError{"consensus." + field, "must not be negative"})
		}
	}

	for _, pair := range []struct {
		field string
		v     float64
	}{
		{"min_score", c.MinScore},
		{"strong_score", c.StrongScore},
		{"moderate_score", c.ModerateScore},
		{"weak_score", c.WeakScore},
	} {
		if pair.v < 0 || pair.v > 1 {
			errs = append(errs, ValidationError{"consensus." + pair.field, "must be within [0, 1]"})
		}
	}

	if c.StrongScore < c.ModerateScore || c.ModerateScore < c.WeakScore {
		errs = append(errs, ValidationError{"consensus.thresholds", "must satisfy strong >= moderate >= weak"})
	}

	if c.ConsistentDriftSec <= 0 || c.ModeratelyConsistentDriftSec <= c.ConsistentDriftSec {
		errs = append(errs, ValidationError{"consensus.drift", "moderately_consistent_drift_sec must exceed consistent_drift_sec"})
	}

	return errs
}

func validateCache(c *CacheConfig) ValidationErrors {
	var errs ValidationErrors
	if !c.Enabled {
		return errs
	}
	switch c.Backend {
	case "memory":
	case "sqlite":
		if c.Path == "" {
			errs = append(errs, ValidationError{"cache.path", "required when backend is sqlite"})
		}
	default:
		errs = append(errs, ValidationError{"cache.backend", fmt.Sprintf("unknown backend %q", c.Backend)})
	}
	if c.TTLSec < 0 {
		errs = append(errs, ValidationError{"cache.ttl_sec", "must not be negative"})
	}
	return errs
}

func validateLogging(c *LoggingConfig) ValidationErrors {
	var errs ValidationErrors
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{"logging.level", fmt.Sprintf("unknown level %q", c.Level)})
	}
	switch c.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{"logging.format", fmt.Sprintf("unknown format %q", c.Format)})
	}
	return errs
}
