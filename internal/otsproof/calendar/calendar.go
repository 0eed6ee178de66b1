// Package calendar submits digests to, and requests upgrades from, remote
// OpenTimestamps calendar servers: POST {base}/digest to submit, GET an
// opaque upgrade URI to check on a Pending promise.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"otsproof/internal/otsproof/attestation"
	"otsproof/internal/otsproof/bytestream"
	"otsproof/internal/otsproof/codec"
	"otsproof/internal/otsproof/tree"
)

// Strategy controls how a Submit call across several calendars decides
// success.
type Strategy string

const (
	// StrategyAll requires every configured calendar to succeed.
	StrategyAll Strategy = "all"
	// StrategyQuorum requires at least Config.MinSuccessful successes.
	StrategyQuorum Strategy = "quorum"
	// StrategyFirstSuccess returns as soon as one calendar succeeds.
	StrategyFirstSuccess Strategy = "first_success"
)

// DefaultUpgradeCooldown is how long Upgrade waits before re-checking the
// same pending URI, absent a Config override.
const DefaultUpgradeCooldown = 300 * time.Second

// Config controls calendar submission and upgrade behavior.
type Config struct {
	Calendars          []string
	Strategy           Strategy
	MinSuccessful      int
	PerCalendarTimeout time.Duration
	BatchDeadline      time.Duration
	UpgradeCooldown    time.Duration
}

// Client submits digests to, and upgrades pending attestations against,
// a configured set of calendar servers.
type Client struct {
	http  attestation.HTTPClient
	cache attestation.Cache
	cfg   Config
}

// New returns a Client that uses http for network calls and cache (which
// may be nil, disabling cooldown persistence) to remember upgrade
// cooldowns.
func New(http attestation.HTTPClient, cache attestation.Cache, cfg Config) *Client {
	if cfg.PerCalendarTimeout == 0 {
		cfg.PerCalendarTimeout = 10 * time.Second
	}
	if cfg.BatchDeadline == 0 {
		cfg.BatchDeadline = 30 * time.Second
	}
	if cfg.UpgradeCooldown == 0 {
		cfg.UpgradeCooldown = DefaultUpgradeCooldown
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyAll
	}
	return &Client{http: http, cache: cache, cfg: cfg}
}

type submitOutcome struct {
	calendar string
	subtree  *tree.Timestamp
	err      error
}

// ErrNoCalendarsConfigured is returned by Submit when Config.Calendars is
// empty.
var ErrNoCalendarsConfigured = errors.New("calendar: no calendars configured")

// ErrQuorumNotReached is returned by Submit when fewer calendars
// succeeded than the configured strategy requires.
var ErrQuorumNotReached = errors.New("calendar: quorum not reached")

// Submit posts digest to every configured calendar in parallel and merges
// the successful responses into a single aggregate subtree.
func (c *Client) Submit(ctx context.Context, digest []byte) (*tree.Timestamp, error) {
	if len(c.cfg.Calendars) == 0 {
		return nil, ErrNoCalendarsConfigured
	}

	batchCtx, cancel := context.WithTimeout(ctx, c.cfg.BatchDeadline)
	defer cancel()

	outcomes := make(chan submitOutcome, len(c.cfg.Calendars))
	var wg sync.WaitGroup
	for _, base := range c.cfg.Calendars {
		wg.Add(1)
		go func(base string) {
			defer wg.Done()
			outcomes <- c.submitOne(batchCtx, base, digest)
		}(base)
	}
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var successes []*tree.Timestamp
	var lastErr error
	for o := range outcomes {
		if o.err != nil {
			lastErr = o.err
			continue
		}
		successes = append(successes, o.subtree)
		if c.cfg.Strategy == StrategyFirstSuccess {
			cancel()
			break
		}
	}

	required := len(c.cfg.Calendars)
	switch c.cfg.Strategy {
	case StrategyQuorum:
		required = c.cfg.MinSuccessful
	case StrategyFirstSuccess:
		required = 1
	}
	if len(successes) < required {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrQuorumNotReached, lastErr)
		}
		return nil, ErrQuorumNotReached
	}

	merged := tree.New()
	for _, s := range successes {
		tree.Merge(merged, s)
	}
	return merged, nil
}

func (c *Client) submitOne(ctx context.Context, base string, digest []byte) submitOutcome {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.PerCalendarTimeout)
	defer cancel()

	body, err := c.http.Post(callCtx, base+"/digest", digest, "application/x-opentimestamps", c.cfg.PerCalendarTimeout)
	if err != nil {
		return submitOutcome{calendar: base, err: err}
	}
	subtree, err := codec.DecodeNode(bytestream.NewReader(body))
	if err != nil {
		return submitOutcome{calendar: base, err: err}
	}
	return submitOutcome{calendar: base, subtree: subtree}
}

func cooldownKey(uri []byte) string {
	return "calendar:upgrade-cooldown:" + string(uri)
}

// Upgrade checks every Pending attestation reachable from root and, for
// any not still under cooldown, requests its upgrade URI. A Pending
// attestation that has a fresh replacement available has it merged in
// place; Upgrade reports whether any replacement was applied.
func (c *Client) Upgrade(ctx context.Context, root *tree.Timestamp) (upgraded bool, err error) {
	for _, ref := range tree.FindPending(root) {
		if c.underCooldown(ctx, ref.Attn.URI) {
			continue
		}
		body, err := c.http.Get(ctx, string(ref.Attn.URI), c.cfg.PerCalendarTimeout)
		if err != nil {
			c.markChecked(ctx, ref.Attn.URI)
			continue
		}
		subtree, decodeErr := codec.DecodeNode(bytestream.NewReader(body))
		if decodeErr != nil {
			c.markChecked(ctx, ref.Attn.URI)
			continue
		}
		tree.ReplacePending(ref, subtree)
		upgraded = true
	}
	return upgraded, nil
}

func (c *Client) underCooldown(ctx context.Context, uri []byte) bool {
	if c.cache == nil {
		return false
	}
	_, ok := c.cache.Get(ctx, cooldownKey(uri))
	return ok
}

func (c *Client) markChecked(ctx context.Context, uri []byte) {
	if c.cache == nil {
		return
	}
	c.cache.Put(ctx, cooldownKey(uri), []byte{1}, c.cfg.UpgradeCooldown)
}
