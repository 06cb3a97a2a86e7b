// Package liveconfig distributes global configuration to clients through a
// two-tier polling scheme: a fast poll over a small set of hot keys (the
// maintenance-mode switch and friends) and a slow full-set refresh kept warm
// in a pluggable local store for instant first paint.
package liveconfig

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Fetcher retrieves configuration from the backend.
type Fetcher interface {
	// FetchLive returns the hot-key subset (the 1-second tier).
	FetchLive(ctx context.Context) (map[string]string, error)
	// FetchFull returns the complete configuration set (the 5-minute tier).
	FetchFull(ctx context.Context) (map[string]string, error)
}

// Store is the local cache shared across clients on the same machine
// (other tabs, in browser terms). Saving bumps a version marker other
// instances observe to trigger their own refresh.
type Store interface {
	Load() (values map[string]string, version int64, ok bool)
	Save(values map[string]string, version int64)
}

const (
	defaultFastInterval = time.Second
	defaultFullInterval = 5 * time.Minute
)

// Config controls poller behaviour.
type Config struct {
	// FastInterval is the hot-key poll cadence. Defaults to 1s.
	FastInterval time.Duration
	// FullInterval is the full-set refresh cadence. Defaults to 5m.
	FullInterval time.Duration
	// ExemptRole is never blocked by maintenance mode.
	ExemptRole string
}

func (c Config) withDefaults() Config {
	if c.FastInterval <= 0 {
		c.FastInterval = defaultFastInterval
	}
	if c.FullInterval <= 0 {
		c.FullInterval = defaultFullInterval
	}
	if c.ExemptRole == "" {
		c.ExemptRole = "superadmin"
	}
	return c
}

// Poller converges on the latest configuration within one polling interval.
// Construct with New; ambient singletons are deliberately avoided so tests
// can run isolated instances.
type Poller struct {
	fetcher Fetcher
	store   Store
	cfg     Config
	log     zerolog.Logger

	mu       sync.Mutex
	live     map[string]string
	full     map[string]string
	liveHash uint64
	version  int64

	// seq/applied guard against out-of-order poll responses: a response is
	// dropped when a later-issued poll already landed.
	seq     uint64
	applied uint64

	subs []func()
}

// New returns a Poller primed from the local store when it has a cached set.
func New(fetcher Fetcher, store Store, cfg Config, log zerolog.Logger) *Poller {
	p := &Poller{
		fetcher: fetcher,
		store:   store,
		cfg:     cfg.withDefaults(),
		log:     log,
		live:    map[string]string{},
		full:    map[string]string{},
	}
	if store != nil {
		if cached, version, ok := store.Load(); ok {
			p.full = cached
			p.version = version
		}
	}
	return p
}

// Run drives both polling tiers until ctx is cancelled. Cancelling ctx is the
// single deterministic teardown call; no timers survive it.
func (p *Poller) Run(ctx context.Context) {
	p.RefreshFull(ctx)
	p.PollLive(ctx)

	fast := time.NewTicker(p.cfg.FastInterval)
	slow := time.NewTicker(p.cfg.FullInterval)
	defer fast.Stop()
	defer slow.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-fast.C:
			p.PollLive(ctx)
		case <-slow.C:
			p.RefreshFull(ctx)
		}
	}
}

// PollLive performs one hot-key poll tick. Subscribers are notified only when
// the structural hash of the retrieved map differs from the previous one.
func (p *Poller) PollLive(ctx context.Context) {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	values, err := p.fetcher.FetchLive(ctx)
	if err != nil {
		p.log.Warn().Err(err).Msg("live config poll failed")
		return
	}

	p.mu.Lock()
	if seq <= p.applied {
		// A later-issued poll already applied; this response is stale.
		p.mu.Unlock()
		return
	}
	p.applied = seq

	h := hashValues(values)
	changed := h != p.liveHash
	p.live = values
	p.liveHash = h
	subs := p.subs
	p.mu.Unlock()

	if changed {
		for _, fn := range subs {
			fn()
		}
	}
}

// RefreshFull fetches the complete configuration set and persists it to the
// local store with a bumped version marker.
func (p *Poller) RefreshFull(ctx context.Context) {
	values, err := p.fetcher.FetchFull(ctx)
	if err != nil {
		p.log.Warn().Err(err).Msg("full config refresh failed")
		return
	}

	p.mu.Lock()
	p.full = values
	p.version++
	version := p.version
	p.mu.Unlock()

	if p.store != nil {
		p.store.Save(values, version)
	}
}

// StoreChanged is the hook for cross-instance convergence: call it when the
// shared store's version marker moves (a storage-change notification in
// browser terms) to re-read the cached full set.
func (p *Poller) StoreChanged() {
	if p.store == nil {
		return
	}
	values, version, ok := p.store.Load()
	if !ok {
		return
	}
	p.mu.Lock()
	if version > p.version {
		p.full = values
		p.version = version
	}
	p.mu.Unlock()
}

// Subscribe registers fn to run whenever the hot-key set changes.
func (p *Poller) Subscribe(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, fn)
}

// Lookup resolves key within category and coerces the value. Precedence:
// hot "category.key", hot bare key, cached full "category.key", cached full
// bare key. ok is false when no tier holds the key.
func (p *Poller) Lookup(category, key string) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	qualified := key
	if category != "" {
		qualified = category + "." + key
	}
	for _, tier := range []map[string]string{p.live, p.full} {
		if category != "" {
			if v, ok := tier[qualified]; ok {
				return Coerce(v), true
			}
		}
		if v, ok := tier[key]; ok {
			return Coerce(v), true
		}
	}
	return nil, false
}

// Get is Lookup without a category qualifier.
func (p *Poller) Get(key string) (any, bool) {
	return p.Lookup("", key)
}

// Bool returns the key's value as a bool, false when absent or non-boolean.
func (p *Poller) Bool(key string) bool {
	v, ok := p.Get(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IsMaintenanceMode reports the current state of the maintenance switch.
func (p *Poller) IsMaintenanceMode() bool {
	return p.Bool("maintenance_mode")
}

// MaintenanceBlocked reports whether a client with the given role must be
// shown the blocking maintenance view. The exempt role is never blocked.
func (p *Poller) MaintenanceBlocked(role string) bool {
	if role == p.cfg.ExemptRole {
		return false
	}
	return p.IsMaintenanceMode()
}

// Coerce converts a stored string value to its typed form: the literals
// "true"/"false" become booleans, purely numeric strings become float64,
// everything else stays a string.
func Coerce(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}

// hashValues computes a structural hash of a key-value map, independent of
// iteration order.
func hashValues(values map[string]string) uint64 {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s;", k, values[k])
	}
	return h.Sum64()
}
