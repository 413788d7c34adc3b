// Package cache maintains the solvable-orders snapshot: a
// background-refreshed, balance- and native-price-filtered view of which
// orders are currently fillable (spec.md §4.1).
package cache

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cowbatch/settlement/internal/domain"
)

// Config holds the cache's tunables.
type Config struct {
	MinValidity  time.Duration // min_validity in spec.md's min_valid_to = now + min_validity
	PollInterval time.Duration // background loop wake period (default 2s)
}

// DefaultConfig mirrors the 2-second wake period spec.md §4.1 names.
func DefaultConfig() Config {
	return Config{
		MinValidity:  0,
		PollInterval: 2 * time.Second,
	}
}

// Cache owns a single shared Snapshot plus the collaborators needed to
// rebuild it. The mutex guards only the snapshot fields (orders,
// balances, auction, update_time, block, latest_settlement_block) —
// critical sections clone-under-lock and release before any I/O, per
// spec.md §5.
type Cache struct {
	mu       sync.Mutex
	snapshot domain.Snapshot

	cfg Config

	store         OrderStoring
	balances      BalanceFetcher
	nativePrices  NativePriceEstimator
	badTokens     BadTokenDetector
	blocks        BlockStream

	notify chan struct{} // single-slot: RequestUpdate coalesces wakes
}

// New constructs a Cache with an empty initial snapshot.
func New(cfg Config, store OrderStoring, balances BalanceFetcher, nativePrices NativePriceEstimator, badTokens BadTokenDetector, blocks BlockStream) *Cache {
	c := &Cache{
		cfg:          cfg,
		store:        store,
		balances:     balances,
		nativePrices: nativePrices,
		badTokens:    badTokens,
		blocks:       blocks,
		notify:       make(chan struct{}, 1),
		snapshot: domain.Snapshot{
			Balances: make(map[domain.BalanceQuery]*domain.U256),
			Auction:  domain.Auction{Prices: make(map[domain.Token]*domain.U256)},
		},
	}

	log.Info().
		Dur("min_validity", cfg.MinValidity).
		Dur("poll_interval", cfg.PollInterval).
		Msg("solvable-orders cache initialized")

	return c
}

// CachedSolvableOrders returns a cheap clone of the current snapshot.
// Never fails.
func (c *Cache) CachedSolvableOrders() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot.CloneShallow()
}

// CachedBalance returns the cached balance for q, if any.
func (c *Cache) CachedBalance(q domain.BalanceQuery) (*domain.U256, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.snapshot.Balances[q]
	return v, ok
}

// CachedAuction returns the current auction view plus the instant it was
// built.
func (c *Cache) CachedAuction() (domain.Auction, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.snapshot.CloneShallow()
	return snap.Auction, snap.UpdateTime
}

// RequestUpdate idempotently wakes the background task. Multiple calls
// within one tick coalesce into a single rebuild because notify has
// capacity 1 and the send is non-blocking.
func (c *Cache) RequestUpdate() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}
