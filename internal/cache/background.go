package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Run drives the background rebuild loop until ctx is cancelled. It wakes
// on cfg.PollInterval or on RequestUpdate, whichever comes first, and calls
// Update on every tick regardless of whether the latest block has
// advanced; Update reuses the previous snapshot's balances rather than
// re-fetching them when the block is unchanged (reusableBalances in
// rebuild.go), so a same-block tick is cheap, not skipped. Mirrors the
// teacher's feeds reconnect-and-poll idiom (feeds/binance.go) adapted to
// a single in-process ticker instead of a websocket reconnect loop.
func (c *Cache) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	log.Info().Dur("interval", c.cfg.PollInterval).Msg("solvable-orders cache background loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("solvable-orders cache background loop stopping")
			return
		case <-ticker.C:
			c.tick(ctx)
		case <-c.notify:
			c.tick(ctx)
		}
	}
}

func (c *Cache) tick(ctx context.Context) {
	block, ok := c.blocks.LatestBlockNumber()
	if !ok {
		log.Warn().Msg("cache rebuild skipped: no latest block available")
		return
	}

	if err := c.Update(ctx, block); err != nil {
		log.Warn().Err(err).Uint64("block", block).Msg("cache rebuild failed")
	}
}
