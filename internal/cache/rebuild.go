package cache

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cowbatch/settlement/internal/domain"
)

// Update runs one rebuild of the cache's snapshot against the given
// block number, per spec.md §4.1's rebuild algorithm. A returned error
// means the previous snapshot remains valid; Update never poisons
// cached state.
func (c *Cache) Update(ctx context.Context, block uint64) error {
	now := time.Now()
	minValidTo := saturatingAddToUnix32(now, c.cfg.MinValidity)

	orders, latestSettlementBlock, err := c.store.SolvableOrders(ctx, minValidTo)
	if err != nil {
		log.Warn().Err(err).Msg("cache rebuild: storage.solvable_orders failed, retrying next tick")
		return err
	}

	orders = c.filterBadTokens(ctx, orders)

	oldBalances := c.reusableBalances(block)

	balances, missing := c.splitKnownMissing(orders, oldBalances)
	fetched := c.fetchBalances(ctx, missing)
	for q, bal := range fetched {
		balances[q] = bal
	}

	kept := rationBalances(orders, balances)

	kept, prices := c.filterByNativePrice(ctx, kept)

	snapshot := domain.Snapshot{
		Orders:                kept,
		UpdateTime:            now,
		LatestSettlementBlock: latestSettlementBlock,
		Block:                 block,
		Balances:              balances,
		Auction: domain.Auction{
			Block:                 block,
			LatestSettlementBlock: latestSettlementBlock,
			Orders:                kept,
			Prices:                prices,
		},
	}

	c.mu.Lock()
	c.snapshot = snapshot
	c.mu.Unlock()

	recordCacheBlock(block)

	log.Info().
		Uint64("block", block).
		Int("orders", len(kept)).
		Msg("solvable-orders cache rebuilt")

	return nil
}

// saturatingAddToUnix32 computes now+d as a u32 unix timestamp, saturating
// at math.MaxUint32 instead of wrapping — spec.md's "(saturating)".
func saturatingAddToUnix32(now time.Time, d time.Duration) uint32 {
	const maxUint32 = int64(^uint32(0))
	sum := now.Add(d).Unix()
	if sum > maxUint32 {
		return ^uint32(0)
	}
	if sum < 0 {
		return 0
	}
	return uint32(sum)
}

// reusableBalances clones the current snapshot's balance map iff it was
// built for the same block, otherwise returns an empty map — spec.md's
// balance-reuse step, taken under a single short lock.
func (c *Cache) reusableBalances(block uint64) map[domain.BalanceQuery]*domain.U256 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot.Block != block {
		return map[domain.BalanceQuery]*domain.U256{}
	}
	out := make(map[domain.BalanceQuery]*domain.U256, len(c.snapshot.Balances))
	for k, v := range c.snapshot.Balances {
		out[k] = v
	}
	return out
}

// splitKnownMissing partitions orders' balance queries into those already
// present in oldBalances (copied straight into the result map) and those
// that must be fetched. oldBalances is not mutated.
func (c *Cache) splitKnownMissing(orders []domain.Order, oldBalances map[domain.BalanceQuery]*domain.U256) (known map[domain.BalanceQuery]*domain.U256, missing []domain.BalanceQuery) {
	known = make(map[domain.BalanceQuery]*domain.U256, len(oldBalances))
	seen := make(map[domain.BalanceQuery]bool)

	for _, o := range orders {
		q := o.Query()
		if seen[q] {
			continue
		}
		seen[q] = true
		if bal, ok := oldBalances[q]; ok {
			known[q] = bal
			continue
		}
		missing = append(missing, q)
	}

	// Deterministic order for batching, per spec.md §4.1 step 5.
	sort.Slice(missing, func(i, j int) bool {
		a, b := missing[i], missing[j]
		if a.Owner != b.Owner {
			return lessAddress(a.Owner, b.Owner)
		}
		if a.Token != b.Token {
			return lessAddress(a.Token, b.Token)
		}
		return a.Source < b.Source
	})

	return known, missing
}

func lessAddress(a, b [20]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// fetchBalances requests the missing queries in one batch; individual
// failures are dropped with a warning, not fatal to the rebuild.
func (c *Cache) fetchBalances(ctx context.Context, missing []domain.BalanceQuery) map[domain.BalanceQuery]*domain.U256 {
	out := make(map[domain.BalanceQuery]*domain.U256, len(missing))
	if len(missing) == 0 {
		return out
	}

	results := c.balances.GetBalances(ctx, missing)
	for i, q := range missing {
		if i >= len(results) {
			break
		}
		r := results[i]
		if r.Err != nil {
			log.Warn().Err(r.Err).Str("owner", q.Owner.Hex()).Str("token", q.Token.Hex()).Msg("balance fetch failed, dropping query")
			continue
		}
		out[q] = r.Balance
	}
	return out
}

// filterBadTokens drops orders referencing a sell or buy token the
// bad-token detector classifies as unsupported.
func (c *Cache) filterBadTokens(ctx context.Context, orders []domain.Order) []domain.Order {
	if c.badTokens == nil {
		return orders
	}

	verdict := make(map[domain.Token]bool)
	check := func(t domain.Token) bool {
		if v, ok := verdict[t]; ok {
			return v
		}
		quality, reason, err := c.badTokens.Detect(ctx, t)
		good := err == nil && quality == TokenGood
		if err != nil {
			log.Warn().Err(err).Str("token", t.Hex()).Msg("bad-token detection failed, treating as unsupported")
		} else if quality == TokenBad {
			log.Debug().Str("token", t.Hex()).Str("reason", reason).Msg("dropping order: unsupported token")
		}
		verdict[t] = good
		return good
	}

	out := orders[:0:0]
	for _, o := range orders {
		if check(o.SellToken) && check(o.BuyToken) {
			out = append(out, o)
		}
	}
	return out
}

// filterByNativePrice requests native prices for the union of buy/sell
// tokens across kept orders, drops prices outside ToNormalizedPrice's
// range, and retains only orders whose both tokens have a valid price.
func (c *Cache) filterByNativePrice(ctx context.Context, orders []domain.Order) ([]domain.Order, map[domain.Token]*domain.U256) {
	tokenSet := make(map[domain.Token]bool)
	var tokens []domain.Token
	for _, o := range orders {
		for _, t := range [2]domain.Token{o.SellToken, o.BuyToken} {
			if !tokenSet[t] {
				tokenSet[t] = true
				tokens = append(tokens, t)
			}
		}
	}

	prices := make(map[domain.Token]*domain.U256, len(tokens))
	if len(tokens) > 0 && c.nativePrices != nil {
		results := c.nativePrices.EstimateNativePrices(ctx, tokens)
		dropped := 0
		for i, t := range tokens {
			if i >= len(results) {
				break
			}
			r := results[i]
			if r.Err != nil {
				log.Warn().Err(r.Err).Str("token", t.Hex()).Msg("native price estimation failed")
				dropped++
				continue
			}
			normalized, ok := domain.ToNormalizedPrice(r.Price)
			if !ok {
				log.Warn().Str("token", t.Hex()).Float64("price", r.Price).Msg("native price out of representable range, dropping")
				dropped++
				continue
			}
			prices[t] = normalized
		}
		if dropped > 0 {
			recordDroppedNativePrices(dropped)
		}
	}

	kept := orders[:0:0]
	for _, o := range orders {
		_, sellOK := prices[o.SellToken]
		_, buyOK := prices[o.BuyToken]
		if sellOK && buyOK {
			kept = append(kept, o)
		}
	}
	return kept, prices
}
