package domain

import "time"

// Auction is the flattened view handed to downstream solvers: spec.md's
// (block, latest_settlement_block, orders, prices).
type Auction struct {
	Block                 uint64
	LatestSettlementBlock uint64
	Orders                []Order
	Prices                map[Token]*U256
}

// Snapshot is the cache's internal state: the auction plus the balance
// map and bookkeeping timestamps that back it.
type Snapshot struct {
	Orders                []Order
	UpdateTime            time.Time
	LatestSettlementBlock uint64
	Block                 uint64
	Balances              map[BalanceQuery]*U256
	Auction               Auction
}

// CloneShallow returns a cheap copy suitable for CachedSolvableOrders:
// the order slice, balance map and price map are copied (Order values
// are copied one level deep), but the *U256 values they point to are
// shared — callers never mutate a returned snapshot in place.
func (s *Snapshot) CloneShallow() Snapshot {
	orders := make([]Order, len(s.Orders))
	copy(orders, s.Orders)

	balances := make(map[BalanceQuery]*U256, len(s.Balances))
	for k, v := range s.Balances {
		balances[k] = v
	}

	prices := make(map[Token]*U256, len(s.Auction.Prices))
	for k, v := range s.Auction.Prices {
		prices[k] = v
	}

	return Snapshot{
		Orders:                orders,
		UpdateTime:            s.UpdateTime,
		LatestSettlementBlock: s.LatestSettlementBlock,
		Block:                 s.Block,
		Balances:              balances,
		Auction: Auction{
			Block:                 s.Auction.Block,
			LatestSettlementBlock: s.Auction.LatestSettlementBlock,
			Orders:                orders,
			Prices:                prices,
		},
	}
}
