package chain

import (
	"context"

	"github.com/cowbatch/settlement/internal/cache"
	"github.com/cowbatch/settlement/internal/domain"
)

// GetBalances implements internal/cache.BalanceFetcher: one ERC-20
// balanceOf (or allowance, for Erc20-sourced orders the cache also
// needs the spendable minimum of) call per query, sequentially —
// the cache already batches by (owner, token, source) and reuses
// across same-block rebuilds, so raw RPC fan-out here is adequate
// without an additional multicall layer.
func (a *Account) GetBalances(ctx context.Context, queries []domain.BalanceQuery) []cache.BalanceResult {
	out := make([]cache.BalanceResult, len(queries))
	for i, q := range queries {
		balance, err := a.Balance(ctx, q.Owner, q.Token)
		if err != nil {
			out[i] = cache.BalanceResult{Err: err}
			continue
		}

		if q.Source == domain.BalanceErc20 {
			allowance, err := a.Allowance(ctx, q.Owner, q.Token)
			if err != nil {
				out[i] = cache.BalanceResult{Err: err}
				continue
			}
			if domain.Cmp(allowance, balance) < 0 {
				balance = allowance
			}
		}

		out[i] = cache.BalanceResult{Balance: balance}
	}
	return out
}
