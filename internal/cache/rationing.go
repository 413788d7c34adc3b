package cache

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/cowbatch/settlement/internal/domain"
)

// rationBalances applies spec.md §4.1's balance-rationing rule: for each
// distinct balance query, sort the orders sharing it by creation_date
// descending (newest first — see spec.md §9's fairness rationale: newer
// orders claim balance first) and greedily admit orders whose
// max_transfer_out still fits in what remains.
//
// Orders without a balance entry are skipped. Returns the kept orders,
// each annotated with AvailableBalance (the full balance of its query).
func rationBalances(orders []domain.Order, balances map[domain.BalanceQuery]*domain.U256) []domain.Order {
	byQuery := make(map[domain.BalanceQuery][]domain.Order)
	for _, o := range orders {
		q := o.Query()
		byQuery[q] = append(byQuery[q], o)
	}

	kept := make([]domain.Order, 0, len(orders))
	for q, group := range byQuery {
		balance, ok := balances[q]
		if !ok {
			continue
		}

		sort.SliceStable(group, func(i, j int) bool {
			return group[i].CreationDate.After(group[j].CreationDate)
		})

		remaining := domain.Clone(balance)
		for _, o := range group {
			maxOut, err := domain.MaxTransferOut(&o)
			if err != nil {
				log.Warn().Err(err).Msg("dropping order: max_transfer_out failed")
				continue
			}
			if maxOut == nil {
				// overflow computing max_transfer_out: unsettlable, drop silently.
				continue
			}
			if domain.Cmp(remaining, maxOut) < 0 {
				continue
			}
			newRemaining, err := domain.Sub(remaining, maxOut)
			if err != nil {
				continue
			}
			remaining = newRemaining
			o.AvailableBalance = domain.Clone(balance)
			kept = append(kept, o)
		}
	}
	return kept
}
