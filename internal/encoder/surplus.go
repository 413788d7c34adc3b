package encoder

import (
	"math/big"

	"github.com/cowbatch/settlement/internal/domain"
)

// TotalSurplus sums each normal trade's surplus, normalized into the
// reference unit given by normalizingPrices, per spec.md §4.2.1's exact
// rational formulas. Liquidity trades contribute zero by definition. If
// any trade's denominator-side clearing price is zero, or any trade's
// raw surplus comes out negative (a limit-violating clearing), the
// whole computation is undefined and TotalSurplus reports (nil, false)
// rather than silently dropping that trade from the sum.
//
// Exact rational arithmetic is done with math/big.Rat: none of the
// example repos' numeric libraries (holiman/uint256, shopspring/decimal)
// model unbounded-denominator rationals, and surplus ratios here are not
// decimal quantities — they are exact ratios of on-chain integers.
func (d *Draft) TotalSurplus(normalizingPrices map[domain.Token]*big.Rat) (*big.Rat, bool) {
	total := new(big.Rat)

	for _, trade := range d.trades {
		order := trade.Order
		pS, okS := d.clearingPrices[order.SellToken]
		pB, okB := d.clearingPrices[order.BuyToken]
		if !okS || !okB {
			return nil, false
		}
		xS, okXS := normalizingPrices[order.SellToken]
		xB, okXB := normalizingPrices[order.BuyToken]
		if !okXS || !okXB {
			return nil, false
		}

		ratPS := u256ToRat(pS)
		ratPB := u256ToRat(pB)
		e := u256ToRat(trade.ExecutedAmount)
		aS := u256ToRat(order.SellAmount)
		aB := u256ToRat(order.BuyAmount)

		var surplus *big.Rat
		var normalized *big.Rat

		switch order.Kind {
		case domain.KindBuy:
			// denominator side for Buy is sell (p_s) — spec.md §4.2.1.
			if ratPS.Sign() == 0 {
				return nil, false
			}
			// raw = (e * a_s/a_b) * p_s - e*p_b
			ratio := new(big.Rat).Quo(e, aB)
			ratio.Mul(ratio, aS)
			left := new(big.Rat).Mul(ratio, ratPS)
			right := new(big.Rat).Mul(e, ratPB)
			surplus = new(big.Rat).Sub(left, right)
			if surplus.Sign() < 0 {
				return nil, false
			}
			normalized = new(big.Rat).Mul(surplus, new(big.Rat).Quo(xS, ratPS))
		default: // KindSell
			// denominator side for Sell is buy (p_b) — spec.md §4.2.1.
			if ratPB.Sign() == 0 {
				return nil, false
			}
			// raw = e*p_s - (e*a_b/a_s)*p_b
			left := new(big.Rat).Mul(e, ratPS)
			ratio := new(big.Rat).Quo(e, aS)
			ratio.Mul(ratio, aB)
			right := new(big.Rat).Mul(ratio, ratPB)
			surplus = new(big.Rat).Sub(left, right)
			if surplus.Sign() < 0 {
				return nil, false
			}
			normalized = new(big.Rat).Mul(surplus, new(big.Rat).Quo(xB, ratPB))
		}

		total.Add(total, normalized)
	}

	return total, true
}

func u256ToRat(v *domain.U256) *big.Rat {
	return new(big.Rat).SetInt(v.ToBig())
}
