package encoder

import (
	"errors"
	"math/big"

	"github.com/cowbatch/settlement/internal/domain"
)

var (
	ErrPriceScaleMismatch = errors.New("encoder: merge would require inconsistent clearing prices")
	ErrDuplicateOrder     = errors.New("encoder: order present in both settlements being merged")
)

// Merge reconciles d and other's clearing-price vectors under a single
// positive rational scale factor and concatenates their trades,
// interactions, and unwraps into a new draft, per spec.md §4.2.2.
func (d *Draft) Merge(other *Draft) (*Draft, error) {
	k := scaleFactor(d, other)

	// Step 2: only ever scale prices up, to avoid precision loss near
	// the low end of U's range.
	if k.Cmp(big.NewRat(1, 1)) < 0 {
		return other.Merge(d)
	}

	out := d.clone()

	// Step 3: scale and merge other's clearing prices into out.
	for _, t := range other.tokens {
		p, ok := other.clearingPrices[t]
		if !ok {
			continue
		}
		scaled, err := scaleU256(p, k)
		if err != nil {
			return nil, err
		}
		if existing, already := out.clearingPrices[t]; already {
			if !domain.Equal(existing, scaled) {
				return nil, ErrPriceScaleMismatch
			}
			continue
		}
		out.clearingPrices[t] = scaled
		out.tokens = append(out.tokens, t)
	}

	// Step 5: reject duplicate orders across the two normal-trade lists.
	seen := make(map[domain.OrderUID]bool, len(out.trades))
	for _, t := range out.trades {
		seen[t.Order.UID] = true
	}
	for _, t := range other.trades {
		if seen[t.Order.UID] {
			return nil, ErrDuplicateOrder
		}
	}

	// Step 4 + 6: scale incoming liquidity trades' buy price and shift
	// their offset index past out's existing liquidity trades.
	shift := len(out.liquidityTrades)
	for _, lt := range other.liquidityTrades {
		scaledPrice, err := scaleU256(lt.BuyTokenPrice, k)
		if err != nil {
			return nil, err
		}
		lt.BuyTokenPrice = scaledPrice
		lt.BuyTokenOffsetIndex += shift
		out.liquidityTrades = append(out.liquidityTrades, lt)
	}

	// Step 7: concatenate normal trades, re-sort tokens, recompute indices.
	out.trades = append(out.trades, other.trades...)
	domain.SortTokens(out.tokens)
	out.recomputeIndices()

	// Step 8: concatenate execution plans, self first.
	out.executionPlan = append(out.executionPlan, other.executionPlan...)

	// Step 9: re-add unwraps through AddUnwrap so merges are respected.
	for _, u := range other.unwraps {
		out.AddUnwrap(u)
	}

	return out, nil
}

// scaleFactor computes k = p_self(t)/p_other(t) at any token t shared
// by both price maps, defaulting to 1 when nothing is shared.
func scaleFactor(self, other *Draft) *big.Rat {
	for t, pSelf := range self.clearingPrices {
		pOther, ok := other.clearingPrices[t]
		if !ok || domain.IsZero(pOther) {
			continue
		}
		return new(big.Rat).SetFrac(pSelf.ToBig(), pOther.ToBig())
	}
	return big.NewRat(1, 1)
}

// scaleU256 computes round(p*k) and reports ErrOverflow if the rounded
// result does not fit in 256 bits.
func scaleU256(p *domain.U256, k *big.Rat) (*domain.U256, error) {
	scaled := new(big.Rat).Mul(new(big.Rat).SetInt(p.ToBig()), k)
	rounded := roundRat(scaled)
	out, overflow := domain.FromBig(rounded)
	if overflow {
		return nil, domain.ErrOverflow
	}
	return out, nil
}

// roundRat rounds a rational to the nearest integer, half away from zero.
func roundRat(r *big.Rat) *big.Int {
	num := new(big.Int).Set(r.Num())
	den := r.Denom()

	quo, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	twice := new(big.Int).Abs(rem)
	twice.Lsh(twice, 1)
	if twice.CmpAbs(den) >= 0 {
		if num.Sign() >= 0 {
			quo.Add(quo, big.NewInt(1))
		} else {
			quo.Sub(quo, big.NewInt(1))
		}
	}
	return quo
}
