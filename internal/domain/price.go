package domain

import (
	"math"
	"math/big"

	"github.com/holiman/uint256"
)

// ToNormalizedPrice converts a native-price estimate (token → native
// ratio, a finite f64) into the U fixed-point representation the cache
// stores: U(p * 10^18), defined iff 1 <= p*10^18 < 2^256. Spec.md §8/§9:
// non-finite, non-positive, zero, or out-of-range inputs yield (nil, false).
func ToNormalizedPrice(p float64) (*U256, bool) {
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return nil, false
	}

	scaled := new(big.Float).Mul(big.NewFloat(p), new(big.Float).SetFloat64(1e18))
	scaledInt, _ := scaled.Int(nil)
	if scaledInt.Sign() <= 0 {
		return nil, false
	}
	if scaledInt.BitLen() > 256 {
		return nil, false
	}

	out, overflow := uint256.FromBig(scaledInt)
	if overflow {
		return nil, false
	}
	if out.IsZero() {
		return nil, false
	}
	return out, true
}
