package orderbook

import "github.com/cowbatch/settlement/internal/domain"

// MinimumFeeAmount computes the fee floor an incoming order must meet:
// the wei cost of settling it (gasEstimate·gasPriceWei), converted
// into sell-token units via the token's normalized native price
// (spec.md's U(p·10^18) fixed-point convention — see
// domain.ToNormalizedPrice), grounded on original_source's
// orderbook/src/fee.rs gas-cost-based floor.
func MinimumFeeAmount(gasEstimate uint64, gasPriceWei, normalizedNativePrice *domain.U256) (*domain.U256, error) {
	costWei, err := domain.Mul(domain.FromUint64(gasEstimate), gasPriceWei)
	if err != nil {
		return nil, err
	}

	scale := domain.FromUint64(1e18)
	return domain.MulDivCeil(costWei, scale, normalizedNativePrice)
}
