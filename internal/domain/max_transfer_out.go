package domain

import "errors"

// ErrZeroExecutable is returned when a partially-fillable order's maximum
// executable amount (buy_amount for Buy orders, sell_amount for Sell
// orders) is zero — spec.md §4.1 calls this a bad-input error, to be
// dropped rather than propagated.
var ErrZeroExecutable = errors.New("domain: partially fillable order has zero max executable amount")

// MaxTransferOut computes the maximum amount of sell_token (incl. fee)
// this order could still pull from its owner's balance, per spec.md
// §4.1's max_transfer_out algorithm. A nil result with a nil error means
// "not an error, but this order cannot be settled" (overflow case);
// a non-nil error means the order is malformed and must be dropped.
func MaxTransferOut(o *Order) (*U256, error) {
	if !o.PartiallyFillable {
		sum, err := Add(o.SellAmount, o.FeeAmount)
		if err != nil {
			return nil, nil // overflow => None, not an error
		}
		return sum, nil
	}

	var maxExecutable, executed *U256
	if o.Kind == KindBuy {
		maxExecutable, executed = o.BuyAmount, o.ExecutedBuyAmount
	} else {
		maxExecutable, executed = o.SellAmount, o.ExecutedSellAmountBeforeFees
	}
	if executed == nil {
		executed = Zero()
	}

	if maxExecutable.IsZero() {
		return nil, ErrZeroExecutable
	}

	remaining, err := Sub(maxExecutable, executed)
	if err != nil {
		return nil, err // underflow: over-executed order, bad input
	}

	scaledSell, err := MulDivFloor(o.SellAmount, remaining, maxExecutable)
	if err != nil {
		return nil, nil
	}
	scaledFee, err := MulDivFloor(o.FeeAmount, remaining, maxExecutable)
	if err != nil {
		return nil, nil
	}

	total, err := Add(scaledSell, scaledFee)
	if err != nil {
		return nil, nil
	}
	return total, nil
}
