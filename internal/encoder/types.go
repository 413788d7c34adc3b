// Package encoder builds a single batch settlement incrementally,
// enforcing the uniform-clearing-price and token-index invariants of
// spec.md §3, and exposes Merge to combine two independently-solved
// drafts into one atomic settlement (spec.md §4.2).
package encoder

import (
	"github.com/cowbatch/settlement/internal/domain"
)

// Trade is the common shape shared by normal and liquidity trades.
type Trade struct {
	Order           *domain.Order
	SellTokenIndex  int
	ExecutedAmount  *domain.U256
	ScaledFeeAmount *domain.U256
}

// NormalOrderTrade settles at the uniform clearing prices of both
// tokens.
type NormalOrderTrade struct {
	Trade
	BuyTokenIndex int
}

// LiquidityOrderTrade settles at the sell side of the uniform clearing
// price vector and a custom buy price derived from the order's limit
// (floored, so the limit always holds).
type LiquidityOrderTrade struct {
	Trade
	BuyTokenOffsetIndex int
	BuyTokenPrice       *domain.U256
}

// Interaction is an opaque on-chain call the settlement executes
// in-between the uniform-price transfers: an AMM swap, an approval, or
// a WETH unwrap.
type Interaction struct {
	Target   domain.Token
	Value    *domain.U256
	CallData []byte
}

// Unwrap is a native-token unwrap request: convert amount of wrapped
// native token back to the native asset at weth_address.
type Unwrap struct {
	WethAddress domain.Token
	Amount      *domain.U256
}

// TradeExecution is the executed (sell, buy, fee) triple AddTrade and
// AddLiquidityOrderTrade compute from an order's limit and the
// clearing prices in force at the moment of the call.
type TradeExecution struct {
	Sell *domain.U256
	Buy  *domain.U256
	Fee  *domain.U256
}

// EncodedSettlement is the flat on-chain tuple Finish emits.
type EncodedSettlement struct {
	Tokens       []domain.Token
	Prices       []*domain.U256
	Trades       []EncodedTrade
	Interactions [3][]Interaction // pre, intra, post
}

// EncodedTrade is a trade with indices resolved against the final
// Tokens slice, ready for ABI encoding by the caller.
type EncodedTrade struct {
	Order           *domain.Order
	SellTokenIndex  int
	BuyTokenIndex   int
	ExecutedAmount  *domain.U256
	ScaledFeeAmount *domain.U256
}
