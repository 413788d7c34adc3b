package encoder

import (
	"errors"

	"github.com/cowbatch/settlement/internal/domain"
)

var (
	ErrNoClearingPrice  = errors.New("encoder: token has no clearing price")
	ErrZeroPrice        = errors.New("encoder: clearing price is zero on the side determining the counter amount")
	ErrPriceMismatch    = errors.New("encoder: token equivalency prices disagree")
	ErrNoPriceAvailable = errors.New("encoder: neither token has a clearing price")
)

// Draft is the encoder's mutable state (spec.md §3's "Settlement draft
// E"). Every public method preserves its invariants: tokens sorted
// with no duplicates, every clearing-price key present in tokens, every
// trade's stored indices matching its tokens' position.
type Draft struct {
	tokens          []domain.Token
	clearingPrices  map[domain.Token]*domain.U256
	trades          []NormalOrderTrade
	liquidityTrades []LiquidityOrderTrade
	executionPlan   []Interaction
	unwraps         []Unwrap
}

// New seeds a draft from a clearing-price mapping; tokens start sorted
// ascending and trade lists start empty.
func New(prices map[domain.Token]*domain.U256) *Draft {
	d := &Draft{
		clearingPrices: make(map[domain.Token]*domain.U256, len(prices)),
	}
	for t, p := range prices {
		d.clearingPrices[t] = p
		d.tokens = append(d.tokens, t)
	}
	domain.SortTokens(d.tokens)
	return d
}

// AddTrade prices order against the draft's clearing prices and
// appends a NormalOrderTrade.
func (d *Draft) AddTrade(order *domain.Order, executedAmount, scaledFeeAmount *domain.U256) (TradeExecution, error) {
	sellIdx := domain.IndexOf(d.tokens, order.SellToken)
	buyIdx := domain.IndexOf(d.tokens, order.BuyToken)
	pSell, sellOK := d.clearingPrices[order.SellToken]
	pBuy, buyOK := d.clearingPrices[order.BuyToken]
	if sellIdx < 0 || buyIdx < 0 || !sellOK || !buyOK {
		return TradeExecution{}, ErrNoClearingPrice
	}

	exec, err := computeExecution(order, pSell, pBuy, executedAmount, scaledFeeAmount)
	if err != nil {
		return TradeExecution{}, err
	}

	d.trades = append(d.trades, NormalOrderTrade{
		Trade: Trade{
			Order:           order,
			SellTokenIndex:  sellIdx,
			ExecutedAmount:  executedAmount,
			ScaledFeeAmount: scaledFeeAmount,
		},
		BuyTokenIndex: buyIdx,
	})

	return exec, nil
}

// AddLiquidityOrderTrade appends a LiquidityOrderTrade whose buy price
// is derived from the order's own limit, p_buy = floor(p_sell·sell_amount
// / buy_amount), so that the on-chain check sell_amount·p_sell ≥
// buy_amount·p_buy always holds; it holds with equality when buy_amount
// divides p_sell·sell_amount exactly.
func (d *Draft) AddLiquidityOrderTrade(order *domain.Order, executedAmount, scaledFeeAmount *domain.U256) error {
	sellIdx := domain.IndexOf(d.tokens, order.SellToken)
	pSell, ok := d.clearingPrices[order.SellToken]
	if sellIdx < 0 || !ok {
		return ErrNoClearingPrice
	}
	if domain.IsZero(order.BuyAmount) {
		return ErrZeroPrice
	}

	pBuy, err := domain.MulDivFloor(pSell, order.SellAmount, order.BuyAmount)
	if err != nil {
		return err
	}

	d.liquidityTrades = append(d.liquidityTrades, LiquidityOrderTrade{
		Trade: Trade{
			Order:           order,
			SellTokenIndex:  sellIdx,
			ExecutedAmount:  executedAmount,
			ScaledFeeAmount: scaledFeeAmount,
		},
		BuyTokenOffsetIndex: len(d.liquidityTrades),
		BuyTokenPrice:       pBuy,
	})
	return nil
}

// computeExecution derives the executed (sell, buy, fee) triple from
// an order's kind and the pair of clearing prices in force. It fails
// if the price on the side determining the counter amount is zero.
func computeExecution(order *domain.Order, pSell, pBuy, executedAmount, scaledFeeAmount *domain.U256) (TradeExecution, error) {
	switch order.Kind {
	case domain.KindSell:
		if domain.IsZero(pBuy) {
			return TradeExecution{}, ErrZeroPrice
		}
		buy, err := domain.MulDivFloor(executedAmount, pSell, pBuy)
		if err != nil {
			return TradeExecution{}, err
		}
		return TradeExecution{Sell: executedAmount, Buy: buy, Fee: scaledFeeAmount}, nil
	default: // KindBuy
		if domain.IsZero(pSell) {
			return TradeExecution{}, ErrZeroPrice
		}
		sell, err := domain.MulDivCeil(executedAmount, pBuy, pSell)
		if err != nil {
			return TradeExecution{}, err
		}
		return TradeExecution{Sell: sell, Buy: executedAmount, Fee: scaledFeeAmount}, nil
	}
}

// AppendToExecutionPlan pushes an opaque interaction, preserving call
// order.
func (d *Draft) AppendToExecutionPlan(interaction Interaction) {
	d.executionPlan = append(d.executionPlan, interaction)
}

// AddUnwrap merges amount into an existing unwrap for the same WETH
// address, or appends a new one. A checked-addition overflow falls
// through to an append rather than failing the call.
func (d *Draft) AddUnwrap(u Unwrap) {
	for i := range d.unwraps {
		if d.unwraps[i].WethAddress != u.WethAddress {
			continue
		}
		if sum, err := domain.Add(d.unwraps[i].Amount, u.Amount); err == nil {
			d.unwraps[i].Amount = sum
			return
		}
		break
	}
	d.unwraps = append(d.unwraps, u)
}

// DropUnwrap removes all unwraps for the given WETH address.
func (d *Draft) DropUnwrap(token domain.Token) {
	kept := d.unwraps[:0]
	for _, u := range d.unwraps {
		if u.WethAddress != token {
			kept = append(kept, u)
		}
	}
	d.unwraps = kept
}

// AmountToUnwrap sums the amounts of every unwrap matching token.
func (d *Draft) AmountToUnwrap(token domain.Token) *domain.U256 {
	total := domain.Zero()
	for _, u := range d.unwraps {
		if u.WethAddress != token {
			continue
		}
		// Overflow is impossible here: each summand already passed a
		// checked addition on its way into the unwrap list.
		if sum, err := domain.Add(total, u.Amount); err == nil {
			total = sum
		}
	}
	return total
}

// AddTokenEquivalency declares a and b to be the same asset. If both
// already have prices they must agree; if neither has one, that is an
// error; otherwise the known price is copied onto the missing token
// and every trade index is recomputed, since this is the one operation
// besides Merge that can shift previously added trades' indices.
func (d *Draft) AddTokenEquivalency(a, b domain.Token) error {
	pa, aOK := d.clearingPrices[a]
	pb, bOK := d.clearingPrices[b]

	switch {
	case aOK && bOK:
		if !domain.Equal(pa, pb) {
			return ErrPriceMismatch
		}
		return nil
	case !aOK && !bOK:
		return ErrNoPriceAvailable
	case aOK:
		d.clearingPrices[b] = pa
		d.tokens = append(d.tokens, b)
	default:
		d.clearingPrices[a] = pb
		d.tokens = append(d.tokens, a)
	}

	domain.SortTokens(d.tokens)
	d.recomputeIndices()
	return nil
}

// recomputeIndices re-resolves every trade's sell/buy-token index
// against the current (sorted) tokens slice.
func (d *Draft) recomputeIndices() {
	for i := range d.trades {
		t := &d.trades[i]
		t.SellTokenIndex = domain.IndexOf(d.tokens, t.Order.SellToken)
		t.BuyTokenIndex = domain.IndexOf(d.tokens, t.Order.BuyToken)
	}
	for i := range d.liquidityTrades {
		t := &d.liquidityTrades[i]
		t.SellTokenIndex = domain.IndexOf(d.tokens, t.Order.SellToken)
	}
}

func (d *Draft) clone() *Draft {
	out := &Draft{
		clearingPrices: make(map[domain.Token]*domain.U256, len(d.clearingPrices)),
	}
	out.tokens = append(out.tokens, d.tokens...)
	for t, p := range d.clearingPrices {
		out.clearingPrices[t] = p
	}
	out.trades = append(out.trades, d.trades...)
	out.liquidityTrades = append(out.liquidityTrades, d.liquidityTrades...)
	out.executionPlan = append(out.executionPlan, d.executionPlan...)
	out.unwraps = append(out.unwraps, d.unwraps...)
	return out
}
