package encoder

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/cowbatch/settlement/internal/domain"
)

// wethABI exposes withdraw(uint256), the only WETH entry point this
// package needs to encode an unwrap as an Interaction. Parsed once at
// package init, the same abi.JSON(strings.NewReader(...)) idiom the
// on-chain merge executor in the retrieval pack uses for its CTF/ERC1155
// calls.
var wethABI abi.ABI

func init() {
	var err error
	wethABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "withdraw",
			"type": "function",
			"inputs": [{"name": "wad", "type": "uint256"}]
		}
	]`))
	if err != nil {
		panic("encoder: invalid embedded WETH ABI: " + err.Error())
	}
}

// Finish drops tokens referenced by no trade, recomputes indices
// against the surviving set, and emits the flat on-chain tuple.
func (d *Draft) Finish() (EncodedSettlement, error) {
	used := make(map[domain.Token]bool)
	for _, t := range d.trades {
		used[t.Order.SellToken] = true
		used[t.Order.BuyToken] = true
	}
	for _, t := range d.liquidityTrades {
		used[t.Order.SellToken] = true
	}

	var sortedNormalTokens []domain.Token
	for _, t := range d.tokens {
		if used[t] {
			sortedNormalTokens = append(sortedNormalTokens, t)
		}
	}

	prices := make([]*domain.U256, 0, len(sortedNormalTokens)+len(d.liquidityTrades))
	for _, t := range sortedNormalTokens {
		prices = append(prices, d.clearingPrices[t])
	}

	tokens := append([]domain.Token(nil), sortedNormalTokens...)
	for _, lt := range d.liquidityTrades {
		tokens = append(tokens, lt.Order.BuyToken)
		prices = append(prices, lt.BuyTokenPrice)
	}

	encodedTrades := make([]EncodedTrade, 0, len(d.trades)+len(d.liquidityTrades))
	for _, t := range d.trades {
		encodedTrades = append(encodedTrades, EncodedTrade{
			Order:           t.Order,
			SellTokenIndex:  domain.IndexOf(sortedNormalTokens, t.Order.SellToken),
			BuyTokenIndex:   domain.IndexOf(sortedNormalTokens, t.Order.BuyToken),
			ExecutedAmount:  t.ExecutedAmount,
			ScaledFeeAmount: t.ScaledFeeAmount,
		})
	}
	for _, lt := range d.liquidityTrades {
		encodedTrades = append(encodedTrades, EncodedTrade{
			Order:           lt.Order,
			SellTokenIndex:  domain.IndexOf(sortedNormalTokens, lt.Order.SellToken),
			BuyTokenIndex:   len(sortedNormalTokens) + lt.BuyTokenOffsetIndex,
			ExecutedAmount:  lt.ExecutedAmount,
			ScaledFeeAmount: lt.ScaledFeeAmount,
		})
	}

	intra := append([]Interaction(nil), d.executionPlan...)
	for _, u := range d.unwraps {
		calldata, err := wethABI.Pack("withdraw", u.Amount.ToBig())
		if err != nil {
			return EncodedSettlement{}, err
		}
		intra = append(intra, Interaction{
			Target:   u.WethAddress,
			Value:    domain.Zero(),
			CallData: calldata,
		})
	}

	return EncodedSettlement{
		Tokens:       tokens,
		Prices:       prices,
		Trades:       encodedTrades,
		Interactions: [3][]Interaction{nil, intra, nil},
	}, nil
}
