package encoder

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowbatch/settlement/internal/domain"
)

func TestFinishDropsUnreferencedTokens(t *testing.T) {
	tokenC := common.HexToAddress("0xc") // priced but traded by nobody
	d := New(map[domain.Token]*domain.U256{
		tokenA: domain.FromUint64(2e18),
		tokenB: domain.FromUint64(1e18),
		tokenC: domain.FromUint64(3),
	})
	order := &domain.Order{
		SellToken:  tokenA,
		BuyToken:   tokenB,
		Kind:       domain.KindSell,
		SellAmount: domain.FromUint64(100),
		BuyAmount:  domain.FromUint64(1),
	}
	_, err := d.AddTrade(order, domain.FromUint64(100), domain.Zero())
	require.NoError(t, err)

	settlement, err := d.Finish()
	require.NoError(t, err)
	assert.ElementsMatch(t, settlement.Tokens, []domain.Token{tokenA, tokenB})
	assert.Len(t, settlement.Prices, 2)
	require.Len(t, settlement.Trades, 1)
	assert.Equal(t, 0, settlement.Trades[0].SellTokenIndex)
}

func TestFinishAppendsLiquidityBuyTokenAfterUniformVector(t *testing.T) {
	d := newDraft()
	order := &domain.Order{
		SellToken:  tokenA,
		BuyToken:   tokenB,
		SellAmount: domain.FromUint64(200),
		BuyAmount:  domain.FromUint64(100),
	}
	require.NoError(t, d.AddLiquidityOrderTrade(order, domain.FromUint64(50), domain.Zero()))

	settlement, err := d.Finish()
	require.NoError(t, err)
	// The liquidity trade's sell token stays in the uniform-price vector,
	// so sortedNormalTokens is [tokenA]; the liquidity buy token follows
	// it, and the buy index is len(sortedNormalTokens) + offset 0 = 1.
	require.Len(t, settlement.Tokens, 2)
	assert.Equal(t, tokenA, settlement.Tokens[0])
	assert.Equal(t, tokenB, settlement.Tokens[1])
	require.Len(t, settlement.Trades, 1)
	assert.Equal(t, 1, settlement.Trades[0].BuyTokenIndex)
}

func TestFinishEncodesUnwrapAsInteraction(t *testing.T) {
	d := newDraft()
	order := &domain.Order{SellToken: tokenA, BuyToken: tokenB, Kind: domain.KindSell, SellAmount: domain.FromUint64(1), BuyAmount: domain.FromUint64(1)}
	_, err := d.AddTrade(order, domain.FromUint64(1), domain.Zero())
	require.NoError(t, err)

	d.AddUnwrap(Unwrap{WethAddress: tokenA, Amount: domain.FromUint64(7)})

	settlement, err := d.Finish()
	require.NoError(t, err)
	require.Len(t, settlement.Interactions[1], 1)
	assert.Equal(t, tokenA, settlement.Interactions[1][0].Target)
	assert.NotEmpty(t, settlement.Interactions[1][0].CallData)
}
