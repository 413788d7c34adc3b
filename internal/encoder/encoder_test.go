package encoder

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowbatch/settlement/internal/domain"
)

var (
	tokenA = common.HexToAddress("0xa")
	tokenB = common.HexToAddress("0xb")
)

func newDraft() *Draft {
	return New(map[domain.Token]*domain.U256{
		tokenA: domain.FromUint64(2e18),
		tokenB: domain.FromUint64(1e18),
	})
}

func TestNewSeedsSortedTokens(t *testing.T) {
	d := newDraft()
	assert.True(t, domain.TokensSorted(d.tokens))
	assert.Len(t, d.tokens, 2)
}

func TestAddTradeSellOrder(t *testing.T) {
	d := newDraft()
	order := &domain.Order{
		UID:        domain.OrderUID{1},
		SellToken:  tokenA,
		BuyToken:   tokenB,
		Kind:       domain.KindSell,
		SellAmount: domain.FromUint64(100),
		BuyAmount:  domain.FromUint64(1),
	}

	exec, err := d.AddTrade(order, domain.FromUint64(100), domain.FromUint64(1))
	require.NoError(t, err)
	assert.True(t, domain.Equal(exec.Sell, domain.FromUint64(100)))
	// buy = floor(100 * 2e18 / 1e18) = 200
	assert.True(t, domain.Equal(exec.Buy, domain.FromUint64(200)))
	require.Len(t, d.trades, 1)
}

func TestAddTradeMissingPriceFails(t *testing.T) {
	d := New(map[domain.Token]*domain.U256{tokenA: domain.FromUint64(1)})
	order := &domain.Order{SellToken: tokenA, BuyToken: tokenB, Kind: domain.KindSell, SellAmount: domain.FromUint64(1)}
	_, err := d.AddTrade(order, domain.FromUint64(1), domain.Zero())
	assert.ErrorIs(t, err, ErrNoClearingPrice)
}

func TestAddLiquidityOrderTradeDerivesBuyPrice(t *testing.T) {
	d := newDraft()
	order := &domain.Order{
		SellToken:  tokenA,
		BuyToken:   tokenB,
		SellAmount: domain.FromUint64(200),
		BuyAmount:  domain.FromUint64(100),
	}
	err := d.AddLiquidityOrderTrade(order, domain.FromUint64(50), domain.Zero())
	require.NoError(t, err)
	require.Len(t, d.liquidityTrades, 1)
	// p_buy = p_sell * sell/buy = 2e18 * 200/100 = 4e18
	assert.True(t, domain.Equal(d.liquidityTrades[0].BuyTokenPrice, domain.FromUint64(4e18)))
	assert.Equal(t, 0, d.liquidityTrades[0].BuyTokenOffsetIndex)
}

func TestAddTokenEquivalencyCopiesPrice(t *testing.T) {
	d := New(map[domain.Token]*domain.U256{tokenA: domain.FromUint64(5)})
	tokenC := common.HexToAddress("0xc")
	err := d.AddTokenEquivalency(tokenA, tokenC)
	require.NoError(t, err)
	p, ok := d.clearingPrices[tokenC]
	require.True(t, ok)
	assert.True(t, domain.Equal(p, domain.FromUint64(5)))
}

func TestAddTokenEquivalencyMismatchFails(t *testing.T) {
	d := newDraft()
	err := d.AddTokenEquivalency(tokenA, tokenB)
	assert.ErrorIs(t, err, ErrPriceMismatch)
}

func TestAddUnwrapMergesByAddress(t *testing.T) {
	d := newDraft()
	d.AddUnwrap(Unwrap{WethAddress: tokenA, Amount: domain.FromUint64(10)})
	d.AddUnwrap(Unwrap{WethAddress: tokenA, Amount: domain.FromUint64(5)})
	require.Len(t, d.unwraps, 1)
	assert.True(t, domain.Equal(d.AmountToUnwrap(tokenA), domain.FromUint64(15)))
}

func TestDropUnwrap(t *testing.T) {
	d := newDraft()
	d.AddUnwrap(Unwrap{WethAddress: tokenA, Amount: domain.FromUint64(10)})
	d.DropUnwrap(tokenA)
	assert.Empty(t, d.unwraps)
}
