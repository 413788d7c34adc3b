package encoder

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowbatch/settlement/internal/domain"
)

func TestTotalSurplusSellOrder(t *testing.T) {
	d := newDraft() // tokenA price 2e18, tokenB price 1e18
	order := &domain.Order{
		SellToken:  tokenA,
		BuyToken:   tokenB,
		Kind:       domain.KindSell,
		SellAmount: domain.FromUint64(100),
		BuyAmount:  domain.FromUint64(150),
	}
	_, err := d.AddTrade(order, domain.FromUint64(100), domain.Zero())
	require.NoError(t, err)

	normalizing := map[domain.Token]*big.Rat{
		tokenA: big.NewRat(2, 1),
		tokenB: big.NewRat(1, 1),
	}

	surplus, ok := d.TotalSurplus(normalizing)
	require.True(t, ok)
	assert.True(t, surplus.Sign() >= 0)
}

func TestTotalSurplusNegativeSurplusFailsWholeDraft(t *testing.T) {
	d := newDraft() // tokenA price 2e18, tokenB price 1e18
	good := &domain.Order{
		SellToken:  tokenA,
		BuyToken:   tokenB,
		Kind:       domain.KindSell,
		SellAmount: domain.FromUint64(100),
		BuyAmount:  domain.FromUint64(150),
	}
	_, err := d.AddTrade(good, domain.FromUint64(100), domain.Zero())
	require.NoError(t, err)

	// limit price a_b/a_s = 3 exceeds the clearing ratio p_s/p_b = 2: this
	// trade executes below its limit, a negative surplus.
	bad := &domain.Order{
		SellToken:  tokenA,
		BuyToken:   tokenB,
		Kind:       domain.KindSell,
		SellAmount: domain.FromUint64(100),
		BuyAmount:  domain.FromUint64(300),
	}
	_, err = d.AddTrade(bad, domain.FromUint64(100), domain.Zero())
	require.NoError(t, err)

	normalizing := map[domain.Token]*big.Rat{
		tokenA: big.NewRat(2, 1),
		tokenB: big.NewRat(1, 1),
	}

	surplus, ok := d.TotalSurplus(normalizing)
	assert.False(t, ok)
	assert.Nil(t, surplus)
}

func TestTotalSurplusMissingNormalizingPriceFails(t *testing.T) {
	d := newDraft()
	order := &domain.Order{SellToken: tokenA, BuyToken: tokenB, Kind: domain.KindSell, SellAmount: domain.FromUint64(1), BuyAmount: domain.FromUint64(1)}
	_, err := d.AddTrade(order, domain.FromUint64(1), domain.Zero())
	require.NoError(t, err)

	_, ok := d.TotalSurplus(map[domain.Token]*big.Rat{tokenA: big.NewRat(1, 1)})
	assert.False(t, ok)
}
