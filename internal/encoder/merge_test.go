package encoder

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowbatch/settlement/internal/domain"
)

func TestMergeSharedTokenNoScaling(t *testing.T) {
	self := New(map[domain.Token]*domain.U256{
		tokenA: domain.FromUint64(10),
		tokenB: domain.FromUint64(20),
	})
	tokenC := common.HexToAddress("0xc")
	other := New(map[domain.Token]*domain.U256{
		tokenA: domain.FromUint64(10),
		tokenC: domain.FromUint64(30),
	})

	merged, err := self.Merge(other)
	require.NoError(t, err)
	assert.True(t, domain.Equal(merged.clearingPrices[tokenC], domain.FromUint64(30)))
	assert.True(t, domain.TokensSorted(merged.tokens))
}

func TestMergeScalesUpWhenSelfIsSmaller(t *testing.T) {
	// self's shared-token price is smaller than other's: k<1, so the
	// merge recurses as other.merge(self) and scales self's prices up.
	tokenC := common.HexToAddress("0xc")
	self := New(map[domain.Token]*domain.U256{
		tokenA: domain.FromUint64(10),
	})
	other := New(map[domain.Token]*domain.U256{
		tokenA: domain.FromUint64(100),
		tokenC: domain.FromUint64(5),
	})

	merged, err := self.Merge(other)
	require.NoError(t, err)
	// k = 100/10 = 10 after the recursion; self contributes no extra tokens here,
	// other's own prices pass through unscaled on its own side.
	assert.True(t, domain.Equal(merged.clearingPrices[tokenA], domain.FromUint64(100)))
	assert.True(t, domain.Equal(merged.clearingPrices[tokenC], domain.FromUint64(5)))
}

func TestMergeRejectsDuplicateOrder(t *testing.T) {
	self := New(map[domain.Token]*domain.U256{tokenA: domain.FromUint64(1), tokenB: domain.FromUint64(1)})
	other := New(map[domain.Token]*domain.U256{tokenA: domain.FromUint64(1), tokenB: domain.FromUint64(1)})

	uid := domain.OrderUID{9}
	order := &domain.Order{UID: uid, SellToken: tokenA, BuyToken: tokenB, Kind: domain.KindSell, SellAmount: domain.FromUint64(1), BuyAmount: domain.FromUint64(1)}

	_, err := self.AddTrade(order, domain.FromUint64(1), domain.Zero())
	require.NoError(t, err)
	_, err = other.AddTrade(order, domain.FromUint64(1), domain.Zero())
	require.NoError(t, err)

	_, err = self.Merge(other)
	assert.ErrorIs(t, err, ErrDuplicateOrder)
}

func TestMergeConcatenatesExecutionPlanSelfFirst(t *testing.T) {
	self := New(map[domain.Token]*domain.U256{tokenA: domain.FromUint64(1)})
	other := New(map[domain.Token]*domain.U256{tokenA: domain.FromUint64(1)})

	self.AppendToExecutionPlan(Interaction{Target: tokenA, Value: domain.Zero(), CallData: []byte("self")})
	other.AppendToExecutionPlan(Interaction{Target: tokenB, Value: domain.Zero(), CallData: []byte("other")})

	merged, err := self.Merge(other)
	require.NoError(t, err)
	require.Len(t, merged.executionPlan, 2)
	assert.Equal(t, "self", string(merged.executionPlan[0].CallData))
	assert.Equal(t, "other", string(merged.executionPlan[1].CallData))
}
