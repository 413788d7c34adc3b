package cache

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowbatch/settlement/internal/domain"
)

func newTestOrder(owner, sell, buy common.Address, sellAmount, feeAmount uint64, created time.Time) domain.Order {
	return domain.Order{
		Owner:      owner,
		SellToken:  sell,
		BuyToken:   buy,
		SellAmount: domain.FromUint64(sellAmount),
		BuyAmount:  domain.FromUint64(1),
		FeeAmount:  domain.FromUint64(feeAmount),
		ValidTo:    ^uint32(0),
		CreationDate: created,
	}
}

func TestRationBalancesNewestFirst(t *testing.T) {
	owner := common.HexToAddress("0x1")
	sell := common.HexToAddress("0x2")
	buy := common.HexToAddress("0x3")

	older := newTestOrder(owner, sell, buy, 60, 0, time.Unix(100, 0))
	newer := newTestOrder(owner, sell, buy, 60, 0, time.Unix(200, 0))

	balances := map[domain.BalanceQuery]*domain.U256{
		older.Query(): domain.FromUint64(100),
	}

	kept := rationBalances([]domain.Order{older, newer}, balances)

	require.Len(t, kept, 1)
	assert.Equal(t, newer.CreationDate, kept[0].CreationDate, "newest order should be admitted over the older sibling")
}

func TestRationBalancesSkipsQueryWithoutBalance(t *testing.T) {
	owner := common.HexToAddress("0x1")
	sell := common.HexToAddress("0x2")
	buy := common.HexToAddress("0x3")

	o := newTestOrder(owner, sell, buy, 10, 0, time.Unix(1, 0))
	kept := rationBalances([]domain.Order{o}, map[domain.BalanceQuery]*domain.U256{})

	assert.Empty(t, kept)
}

func TestRationBalancesAdmitsBothWhenBalanceSuffices(t *testing.T) {
	owner := common.HexToAddress("0x1")
	sell := common.HexToAddress("0x2")
	buy := common.HexToAddress("0x3")

	a := newTestOrder(owner, sell, buy, 10, 0, time.Unix(1, 0))
	b := newTestOrder(owner, sell, buy, 10, 0, time.Unix(2, 0))

	balances := map[domain.BalanceQuery]*domain.U256{
		a.Query(): domain.FromUint64(100),
	}

	kept := rationBalances([]domain.Order{a, b}, balances)
	assert.Len(t, kept, 2)
}
