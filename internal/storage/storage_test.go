package storage

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/cowbatch/settlement/internal/domain"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	return s
}

func sampleOrder(uidByte byte, validTo uint32) *domain.Order {
	var uid domain.OrderUID
	uid[0] = uidByte
	return &domain.Order{
		UID:        uid,
		Owner:      common.HexToAddress("0x1"),
		SellToken:  common.HexToAddress("0x2"),
		BuyToken:   common.HexToAddress("0x3"),
		SellAmount: domain.FromUint64(100),
		BuyAmount:  domain.FromUint64(200),
		FeeAmount:  domain.Zero(),
		ValidTo:    validTo,
		Kind:       domain.KindSell,
	}
}

func TestInsertAndFetchSolvableOrders(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.InsertOrder(ctx, sampleOrder(1, 2000)))
	require.NoError(t, s.InsertOrder(ctx, sampleOrder(2, 500)))

	orders, _, err := s.SolvableOrders(ctx, 1000)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, byte(1), orders[0].UID[0])
	require.True(t, domain.Equal(domain.FromUint64(100), orders[0].SellAmount))
}

func TestInvalidateOrderExcludesFromSolvableOrders(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	order := sampleOrder(3, 2000)
	require.NoError(t, s.InsertOrder(ctx, order))
	require.NoError(t, s.Invalidate(ctx, order.UID))

	orders, _, err := s.SolvableOrders(ctx, 0)
	require.NoError(t, err)
	require.Len(t, orders, 0)
}

func TestSolvableOrdersReportsLatestConfirmedSettlement(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	hash := common.HexToHash("0xabc")
	require.NoError(t, s.RecordSubmission(ctx, 100, hash))
	require.NoError(t, s.ResolveSubmission(ctx, 100, "confirmed", ""))

	_, latest, err := s.SolvableOrders(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(100), latest)
}
