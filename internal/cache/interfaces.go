package cache

import (
	"context"

	"github.com/cowbatch/settlement/internal/domain"
)

// OrderStoring is the external order-persistence collaborator (spec.md
// §6): "consumed", never implemented by this package.
type OrderStoring interface {
	SolvableOrders(ctx context.Context, minValidTo uint32) (orders []domain.Order, latestSettlementBlock uint64, err error)
}

// BalanceFetcher returns on-chain balances for a batch of queries,
// element-wise, same length and order as the input.
type BalanceFetcher interface {
	GetBalances(ctx context.Context, queries []domain.BalanceQuery) []BalanceResult
}

// BalanceResult is one element of a GetBalances response.
type BalanceResult struct {
	Balance *domain.U256
	Err     error
}

// NativePriceEstimator returns a token→native ratio as a float, one per
// requested token, element-wise.
type NativePriceEstimator interface {
	EstimateNativePrices(ctx context.Context, tokens []domain.Token) []NativePriceResult
}

// NativePriceResult is one element of an EstimateNativePrices response.
type NativePriceResult struct {
	Price float64
	Err   error
}

// BadTokenQuality is the verdict of a BadTokenDetector.Detect call.
type BadTokenQuality uint8

const (
	TokenGood BadTokenQuality = iota
	TokenBad
)

// BadTokenDetector classifies a token as tradable or not.
type BadTokenDetector interface {
	Detect(ctx context.Context, token domain.Token) (quality BadTokenQuality, reason string, err error)
}

// BlockStream is a borrowable view of the latest block the cache polls
// for a block number to rebuild against.
type BlockStream interface {
	LatestBlockNumber() (number uint64, ok bool)
}
