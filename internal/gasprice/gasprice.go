// Package gasprice estimates EIP-1559 gas prices from a live
// ethclient.Client, caching the suggestion for a short interval so a
// burst of Estimate/EstimateGasPriceWei calls (the sender loop prices
// again after a priced-out cap, the orderbook checks fee sufficiency per intake)
// doesn't hammer the node, grounded on
// other_examples/.../onchain/merge.go's getGasPrice cache-with-fallback
// pattern.
package gasprice

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"

	"github.com/cowbatch/settlement/internal/domain"
	"github.com/cowbatch/settlement/internal/submitter"
)

// ErrValueOutOfRange is returned if the node ever reports a negative
// or implausibly large fee figure — values a conformant EVM node never
// actually produces, but domain.FromBig's overflow signal must still
// be handled.
var ErrValueOutOfRange = errors.New("gasprice: node-reported fee value out of u256 range")

const cacheInterval = 5 * time.Second

// fallbackTipWei and fallbackCapWei are used only when the node's
// suggestion calls fail and no cached value is available yet.
var (
	fallbackTipWei = domain.FromUint64(1_500_000_000)  // 1.5 gwei
	fallbackCapWei = domain.FromUint64(30_000_000_000) // 30 gwei
)

// Estimator implements both submitter.GasEstimator and
// orderbook.GasPriceSource against a single live node connection.
type Estimator struct {
	client *ethclient.Client

	mu         sync.RWMutex
	cachedTip  *domain.U256
	cachedCap  *domain.U256
	updatedAt  time.Time
}

func New(client *ethclient.Client) *Estimator {
	return &Estimator{client: client}
}

// Estimate implements submitter.GasEstimator: headroom scaling is the
// sender loop's job (senderloop.go applies GasEstimateHeadroom to the
// gas limit), so this only reports tip/cap.
func (e *Estimator) Estimate(ctx context.Context, gasLimit uint64, timeRemaining time.Duration) (submitter.GasPrice, error) {
	tip, cap, err := e.current(ctx)
	if err != nil {
		return submitter.GasPrice{}, err
	}
	return submitter.GasPrice{Cap: cap, Tip: tip}, nil
}

// EstimateGasPriceWei implements orderbook.GasPriceSource: the fee
// floor check wants a single wei-per-gas figure, so this reports the
// cap (the worst case the order's fee must cover).
func (e *Estimator) EstimateGasPriceWei(ctx context.Context) (*domain.U256, error) {
	_, cap, err := e.current(ctx)
	return cap, err
}

func (e *Estimator) current(ctx context.Context) (*domain.U256, *domain.U256, error) {
	e.mu.RLock()
	tip, cap, updatedAt := e.cachedTip, e.cachedCap, e.updatedAt
	e.mu.RUnlock()

	if tip != nil && time.Since(updatedAt) < cacheInterval {
		return tip, cap, nil
	}

	freshTip, tipErr := e.client.SuggestGasTipCap(ctx)
	header, headErr := e.client.HeaderByNumber(ctx, nil)

	if tipErr != nil || headErr != nil || header.BaseFee == nil {
		if tip != nil {
			return tip, cap, nil
		}
		log.Warn().Msg("gasprice: estimator unreachable, using fallback")
		return fallbackTipWei, fallbackCapWei, nil
	}

	tipU, tipOverflow := domain.FromBig(freshTip)
	baseFeeU, baseOverflow := domain.FromBig(header.BaseFee)
	if tipOverflow || baseOverflow {
		return nil, nil, ErrValueOutOfRange
	}

	// cap = 2·base_fee + tip, the standard EIP-1559 headroom so the
	// transaction stays valid across a couple of base-fee increases.
	doubledBase, err := domain.Mul(baseFeeU, domain.FromUint64(2))
	if err != nil {
		return nil, nil, err
	}
	capU, err := domain.Add(doubledBase, tipU)
	if err != nil {
		return nil, nil, err
	}

	e.mu.Lock()
	e.cachedTip = tipU
	e.cachedCap = capU
	e.updatedAt = time.Now()
	e.mu.Unlock()

	return tipU, capU, nil
}
