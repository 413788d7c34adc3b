// Package nativeprice estimates a token's price denominated in the
// chain's native asset via Chainlink aggregator feeds, grounded on the
// teacher's internal/chainlink/client.go selector-based ethCall and
// latestRoundData/latestAnswer fallback.
package nativeprice

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"

	"github.com/cowbatch/settlement/internal/cache"
	"github.com/cowbatch/settlement/internal/domain"
)

var (
	latestRoundDataSelector = hexutil.MustDecode("0xfeaf968c")
	decimalsSelector        = hexutil.MustDecode("0x313ce567")
)

// ChainlinkEstimator implements internal/cache.NativePriceEstimator
// against a fixed map of token → Chainlink aggregator address, one
// feed per supported token (feeds denominated in the chain's native
// asset, e.g. a TOKEN/ETH aggregator).
type ChainlinkEstimator struct {
	Client *ethclient.Client
	Feeds  map[common.Address]common.Address
}

func (e *ChainlinkEstimator) EstimateNativePrices(ctx context.Context, tokens []domain.Token) []cache.NativePriceResult {
	out := make([]cache.NativePriceResult, len(tokens))
	for i, token := range tokens {
		out[i] = e.estimateOne(ctx, token)
	}
	return out
}

func (e *ChainlinkEstimator) estimateOne(ctx context.Context, token domain.Token) cache.NativePriceResult {
	feed, ok := e.Feeds[token]
	if !ok {
		return cache.NativePriceResult{Err: errNoFeed{token}}
	}

	answer, err := e.call(ctx, feed, latestRoundDataSelector)
	if err != nil || len(answer) < 64 {
		return cache.NativePriceResult{Err: err}
	}
	rawAnswer := new(big.Int).SetBytes(answer[32:64])

	decimalsRaw, err := e.call(ctx, feed, decimalsSelector)
	if err != nil || len(decimalsRaw) < 32 {
		log.Warn().Err(err).Msg("nativeprice: decimals() call failed, assuming 8")
		decimalsRaw = make([]byte, 32)
		decimalsRaw[31] = 8
	}
	decimals := new(big.Int).SetBytes(decimalsRaw).Int64()

	price := new(big.Float).Quo(
		new(big.Float).SetInt(rawAnswer),
		new(big.Float).SetFloat64(pow10(decimals)),
	)
	f, _ := price.Float64()
	return cache.NativePriceResult{Price: f}
}

func (e *ChainlinkEstimator) call(ctx context.Context, feed common.Address, selector []byte) ([]byte, error) {
	return e.Client.CallContract(ctx, ethereum.CallMsg{To: &feed, Data: selector}, nil)
}

func pow10(n int64) float64 {
	result := 1.0
	for i := int64(0); i < n; i++ {
		result *= 10
	}
	return result
}

type errNoFeed struct{ token common.Address }

func (e errNoFeed) Error() string {
	return "nativeprice: no chainlink feed configured for token " + e.token.Hex()
}
