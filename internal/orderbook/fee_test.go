package orderbook

import (
	"testing"

	"github.com/cowbatch/settlement/internal/domain"
)

func TestMinimumFeeAmount(t *testing.T) {
	gasEstimate := uint64(100_000)
	gasPriceWei := domain.FromUint64(20_000_000_000) // 20 gwei
	nativePrice, ok := domain.ToNormalizedPrice(2000) // token worth 2000 native units
	if !ok {
		t.Fatal("expected a valid normalized price")
	}

	fee, err := MinimumFeeAmount(gasEstimate, gasPriceWei, nativePrice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if domain.IsZero(fee) {
		t.Fatal("expected a non-zero minimum fee")
	}
}
