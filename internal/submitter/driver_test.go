package submitter

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowbatch/settlement/internal/domain"
)

type fakeGasEstimator struct{ cap_, tip uint64 }

func (f *fakeGasEstimator) Estimate(ctx context.Context, gasLimit uint64, timeRemaining time.Duration) (GasPrice, error) {
	return GasPrice{Cap: domain.FromUint64(f.cap_), Tip: domain.FromUint64(f.tip)}, nil
}

type fakeSigner struct{ n int32 }

func (f *fakeSigner) SignTransaction(nonce uint64, gasLimit uint64, price GasPrice, calldata []byte) ([]byte, common.Hash, error) {
	n := atomic.AddInt32(&f.n, 1)
	var h common.Hash
	h[31] = byte(n)
	return []byte{byte(n)}, h, nil
}

type fakeSimulator struct{}

func (fakeSimulator) Simulate(ctx context.Context, raw []byte) error { return nil }

type fakeNonceSource struct{ nonce uint64 }

func (f *fakeNonceSource) Nonce(ctx context.Context) (uint64, error) { return f.nonce, nil }

type fakeBackend struct{ submitted int32 }

func (f *fakeBackend) SubmitRawTransaction(ctx context.Context, raw []byte) (Handle, error) {
	atomic.AddInt32(&f.submitted, 1)
	return "handle", nil
}
func (f *fakeBackend) CancelTransaction(ctx context.Context, handle Handle) error { return nil }

type fakeReceipts struct {
	readyAfter int32
	calls      int32
}

func (f *fakeReceipts) Receipt(ctx context.Context, hash common.Hash) (common.Hash, bool, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if n >= f.readyAfter {
		return common.Hash{1}, true, nil
	}
	return common.Hash{}, false, nil
}

func TestSubmitReturnsReceiptOnceFound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RetryInterval = 10 * time.Millisecond
	cfg.NonceWatchInterval = 10 * time.Millisecond
	cfg.PropagationPoll = 10 * time.Millisecond
	cfg.PropagationWait = 2 * time.Second
	cfg.GasPriceCap = domain.FromUint64(1_000_000)

	driver := New(cfg, &fakeBackend{}, &fakeGasEstimator{cap_: 100, tip: 10}, &fakeSigner{}, fakeSimulator{}, &fakeNonceSource{nonce: 5}, &fakeReceipts{readyAfter: 2})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hash, err := driver.Submit(ctx, 100_000, []byte("calldata"), time.Now().Add(500*time.Millisecond))
	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, hash)
}

func TestSubmitTimesOutWithNoReceipt(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RetryInterval = 10 * time.Millisecond
	cfg.NonceWatchInterval = 10 * time.Millisecond
	cfg.PropagationPoll = 10 * time.Millisecond
	cfg.PropagationWait = 50 * time.Millisecond
	cfg.GasPriceCap = domain.FromUint64(1_000_000)

	driver := New(cfg, &fakeBackend{}, &fakeGasEstimator{cap_: 100, tip: 10}, &fakeSigner{}, fakeSimulator{}, &fakeNonceSource{nonce: 5}, &fakeReceipts{readyAfter: 1 << 30})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := driver.Submit(ctx, 100_000, []byte("calldata"), time.Now().Add(100*time.Millisecond))
	require.Error(t, err)
}
