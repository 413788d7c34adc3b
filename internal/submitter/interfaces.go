// Package submitter implements the deadline-bounded submission driver
// (spec.md §4.3): gas-priced signing, cancel/replace on escalation, a
// nonce-change watcher, a deadline timer, and propagation-wait receipt
// recovery, racing their outcomes.
package submitter

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cowbatch/settlement/internal/domain"
)

// GasPrice is a cap/tip pair (EIP-1559 style), both denominated in wei.
type GasPrice struct {
	Cap *domain.U256
	Tip *domain.U256
}

// GasEstimator prices a transaction given its gas limit and the time
// remaining until the caller's deadline.
type GasEstimator interface {
	Estimate(ctx context.Context, gasLimit uint64, timeRemaining time.Duration) (GasPrice, error)
}

// Signer builds and signs a raw transaction offline.
type Signer interface {
	SignTransaction(nonce uint64, gasLimit uint64, price GasPrice, calldata []byte) (raw []byte, hash common.Hash, err error)
}

// Simulator performs a stateless call to check a signed transaction
// would not revert.
type Simulator interface {
	Simulate(ctx context.Context, raw []byte) error
}

// NonceSource returns the sender account's current on-chain nonce.
type NonceSource interface {
	Nonce(ctx context.Context) (uint64, error)
}

// ReceiptFetcher reports whether hash has a mined receipt with a
// non-null block hash.
type ReceiptFetcher interface {
	Receipt(ctx context.Context, hash common.Hash) (blockHash common.Hash, found bool, err error)
}

// Handle is an opaque reference to a submitted (or cancellable) pending
// transaction, returned by a Backend.
type Handle interface{}

// Backend is the strategy interface spec.md §4.3 calls
// "TransactionSubmitting": the core treats every transport (public
// mempool, private relay, custom RPC set, dry-run) identically.
type Backend interface {
	SubmitRawTransaction(ctx context.Context, raw []byte) (Handle, error)
	CancelTransaction(ctx context.Context, handle Handle) error
}

// Sentinel submission outcomes a Backend reports via error wrapping
// (errors.Is), per spec.md §4.3.1 step 9.
var (
	ErrInvalidNonce      = errors.New("submitter: invalid nonce")
	ErrTooCheapToReplace = errors.New("submitter: replacement underpriced")
)

// ErrPricedOut names the step-3 condition of the estimator's cap
// exceeding the configured ceiling. The sender loop does not return it:
// on that condition it logs, sleeps RetryInterval and prices again.
var ErrPricedOut = errors.New("submitter: gas price cap exceeds configured ceiling")

// ErrTimeout is the outer race's outcome when neither a simulation
// failure nor a mined receipt was observed before the nonce changed or
// the deadline passed.
var ErrTimeout = errors.New("submitter: deadline reached or nonce changed with no receipt found")
