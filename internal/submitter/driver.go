package submitter

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Driver races a sender loop, a nonce watcher, and a deadline timer to
// land a single settlement transaction, per spec.md §4.3's outer
// protocol.
type Driver struct {
	backend      Backend
	gasEstimator GasEstimator
	signer       Signer
	simulator    Simulator
	nonces       NonceSource
	receipts     ReceiptFetcher
	cfg          Config

	accessLists    AccessListEstimator
	accessListFrom common.Address
	accessListTo   common.Address
}

// New constructs a Driver from its collaborators and tunables.
func New(cfg Config, backend Backend, gasEstimator GasEstimator, signer Signer, simulator Simulator, nonces NonceSource, receipts ReceiptFetcher) *Driver {
	return &Driver{
		backend:      backend,
		gasEstimator: gasEstimator,
		signer:       signer,
		simulator:    simulator,
		nonces:       nonces,
		receipts:     receipts,
		cfg:          cfg,
	}
}

// WithAccessListEstimator enables the optional access-list pre-submission
// step (step 1 of the sender loop): when the backend supports
// eth_createAccessList, Submit refines its caller-supplied gas estimate
// with the node's own access-list-aware figure before applying headroom.
func (d *Driver) WithAccessListEstimator(estimator AccessListEstimator, from, to common.Address) *Driver {
	d.accessLists = estimator
	d.accessListFrom = from
	d.accessListTo = to
	return d
}

// submittedHashes is the shared, append-only vector of hashes this run
// has submitted, read by the propagation wait after the outer race
// resolves (spec.md §5: "shared mutable vector of submitted hashes
// between the sender loop and the post-deadline propagation wait").
type submittedHashes struct {
	mu     sync.Mutex
	hashes []common.Hash
}

func (h *submittedHashes) add(hash common.Hash) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hashes = append(h.hashes, hash)
}

func (h *submittedHashes) snapshot() []common.Hash {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]common.Hash(nil), h.hashes...)
}

type raceOutcome struct {
	branch string
	err    error
}

// Submit runs the full outer protocol: snapshot the nonce, race the
// three branches, then wait for propagation before reporting a mined
// receipt or the outcome of the branch that resolved first.
func (d *Driver) Submit(ctx context.Context, gasEstimate uint64, calldata []byte, deadline time.Time) (common.Hash, error) {
	n0, err := d.nonces.Nonce(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	effectiveGasEstimate := gasEstimate
	if d.accessLists != nil {
		result, err := d.accessLists.EstimateAccessList(ctx, d.accessListFrom, d.accessListTo, calldata)
		if err != nil {
			log.Debug().Err(err).Msg("submitter: access list estimation unavailable, using baseline gas estimate")
		} else if result.GasUsed > 0 {
			effectiveGasEstimate = result.GasUsed
		}
	}

	hashes := &submittedHashes{}
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan raceOutcome, 3)
	var g errgroup.Group

	g.Go(func() error {
		err := d.senderLoop(raceCtx, n0, effectiveGasEstimate, deadline, calldata, hashes)
		results <- raceOutcome{branch: "simulation", err: err}
		return nil
	})
	g.Go(func() error {
		err := d.watchNonce(raceCtx, n0)
		results <- raceOutcome{branch: "nonce_change", err: err}
		return nil
	})
	g.Go(func() error {
		d.waitDeadline(raceCtx, deadline)
		results <- raceOutcome{branch: "deadline", err: nil}
		return nil
	})

	outcome := <-results
	cancel()

	// Drain the losing branches in the background so they don't leak;
	// their results are no longer interesting once the race is decided.
	go func() {
		_ = g.Wait()
		close(results)
	}()

	log.Info().Str("branch", outcome.branch).Msg("submitter: outer race resolved")

	return d.awaitPropagation(ctx, hashes, outcome)
}

// watchNonce polls the nonce every NonceWatchInterval and returns nil
// as soon as it differs from n0.
func (d *Driver) watchNonce(ctx context.Context, n0 uint64) error {
	ticker := time.NewTicker(d.cfg.NonceWatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := d.nonces.Nonce(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("submitter: nonce watch failed, retrying")
				continue
			}
			if n != n0 {
				return nil
			}
		}
	}
}

// waitDeadline blocks until deadline, or forever if deadline is zero.
func (d *Driver) waitDeadline(ctx context.Context, deadline time.Time) {
	if deadline.IsZero() {
		<-ctx.Done()
		return
	}
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
