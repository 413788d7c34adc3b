package submitter

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// awaitPropagation implements spec.md §4.3's propagation wait: for up
// to PropagationWait (polling every PropagationPoll), scan every hash
// submitted this run for a receipt with a non-null block hash — even
// when the first-resolved branch's outcome was a simulation failure, a hash
// submitted moments before may still land.
func (d *Driver) awaitPropagation(ctx context.Context, hashes *submittedHashes, outcome raceOutcome) (common.Hash, error) {
	deadline := time.Now().Add(d.cfg.PropagationWait)
	ticker := time.NewTicker(d.cfg.PropagationPoll)
	defer ticker.Stop()

	check := func() (common.Hash, bool) {
		for _, hash := range hashes.snapshot() {
			blockHash, found, err := d.receipts.Receipt(ctx, hash)
			if err != nil {
				log.Warn().Err(err).Str("hash", hash.Hex()).Msg("submitter: receipt lookup failed")
				continue
			}
			if found && blockHash != (common.Hash{}) {
				return hash, true
			}
		}
		return common.Hash{}, false
	}

	if hash, ok := check(); ok {
		return hash, nil
	}

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return common.Hash{}, ctx.Err()
		case <-ticker.C:
			if hash, ok := check(); ok {
				return hash, nil
			}
		}
	}

	return common.Hash{}, finalOutcomeError(outcome)
}

func finalOutcomeError(outcome raceOutcome) error {
	switch outcome.branch {
	case "simulation":
		if outcome.err != nil {
			return outcome.err
		}
		return ErrTimeout
	default:
		return errors.Join(ErrTimeout, outcome.err)
	}
}
