package submitter

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/cowbatch/settlement/internal/domain"
	"github.com/cowbatch/settlement/internal/metrics"
)

type previousSubmission struct {
	price  GasPrice
	handle Handle
}

// senderLoop implements spec.md §4.3.1: compute headroom gas limit,
// price it, cap-check, sign, simulate, escalate-or-wait, submit. It
// loops until simulation fails (returning that error to the outer
// race) or ctx is cancelled by a sibling branch winning first.
func (d *Driver) senderLoop(ctx context.Context, n0 uint64, gasEstimate uint64, deadline time.Time, calldata []byte, hashes *submittedHashes) error {
	var previous *previousSubmission

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		gasLimit := uint64(float64(gasEstimate) * (1.0 + d.cfg.GasEstimateHeadroom))

		timeRemaining := d.cfg.TargetConfirmTime
		if !deadline.IsZero() {
			if remaining := time.Until(deadline); remaining > 0 {
				timeRemaining = remaining
			}
		}

		price, err := d.gasEstimator.Estimate(ctx, gasLimit, timeRemaining)
		if err != nil {
			log.Warn().Err(err).Msg("submitter: gas estimate failed, retrying")
			if !sleepOrDone(ctx, d.cfg.RetryInterval) {
				return ctx.Err()
			}
			continue
		}

		if d.cfg.GasPriceCap != nil && domain.Cmp(price.Cap, d.cfg.GasPriceCap) > 0 {
			log.Warn().Msg("submitter: gas price priced out, retrying")
			if !sleepOrDone(ctx, d.cfg.RetryInterval) {
				return ctx.Err()
			}
			continue
		}

		raw, hash, err := d.signer.SignTransaction(n0, gasLimit, price, calldata)
		if err != nil {
			return err
		}

		if err := d.simulator.Simulate(ctx, raw); err != nil {
			if previous != nil {
				if cancelErr := d.backend.CancelTransaction(ctx, previous.handle); cancelErr != nil {
					log.Warn().Err(cancelErr).Msg("submitter: best-effort cancel on simulation failure also failed")
				}
			}
			return err
		}

		if previous != nil {
			if !escalates(price.Cap, previous.price.Cap, d.cfg.EscalationFactor) || !escalates(price.Tip, previous.price.Tip, d.cfg.EscalationFactor) {
				if !sleepOrDone(ctx, d.cfg.RetryInterval) {
					return ctx.Err()
				}
				continue
			}
			if cancelErr := d.backend.CancelTransaction(ctx, previous.handle); cancelErr != nil {
				log.Warn().Err(cancelErr).Msg("submitter: best-effort cancel before replacement failed")
			}
		}

		replacing := previous != nil
		hashes.add(hash)

		handle, err := d.backend.SubmitRawTransaction(ctx, raw)
		switch {
		case err == nil:
			previous = &previousSubmission{price: price, handle: handle}
			metrics.SettlementsSubmitted.WithLabelValues("submitted").Inc()
			if replacing {
				metrics.GasPriceEscalations.Inc()
			}
		case errors.Is(err, ErrInvalidNonce):
			log.Warn().Err(err).Msg("submitter: backend reports invalid nonce")
		case errors.Is(err, ErrTooCheapToReplace):
			log.Debug().Msg("submitter: backend rejected as too cheap to replace")
		default:
			log.Error().Err(err).Msg("submitter: backend submit failed")
		}

		if !sleepOrDone(ctx, d.cfg.RetryInterval) {
			return ctx.Err()
		}
	}
}

// escalates reports whether newV strictly exceeds oldV*factor. factor
// (1.125) has a finite decimal expansion, so shopspring/decimal
// compares the threshold exactly — no floating-point rounding on
// 256-bit quantities.
func escalates(newV, oldV *domain.U256, factor float64) bool {
	threshold := decimal.NewFromBigInt(oldV.ToBig(), 0).Mul(decimal.NewFromFloat(factor))
	return decimal.NewFromBigInt(newV.ToBig(), 0).GreaterThan(threshold)
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
