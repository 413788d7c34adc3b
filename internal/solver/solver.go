// Package solver defines the pluggable strategy boundary the
// submission driver calls to turn an auction into a settlement draft.
// Clearing-price optimization itself is out of scope (spec.md's
// Non-goals) — this package only fixes the interface and a trivial
// implementation usable in tests and as a dry-run default.
package solver

import (
	"context"

	"github.com/cowbatch/settlement/internal/domain"
	"github.com/cowbatch/settlement/internal/encoder"
)

// Solver turns an auction snapshot into zero or more candidate
// settlement drafts. cmd/driver's settlement loop submits the first
// draft of the returned slice; it does not rank drafts by objective
// value.
type Solver interface {
	Solve(ctx context.Context, auction domain.Auction) ([]*encoder.Draft, error)
}

// NoOp never proposes a settlement. It is the solver cmd/driver wires
// by default.
type NoOp struct{}

func (NoOp) Solve(ctx context.Context, auction domain.Auction) ([]*encoder.Draft, error) {
	return nil, nil
}
