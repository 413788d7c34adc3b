package storage

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RecordSubmission inserts a row for a settlement transaction hash
// returned by the submission driver, with outcome "pending" until
// ResolveSubmission sets its final outcome.
func (s *Storage) RecordSubmission(ctx context.Context, block uint64, hash common.Hash) error {
	return s.db.WithContext(ctx).Create(&SettlementRecord{
		Block:       block,
		TxHash:      hash.Hex(),
		Outcome:     "pending",
		SubmittedAt: time.Now(),
	}).Error
}

// ResolveSubmission updates every pending row for a block to its final
// outcome (confirmed / timeout / priced_out / error); cmd/driver sets
// "confirmed" once Submit has returned a mined hash.
func (s *Storage) ResolveSubmission(ctx context.Context, block uint64, outcome string, errMsg string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&SettlementRecord{}).
		Where("block = ? AND outcome = ?", block, "pending").
		Updates(map[string]interface{}{
			"outcome":       outcome,
			"confirmed_at":  &now,
			"error_message": errMsg,
		}).Error
}
