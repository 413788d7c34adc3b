package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cowbatch/settlement/internal/domain"
)

// InsertOrder persists an order that has already passed
// internal/orderbook.Validator.Validate. Re-submission of the same UID
// overwrites the row, mirroring the teacher's Save-as-upsert idiom.
func (s *Storage) InsertOrder(ctx context.Context, order *domain.Order) error {
	record, err := toRecord(order)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Save(&record).Error
}

// Invalidate marks an order as no longer solvable, e.g. on an
// on-chain cancellation or a detected replay.
func (s *Storage) Invalidate(ctx context.Context, uid domain.OrderUID) error {
	record, err := toRecord(&domain.Order{UID: uid})
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&OrderRecord{}).
		Where("uid = ?", record.UID).
		Update("invalidated", true).Error
}

// SolvableOrders implements internal/cache.OrderStoring: all
// not-yet-invalidated orders whose valid_to is at or beyond
// minValidTo, plus the block of the most recently confirmed
// settlement.
func (s *Storage) SolvableOrders(ctx context.Context, minValidTo uint32) ([]domain.Order, uint64, error) {
	var records []OrderRecord
	err := s.db.WithContext(ctx).
		Where("invalidated = ? AND valid_to >= ?", false, minValidTo).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	orders := make([]domain.Order, 0, len(records))
	for _, r := range records {
		order, err := fromRecord(r)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}

	var latest SettlementRecord
	err = s.db.WithContext(ctx).
		Where("outcome = ?", "confirmed").
		Order("block DESC").
		First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return orders, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return orders, latest.Block, nil
}
