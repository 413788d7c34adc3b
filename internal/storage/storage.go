package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the gorm-backed OrderStoring implementation: orders land
// here from internal/orderbook's intake validation, and the cache reads
// them back out through SolvableOrders on every rebuild tick.
type Storage struct {
	db *gorm.DB
}

// New opens a postgres connection when dsn carries a postgres(ql):// scheme,
// and falls back to a sqlite file at dsn otherwise, same dual-driver
// selection the teacher's database.New used.
func New(dsn string) (*Storage, error) {
	var db *gorm.DB
	var err error

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("storage connected (postgres)")
	} else {
		dir := filepath.Dir(dsn)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", dsn).Msg("storage initialized (sqlite)")
	}

	if err := db.AutoMigrate(&OrderRecord{}, &SettlementRecord{}); err != nil {
		return nil, err
	}

	return &Storage{db: db}, nil
}
