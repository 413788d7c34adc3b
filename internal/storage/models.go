package storage

import "time"

// OrderRecord is the gorm-persisted row for a domain.Order. U256 fields
// are stored as their hex string (uint256.Int.Hex()) since postgres and
// sqlite have no native 256-bit integer column type; OrderUID and
// AppData are stored as their hex-encoded fixed-size byte arrays.
type OrderRecord struct {
	UID              string `gorm:"primaryKey;size:114"` // hex-encoded OrderUID
	Owner            string `gorm:"index;size:42"`
	SellToken        string `gorm:"index;size:42"`
	BuyToken         string `gorm:"size:42"`
	Receiver         string `gorm:"size:42"`
	SellAmount       string
	BuyAmount        string
	FeeAmount        string
	ValidTo          uint32 `gorm:"index"`
	AppData          string `gorm:"size:66"`
	Kind             uint8
	PartiallyFillable bool
	SellTokenBalance uint8
	BuyTokenBalance  uint8
	Signature        []byte
	SigningScheme    uint8

	CreationDate                 time.Time
	ExecutedBuyAmount            string
	ExecutedSellAmountBeforeFees string
	ExecutedFeeAmount            string
	Invalidated                  bool `gorm:"index"`

	UpdatedAt time.Time
}

func (OrderRecord) TableName() string { return "orders" }

// SettlementRecord tracks a settlement transaction's lifecycle, from
// first submission through either a mined receipt or an abandoned
// deadline, mirroring what the submission driver observes.
type SettlementRecord struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Block        uint64 `gorm:"index"`
	TxHash       string `gorm:"index;size:66"`
	Outcome      string // "pending", then "confirmed", "timeout", "priced_out" or "error"
	SubmittedAt  time.Time
	ConfirmedAt  *time.Time
	ErrorMessage string
}

func (SettlementRecord) TableName() string { return "settlements" }
