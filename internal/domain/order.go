package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// OrderUID is the 56-byte identifier (order hash ∥ owner ∥ valid_to).
type OrderUID [56]byte

// OrderKind distinguishes a sell-side from a buy-side limit order.
type OrderKind uint8

const (
	KindSell OrderKind = iota
	KindBuy
)

// BalanceClass names where a token transfer draws from or credits into.
type BalanceClass uint8

const (
	BalanceErc20 BalanceClass = iota
	BalanceExternal
	BalanceInternal
)

// SigningScheme names the signature scheme an order was signed under.
type SigningScheme uint8

const (
	SchemeEip712 SigningScheme = iota
	SchemeEthSign
)

// Order is a user's limit order. Fields above the "mutable metadata" mark
// are immutable once created; fields below are owned exclusively by the
// solvable-orders cache (via the order storage it reads from) and are
// never written by the settlement encoder.
type Order struct {
	UID              OrderUID
	Owner            common.Address
	SellToken        common.Address
	BuyToken         common.Address
	Receiver         common.Address // zero address means "defaults to Owner"
	SellAmount       *U256
	BuyAmount        *U256
	FeeAmount        *U256
	ValidTo          uint32 // seconds since epoch
	AppData          [32]byte
	Kind             OrderKind
	PartiallyFillable bool
	SellTokenBalance BalanceClass // one of Erc20, External, Internal
	BuyTokenBalance  BalanceClass // one of Erc20, Internal
	Signature        []byte
	SigningScheme    SigningScheme

	// --- mutable metadata, owned by the cache / order store ---

	CreationDate                 time.Time
	ExecutedBuyAmount            *U256
	ExecutedSellAmountBeforeFees *U256
	ExecutedFeeAmount            *U256
	Invalidated                  bool
	AvailableBalance             *U256 // nil until the cache annotates it
}

// ReceiverOrOwner returns Receiver, defaulting to Owner when Receiver is
// the zero address, per spec.md's "optional address (defaults to owner)".
func (o *Order) ReceiverOrOwner() common.Address {
	if o.Receiver == (common.Address{}) {
		return o.Owner
	}
	return o.Receiver
}

// BalanceQuery is the key the cache uses to batch and reuse balance
// lookups: (owner, sell_token, sell_token_balance_source).
type BalanceQuery struct {
	Owner  common.Address
	Token  common.Address
	Source BalanceClass
}

// Query derives the order's balance query key.
func (o *Order) Query() BalanceQuery {
	return BalanceQuery{Owner: o.Owner, Token: o.SellToken, Source: o.SellTokenBalance}
}
