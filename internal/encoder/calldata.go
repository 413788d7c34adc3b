package encoder

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/cowbatch/settlement/internal/domain"
)

// settlementABI exposes GPv2Settlement.settle(tokens, clearingPrices,
// trades, interactions), the single entry point a settlement
// transaction calls. Parsed once at package init, mirroring
// finish.go's embedded-WETH-ABI idiom.
var settlementABI abi.ABI

func init() {
	var err error
	settlementABI, err = abi.JSON(strings.NewReader(`[{
		"name": "settle",
		"type": "function",
		"inputs": [
			{"name": "tokens", "type": "address[]"},
			{"name": "clearingPrices", "type": "uint256[]"},
			{"name": "trades", "type": "tuple[]", "components": [
				{"name": "sellTokenIndex", "type": "uint256"},
				{"name": "buyTokenIndex", "type": "uint256"},
				{"name": "receiver", "type": "address"},
				{"name": "sellAmount", "type": "uint256"},
				{"name": "buyAmount", "type": "uint256"},
				{"name": "validTo", "type": "uint32"},
				{"name": "appData", "type": "bytes32"},
				{"name": "feeAmount", "type": "uint256"},
				{"name": "flags", "type": "uint256"},
				{"name": "executedAmount", "type": "uint256"},
				{"name": "signature", "type": "bytes"}
			]},
			{"name": "interactions", "type": "tuple[][3]", "components": [
				{"name": "target", "type": "address"},
				{"name": "value", "type": "uint256"},
				{"name": "callData", "type": "bytes"}
			]}
		]
	}]`))
	if err != nil {
		panic("encoder: invalid embedded settlement ABI: " + err.Error())
	}
}

// tradeFlags packs kind/partiallyFillable/sellTokenBalance/
// buyTokenBalance/signingScheme into GPv2Trade.Data's single "flags"
// word, per CoW Protocol's GPv2Trade.sol bit layout: bit 0 kind, bit 1
// partiallyFillable, bits 2-3 sellTokenBalance (00 erc20, 10 external,
// 11 internal), bit 4 buyTokenBalance, bits 5-6 signingScheme.
func tradeFlags(o *domain.Order) *big.Int {
	var flags uint64
	if o.Kind == domain.KindBuy {
		flags |= 1 << 0
	}
	if o.PartiallyFillable {
		flags |= 1 << 1
	}
	switch o.SellTokenBalance {
	case domain.BalanceExternal:
		flags |= 0b10 << 2
	case domain.BalanceInternal:
		flags |= 0b11 << 2
	}
	if o.BuyTokenBalance == domain.BalanceInternal {
		flags |= 1 << 4
	}
	flags |= uint64(o.SigningScheme&0x3) << 5
	return new(big.Int).SetUint64(flags)
}

type abiTrade struct {
	SellTokenIndex *big.Int
	BuyTokenIndex  *big.Int
	Receiver       [20]byte
	SellAmount     *big.Int
	BuyAmount      *big.Int
	ValidTo        uint32
	AppData        [32]byte
	FeeAmount      *big.Int
	Flags          *big.Int
	ExecutedAmount *big.Int
	Signature      []byte
}

type abiInteraction struct {
	Target   [20]byte
	Value    *big.Int
	CallData []byte
}

// Pack ABI-encodes the settle(...) calldata a submission transaction
// carries, the bridge between this package's EncodedSettlement and the
// raw bytes internal/submitter signs and broadcasts.
func (s EncodedSettlement) Pack() ([]byte, error) {
	addrTokens := make([][20]byte, len(s.Tokens))
	for i, t := range s.Tokens {
		addrTokens[i] = t
	}

	prices := make([]*big.Int, len(s.Prices))
	for i, p := range s.Prices {
		prices[i] = p.ToBig()
	}

	trades := make([]abiTrade, len(s.Trades))
	for i, t := range s.Trades {
		trades[i] = abiTrade{
			SellTokenIndex: big.NewInt(int64(t.SellTokenIndex)),
			BuyTokenIndex:  big.NewInt(int64(t.BuyTokenIndex)),
			Receiver:       t.Order.ReceiverOrOwner(),
			SellAmount:     t.Order.SellAmount.ToBig(),
			BuyAmount:      t.Order.BuyAmount.ToBig(),
			ValidTo:        t.Order.ValidTo,
			AppData:        t.Order.AppData,
			FeeAmount:      t.ScaledFeeAmount.ToBig(),
			Flags:          tradeFlags(t.Order),
			ExecutedAmount: t.ExecutedAmount.ToBig(),
			Signature:      t.Order.Signature,
		}
	}

	var interactions [3][]abiInteraction
	for phase, list := range s.Interactions {
		encoded := make([]abiInteraction, len(list))
		for i, it := range list {
			encoded[i] = abiInteraction{
				Target:   it.Target,
				Value:    it.Value.ToBig(),
				CallData: it.CallData,
			}
		}
		interactions[phase] = encoded
	}

	return settlementABI.Pack("settle", addrTokens, prices, trades, interactions)
}
