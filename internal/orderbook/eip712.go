// Package orderbook is the order-intake validation boundary in front
// of persistent order storage (spec.md's "OrderStoring" external
// collaborator): signature recovery, balance/allowance pre-checks, and
// fee-sufficiency, per SPEC_FULL.md's supplemented validation surface.
package orderbook

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/cowbatch/settlement/internal/domain"
)

// Domain is the EIP-712 domain the settlement contract signs orders
// under, grounded on the teacher's buildTypedData shape
// (internal/arbitrage/eip712.go) but naming CoW Protocol's actual
// GPv2Settlement domain fields instead of the CTF exchange's.
type Domain struct {
	Name              string
	Version           string
	ChainID           int64
	VerifyingContract common.Address
}

var orderTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Order": {
		{Name: "sellToken", Type: "address"},
		{Name: "buyToken", Type: "address"},
		{Name: "receiver", Type: "address"},
		{Name: "sellAmount", Type: "uint256"},
		{Name: "buyAmount", Type: "uint256"},
		{Name: "validTo", Type: "uint32"},
		{Name: "appData", Type: "bytes32"},
		{Name: "feeAmount", Type: "uint256"},
		{Name: "kind", Type: "string"},
		{Name: "partiallyFillable", Type: "bool"},
		{Name: "sellTokenBalance", Type: "string"},
		{Name: "buyTokenBalance", Type: "string"},
	},
}

func buildTypedData(d Domain, order *domain.Order) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       orderTypes,
		PrimaryType: "Order",
		Domain: apitypes.TypedDataDomain{
			Name:              d.Name,
			Version:           d.Version,
			ChainId:           math.NewHexOrDecimal256(d.ChainID),
			VerifyingContract: d.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"sellToken":         order.SellToken.Hex(),
			"buyToken":          order.BuyToken.Hex(),
			"receiver":          order.ReceiverOrOwner().Hex(),
			"sellAmount":        order.SellAmount.ToBig().String(),
			"buyAmount":         order.BuyAmount.ToBig().String(),
			"validTo":           fmt.Sprintf("%d", order.ValidTo),
			"appData":           common.Bytes2Hex(order.AppData[:]),
			"feeAmount":         order.FeeAmount.ToBig().String(),
			"kind":              kindString(order.Kind),
			"partiallyFillable": order.PartiallyFillable,
			"sellTokenBalance":  balanceString(order.SellTokenBalance),
			"buyTokenBalance":   balanceString(order.BuyTokenBalance),
		},
	}
}

func kindString(k domain.OrderKind) string {
	if k == domain.KindBuy {
		return "buy"
	}
	return "sell"
}

func balanceString(b domain.BalanceClass) string {
	switch b {
	case domain.BalanceExternal:
		return "external"
	case domain.BalanceInternal:
		return "internal"
	default:
		return "erc20"
	}
}

// hashTypedData reproduces the EIP-712 digest: keccak256("\x19\x01" ||
// domainSeparator || messageHash).
func hashTypedData(td apitypes.TypedData) (common.Hash, error) {
	domainSeparator, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	if err != nil {
		return common.Hash{}, fmt.Errorf("orderbook: hash domain: %w", err)
	}
	messageHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return common.Hash{}, fmt.Errorf("orderbook: hash message: %w", err)
	}
	raw := append([]byte("\x19\x01"), append([]byte(domainSeparator), []byte(messageHash)...)...)
	return crypto.Keccak256Hash(raw), nil
}

// ComputeUID derives an order's 56-byte identifier: the EIP-712 order
// digest, followed by the owner address, followed by validTo — CoW
// Protocol's own OrderUID layout, computed here rather than trusted
// from the client since the digest is exactly what RecoverSigner
// already verifies against the signature.
func ComputeUID(d Domain, order *domain.Order) (domain.OrderUID, error) {
	digest, err := hashTypedData(buildTypedData(d, order))
	if err != nil {
		return domain.OrderUID{}, err
	}

	var uid domain.OrderUID
	copy(uid[:32], digest.Bytes())
	copy(uid[32:52], order.Owner.Bytes())
	uid[52] = byte(order.ValidTo >> 24)
	uid[53] = byte(order.ValidTo >> 16)
	uid[54] = byte(order.ValidTo >> 8)
	uid[55] = byte(order.ValidTo)
	return uid, nil
}

// ErrSignatureMismatch is returned when the recovered signer is not
// the order's claimed owner.
var ErrSignatureMismatch = errors.New("orderbook: recovered signer does not match order owner")

// RecoverSigner verifies order.Signature against order.SigningScheme
// and returns the recovered address, failing if it disagrees with
// order.Owner.
func RecoverSigner(d Domain, order *domain.Order) (common.Address, error) {
	var digest common.Hash
	var err error

	switch order.SigningScheme {
	case domain.SchemeEip712:
		digest, err = hashTypedData(buildTypedData(d, order))
	case domain.SchemeEthSign:
		var typed common.Hash
		typed, err = hashTypedData(buildTypedData(d, order))
		if err == nil {
			prefixed := append([]byte("\x19Ethereum Signed Message:\n32"), typed.Bytes()...)
			digest = crypto.Keccak256Hash(prefixed)
		}
	default:
		return common.Address{}, fmt.Errorf("orderbook: unsupported signing scheme %d", order.SigningScheme)
	}
	if err != nil {
		return common.Address{}, err
	}

	if len(order.Signature) != 65 {
		return common.Address{}, fmt.Errorf("orderbook: signature must be 65 bytes, got %d", len(order.Signature))
	}
	sig := make([]byte, 65)
	copy(sig, order.Signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("orderbook: recover signer: %w", err)
	}
	recovered := crypto.PubkeyToAddress(*pub)

	if recovered != order.Owner {
		return common.Address{}, ErrSignatureMismatch
	}
	return recovered, nil
}
