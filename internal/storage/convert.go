package storage

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/cowbatch/settlement/internal/domain"
)

func u256ToString(v *domain.U256) string {
	if v == nil {
		return ""
	}
	return v.Hex()
}

func u256FromString(s string) (*domain.U256, error) {
	if s == "" {
		return domain.Zero(), nil
	}
	v, err := uint256.FromHex(s)
	if err != nil {
		return nil, fmt.Errorf("storage: invalid u256 %q: %w", s, err)
	}
	return v, nil
}

func toRecord(o *domain.Order) (OrderRecord, error) {
	return OrderRecord{
		UID:                          hex.EncodeToString(o.UID[:]),
		Owner:                        o.Owner.Hex(),
		SellToken:                    o.SellToken.Hex(),
		BuyToken:                     o.BuyToken.Hex(),
		Receiver:                     o.Receiver.Hex(),
		SellAmount:                   u256ToString(o.SellAmount),
		BuyAmount:                    u256ToString(o.BuyAmount),
		FeeAmount:                    u256ToString(o.FeeAmount),
		ValidTo:                      o.ValidTo,
		AppData:                      hex.EncodeToString(o.AppData[:]),
		Kind:                         uint8(o.Kind),
		PartiallyFillable:            o.PartiallyFillable,
		SellTokenBalance:             uint8(o.SellTokenBalance),
		BuyTokenBalance:              uint8(o.BuyTokenBalance),
		Signature:                    o.Signature,
		SigningScheme:                uint8(o.SigningScheme),
		CreationDate:                 o.CreationDate,
		ExecutedBuyAmount:            u256ToString(o.ExecutedBuyAmount),
		ExecutedSellAmountBeforeFees: u256ToString(o.ExecutedSellAmountBeforeFees),
		ExecutedFeeAmount:            u256ToString(o.ExecutedFeeAmount),
		Invalidated:                  o.Invalidated,
	}, nil
}

func fromRecord(r OrderRecord) (domain.Order, error) {
	var out domain.Order

	uidBytes, err := hex.DecodeString(r.UID)
	if err != nil || len(uidBytes) != len(out.UID) {
		return out, fmt.Errorf("storage: malformed order uid %q", r.UID)
	}
	copy(out.UID[:], uidBytes)

	appDataBytes, err := hex.DecodeString(r.AppData)
	if err != nil || len(appDataBytes) != len(out.AppData) {
		return out, fmt.Errorf("storage: malformed app_data %q", r.AppData)
	}
	copy(out.AppData[:], appDataBytes)

	out.Owner = common.HexToAddress(r.Owner)
	out.SellToken = common.HexToAddress(r.SellToken)
	out.BuyToken = common.HexToAddress(r.BuyToken)
	out.Receiver = common.HexToAddress(r.Receiver)
	out.ValidTo = r.ValidTo
	out.Kind = domain.OrderKind(r.Kind)
	out.PartiallyFillable = r.PartiallyFillable
	out.SellTokenBalance = domain.BalanceClass(r.SellTokenBalance)
	out.BuyTokenBalance = domain.BalanceClass(r.BuyTokenBalance)
	out.Signature = r.Signature
	out.SigningScheme = domain.SigningScheme(r.SigningScheme)
	out.CreationDate = r.CreationDate
	out.Invalidated = r.Invalidated

	for _, f := range []struct {
		src string
		dst **domain.U256
	}{
		{r.SellAmount, &out.SellAmount},
		{r.BuyAmount, &out.BuyAmount},
		{r.FeeAmount, &out.FeeAmount},
		{r.ExecutedBuyAmount, &out.ExecutedBuyAmount},
		{r.ExecutedSellAmountBeforeFees, &out.ExecutedSellAmountBeforeFees},
		{r.ExecutedFeeAmount, &out.ExecutedFeeAmount},
	} {
		v, err := u256FromString(f.src)
		if err != nil {
			return out, err
		}
		*f.dst = v
	}

	return out, nil
}
