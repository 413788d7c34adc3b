package domain

import "testing"

func TestMaxTransferOutFillOrKill(t *testing.T) {
	o := &Order{
		SellAmount:        FromUint64(100),
		FeeAmount:         FromUint64(5),
		PartiallyFillable: false,
	}
	got, err := MaxTransferOut(o)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Cmp(got, FromUint64(105)) != 0 {
		t.Fatalf("got %v, want 105", got)
	}
}

func TestMaxTransferOutPartiallyFillableSell(t *testing.T) {
	o := &Order{
		Kind:                         KindSell,
		SellAmount:                   FromUint64(100),
		FeeAmount:                    FromUint64(10),
		PartiallyFillable:            true,
		ExecutedSellAmountBeforeFees: FromUint64(40),
	}
	got, err := MaxTransferOut(o)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// remaining = 100-40 = 60; scaled_sell = 100*60/100 = 60; scaled_fee = 10*60/100 = 6
	if Cmp(got, FromUint64(66)) != 0 {
		t.Fatalf("got %v, want 66", got)
	}
}

func TestMaxTransferOutZeroExecutable(t *testing.T) {
	o := &Order{
		Kind:              KindBuy,
		BuyAmount:         Zero(),
		SellAmount:        FromUint64(1),
		FeeAmount:         Zero(),
		PartiallyFillable: true,
	}
	_, err := MaxTransferOut(o)
	if err != ErrZeroExecutable {
		t.Fatalf("got err %v, want ErrZeroExecutable", err)
	}
}
