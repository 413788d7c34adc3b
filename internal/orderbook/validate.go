package orderbook

import (
	"context"
	"errors"
	"time"

	"github.com/cowbatch/settlement/internal/domain"
)

var (
	ErrExpired           = errors.New("orderbook: order already expired")
	ErrSameToken         = errors.New("orderbook: sell and buy token must differ")
	ErrZeroAmount        = errors.New("orderbook: sell and buy amounts must be non-zero")
	ErrInsufficientFunds = errors.New("orderbook: balance or allowance does not cover the order's maximum sell amount")
	ErrFeeTooLow         = errors.New("orderbook: fee_amount below the computed minimum")
	ErrUnsettlable       = errors.New("orderbook: order amounts cannot be settled (max_transfer_out overflow)")
)

// BalanceAllowance reports an owner's balance and (for Erc20-sourced
// orders) the settlement contract's allowance over a token.
type BalanceAllowance interface {
	Balance(ctx context.Context, owner, token domain.Token) (*domain.U256, error)
	Allowance(ctx context.Context, owner, token domain.Token) (*domain.U256, error)
}

// GasPriceSource is consumed by MinimumFeeAmount's caller to translate
// a gas estimate into wei before converting into sell-token units.
type GasPriceSource interface {
	EstimateGasPriceWei(ctx context.Context) (*domain.U256, error)
}

// Validator is the order-intake boundary in front of persistent
// storage: every order must pass Validate before OrderStoring accepts
// it, mirroring the teacher's SignOrder-then-submit flow but for
// intake rather than outbound signing.
type Validator struct {
	EIP712Domain Domain
	Funds        BalanceAllowance
	GasPrices    GasPriceSource
	NativePrices func(ctx context.Context, token domain.Token) (float64, error)
	GasPerSettle uint64 // gas units a single order's trade is estimated to add
}

// Validate runs expiry, shape, signature recovery, balance/allowance,
// and fee-sufficiency checks, in that order — cheapest checks first.
func (v *Validator) Validate(ctx context.Context, order *domain.Order, now time.Time) error {
	if uint64(order.ValidTo) < uint64(now.Unix()) {
		return ErrExpired
	}
	if order.SellToken == order.BuyToken {
		return ErrSameToken
	}
	if domain.IsZero(order.SellAmount) || domain.IsZero(order.BuyAmount) {
		return ErrZeroAmount
	}

	if _, err := RecoverSigner(v.EIP712Domain, order); err != nil {
		return err
	}

	if err := v.checkFunds(ctx, order); err != nil {
		return err
	}

	return v.checkFee(ctx, order)
}

func (v *Validator) checkFunds(ctx context.Context, order *domain.Order) error {
	if v.Funds == nil {
		return nil
	}

	required, err := domain.MaxTransferOut(order)
	if err != nil {
		return err
	}
	if required == nil {
		// overflow computing max_transfer_out: unsettlable, not malformed —
		// reject at intake the same way rationBalances drops it later.
		return ErrUnsettlable
	}

	balance, err := v.Funds.Balance(ctx, order.Owner, order.SellToken)
	if err != nil {
		return err
	}
	if domain.Cmp(balance, required) < 0 {
		return ErrInsufficientFunds
	}

	if order.SellTokenBalance == domain.BalanceErc20 {
		allowance, err := v.Funds.Allowance(ctx, order.Owner, order.SellToken)
		if err != nil {
			return err
		}
		if domain.Cmp(allowance, required) < 0 {
			return ErrInsufficientFunds
		}
	}

	return nil
}

func (v *Validator) checkFee(ctx context.Context, order *domain.Order) error {
	if v.GasPrices == nil || v.NativePrices == nil {
		return nil
	}

	gasPriceWei, err := v.GasPrices.EstimateGasPriceWei(ctx)
	if err != nil {
		return err
	}
	nativePrice, err := v.NativePrices(ctx, order.SellToken)
	if err != nil {
		return err
	}
	normalizedPrice, ok := domain.ToNormalizedPrice(nativePrice)
	if !ok {
		return errors.New("orderbook: sell token has no usable native price")
	}

	minFee, err := MinimumFeeAmount(v.GasPerSettle, gasPriceWei, normalizedPrice)
	if err != nil {
		return err
	}
	if domain.Cmp(order.FeeAmount, minFee) < 0 {
		return ErrFeeTooLow
	}
	return nil
}
