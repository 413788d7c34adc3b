package orderbook

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowbatch/settlement/internal/domain"
)

type fakeFunds struct {
	balance   *domain.U256
	allowance *domain.U256
}

func (f *fakeFunds) Balance(ctx context.Context, owner, token domain.Token) (*domain.U256, error) {
	return f.balance, nil
}
func (f *fakeFunds) Allowance(ctx context.Context, owner, token domain.Token) (*domain.U256, error) {
	return f.allowance, nil
}

func signedOrder(t *testing.T, order *domain.Order) *domain.Order {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	order.Owner = crypto.PubkeyToAddress(key.PublicKey)
	order.SigningScheme = domain.SchemeEip712

	digest, err := hashTypedData(buildTypedData(testDomain(), order))
	require.NoError(t, err)
	sig, err := crypto.Sign(digest.Bytes(), key)
	require.NoError(t, err)
	if sig[64] < 27 {
		sig[64] += 27
	}
	order.Signature = sig
	return order
}

func TestValidateRejectsExpiredOrder(t *testing.T) {
	order := signedOrder(t, &domain.Order{
		SellToken:  common.HexToAddress("0x1"),
		BuyToken:   common.HexToAddress("0x2"),
		SellAmount: domain.FromUint64(1),
		BuyAmount:  domain.FromUint64(1),
		FeeAmount:  domain.Zero(),
		ValidTo:    1,
	})

	v := &Validator{EIP712Domain: testDomain()}
	err := v.Validate(context.Background(), order, time.Unix(1000, 0))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestValidateRejectsInsufficientBalance(t *testing.T) {
	order := signedOrder(t, &domain.Order{
		SellToken:        common.HexToAddress("0x1"),
		BuyToken:         common.HexToAddress("0x2"),
		SellAmount:       domain.FromUint64(100),
		BuyAmount:        domain.FromUint64(1),
		FeeAmount:        domain.Zero(),
		ValidTo:          1893456000,
		SellTokenBalance: domain.BalanceErc20,
	})

	v := &Validator{
		EIP712Domain: testDomain(),
		Funds:        &fakeFunds{balance: domain.FromUint64(1), allowance: domain.FromUint64(1000)},
	}
	err := v.Validate(context.Background(), order, time.Unix(1000, 0))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestValidateRejectsUnsettlableOverflowingAmounts(t *testing.T) {
	maxBig := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	maxU256, overflow := domain.FromBig(maxBig)
	require.False(t, overflow)

	order := signedOrder(t, &domain.Order{
		SellToken:        common.HexToAddress("0x1"),
		BuyToken:         common.HexToAddress("0x2"),
		SellAmount:       maxU256,
		BuyAmount:        domain.FromUint64(1),
		FeeAmount:        domain.FromUint64(1), // sellAmount + feeAmount overflows 256 bits
		ValidTo:          1893456000,
		SellTokenBalance: domain.BalanceErc20,
	})

	v := &Validator{
		EIP712Domain: testDomain(),
		Funds:        &fakeFunds{balance: maxU256, allowance: maxU256},
	}
	err := v.Validate(context.Background(), order, time.Unix(1000, 0))
	assert.ErrorIs(t, err, ErrUnsettlable)
}

func TestValidateAcceptsWellFormedOrder(t *testing.T) {
	order := signedOrder(t, &domain.Order{
		SellToken:        common.HexToAddress("0x1"),
		BuyToken:         common.HexToAddress("0x2"),
		SellAmount:       domain.FromUint64(100),
		BuyAmount:        domain.FromUint64(1),
		FeeAmount:        domain.Zero(),
		ValidTo:          1893456000,
		SellTokenBalance: domain.BalanceErc20,
	})

	v := &Validator{
		EIP712Domain: testDomain(),
		Funds:        &fakeFunds{balance: domain.FromUint64(1000), allowance: domain.FromUint64(1000)},
	}
	err := v.Validate(context.Background(), order, time.Unix(1000, 0))
	require.NoError(t, err)
}
