package encoder

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/cowbatch/settlement/internal/domain"
)

func TestPackEncodesSettleCalldata(t *testing.T) {
	tokenA := common.HexToAddress("0x1")
	tokenB := common.HexToAddress("0x2")

	order := &domain.Order{
		SellToken:  tokenA,
		BuyToken:   tokenB,
		SellAmount: domain.FromUint64(100),
		BuyAmount:  domain.FromUint64(200),
		FeeAmount:  domain.Zero(),
		ValidTo:    1893456000,
		Kind:       domain.KindSell,
		Signature:  make([]byte, 65),
	}

	settlement := EncodedSettlement{
		Tokens: []domain.Token{tokenA, tokenB},
		Prices: []*domain.U256{domain.FromUint64(1), domain.FromUint64(2)},
		Trades: []EncodedTrade{{
			Order:           order,
			SellTokenIndex:  0,
			BuyTokenIndex:   1,
			ExecutedAmount:  domain.FromUint64(100),
			ScaledFeeAmount: domain.Zero(),
		}},
	}

	raw, err := settlement.Pack()
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	selector, err := settlementABI.MethodById(raw[:4])
	require.NoError(t, err)
	require.Equal(t, "settle", selector.Name)
}
