package orderbook

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/cowbatch/settlement/internal/domain"
)

func testDomain() Domain {
	return Domain{
		Name:              "Gnosis Protocol",
		Version:           "v2",
		ChainID:           1,
		VerifyingContract: common.HexToAddress("0xdead"),
	}
}

func TestRecoverSignerRoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	owner := crypto.PubkeyToAddress(key.PublicKey)

	order := &domain.Order{
		Owner:         owner,
		SellToken:     common.HexToAddress("0x1"),
		BuyToken:      common.HexToAddress("0x2"),
		SellAmount:    domain.FromUint64(100),
		BuyAmount:     domain.FromUint64(200),
		FeeAmount:     domain.Zero(),
		ValidTo:       1893456000,
		Kind:          domain.KindSell,
		SigningScheme: domain.SchemeEip712,
	}

	digest, err := hashTypedData(buildTypedData(testDomain(), order))
	require.NoError(t, err)

	sig, err := crypto.Sign(digest.Bytes(), key)
	require.NoError(t, err)
	if sig[64] < 27 {
		sig[64] += 27
	}
	order.Signature = sig

	recovered, err := RecoverSigner(testDomain(), order)
	require.NoError(t, err)
	require.Equal(t, owner, recovered)
}

func TestRecoverSignerRejectsWrongOwner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	order := &domain.Order{
		Owner:         common.HexToAddress("0xbad"),
		SellToken:     common.HexToAddress("0x1"),
		BuyToken:      common.HexToAddress("0x2"),
		SellAmount:    domain.FromUint64(100),
		BuyAmount:     domain.FromUint64(200),
		FeeAmount:     domain.Zero(),
		ValidTo:       1893456000,
		Kind:          domain.KindSell,
		SigningScheme: domain.SchemeEip712,
	}

	digest, err := hashTypedData(buildTypedData(testDomain(), order))
	require.NoError(t, err)
	sig, err := crypto.Sign(digest.Bytes(), key)
	require.NoError(t, err)
	if sig[64] < 27 {
		sig[64] += 27
	}
	order.Signature = sig

	_, err = RecoverSigner(testDomain(), order)
	require.ErrorIs(t, err, ErrSignatureMismatch)
}

func TestComputeUIDIsStableAndOwnerSensitive(t *testing.T) {
	order := &domain.Order{
		Owner:      common.HexToAddress("0xaaaa"),
		SellToken:  common.HexToAddress("0x1"),
		BuyToken:   common.HexToAddress("0x2"),
		SellAmount: domain.FromUint64(100),
		BuyAmount:  domain.FromUint64(200),
		FeeAmount:  domain.Zero(),
		ValidTo:    1893456000,
		Kind:       domain.KindSell,
	}

	uid1, err := ComputeUID(testDomain(), order)
	require.NoError(t, err)
	uid2, err := ComputeUID(testDomain(), order)
	require.NoError(t, err)
	require.Equal(t, uid1, uid2)

	require.Equal(t, order.Owner.Bytes(), uid1[32:52])
	require.Equal(t, uint32(order.ValidTo), uint32(uid1[52])<<24|uint32(uid1[53])<<16|uint32(uid1[54])<<8|uint32(uid1[55]))

	other := *order
	other.Owner = common.HexToAddress("0xbbbb")
	uid3, err := ComputeUID(testDomain(), &other)
	require.NoError(t, err)
	require.NotEqual(t, uid1, uid3)
}
