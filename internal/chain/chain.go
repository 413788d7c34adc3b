// Package chain adapts a live ethclient.Client plus a local private
// key into the submitter package's Signer/Simulator/NonceSource/
// ReceiptFetcher collaborator interfaces, grounded on
// other_examples/.../onchain/merge.go's nonce-fetch/gas-price/
// types.SignTx/CallContract/TransactionReceipt sequence.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/cowbatch/settlement/internal/domain"
	"github.com/cowbatch/settlement/internal/submitter"
)

// Account wires a single EOA's signing key plus a destination contract
// (the GPv2Settlement deployment) to the submission driver.
type Account struct {
	Client     *ethclient.Client
	PrivateKey *ecdsa.PrivateKey
	ChainID    *big.Int
	To         common.Address
}

func (a *Account) address() common.Address {
	return crypto.PubkeyToAddress(a.PrivateKey.PublicKey)
}

// SignTransaction implements submitter.Signer: builds an EIP-1559
// dynamic-fee transaction targeting the settlement contract and signs
// it with the local key.
func (a *Account) SignTransaction(nonce uint64, gasLimit uint64, price submitter.GasPrice, calldata []byte) ([]byte, common.Hash, error) {
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   a.ChainID,
		Nonce:     nonce,
		GasTipCap: price.Tip.ToBig(),
		GasFeeCap: price.Cap.ToBig(),
		Gas:       gasLimit,
		To:        &a.To,
		Value:     big.NewInt(0),
		Data:      calldata,
	})

	signer := types.NewLondonSigner(a.ChainID)
	signed, err := types.SignTx(tx, signer, a.PrivateKey)
	if err != nil {
		return nil, common.Hash{}, fmt.Errorf("chain: sign transaction: %w", err)
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, common.Hash{}, fmt.Errorf("chain: encode transaction: %w", err)
	}
	return raw, signed.Hash(), nil
}

// CancelTransaction builds a zero-value self-transfer at the given
// nonce, the escalation-free cancellation the submitter's backends
// broadcast via their CancelBuilder hook.
func (a *Account) CancelTransaction(nonce uint64, price submitter.GasPrice) ([]byte, error) {
	addr := a.address()
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   a.ChainID,
		Nonce:     nonce,
		GasTipCap: price.Tip.ToBig(),
		GasFeeCap: price.Cap.ToBig(),
		Gas:       21_000,
		To:        &addr,
		Value:     big.NewInt(0),
	})
	signer := types.NewLondonSigner(a.ChainID)
	signed, err := types.SignTx(tx, signer, a.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("chain: sign cancellation: %w", err)
	}
	return signed.MarshalBinary()
}

// Simulate implements submitter.Simulator via eth_call against the
// latest block.
func (a *Account) Simulate(ctx context.Context, raw []byte) error {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return fmt.Errorf("chain: decode transaction: %w", err)
	}

	msg := ethereum.CallMsg{
		From:      a.address(),
		To:        tx.To(),
		Gas:       tx.Gas(),
		GasFeeCap: tx.GasFeeCap(),
		GasTipCap: tx.GasTipCap(),
		Value:     tx.Value(),
		Data:      tx.Data(),
	}
	_, err := a.Client.CallContract(ctx, msg, nil)
	return err
}

// Nonce implements submitter.NonceSource.
func (a *Account) Nonce(ctx context.Context) (uint64, error) {
	return a.Client.PendingNonceAt(ctx, a.address())
}

// Receipt implements submitter.ReceiptFetcher.
func (a *Account) Receipt(ctx context.Context, hash common.Hash) (common.Hash, bool, error) {
	receipt, err := a.Client.TransactionReceipt(ctx, hash)
	if err != nil {
		return common.Hash{}, false, nil
	}
	return receipt.BlockHash, receipt.BlockHash != (common.Hash{}), nil
}

// Balance returns an owner's balance of an ERC-20 token via a raw
// balanceOf(address) call, the concrete internal/orderbook.BalanceAllowance
// and internal/cache.BalanceFetcher collaborator this repo wires in
// front of the order-validation and cache-rebuild boundaries.
func (a *Account) Balance(ctx context.Context, owner, token common.Address) (*domain.U256, error) {
	return a.erc20Call(ctx, token, "balanceOf", owner)
}

// Allowance returns an owner's ERC-20 allowance granted to a.To, the
// settlement contract address this Account targets.
func (a *Account) Allowance(ctx context.Context, owner, token common.Address) (*domain.U256, error) {
	return a.erc20Call(ctx, token, "allowance", owner, a.To)
}

func (a *Account) erc20Call(ctx context.Context, token common.Address, method string, args ...interface{}) (*domain.U256, error) {
	calldata, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("chain: pack %s: %w", method, err)
	}
	out, err := a.Client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: calldata}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: call %s: %w", method, err)
	}
	v, overflow := domain.FromBig(new(big.Int).SetBytes(out))
	if overflow {
		return nil, fmt.Errorf("chain: %s result out of u256 range", method)
	}
	return v, nil
}
