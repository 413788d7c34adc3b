package submitter

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// AccessListEstimator optionally precomputes the EIP-2930 access list
// for the settlement transaction. Driver.Submit uses only the reported
// GasUsed, as its gas estimate; the list itself is not attached to the
// signed transaction. Grounded on original_source's
// crates/solver/src/settlement_access_list.rs: simulate once via the
// node's own access-list RPC.
type AccessListEstimator interface {
	EstimateAccessList(ctx context.Context, from, to common.Address, calldata []byte) (AccessListResult, error)
}

// AccessListResult is what an eth_createAccessList call reports.
type AccessListResult struct {
	List    []AccessTuple
	GasUsed uint64
}

// AccessTuple mirrors one entry of the EIP-2930 access list.
type AccessTuple struct {
	Address     common.Address
	StorageKeys []common.Hash
}

// RPCAccessListEstimator implements AccessListEstimator against a
// node's eth_createAccessList method.
type RPCAccessListEstimator struct {
	Client *gethrpc.Client
}

type createAccessListResult struct {
	AccessList []struct {
		Address     common.Address `json:"address"`
		StorageKeys []common.Hash  `json:"storageKeys"`
	} `json:"accessList"`
	GasUsed string `json:"gasUsed"`
	Error   string `json:"error"`
}

func (r *RPCAccessListEstimator) EstimateAccessList(ctx context.Context, from, to common.Address, calldata []byte) (AccessListResult, error) {
	var result createAccessListResult
	callArg := map[string]interface{}{
		"from": from,
		"to":   to,
		"data": hexutil.Encode(calldata),
	}
	if err := r.Client.CallContext(ctx, &result, "eth_createAccessList", callArg, "pending"); err != nil {
		return AccessListResult{}, err
	}

	out := AccessListResult{}
	for _, entry := range result.AccessList {
		out.List = append(out.List, AccessTuple{Address: entry.Address, StorageKeys: entry.StorageKeys})
	}
	if result.GasUsed != "" {
		if gas, err := hexutil.DecodeUint64(result.GasUsed); err == nil {
			out.GasUsed = gas
		}
	}
	return out, nil
}
