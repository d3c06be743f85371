package delegation

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

const delegationManagerABIJSON = `[
	{"type":"function","name":"redeemDelegations","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"_permissionContexts","type":"bytes[]"},
		{"name":"_modes","type":"bytes32[]"},
		{"name":"_executionCallDatas","type":"bytes[]"}],
	 "outputs":[]}
]`

var DelegationManagerABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(delegationManagerABIJSON))
	if err != nil {
		panic(err)
	}
	return parsed
}()

// SingleDefaultMode is the ERC-7579 execution mode for one call that reverts on failure.
var SingleDefaultMode = [32]byte{}

// EncodeSingleExecution packs target ++ value ++ callData as ERC-7579 single execution calldata.
func EncodeSingleExecution(target common.Address, value *big.Int, callData []byte) []byte {
	if value == nil {
		value = new(big.Int)
	}
	out := make([]byte, 0, common.AddressLength+32+len(callData))
	out = append(out, target.Bytes()...)
	out = append(out, math.U256Bytes(new(big.Int).Set(value))...)
	out = append(out, callData...)
	return out
}

// redemption is one delegated call ready for redeemDelegations.
type redemption struct {
	context   []byte
	execution []byte
}

func encodeRedeem(redemptions []redemption) ([]byte, error) {
	contexts := make([][]byte, len(redemptions))
	modes := make([][32]byte, len(redemptions))
	executions := make([][]byte, len(redemptions))
	for i, r := range redemptions {
		contexts[i] = r.context
		modes[i] = SingleDefaultMode
		executions[i] = r.execution
	}
	return DelegationManagerABI.Pack("redeemDelegations", contexts, modes, executions)
}
