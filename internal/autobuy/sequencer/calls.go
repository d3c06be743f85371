package sequencer

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

const erc20ABIJSON = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

var erc20ABI = mustParseABI(erc20ABIJSON)

// MaxBatchCalls is the longest batch BuildCalls produces: transfer-in, approve, swap.
const MaxBatchCalls = 3

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// BuildCalls lays out the batch in the order the swap needs it:
// pull funds into the session account under the owner's delegation, approve the router for ERC-20 input,
// then the router call exactly as quoted. The pull carries a refund to owner for when a later step fails.
func BuildCalls(from types.Token, amountIn *big.Int, owner, session common.Address, delegation types.Delegation, quote *types.Quote) ([]types.Call, error) {
	calls := make([]types.Call, 0, 3)
	token := common.HexToAddress(from.Address)

	if from.IsNative() {
		calls = append(calls, types.Call{
			To:         session,
			Value:      new(big.Int).Set(amountIn),
			Delegation: &delegation,
			Refund:     &types.Call{To: owner, Value: new(big.Int).Set(amountIn)},
		})
	} else {
		transfer, err := erc20ABI.Pack("transfer", session, amountIn)
		if err != nil {
			return nil, err
		}
		refund, err := erc20ABI.Pack("transfer", owner, amountIn)
		if err != nil {
			return nil, err
		}
		calls = append(calls, types.Call{
			To:         token,
			Value:      new(big.Int),
			Data:       transfer,
			Delegation: &delegation,
			Refund:     &types.Call{To: token, Value: new(big.Int), Data: refund},
		})

		approve, err := erc20ABI.Pack("approve", quote.To, amountIn)
		if err != nil {
			return nil, err
		}
		calls = append(calls, types.Call{
			To:    token,
			Value: new(big.Int),
			Data:  approve,
		})
	}

	value := new(big.Int)
	if quote.Value != nil {
		value.Set(quote.Value)
	}
	calls = append(calls, types.Call{
		To:    quote.To,
		Value: value,
		Data:  quote.Data,
	})
	return calls, nil
}
