package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// QuoteRequest asks the quoter for the best single-hop route.
// Token addresses are already normalized, the native currency is NativeTokenAddress.
type QuoteRequest struct {
	TokenIn     common.Address
	TokenOut    common.Address
	AmountIn    *big.Int
	Recipient   common.Address
	SlippagePct float64
	Deadline    time.Duration
}

// Quote carries the expected output and a ready-to-send router call.
type Quote struct {
	AmountOut    *big.Int
	AmountOutMin *big.Int
	Fee          uint32
	Pool         common.Address
	GasEstimate  *big.Int
	To           common.Address
	Data         []byte
	Value        *big.Int
}

// Delegation binds a call to a permission context redeemed through a delegation manager.
type Delegation struct {
	Context []byte
	Manager common.Address
}

// Call is one step of an execution batch. Delegated calls run on behalf of the owner.
// Refund, when set, is sent from the session account if this call was mined but a later
// step of the same batch failed.
type Call struct {
	To         common.Address
	Value      *big.Int
	Data       []byte
	Delegation *Delegation
	Refund     *Call
}

type GasParams struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

type Receipt struct {
	TxHash       string
	Success      bool
	GasUsed      uint64
	BlockNumber  uint64
	RefundTxHash string
}

// OperationHandle identifies a submitted batch. TxHash is the transaction the receipt is awaited for.
type OperationHandle interface {
	TxHash() string
}
