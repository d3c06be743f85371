package sequencer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

// SwapQuoter prices a single swap and returns the router call that executes it.
type SwapQuoter interface {
	Quote(ctx context.Context, req types.QuoteRequest) (*types.Quote, error)
}

// TxExecutor submits call batches from the session account and waits for them to land.
type TxExecutor interface {
	SessionAccount(ctx context.Context, owner common.Address) (common.Address, error)
	GasPrice(ctx context.Context) (types.GasParams, error)
	Submit(ctx context.Context, session common.Address, calls []types.Call, gas types.GasParams) (types.OperationHandle, error)
	WaitForReceipt(ctx context.Context, handle types.OperationHandle) (*types.Receipt, error)
}
