package sequencer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"

	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

type mockQuoter struct {
	mock.Mock
}

func (m *mockQuoter) Quote(ctx context.Context, req types.QuoteRequest) (*types.Quote, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Quote), args.Error(1)
}

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) SessionAccount(ctx context.Context, owner common.Address) (common.Address, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).(common.Address), args.Error(1)
}

func (m *mockExecutor) GasPrice(ctx context.Context) (types.GasParams, error) {
	args := m.Called(ctx)
	return args.Get(0).(types.GasParams), args.Error(1)
}

func (m *mockExecutor) Submit(ctx context.Context, session common.Address, calls []types.Call, gas types.GasParams) (types.OperationHandle, error) {
	args := m.Called(ctx, session, calls, gas)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(types.OperationHandle), args.Error(1)
}

func (m *mockExecutor) WaitForReceipt(ctx context.Context, handle types.OperationHandle) (*types.Receipt, error) {
	args := m.Called(ctx, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Receipt), args.Error(1)
}

type stubHandle string

func (h stubHandle) TxHash() string { return string(h) }
