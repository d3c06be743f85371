package uniswap

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/trigg3rX/autobuy-backend/pkg/errors"
	"github.com/trigg3rX/autobuy-backend/pkg/logging"
	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

var (
	usdc      = common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238")
	link      = common.HexToAddress("0x779877A7B0D9E8603169DdbD7836e478b4624789")
	recipient = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	fixedNow  = time.Unix(1_760_000_000, 0)
)

// fakeChain answers factory and quoter eth_calls from in-memory tables keyed by fee tier.
type fakeChain struct {
	config   Config
	pools    map[uint32]common.Address
	outputs  map[uint32]*big.Int
	poolErr  error
	quotedIn []common.Address
	noCode   map[common.Address]bool
}

func (f *fakeChain) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	if f.noCode[contract] {
		return nil, nil
	}
	return []byte{0x60}, nil
}

func (f *fakeChain) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	switch *call.To {
	case f.config.Factory:
		if f.poolErr != nil {
			return nil, f.poolErr
		}
		method := FactoryABI.Methods["getPool"]
		args, err := method.Inputs.Unpack(call.Data[4:])
		if err != nil {
			return nil, err
		}
		fee := uint32(args[2].(*big.Int).Uint64())
		return method.Outputs.Pack(f.pools[fee])

	case f.config.QuoterV2:
		method := QuoterV2ABI.Methods["quoteExactInputSingle"]
		args, err := method.Inputs.Unpack(call.Data[4:])
		if err != nil {
			return nil, err
		}
		params := *abi.ConvertType(args[0], new(QuoteExactInputSingleParams)).(*QuoteExactInputSingleParams)
		f.quotedIn = append(f.quotedIn, params.TokenIn)

		out, ok := f.outputs[uint32(params.Fee.Uint64())]
		if !ok {
			return nil, errors.New("execution reverted: SPL")
		}
		return method.Outputs.Pack(out, new(big.Int), uint32(3), big.NewInt(120_000))
	}
	return nil, errors.New("unexpected call")
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		config:  SepoliaConfig(),
		pools:   map[uint32]common.Address{},
		outputs: map[uint32]*big.Int{},
		noCode:  map[common.Address]bool{},
	}
}

func newTestQuoter(t *testing.T, chain *fakeChain) *Quoter {
	t.Helper()
	q, err := NewQuoter(chain, chain.config, logging.NewNoOpLogger())
	require.NoError(t, err)
	q.now = func() time.Time { return fixedNow }
	return q
}

type decodedSwap struct {
	deadline *big.Int
	swap     ExactInputSingleParams
	unwrap   []interface{}
}

func decodeSwap(t *testing.T, data []byte) decodedSwap {
	t.Helper()
	multicall := SwapRouter02ABI.Methods["multicall"]
	require.Equal(t, multicall.ID, data[:4])

	args, err := multicall.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	steps := args[1].([][]byte)
	require.NotEmpty(t, steps)

	exact := SwapRouter02ABI.Methods["exactInputSingle"]
	require.Equal(t, exact.ID, steps[0][:4])
	swapArgs, err := exact.Inputs.Unpack(steps[0][4:])
	require.NoError(t, err)

	out := decodedSwap{
		deadline: args[0].(*big.Int),
		swap:     *abi.ConvertType(swapArgs[0], new(ExactInputSingleParams)).(*ExactInputSingleParams),
	}
	if len(steps) > 1 {
		unwrap := SwapRouter02ABI.Methods["unwrapWETH9"]
		require.Equal(t, unwrap.ID, steps[1][:4])
		out.unwrap, err = unwrap.Inputs.Unpack(steps[1][4:])
		require.NoError(t, err)
	}
	return out
}

func TestQuote_PicksBestFeeTier(t *testing.T) {
	chain := newFakeChain()
	chain.pools[3000] = common.HexToAddress("0x3000")
	chain.pools[500] = common.HexToAddress("0x0500")
	chain.outputs[3000] = big.NewInt(100)
	chain.outputs[500] = big.NewInt(120)

	quote, err := newTestQuoter(t, chain).Quote(context.Background(), types.QuoteRequest{
		TokenIn:     usdc,
		TokenOut:    link,
		AmountIn:    big.NewInt(1_000_000),
		Recipient:   recipient,
		SlippagePct: 1,
		Deadline:    10 * time.Minute,
	})

	require.NoError(t, err)
	assert.Equal(t, uint32(500), quote.Fee)
	assert.Equal(t, common.HexToAddress("0x0500"), quote.Pool)
	assert.Equal(t, big.NewInt(120), quote.AmountOut)
	assert.Equal(t, big.NewInt(118), quote.AmountOutMin)
	assert.Equal(t, big.NewInt(120_000), quote.GasEstimate)
	assert.Equal(t, chain.config.SwapRouter, quote.To)
	assert.Equal(t, 0, quote.Value.Sign())

	decoded := decodeSwap(t, quote.Data)
	assert.Equal(t, fixedNow.Add(10*time.Minute).Unix(), decoded.deadline.Int64())
	assert.Equal(t, usdc, decoded.swap.TokenIn)
	assert.Equal(t, link, decoded.swap.TokenOut)
	assert.Equal(t, recipient, decoded.swap.Recipient)
	assert.Equal(t, int64(500), decoded.swap.Fee.Int64())
	assert.Equal(t, int64(1_000_000), decoded.swap.AmountIn.Int64())
	assert.Equal(t, int64(118), decoded.swap.AmountOutMinimum.Int64())
	assert.Nil(t, decoded.unwrap)
}

func TestQuote_NativeInputUsesWETHAndValue(t *testing.T) {
	chain := newFakeChain()
	chain.pools[3000] = common.HexToAddress("0x3000")
	chain.outputs[3000] = big.NewInt(25_000_000)
	amountIn := big.NewInt(10_000_000_000_000_000)

	quote, err := newTestQuoter(t, chain).Quote(context.Background(), types.QuoteRequest{
		TokenIn:     common.HexToAddress(types.NativeTokenAddress),
		TokenOut:    usdc,
		AmountIn:    amountIn,
		Recipient:   recipient,
		SlippagePct: 0.5,
		Deadline:    time.Minute,
	})

	require.NoError(t, err)
	assert.Equal(t, amountIn, quote.Value)
	assert.Equal(t, []common.Address{chain.config.WETH}, chain.quotedIn)

	decoded := decodeSwap(t, quote.Data)
	assert.Equal(t, chain.config.WETH, decoded.swap.TokenIn)
	assert.Equal(t, recipient, decoded.swap.Recipient)
	assert.Equal(t, int64(24_875_000), decoded.swap.AmountOutMinimum.Int64())
}

func TestQuote_NativeOutputUnwrapsToRecipient(t *testing.T) {
	chain := newFakeChain()
	chain.pools[10000] = common.HexToAddress("0x1000")
	chain.outputs[10000] = big.NewInt(1_000_000)

	quote, err := newTestQuoter(t, chain).Quote(context.Background(), types.QuoteRequest{
		TokenIn:     usdc,
		TokenOut:    common.HexToAddress(types.NativeTokenAddress),
		AmountIn:    big.NewInt(5_000_000),
		Recipient:   recipient,
		SlippagePct: 1,
		Deadline:    time.Minute,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, quote.Value.Sign())

	decoded := decodeSwap(t, quote.Data)
	assert.Equal(t, chain.config.WETH, decoded.swap.TokenOut)
	assert.Equal(t, chain.config.SwapRouter, decoded.swap.Recipient)
	require.Len(t, decoded.unwrap, 2)
	assert.Equal(t, big.NewInt(990_000), decoded.unwrap[0])
	assert.Equal(t, recipient, decoded.unwrap[1])
}

func TestQuote_Failures(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(c *fakeChain)
		req          types.QuoteRequest
		expectedKind pkgerrors.Kind
	}{
		{
			name:         "no pool on any tier",
			setup:        func(c *fakeChain) {},
			expectedKind: pkgerrors.KindNoPoolAvailable,
		},
		{
			name: "pools exist but every quote reverts",
			setup: func(c *fakeChain) {
				c.pools[3000] = common.HexToAddress("0x3000")
				c.pools[500] = common.HexToAddress("0x0500")
			},
			expectedKind: pkgerrors.KindInsufficientLiquidity,
		},
		{
			name: "factory unreachable",
			setup: func(c *fakeChain) {
				c.poolErr = errors.New("connection refused")
			},
			expectedKind: pkgerrors.KindNetworkError,
		},
		{
			name: "output token has no contract",
			setup: func(c *fakeChain) {
				c.pools[3000] = common.HexToAddress("0x3000")
				c.outputs[3000] = big.NewInt(100)
				c.noCode[link] = true
			},
			expectedKind: pkgerrors.KindTokenNotFound,
		},
		{
			name:  "zero amount",
			setup: func(c *fakeChain) {},
			req: types.QuoteRequest{
				TokenIn: usdc, TokenOut: link, AmountIn: big.NewInt(0),
			},
			expectedKind: pkgerrors.KindInvalidInput,
		},
		{
			name:  "native to WETH",
			setup: func(c *fakeChain) {},
			req: types.QuoteRequest{
				TokenIn: common.HexToAddress(types.NativeTokenAddress), TokenOut: SepoliaConfig().WETH, AmountIn: big.NewInt(1),
			},
			expectedKind: pkgerrors.KindInvalidInput,
		},
		{
			name:  "slippage out of range",
			setup: func(c *fakeChain) {},
			req: types.QuoteRequest{
				TokenIn: usdc, TokenOut: link, AmountIn: big.NewInt(1), SlippagePct: 100,
			},
			expectedKind: pkgerrors.KindInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := newFakeChain()
			tt.setup(chain)
			req := tt.req
			if req.AmountIn == nil {
				req = types.QuoteRequest{TokenIn: usdc, TokenOut: link, AmountIn: big.NewInt(1_000_000), Recipient: recipient, SlippagePct: 1}
			}

			quote, err := newTestQuoter(t, chain).Quote(context.Background(), req)

			assert.Nil(t, quote)
			assert.Equal(t, tt.expectedKind, pkgerrors.KindOf(err))
		})
	}
}

func TestNewQuoter_RequiresAddresses(t *testing.T) {
	cfg := SepoliaConfig()
	cfg.QuoterV2 = common.Address{}

	_, err := NewQuoter(newFakeChain(), cfg, logging.NewNoOpLogger())

	assert.ErrorContains(t, err, "quoter")
}

func TestApplySlippage(t *testing.T) {
	tests := []struct {
		amountOut int64
		slippage  float64
		expected  int64
	}{
		{1000, 1, 990},
		{1000, 0, 1000},
		{1000, 0.5, 995},
		{120, 1, 118},
		{1_000_000, 2.25, 977_500},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, applySlippage(big.NewInt(tt.amountOut), tt.slippage).Int64())
	}
}

func TestSortTokens(t *testing.T) {
	a, b := sortTokens(usdc, link)
	assert.Equal(t, usdc, a)
	assert.Equal(t, link, b)

	a, b = sortTokens(link, usdc)
	assert.Equal(t, usdc, a)
	assert.Equal(t, link, b)
}
