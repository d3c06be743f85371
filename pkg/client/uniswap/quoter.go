package uniswap

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	pkgerrors "github.com/trigg3rX/autobuy-backend/pkg/errors"
	"github.com/trigg3rX/autobuy-backend/pkg/logging"
	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

var nativePlaceholder = common.HexToAddress(types.NativeTokenAddress)

// Quoter finds the best single-hop Uniswap V3 route across fee tiers and encodes the SwapRouter02 call for it.
type Quoter struct {
	caller  bind.ContractCaller
	factory *bind.BoundContract
	quoter  *bind.BoundContract
	config  Config
	logger  logging.Logger
	now     func() time.Time
}

func NewQuoter(caller bind.ContractCaller, config Config, logger logging.Logger) (*Quoter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(config.FeeTiers) == 0 {
		config.FeeTiers = DefaultFeeTiers
	}
	return &Quoter{
		caller:  caller,
		factory: bind.NewBoundContract(config.Factory, FactoryABI, caller, nil, nil),
		quoter:  bind.NewBoundContract(config.QuoterV2, QuoterV2ABI, caller, nil, nil),
		config:  config,
		logger:  logger,
		now:     time.Now,
	}, nil
}

type route struct {
	fee         uint32
	pool        common.Address
	amountOut   *big.Int
	gasEstimate *big.Int
}

func (q *Quoter) Quote(ctx context.Context, req types.QuoteRequest) (*types.Quote, error) {
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return nil, pkgerrors.NewSwapError(pkgerrors.KindInvalidInput, "amount must be positive")
	}
	if req.SlippagePct < 0 || req.SlippagePct >= 100 {
		return nil, pkgerrors.NewSwapError(pkgerrors.KindInvalidInput, fmt.Sprintf("slippage %.2f%% out of range", req.SlippagePct))
	}

	nativeIn, nativeOut := req.TokenIn == nativePlaceholder, req.TokenOut == nativePlaceholder
	tokenIn, tokenOut := q.wrapped(req.TokenIn), q.wrapped(req.TokenOut)
	if tokenIn == tokenOut {
		return nil, pkgerrors.NewSwapError(pkgerrors.KindInvalidInput, "input and output token resolve to the same pool token")
	}

	for _, token := range []common.Address{tokenIn, tokenOut} {
		if err := q.requireContract(ctx, token); err != nil {
			return nil, err
		}
	}

	best, err := q.bestRoute(ctx, tokenIn, tokenOut, req.AmountIn)
	if err != nil {
		return nil, err
	}

	minOut := applySlippage(best.amountOut, req.SlippagePct)
	deadline := q.now().Add(req.Deadline).Unix()

	data, err := q.encodeSwap(tokenIn, tokenOut, best.fee, req.Recipient, req.AmountIn, minOut, nativeOut, deadline)
	if err != nil {
		return nil, pkgerrors.WrapSwapError(pkgerrors.KindInvalidInput, "failed to encode swap", err)
	}

	value := new(big.Int)
	if nativeIn {
		value.Set(req.AmountIn)
	}

	q.logger.Debugf("Best route %s -> %s: fee %d, pool %s, out %s, min %s",
		tokenIn.Hex(), tokenOut.Hex(), best.fee, best.pool.Hex(), best.amountOut, minOut)

	return &types.Quote{
		AmountOut:    best.amountOut,
		AmountOutMin: minOut,
		Fee:          best.fee,
		Pool:         best.pool,
		GasEstimate:  best.gasEstimate,
		To:           q.config.SwapRouter,
		Data:         data,
		Value:        value,
	}, nil
}

// requireContract fails with KindTokenNotFound when no contract is deployed at token.
func (q *Quoter) requireContract(ctx context.Context, token common.Address) error {
	code, err := q.caller.CodeAt(ctx, token, nil)
	if err != nil {
		return pkgerrors.WrapSwapError(pkgerrors.KindNetworkError, "failed to look up token", err)
	}
	if len(code) == 0 {
		return pkgerrors.NewSwapError(pkgerrors.KindTokenNotFound, fmt.Sprintf("no token contract at %s", token.Hex()))
	}
	return nil
}

func (q *Quoter) wrapped(token common.Address) common.Address {
	if token == nativePlaceholder {
		return q.config.WETH
	}
	return token
}

// bestRoute quotes every fee tier that has a pool and keeps the largest output.
func (q *Quoter) bestRoute(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*route, error) {
	var (
		best       *route
		poolsFound int
		lastErr    error
		rpcErrors  int
	)

	for _, fee := range q.config.FeeTiers {
		pool, err := q.getPool(ctx, tokenIn, tokenOut, fee)
		if err != nil {
			rpcErrors++
			lastErr = err
			q.logger.Debugf("getPool failed for fee %d: %v", fee, err)
			continue
		}
		if pool == (common.Address{}) {
			continue
		}
		poolsFound++

		amountOut, gasEstimate, err := q.quoteSingle(ctx, tokenIn, tokenOut, amountIn, fee)
		if err != nil {
			lastErr = err
			q.logger.Debugf("Quote failed for pool %s (fee %d): %v", pool.Hex(), fee, err)
			continue
		}
		if amountOut.Sign() <= 0 {
			continue
		}
		if best == nil || amountOut.Cmp(best.amountOut) > 0 {
			best = &route{fee: fee, pool: pool, amountOut: amountOut, gasEstimate: gasEstimate}
		}
	}

	switch {
	case best != nil:
		return best, nil
	case rpcErrors == len(q.config.FeeTiers):
		return nil, pkgerrors.WrapSwapError(pkgerrors.KindNetworkError, "failed to reach uniswap factory", lastErr)
	case poolsFound == 0:
		return nil, pkgerrors.NewSwapError(pkgerrors.KindNoPoolAvailable, "no pool available for pair")
	default:
		return nil, pkgerrors.WrapSwapError(pkgerrors.KindInsufficientLiquidity, "no pool could fill the amount", lastErr)
	}
}

func (q *Quoter) getPool(ctx context.Context, tokenIn, tokenOut common.Address, fee uint32) (common.Address, error) {
	token0, token1 := sortTokens(tokenIn, tokenOut)

	var out []interface{}
	err := q.factory.Call(&bind.CallOpts{Context: ctx}, &out, "getPool", token0, token1, new(big.Int).SetUint64(uint64(fee)))
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (q *Quoter) quoteSingle(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, fee uint32) (*big.Int, *big.Int, error) {
	params := QuoteExactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		Fee:               new(big.Int).SetUint64(uint64(fee)),
		SqrtPriceLimitX96: new(big.Int),
	}

	var out []interface{}
	if err := q.quoter.Call(&bind.CallOpts{Context: ctx}, &out, "quoteExactInputSingle", params); err != nil {
		return nil, nil, err
	}
	if len(out) < 4 {
		return nil, nil, fmt.Errorf("unexpected quoter output length %d", len(out))
	}
	amountOut := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	gasEstimate := *abi.ConvertType(out[3], new(*big.Int)).(**big.Int)
	return amountOut, gasEstimate, nil
}

// encodeSwap wraps the router steps in multicall(deadline, ...) so a stale transaction reverts.
// Native output swaps into WETH held by the router and unwraps it to the recipient.
func (q *Quoter) encodeSwap(tokenIn, tokenOut common.Address, fee uint32, recipient common.Address, amountIn, minOut *big.Int, nativeOut bool, deadline int64) ([]byte, error) {
	swapRecipient := recipient
	if nativeOut {
		swapRecipient = q.config.SwapRouter
	}

	swap, err := SwapRouter02ABI.Pack("exactInputSingle", ExactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		Fee:               new(big.Int).SetUint64(uint64(fee)),
		Recipient:         swapRecipient,
		AmountIn:          amountIn,
		AmountOutMinimum:  minOut,
		SqrtPriceLimitX96: new(big.Int),
	})
	if err != nil {
		return nil, err
	}

	steps := [][]byte{swap}
	if nativeOut {
		unwrap, err := SwapRouter02ABI.Pack("unwrapWETH9", minOut, recipient)
		if err != nil {
			return nil, err
		}
		steps = append(steps, unwrap)
	}

	return SwapRouter02ABI.Pack("multicall", big.NewInt(deadline), steps)
}

// applySlippage returns amountOut * (100 - slippage) / 100 with basis point precision.
func applySlippage(amountOut *big.Int, slippagePct float64) *big.Int {
	bps := int64(math.Round(slippagePct * 100))
	minOut := new(big.Int).Mul(amountOut, big.NewInt(10_000-bps))
	return minOut.Div(minOut, big.NewInt(10_000))
}

func sortTokens(a, b common.Address) (common.Address, common.Address) {
	if bytes.Compare(a.Bytes(), b.Bytes()) < 0 {
		return a, b
	}
	return b, a
}
