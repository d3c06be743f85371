package sequencer

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/trigg3rX/autobuy-backend/internal/autobuy/metrics"
	pkgerrors "github.com/trigg3rX/autobuy-backend/pkg/errors"
	"github.com/trigg3rX/autobuy-backend/pkg/logging"
	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

const (
	DefaultSlippage       = 1.0
	DefaultDeadline       = 600 * time.Second
	DefaultReceiptTimeout = 120 * time.Second
)

type Config struct {
	DefaultSlippage float64
	DefaultDeadline time.Duration
	ReceiptTimeout  time.Duration
}

// Sequencer turns an Order into the delegated transfer, approve and swap calls and sees them mined.
type Sequencer struct {
	quoter   SwapQuoter
	executor TxExecutor
	config   Config
	logger   logging.Logger
}

func NewSequencer(quoter SwapQuoter, executor TxExecutor, config Config, logger logging.Logger) *Sequencer {
	if config.DefaultSlippage <= 0 {
		config.DefaultSlippage = DefaultSlippage
	}
	if config.DefaultDeadline <= 0 {
		config.DefaultDeadline = DefaultDeadline
	}
	if config.ReceiptTimeout <= 0 {
		config.ReceiptTimeout = DefaultReceiptTimeout
	}
	return &Sequencer{
		quoter:   quoter,
		executor: executor,
		config:   config,
		logger:   logger,
	}
}

// prepared holds an order after validation, in chain types.
type prepared struct {
	owner      common.Address
	tokenIn    common.Address
	tokenOut   common.Address
	amountIn   *big.Int
	delegation types.Delegation
	slippage   float64
	deadline   time.Duration
}

func (s *Sequencer) prepare(order Order) (*prepared, error) {
	if !common.IsHexAddress(order.Owner) {
		return nil, pkgerrors.NewSwapError(pkgerrors.KindInvalidInput, "invalid owner address")
	}

	tokenIn, tokenOut := order.FromToken.QuoteAddress(), order.ToToken.QuoteAddress()
	if !common.IsHexAddress(tokenIn) || !common.IsHexAddress(tokenOut) {
		return nil, pkgerrors.NewSwapError(pkgerrors.KindInvalidInput, "invalid token address")
	}
	if strings.EqualFold(tokenIn, tokenOut) {
		return nil, pkgerrors.NewSwapError(pkgerrors.KindInvalidInput, "input and output token are the same")
	}

	amountIn, err := types.ParseUnits(string(order.Amount), order.FromToken.Decimals)
	if err != nil {
		return nil, pkgerrors.WrapSwapError(pkgerrors.KindInvalidInput, "invalid amount", err)
	}
	if amountIn.Sign() <= 0 {
		return nil, pkgerrors.NewSwapError(pkgerrors.KindInvalidInput, "amount must be positive")
	}

	permissionContext, err := hexutil.Decode(order.Permission.Context)
	if err != nil || len(permissionContext) == 0 {
		return nil, pkgerrors.NewSwapError(pkgerrors.KindInvalidInput, "invalid permission context")
	}
	manager := order.Permission.SignerMeta.DelegationManager
	if !common.IsHexAddress(manager) {
		return nil, pkgerrors.NewSwapError(pkgerrors.KindInvalidInput, "invalid delegation manager")
	}

	p := &prepared{
		owner:    common.HexToAddress(order.Owner),
		tokenIn:  common.HexToAddress(tokenIn),
		tokenOut: common.HexToAddress(tokenOut),
		amountIn: amountIn,
		delegation: types.Delegation{
			Context: permissionContext,
			Manager: common.HexToAddress(manager),
		},
		slippage: order.Slippage,
		deadline: order.Deadline,
	}
	if p.slippage <= 0 || p.slippage >= 100 {
		p.slippage = s.config.DefaultSlippage
	}
	if p.deadline <= 0 {
		p.deadline = s.config.DefaultDeadline
	}
	return p, nil
}

// Quote prices the order without executing it.
func (s *Sequencer) Quote(ctx context.Context, order Order) (*types.Quote, error) {
	p, err := s.prepare(order)
	if err != nil {
		return nil, err
	}
	return s.quote(ctx, p)
}

func (s *Sequencer) quote(ctx context.Context, p *prepared) (*types.Quote, error) {
	q, err := s.quoter.Quote(ctx, types.QuoteRequest{
		TokenIn:     p.tokenIn,
		TokenOut:    p.tokenOut,
		AmountIn:    p.amountIn,
		Recipient:   p.owner,
		SlippagePct: p.slippage,
		Deadline:    p.deadline,
	})
	if err != nil {
		if pkgerrors.KindOf(err) != pkgerrors.KindUnknown {
			return nil, err
		}
		return nil, pkgerrors.WrapSwapError(pkgerrors.KindQuoteFailed, "quote failed", err)
	}
	if q == nil || q.AmountOut == nil || q.AmountOut.Sign() <= 0 || len(q.Data) == 0 {
		return nil, pkgerrors.NewSwapError(pkgerrors.KindNoQuoteAvailable, "no quote available")
	}
	return q, nil
}

// Execute runs the order and returns the hash of the mined swap transaction.
// A reverted or unconfirmed transaction comes back as a *errors.SwapError that still carries the hash.
func (s *Sequencer) Execute(ctx context.Context, order Order) (string, error) {
	started := time.Now()
	hash, err := s.execute(ctx, order)

	metrics.TrackSwapExecution(time.Since(started), err == nil)
	if err != nil {
		metrics.TrackSwapError(pkgerrors.KindOf(err).String())
	}
	return hash, err
}

func (s *Sequencer) execute(ctx context.Context, order Order) (string, error) {
	p, err := s.prepare(order)
	if err != nil {
		return "", err
	}

	session, err := s.executor.SessionAccount(ctx, p.owner)
	if err != nil {
		return "", pkgerrors.WrapSwapError(pkgerrors.KindTransportError, "session account unavailable", err)
	}

	quote := order.Quote
	if quote == nil {
		quote, err = s.quote(ctx, p)
		if err != nil {
			return "", err
		}
	}
	s.logger.Infof("[%s] Quote: %s in -> %s out (fee %d, router %s)",
		order.Reference, p.amountIn, quote.AmountOut, quote.Fee, quote.To.Hex())

	calls, err := BuildCalls(order.FromToken, p.amountIn, p.owner, session, p.delegation, quote)
	if err != nil {
		return "", pkgerrors.WrapSwapError(pkgerrors.KindInvalidInput, "failed to encode calls", err)
	}

	gas, err := s.executor.GasPrice(ctx)
	if err != nil {
		return "", pkgerrors.WrapSwapError(pkgerrors.KindTransportError, "failed to fetch gas price", err)
	}

	handle, err := s.executor.Submit(ctx, session, calls, gas)
	if err != nil {
		if pkgerrors.KindOf(err) != pkgerrors.KindUnknown {
			return "", err
		}
		return "", pkgerrors.WrapSwapError(pkgerrors.KindTransportError, "failed to submit calls", err)
	}
	txHash := handle.TxHash()
	s.logger.Infof("[%s] Submitted %d calls from %s, tx %s", order.Reference, len(calls), session.Hex(), txHash)

	waitCtx, cancel := context.WithTimeout(ctx, s.config.ReceiptTimeout)
	defer cancel()

	receipt, err := s.executor.WaitForReceipt(waitCtx, handle)
	if err != nil {
		return "", pkgerrors.WrapSwapError(pkgerrors.KindNoReceipt, "no receipt received", err).WithTxHash(txHash)
	}
	if receipt == nil {
		return "", pkgerrors.NewSwapError(pkgerrors.KindNoReceipt, "no receipt received").WithTxHash(txHash)
	}
	if receipt.TxHash != "" {
		txHash = receipt.TxHash
	}
	if !receipt.Success {
		swapErr := pkgerrors.NewSwapError(pkgerrors.KindReverted, "Transaction failed on-chain").WithTxHash(txHash)
		if receipt.RefundTxHash != "" {
			s.logger.Warnf("[%s] Swap reverted, funds refunded in %s", order.Reference, receipt.RefundTxHash)
			swapErr = swapErr.WithRefundTxHash(receipt.RefundTxHash)
		}
		return "", swapErr
	}

	s.logger.Infof("[%s] Swap mined in block %d, tx %s", order.Reference, receipt.BlockNumber, txHash)
	return txHash, nil
}
