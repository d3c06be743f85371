package delegation

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	pkgerrors "github.com/trigg3rX/autobuy-backend/pkg/errors"
	"github.com/trigg3rX/autobuy-backend/pkg/logging"
	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

const (
	DefaultGasLimitMultiplier  = 1.2
	DefaultIntermediateTimeout = 2 * time.Minute
	maxNonceRetries            = 2
	refundSendTimeout          = 30 * time.Second
)

// ChainClient is the part of ethclient.Client the executor needs.
type ChainClient interface {
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*gethtypes.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *gethtypes.Transaction) error
}

type Config struct {
	// SessionKey is the hex private key of the delegate EOA, with or without 0x.
	SessionKey          string
	GasLimitMultiplier  float64
	IntermediateTimeout time.Duration
}

// Executor sends call batches from the session account.
// Delegated calls go through DelegationManager.redeemDelegations, the rest are plain transactions.
type Executor struct {
	client  ChainClient
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	signer  gethtypes.Signer
	nonces  *NonceManager
	config  Config
	logger  logging.Logger

	// submissions are serialized so a batch's transactions get consecutive nonces
	mu sync.Mutex
}

func NewExecutor(ctx context.Context, client ChainClient, config Config, logger logging.Logger) (*Executor, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(config.SessionKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid session key: %w", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	if config.GasLimitMultiplier < 1 {
		config.GasLimitMultiplier = DefaultGasLimitMultiplier
	}
	if config.IntermediateTimeout <= 0 {
		config.IntermediateTimeout = DefaultIntermediateTimeout
	}

	address := crypto.PubkeyToAddress(key.PublicKey)
	logger.Infof("Session account %s on chain %s", address.Hex(), chainID)

	return &Executor{
		client:  client,
		key:     key,
		address: address,
		chainID: chainID,
		signer:  gethtypes.LatestSignerForChainID(chainID),
		nonces:  NewNonceManager(client, address, logger),
		config:  config,
		logger:  logger,
	}, nil
}

// SessionAccount returns the delegate EOA. One session key redeems delegations for every owner.
func (e *Executor) SessionAccount(_ context.Context, _ common.Address) (common.Address, error) {
	return e.address, nil
}

// GasPrice returns EIP-1559 fees with headroom for two full base fee increases.
func (e *Executor) GasPrice(ctx context.Context) (types.GasParams, error) {
	tip, err := e.client.SuggestGasTipCap(ctx)
	if err != nil {
		return types.GasParams{}, fmt.Errorf("failed to suggest tip cap: %w", err)
	}
	head, err := e.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return types.GasParams{}, fmt.Errorf("failed to get latest header: %w", err)
	}
	baseFee := head.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	maxFee := new(big.Int).Mul(baseFee, big.NewInt(2))
	maxFee.Add(maxFee, tip)
	return types.GasParams{MaxFeePerGas: maxFee, MaxPriorityFeePerGas: tip}, nil
}

// Submit broadcasts the batch. Every transaction but the last is mined before the next is
// estimated, since later calls depend on the state earlier ones leave behind.
// When a step fails after earlier ones were mined, the refunds those steps carry are sent
// back before the error is returned, and the error carries the refund hash.
func (e *Executor) Submit(ctx context.Context, session common.Address, calls []types.Call, gas types.GasParams) (types.OperationHandle, error) {
	if session != e.address {
		return nil, pkgerrors.NewSwapError(pkgerrors.KindInvalidInput,
			fmt.Sprintf("unknown session account %s", session.Hex()))
	}
	if len(calls) == 0 {
		return nil, pkgerrors.NewSwapError(pkgerrors.KindInvalidInput, "empty call batch")
	}
	steps, err := planTransactions(calls)
	if err != nil {
		return nil, pkgerrors.WrapSwapError(pkgerrors.KindInvalidInput, "failed to encode delegated calls", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		last    *gethtypes.Transaction
		refunds []types.Call
	)
	for i, step := range steps {
		tx, err := e.send(ctx, step, gas)
		if err != nil {
			return nil, e.compensate(ctx, refunds, err)
		}
		last = tx
		if i == len(steps)-1 {
			break
		}
		if err := e.waitIntermediate(ctx, tx); err != nil {
			return nil, e.compensate(ctx, refunds, err)
		}
		refunds = append(refunds, step.refunds...)
	}
	return &Handle{tx: last, refunds: refunds}, nil
}

// WaitForReceipt blocks until the final transaction of a batch is mined or ctx ends.
// A reverted final transaction triggers the batch refunds; their hash is set on the receipt.
func (e *Executor) WaitForReceipt(ctx context.Context, handle types.OperationHandle) (*types.Receipt, error) {
	h, ok := handle.(*Handle)
	if !ok || h.tx == nil {
		return nil, fmt.Errorf("unexpected operation handle %T", handle)
	}
	receipt, err := bind.WaitMined(ctx, e.client, h.tx)
	if err != nil {
		return nil, err
	}
	out := toReceipt(receipt)
	if !out.Success && len(h.refunds) > 0 {
		e.mu.Lock()
		out.RefundTxHash, err = e.refund(ctx, h.refunds)
		e.mu.Unlock()
		if err != nil {
			e.logger.Errorf("Refund after reverted tx %s failed, funds remain in %s: %v", out.TxHash, e.address.Hex(), err)
		}
	}
	return out, nil
}

// compensate refunds the mined steps of a failed batch and attaches the refund hash to cause.
// Called with e.mu held.
func (e *Executor) compensate(ctx context.Context, refunds []types.Call, cause error) error {
	if len(refunds) == 0 {
		return cause
	}
	var swapErr *pkgerrors.SwapError
	if !errors.As(cause, &swapErr) {
		swapErr = pkgerrors.WrapSwapError(pkgerrors.KindTransportError, "batch failed", cause)
	}
	hash, err := e.refund(ctx, refunds)
	if err != nil {
		e.logger.Errorf("Refund after failed batch step failed, funds remain in %s: %v", e.address.Hex(), err)
		return swapErr
	}
	return swapErr.WithRefundTxHash(hash)
}

// refund sends each refund call from the session account and waits for it to be mined.
// It survives cancellation of ctx so a shutdown never leaves pulled-in funds behind.
// Returns the hash of the last refund sent. Called with e.mu held.
func (e *Executor) refund(ctx context.Context, refunds []types.Call) (string, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.refundTimeout(len(refunds)))
	defer cancel()

	gas, err := e.GasPrice(ctx)
	if err != nil {
		return "", err
	}
	var hash string
	for _, call := range refunds {
		value := call.Value
		if value == nil {
			value = new(big.Int)
		}
		tx, err := e.send(ctx, txStep{to: call.To, value: value, data: call.Data}, gas)
		if err != nil {
			return hash, err
		}
		hash = tx.Hash().Hex()
		if err := e.waitIntermediate(ctx, tx); err != nil {
			return hash, err
		}
		e.logger.Infof("Refund tx %s mined (%s)", hash, call.To.Hex())
	}
	return hash, nil
}

// refundTimeout bounds sending and mining n refund transactions.
func (e *Executor) refundTimeout(n int) time.Duration {
	return time.Duration(n) * (e.config.IntermediateTimeout + refundSendTimeout)
}

// MaxBatchDuration bounds Submit plus WaitForReceipt for a batch planned into n transactions
// whose funds are pulled in by a single call, including the refund sent when a later step fails.
func (e *Executor) MaxBatchDuration(n int, receiptTimeout time.Duration) time.Duration {
	if n < 1 {
		n = 1
	}
	return time.Duration(n-1)*e.config.IntermediateTimeout + receiptTimeout + e.refundTimeout(1)
}

func (e *Executor) send(ctx context.Context, step txStep, gas types.GasParams) (*gethtypes.Transaction, error) {
	gasLimit, err := e.client.EstimateGas(ctx, ethereum.CallMsg{
		From:      e.address,
		To:        &step.to,
		GasFeeCap: gas.MaxFeePerGas,
		GasTipCap: gas.MaxPriorityFeePerGas,
		Value:     step.value,
		Data:      step.data,
	})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "execution reverted") {
			return nil, pkgerrors.WrapSwapError(pkgerrors.KindReverted, "call reverted in simulation", err)
		}
		return nil, pkgerrors.WrapSwapError(pkgerrors.KindTransportError, "failed to estimate gas", err)
	}
	gasLimit = uint64(math.Ceil(float64(gasLimit) * e.config.GasLimitMultiplier))

	var lastErr error
	for attempt := 0; attempt < maxNonceRetries; attempt++ {
		nonce, err := e.nonces.Next(ctx)
		if err != nil {
			return nil, pkgerrors.WrapSwapError(pkgerrors.KindTransportError, "failed to allocate nonce", err)
		}
		tx, err := gethtypes.SignNewTx(e.key, e.signer, &gethtypes.DynamicFeeTx{
			ChainID:   e.chainID,
			Nonce:     nonce,
			GasTipCap: gas.MaxPriorityFeePerGas,
			GasFeeCap: gas.MaxFeePerGas,
			Gas:       gasLimit,
			To:        &step.to,
			Value:     step.value,
			Data:      step.data,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to sign transaction: %w", err)
		}

		err = e.client.SendTransaction(ctx, tx)
		if err == nil {
			e.logger.Debugf("Sent tx %s to %s with nonce %d", tx.Hash().Hex(), step.to.Hex(), nonce)
			return tx, nil
		}
		lastErr = err
		e.nonces.Invalidate()
		if !isNonceError(err) {
			break
		}
		e.logger.Warnf("Nonce %d rejected, resyncing: %v", nonce, err)
	}
	return nil, pkgerrors.WrapSwapError(pkgerrors.KindTransportError, "failed to send transaction", lastErr)
}

func (e *Executor) waitIntermediate(ctx context.Context, tx *gethtypes.Transaction) error {
	waitCtx, cancel := context.WithTimeout(ctx, e.config.IntermediateTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, e.client, tx)
	if err != nil {
		return pkgerrors.WrapSwapError(pkgerrors.KindNoReceipt, "intermediate transaction not mined", err).
			WithTxHash(tx.Hash().Hex())
	}
	if receipt.Status != gethtypes.ReceiptStatusSuccessful {
		return pkgerrors.NewSwapError(pkgerrors.KindReverted, "Transaction failed on-chain").
			WithTxHash(tx.Hash().Hex())
	}
	return nil
}

// Handle wraps the last transaction of a submitted batch and the refunds owed if it reverts.
type Handle struct {
	tx      *gethtypes.Transaction
	refunds []types.Call
}

func (h *Handle) TxHash() string {
	return h.tx.Hash().Hex()
}

type txStep struct {
	to      common.Address
	value   *big.Int
	data    []byte
	refunds []types.Call
}

// planTransactions merges runs of delegated calls sharing a manager into one redeemDelegations transaction.
func planTransactions(calls []types.Call) ([]txStep, error) {
	var steps []txStep
	var pending []redemption
	var manager common.Address

	var refunds []types.Call

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		data, err := encodeRedeem(pending)
		if err != nil {
			return err
		}
		steps = append(steps, txStep{to: manager, value: new(big.Int), data: data, refunds: refunds})
		pending, refunds = nil, nil
		return nil
	}

	for _, call := range calls {
		value := call.Value
		if value == nil {
			value = new(big.Int)
		}
		if call.Delegation == nil {
			if err := flush(); err != nil {
				return nil, err
			}
			step := txStep{to: call.To, value: value, data: call.Data}
			if call.Refund != nil {
				step.refunds = []types.Call{*call.Refund}
			}
			steps = append(steps, step)
			continue
		}
		if len(pending) > 0 && call.Delegation.Manager != manager {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		manager = call.Delegation.Manager
		pending = append(pending, redemption{
			context:   call.Delegation.Context,
			execution: EncodeSingleExecution(call.To, value, call.Data),
		})
		if call.Refund != nil {
			refunds = append(refunds, *call.Refund)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return steps, nil
}

func toReceipt(r *gethtypes.Receipt) *types.Receipt {
	out := &types.Receipt{
		TxHash:  r.TxHash.Hex(),
		Success: r.Status == gethtypes.ReceiptStatusSuccessful,
		GasUsed: r.GasUsed,
	}
	if r.BlockNumber != nil {
		out.BlockNumber = r.BlockNumber.Uint64()
	}
	return out
}
