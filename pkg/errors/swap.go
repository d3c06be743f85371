package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a swap failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNoQuoteAvailable
	KindQuoteFailed
	KindNoReceipt
	KindTransportError
	KindReverted
	KindInvalidInput
	KindInsufficientLiquidity
	KindNoPoolAvailable
	KindNetworkError
	KindTokenNotFound
)

func (k Kind) String() string {
	switch k {
	case KindNoQuoteAvailable:
		return "NO_QUOTE_AVAILABLE"
	case KindQuoteFailed:
		return "QUOTE_FAILED"
	case KindNoReceipt:
		return "NO_RECEIPT"
	case KindTransportError:
		return "TRANSPORT_ERROR"
	case KindReverted:
		return "REVERTED"
	case KindInvalidInput:
		return "INVALID_INPUT"
	case KindInsufficientLiquidity:
		return "INSUFFICIENT_LIQUIDITY"
	case KindNoPoolAvailable:
		return "NO_POOL_AVAILABLE"
	case KindNetworkError:
		return "NETWORK_ERROR"
	case KindTokenNotFound:
		return "TOKEN_NOT_FOUND"
	default:
		return "UNKNOWN"
	}
}

// SwapError is the typed failure surfaced by quoting and swap execution.
// TxHash is set once a transaction has been broadcast, even when it later failed.
// RefundTxHash is the transaction that returned pulled-in funds to the owner after the failure.
type SwapError struct {
	Kind         Kind
	Message      string
	TxHash       string
	RefundTxHash string
	Err          error
}

func (e *SwapError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.TxHash != "" {
		msg = fmt.Sprintf("%s (tx %s)", msg, e.TxHash)
	}
	if e.RefundTxHash != "" {
		msg = fmt.Sprintf("%s (refund tx %s)", msg, e.RefundTxHash)
	}
	return msg
}

func (e *SwapError) Unwrap() error {
	return e.Err
}

// Is matches another *SwapError by kind, so errors.Is(err, &SwapError{Kind: KindReverted}) works.
func (e *SwapError) Is(target error) bool {
	t, ok := target.(*SwapError)
	return ok && t.Kind == e.Kind && t.Message == "" && t.TxHash == ""
}

func NewSwapError(kind Kind, message string) *SwapError {
	return &SwapError{Kind: kind, Message: message}
}

func WrapSwapError(kind Kind, message string, err error) *SwapError {
	return &SwapError{Kind: kind, Message: message, Err: err}
}

// WithTxHash returns a copy carrying the broadcast transaction hash.
func (e *SwapError) WithTxHash(hash string) *SwapError {
	cp := *e
	cp.TxHash = hash
	return &cp
}

// WithRefundTxHash returns a copy carrying the refund transaction hash.
func (e *SwapError) WithRefundTxHash(hash string) *SwapError {
	cp := *e
	cp.RefundTxHash = hash
	return &cp
}

// KindOf returns the kind of the first *SwapError in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var swapErr *SwapError
	if errors.As(err, &swapErr) {
		return swapErr.Kind
	}
	return KindUnknown
}

// TxHashOf returns the transaction hash carried by err, if any.
func TxHashOf(err error) string {
	var swapErr *SwapError
	if errors.As(err, &swapErr) {
		return swapErr.TxHash
	}
	return ""
}

// RefundTxHashOf returns the refund transaction hash carried by err, if any.
func RefundTxHashOf(err error) string {
	var swapErr *SwapError
	if errors.As(err, &swapErr) {
		return swapErr.RefundTxHash
	}
	return ""
}

// Message returns the human readable part of err suitable for persisting on a record.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var swapErr *SwapError
	if errors.As(err, &swapErr) && swapErr.Message != "" {
		if swapErr.RefundTxHash != "" {
			return fmt.Sprintf("%s; funds refunded in %s", swapErr.Message, swapErr.RefundTxHash)
		}
		return swapErr.Message
	}
	return err.Error()
}
