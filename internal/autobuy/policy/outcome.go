package policy

import (
	pkgerrors "github.com/trigg3rX/autobuy-backend/pkg/errors"
)

// Outcome is the result of one swap attempt as seen by the transition rules.
type Outcome struct {
	TxHash string
	Err    error
}

// NewOutcome keeps the broadcast hash from a typed error when the swap itself failed.
func NewOutcome(txHash string, err error) Outcome {
	if txHash == "" && err != nil {
		txHash = pkgerrors.TxHashOf(err)
	}
	return Outcome{TxHash: txHash, Err: err}
}

// Succeeded requires both a clean run and a transaction hash.
func (o Outcome) Succeeded() bool {
	return o.Err == nil && o.TxHash != ""
}

func (o Outcome) ErrorMessage() string {
	if o.Err != nil {
		return pkgerrors.Message(o.Err)
	}
	if o.TxHash == "" {
		return MessageNoTransactionHash
	}
	return ""
}

const (
	MessageExpired           = "Expired"
	MessageNoTransactionHash = "No transaction hash received"
)
