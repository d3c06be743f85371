package sequencer

import (
	"time"

	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

// Order is one swap to run on behalf of Owner.
type Order struct {
	Reference  string
	Owner      string
	FromToken  types.Token
	ToToken    types.Token
	Amount     types.Amount
	Permission types.Permission

	// Zero values fall back to the sequencer defaults.
	Slippage float64
	Deadline time.Duration

	// Quote is reused instead of requesting a fresh one when set.
	Quote *types.Quote
}

func OrderFromTask(task types.Task) Order {
	permission, _ := types.FirstPermission(task.Permission)
	return Order{
		Reference:  "task:" + task.Key(),
		Owner:      task.OwnerAddress,
		FromToken:  task.FromToken,
		ToToken:    task.ToToken,
		Amount:     task.FromAmount,
		Permission: permission,
	}
}

func OrderFromSubscription(sub types.Subscription) Order {
	permission, _ := types.FirstPermission(sub.Permission)
	order := Order{
		Reference:  "subscription:" + sub.Key(),
		Owner:      sub.WalletAddress,
		FromToken:  sub.PaymentToken,
		ToToken:    sub.TargetToken,
		Amount:     sub.SwapAmount(),
		Permission: permission,
	}
	if sub.Settings != nil {
		order.Slippage = sub.Settings.Slippage
		order.Deadline = time.Duration(sub.Settings.Deadline) * time.Second
	}
	return order
}
