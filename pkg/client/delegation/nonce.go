package delegation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trigg3rX/autobuy-backend/pkg/logging"
)

type nonceSource interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// NonceManager hands out sequential nonces for the session account and resyncs from the node on demand.
type NonceManager struct {
	mu      sync.Mutex
	client  nonceSource
	address common.Address
	current uint64
	synced  bool
	logger  logging.Logger
}

func NewNonceManager(client nonceSource, address common.Address, logger logging.Logger) *NonceManager {
	return &NonceManager{client: client, address: address, logger: logger}
}

func (nm *NonceManager) Next(ctx context.Context) (uint64, error) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	if !nm.synced {
		if err := nm.sync(ctx); err != nil {
			return 0, err
		}
	}
	nonce := nm.current
	nm.current++
	return nonce, nil
}

// Invalidate forces the next allocation to read the pending nonce again.
func (nm *NonceManager) Invalidate() {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.synced = false
}

func (nm *NonceManager) sync(ctx context.Context) error {
	pending, err := nm.client.PendingNonceAt(ctx, nm.address)
	if err != nil {
		return fmt.Errorf("failed to get pending nonce: %w", err)
	}
	if !nm.synced || pending > nm.current {
		nm.current = pending
	}
	nm.synced = true
	nm.logger.Debugf("Synced nonce for %s: %d", nm.address.Hex(), nm.current)
	return nil
}

func isNonceError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "nonce too low") ||
		strings.Contains(msg, "nonce too high") ||
		strings.Contains(msg, "replacement transaction underpriced") ||
		strings.Contains(msg, "already known")
}
