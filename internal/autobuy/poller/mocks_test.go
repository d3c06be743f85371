package poller

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trigg3rX/autobuy-backend/internal/autobuy/sequencer"
	pkgerrors "github.com/trigg3rX/autobuy-backend/pkg/errors"
	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

type mockSwaps struct {
	mock.Mock
}

func (m *mockSwaps) Quote(ctx context.Context, order sequencer.Order) (*types.Quote, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Quote), args.Error(1)
}

func (m *mockSwaps) Execute(ctx context.Context, order sequencer.Order) (string, error) {
	args := m.Called(ctx, order)
	return args.String(0), args.Error(1)
}

// memTaskStore mimics the conditional updates of the Mongo repository.
type memTaskStore struct {
	mu       sync.Mutex
	tasks    map[primitive.ObjectID]*types.Task
	updates  int
	findErr  error
	findHits int
}

func newMemTaskStore(tasks ...types.Task) *memTaskStore {
	s := &memTaskStore{tasks: map[primitive.ObjectID]*types.Task{}}
	for i := range tasks {
		t := tasks[i]
		s.tasks[t.ID] = &t
	}
	return s
}

func (s *memTaskStore) FindActive(_ context.Context, taskType types.TaskType) ([]types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findHits++
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []types.Task
	for _, t := range s.tasks {
		if t.Status == types.TaskStatusActive && t.Type == taskType {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if taskType == types.TaskTypeScheduled {
			return out[i].SwapScheduledExecutionTime < out[j].SwapScheduledExecutionTime
		}
		return out[i].SwapLimitExpired < out[j].SwapLimitExpired
	})
	return out, nil
}

func (s *memTaskStore) Update(_ context.Context, id primitive.ObjectID, owner string, patch types.TaskPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.OwnerAddress != owner || t.Status != types.TaskStatusActive {
		return pkgerrors.ErrRecordNotUpdated
	}
	s.updates++
	t.Status = patch.Status
	t.MessageStatus = patch.MessageStatus
	if patch.Hash != "" {
		t.Hash = patch.Hash
	}
	return nil
}

func (s *memTaskStore) get(id primitive.ObjectID) types.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.tasks[id]
}

type memSubscriptionStore struct {
	mu   sync.Mutex
	subs map[primitive.ObjectID]*types.Subscription
}

func newMemSubscriptionStore(subs ...types.Subscription) *memSubscriptionStore {
	s := &memSubscriptionStore{subs: map[primitive.ObjectID]*types.Subscription{}}
	for i := range subs {
		sub := subs[i]
		s.subs[sub.ID] = &sub
	}
	return s
}

func (s *memSubscriptionStore) FindDue(_ context.Context, now time.Time) ([]types.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.Subscription
	for _, sub := range s.subs {
		if sub.Status == types.SubscriptionStatusActive && sub.NextExecutionTimestamp <= now.Unix() {
			out = append(out, *sub)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].NextExecutionTimestamp < out[j].NextExecutionTimestamp
	})
	return out, nil
}

func (s *memSubscriptionStore) Update(_ context.Context, id primitive.ObjectID, owner string, patch types.SubscriptionPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[id]
	if !ok || sub.WalletAddress != owner || sub.Status != types.SubscriptionStatusActive {
		return pkgerrors.ErrRecordNotUpdated
	}
	sub.Status = patch.Status
	if patch.Executed != nil {
		sub.Executed = *patch.Executed
	}
	if patch.FailureCount != nil {
		sub.FailureCount = *patch.FailureCount
	}
	if patch.NextExecutionTimestamp != nil {
		sub.NextExecutionTimestamp = *patch.NextExecutionTimestamp
	}
	if patch.LastExecutionHash != nil {
		sub.LastExecutionHash = *patch.LastExecutionHash
	}
	sub.ExecutionHistory = append(sub.ExecutionHistory, patch.History)
	return nil
}

func (s *memSubscriptionStore) get(id primitive.ObjectID) types.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.subs[id]
}

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	err      error
	released []string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]bool{}}
}

func (l *fakeLocker) TryLock(_ context.Context, key string) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		l.released = append(l.released, key)
		return nil
	}, true, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var (
	usdc = types.Token{Address: "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238", Decimals: 6, Symbol: "USDC"}
	weth = types.Token{Address: "0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14", Decimals: 18, Symbol: "WETH"}

	grant = []types.Permission{{
		Context:    "0xdeadbeef",
		SignerMeta: types.SignerMeta{DelegationManager: "0xdb9B1e94B5b69Df7e401DDbedE43491141047dB3"},
	}}
)
