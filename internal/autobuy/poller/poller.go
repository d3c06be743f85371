package poller

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/trigg3rX/autobuy-backend/internal/autobuy/metrics"
	"github.com/trigg3rX/autobuy-backend/pkg/logging"
)

const DefaultLockTimeout = 5 * time.Second

// Runner is the type-erased view of a Poller used by the process and the API.
type Runner interface {
	Name() string
	Run(ctx context.Context)
	Stats() Stats
}

type Config struct {
	// Interval is the pause between the end of one tick and the start of the next.
	Interval time.Duration
	Locker   Locker
	Clock    func() time.Time
}

// Poller repeatedly fetches due records through its Strategy and processes them one at a time.
type Poller[T any] struct {
	strategy Strategy[T]
	interval time.Duration
	locker   Locker
	clock    func() time.Time
	logger   logging.Logger
	stats    statsRecorder
}

func New[T any](strategy Strategy[T], config Config, logger logging.Logger) *Poller[T] {
	if config.Locker == nil {
		config.Locker = NoopLocker{}
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	p := &Poller[T]{
		strategy: strategy,
		interval: config.Interval,
		locker:   config.Locker,
		clock:    config.Clock,
		logger:   logger.With("poller", strategy.Name()),
	}
	p.stats.stats.Name = strategy.Name()
	p.stats.stats.Interval = config.Interval.String()
	return p
}

func (p *Poller[T]) Name() string {
	return p.strategy.Name()
}

func (p *Poller[T]) Stats() Stats {
	return p.stats.snapshot()
}

// Run ticks until ctx is cancelled. A tick in progress finishes its current record first.
func (p *Poller[T]) Run(ctx context.Context) {
	p.logger.Info("Poller started", "interval", p.interval.String())
	p.stats.setRunning(true)
	defer p.stats.setRunning(false)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Poller stopped")
			return
		case <-timer.C:
			p.Tick(ctx)
			timer.Reset(p.interval)
		}
	}
}

// Tick runs one fetch-and-process pass.
func (p *Poller[T]) Tick(ctx context.Context) {
	started := p.clock()
	logger := p.logger.With("tick_id", uuid.New().String())

	records, err := p.strategy.FetchDue(ctx, started)
	if err != nil {
		logger.Error("Failed to fetch due records", "error", err)
		metrics.TrackQueryError(p.Name())
		p.stats.queryError(err)
		return
	}
	if len(records) > 0 {
		logger.Debugf("Found %d candidate records", len(records))
	}

	// A record that started executing is seen through to its store update even during shutdown.
	recordCtx := context.WithoutCancel(ctx)
	for _, record := range records {
		if ctx.Err() != nil {
			logger.Info("Tick interrupted by shutdown")
			break
		}
		outcome := p.processOne(recordCtx, record, logger.With("id", p.strategy.Key(record)))
		p.stats.outcome(outcome)
		metrics.TrackRecordOutcome(p.Name(), string(outcome))
	}

	duration := p.clock().Sub(started)
	p.stats.tick(started, duration, len(records))
	metrics.TrackPollerTick(p.Name(), duration, len(records))
}

func (p *Poller[T]) processOne(ctx context.Context, record T, logger logging.Logger) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recovered from panic while processing record",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
			outcome = OutcomePanicked
		}
	}()

	lockCtx, cancel := context.WithTimeout(ctx, DefaultLockTimeout)
	unlock, acquired, err := p.locker.TryLock(lockCtx, p.Name()+":"+p.strategy.Key(record))
	cancel()
	if err != nil {
		logger.Warn("Could not claim record, skipping", "error", err)
		return OutcomeContended
	}
	if !acquired {
		logger.Debug("Record is being processed elsewhere")
		metrics.TrackLockContention(p.Name())
		return OutcomeContended
	}
	defer func() {
		if err := unlock(context.Background()); err != nil {
			logger.Warn("Failed to release record lock", "error", err)
		}
	}()

	return p.strategy.Process(ctx, record, p.clock(), logger)
}
