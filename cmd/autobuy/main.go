package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli"

	"github.com/trigg3rX/autobuy-backend/internal/autobuy/api"
	"github.com/trigg3rX/autobuy-backend/internal/autobuy/config"
	"github.com/trigg3rX/autobuy-backend/internal/autobuy/metrics"
	"github.com/trigg3rX/autobuy-backend/internal/autobuy/poller"
	"github.com/trigg3rX/autobuy-backend/internal/autobuy/sequencer"
	"github.com/trigg3rX/autobuy-backend/pkg/client/delegation"
	"github.com/trigg3rX/autobuy-backend/pkg/client/redis"
	"github.com/trigg3rX/autobuy-backend/pkg/client/uniswap"
	"github.com/trigg3rX/autobuy-backend/pkg/datastore"
	"github.com/trigg3rX/autobuy-backend/pkg/logging"
	"github.com/trigg3rX/autobuy-backend/pkg/retry"
	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

const (
	shutdownGrace = 30 * time.Second

	pollerPrice        = "price"
	pollerScheduled    = "scheduled"
	pollerSubscription = "subscription"
)

var (
	PollersFlag = cli.StringFlag{
		Name:  "pollers",
		Usage: "comma separated pollers to run: price, scheduled, subscription",
		Value: strings.Join([]string{pollerPrice, pollerScheduled, pollerSubscription}, ","),
	}
	NetworkConfigFlag = cli.StringFlag{
		Name:  "network-config",
		Usage: "path to the network contract YAML file",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "autobuy"
	app.Usage = "autobuy execution backend"
	app.Description = "Polls price, scheduled and recurring buy orders and executes their swaps through ERC-7710 delegations."
	app.Flags = []cli.Flag{PollersFlag, NetworkConfigFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatalln("Application failed. Message:", err)
	}
}

func run(c *cli.Context) error {
	if err := config.Init(); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}
	if path := c.String(NetworkConfigFlag.Name); path != "" {
		if err := config.LoadNetwork(path); err != nil {
			return err
		}
		if id := config.GetNetwork().ChainID; id != 0 && id != config.GetChainID() {
			return fmt.Errorf("network file %s is for chain %d but CHAIN_ID is %d", path, id, config.GetChainID())
		}
	}
	selected, err := parsePollers(c.String(PollersFlag.Name))
	if err != nil {
		return err
	}

	logConfig := logging.NewDefaultConfig(logging.AutobuyProcess)
	logConfig.IsDevelopment = config.IsDevMode()
	if err := logging.InitServiceLogger(logConfig); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logging.Shutdown()
	logger := logging.GetServiceLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting autobuy service",
		"pollers", strings.Join(selected, ","),
		"network", config.GetNetwork().Name,
		"network_config", config.GetNetworkConfigFile())

	metrics.StartMetricsCollection(ctx)

	store, err := datastore.Connect(ctx,
		datastore.NewConfig(config.GetMongoURI()).WithDatabase(config.GetMongoDatabase()),
		logger.With("component", "datastore"))
	if err != nil {
		return err
	}
	store.SetObserver(metrics.TrackDBRequest)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("Failed to close datastore", "error", err)
		}
	}()

	ethClient, err := dialChain(ctx, logger)
	if err != nil {
		return err
	}
	defer ethClient.Close()

	quoter, err := uniswap.NewQuoter(ethClient, config.GetNetwork().UniswapConfig(), logger.With("component", "uniswap"))
	if err != nil {
		return fmt.Errorf("failed to create quoter: %w", err)
	}
	executor, err := delegation.NewExecutor(ctx, ethClient, delegation.Config{
		SessionKey:          config.GetSessionManagerKey(),
		IntermediateTimeout: config.GetIntermediateTxTimeout(),
	}, logger.With("component", "executor"))
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}
	seq := sequencer.NewSequencer(quoter, executor, sequencer.Config{
		DefaultSlippage: config.GetDefaultSlippage(),
		DefaultDeadline: config.GetDefaultDeadline(),
		ReceiptTimeout:  config.GetReceiptTimeout(),
	}, logger.With("component", "sequencer"))

	var locker poller.Locker = poller.NoopLocker{}
	if url := config.GetRedisURL(); url != "" {
		redisClient, err := redis.NewRedisClient(ctx, logger.With("component", "redis"), redis.RedisConfig{
			URL:                url,
			ConnectionSettings: redis.DefaultConnectionSettings(),
		})
		if err != nil {
			return err
		}
		defer func() { _ = redisClient.Close() }()
		locker = redis.NewExecutionLocker(redisClient, redis.DefaultLockPrefix, config.GetExecutionLockTTL())
		logger.Info("Execution locks backed by Redis")
	} else {
		logger.Warn("REDIS_URL not set, run a single replica only")
	}

	runners := buildPollers(selected, store, seq, locker, logger)

	srv := api.NewServer(api.Config{Port: config.GetAPIPort()}, api.Dependencies{
		Logger:    logger.With("component", "api"),
		Pollers:   runners,
		Health:    store.HealthCheck,
		StartedAt: time.Now(),
	})
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	var wg sync.WaitGroup
	for _, r := range runners {
		wg.Add(1)
		go func(r poller.Runner) {
			defer wg.Done()
			r.Run(ctx)
		}(r)
	}
	logger.Info("Autobuy service ready", "api_port", config.GetAPIPort())

	<-ctx.Done()
	logger.Info("Initiating graceful shutdown...")
	performGracefulShutdown(srv, &wg, executor.MaxBatchDuration(sequencer.MaxBatchCalls, config.GetReceiptTimeout())+shutdownGrace, logger)
	return nil
}

func dialChain(ctx context.Context, logger logging.Logger) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, config.GetEthRPCURL())
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC: %w", err)
	}
	chainID, err := retry.Retry(ctx, func() (int64, error) {
		id, err := client.ChainID(ctx)
		if err != nil {
			return 0, err
		}
		return id.Int64(), nil
	}, retry.DefaultRetryConfig(), logger)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach RPC: %w", err)
	}
	if chainID != config.GetChainID() {
		client.Close()
		return nil, fmt.Errorf("RPC is on chain %d, expected %d", chainID, config.GetChainID())
	}
	logger.Info("Connected to chain", "chain_id", chainID)
	return client, nil
}

func parsePollers(raw string) ([]string, error) {
	var selected []string
	seen := map[string]bool{}
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" || seen[name] {
			continue
		}
		switch name {
		case pollerPrice, pollerScheduled, pollerSubscription:
		default:
			return nil, fmt.Errorf("unknown poller %q", name)
		}
		seen[name] = true
		selected = append(selected, name)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no pollers selected")
	}
	return selected, nil
}

func buildPollers(selected []string, store *datastore.Service, swaps poller.SwapRunner, locker poller.Locker, logger logging.Logger) []poller.Runner {
	tasks := store.Tasks()
	runners := make([]poller.Runner, 0, len(selected))
	for _, name := range selected {
		switch name {
		case pollerPrice:
			runners = append(runners, poller.New[types.Task](
				poller.NewPriceTaskStrategy(tasks, swaps),
				poller.Config{Interval: config.GetPricePollInterval(), Locker: locker},
				logger))
		case pollerScheduled:
			runners = append(runners, poller.New[types.Task](
				poller.NewScheduledTaskStrategy(tasks, swaps),
				poller.Config{Interval: config.GetScheduledPollInterval(), Locker: locker},
				logger))
		case pollerSubscription:
			runners = append(runners, poller.New[types.Subscription](
				poller.NewSubscriptionStrategy(store.Subscriptions(), swaps, config.GetSubscriptionPolicy()),
				poller.Config{Interval: config.GetSubscriptionPollInterval(), Locker: locker},
				logger))
		}
	}
	return runners
}

// performGracefulShutdown stops the API and waits up to timeout for pollers to finish the record they are on.
func performGracefulShutdown(srv *api.Server, wg *sync.WaitGroup, timeout time.Duration, logger logging.Logger) {
	shutdownStart := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		logger.Error("API server forced to shutdown", "error", err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("All pollers stopped")
	case <-ctx.Done():
		logger.Warn("Timed out waiting for pollers to stop")
	}

	logger.Info("Graceful shutdown completed", "duration", time.Since(shutdownStart))
}
