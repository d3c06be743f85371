package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/trigg3rX/autobuy-backend/internal/autobuy/policy"
	"github.com/trigg3rX/autobuy-backend/pkg/env"
)

type Config struct {
	devMode bool

	// MongoDB holding the task and subscriptions collections
	mongoURI      string
	mongoDatabase string

	// Chain access and the session key redeeming delegations
	ethRPCURL         string
	chainID           int64
	sessionManagerKey string

	// Optional Redis for cross-replica execution locks
	redisURL         string
	executionLockTTL time.Duration

	apiPort string

	// Poll intervals
	pricePollInterval        time.Duration
	scheduledPollInterval    time.Duration
	subscriptionPollInterval time.Duration

	receiptTimeout        time.Duration
	intermediateTxTimeout time.Duration
	defaultSlippage       float64
	defaultDeadline       time.Duration

	// Subscription failure accounting
	failurePolicy          policy.FailureMode
	subscriptionRetryDelay time.Duration
	subscriptionMaxFailure int

	networkConfigFile string
	networkName       string
	network           NetworkConfig
}

var cfg Config

// Held locks are renewed every third of their TTL, which needs some room.
const minExecutionLockTTL = 3 * time.Second

// Init reads the environment (and .env when present) and loads the network file.
func Init() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error loading .env file: %w", err)
	}

	failurePolicy, err := policy.ParseFailureMode(env.GetEnvString("SUBSCRIPTION_FAILURE_POLICY", string(policy.FailureModeAdvance)))
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cfg = Config{
		devMode:                  env.GetEnvBool("DEV_MODE", false),
		mongoURI:                 env.GetEnvSecret("MONGODB_DB_URL"),
		mongoDatabase:            env.GetEnvString("MONGODB_DB_NAME", "swifter-v2"),
		ethRPCURL:                env.GetEnvString("ETH_RPC_URL", "https://ethereum-sepolia-rpc.publicnode.com"),
		chainID:                  int64(env.GetEnvInt("CHAIN_ID", 11155111)),
		sessionManagerKey:        env.GetEnvSecret("SESSION_MANAGER_SECRET_KEY"),
		redisURL:                 env.GetEnvString("REDIS_URL", ""),
		executionLockTTL:         env.GetEnvDuration("EXECUTION_LOCK_TTL", time.Minute),
		apiPort:                  env.GetEnvString("AUTOBUY_API_PORT", "9010"),
		pricePollInterval:        env.GetEnvDuration("PRICE_POLL_INTERVAL", 2*time.Second),
		scheduledPollInterval:    env.GetEnvDuration("SCHEDULED_POLL_INTERVAL", 2*time.Second),
		subscriptionPollInterval: env.GetEnvDuration("SUBSCRIPTION_POLL_INTERVAL", 5*time.Second),
		receiptTimeout:           env.GetEnvDuration("RECEIPT_TIMEOUT", 2*time.Minute),
		intermediateTxTimeout:    env.GetEnvDuration("INTERMEDIATE_TX_TIMEOUT", 2*time.Minute),
		defaultSlippage:          env.GetEnvFloat("DEFAULT_SLIPPAGE", 1),
		defaultDeadline:          env.GetEnvDuration("DEFAULT_DEADLINE", 600*time.Second),
		failurePolicy:            failurePolicy,
		subscriptionRetryDelay:   env.GetEnvDuration("SUBSCRIPTION_RETRY_DELAY", policy.DefaultRetryDelay),
		subscriptionMaxFailure:   env.GetEnvInt("SUBSCRIPTION_MAX_FAILURES", policy.DefaultMaxFailures),
		networkConfigFile:        env.GetEnvString("NETWORK_CONFIG_FILE", "config/network.yaml"),
		networkName:              env.GetEnvString("NETWORK", ""),
	}

	if err := LoadNetwork(cfg.networkConfigFile); err != nil {
		return err
	}
	if err := validateConfig(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !cfg.devMode {
		gin.SetMode(gin.ReleaseMode)
	}
	return nil
}

func validateConfig() error {
	if !env.IsValidMongoURI(cfg.mongoURI) {
		return fmt.Errorf("invalid MongoDB URL")
	}
	if cfg.mongoDatabase == "" {
		return fmt.Errorf("MongoDB database name is required")
	}
	if !env.IsValidURL(cfg.ethRPCURL) {
		return fmt.Errorf("invalid ETH RPC URL: %s", cfg.ethRPCURL)
	}
	if !env.IsValidPrivateKey(cfg.sessionManagerKey) {
		return fmt.Errorf("invalid session manager private key")
	}
	if cfg.redisURL != "" && !env.IsValidRedisURL(cfg.redisURL) {
		return fmt.Errorf("invalid Redis URL")
	}
	if env.IsEmpty(cfg.apiPort) {
		return fmt.Errorf("API port is required")
	}
	for name, d := range map[string]time.Duration{
		"PRICE_POLL_INTERVAL":        cfg.pricePollInterval,
		"SCHEDULED_POLL_INTERVAL":    cfg.scheduledPollInterval,
		"SUBSCRIPTION_POLL_INTERVAL": cfg.subscriptionPollInterval,
		"RECEIPT_TIMEOUT":            cfg.receiptTimeout,
		"INTERMEDIATE_TX_TIMEOUT":    cfg.intermediateTxTimeout,
		"EXECUTION_LOCK_TTL":         cfg.executionLockTTL,
		"SUBSCRIPTION_RETRY_DELAY":   cfg.subscriptionRetryDelay,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if cfg.executionLockTTL < minExecutionLockTTL {
		return fmt.Errorf("EXECUTION_LOCK_TTL must be at least %s", minExecutionLockTTL)
	}
	if cfg.defaultSlippage <= 0 || cfg.defaultSlippage >= 100 {
		return fmt.Errorf("DEFAULT_SLIPPAGE must be between 0 and 100")
	}
	if cfg.subscriptionMaxFailure < 1 {
		return fmt.Errorf("SUBSCRIPTION_MAX_FAILURES must be at least 1")
	}
	if cfg.network.ChainID != 0 && cfg.network.ChainID != cfg.chainID {
		return fmt.Errorf("network file is for chain %d but CHAIN_ID is %d", cfg.network.ChainID, cfg.chainID)
	}
	return nil
}

func IsDevMode() bool {
	return cfg.devMode
}

func GetMongoURI() string {
	return cfg.mongoURI
}

func GetMongoDatabase() string {
	return cfg.mongoDatabase
}

func GetEthRPCURL() string {
	return cfg.ethRPCURL
}

func GetChainID() int64 {
	return cfg.chainID
}

func GetSessionManagerKey() string {
	return cfg.sessionManagerKey
}

func GetRedisURL() string {
	return cfg.redisURL
}

func GetExecutionLockTTL() time.Duration {
	return cfg.executionLockTTL
}

func GetAPIPort() string {
	return cfg.apiPort
}

func GetPricePollInterval() time.Duration {
	return cfg.pricePollInterval
}

func GetScheduledPollInterval() time.Duration {
	return cfg.scheduledPollInterval
}

func GetSubscriptionPollInterval() time.Duration {
	return cfg.subscriptionPollInterval
}

func GetReceiptTimeout() time.Duration {
	return cfg.receiptTimeout
}

func GetIntermediateTxTimeout() time.Duration {
	return cfg.intermediateTxTimeout
}

func GetDefaultSlippage() float64 {
	return cfg.defaultSlippage
}

func GetDefaultDeadline() time.Duration {
	return cfg.defaultDeadline
}

// GetSubscriptionPolicy assembles the failure accounting chosen by SUBSCRIPTION_FAILURE_POLICY.
func GetSubscriptionPolicy() policy.SubscriptionPolicy {
	p := policy.NewSubscriptionPolicy(cfg.failurePolicy)
	p.RetryDelay = cfg.subscriptionRetryDelay
	p.MaxFailures = int64(cfg.subscriptionMaxFailure)
	return p
}
