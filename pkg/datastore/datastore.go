package datastore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/trigg3rX/autobuy-backend/pkg/logging"
	"github.com/trigg3rX/autobuy-backend/pkg/retry"
)

// RequestObserver is told about every store round trip, status is "success" or "error".
type RequestObserver func(collection, operation, status string)

// Service owns the MongoDB client and hands out repositories over it.
type Service struct {
	client   *mongo.Client
	database *mongo.Database
	config   *Config
	observer RequestObserver
	logger   logging.Logger
}

// Connect dials MongoDB and pings the primary, retrying while the server comes up.
func Connect(ctx context.Context, config *Config, logger logging.Logger) (*Service, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := options.Client().
		ApplyURI(config.URI).
		SetConnectTimeout(config.ConnectTimeout).
		SetServerSelectionTimeout(config.ServerSelectionTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	err = retry.RetryFunc(ctx, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
		defer cancel()
		return client.Ping(pingCtx, readpref.Primary())
	}, config.RetryConfig, logger)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	logger.Infof("Connected to MongoDB database %s", config.Database)
	return &Service{
		client:   client,
		database: client.Database(config.Database),
		config:   config,
		observer: func(string, string, string) {},
		logger:   logger,
	}, nil
}

// SetObserver installs the hook called after each find and update.
func (s *Service) SetObserver(observer RequestObserver) {
	if observer != nil {
		s.observer = observer
	}
}

func (s *Service) Tasks() *TaskRepository {
	return NewTaskRepository(s.database.Collection(TaskCollection), s.config.OperationTimeout, s.observer, s.logger)
}

func (s *Service) Subscriptions() *SubscriptionRepository {
	return NewSubscriptionRepository(s.database.Collection(SubscriptionCollection), s.config.OperationTimeout, s.observer, s.logger)
}

func (s *Service) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Service) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	s.logger.Info("MongoDB connection closed")
	return nil
}
