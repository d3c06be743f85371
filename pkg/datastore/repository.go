package datastore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	pkgerrors "github.com/trigg3rX/autobuy-backend/pkg/errors"
	"github.com/trigg3rX/autobuy-backend/pkg/logging"
)

// Collection is the slice of *mongo.Collection the repositories use.
type Collection interface {
	Name() string
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type repository[T any] struct {
	collection Collection
	timeout    time.Duration
	observer   RequestObserver
	logger     logging.Logger
}

func (r *repository[T]) observe(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.observer(r.collection.Name(), operation, status)
}

// find decodes records one by one so a single malformed document is skipped instead of failing the batch.
func (r *repository[T]) find(ctx context.Context, filter, sort interface{}) (records []T, err error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	defer func() { r.observe("find", err) }()

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("%w: find on %s: %v", pkgerrors.ErrDBOperationFailed, r.collection.Name(), err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	for cursor.Next(ctx) {
		var record T
		if decodeErr := cursor.Decode(&record); decodeErr != nil {
			r.logger.Warn("Skipping undecodable record",
				"collection", r.collection.Name(),
				"id", documentID(cursor.Current),
				"error", decodeErr)
			continue
		}
		records = append(records, record)
	}
	if err = cursor.Err(); err != nil {
		return nil, fmt.Errorf("%w: cursor on %s: %v", pkgerrors.ErrDBOperationFailed, r.collection.Name(), err)
	}
	return records, nil
}

func (r *repository[T]) update(ctx context.Context, filter, update interface{}) (err error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	defer func() { r.observe("update", err) }()

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("%w: update on %s: %v", pkgerrors.ErrDBOperationFailed, r.collection.Name(), err)
	}
	if result.MatchedCount == 0 {
		return pkgerrors.ErrRecordNotUpdated
	}
	return nil
}

func documentID(raw bson.Raw) string {
	if id, ok := raw.Lookup("_id").ObjectIDOK(); ok {
		return id.Hex()
	}
	return ""
}
