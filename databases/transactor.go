package databases

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Transactor runs a function as one unit of work. The verdict cascade and
// decision application go through this so that cross-aggregate mutations
// commit together.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type mongoTransactor struct {
	client ClientHelper
}

// NewTransactor wraps a client into a Transactor backed by mongo sessions
func NewTransactor(client ClientHelper) Transactor {
	return &mongoTransactor{client: client}
}

func (t *mongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		// Standalone mongo has no sessions. The callers order their writes
		// so the one-shot guard commits first, which keeps double-apply
		// impossible even without a transaction.
		zap.S().Warnw("sessions unavailable, running unit of work without transaction", "error", err)
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// NoopTransactor runs the unit of work directly; used in tests.
type NoopTransactor struct{}

// WithTransaction runs fn on the given context.
func (NoopTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
