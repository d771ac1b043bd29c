package databases

// go generate: mockery --name CaptainDecisionDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/policeops/criminal-case-api/models"
)

const captainDecisionName = "captainDecisions"

// CaptainDecisionDatabase contains the methods to use with the captain decision database
type CaptainDecisionDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.CaptainDecision, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.CaptainDecision, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) (int64, error)
}

type captainDecisionDatabase struct {
	db DatabaseHelper
}

// NewCaptainDecisionDatabase initializes a new instance of captain decision database with the provided db connection
func NewCaptainDecisionDatabase(db DatabaseHelper) CaptainDecisionDatabase {
	return &captainDecisionDatabase{
		db: db,
	}
}

func (c *captainDecisionDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.CaptainDecision, error) {
	captainDecision := &models.CaptainDecision{}
	err := c.db.Collection(captainDecisionName).FindOne(ctx, filter, opts...).Decode(&captainDecision)
	if err != nil {
		return nil, err
	}
	return captainDecision, nil
}

func (c *captainDecisionDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.CaptainDecision, error) {
	var results []models.CaptainDecision
	curr, err := c.db.Collection(captainDecisionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &results)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (c *captainDecisionDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(captainDecisionName).InsertOne(ctx, document, opts...)
	return res, err
}

func (c *captainDecisionDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	res, err := c.db.Collection(captainDecisionName).UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount(), nil
}
