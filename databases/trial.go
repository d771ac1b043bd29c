package databases

// go generate: mockery --name TrialDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/policeops/criminal-case-api/models"
)

const trialName = "trials"

// TrialDatabase contains the methods to use with the trial database
type TrialDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Trial, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Trial, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) (int64, error)
}

type trialDatabase struct {
	db DatabaseHelper
}

// NewTrialDatabase initializes a new instance of trial database with the provided db connection
func NewTrialDatabase(db DatabaseHelper) TrialDatabase {
	return &trialDatabase{
		db: db,
	}
}

func (c *trialDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Trial, error) {
	trial := &models.Trial{}
	err := c.db.Collection(trialName).FindOne(ctx, filter, opts...).Decode(&trial)
	if err != nil {
		return nil, err
	}
	return trial, nil
}

func (c *trialDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Trial, error) {
	var results []models.Trial
	curr, err := c.db.Collection(trialName).Find(ctx, filter, opts...)
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

func (c *trialDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(trialName).InsertOne(ctx, document, opts...)
	return res, err
}

func (c *trialDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	res, err := c.db.Collection(trialName).UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount(), nil
}
