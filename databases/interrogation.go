package databases

// go generate: mockery --name InterrogationDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/policeops/criminal-case-api/models"
)

const interrogationName = "interrogations"

// InterrogationDatabase contains the methods to use with the interrogation database
type InterrogationDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Interrogation, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Interrogation, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) (int64, error)
}

type interrogationDatabase struct {
	db DatabaseHelper
}

// NewInterrogationDatabase initializes a new instance of interrogation database with the provided db connection
func NewInterrogationDatabase(db DatabaseHelper) InterrogationDatabase {
	return &interrogationDatabase{
		db: db,
	}
}

func (c *interrogationDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Interrogation, error) {
	interrogation := &models.Interrogation{}
	err := c.db.Collection(interrogationName).FindOne(ctx, filter, opts...).Decode(&interrogation)
	if err != nil {
		return nil, err
	}
	return interrogation, nil
}

func (c *interrogationDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Interrogation, error) {
	var results []models.Interrogation
	curr, err := c.db.Collection(interrogationName).Find(ctx, filter, opts...)
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

func (c *interrogationDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(interrogationName).InsertOne(ctx, document, opts...)
	return res, err
}

func (c *interrogationDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	res, err := c.db.Collection(interrogationName).UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount(), nil
}
