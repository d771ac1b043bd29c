package databases

// go generate: mockery --name SuspectDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/policeops/criminal-case-api/models"
)

const suspectName = "suspects"

// SuspectDatabase contains the methods to use with the suspect database
type SuspectDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Suspect, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Suspect, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) (int64, error)
	UpdateMany(context.Context, interface{}, interface{}, ...*options.UpdateOptions) (int64, error)
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
}

type suspectDatabase struct {
	db DatabaseHelper
}

// NewSuspectDatabase initializes a new instance of suspect database with the provided db connection
func NewSuspectDatabase(db DatabaseHelper) SuspectDatabase {
	return &suspectDatabase{
		db: db,
	}
}

func (c *suspectDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Suspect, error) {
	suspect := &models.Suspect{}
	err := c.db.Collection(suspectName).FindOne(ctx, filter, opts...).Decode(&suspect)
	if err != nil {
		return nil, err
	}
	return suspect, nil
}

func (c *suspectDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Suspect, error) {
	var results []models.Suspect
	curr, err := c.db.Collection(suspectName).Find(ctx, filter, opts...)
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

func (c *suspectDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(suspectName).InsertOne(ctx, document, opts...)
	return res, err
}

func (c *suspectDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	res, err := c.db.Collection(suspectName).UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount(), nil
}

func (c *suspectDatabase) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	res, err := c.db.Collection(suspectName).UpdateMany(ctx, filter, update, opts...)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount(), nil
}

func (c *suspectDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(suspectName).CountDocuments(ctx, filter, opts...)
}
