package databases

// go generate: mockery --name VerdictDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/policeops/criminal-case-api/models"
)

const verdictName = "verdicts"

// VerdictDatabase contains the methods to use with the verdict database
type VerdictDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Verdict, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Verdict, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
}

type verdictDatabase struct {
	db DatabaseHelper
}

// NewVerdictDatabase initializes a new instance of verdict database with the provided db connection
func NewVerdictDatabase(db DatabaseHelper) VerdictDatabase {
	return &verdictDatabase{
		db: db,
	}
}

func (c *verdictDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Verdict, error) {
	verdict := &models.Verdict{}
	err := c.db.Collection(verdictName).FindOne(ctx, filter, opts...).Decode(&verdict)
	if err != nil {
		return nil, err
	}
	return verdict, nil
}

func (c *verdictDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Verdict, error) {
	var results []models.Verdict
	curr, err := c.db.Collection(verdictName).Find(ctx, filter, opts...)
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

func (c *verdictDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(verdictName).InsertOne(ctx, document, opts...)
	return res, err
}
