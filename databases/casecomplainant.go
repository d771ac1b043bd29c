package databases

// go generate: mockery --name CaseComplainantDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/policeops/criminal-case-api/models"
)

const caseComplainantName = "caseComplainants"

// CaseComplainantDatabase contains the methods to use with the case complainant database
type CaseComplainantDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.CaseComplainant, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.CaseComplainant, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
}

type caseComplainantDatabase struct {
	db DatabaseHelper
}

// NewCaseComplainantDatabase initializes a new instance of case complainant database with the provided db connection
func NewCaseComplainantDatabase(db DatabaseHelper) CaseComplainantDatabase {
	return &caseComplainantDatabase{
		db: db,
	}
}

func (c *caseComplainantDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.CaseComplainant, error) {
	caseComplainant := &models.CaseComplainant{}
	err := c.db.Collection(caseComplainantName).FindOne(ctx, filter, opts...).Decode(&caseComplainant)
	if err != nil {
		return nil, err
	}
	return caseComplainant, nil
}

func (c *caseComplainantDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.CaseComplainant, error) {
	var results []models.CaseComplainant
	curr, err := c.db.Collection(caseComplainantName).Find(ctx, filter, opts...)
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

func (c *caseComplainantDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(caseComplainantName).InsertOne(ctx, document, opts...)
	return res, err
}
