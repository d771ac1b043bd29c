package databases

// go generate: mockery --name CrimeSceneReportDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/policeops/criminal-case-api/models"
)

const crimeSceneReportName = "crimeSceneReports"

// CrimeSceneReportDatabase contains the methods to use with the crime scene report database
type CrimeSceneReportDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.CrimeSceneReport, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.CrimeSceneReport, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) (int64, error)
}

type crimeSceneReportDatabase struct {
	db DatabaseHelper
}

// NewCrimeSceneReportDatabase initializes a new instance of crime scene report database with the provided db connection
func NewCrimeSceneReportDatabase(db DatabaseHelper) CrimeSceneReportDatabase {
	return &crimeSceneReportDatabase{
		db: db,
	}
}

func (c *crimeSceneReportDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.CrimeSceneReport, error) {
	crimeSceneReport := &models.CrimeSceneReport{}
	err := c.db.Collection(crimeSceneReportName).FindOne(ctx, filter, opts...).Decode(&crimeSceneReport)
	if err != nil {
		return nil, err
	}
	return crimeSceneReport, nil
}

func (c *crimeSceneReportDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.CrimeSceneReport, error) {
	var results []models.CrimeSceneReport
	curr, err := c.db.Collection(crimeSceneReportName).Find(ctx, filter, opts...)
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

func (c *crimeSceneReportDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(crimeSceneReportName).InsertOne(ctx, document, opts...)
	return res, err
}

func (c *crimeSceneReportDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	res, err := c.db.Collection(crimeSceneReportName).UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount(), nil
}
