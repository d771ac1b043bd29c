package databases

// go generate: mockery --name ChiefApprovalDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/policeops/criminal-case-api/models"
)

const chiefApprovalName = "chiefApprovals"

// ChiefApprovalDatabase contains the methods to use with the chief approval database
type ChiefApprovalDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.ChiefApproval, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ChiefApproval, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
}

type chiefApprovalDatabase struct {
	db DatabaseHelper
}

// NewChiefApprovalDatabase initializes a new instance of chief approval database with the provided db connection
func NewChiefApprovalDatabase(db DatabaseHelper) ChiefApprovalDatabase {
	return &chiefApprovalDatabase{
		db: db,
	}
}

func (c *chiefApprovalDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.ChiefApproval, error) {
	chiefApproval := &models.ChiefApproval{}
	err := c.db.Collection(chiefApprovalName).FindOne(ctx, filter, opts...).Decode(&chiefApproval)
	if err != nil {
		return nil, err
	}
	return chiefApproval, nil
}

func (c *chiefApprovalDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ChiefApproval, error) {
	var results []models.ChiefApproval
	curr, err := c.db.Collection(chiefApprovalName).Find(ctx, filter, opts...)
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

func (c *chiefApprovalDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(chiefApprovalName).InsertOne(ctx, document, opts...)
	return res, err
}
