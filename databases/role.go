package databases

// go generate: mockery --name RoleDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/policeops/criminal-case-api/models"
)

const roleName = "roles"

// RoleDatabase contains the methods to use with the role database
type RoleDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Role, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Role, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
}

type roleDatabase struct {
	db DatabaseHelper
}

// NewRoleDatabase initializes a new instance of role database with the provided db connection
func NewRoleDatabase(db DatabaseHelper) RoleDatabase {
	return &roleDatabase{
		db: db,
	}
}

func (c *roleDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Role, error) {
	role := &models.Role{}
	err := c.db.Collection(roleName).FindOne(ctx, filter, opts...).Decode(&role)
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (c *roleDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Role, error) {
	var results []models.Role
	curr, err := c.db.Collection(roleName).Find(ctx, filter, opts...)
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

func (c *roleDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(roleName).InsertOne(ctx, document, opts...)
	return res, err
}

func (c *roleDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(roleName).CountDocuments(ctx, filter, opts...)
}
