package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User holds the structure for the user collection in mongo
type User struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details UserDetails        `json:"user" bson:"user"`
}

// UserDetails holds the inner user structure
type UserDetails struct {
	Username   string             `json:"username" bson:"username"`
	Email      string             `json:"email" bson:"email"`
	Password   string             `json:"-" bson:"password"` // bcrypt hash, never serialized
	FullName   string             `json:"fullName" bson:"fullName"`
	Phone      string             `json:"phone" bson:"phone"`
	NationalID string             `json:"nationalID" bson:"nationalID"`
	Roles      []string           `json:"roles" bson:"roles"`
	CreatedAt  primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt  primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
