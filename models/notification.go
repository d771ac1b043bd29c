package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Notification holds the structure for the notification collection in mongo
type Notification struct {
	ID      primitive.ObjectID  `json:"_id" bson:"_id"`
	Details NotificationDetails `json:"notification" bson:"notification"`
}

// NotificationDetails holds the inner notification structure
type NotificationDetails struct {
	RecipientID string `json:"recipientID" bson:"recipientID"`
	Title       string `json:"title" bson:"title"`
	Message     string `json:"message" bson:"message"`
	Kind        string `json:"kind" bson:"kind"`
	RelatedType string `json:"relatedType" bson:"relatedType"`
	RelatedID   string `json:"relatedID" bson:"relatedID"`

	Read      bool               `json:"read" bson:"read"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
