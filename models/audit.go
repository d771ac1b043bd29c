package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Audit actions
const (
	AuditActionCreate       = "create"
	AuditActionUpdate       = "update"
	AuditActionDelete       = "delete"
	AuditActionStatusChange = "status_change"
	AuditActionApprove      = "approve"
	AuditActionReject       = "reject"
	AuditActionAssign       = "assign"
)

// AuditLog holds the structure for the audit log collection in mongo.
// Entries are immutable.
type AuditLog struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details AuditLogDetails    `json:"auditLog" bson:"auditLog"`
}

// AuditLogDetails holds the inner audit log structure
type AuditLogDetails struct {
	ActorID     string             `json:"actorID" bson:"actorID"`
	Action      string             `json:"action" bson:"action"`
	EntityType  string             `json:"entityType" bson:"entityType"`
	EntityID    string             `json:"entityID" bson:"entityID"`
	Description string             `json:"description" bson:"description"`
	Timestamp   primitive.DateTime `json:"timestamp" bson:"timestamp"`
}
