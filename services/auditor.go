package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/policeops/criminal-case-api/databases"
	"github.com/policeops/criminal-case-api/models"
)

func nowUTC() time.Time { return time.Now().UTC() }

// Auditor records immutable audit log entries for workflow mutations. A
// failed write is logged and swallowed so audit trouble never blocks the
// operation it describes.
type Auditor struct {
	ADB databases.AuditLogDatabase
}

// NewAuditor wires an auditor over the audit log database.
func NewAuditor(adb databases.AuditLogDatabase) *Auditor {
	return &Auditor{ADB: adb}
}

// Record stores one audit entry.
func (a *Auditor) Record(ctx context.Context, actorID, action, entityType, entityID, description string) {
	entry := models.AuditLog{
		ID: primitive.NewObjectID(),
		Details: models.AuditLogDetails{
			ActorID:     actorID,
			Action:      action,
			EntityType:  entityType,
			EntityID:    entityID,
			Description: description,
			Timestamp:   primitive.NewDateTimeFromTime(nowUTC()),
		},
	}
	if _, err := a.ADB.InsertOne(ctx, entry); err != nil {
		zap.S().Errorw("failed to record audit entry",
			"action", action, "entityType", entityType, "entityID", entityID, "error", err)
	}
}
