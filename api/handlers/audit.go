package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/policeops/criminal-case-api/api"
	"github.com/policeops/criminal-case-api/config"
	"github.com/policeops/criminal-case-api/databases"
	"github.com/policeops/criminal-case-api/models"
)

// Audit exported for testing purposes
type Audit struct {
	DB  databases.AuditLogDatabase
	UDB databases.UserDatabase
}

// AuditLogsHandler lists audit log entries, newest first. Administrator only
func (a Audit) AuditLogsHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, a.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}
	if !api.HasRole(actor.Details.Roles, models.RoleSystemAdmin) {
		config.ErrorStatus("caller may not view audit logs", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)

	filter := bson.M{}
	if entityType := r.URL.Query().Get("entityType"); entityType != "" {
		filter["auditLog.entityType"] = entityType
	}
	if entityID := r.URL.Query().Get("entityID"); entityID != "" {
		filter["auditLog.entityID"] = entityID
	}
	if actorID := r.URL.Query().Get("actorID"); actorID != "" {
		filter["auditLog.actorID"] = actorID
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().
		SetLimit(limit64).
		SetSkip(skip64).
		SetSort(bson.M{"_id": -1})

	dbResp, err := a.DB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get audit logs", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.AuditLog{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
