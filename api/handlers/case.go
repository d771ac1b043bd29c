package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/policeops/criminal-case-api/api"
	"github.com/policeops/criminal-case-api/config"
	"github.com/policeops/criminal-case-api/databases"
	"github.com/policeops/criminal-case-api/models"
	"github.com/policeops/criminal-case-api/services"
)

// Case exported for testing purposes
type Case struct {
	DB       databases.CaseDatabase
	CCDB     databases.CaseComplainantDatabase
	UDB      databases.UserDatabase
	Notifier *services.Notifier
	Auditor  *services.Auditor
}

// CasesHandler lists cases. Supervisors see everything, everyone else sees
// only the cases they created or are assigned to
func (c Case) CasesHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, c.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
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
	if !api.HasAnyRole(actor.Details.Roles, api.SupervisorRoles) {
		filter["$or"] = []bson.M{
			{"case.createdByID": actor.ID.Hex()},
			{"case.assignedDetectiveID": actor.ID.Hex()},
		}
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["case.status"] = status
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().
		SetLimit(limit64).
		SetSkip(skip64).
		SetSort(bson.M{"_id": -1})

	dbResp, err := c.DB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get cases", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Case{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CaseByIDHandler returns a case by ID
func (c Case) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	zap.S().Debugf("case_id: %v", caseID)

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get case by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateCaseHandler opens a case directly, without going through complaint
// intake
func (c Case) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, c.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}
	if !api.HasAnyRole(actor.Details.Roles, api.OfficerOrAboveRoles) {
		config.ErrorStatus("caller may not open cases", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	var newCase models.Case
	if err := json.NewDecoder(r.Body).Decode(&newCase.Details); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if newCase.Details.Title == "" {
		config.ErrorStatus("title is required", http.StatusBadRequest, w, fmt.Errorf("missing title"))
		return
	}
	if !models.ValidSeverity(newCase.Details.Severity) {
		config.ErrorStatus("invalid severity", http.StatusBadRequest, w,
			fmt.Errorf("severity %d out of range", newCase.Details.Severity))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	newCase.ID = primitive.NewObjectID()
	newCase.Details.Status = models.CaseStatusOpen
	newCase.Details.IsCrimeSceneCase = false
	newCase.Details.CreatedByID = actor.ID.Hex()
	newCase.Details.AssignedDetectiveID = ""
	newCase.Details.ApprovedByCaptainID = ""
	newCase.Details.CreatedAt = now
	newCase.Details.UpdatedAt = now

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := c.DB.InsertOne(ctx, newCase); err != nil {
		config.ErrorStatus("failed to create case", http.StatusInternalServerError, w, err)
		return
	}

	c.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionCreate, "case", newCase.ID.Hex(),
		"case opened directly")

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(newCase)
}

// AssignDetectiveHandler assigns the investigating detective to a case and
// moves a fresh case into investigation
func (c Case) AssignDetectiveHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, err := actorFromRequest(r, c.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}
	if !api.HasAnyRole(actor.Details.Roles, api.SupervisorRoles) {
		config.ErrorStatus("caller may not assign detectives", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	var assignData struct {
		DetectiveID string `json:"detectiveID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&assignData); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	dID, err := primitive.ObjectIDFromHex(assignData.DetectiveID)
	if err != nil {
		config.ErrorStatus("invalid detective ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	detective, err := c.UDB.FindOne(ctx, bson.M{"_id": dID})
	if err != nil {
		config.ErrorStatus("failed to find detective", http.StatusNotFound, w, err)
		return
	}
	if !api.HasRole(detective.Details.Roles, models.RoleDetective) {
		config.ErrorStatus("assignee is not a detective", http.StatusBadRequest, w, fmt.Errorf("missing detective role"))
		return
	}

	existing, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find case", http.StatusNotFound, w, err)
		return
	}

	set := bson.M{
		"case.assignedDetectiveID": assignData.DetectiveID,
		"case.updatedAt":           primitive.NewDateTimeFromTime(time.Now()),
	}
	if existing.Details.Status == models.CaseStatusOpen {
		set["case.status"] = models.CaseStatusUnderInvestigation
	}

	matched, err := c.DB.UpdateOne(ctx, bson.M{"_id": cID}, bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update case", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("failed to find case", http.StatusNotFound, w, fmt.Errorf("no case matched"))
		return
	}

	c.Notifier.NotifyUser(ctx, assignData.DetectiveID,
		"Case assigned",
		fmt.Sprintf("You were assigned to investigate case %q", existing.Details.Title),
		"case_assigned", "case", cID.Hex())
	c.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionAssign, "case", cID.Hex(),
		fmt.Sprintf("detective %s assigned", assignData.DetectiveID))

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Detective assigned successfully",
	})
}

// AddCaseComplainantHandler links an additional complainant to a case
func (c Case) AddCaseComplainantHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, err := actorFromRequest(r, c.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}
	if !api.HasAnyRole(actor.Details.Roles, api.OfficerOrAboveRoles) {
		config.ErrorStatus("caller may not add complainants", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	var body struct {
		UserID string `json:"userID"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.UserID == "" {
		config.ErrorStatus("userID is required", http.StatusBadRequest, w, fmt.Errorf("missing userID"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := c.DB.FindOne(ctx, bson.M{"_id": cID}); err != nil {
		config.ErrorStatus("failed to find case", http.StatusNotFound, w, err)
		return
	}

	link := models.CaseComplainant{
		ID: primitive.NewObjectID(),
		Details: models.CaseComplainantDetails{
			CaseID:    cID.Hex(),
			UserID:    body.UserID,
			IsPrimary: false,
			Notes:     body.Notes,
			AddedAt:   primitive.NewDateTimeFromTime(time.Now()),
		},
	}
	if _, err := c.CCDB.InsertOne(ctx, link); err != nil {
		config.ErrorStatus("failed to add case complainant", http.StatusInternalServerError, w, err)
		return
	}

	c.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionCreate, "caseComplainant", link.ID.Hex(),
		fmt.Sprintf("complainant %s added to case %s", body.UserID, cID.Hex()))

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(link)
}

// CaseComplainantsHandler lists all complainants linked to a case
func (c Case) CaseComplainantsHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.CCDB.Find(ctx, bson.M{"caseComplainant.caseID": cID.Hex()})
	if err != nil {
		config.ErrorStatus("failed to get case complainants", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.CaseComplainant{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
