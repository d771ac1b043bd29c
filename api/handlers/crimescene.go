package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/policeops/criminal-case-api/api"
	"github.com/policeops/criminal-case-api/config"
	"github.com/policeops/criminal-case-api/databases"
	"github.com/policeops/criminal-case-api/models"
	"github.com/policeops/criminal-case-api/services"
)

// CrimeScene exported for testing purposes
type CrimeScene struct {
	DB       databases.CrimeSceneReportDatabase
	CaseDB   databases.CaseDatabase
	UDB      databases.UserDatabase
	Notifier *services.Notifier
	Auditor  *services.Auditor
}

type crimeSceneCreateRequest struct {
	CaseTitle       string `json:"caseTitle"`
	CaseDescription string `json:"caseDescription"`
	Severity        int    `json:"severity"`

	SceneDateTime        time.Time `json:"sceneDateTime"`
	LocationDescription  string    `json:"locationDescription"`
	WitnessesContactInfo string    `json:"witnessesContactInfo"`
}

// CreateCrimeSceneReportHandler files a scene report and opens its case. A
// report filed by the chief is auto-approved; anyone else's report parks the
// case in pending approval until a supervisor signs off
func (cs CrimeScene) CreateCrimeSceneReportHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, cs.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}
	if !api.HasAnyRole(actor.Details.Roles, api.OfficerOrAboveRoles) {
		config.ErrorStatus("caller may not file crime scene reports", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	var req crimeSceneCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.CaseTitle == "" || req.LocationDescription == "" {
		config.ErrorStatus("caseTitle and locationDescription are required", http.StatusBadRequest, w, fmt.Errorf("missing fields"))
		return
	}
	if !models.ValidSeverity(req.Severity) {
		config.ErrorStatus("invalid severity", http.StatusBadRequest, w,
			fmt.Errorf("severity %d out of range", req.Severity))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	autoApproved := api.HasRole(actor.Details.Roles, models.RolePoliceChief)

	caseStatus := models.CaseStatusPendingApproval
	if autoApproved {
		caseStatus = models.CaseStatusOpen
	}

	newCase := models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			Title:            req.CaseTitle,
			Description:      req.CaseDescription,
			Severity:         req.Severity,
			Status:           caseStatus,
			IsCrimeSceneCase: true,
			CreatedByID:      actor.ID.Hex(),
			CreatedAt:        now,
			UpdatedAt:        now,
		},
	}

	report := models.CrimeSceneReport{
		ID: primitive.NewObjectID(),
		Details: models.CrimeSceneReportDetails{
			CaseID:               newCase.ID.Hex(),
			ReportedByID:         actor.ID.Hex(),
			SceneDateTime:        primitive.NewDateTimeFromTime(req.SceneDateTime),
			LocationDescription:  req.LocationDescription,
			WitnessesContactInfo: req.WitnessesContactInfo,
			CreatedAt:            now,
			UpdatedAt:            now,
		},
	}
	if autoApproved {
		report.Details.ApprovedBySupervisorID = actor.ID.Hex()
		report.Details.ApprovedAt = now
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := cs.CaseDB.InsertOne(ctx, newCase); err != nil {
		config.ErrorStatus("failed to create crime scene case", http.StatusInternalServerError, w, err)
		return
	}
	if _, err := cs.DB.InsertOne(ctx, report); err != nil {
		config.ErrorStatus("failed to create crime scene report", http.StatusInternalServerError, w, err)
		return
	}

	if !autoApproved {
		cs.Notifier.NotifyRole(ctx, models.RoleSergeant,
			"Crime scene report awaiting approval",
			fmt.Sprintf("Scene report for case %q needs supervisor sign-off", req.CaseTitle),
			"crime_scene_pending", "crimeSceneReport", report.ID.Hex())
	}
	cs.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionCreate, "crimeSceneReport", report.ID.Hex(),
		fmt.Sprintf("crime scene report filed, case %s, autoApproved=%v", newCase.ID.Hex(), autoApproved))

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"report": report,
		"case":   newCase,
	})
}

// ApproveCrimeSceneReportHandler records the supervisor sign-off on a scene
// report and opens its case. The unset-approver filter makes the sign-off a
// one-shot
func (cs CrimeScene) ApproveCrimeSceneReportHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, err := actorFromRequest(r, cs.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}
	if !api.HasAnyRole(actor.Details.Roles, api.SupervisorRoles) {
		config.ErrorStatus("caller may not approve crime scene reports", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	report, err := cs.DB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to find crime scene report", http.StatusNotFound, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	matched, err := cs.DB.UpdateOne(ctx,
		bson.M{"_id": rID, "crimeSceneReport.approvedBySupervisorID": ""},
		bson.M{"$set": bson.M{
			"crimeSceneReport.approvedBySupervisorID": actor.ID.Hex(),
			"crimeSceneReport.approvedAt":             now,
			"crimeSceneReport.updatedAt":              now,
		}})
	if err != nil {
		config.ErrorStatus("failed to update crime scene report", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("crime scene report already approved", http.StatusConflict, w,
			fmt.Errorf("approved by %v", report.Details.ApprovedBySupervisorID))
		return
	}

	cID, err := primitive.ObjectIDFromHex(report.Details.CaseID)
	if err == nil {
		if _, err := cs.CaseDB.UpdateOne(ctx,
			bson.M{"_id": cID, "case.status": models.CaseStatusPendingApproval},
			bson.M{"$set": bson.M{
				"case.status":    models.CaseStatusOpen,
				"case.updatedAt": now,
			}}); err != nil {
			config.ErrorStatus("failed to open crime scene case", http.StatusInternalServerError, w, err)
			return
		}
	}

	cs.Notifier.NotifyUser(ctx, report.Details.ReportedByID,
		"Crime scene report approved",
		"Your crime scene report was approved and the case is open",
		"crime_scene_approved", "crimeSceneReport", rID.Hex())
	cs.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionApprove, "crimeSceneReport", rID.Hex(),
		"crime scene report approved")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Crime scene report approved",
	})
}

// CrimeSceneReportByIDHandler returns a crime scene report by ID
func (cs CrimeScene) CrimeSceneReportByIDHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	rID, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := cs.DB.FindOne(ctx, bson.M{"_id": rID})
	if err != nil {
		config.ErrorStatus("failed to get crime scene report by ID", http.StatusNotFound, w, err)
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

// CrimeSceneReportByCaseHandler returns the scene report attached to a case
func (cs CrimeScene) CrimeSceneReportByCaseHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := cs.DB.FindOne(ctx, bson.M{"crimeSceneReport.caseID": cID.Hex()})
	if err != nil {
		config.ErrorStatus("failed to get crime scene report by case", http.StatusNotFound, w, err)
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
