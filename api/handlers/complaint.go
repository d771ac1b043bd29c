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

// Complaint exported for testing purposes
type Complaint struct {
	DB       databases.ComplaintDatabase
	CaseDB   databases.CaseDatabase
	CCDB     databases.CaseComplainantDatabase
	UDB      databases.UserDatabase
	Notifier *services.Notifier
	Auditor  *services.Auditor
}

// SubmitComplaintHandler files a new complaint on behalf of the caller and
// queues it for trainee review
func (c Complaint) SubmitComplaintHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, c.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}

	var complaint models.Complaint
	if err := json.NewDecoder(r.Body).Decode(&complaint.Details); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if complaint.Details.Title == "" || complaint.Details.Description == "" {
		config.ErrorStatus("title and description are required", http.StatusBadRequest, w, fmt.Errorf("missing fields"))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	complaint.ID = primitive.NewObjectID()
	complaint.Details.ComplainantID = actor.ID.Hex()
	complaint.Details.Status = models.ComplaintStatusPendingTrainee
	complaint.Details.CorrectionCount = 0
	complaint.Details.LastCorrectionMessage = ""
	complaint.Details.ReviewedByTraineeID = ""
	complaint.Details.ReviewedByOfficerID = ""
	complaint.Details.CaseID = ""
	complaint.Details.CreatedAt = now
	complaint.Details.UpdatedAt = now

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := c.DB.InsertOne(ctx, complaint); err != nil {
		config.ErrorStatus("failed to create complaint", http.StatusInternalServerError, w, err)
		return
	}

	c.Notifier.NotifyRole(ctx, models.RoleIntern,
		"New complaint submitted",
		fmt.Sprintf("Complaint %q is waiting for initial review", complaint.Details.Title),
		"complaint_submitted", "complaint", complaint.ID.Hex())
	c.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionCreate, "complaint", complaint.ID.Hex(),
		"complaint submitted")

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(complaint)
}

// ComplaintByIDHandler returns a complaint by ID. Complainants may only read
// their own complaints
func (c Complaint) ComplaintByIDHandler(w http.ResponseWriter, r *http.Request) {
	complaintID := mux.Vars(r)["complaint_id"]

	cID, err := primitive.ObjectIDFromHex(complaintID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, err := actorFromRequest(r, c.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get complaint by ID", http.StatusNotFound, w, err)
		return
	}

	if dbResp.Details.ComplainantID != actor.ID.Hex() && !api.HasAnyRole(actor.Details.Roles, api.TraineeOrAboveRoles) {
		config.ErrorStatus("caller may not view this complaint", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
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

// ComplaintsHandler lists complaints. Police staff see everything,
// complainants see only their own submissions
func (c Complaint) ComplaintsHandler(w http.ResponseWriter, r *http.Request) {
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
	if !api.HasAnyRole(actor.Details.Roles, api.TraineeOrAboveRoles) {
		filter["complaint.complainantID"] = actor.ID.Hex()
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["complaint.status"] = status
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().
		SetLimit(limit64).
		SetSkip(skip64).
		SetSort(bson.M{"_id": -1})

	dbResp, err := c.DB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get complaints", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Complaint{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// TraineeReviewHandler lets a trainee approve a pending complaint or return
// it to the submitter for correction. The status filter on the update makes
// the review single-winner under concurrent requests
func (c Complaint) TraineeReviewHandler(w http.ResponseWriter, r *http.Request) {
	complaintID := mux.Vars(r)["complaint_id"]

	cID, err := primitive.ObjectIDFromHex(complaintID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, err := actorFromRequest(r, c.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}
	if !api.HasAnyRole(actor.Details.Roles, api.TraineeOrAboveRoles) {
		config.ErrorStatus("caller may not review complaints", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	var reviewData struct {
		Approved          bool   `json:"approved"`
		CorrectionMessage string `json:"correctionMessage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reviewData); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if !reviewData.Approved && reviewData.CorrectionMessage == "" {
		config.ErrorStatus("correction message is required", http.StatusBadRequest, w, fmt.Errorf("missing correctionMessage"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find complaint", http.StatusNotFound, w, err)
		return
	}

	var set bson.M
	if reviewData.Approved {
		set = bson.M{
			"complaint.status":              models.ComplaintStatusPendingOfficer,
			"complaint.reviewedByTraineeID": actor.ID.Hex(),
			"complaint.updatedAt":           primitive.NewDateTimeFromTime(time.Now()),
		}
	} else {
		set = bson.M{
			"complaint.status":                models.ComplaintStatusCorrectionNeeded,
			"complaint.lastCorrectionMessage": reviewData.CorrectionMessage,
			"complaint.reviewedByTraineeID":   actor.ID.Hex(),
			"complaint.updatedAt":             primitive.NewDateTimeFromTime(time.Now()),
		}
	}

	matched, err := c.DB.UpdateOne(ctx,
		bson.M{"_id": cID, "complaint.status": models.ComplaintStatusPendingTrainee},
		bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update complaint", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("complaint is not pending trainee review", http.StatusBadRequest, w,
			fmt.Errorf("invalid state %v", dbResp.Details.Status))
		return
	}

	if reviewData.Approved {
		c.Notifier.NotifyRole(ctx, models.RoleOfficer,
			"Complaint ready for final review",
			fmt.Sprintf("Complaint %q passed initial review", dbResp.Details.Title),
			"complaint_trainee_approved", "complaint", cID.Hex())
	} else {
		c.Notifier.NotifyUser(ctx, dbResp.Details.ComplainantID,
			"Complaint needs correction",
			reviewData.CorrectionMessage,
			"complaint_correction_needed", "complaint", cID.Hex())
	}
	c.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionStatusChange, "complaint", cID.Hex(),
		fmt.Sprintf("trainee review, approved=%v", reviewData.Approved))

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Complaint reviewed successfully",
	})
}

// CorrectComplaintHandler lets the submitter resubmit a complaint that was
// returned for correction. The third failed correction rejects the
// complaint for good
func (c Complaint) CorrectComplaintHandler(w http.ResponseWriter, r *http.Request) {
	complaintID := mux.Vars(r)["complaint_id"]

	cID, err := primitive.ObjectIDFromHex(complaintID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, err := actorFromRequest(r, c.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}

	var correction struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&correction); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find complaint", http.StatusNotFound, w, err)
		return
	}
	if dbResp.Details.ComplainantID != actor.ID.Hex() {
		config.ErrorStatus("only the submitter may correct a complaint", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	newCount := dbResp.Details.CorrectionCount + 1
	set := bson.M{
		"complaint.correctionCount": newCount,
		"complaint.updatedAt":       primitive.NewDateTimeFromTime(time.Now()),
	}
	if newCount >= models.MaxComplaintCorrections {
		set["complaint.status"] = models.ComplaintStatusRejected
	} else {
		set["complaint.status"] = models.ComplaintStatusPendingTrainee
		set["complaint.lastCorrectionMessage"] = ""
		if correction.Title != "" {
			set["complaint.title"] = correction.Title
		}
		if correction.Description != "" {
			set["complaint.description"] = correction.Description
		}
	}

	// the expected correction count in the filter keeps two concurrent
	// resubmissions from both counting
	matched, err := c.DB.UpdateOne(ctx,
		bson.M{
			"_id":                       cID,
			"complaint.status":          models.ComplaintStatusCorrectionNeeded,
			"complaint.correctionCount": dbResp.Details.CorrectionCount,
		},
		bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update complaint", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("complaint is not awaiting correction", http.StatusBadRequest, w,
			fmt.Errorf("invalid state %v", dbResp.Details.Status))
		return
	}

	status := models.ComplaintStatusPendingTrainee
	if newCount >= models.MaxComplaintCorrections {
		status = models.ComplaintStatusRejected
		c.Notifier.NotifyUser(ctx, dbResp.Details.ComplainantID,
			"Complaint rejected",
			"The complaint reached the correction limit and was rejected",
			"complaint_rejected", "complaint", cID.Hex())
	} else {
		c.Notifier.NotifyRole(ctx, models.RoleIntern,
			"Corrected complaint resubmitted",
			fmt.Sprintf("Complaint %q was corrected and is waiting for review", dbResp.Details.Title),
			"complaint_corrected", "complaint", cID.Hex())
	}
	c.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionUpdate, "complaint", cID.Hex(),
		fmt.Sprintf("correction %d of %d", newCount, models.MaxComplaintCorrections))

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":         "Complaint corrected",
		"correctionCount": newCount,
		"status":          status,
	})
}

// OfficerReviewHandler lets an officer approve a complaint, creating the
// case and its primary complainant link, or send it back to trainee review
func (c Complaint) OfficerReviewHandler(w http.ResponseWriter, r *http.Request) {
	complaintID := mux.Vars(r)["complaint_id"]

	cID, err := primitive.ObjectIDFromHex(complaintID)
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
		config.ErrorStatus("caller may not perform final complaint review", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	var reviewData struct {
		Approved bool `json:"approved"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reviewData); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find complaint", http.StatusNotFound, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())

	if !reviewData.Approved {
		matched, err := c.DB.UpdateOne(ctx,
			bson.M{"_id": cID, "complaint.status": models.ComplaintStatusPendingOfficer},
			bson.M{"$set": bson.M{
				"complaint.status":              models.ComplaintStatusPendingTrainee,
				"complaint.reviewedByOfficerID": "",
				"complaint.updatedAt":           now,
			}})
		if err != nil {
			config.ErrorStatus("failed to update complaint", http.StatusInternalServerError, w, err)
			return
		}
		if matched == 0 {
			config.ErrorStatus("complaint is not pending officer review", http.StatusBadRequest, w,
				fmt.Errorf("invalid state %v", dbResp.Details.Status))
			return
		}
		c.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionStatusChange, "complaint", cID.Hex(),
			"officer sent complaint back to trainee review")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "Complaint sent back to trainee review",
		})
		return
	}

	// the status transition is the commit point: whichever request flips it
	// creates the case, the loser gets InvalidState
	matched, err := c.DB.UpdateOne(ctx,
		bson.M{"_id": cID, "complaint.status": models.ComplaintStatusPendingOfficer},
		bson.M{"$set": bson.M{
			"complaint.status":              models.ComplaintStatusApproved,
			"complaint.reviewedByOfficerID": actor.ID.Hex(),
			"complaint.updatedAt":           now,
		}})
	if err != nil {
		config.ErrorStatus("failed to update complaint", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("complaint is not pending officer review", http.StatusBadRequest, w,
			fmt.Errorf("invalid state %v", dbResp.Details.Status))
		return
	}

	newCase := models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			Title:       dbResp.Details.Title,
			Description: dbResp.Details.Description,
			Severity:    models.SeverityMinor,
			Status:      models.CaseStatusOpen,
			CreatedByID: actor.ID.Hex(),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
	if _, err := c.CaseDB.InsertOne(ctx, newCase); err != nil {
		config.ErrorStatus("failed to create case from complaint", http.StatusInternalServerError, w, err)
		return
	}

	primary := models.CaseComplainant{
		ID: primitive.NewObjectID(),
		Details: models.CaseComplainantDetails{
			CaseID:    newCase.ID.Hex(),
			UserID:    dbResp.Details.ComplainantID,
			IsPrimary: true,
			AddedAt:   now,
		},
	}
	if _, err := c.CCDB.InsertOne(ctx, primary); err != nil {
		zap.S().Errorw("failed to create primary case complainant",
			"caseID", newCase.ID.Hex(), "error", err)
	}

	if _, err := c.DB.UpdateOne(ctx, bson.M{"_id": cID},
		bson.M{"$set": bson.M{"complaint.caseID": newCase.ID.Hex()}}); err != nil {
		zap.S().Errorw("failed to link case to complaint",
			"complaintID", cID.Hex(), "caseID", newCase.ID.Hex(), "error", err)
	}

	c.Notifier.NotifyUser(ctx, dbResp.Details.ComplainantID,
		"Complaint approved",
		fmt.Sprintf("A case was opened for complaint %q", dbResp.Details.Title),
		"complaint_approved", "case", newCase.ID.Hex())
	c.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionApprove, "complaint", cID.Hex(),
		fmt.Sprintf("complaint approved, case %s opened", newCase.ID.Hex()))

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Complaint approved",
		"caseID":  newCase.ID.Hex(),
		"case":    newCase,
	})
}
