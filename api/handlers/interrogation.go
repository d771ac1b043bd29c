package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/policeops/criminal-case-api/api"
	"github.com/policeops/criminal-case-api/config"
	"github.com/policeops/criminal-case-api/databases"
	"github.com/policeops/criminal-case-api/models"
	"github.com/policeops/criminal-case-api/services"
)

// Interrogation exported for testing purposes
type Interrogation struct {
	DB       databases.InterrogationDatabase
	SDB      databases.SuspectDatabase
	CaseDB   databases.CaseDatabase
	UDB      databases.UserDatabase
	Notifier *services.Notifier
	Auditor  *services.Auditor
}

// InterrogationBySuspectHandler returns the suspect's interrogation record,
// creating an empty one on first access
func (h Interrogation) InterrogationBySuspectHandler(w http.ResponseWriter, r *http.Request) {
	suspectID := mux.Vars(r)["suspect_id"]

	sID, err := primitive.ObjectIDFromHex(suspectID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, err := actorFromRequest(r, h.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}
	if !api.HasAnyRole(actor.Details.Roles, api.TraineeOrAboveRoles) {
		config.ErrorStatus("caller may not view interrogations", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := h.DB.FindOne(ctx, bson.M{"interrogation.suspectID": sID.Hex()})
	if err == mongo.ErrNoDocuments {
		suspect, sErr := h.SDB.FindOne(ctx, bson.M{"_id": sID})
		if sErr != nil {
			config.ErrorStatus("failed to find suspect", http.StatusNotFound, w, sErr)
			return
		}
		now := primitive.NewDateTimeFromTime(time.Now())
		record := models.Interrogation{
			ID: primitive.NewObjectID(),
			Details: models.InterrogationDetails{
				SuspectID: sID.Hex(),
				CaseID:    suspect.Details.CaseID,
				Notes:     []models.InterrogationNote{},
				CreatedAt: now,
				UpdatedAt: now,
			},
		}
		if _, err := h.DB.InsertOne(ctx, record); err != nil {
			config.ErrorStatus("failed to create interrogation", http.StatusInternalServerError, w, err)
			return
		}
		dbResp = &record
	} else if err != nil {
		config.ErrorStatus("failed to get interrogation", http.StatusInternalServerError, w, err)
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

// DetectiveScoreHandler records the assigned detective's guilt score. The
// unset-score filter makes the submission one-shot
func (h Interrogation) DetectiveScoreHandler(w http.ResponseWriter, r *http.Request) {
	interrogationID := mux.Vars(r)["interrogation_id"]

	iID, err := primitive.ObjectIDFromHex(interrogationID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, err := actorFromRequest(r, h.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}

	var body struct {
		Score int    `json:"score"`
		Note  string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if !models.ValidScore(body.Score) {
		config.ErrorStatus("score must be between 1 and 10", http.StatusBadRequest, w,
			fmt.Errorf("got %d", body.Score))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	record, err := h.DB.FindOne(ctx, bson.M{"_id": iID})
	if err != nil {
		config.ErrorStatus("failed to find interrogation", http.StatusNotFound, w, err)
		return
	}

	cID, err := primitive.ObjectIDFromHex(record.Details.CaseID)
	if err != nil {
		config.ErrorStatus("interrogation has invalid case reference", http.StatusInternalServerError, w, err)
		return
	}
	caseResp, err := h.CaseDB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find case", http.StatusNotFound, w, err)
		return
	}
	if caseResp.Details.AssignedDetectiveID != actor.ID.Hex() {
		config.ErrorStatus("only the assigned detective may score this interrogation", http.StatusForbidden, w,
			fmt.Errorf("unauthorized"))
		return
	}

	update := bson.M{"$set": bson.M{
		"interrogation.detectiveScore":      body.Score,
		"interrogation.detectiveScoredByID": actor.ID.Hex(),
		"interrogation.updatedAt":           primitive.NewDateTimeFromTime(time.Now()),
	}}
	if body.Note != "" {
		update["$push"] = bson.M{"interrogation.notes": models.InterrogationNote{
			AuthorID: actor.ID.Hex(),
			Text:     body.Note,
			AddedAt:  primitive.NewDateTimeFromTime(time.Now()),
		}}
	}

	matched, err := h.DB.UpdateOne(ctx,
		bson.M{"_id": iID, "interrogation.detectiveScore": nil},
		update)
	if err != nil {
		config.ErrorStatus("failed to update interrogation", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("detective score already submitted", http.StatusConflict, w,
			fmt.Errorf("one-shot field"))
		return
	}

	h.notifyCaptainsIfScored(ctx, iID)
	h.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionUpdate, "interrogation", iID.Hex(),
		fmt.Sprintf("detective score %d recorded", body.Score))

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Detective score recorded",
	})
}

// SupervisorScoreHandler records the supervisor's guilt score, one-shot
func (h Interrogation) SupervisorScoreHandler(w http.ResponseWriter, r *http.Request) {
	interrogationID := mux.Vars(r)["interrogation_id"]

	iID, err := primitive.ObjectIDFromHex(interrogationID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, err := actorFromRequest(r, h.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}
	if !api.HasAnyRole(actor.Details.Roles, api.SupervisorRoles) {
		config.ErrorStatus("caller may not submit supervisor scores", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	var body struct {
		Score int    `json:"score"`
		Note  string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if !models.ValidScore(body.Score) {
		config.ErrorStatus("score must be between 1 and 10", http.StatusBadRequest, w,
			fmt.Errorf("got %d", body.Score))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := h.DB.FindOne(ctx, bson.M{"_id": iID}); err != nil {
		config.ErrorStatus("failed to find interrogation", http.StatusNotFound, w, err)
		return
	}

	update := bson.M{"$set": bson.M{
		"interrogation.supervisorScore":      body.Score,
		"interrogation.supervisorScoredByID": actor.ID.Hex(),
		"interrogation.updatedAt":            primitive.NewDateTimeFromTime(time.Now()),
	}}
	if body.Note != "" {
		update["$push"] = bson.M{"interrogation.notes": models.InterrogationNote{
			AuthorID: actor.ID.Hex(),
			Text:     body.Note,
			AddedAt:  primitive.NewDateTimeFromTime(time.Now()),
		}}
	}

	matched, err := h.DB.UpdateOne(ctx,
		bson.M{"_id": iID, "interrogation.supervisorScore": nil},
		update)
	if err != nil {
		config.ErrorStatus("failed to update interrogation", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("supervisor score already submitted", http.StatusConflict, w,
			fmt.Errorf("one-shot field"))
		return
	}

	h.notifyCaptainsIfScored(ctx, iID)
	h.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionUpdate, "interrogation", iID.Hex(),
		fmt.Sprintf("supervisor score %d recorded", body.Score))

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Supervisor score recorded",
	})
}

// notifyCaptainsIfScored tells the captains an interrogation is ready for a
// decision once both scores are in
func (h Interrogation) notifyCaptainsIfScored(ctx context.Context, iID primitive.ObjectID) {
	record, err := h.DB.FindOne(ctx, bson.M{"_id": iID})
	if err != nil {
		return
	}
	if record.Details.DetectiveScore == nil || record.Details.SupervisorScore == nil {
		return
	}
	h.Notifier.NotifyRole(ctx, models.RoleCaptain,
		"Interrogation fully scored",
		"Both guilt scores are in, the suspect is ready for a captain decision",
		"interrogation_scored", "interrogation", iID.Hex())
}

// AddNoteHandler appends a note to the interrogation record
func (h Interrogation) AddNoteHandler(w http.ResponseWriter, r *http.Request) {
	interrogationID := mux.Vars(r)["interrogation_id"]

	iID, err := primitive.ObjectIDFromHex(interrogationID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, err := actorFromRequest(r, h.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}
	if !api.HasAnyRole(actor.Details.Roles, api.TraineeOrAboveRoles) {
		config.ErrorStatus("caller may not add interrogation notes", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.Text == "" {
		config.ErrorStatus("text is required", http.StatusBadRequest, w, fmt.Errorf("missing text"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	matched, err := h.DB.UpdateOne(ctx, bson.M{"_id": iID}, bson.M{
		"$push": bson.M{"interrogation.notes": models.InterrogationNote{
			AuthorID: actor.ID.Hex(),
			Text:     body.Text,
			AddedAt:  primitive.NewDateTimeFromTime(time.Now()),
		}},
		"$set": bson.M{"interrogation.updatedAt": primitive.NewDateTimeFromTime(time.Now())},
	})
	if err != nil {
		config.ErrorStatus("failed to add note", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("failed to find interrogation", http.StatusNotFound, w, fmt.Errorf("no interrogation matched"))
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Note added",
	})
}
