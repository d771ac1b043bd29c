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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/policeops/criminal-case-api/api"
	"github.com/policeops/criminal-case-api/config"
	"github.com/policeops/criminal-case-api/databases"
	"github.com/policeops/criminal-case-api/models"
	"github.com/policeops/criminal-case-api/services"
)

// Trial exported for testing purposes
type Trial struct {
	DB       databases.TrialDatabase
	CaseDB   databases.CaseDatabase
	UDB      databases.UserDatabase
	Notifier *services.Notifier
	Auditor  *services.Auditor
}

var trialViewRoles = []string{
	models.RoleJudge,
	models.RoleSystemAdmin,
}

// ReferCaseHandler refers a case to the judiciary, creating its trial. A
// case already referred reuses the existing trial
func (t Trial) ReferCaseHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, err := actorFromRequest(r, t.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}
	if !api.HasAnyRole(actor.Details.Roles, api.ReferralRoles) {
		config.ErrorStatus("caller may not refer cases to the judiciary", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	var body struct {
		SuspectID string `json:"suspectID"`
		JudgeID   string `json:"judgeID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	caseResp, err := t.CaseDB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find case", http.StatusNotFound, w, err)
		return
	}

	created := false
	trial, err := t.DB.FindOne(ctx, bson.M{"trial.caseID": cID.Hex()})
	if err == mongo.ErrNoDocuments {
		trial = &models.Trial{
			ID: primitive.NewObjectID(),
			Details: models.TrialDetails{
				CaseID:    cID.Hex(),
				SuspectID: body.SuspectID,
				JudgeID:   body.JudgeID,
				StartedAt: primitive.NewDateTimeFromTime(time.Now()),
			},
		}
		if _, err := t.DB.InsertOne(ctx, *trial); err != nil {
			config.ErrorStatus("failed to create trial", http.StatusInternalServerError, w, err)
			return
		}
		created = true
	} else if err != nil {
		config.ErrorStatus("failed to look up trial", http.StatusInternalServerError, w, err)
		return
	} else if trial.Details.SuspectID == "" && body.SuspectID != "" {
		if _, err := t.DB.UpdateOne(ctx, bson.M{"_id": trial.ID},
			bson.M{"$set": bson.M{"trial.suspectID": body.SuspectID}}); err != nil {
			zap.S().Warnw("failed to attach suspect to existing trial",
				"trialID", trial.ID.Hex(), "error", err)
		} else {
			trial.Details.SuspectID = body.SuspectID
		}
	}

	if _, err := t.CaseDB.UpdateOne(ctx, bson.M{"_id": cID},
		bson.M{"$set": bson.M{
			"case.status":    models.CaseStatusReferredToJudiciary,
			"case.updatedAt": primitive.NewDateTimeFromTime(time.Now()),
		}}); err != nil {
		config.ErrorStatus("failed to refer case", http.StatusInternalServerError, w, err)
		return
	}

	if created {
		t.Notifier.NotifyRole(ctx, models.RoleJudge,
			"Case referred to judiciary",
			fmt.Sprintf("Case %q was referred for trial", caseResp.Details.Title),
			"case_referred", "trial", trial.ID.Hex())
	}
	t.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionStatusChange, "case", cID.Hex(),
		fmt.Sprintf("case referred to judiciary, trial %s, created=%v", trial.ID.Hex(), created))

	statusCode := http.StatusOK
	if created {
		statusCode = http.StatusCreated
	}
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(trial)
}

// TrialsHandler lists trials for the judiciary
func (t Trial) TrialsHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, t.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}
	if !api.HasAnyRole(actor.Details.Roles, trialViewRoles) {
		config.ErrorStatus("caller may not list trials", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
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
	if r.URL.Query().Get("open") == "true" {
		filter["trial.closedAt"] = bson.M{"$exists": false}
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().
		SetLimit(limit64).
		SetSkip(skip64).
		SetSort(bson.M{"_id": -1})

	dbResp, err := t.DB.Find(ctx, filter, opts)
	if err != nil {
		config.ErrorStatus("failed to get trials", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Trial{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// TrialByIDHandler returns a trial by ID
func (t Trial) TrialByIDHandler(w http.ResponseWriter, r *http.Request) {
	trialID := mux.Vars(r)["trial_id"]

	tID, err := primitive.ObjectIDFromHex(trialID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := t.DB.FindOne(ctx, bson.M{"_id": tID})
	if err != nil {
		config.ErrorStatus("failed to get trial by ID", http.StatusNotFound, w, err)
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
