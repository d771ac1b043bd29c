package handlers

import (
	"context"
	"encoding/json"
	"errors"
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

// errTrialClosed reports a verdict attempt on a trial that already has one.
var errTrialClosed = errors.New("trial already closed")

// Verdict exported for testing purposes
type Verdict struct {
	DB       databases.VerdictDatabase
	TDB      databases.TrialDatabase
	CaseDB   databases.CaseDatabase
	SDB      databases.SuspectDatabase
	UDB      databases.UserDatabase
	Tx       databases.Transactor
	Notifier *services.Notifier
	Auditor  *services.Auditor
}

var verdictRoles = []string{
	models.RoleJudge,
	models.RoleSystemAdmin,
}

// RecordVerdictHandler records the verdict on a trial and runs the closing
// cascade: trial closed, case closed, suspect convicted or released. The
// cascade runs as one unit of work with the trial close as its first write,
// so a second verdict always fails instead of double-applying
func (v Verdict) RecordVerdictHandler(w http.ResponseWriter, r *http.Request) {
	trialID := mux.Vars(r)["trial_id"]

	tID, err := primitive.ObjectIDFromHex(trialID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, err := actorFromRequest(r, v.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}
	if !api.HasAnyRole(actor.Details.Roles, verdictRoles) {
		config.ErrorStatus("caller may not record verdicts", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	var verdict models.Verdict
	if err := json.NewDecoder(r.Body).Decode(&verdict.Details); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if verdict.Details.VerdictType != models.VerdictGuilty && verdict.Details.VerdictType != models.VerdictInnocent {
		config.ErrorStatus("verdictType must be guilty or innocent", http.StatusBadRequest, w,
			fmt.Errorf("got %q", verdict.Details.VerdictType))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	trial, err := v.TDB.FindOne(ctx, bson.M{"_id": tID})
	if err != nil {
		config.ErrorStatus("failed to find trial", http.StatusNotFound, w, err)
		return
	}

	cID, err := primitive.ObjectIDFromHex(trial.Details.CaseID)
	if err != nil {
		config.ErrorStatus("trial has invalid case reference", http.StatusInternalServerError, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	verdict.ID = primitive.NewObjectID()
	verdict.Details.TrialID = tID.Hex()
	verdict.Details.RecordedByID = actor.ID.Hex()
	verdict.Details.RecordedAt = now

	err = v.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		// closing the trial is the commit point; the unset-closedAt filter
		// rejects the cascade on an already-closed trial
		matched, err := v.TDB.UpdateOne(txCtx,
			bson.M{"_id": tID, "trial.closedAt": bson.M{"$exists": false}},
			bson.M{"$set": bson.M{"trial.closedAt": now}})
		if err != nil {
			return err
		}
		if matched == 0 {
			return errTrialClosed
		}

		if _, err := v.DB.InsertOne(txCtx, verdict); err != nil {
			return err
		}

		if _, err := v.CaseDB.UpdateOne(txCtx, bson.M{"_id": cID},
			bson.M{"$set": bson.M{
				"case.status":    models.CaseStatusClosed,
				"case.updatedAt": now,
			}}); err != nil {
			return err
		}

		if trial.Details.SuspectID != "" {
			sID, err := primitive.ObjectIDFromHex(trial.Details.SuspectID)
			if err != nil {
				return err
			}
			disposition := models.SuspectStatusReleased
			if verdict.Details.VerdictType == models.VerdictGuilty {
				disposition = models.SuspectStatusConvicted
			}
			if _, err := v.SDB.UpdateOne(txCtx, bson.M{"_id": sID},
				bson.M{"$set": bson.M{"suspect.status": disposition}}); err != nil {
				return err
			}
		}
		return nil
	})
	if err == errTrialClosed {
		config.ErrorStatus("verdict already recorded for this trial", http.StatusConflict, w, err)
		return
	}
	if err != nil {
		config.ErrorStatus("failed to record verdict", http.StatusInternalServerError, w, err)
		return
	}

	v.Notifier.NotifyRole(ctx, models.RoleCaptain,
		"Verdict recorded",
		fmt.Sprintf("A %s verdict closed case %s", verdict.Details.VerdictType, trial.Details.CaseID),
		"verdict_recorded", "verdict", verdict.ID.Hex())
	v.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionCreate, "verdict", verdict.ID.Hex(),
		fmt.Sprintf("%s verdict recorded on trial %s", verdict.Details.VerdictType, tID.Hex()))

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(verdict)
}

// VerdictByTrialHandler returns the verdict recorded on a trial
func (v Verdict) VerdictByTrialHandler(w http.ResponseWriter, r *http.Request) {
	trialID := mux.Vars(r)["trial_id"]

	tID, err := primitive.ObjectIDFromHex(trialID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := v.DB.FindOne(ctx, bson.M{"verdict.trialID": tID.Hex()})
	if err != nil {
		config.ErrorStatus("failed to get verdict by trial", http.StatusNotFound, w, err)
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

// VerdictsHandler lists verdicts for the judiciary
func (v Verdict) VerdictsHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, v.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}
	if !api.HasAnyRole(actor.Details.Roles, verdictRoles) {
		config.ErrorStatus("caller may not list verdicts", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	limit64 := int64(Limit)
	Page = getPage(Page, r)
	skip64 := int64(Page * Limit)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().
		SetLimit(limit64).
		SetSkip(skip64).
		SetSort(bson.M{"_id": -1})

	dbResp, err := v.DB.Find(ctx, bson.D{}, opts)
	if err != nil {
		config.ErrorStatus("failed to get verdicts", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Verdict{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
