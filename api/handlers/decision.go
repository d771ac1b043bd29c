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
	"go.uber.org/zap"

	"github.com/policeops/criminal-case-api/api"
	"github.com/policeops/criminal-case-api/config"
	"github.com/policeops/criminal-case-api/databases"
	"github.com/policeops/criminal-case-api/models"
	"github.com/policeops/criminal-case-api/services"
)

// Decision exported for testing purposes
type Decision struct {
	DB       databases.CaptainDecisionDatabase
	CADB     databases.ChiefApprovalDatabase
	SDB      databases.SuspectDatabase
	CaseDB   databases.CaseDatabase
	TDB      databases.TrialDatabase
	UDB      databases.UserDatabase
	Notifier *services.Notifier
	Auditor  *services.Auditor
}

var captainDecisionRoles = []string{
	models.RoleCaptain,
	models.RolePoliceChief,
	models.RoleSystemAdmin,
}

var chiefApprovalRoles = []string{
	models.RolePoliceChief,
	models.RoleSystemAdmin,
}

// CaptainDecideHandler records the captain's guilty/not-guilty call on an
// arrested suspect. On a crisis-severity case the decision is held for chief
// approval and has no effect yet
func (d Decision) CaptainDecideHandler(w http.ResponseWriter, r *http.Request) {
	suspectID := mux.Vars(r)["suspect_id"]

	sID, err := primitive.ObjectIDFromHex(suspectID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, err := actorFromRequest(r, d.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}
	if !api.HasAnyRole(actor.Details.Roles, captainDecisionRoles) {
		config.ErrorStatus("caller may not decide on suspects", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	var body struct {
		FinalDecision string `json:"finalDecision"`
		Reasoning     string `json:"reasoning"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.FinalDecision != models.DecisionGuilty && body.FinalDecision != models.DecisionNotGuilty {
		config.ErrorStatus("finalDecision must be guilty or not_guilty", http.StatusBadRequest, w,
			fmt.Errorf("got %q", body.FinalDecision))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	suspect, err := d.SDB.FindOne(ctx, bson.M{"_id": sID})
	if err != nil {
		config.ErrorStatus("failed to find suspect", http.StatusNotFound, w, err)
		return
	}
	if suspect.Details.Status != models.SuspectStatusArrested {
		config.ErrorStatus("suspect is not under arrest", http.StatusBadRequest, w,
			fmt.Errorf("status %v", suspect.Details.Status))
		return
	}

	cID, err := primitive.ObjectIDFromHex(suspect.Details.CaseID)
	if err != nil {
		config.ErrorStatus("suspect has invalid case reference", http.StatusInternalServerError, w, err)
		return
	}
	caseResp, err := d.CaseDB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find case", http.StatusNotFound, w, err)
		return
	}

	pending, err := d.DB.Find(ctx, bson.M{
		"captainDecision.suspectID": sID.Hex(),
		"captainDecision.resolved":  false,
	})
	if err != nil {
		config.ErrorStatus("failed to check pending decisions", http.StatusInternalServerError, w, err)
		return
	}
	if len(pending) > 0 {
		config.ErrorStatus("a decision is already pending on this suspect", http.StatusConflict, w,
			fmt.Errorf("decision %s unresolved", pending[0].ID.Hex()))
		return
	}

	needsChief := caseResp.Details.Severity == models.SeverityCrisis
	decision := models.CaptainDecision{
		ID: primitive.NewObjectID(),
		Details: models.CaptainDecisionDetails{
			SuspectID:             sID.Hex(),
			CaseID:                suspect.Details.CaseID,
			FinalDecision:         body.FinalDecision,
			Reasoning:             body.Reasoning,
			DecidedByID:           actor.ID.Hex(),
			ChiefApprovalRequired: needsChief,
			Resolved:              false,
			Applied:               false,
			CreatedAt:             primitive.NewDateTimeFromTime(time.Now()),
		},
	}

	// claiming the suspect is the commit point: concurrent decides race on
	// this conditional write and exactly one wins, even when both passed the
	// pending check above
	claimed, err := d.SDB.UpdateOne(ctx,
		bson.M{
			"_id":                       sID,
			"suspect.status":            models.SuspectStatusArrested,
			"suspect.pendingDecisionID": bson.M{"$in": bson.A{"", nil}},
		},
		bson.M{"$set": bson.M{"suspect.pendingDecisionID": decision.ID.Hex()}})
	if err != nil {
		config.ErrorStatus("failed to claim suspect for decision", http.StatusInternalServerError, w, err)
		return
	}
	if claimed == 0 {
		config.ErrorStatus("a decision is already pending on this suspect", http.StatusConflict, w,
			fmt.Errorf("suspect %s claimed", sID.Hex()))
		return
	}

	if _, err := d.DB.InsertOne(ctx, decision); err != nil {
		d.releaseDecisionClaim(ctx, sID.Hex())
		config.ErrorStatus("failed to create captain decision", http.StatusInternalServerError, w, err)
		return
	}

	if needsChief {
		d.Notifier.NotifyRole(ctx, models.RolePoliceChief,
			"Captain decision awaiting approval",
			fmt.Sprintf("A %s decision on case %q needs chief approval", body.FinalDecision, caseResp.Details.Title),
			"decision_pending_chief", "captainDecision", decision.ID.Hex())
		d.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionCreate, "captainDecision", decision.ID.Hex(),
			"decision held pending chief approval")

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"decision":              decision,
			"chiefApprovalRequired": true,
		})
		return
	}

	if err := d.applyDecision(ctx, &decision); err != nil {
		config.ErrorStatus("failed to apply captain decision", http.StatusInternalServerError, w, err)
		return
	}
	d.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionCreate, "captainDecision", decision.ID.Hex(),
		fmt.Sprintf("decision %s applied immediately", body.FinalDecision))

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"decision":              decision,
		"chiefApprovalRequired": false,
	})
}

// ChiefReviewHandler rules on a held captain decision. Approval applies the
// held effects; rejection resolves the decision without touching the
// suspect. The resolved flag makes the ruling one-shot
func (d Decision) ChiefReviewHandler(w http.ResponseWriter, r *http.Request) {
	decisionID := mux.Vars(r)["decision_id"]

	dID, err := primitive.ObjectIDFromHex(decisionID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, err := actorFromRequest(r, d.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}
	if !api.HasAnyRole(actor.Details.Roles, chiefApprovalRoles) {
		config.ErrorStatus("caller may not rule on captain decisions", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	var body struct {
		Approved bool   `json:"approved"`
		Comment  string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	decision, err := d.DB.FindOne(ctx, bson.M{"_id": dID})
	if err != nil {
		config.ErrorStatus("failed to find captain decision", http.StatusNotFound, w, err)
		return
	}
	if !decision.Details.ChiefApprovalRequired {
		config.ErrorStatus("decision does not require chief approval", http.StatusBadRequest, w,
			fmt.Errorf("decision %s", dID.Hex()))
		return
	}

	// flipping resolved is the commit point: only one chief ruling wins
	matched, err := d.DB.UpdateOne(ctx,
		bson.M{"_id": dID, "captainDecision.resolved": false},
		bson.M{"$set": bson.M{"captainDecision.resolved": true}})
	if err != nil {
		config.ErrorStatus("failed to update captain decision", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("decision already ruled on", http.StatusConflict, w,
			fmt.Errorf("decision %s resolved", dID.Hex()))
		return
	}

	status := models.ChiefApprovalRejected
	if body.Approved {
		status = models.ChiefApprovalApproved
	}
	approval := models.ChiefApproval{
		ID: primitive.NewObjectID(),
		Details: models.ChiefApprovalDetails{
			CaptainDecisionID: dID.Hex(),
			Status:            status,
			Comment:           body.Comment,
			ApprovedByID:      actor.ID.Hex(),
			CreatedAt:         primitive.NewDateTimeFromTime(time.Now()),
		},
	}
	if _, err := d.CADB.InsertOne(ctx, approval); err != nil {
		zap.S().Errorw("failed to store chief approval record",
			"decisionID", dID.Hex(), "error", err)
	}

	if body.Approved {
		if err := d.applyDecision(ctx, decision); err != nil {
			config.ErrorStatus("failed to apply approved decision", http.StatusInternalServerError, w, err)
			return
		}
		d.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionApprove, "captainDecision", dID.Hex(),
			"chief approved, decision applied")
	} else {
		// terminal resolved-unapplied state: the suspect keeps its current
		// disposition and becomes eligible for a fresh decision
		d.releaseDecisionClaim(ctx, decision.Details.SuspectID)
		d.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionReject, "captainDecision", dID.Hex(),
			"chief rejected, decision discarded")
	}

	d.Notifier.NotifyUser(ctx, decision.Details.DecidedByID,
		"Chief ruled on your decision",
		fmt.Sprintf("The chief %s your decision on suspect %s", status, decision.Details.SuspectID),
		"decision_chief_ruled", "captainDecision", dID.Hex())

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":  "Decision ruled on",
		"status":   status,
		"approval": approval,
	})
}

// DecisionByIDHandler returns a captain decision by ID
func (d Decision) DecisionByIDHandler(w http.ResponseWriter, r *http.Request) {
	decisionID := mux.Vars(r)["decision_id"]

	dID, err := primitive.ObjectIDFromHex(decisionID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := d.DB.FindOne(ctx, bson.M{"_id": dID})
	if err != nil {
		config.ErrorStatus("failed to get captain decision by ID", http.StatusNotFound, w, err)
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

// applyDecision runs the effects of a captain decision once any required
// chief gate has passed: guilty arrests the suspect, refers the case and
// gets-or-creates the trial; not guilty releases the suspect
func (d Decision) applyDecision(ctx context.Context, decision *models.CaptainDecision) error {
	sID, err := primitive.ObjectIDFromHex(decision.Details.SuspectID)
	if err != nil {
		return err
	}
	cID, err := primitive.ObjectIDFromHex(decision.Details.CaseID)
	if err != nil {
		return err
	}

	now := primitive.NewDateTimeFromTime(time.Now())

	newStatus := models.SuspectStatusReleased
	if decision.Details.FinalDecision == models.DecisionGuilty {
		newStatus = models.SuspectStatusArrested
	}
	// the arrest precondition keeps a late apply from flipping a suspect some
	// other transition already moved on
	matched, err := d.SDB.UpdateOne(ctx,
		bson.M{"_id": sID, "suspect.status": models.SuspectStatusArrested},
		bson.M{"$set": bson.M{
			"suspect.status":            newStatus,
			"suspect.pendingDecisionID": "",
		}})
	if err != nil {
		return err
	}
	if matched == 0 {
		return fmt.Errorf("suspect %s is no longer under arrest", decision.Details.SuspectID)
	}

	if decision.Details.FinalDecision == models.DecisionGuilty {
		// referral is idempotent: an existing trial is reused and gains the
		// suspect if it had none
		trial, err := d.TDB.FindOne(ctx, bson.M{"trial.caseID": decision.Details.CaseID})
		if err == mongo.ErrNoDocuments {
			trial = &models.Trial{
				ID: primitive.NewObjectID(),
				Details: models.TrialDetails{
					CaseID:    decision.Details.CaseID,
					SuspectID: decision.Details.SuspectID,
					StartedAt: now,
				},
			}
			if _, err := d.TDB.InsertOne(ctx, *trial); err != nil {
				return err
			}
		} else if err != nil {
			return err
		} else if trial.Details.SuspectID == "" {
			if _, err := d.TDB.UpdateOne(ctx, bson.M{"_id": trial.ID},
				bson.M{"$set": bson.M{"trial.suspectID": decision.Details.SuspectID}}); err != nil {
				return err
			}
		}

		if _, err := d.CaseDB.UpdateOne(ctx, bson.M{"_id": cID},
			bson.M{"$set": bson.M{
				"case.status":    models.CaseStatusReferredToJudiciary,
				"case.updatedAt": now,
			}}); err != nil {
			return err
		}
	}

	if _, err := d.DB.UpdateOne(ctx, bson.M{"_id": decision.ID},
		bson.M{"$set": bson.M{
			"captainDecision.resolved": true,
			"captainDecision.applied":  true,
		}}); err != nil {
		return err
	}
	decision.Details.Resolved = true
	decision.Details.Applied = true
	return nil
}

// releaseDecisionClaim clears the pending-decision marker so a new captain
// decision can be issued on the suspect
func (d Decision) releaseDecisionClaim(ctx context.Context, suspectID string) {
	sID, err := primitive.ObjectIDFromHex(suspectID)
	if err != nil {
		return
	}
	if _, err := d.SDB.UpdateOne(ctx, bson.M{"_id": sID},
		bson.M{"$set": bson.M{"suspect.pendingDecisionID": ""}}); err != nil {
		zap.S().Warnw("failed to release pending decision claim",
			"suspectID", suspectID, "error", err)
	}
}
