package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/policeops/criminal-case-api/api"
	"github.com/policeops/criminal-case-api/config"
	"github.com/policeops/criminal-case-api/databases"
	"github.com/policeops/criminal-case-api/models"
	"github.com/policeops/criminal-case-api/services"
)

// Suspect exported for testing purposes
type Suspect struct {
	DB       databases.SuspectDatabase
	CaseDB   databases.CaseDatabase
	UDB      databases.UserDatabase
	Notifier *services.Notifier
	Auditor  *services.Auditor
}

// ProposeSuspectHandler lets a detective put a person under investigation
// for a case. A person can be proposed at most once per case
func (s Suspect) ProposeSuspectHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r, s.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}
	if !api.HasRole(actor.Details.Roles, models.RoleDetective) {
		config.ErrorStatus("only detectives may propose suspects", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	var body struct {
		CaseID string `json:"caseID"`
		UserID string `json:"userID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if body.CaseID == "" || body.UserID == "" {
		config.ErrorStatus("caseID and userID are required", http.StatusBadRequest, w, fmt.Errorf("missing fields"))
		return
	}

	cID, err := primitive.ObjectIDFromHex(body.CaseID)
	if err != nil {
		config.ErrorStatus("invalid case ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	caseResp, err := s.CaseDB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to find case", http.StatusNotFound, w, err)
		return
	}

	count, err := s.DB.CountDocuments(ctx, bson.M{
		"suspect.caseID": body.CaseID,
		"suspect.userID": body.UserID,
	})
	if err != nil {
		config.ErrorStatus("failed to check for existing suspect", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("suspect already proposed for this case", http.StatusConflict, w,
			fmt.Errorf("duplicate (case %s, user %s)", body.CaseID, body.UserID))
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	suspect := models.Suspect{
		ID: primitive.NewObjectID(),
		Details: models.SuspectDetails{
			CaseID:                body.CaseID,
			UserID:                body.UserID,
			Status:                models.SuspectStatusUnderInvestigation,
			ProposedByDetectiveID: actor.ID.Hex(),
			MarkedAt:              now,
			FirstPursuitDate:      now,
		},
	}
	if _, err := s.DB.InsertOne(ctx, suspect); err != nil {
		config.ErrorStatus("failed to create suspect", http.StatusInternalServerError, w, err)
		return
	}

	s.Notifier.NotifyRole(ctx, models.RoleSergeant,
		"Suspect proposed",
		fmt.Sprintf("A suspect was proposed on case %q and needs review", caseResp.Details.Title),
		"suspect_proposed", "suspect", suspect.ID.Hex())
	s.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionCreate, "suspect", suspect.ID.Hex(),
		fmt.Sprintf("suspect proposed on case %s", body.CaseID))

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(suspect)
}

// SuspectByIDHandler returns a suspect by ID, escalating it to most wanted
// first if the pursuit has run past the threshold
func (s Suspect) SuspectByIDHandler(w http.ResponseWriter, r *http.Request) {
	suspectID := mux.Vars(r)["suspect_id"]

	sID, err := primitive.ObjectIDFromHex(suspectID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := s.DB.FindOne(ctx, bson.M{"_id": sID})
	if err != nil {
		config.ErrorStatus("failed to get suspect by ID", http.StatusNotFound, w, err)
		return
	}

	s.escalateIfDue(ctx, dbResp)

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SuspectsByCaseHandler lists all suspects on a case
func (s Suspect) SuspectsByCaseHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := s.DB.Find(ctx, bson.M{"suspect.caseID": cID.Hex()})
	if err != nil {
		config.ErrorStatus("failed to get suspects", http.StatusNotFound, w, err)
		return
	}

	for i := range dbResp {
		s.escalateIfDue(ctx, &dbResp[i])
	}

	if len(dbResp) == 0 {
		dbResp = []models.Suspect{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// escalateIfDue applies the lazy most-wanted transition to one suspect. The
// status filter keeps it idempotent against the cron sweep and concurrent
// reads
func (s Suspect) escalateIfDue(ctx context.Context, suspect *models.Suspect) {
	if !suspect.EscalatesToMostWanted(time.Now()) {
		return
	}
	matched, err := s.DB.UpdateOne(ctx,
		bson.M{"_id": suspect.ID, "suspect.status": models.SuspectStatusUnderInvestigation},
		bson.M{"$set": bson.M{
			"suspect.status":   models.SuspectStatusMostWanted,
			"suspect.markedAt": primitive.NewDateTimeFromTime(time.Now()),
		}})
	if err != nil {
		zap.S().Warnw("failed to escalate suspect to most wanted",
			"suspectID", suspect.ID.Hex(), "error", err)
		return
	}
	if matched > 0 {
		suspect.Details.Status = models.SuspectStatusMostWanted
	}
}

// ReviewSuspectHandler records the supervisor's arrest-or-reject decision on
// a proposed suspect. The status filter makes the review one-shot: a second
// reviewer loses with AlreadyReviewed
func (s Suspect) ReviewSuspectHandler(w http.ResponseWriter, r *http.Request) {
	suspectID := mux.Vars(r)["suspect_id"]

	sID, err := primitive.ObjectIDFromHex(suspectID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	actor, err := actorFromRequest(r, s.UDB)
	if err != nil {
		config.ErrorStatus("failed to resolve acting user", http.StatusForbidden, w, err)
		return
	}
	if !api.HasAnyRole(actor.Details.Roles, api.SupervisorRoles) {
		config.ErrorStatus("caller may not review suspects", http.StatusForbidden, w, fmt.Errorf("unauthorized"))
		return
	}

	var reviewData struct {
		Approved         bool   `json:"approved"`
		RejectionMessage string `json:"rejectionMessage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&reviewData); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if !reviewData.Approved && reviewData.RejectionMessage == "" {
		config.ErrorStatus("rejection message is required", http.StatusBadRequest, w, fmt.Errorf("missing rejectionMessage"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	suspect, err := s.DB.FindOne(ctx, bson.M{"_id": sID})
	if err != nil {
		config.ErrorStatus("failed to find suspect", http.StatusNotFound, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	var set bson.M
	if reviewData.Approved {
		set = bson.M{
			"suspect.status":                 models.SuspectStatusArrested,
			"suspect.approvedBySupervisorID": actor.ID.Hex(),
			"suspect.approvedAt":             now,
		}
	} else {
		set = bson.M{
			"suspect.status":           models.SuspectStatusRejected,
			"suspect.rejectionMessage": reviewData.RejectionMessage,
		}
	}

	matched, err := s.DB.UpdateOne(ctx,
		bson.M{"_id": sID, "suspect.status": bson.M{"$in": []string{
			models.SuspectStatusUnderInvestigation,
			models.SuspectStatusMostWanted,
		}}},
		bson.M{"$set": set})
	if err != nil {
		config.ErrorStatus("failed to update suspect", http.StatusInternalServerError, w, err)
		return
	}
	if matched == 0 {
		config.ErrorStatus("suspect already reviewed", http.StatusConflict, w,
			fmt.Errorf("status %v", suspect.Details.Status))
		return
	}

	s.clearSupervisorWait(ctx, suspect.Details.CaseID)

	if reviewData.Approved {
		cID, idErr := primitive.ObjectIDFromHex(suspect.Details.CaseID)
		if caseResp, err := s.CaseDB.FindOne(ctx, bson.M{"_id": cID}); idErr == nil && err == nil &&
			caseResp.Details.AssignedDetectiveID != "" {
			s.Notifier.NotifyUser(ctx, caseResp.Details.AssignedDetectiveID,
				"Suspect arrested",
				"A suspect on your case was approved for arrest",
				"suspect_arrested", "suspect", sID.Hex())
		}
		s.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionApprove, "suspect", sID.Hex(),
			"suspect approved for arrest")
	} else {
		s.Notifier.NotifyUser(ctx, suspect.Details.ProposedByDetectiveID,
			"Suspect proposal rejected",
			reviewData.RejectionMessage,
			"suspect_rejected", "suspect", sID.Hex())
		s.Auditor.Record(ctx, actor.ID.Hex(), models.AuditActionReject, "suspect", sID.Hex(),
			"suspect proposal rejected")
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Suspect reviewed successfully",
	})
}

// clearSupervisorWait releases the case-level supervisor lock once no
// suspect on the case remains pending review. Reconciliation only, never
// sets the lock
func (s Suspect) clearSupervisorWait(ctx context.Context, caseID string) {
	pending, err := s.DB.CountDocuments(ctx, bson.M{
		"suspect.caseID": caseID,
		"suspect.status": bson.M{"$in": []string{
			models.SuspectStatusUnderInvestigation,
			models.SuspectStatusMostWanted,
		}},
	})
	if err != nil {
		zap.S().Warnw("failed to count pending suspects", "caseID", caseID, "error", err)
		return
	}
	if pending > 0 {
		return
	}
	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		return
	}
	if _, err := s.CaseDB.UpdateOne(ctx,
		bson.M{"_id": cID, "case.status": models.CaseStatusWaitingSupervisor},
		bson.M{"$set": bson.M{
			"case.status":    models.CaseStatusUnderInvestigation,
			"case.updatedAt": primitive.NewDateTimeFromTime(time.Now()),
		}}); err != nil {
		zap.S().Warnw("failed to clear supervisor wait on case", "caseID", caseID, "error", err)
	}
}

// MostWantedHandler is the public most wanted listing: every most wanted
// suspect with its ranking score and reward, highest score first, ties
// broken by earliest pursuit start
func (s Suspect) MostWantedHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	// the same escalation the cron job runs, applied inline so the listing
	// never misses a suspect the sweep has not reached yet
	cutoff := time.Now().UTC().AddDate(0, 0, -models.MostWantedAfterDays)
	if _, err := s.DB.UpdateMany(ctx,
		bson.M{
			"suspect.status":           models.SuspectStatusUnderInvestigation,
			"suspect.firstPursuitDate": bson.M{"$lt": primitive.NewDateTimeFromTime(cutoff)},
		},
		bson.M{"$set": bson.M{
			"suspect.status":   models.SuspectStatusMostWanted,
			"suspect.markedAt": primitive.NewDateTimeFromTime(time.Now().UTC()),
		}}); err != nil {
		zap.S().Warnw("inline most wanted escalation failed", "error", err)
	}

	suspects, err := s.DB.Find(ctx, bson.M{"suspect.status": models.SuspectStatusMostWanted})
	if err != nil {
		config.ErrorStatus("failed to get most wanted suspects", http.StatusNotFound, w, err)
		return
	}

	// severity lookup per distinct case
	caseIDs := make(map[string]bool)
	for _, sus := range suspects {
		caseIDs[sus.Details.CaseID] = true
	}
	oids := make([]primitive.ObjectID, 0, len(caseIDs))
	for id := range caseIDs {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	cases := map[string]models.Case{}
	if len(oids) > 0 {
		caseResp, err := s.CaseDB.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
		if err != nil {
			config.ErrorStatus("failed to get cases for most wanted listing", http.StatusInternalServerError, w, err)
			return
		}
		for _, cs := range caseResp {
			cases[cs.ID.Hex()] = cs
		}
	}

	now := time.Now()
	entries := make([]models.MostWantedEntry, 0, len(suspects))
	for i := range suspects {
		sus := &suspects[i]
		cs, ok := cases[sus.Details.CaseID]
		if !ok {
			zap.S().Warnw("most wanted suspect references missing case",
				"suspectID", sus.ID.Hex(), "caseID", sus.Details.CaseID)
			continue
		}
		entries = append(entries, models.MostWantedEntry{
			SuspectID:        sus.ID.Hex(),
			CaseID:           sus.Details.CaseID,
			UserID:           sus.Details.UserID,
			CaseTitle:        cs.Details.Title,
			Severity:         cs.Details.Severity,
			CrimeDegree:      models.CrimeDegree(cs.Details.Severity),
			DaysPursued:      sus.DaysPursued(now),
			RankingScore:     sus.RankingScore(cs.Details.Severity, now),
			Reward:           sus.Reward(cs.Details.Severity, now),
			FirstPursuitDate: sus.Details.FirstPursuitDate,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].RankingScore != entries[j].RankingScore {
			return entries[i].RankingScore > entries[j].RankingScore
		}
		return entries[i].FirstPursuitDate < entries[j].FirstPursuitDate
	})

	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	Page = getPage(Page, r)
	if Limit > 0 {
		start := Page * Limit
		if start > len(entries) {
			start = len(entries)
		}
		end := start + Limit
		if end > len(entries) {
			end = len(entries)
		}
		entries = entries[start:end]
	}

	b, err := json.Marshal(entries)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
