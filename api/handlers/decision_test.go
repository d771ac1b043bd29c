package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/policeops/criminal-case-api/api/handlers"
	mocksdb "github.com/policeops/criminal-case-api/databases/mocks"
	"github.com/policeops/criminal-case-api/models"
)

func arrestedSuspect(caseID primitive.ObjectID) *models.Suspect {
	return &models.Suspect{
		ID: primitive.NewObjectID(),
		Details: models.SuspectDetails{
			CaseID: caseID.Hex(),
			UserID: primitive.NewObjectID().Hex(),
			Status: models.SuspectStatusArrested,
		},
	}
}

func TestDecision_CaptainDecideHandlerCrisisHeldForChief(t *testing.T) {
	captain := testUser("cap@pd.gov", models.RoleCaptain)
	caseID := primitive.NewObjectID()
	suspect := arrestedSuspect(caseID)

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(captain, nil)
	sdb := &mocksdb.SuspectDatabase{}
	sdb.On("FindOne", mock.Anything, mock.Anything).Return(suspect, nil)
	var suspectUpdates []bson.M
	sdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			suspectUpdates = append(suspectUpdates, args.Get(2).(bson.M))
		}).
		Return(int64(1), nil)
	casedb := &mocksdb.CaseDatabase{}
	casedb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Case{
		ID:      caseID,
		Details: models.CaseDetails{Title: "Serial case", Severity: models.SeverityCrisis},
	}, nil)
	ddb := &mocksdb.CaptainDecisionDatabase{}
	ddb.On("Find", mock.Anything, mock.Anything).Return([]models.CaptainDecision{}, nil)
	ddb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	d := handlers.Decision{DB: ddb, SDB: sdb, CaseDB: casedb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]string{"finalDecision": models.DecisionGuilty, "reasoning": "dna match"})
	req, _ := http.NewRequest("POST", "/api/v1/suspect/"+suspect.ID.Hex()+"/decision", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"suspect_id": suspect.ID.Hex()})
	req = authed(req, "cap@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.CaptainDecideHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["chiefApprovalRequired"])
	// a held decision only claims the suspect, it must not change the status
	assert.Len(t, suspectUpdates, 1)
	set := suspectUpdates[0]["$set"].(bson.M)
	assert.Contains(t, set, "suspect.pendingDecisionID")
	assert.NotContains(t, set, "suspect.status")
}

func TestDecision_CaptainDecideHandlerConcurrentDecideLosesClaim(t *testing.T) {
	captain := testUser("cap@pd.gov", models.RoleCaptain)
	caseID := primitive.NewObjectID()
	suspect := arrestedSuspect(caseID)

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(captain, nil)
	sdb := &mocksdb.SuspectDatabase{}
	sdb.On("FindOne", mock.Anything, mock.Anything).Return(suspect, nil)
	// the pending-decision read raced a concurrent decide: by the time this
	// request tries to claim, the marker is taken and the write matches nothing
	sdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	casedb := &mocksdb.CaseDatabase{}
	casedb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Case{
		ID:      caseID,
		Details: models.CaseDetails{Severity: models.SeverityCrisis},
	}, nil)
	ddb := &mocksdb.CaptainDecisionDatabase{}
	ddb.On("Find", mock.Anything, mock.Anything).Return([]models.CaptainDecision{}, nil)

	d := handlers.Decision{DB: ddb, SDB: sdb, CaseDB: casedb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]string{"finalDecision": models.DecisionGuilty})
	req, _ := http.NewRequest("POST", "/api/v1/suspect/"+suspect.ID.Hex()+"/decision", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"suspect_id": suspect.ID.Hex()})
	req = authed(req, "cap@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.CaptainDecideHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	ddb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestDecision_CaptainDecideHandlerAppliedImmediately(t *testing.T) {
	captain := testUser("cap@pd.gov", models.RoleCaptain)
	caseID := primitive.NewObjectID()
	suspect := arrestedSuspect(caseID)

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(captain, nil)
	sdb := &mocksdb.SuspectDatabase{}
	sdb.On("FindOne", mock.Anything, mock.Anything).Return(suspect, nil)
	sdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	casedb := &mocksdb.CaseDatabase{}
	casedb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Case{
		ID:      caseID,
		Details: models.CaseDetails{Title: "Car theft ring", Severity: models.SeverityModerate},
	}, nil)
	casedb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	ddb := &mocksdb.CaptainDecisionDatabase{}
	ddb.On("Find", mock.Anything, mock.Anything).Return([]models.CaptainDecision{}, nil)
	ddb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	ddb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	tdb := &mocksdb.TrialDatabase{}
	tdb.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)
	tdb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	d := handlers.Decision{DB: ddb, SDB: sdb, CaseDB: casedb, TDB: tdb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]string{"finalDecision": models.DecisionGuilty})
	req, _ := http.NewRequest("POST", "/api/v1/suspect/"+suspect.ID.Hex()+"/decision", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"suspect_id": suspect.ID.Hex()})
	req = authed(req, "cap@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.CaptainDecideHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["chiefApprovalRequired"])
	tdb.AssertCalled(t, "InsertOne", mock.Anything, mock.Anything)
	casedb.AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestDecision_CaptainDecideHandlerSuspectNotArrested(t *testing.T) {
	captain := testUser("cap@pd.gov", models.RoleCaptain)
	suspect := &models.Suspect{
		ID: primitive.NewObjectID(),
		Details: models.SuspectDetails{
			CaseID: primitive.NewObjectID().Hex(),
			Status: models.SuspectStatusUnderInvestigation,
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(captain, nil)
	sdb := &mocksdb.SuspectDatabase{}
	sdb.On("FindOne", mock.Anything, mock.Anything).Return(suspect, nil)

	d := handlers.Decision{DB: &mocksdb.CaptainDecisionDatabase{}, SDB: sdb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]string{"finalDecision": models.DecisionGuilty})
	req, _ := http.NewRequest("POST", "/api/v1/suspect/"+suspect.ID.Hex()+"/decision", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"suspect_id": suspect.ID.Hex()})
	req = authed(req, "cap@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.CaptainDecideHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDecision_CaptainDecideHandlerAlreadyPending(t *testing.T) {
	captain := testUser("cap@pd.gov", models.RoleCaptain)
	caseID := primitive.NewObjectID()
	suspect := arrestedSuspect(caseID)

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(captain, nil)
	sdb := &mocksdb.SuspectDatabase{}
	sdb.On("FindOne", mock.Anything, mock.Anything).Return(suspect, nil)
	casedb := &mocksdb.CaseDatabase{}
	casedb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Case{
		ID:      caseID,
		Details: models.CaseDetails{Severity: models.SeverityCrisis},
	}, nil)
	ddb := &mocksdb.CaptainDecisionDatabase{}
	ddb.On("Find", mock.Anything, mock.Anything).Return([]models.CaptainDecision{{ID: primitive.NewObjectID()}}, nil)

	d := handlers.Decision{DB: ddb, SDB: sdb, CaseDB: casedb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]string{"finalDecision": models.DecisionNotGuilty})
	req, _ := http.NewRequest("POST", "/api/v1/suspect/"+suspect.ID.Hex()+"/decision", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"suspect_id": suspect.ID.Hex()})
	req = authed(req, "cap@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.CaptainDecideHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestDecision_ChiefReviewHandlerApproveApplies(t *testing.T) {
	chief := testUser("chief@pd.gov", models.RolePoliceChief)
	decision := &models.CaptainDecision{
		ID: primitive.NewObjectID(),
		Details: models.CaptainDecisionDetails{
			SuspectID:             primitive.NewObjectID().Hex(),
			CaseID:                primitive.NewObjectID().Hex(),
			FinalDecision:         models.DecisionGuilty,
			DecidedByID:           primitive.NewObjectID().Hex(),
			ChiefApprovalRequired: true,
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(chief, nil)
	ddb := &mocksdb.CaptainDecisionDatabase{}
	ddb.On("FindOne", mock.Anything, mock.Anything).Return(decision, nil)
	ddb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	cadb := &mocksdb.ChiefApprovalDatabase{}
	cadb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	sdb := &mocksdb.SuspectDatabase{}
	sdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	casedb := &mocksdb.CaseDatabase{}
	casedb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	tdb := &mocksdb.TrialDatabase{}
	tdb.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)
	tdb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	d := handlers.Decision{DB: ddb, CADB: cadb, SDB: sdb, CaseDB: casedb, TDB: tdb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]interface{}{"approved": true})
	req, _ := http.NewRequest("PUT", "/api/v1/decision/"+decision.ID.Hex()+"/chief-review", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"decision_id": decision.ID.Hex()})
	req = authed(req, "chief@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.ChiefReviewHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.ChiefApprovalApproved, resp["status"])
	tdb.AssertCalled(t, "InsertOne", mock.Anything, mock.Anything)
	casedb.AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestDecision_ChiefReviewHandlerRejectLeavesSuspect(t *testing.T) {
	chief := testUser("chief@pd.gov", models.RolePoliceChief)
	decision := &models.CaptainDecision{
		ID: primitive.NewObjectID(),
		Details: models.CaptainDecisionDetails{
			SuspectID:             primitive.NewObjectID().Hex(),
			CaseID:                primitive.NewObjectID().Hex(),
			FinalDecision:         models.DecisionGuilty,
			DecidedByID:           primitive.NewObjectID().Hex(),
			ChiefApprovalRequired: true,
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(chief, nil)
	ddb := &mocksdb.CaptainDecisionDatabase{}
	ddb.On("FindOne", mock.Anything, mock.Anything).Return(decision, nil)
	ddb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	cadb := &mocksdb.ChiefApprovalDatabase{}
	cadb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	sdb := &mocksdb.SuspectDatabase{}
	var suspectUpdates []bson.M
	sdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			suspectUpdates = append(suspectUpdates, args.Get(2).(bson.M))
		}).
		Return(int64(1), nil)

	d := handlers.Decision{DB: ddb, CADB: cadb, SDB: sdb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]interface{}{"approved": false, "comment": "insufficient evidence"})
	req, _ := http.NewRequest("PUT", "/api/v1/decision/"+decision.ID.Hex()+"/chief-review", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"decision_id": decision.ID.Hex()})
	req = authed(req, "chief@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.ChiefReviewHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.ChiefApprovalRejected, resp["status"])
	// rejection only releases the claim, the suspect status stays untouched
	assert.Len(t, suspectUpdates, 1)
	set := suspectUpdates[0]["$set"].(bson.M)
	assert.Equal(t, "", set["suspect.pendingDecisionID"])
	assert.NotContains(t, set, "suspect.status")
}

func TestDecision_ChiefReviewHandlerAlreadyRuled(t *testing.T) {
	chief := testUser("chief@pd.gov", models.RolePoliceChief)
	decision := &models.CaptainDecision{
		ID: primitive.NewObjectID(),
		Details: models.CaptainDecisionDetails{
			ChiefApprovalRequired: true,
			Resolved:              true,
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(chief, nil)
	ddb := &mocksdb.CaptainDecisionDatabase{}
	ddb.On("FindOne", mock.Anything, mock.Anything).Return(decision, nil)
	ddb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)

	d := handlers.Decision{DB: ddb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]interface{}{"approved": true})
	req, _ := http.NewRequest("PUT", "/api/v1/decision/"+decision.ID.Hex()+"/chief-review", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"decision_id": decision.ID.Hex()})
	req = authed(req, "chief@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.ChiefReviewHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestDecision_ChiefReviewHandlerNotHeld(t *testing.T) {
	chief := testUser("chief@pd.gov", models.RolePoliceChief)
	decision := &models.CaptainDecision{
		ID:      primitive.NewObjectID(),
		Details: models.CaptainDecisionDetails{ChiefApprovalRequired: false},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(chief, nil)
	ddb := &mocksdb.CaptainDecisionDatabase{}
	ddb.On("FindOne", mock.Anything, mock.Anything).Return(decision, nil)

	d := handlers.Decision{DB: ddb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]interface{}{"approved": true})
	req, _ := http.NewRequest("PUT", "/api/v1/decision/"+decision.ID.Hex()+"/chief-review", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"decision_id": decision.ID.Hex()})
	req = authed(req, "chief@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(d.ChiefReviewHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
