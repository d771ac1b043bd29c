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
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/policeops/criminal-case-api/api/handlers"
	"github.com/policeops/criminal-case-api/databases"
	mocksdb "github.com/policeops/criminal-case-api/databases/mocks"
	"github.com/policeops/criminal-case-api/models"
)

func TestVerdict_RecordVerdictHandlerClosingCascade(t *testing.T) {
	judge := testUser("judge@court.gov", models.RoleJudge)
	suspectID := primitive.NewObjectID()
	caseID := primitive.NewObjectID()
	trial := &models.Trial{
		ID: primitive.NewObjectID(),
		Details: models.TrialDetails{
			CaseID:    caseID.Hex(),
			SuspectID: suspectID.Hex(),
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(judge, nil)
	tdb := &mocksdb.TrialDatabase{}
	tdb.On("FindOne", mock.Anything, mock.Anything).Return(trial, nil)
	tdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	vdb := &mocksdb.VerdictDatabase{}
	vdb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	casedb := &mocksdb.CaseDatabase{}
	casedb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	sdb := &mocksdb.SuspectDatabase{}
	sdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)

	v := handlers.Verdict{
		DB: vdb, TDB: tdb, CaseDB: casedb, SDB: sdb, UDB: udb,
		Tx:       databases.NoopTransactor{},
		Notifier: testNotifier(), Auditor: testAuditor(),
	}

	body, _ := json.Marshal(map[string]string{
		"verdictType":     models.VerdictGuilty,
		"title":           "Guilty as charged",
		"punishmentTitle": "Five years imprisonment",
	})
	req, _ := http.NewRequest("POST", "/api/v1/trial/"+trial.ID.Hex()+"/verdict", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"trial_id": trial.ID.Hex()})
	req = authed(req, "judge@court.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(v.RecordVerdictHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var recorded models.Verdict
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recorded))
	assert.Equal(t, trial.ID.Hex(), recorded.Details.TrialID)
	assert.Equal(t, judge.ID.Hex(), recorded.Details.RecordedByID)

	// trial closed, case closed, suspect convicted
	tdb.AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	casedb.AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	sdb.AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerdict_RecordVerdictHandlerSecondVerdictConflicts(t *testing.T) {
	judge := testUser("judge@court.gov", models.RoleJudge)
	trial := &models.Trial{
		ID: primitive.NewObjectID(),
		Details: models.TrialDetails{
			CaseID: primitive.NewObjectID().Hex(),
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(judge, nil)
	tdb := &mocksdb.TrialDatabase{}
	tdb.On("FindOne", mock.Anything, mock.Anything).Return(trial, nil)
	tdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	vdb := &mocksdb.VerdictDatabase{}

	v := handlers.Verdict{
		DB: vdb, TDB: tdb, UDB: udb,
		Tx:       databases.NoopTransactor{},
		Notifier: testNotifier(), Auditor: testAuditor(),
	}

	body, _ := json.Marshal(map[string]string{"verdictType": models.VerdictInnocent})
	req, _ := http.NewRequest("POST", "/api/v1/trial/"+trial.ID.Hex()+"/verdict", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"trial_id": trial.ID.Hex()})
	req = authed(req, "judge@court.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(v.RecordVerdictHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	vdb.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestVerdict_RecordVerdictHandlerInvalidType(t *testing.T) {
	judge := testUser("judge@court.gov", models.RoleJudge)

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(judge, nil)

	v := handlers.Verdict{
		DB: &mocksdb.VerdictDatabase{}, UDB: udb,
		Tx:       databases.NoopTransactor{},
		Notifier: testNotifier(), Auditor: testAuditor(),
	}

	id := primitive.NewObjectID().Hex()
	body, _ := json.Marshal(map[string]string{"verdictType": "maybe"})
	req, _ := http.NewRequest("POST", "/api/v1/trial/"+id+"/verdict", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"trial_id": id})
	req = authed(req, "judge@court.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(v.RecordVerdictHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVerdict_RecordVerdictHandlerRequiresJudge(t *testing.T) {
	captain := testUser("cap@pd.gov", models.RoleCaptain)

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(captain, nil)

	v := handlers.Verdict{
		DB: &mocksdb.VerdictDatabase{}, UDB: udb,
		Tx:       databases.NoopTransactor{},
		Notifier: testNotifier(), Auditor: testAuditor(),
	}

	id := primitive.NewObjectID().Hex()
	body, _ := json.Marshal(map[string]string{"verdictType": models.VerdictGuilty})
	req, _ := http.NewRequest("POST", "/api/v1/trial/"+id+"/verdict", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"trial_id": id})
	req = authed(req, "cap@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(v.RecordVerdictHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestVerdict_VerdictByTrialHandler(t *testing.T) {
	trialID := primitive.NewObjectID()
	verdict := &models.Verdict{
		ID: primitive.NewObjectID(),
		Details: models.VerdictDetails{
			TrialID:     trialID.Hex(),
			VerdictType: models.VerdictGuilty,
		},
	}

	vdb := &mocksdb.VerdictDatabase{}
	vdb.On("FindOne", mock.Anything, mock.Anything).Return(verdict, nil)

	v := handlers.Verdict{DB: vdb, Notifier: testNotifier(), Auditor: testAuditor()}

	req, _ := http.NewRequest("GET", "/api/v1/trial/"+trialID.Hex()+"/verdict", nil)
	req = mux.SetURLVars(req, map[string]string{"trial_id": trialID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(v.VerdictByTrialHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got models.Verdict
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, models.VerdictGuilty, got.Details.VerdictType)
}
