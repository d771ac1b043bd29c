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
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/policeops/criminal-case-api/api/handlers"
	mocksdb "github.com/policeops/criminal-case-api/databases/mocks"
	"github.com/policeops/criminal-case-api/models"
)

func TestInterrogation_BySuspectHandlerCreatesOnFirstAccess(t *testing.T) {
	detective := testUser("det@pd.gov", models.RoleDetective)
	suspect := &models.Suspect{
		ID: primitive.NewObjectID(),
		Details: models.SuspectDetails{
			CaseID: primitive.NewObjectID().Hex(),
			Status: models.SuspectStatusArrested,
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(detective, nil)
	idb := &mocksdb.InterrogationDatabase{}
	idb.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)
	idb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	sdb := &mocksdb.SuspectDatabase{}
	sdb.On("FindOne", mock.Anything, mock.Anything).Return(suspect, nil)

	h := handlers.Interrogation{DB: idb, SDB: sdb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	req, _ := http.NewRequest("GET", "/api/v1/suspect/"+suspect.ID.Hex()+"/interrogation", nil)
	req = mux.SetURLVars(req, map[string]string{"suspect_id": suspect.ID.Hex()})
	req = authed(req, "det@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.InterrogationBySuspectHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var record models.Interrogation
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &record))
	assert.Equal(t, suspect.ID.Hex(), record.Details.SuspectID)
	assert.Equal(t, suspect.Details.CaseID, record.Details.CaseID)
	idb.AssertCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestInterrogation_DetectiveScoreHandlerScoreBounds(t *testing.T) {
	detective := testUser("det@pd.gov", models.RoleDetective)

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(detective, nil)

	h := handlers.Interrogation{DB: &mocksdb.InterrogationDatabase{}, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	id := primitive.NewObjectID().Hex()
	for _, score := range []int{0, 11, -3} {
		body, _ := json.Marshal(map[string]interface{}{"score": score})
		req, _ := http.NewRequest("PUT", "/api/v1/interrogation/"+id+"/detective-score", bytes.NewReader(body))
		req = mux.SetURLVars(req, map[string]string{"interrogation_id": id})
		req = authed(req, "det@pd.gov")

		rr := httptest.NewRecorder()
		http.HandlerFunc(h.DetectiveScoreHandler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code, "score %d must be rejected", score)
	}
}

func TestInterrogation_DetectiveScoreHandlerOnlyAssignedDetective(t *testing.T) {
	detective := testUser("det@pd.gov", models.RoleDetective)
	caseID := primitive.NewObjectID()
	record := &models.Interrogation{
		ID: primitive.NewObjectID(),
		Details: models.InterrogationDetails{
			SuspectID: primitive.NewObjectID().Hex(),
			CaseID:    caseID.Hex(),
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(detective, nil)
	idb := &mocksdb.InterrogationDatabase{}
	idb.On("FindOne", mock.Anything, mock.Anything).Return(record, nil)
	casedb := &mocksdb.CaseDatabase{}
	casedb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Case{
		ID:      caseID,
		Details: models.CaseDetails{AssignedDetectiveID: primitive.NewObjectID().Hex()},
	}, nil)

	h := handlers.Interrogation{DB: idb, CaseDB: casedb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]interface{}{"score": 7})
	req, _ := http.NewRequest("PUT", "/api/v1/interrogation/"+record.ID.Hex()+"/detective-score", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"interrogation_id": record.ID.Hex()})
	req = authed(req, "det@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.DetectiveScoreHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestInterrogation_DetectiveScoreHandlerOneShot(t *testing.T) {
	detective := testUser("det@pd.gov", models.RoleDetective)
	caseID := primitive.NewObjectID()
	record := &models.Interrogation{
		ID: primitive.NewObjectID(),
		Details: models.InterrogationDetails{
			SuspectID: primitive.NewObjectID().Hex(),
			CaseID:    caseID.Hex(),
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(detective, nil)
	idb := &mocksdb.InterrogationDatabase{}
	idb.On("FindOne", mock.Anything, mock.Anything).Return(record, nil)
	idb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	casedb := &mocksdb.CaseDatabase{}
	casedb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Case{
		ID:      caseID,
		Details: models.CaseDetails{AssignedDetectiveID: detective.ID.Hex()},
	}, nil)

	h := handlers.Interrogation{DB: idb, CaseDB: casedb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]interface{}{"score": 7})
	req, _ := http.NewRequest("PUT", "/api/v1/interrogation/"+record.ID.Hex()+"/detective-score", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"interrogation_id": record.ID.Hex()})
	req = authed(req, "det@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.DetectiveScoreHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestInterrogation_SupervisorScoreHandlerRecords(t *testing.T) {
	sergeant := testUser("sgt@pd.gov", models.RoleSergeant)
	record := &models.Interrogation{
		ID: primitive.NewObjectID(),
		Details: models.InterrogationDetails{
			SuspectID: primitive.NewObjectID().Hex(),
			CaseID:    primitive.NewObjectID().Hex(),
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(sergeant, nil)
	idb := &mocksdb.InterrogationDatabase{}
	idb.On("FindOne", mock.Anything, mock.Anything).Return(record, nil)
	idb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)

	h := handlers.Interrogation{DB: idb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]interface{}{"score": 9, "note": "confessed under questioning"})
	req, _ := http.NewRequest("PUT", "/api/v1/interrogation/"+record.ID.Hex()+"/supervisor-score", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"interrogation_id": record.ID.Hex()})
	req = authed(req, "sgt@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.SupervisorScoreHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestInterrogation_AddNoteHandler(t *testing.T) {
	intern := testUser("intern@pd.gov", models.RoleIntern)
	id := primitive.NewObjectID()

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(intern, nil)
	idb := &mocksdb.InterrogationDatabase{}
	idb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)

	h := handlers.Interrogation{DB: idb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]string{"text": "suspect was uncooperative"})
	req, _ := http.NewRequest("POST", "/api/v1/interrogation/"+id.Hex()+"/notes", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"interrogation_id": id.Hex()})
	req = authed(req, "intern@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.AddNoteHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
}
