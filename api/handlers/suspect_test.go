package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/policeops/criminal-case-api/api/handlers"
	mocksdb "github.com/policeops/criminal-case-api/databases/mocks"
	"github.com/policeops/criminal-case-api/models"
)

func TestSuspect_ProposeSuspectHandler(t *testing.T) {
	detective := testUser("det@pd.gov", models.RoleDetective)
	caseID := primitive.NewObjectID()

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(detective, nil)
	casedb := &mocksdb.CaseDatabase{}
	casedb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Case{ID: caseID}, nil)
	sdb := &mocksdb.SuspectDatabase{}
	sdb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	sdb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	s := handlers.Suspect{DB: sdb, CaseDB: casedb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]string{
		"caseID": caseID.Hex(),
		"userID": primitive.NewObjectID().Hex(),
	})
	req, _ := http.NewRequest("POST", "/api/v1/case/"+caseID.Hex()+"/suspects", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"case_id": caseID.Hex()})
	req = authed(req, "det@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.ProposeSuspectHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var created models.Suspect
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, models.SuspectStatusUnderInvestigation, created.Details.Status)
	assert.Equal(t, detective.ID.Hex(), created.Details.ProposedByDetectiveID)
}

func TestSuspect_ProposeSuspectHandlerDuplicate(t *testing.T) {
	detective := testUser("det@pd.gov", models.RoleDetective)
	caseID := primitive.NewObjectID()

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(detective, nil)
	casedb := &mocksdb.CaseDatabase{}
	casedb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Case{ID: caseID}, nil)
	sdb := &mocksdb.SuspectDatabase{}
	sdb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(1), nil)

	s := handlers.Suspect{DB: sdb, CaseDB: casedb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]string{
		"caseID": caseID.Hex(),
		"userID": primitive.NewObjectID().Hex(),
	})
	req, _ := http.NewRequest("POST", "/api/v1/case/"+caseID.Hex()+"/suspects", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"case_id": caseID.Hex()})
	req = authed(req, "det@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.ProposeSuspectHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestSuspect_ProposeSuspectHandlerNotDetective(t *testing.T) {
	officer := testUser("officer@pd.gov", models.RoleOfficer)

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(officer, nil)

	s := handlers.Suspect{DB: &mocksdb.SuspectDatabase{}, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	req, _ := http.NewRequest("POST", "/api/v1/case/x/suspects", bytes.NewReader([]byte("{}")))
	req = authed(req, "officer@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.ProposeSuspectHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestSuspect_ReviewSuspectHandlerAlreadyReviewed(t *testing.T) {
	sergeant := testUser("sgt@pd.gov", models.RoleSergeant)
	suspect := &models.Suspect{
		ID: primitive.NewObjectID(),
		Details: models.SuspectDetails{
			CaseID: primitive.NewObjectID().Hex(),
			Status: models.SuspectStatusArrested,
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(sergeant, nil)
	sdb := &mocksdb.SuspectDatabase{}
	sdb.On("FindOne", mock.Anything, mock.Anything).Return(suspect, nil)
	sdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)

	s := handlers.Suspect{DB: sdb, CaseDB: &mocksdb.CaseDatabase{}, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]interface{}{"approved": true})
	req, _ := http.NewRequest("PUT", "/api/v1/suspect/"+suspect.ID.Hex()+"/review", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"suspect_id": suspect.ID.Hex()})
	req = authed(req, "sgt@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.ReviewSuspectHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestSuspect_ReviewSuspectHandlerReject(t *testing.T) {
	sergeant := testUser("sgt@pd.gov", models.RoleSergeant)
	caseID := primitive.NewObjectID()
	suspect := &models.Suspect{
		ID: primitive.NewObjectID(),
		Details: models.SuspectDetails{
			CaseID:                caseID.Hex(),
			Status:                models.SuspectStatusUnderInvestigation,
			ProposedByDetectiveID: primitive.NewObjectID().Hex(),
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(sergeant, nil)
	sdb := &mocksdb.SuspectDatabase{}
	sdb.On("FindOne", mock.Anything, mock.Anything).Return(suspect, nil)
	sdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	sdb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	casedb := &mocksdb.CaseDatabase{}
	casedb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)

	s := handlers.Suspect{DB: sdb, CaseDB: casedb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]interface{}{
		"approved":         false,
		"rejectionMessage": "insufficient evidence",
	})
	req, _ := http.NewRequest("PUT", "/api/v1/suspect/"+suspect.ID.Hex()+"/review", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"suspect_id": suspect.ID.Hex()})
	req = authed(req, "sgt@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.ReviewSuspectHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSuspect_ReviewSuspectHandlerApproveClearsSupervisorWait(t *testing.T) {
	sergeant := testUser("sgt@pd.gov", models.RoleSergeant)
	caseID := primitive.NewObjectID()
	detectiveID := primitive.NewObjectID().Hex()
	suspect := &models.Suspect{
		ID: primitive.NewObjectID(),
		Details: models.SuspectDetails{
			CaseID:                caseID.Hex(),
			Status:                models.SuspectStatusUnderInvestigation,
			ProposedByDetectiveID: detectiveID,
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(sergeant, nil)
	sdb := &mocksdb.SuspectDatabase{}
	sdb.On("FindOne", mock.Anything, mock.Anything).Return(suspect, nil)
	sdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	sdb.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)

	var caseFilter, caseUpdate bson.M
	casedb := &mocksdb.CaseDatabase{}
	casedb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			caseFilter = args.Get(1).(bson.M)
			caseUpdate = args.Get(2).(bson.M)
		}).
		Return(int64(1), nil)
	casedb.On("FindOne", mock.Anything, mock.Anything).Return(&models.Case{
		ID: caseID,
		Details: models.CaseDetails{
			AssignedDetectiveID: detectiveID,
		},
	}, nil)

	s := handlers.Suspect{DB: sdb, CaseDB: casedb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]interface{}{"approved": true})
	req, _ := http.NewRequest("PUT", "/api/v1/suspect/"+suspect.ID.Hex()+"/review", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"suspect_id": suspect.ID.Hex()})
	req = authed(req, "sgt@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.ReviewSuspectHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	casedb.AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)

	assert.Equal(t, models.CaseStatusWaitingSupervisor, caseFilter["case.status"])
	set := caseUpdate["$set"].(bson.M)
	assert.Equal(t, models.CaseStatusUnderInvestigation, set["case.status"])
}

func TestSuspect_ReviewSuspectHandlerRejectNeedsMessage(t *testing.T) {
	sergeant := testUser("sgt@pd.gov", models.RoleSergeant)

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(sergeant, nil)
	sdb := &mocksdb.SuspectDatabase{}

	s := handlers.Suspect{DB: sdb, CaseDB: &mocksdb.CaseDatabase{}, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	suspectID := primitive.NewObjectID().Hex()
	body, _ := json.Marshal(map[string]interface{}{"approved": false})
	req, _ := http.NewRequest("PUT", "/api/v1/suspect/"+suspectID+"/review", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"suspect_id": suspectID})
	req = authed(req, "sgt@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.ReviewSuspectHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	sdb.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestSuspect_MostWantedHandlerRankingAndReward(t *testing.T) {
	caseID := primitive.NewObjectID()
	pursuitStart := primitive.NewDateTimeFromTime(time.Now().AddDate(0, 0, -31).Add(-time.Hour))

	older := models.Suspect{
		ID: primitive.NewObjectID(),
		Details: models.SuspectDetails{
			CaseID:           caseID.Hex(),
			UserID:           primitive.NewObjectID().Hex(),
			Status:           models.SuspectStatusMostWanted,
			FirstPursuitDate: pursuitStart,
		},
	}
	newer := models.Suspect{
		ID: primitive.NewObjectID(),
		Details: models.SuspectDetails{
			CaseID:           caseID.Hex(),
			UserID:           primitive.NewObjectID().Hex(),
			Status:           models.SuspectStatusMostWanted,
			FirstPursuitDate: primitive.NewDateTimeFromTime(time.Now().AddDate(0, 0, -5)),
		},
	}

	sdb := &mocksdb.SuspectDatabase{}
	sdb.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	sdb.On("Find", mock.Anything, mock.Anything).Return([]models.Suspect{newer, older}, nil)
	casedb := &mocksdb.CaseDatabase{}
	casedb.On("Find", mock.Anything, mock.Anything).Return([]models.Case{{
		ID: caseID,
		Details: models.CaseDetails{
			Title:    "Downtown armed robbery",
			Severity: models.SeverityMajor,
		},
	}}, nil)

	s := handlers.Suspect{DB: sdb, CaseDB: casedb, Notifier: testNotifier(), Auditor: testAuditor()}

	req, _ := http.NewRequest("GET", "/api/v1/most-wanted", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(s.MostWantedHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var entries []models.MostWantedEntry
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)

	// 31 days at major severity weighs 31*3=93 points, 20M apiece
	assert.Equal(t, older.ID.Hex(), entries[0].SuspectID)
	assert.Equal(t, 31, entries[0].DaysPursued)
	assert.Equal(t, 93, entries[0].RankingScore)
	assert.Equal(t, int64(1_860_000_000), entries[0].Reward)
	assert.Equal(t, 3, entries[0].CrimeDegree)

	assert.Equal(t, newer.ID.Hex(), entries[1].SuspectID)
	assert.True(t, entries[0].RankingScore > entries[1].RankingScore)
}

func TestSuspect_SuspectByIDHandlerEscalatesOverdue(t *testing.T) {
	suspect := &models.Suspect{
		ID: primitive.NewObjectID(),
		Details: models.SuspectDetails{
			CaseID:           primitive.NewObjectID().Hex(),
			Status:           models.SuspectStatusUnderInvestigation,
			FirstPursuitDate: primitive.NewDateTimeFromTime(time.Now().AddDate(0, 0, -40)),
		},
	}

	sdb := &mocksdb.SuspectDatabase{}
	sdb.On("FindOne", mock.Anything, mock.Anything).Return(suspect, nil)
	sdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)

	s := handlers.Suspect{DB: sdb, Notifier: testNotifier(), Auditor: testAuditor()}

	req, _ := http.NewRequest("GET", "/api/v1/suspect/"+suspect.ID.Hex(), nil)
	req = mux.SetURLVars(req, map[string]string{"suspect_id": suspect.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.SuspectByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got models.Suspect
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, models.SuspectStatusMostWanted, got.Details.Status)
	sdb.AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}
