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

	"github.com/policeops/criminal-case-api/api/handlers"
	mocksdb "github.com/policeops/criminal-case-api/databases/mocks"
	"github.com/policeops/criminal-case-api/models"
)

func TestComplaint_SubmitComplaintHandler(t *testing.T) {
	complainant := testUser("jane@example.com", models.RoleComplainant)

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(complainant, nil)
	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	c := handlers.Complaint{DB: cdb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]string{
		"title":       "Stolen bicycle",
		"description": "Bicycle stolen from the market square",
	})
	req, _ := http.NewRequest("POST", "/api/v1/complaint", bytes.NewReader(body))
	req = authed(req, "jane@example.com")

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.SubmitComplaintHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var created models.Complaint
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, models.ComplaintStatusPendingTrainee, created.Details.Status)
	assert.Equal(t, complainant.ID.Hex(), created.Details.ComplainantID)
	assert.Equal(t, 0, created.Details.CorrectionCount)
}

func TestComplaint_SubmitComplaintHandlerMissingFields(t *testing.T) {
	complainant := testUser("jane@example.com", models.RoleComplainant)

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(complainant, nil)

	c := handlers.Complaint{DB: &mocksdb.ComplaintDatabase{}, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]string{"title": "No description"})
	req, _ := http.NewRequest("POST", "/api/v1/complaint", bytes.NewReader(body))
	req = authed(req, "jane@example.com")

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.SubmitComplaintHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestComplaint_TraineeReviewHandlerApprove(t *testing.T) {
	intern := testUser("intern@pd.gov", models.RoleIntern)
	complaint := &models.Complaint{
		ID: primitive.NewObjectID(),
		Details: models.ComplaintDetails{
			ComplainantID: primitive.NewObjectID().Hex(),
			Title:         "Stolen bicycle",
			Status:        models.ComplaintStatusPendingTrainee,
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(intern, nil)
	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, mock.Anything).Return(complaint, nil)
	cdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)

	c := handlers.Complaint{DB: cdb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]interface{}{"approved": true})
	req, _ := http.NewRequest("PUT", "/api/v1/complaint/"+complaint.ID.Hex()+"/trainee-review", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"complaint_id": complaint.ID.Hex()})
	req = authed(req, "intern@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.TraineeReviewHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestComplaint_TraineeReviewHandlerRejectNeedsMessage(t *testing.T) {
	intern := testUser("intern@pd.gov", models.RoleIntern)

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(intern, nil)

	c := handlers.Complaint{DB: &mocksdb.ComplaintDatabase{}, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	id := primitive.NewObjectID().Hex()
	body, _ := json.Marshal(map[string]interface{}{"approved": false})
	req, _ := http.NewRequest("PUT", "/api/v1/complaint/"+id+"/trainee-review", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"complaint_id": id})
	req = authed(req, "intern@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.TraineeReviewHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestComplaint_TraineeReviewHandlerWrongState(t *testing.T) {
	intern := testUser("intern@pd.gov", models.RoleIntern)
	complaint := &models.Complaint{
		ID: primitive.NewObjectID(),
		Details: models.ComplaintDetails{
			Status: models.ComplaintStatusApproved,
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(intern, nil)
	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, mock.Anything).Return(complaint, nil)
	cdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)

	c := handlers.Complaint{DB: cdb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]interface{}{"approved": true})
	req, _ := http.NewRequest("PUT", "/api/v1/complaint/"+complaint.ID.Hex()+"/trainee-review", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"complaint_id": complaint.ID.Hex()})
	req = authed(req, "intern@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.TraineeReviewHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestComplaint_CorrectComplaintHandlerThirdStrikeRejects(t *testing.T) {
	complainant := testUser("jane@example.com", models.RoleComplainant)
	complaint := &models.Complaint{
		ID: primitive.NewObjectID(),
		Details: models.ComplaintDetails{
			ComplainantID:   complainant.ID.Hex(),
			Title:           "Stolen bicycle",
			Status:          models.ComplaintStatusCorrectionNeeded,
			CorrectionCount: 2,
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(complainant, nil)
	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, mock.Anything).Return(complaint, nil)
	cdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)

	c := handlers.Complaint{DB: cdb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]string{"description": "Third attempt"})
	req, _ := http.NewRequest("PUT", "/api/v1/complaint/"+complaint.ID.Hex()+"/correct", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"complaint_id": complaint.ID.Hex()})
	req = authed(req, "jane@example.com")

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CorrectComplaintHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, float64(3), resp["correctionCount"])
	assert.Equal(t, models.ComplaintStatusRejected, resp["status"])
}

func TestComplaint_CorrectComplaintHandlerResubmitsForReview(t *testing.T) {
	complainant := testUser("jane@example.com", models.RoleComplainant)
	complaint := &models.Complaint{
		ID: primitive.NewObjectID(),
		Details: models.ComplaintDetails{
			ComplainantID:         complainant.ID.Hex(),
			Title:                 "Stolen bicycle",
			Status:                models.ComplaintStatusCorrectionNeeded,
			CorrectionCount:       0,
			LastCorrectionMessage: "missing the serial number",
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(complainant, nil)
	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, mock.Anything).Return(complaint, nil)
	var gotUpdate bson.M
	cdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			gotUpdate = args.Get(2).(bson.M)
		}).
		Return(int64(1), nil)

	c := handlers.Complaint{DB: cdb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]string{"description": "Serial number added"})
	req, _ := http.NewRequest("PUT", "/api/v1/complaint/"+complaint.ID.Hex()+"/correct", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"complaint_id": complaint.ID.Hex()})
	req = authed(req, "jane@example.com")

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CorrectComplaintHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["correctionCount"])
	assert.Equal(t, models.ComplaintStatusPendingTrainee, resp["status"])

	// the resubmission clears the trainee's correction message
	set := gotUpdate["$set"].(bson.M)
	assert.Equal(t, "", set["complaint.lastCorrectionMessage"])
	assert.Equal(t, "Serial number added", set["complaint.description"])
}

func TestComplaint_CorrectComplaintHandlerNotSubmitter(t *testing.T) {
	stranger := testUser("other@example.com", models.RoleComplainant)
	complaint := &models.Complaint{
		ID: primitive.NewObjectID(),
		Details: models.ComplaintDetails{
			ComplainantID: primitive.NewObjectID().Hex(),
			Status:        models.ComplaintStatusCorrectionNeeded,
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(stranger, nil)
	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, mock.Anything).Return(complaint, nil)

	c := handlers.Complaint{DB: cdb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]string{"description": "nope"})
	req, _ := http.NewRequest("PUT", "/api/v1/complaint/"+complaint.ID.Hex()+"/correct", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"complaint_id": complaint.ID.Hex()})
	req = authed(req, "other@example.com")

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CorrectComplaintHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestComplaint_OfficerReviewHandlerApproveCreatesCase(t *testing.T) {
	officer := testUser("officer@pd.gov", models.RoleOfficer)
	complaint := &models.Complaint{
		ID: primitive.NewObjectID(),
		Details: models.ComplaintDetails{
			ComplainantID: primitive.NewObjectID().Hex(),
			Title:         "Stolen bicycle",
			Description:   "Bicycle stolen from the market square",
			Status:        models.ComplaintStatusPendingOfficer,
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(officer, nil)
	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, mock.Anything).Return(complaint, nil)
	cdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)
	casedb := &mocksdb.CaseDatabase{}
	casedb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	ccdb := &mocksdb.CaseComplainantDatabase{}
	ccdb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	c := handlers.Complaint{DB: cdb, CaseDB: casedb, CCDB: ccdb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]interface{}{"approved": true})
	req, _ := http.NewRequest("PUT", "/api/v1/complaint/"+complaint.ID.Hex()+"/officer-review", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"complaint_id": complaint.ID.Hex()})
	req = authed(req, "officer@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.OfficerReviewHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["caseID"])
	casedb.AssertCalled(t, "InsertOne", mock.Anything, mock.Anything)
	ccdb.AssertCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestComplaint_OfficerReviewHandlerAlreadyDecided(t *testing.T) {
	officer := testUser("officer@pd.gov", models.RoleOfficer)
	complaint := &models.Complaint{
		ID: primitive.NewObjectID(),
		Details: models.ComplaintDetails{
			Status: models.ComplaintStatusApproved,
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(officer, nil)
	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, mock.Anything).Return(complaint, nil)
	cdb.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)

	c := handlers.Complaint{DB: cdb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	body, _ := json.Marshal(map[string]interface{}{"approved": true})
	req, _ := http.NewRequest("PUT", "/api/v1/complaint/"+complaint.ID.Hex()+"/officer-review", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"complaint_id": complaint.ID.Hex()})
	req = authed(req, "officer@pd.gov")

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.OfficerReviewHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestComplaint_ComplaintByIDHandlerOwnerOnly(t *testing.T) {
	stranger := testUser("other@example.com", models.RoleComplainant)
	complaint := &models.Complaint{
		ID: primitive.NewObjectID(),
		Details: models.ComplaintDetails{
			ComplainantID: primitive.NewObjectID().Hex(),
			Status:        models.ComplaintStatusPendingTrainee,
		},
	}

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(stranger, nil)
	cdb := &mocksdb.ComplaintDatabase{}
	cdb.On("FindOne", mock.Anything, mock.Anything).Return(complaint, nil)

	c := handlers.Complaint{DB: cdb, UDB: udb, Notifier: testNotifier(), Auditor: testAuditor()}

	req, _ := http.NewRequest("GET", "/api/v1/complaint/"+complaint.ID.Hex(), nil)
	req = mux.SetURLVars(req, map[string]string{"complaint_id": complaint.ID.Hex()})
	req = authed(req, "other@example.com")

	rr := httptest.NewRecorder()
	http.HandlerFunc(c.ComplaintByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}
