package handlers_test

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	mocksdb "github.com/policeops/criminal-case-api/databases/mocks"
	"github.com/stretchr/testify/mock"

	"github.com/policeops/criminal-case-api/api"
	"github.com/policeops/criminal-case-api/models"
	"github.com/policeops/criminal-case-api/services"
)

// testUser builds a user with the given roles for actor resolution.
func testUser(email string, roles ...string) *models.User {
	return &models.User{
		ID: primitive.NewObjectID(),
		Details: models.UserDetails{
			Username: email,
			Email:    email,
			Roles:    roles,
		},
	}
}

// authed stamps the request with an authenticated email the way the auth
// middleware does.
func authed(r *http.Request, email string) *http.Request {
	return r.WithContext(api.ContextWithUser(r.Context(), email))
}

// testNotifier returns a notifier whose writes all land in permissive mocks,
// so handler tests don't have to care about notification fan-out.
func testNotifier() *services.Notifier {
	ndb := &mocksdb.NotificationDatabase{}
	ndb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	udb := &mocksdb.UserDatabase{}
	udb.On("Find", mock.Anything, mock.Anything).Return([]models.User{}, nil)
	return &services.Notifier{NDB: ndb, UDB: udb}
}

// testAuditor returns an auditor backed by a permissive mock.
func testAuditor() *services.Auditor {
	adb := &mocksdb.AuditLogDatabase{}
	adb.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	return services.NewAuditor(adb)
}
