package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/policeops/criminal-case-api/api"
	"github.com/policeops/criminal-case-api/databases"
	"github.com/policeops/criminal-case-api/models"
)

// Page is used to store the page number for pagination
var Page int

func getPage(Page int, r *http.Request) int {
	if r.URL.Query().Get("page") == "" {
		zap.S().Warnf("page not set, using default of %v", Page)
	} else {
		var err error
		Page, err = strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			zap.S().Errorf(fmt.Sprintf("error parsing page number: %v", err))
		}
		if Page < 0 {
			zap.S().Warnf(fmt.Sprintf("cannot process page number less than 1. Got: %v", Page))
			return 0
		}
	}
	return Page
}

// actorFromRequest resolves the authenticated caller to a full user record.
// The auth middleware stores the caller's email on the request context.
func actorFromRequest(r *http.Request, udb databases.UserDatabase) (*models.User, error) {
	email, ok := api.UserFromContext(r.Context())
	if !ok {
		return nil, errors.New("no authenticated user on request")
	}
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	return udb.FindOne(ctx, bson.M{"user.email": email})
}
