// Package docs Criminal Case API.
//
// Documentation of the Criminal Case API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - basic
//
//    SecurityDefinitions:
//    basic:
//      type: basic
//
// swagger:meta
package docs

import (
	"github.com/policeops/criminal-case-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route POST /api/v1/complaint complaint submitComplaint
// Submits a new complaint for trainee review.
// responses:
//   201: complaintResponse

// A complaint with its review state and correction count.
// swagger:response complaintResponse
type complaintResponseWrapper struct {
	// in:body
	Body models.Complaint
}

// swagger:route GET /api/v1/case/{case_id} case caseByID
// Gets a single case by ID.
// responses:
//   200: caseByIDResponse

// Shows a single case by the given {ID}
// swagger:response caseByIDResponse
type caseByIDResponseWrapper struct {
	// in:body
	Body models.Case
}

// swagger:route GET /api/v1/suspect/{suspect_id} suspect suspectByID
// Gets a single suspect by ID. Overdue pursuits escalate to most wanted on read.
// responses:
//   200: suspectByIDResponse

// Shows a single suspect by the given {ID}
// swagger:response suspectByIDResponse
type suspectByIDResponseWrapper struct {
	// in:body
	Body models.Suspect
}

// swagger:route GET /api/v1/most-wanted suspect mostWantedList
// Lists most wanted suspects ranked by days pursued times crime degree.
// responses:
//   200: mostWantedResponse

// The public most wanted board with rewards.
// swagger:response mostWantedResponse
type mostWantedResponseWrapper struct {
	// in:body
	Body []models.MostWantedEntry
}

// swagger:route GET /api/v1/trial/{trial_id}/verdict trial verdictByTrial
// Gets the verdict recorded for a trial.
// responses:
//   200: verdictResponse

// The verdict that closed a trial.
// swagger:response verdictResponse
type verdictResponseWrapper struct {
	// in:body
	Body models.Verdict
}
