package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Case severity, ordinal: lower number means more severe.
const (
	SeverityCrisis   = 0 // serial murder, assassination
	SeverityMajor    = 1 // e.g. murder
	SeverityModerate = 2 // e.g. car theft
	SeverityMinor    = 3 // petty theft, minor fraud
)

// Case statuses
const (
	CaseStatusOpen                = "open"
	CaseStatusUnderInvestigation  = "under_investigation"
	CaseStatusWaitingSupervisor   = "waiting_supervisor_approval"
	CaseStatusPendingApproval     = "pending_approval"
	CaseStatusReferredToJudiciary = "referred_to_judiciary"
	CaseStatusClosed              = "closed"
)

// Case holds the structure for the case collection in mongo
type Case struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details CaseDetails        `json:"case" bson:"case"`
}

// CaseDetails holds the inner case structure
type CaseDetails struct {
	Title            string `json:"title" bson:"title"`
	Description      string `json:"description" bson:"description"`
	Severity         int    `json:"severity" bson:"severity"`
	Status           string `json:"status" bson:"status"`
	IsCrimeSceneCase bool   `json:"isCrimeSceneCase" bson:"isCrimeSceneCase"`

	CreatedByID         string `json:"createdByID" bson:"createdByID"`
	AssignedDetectiveID string `json:"assignedDetectiveID" bson:"assignedDetectiveID"`
	ApprovedByCaptainID string `json:"approvedByCaptainID" bson:"approvedByCaptainID"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// ValidSeverity reports whether s is one of the defined severity levels.
func ValidSeverity(s int) bool {
	return s >= SeverityCrisis && s <= SeverityMinor
}

// CrimeDegree converts case severity to a ranking weight: crisis=4, major=3,
// moderate=2, minor=1.
func CrimeDegree(severity int) int {
	return 4 - severity
}

// CaseComplainant links a complainant to a case; one case can have several.
type CaseComplainant struct {
	ID      primitive.ObjectID     `json:"_id" bson:"_id"`
	Details CaseComplainantDetails `json:"caseComplainant" bson:"caseComplainant"`
}

// CaseComplainantDetails holds the inner case complainant structure
type CaseComplainantDetails struct {
	CaseID    string             `json:"caseID" bson:"caseID"`
	UserID    string             `json:"userID" bson:"userID"`
	IsPrimary bool               `json:"isPrimary" bson:"isPrimary"`
	Notes     string             `json:"notes" bson:"notes"`
	AddedAt   primitive.DateTime `json:"addedAt" bson:"addedAt"`
}
