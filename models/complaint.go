package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Complaint statuses
const (
	ComplaintStatusDraft            = "draft"
	ComplaintStatusPendingTrainee   = "pending_trainee"
	ComplaintStatusCorrectionNeeded = "correction_needed"
	ComplaintStatusPendingOfficer   = "pending_officer"
	ComplaintStatusApproved         = "approved"
	ComplaintStatusRejected         = "rejected"
)

// MaxComplaintCorrections is the number of failed corrections after which a
// complaint is rejected for good.
const MaxComplaintCorrections = 3

// Complaint holds the structure for the complaint collection in mongo
type Complaint struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details ComplaintDetails   `json:"complaint" bson:"complaint"`
}

// ComplaintDetails holds the inner complaint structure
type ComplaintDetails struct {
	ComplainantID string `json:"complainantID" bson:"complainantID"`
	Title         string `json:"title" bson:"title"`
	Description   string `json:"description" bson:"description"`
	Status        string `json:"status" bson:"status"`

	CorrectionCount       int    `json:"correctionCount" bson:"correctionCount"`
	LastCorrectionMessage string `json:"lastCorrectionMessage" bson:"lastCorrectionMessage"`

	ReviewedByTraineeID string `json:"reviewedByTraineeID" bson:"reviewedByTraineeID"`
	ReviewedByOfficerID string `json:"reviewedByOfficerID" bson:"reviewedByOfficerID"`

	// CaseID is set exactly once, when the officer approves the complaint.
	CaseID string `json:"caseID" bson:"caseID"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
