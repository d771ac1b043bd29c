package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Captain decision outcomes
const (
	DecisionGuilty    = "guilty"
	DecisionNotGuilty = "not_guilty"
)

// Chief approval outcomes
const (
	ChiefApprovalApproved = "approved"
	ChiefApprovalRejected = "rejected"
)

// CaptainDecision holds the structure for the captain decision collection in
// mongo. Crisis-severity cases hold the decision until a chief rules on it.
type CaptainDecision struct {
	ID      primitive.ObjectID     `json:"_id" bson:"_id"`
	Details CaptainDecisionDetails `json:"captainDecision" bson:"captainDecision"`
}

// CaptainDecisionDetails holds the inner captain decision structure
type CaptainDecisionDetails struct {
	SuspectID     string `json:"suspectID" bson:"suspectID"`
	CaseID        string `json:"caseID" bson:"caseID"`
	FinalDecision string `json:"finalDecision" bson:"finalDecision"`
	Reasoning     string `json:"reasoning" bson:"reasoning"`
	DecidedByID   string `json:"decidedByID" bson:"decidedByID"`

	// ChiefApprovalRequired is true for crisis-severity cases: the decision
	// is held and has no effect until a chief approves it.
	ChiefApprovalRequired bool `json:"chiefApprovalRequired" bson:"chiefApprovalRequired"`
	// Resolved flips once, either on immediate application or on the chief's
	// ruling. Applied records whether the decision's effects ran.
	Resolved bool `json:"resolved" bson:"resolved"`
	Applied  bool `json:"applied" bson:"applied"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// ChiefApproval holds the structure for the chief approval collection in
// mongo. At most one per captain decision.
type ChiefApproval struct {
	ID      primitive.ObjectID   `json:"_id" bson:"_id"`
	Details ChiefApprovalDetails `json:"chiefApproval" bson:"chiefApproval"`
}

// ChiefApprovalDetails holds the inner chief approval structure
type ChiefApprovalDetails struct {
	CaptainDecisionID string             `json:"captainDecisionID" bson:"captainDecisionID"`
	Status            string             `json:"status" bson:"status"`
	Comment           string             `json:"comment" bson:"comment"`
	ApprovedByID      string             `json:"approvedByID" bson:"approvedByID"`
	CreatedAt         primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
