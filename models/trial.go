package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Verdict types
const (
	VerdictGuilty   = "guilty"
	VerdictInnocent = "innocent"
)

// Trial holds the structure for the trial collection in mongo. One per case,
// with get-or-create semantics on referral.
type Trial struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details TrialDetails       `json:"trial" bson:"trial"`
}

// TrialDetails holds the inner trial structure
type TrialDetails struct {
	CaseID    string             `json:"caseID" bson:"caseID"`
	SuspectID string             `json:"suspectID" bson:"suspectID"`
	JudgeID   string             `json:"judgeID" bson:"judgeID"`
	StartedAt primitive.DateTime `json:"startedAt" bson:"startedAt"`
	ClosedAt  primitive.DateTime `json:"closedAt,omitempty" bson:"closedAt,omitempty"`
}

// Verdict holds the structure for the verdict collection in mongo. Recording
// one is the terminal event of the case pipeline.
type Verdict struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details VerdictDetails     `json:"verdict" bson:"verdict"`
}

// VerdictDetails holds the inner verdict structure
type VerdictDetails struct {
	TrialID     string `json:"trialID" bson:"trialID"`
	VerdictType string `json:"verdictType" bson:"verdictType"`
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`

	PunishmentTitle       string `json:"punishmentTitle" bson:"punishmentTitle"`
	PunishmentDescription string `json:"punishmentDescription" bson:"punishmentDescription"`

	RecordedByID string             `json:"recordedByID" bson:"recordedByID"`
	RecordedAt   primitive.DateTime `json:"recordedAt" bson:"recordedAt"`
}
