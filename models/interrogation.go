package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Interrogation score bounds (guilt probability).
const (
	MinInterrogationScore = 1
	MaxInterrogationScore = 10
)

// Interrogation holds the structure for the interrogation collection in
// mongo. One record per suspect; each score is settable exactly once.
type Interrogation struct {
	ID      primitive.ObjectID   `json:"_id" bson:"_id"`
	Details InterrogationDetails `json:"interrogation" bson:"interrogation"`
}

// InterrogationDetails holds the inner interrogation structure
type InterrogationDetails struct {
	SuspectID string `json:"suspectID" bson:"suspectID"`
	CaseID    string `json:"caseID" bson:"caseID"`

	DetectiveScore       *int   `json:"detectiveScore" bson:"detectiveScore"`
	DetectiveScoredByID  string `json:"detectiveScoredByID" bson:"detectiveScoredByID"`
	SupervisorScore      *int   `json:"supervisorScore" bson:"supervisorScore"`
	SupervisorScoredByID string `json:"supervisorScoredByID" bson:"supervisorScoredByID"`

	// Notes are append-only.
	Notes []InterrogationNote `json:"notes" bson:"notes"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// InterrogationNote is a single appended note
type InterrogationNote struct {
	AuthorID string             `json:"authorID" bson:"authorID"`
	Text     string             `json:"text" bson:"text"`
	AddedAt  primitive.DateTime `json:"addedAt" bson:"addedAt"`
}

// ValidScore reports whether v is a legal guilt probability.
func ValidScore(v int) bool {
	return v >= MinInterrogationScore && v <= MaxInterrogationScore
}
