package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// CrimeSceneReport holds the structure for the crime scene report collection
// in mongo. One report per case.
type CrimeSceneReport struct {
	ID      primitive.ObjectID      `json:"_id" bson:"_id"`
	Details CrimeSceneReportDetails `json:"crimeSceneReport" bson:"crimeSceneReport"`
}

// CrimeSceneReportDetails holds the inner crime scene report structure
type CrimeSceneReportDetails struct {
	CaseID        string             `json:"caseID" bson:"caseID"`
	ReportedByID  string             `json:"reportedByID" bson:"reportedByID"`
	SceneDateTime primitive.DateTime `json:"sceneDateTime" bson:"sceneDateTime"`

	LocationDescription  string `json:"locationDescription" bson:"locationDescription"`
	WitnessesContactInfo string `json:"witnessesContactInfo" bson:"witnessesContactInfo"`

	// Approval fields are set at most once.
	ApprovedBySupervisorID string             `json:"approvedBySupervisorID" bson:"approvedBySupervisorID"`
	ApprovedAt             primitive.DateTime `json:"approvedAt,omitempty" bson:"approvedAt,omitempty"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
