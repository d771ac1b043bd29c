package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Canonical role names. Roles are data: admins can add or rename roles at
// runtime, these constants only name the ones the workflow guards reference.
const (
	RoleSystemAdmin = "System Administrator"
	RolePoliceChief = "Police Chief"
	RoleCaptain     = "Captain"
	RoleSergeant    = "Sergeant"
	RoleDetective   = "Detective"
	RoleOfficer     = "Police Officer"
	RoleIntern      = "Intern"
	RoleJudge       = "Judge"
	RoleForensic    = "Forensic Doctor"
	RoleComplainant = "Complainant / Witness"
)

// Role holds the structure for the role collection in mongo
type Role struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details RoleDetails        `json:"role" bson:"role"`
}

// RoleDetails holds the inner role structure
type RoleDetails struct {
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	CreatedAt   primitive.DateTime `json:"createdAt" bson:"createdAt"`
}
