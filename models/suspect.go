package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Suspect statuses
const (
	SuspectStatusUnderInvestigation = "under_investigation"
	SuspectStatusMostWanted         = "most_wanted"
	SuspectStatusArrested           = "arrested"
	SuspectStatusReleased           = "released"
	SuspectStatusConvicted          = "convicted"
	SuspectStatusRejected           = "rejected"
)

// MostWantedAfterDays is the investigation age past which an unresolved
// suspect escalates to most wanted.
const MostWantedAfterDays = 30

// RewardPerPoint is the bounty per ranking point, in minor currency units.
const RewardPerPoint = 20_000_000

// Suspect holds the structure for the suspect collection in mongo.
// Unique per (case, user) pair.
type Suspect struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details SuspectDetails     `json:"suspect" bson:"suspect"`
}

// SuspectDetails holds the inner suspect structure
type SuspectDetails struct {
	CaseID string `json:"caseID" bson:"caseID"`
	UserID string `json:"userID" bson:"userID"`
	Status string `json:"status" bson:"status"`

	// PendingDecisionID is set while a captain decision on this suspect is
	// unresolved; claiming it with a conditional update keeps decisions
	// one-at-a-time per suspect.
	PendingDecisionID string `json:"pendingDecisionID" bson:"pendingDecisionID"`

	RejectionMessage      string             `json:"rejectionMessage" bson:"rejectionMessage"`
	ProposedByDetectiveID string             `json:"proposedByDetectiveID" bson:"proposedByDetectiveID"`
	ApprovedBySupervisorID string            `json:"approvedBySupervisorID" bson:"approvedBySupervisorID"`
	ApprovedAt            primitive.DateTime `json:"approvedAt,omitempty" bson:"approvedAt,omitempty"`

	MarkedAt primitive.DateTime `json:"markedAt" bson:"markedAt"`
	// FirstPursuitDate never changes after creation; it anchors the
	// elapsed-time escalation and the ranking score.
	FirstPursuitDate primitive.DateTime `json:"firstPursuitDate" bson:"firstPursuitDate"`
}

// DaysPursued returns whole days since the pursuit started, zero for any
// suspect no longer under investigation or most wanted.
func (s *Suspect) DaysPursued(now time.Time) int {
	if s.Details.Status != SuspectStatusUnderInvestigation && s.Details.Status != SuspectStatusMostWanted {
		return 0
	}
	days := int(now.Sub(s.Details.FirstPursuitDate.Time()).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// RankingScore is days pursued weighted by the crime degree of the case.
func (s *Suspect) RankingScore(caseSeverity int, now time.Time) int {
	return s.DaysPursued(now) * CrimeDegree(caseSeverity)
}

// Reward is the bounty for a suspect, derived from the ranking score.
func (s *Suspect) Reward(caseSeverity int, now time.Time) int64 {
	return int64(s.RankingScore(caseSeverity, now)) * RewardPerPoint
}

// EscalatesToMostWanted reports whether an under-investigation suspect has
// passed the most-wanted threshold. Pure function of stored timestamps, safe
// to recompute at any time.
func (s *Suspect) EscalatesToMostWanted(now time.Time) bool {
	return s.Details.Status == SuspectStatusUnderInvestigation && s.DaysPursued(now) > MostWantedAfterDays
}

// MostWantedEntry is the public listing projection for a most wanted suspect.
type MostWantedEntry struct {
	SuspectID        string             `json:"suspectID"`
	CaseID           string             `json:"caseID"`
	UserID           string             `json:"userID"`
	CaseTitle        string             `json:"caseTitle"`
	Severity         int                `json:"severity"`
	CrimeDegree      int                `json:"crimeDegree"`
	DaysPursued      int                `json:"daysPursued"`
	RankingScore     int                `json:"rankingScore"`
	Reward           int64              `json:"reward"`
	FirstPursuitDate primitive.DateTime `json:"firstPursuitDate"`
}
