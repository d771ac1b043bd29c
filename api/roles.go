package api

import (
	"strings"

	"github.com/policeops/criminal-case-api/models"
)

// Role sets referenced by the workflow guards. Membership checks are
// case-insensitive because roles are stored as free-form data.
var (
	// SupervisorRoles may review crime scene reports, suspect proposals
	// and interrogation scores.
	SupervisorRoles = []string{
		models.RoleSergeant,
		models.RoleCaptain,
		models.RolePoliceChief,
		models.RoleSystemAdmin,
	}

	// ReferralRoles may refer a decided case to the judiciary.
	ReferralRoles = []string{
		models.RoleCaptain,
		models.RolePoliceChief,
		models.RoleJudge,
		models.RoleSystemAdmin,
	}

	// OfficerOrAboveRoles may perform the final complaint review.
	OfficerOrAboveRoles = []string{
		models.RoleOfficer,
		models.RoleDetective,
		models.RoleSergeant,
		models.RoleCaptain,
		models.RolePoliceChief,
		models.RoleSystemAdmin,
	}

	// TraineeOrAboveRoles may perform the initial complaint review.
	TraineeOrAboveRoles = []string{
		models.RoleIntern,
		models.RoleOfficer,
		models.RoleDetective,
		models.RoleSergeant,
		models.RoleCaptain,
		models.RolePoliceChief,
		models.RoleSystemAdmin,
	}
)

// HasRole reports whether roles contains want, ignoring case.
func HasRole(roles []string, want string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, want) {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether roles contains at least one of wanted.
func HasAnyRole(roles []string, wanted []string) bool {
	for _, w := range wanted {
		if HasRole(roles, w) {
			return true
		}
	}
	return false
}
