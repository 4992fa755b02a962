package disclosure

import (
	"time"

	"github.com/crisislink/crisislink/server/models"
)

// Role is who is looking at a profile, and why.
type Role string

const (
	RoleOwner  Role = "owner"
	RolePublic Role = "public"

	// RoleMedicalProfessional is a self-asserted emergency-responder
	// claim. There is no credential verification behind it - elevated
	// disclosure here is a broadcast emergency override, not an
	// authorization check.
	RoleMedicalProfessional Role = "medicalProfessionalClaimed"
)

// ViewerContext is created fresh on every access attempt & discarded after
// the response is rendered. The disclosure core never reads ambient state -
// everything it needs to decide visibility is in here.
type ViewerContext struct {
	Role            Role      `json:"role"`
	TargetUsername  string    `json:"target_username"`
	AccessTimestamp time.Time `json:"access_timestamp"`
}

var knownFieldGroups = func() map[string]bool {
	groups := make(map[string]bool, len(models.FieldGroups))
	for _, group := range models.FieldGroups {
		groups[group] = true
	}
	return groups
}()

// IsVisible decides whether one field group is visible to one viewer role.
//
// Owners always see everything about their own profile; a claimed medical
// professional sees everything regardless of privacy flags - that override
// is the explicit purpose of the system. The public sees a group only when
// its privacy flag is set, and a missing flag reads as hidden.
//
// An unrecognized field group or role is an error, not a silent "hidden" -
// a typo must fail loudly rather than leak data under an unclassified rule.
func IsVisible(fieldGroup string, flags models.PrivacyFlags, role Role) (bool, error) {
	if !knownFieldGroups[fieldGroup] {
		return false, newPolicyViolation("unrecognized field group %q", fieldGroup)
	}

	switch role {
	case RoleOwner, RoleMedicalProfessional:
		return true, nil
	case RolePublic:
		return flags[fieldGroup], nil
	default:
		return false, newPolicyViolation("unrecognized viewer role %q", role)
	}
}
