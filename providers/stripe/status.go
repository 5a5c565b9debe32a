package stripe

import (
	"strings"

	"github.com/mwesox/menuvo-payments/core"
)

// MapRequirementsSeverity maps the account requirements bucket reported by
// the provider to the internal severity scale. An unrecognized value maps to
// RequirementsCurrentlyDue, never to RequirementsNone: a bucket this code
// does not know about must not be read as all clear.
func MapRequirementsSeverity(provider string) core.RequirementsSeverity {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "none", "undefined":
		return core.RequirementsNone
	case "eventually_due":
		// Nothing is due yet; the account stays operational.
		return core.RequirementsNone
	case "currently_due":
		return core.RequirementsCurrentlyDue
	case "past_due":
		return core.RequirementsPastDue
	default:
		return core.RequirementsCurrentlyDue
	}
}

// MapCapabilityStatus maps a provider capability state to the internal one.
// Unrecognized values map to CapabilityPending, never to CapabilityActive.
func MapCapabilityStatus(provider string) core.CapabilityStatus {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "active":
		return core.CapabilityActive
	case "pending":
		return core.CapabilityPending
	case "restricted", "unsupported", "inactive", "":
		return core.CapabilityInactive
	default:
		return core.CapabilityPending
	}
}
