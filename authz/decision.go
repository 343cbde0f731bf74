package authz

import (
	"fmt"

	"food-delivery-api/apperrors"
	"food-delivery-api/models"
)

// Outcome is the result class of an authorization decision.
type Outcome uint8

const (
	Allow Outcome = iota + 1
	DenyNoRule
	DenyUnauthenticated
	DenyForbidden
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case DenyNoRule:
		return "deny_no_rule"
	case DenyUnauthenticated:
		return "deny_unauthenticated"
	case DenyForbidden:
		return "deny_forbidden"
	}
	return fmt.Sprintf("Outcome(%d)", uint8(o))
}

// Decision is the evaluator's verdict for one request.
type Decision struct {
	Outcome Outcome
	// RequiredRoles is the matched rule's role set. For DenyForbidden it is
	// exactly the set the caller was missing from.
	RequiredRoles models.RoleSet
	// Pattern is the matched rule pattern, empty for DenyNoRule.
	Pattern string
	Public  bool
}

func (d Decision) Allowed() bool {
	return d.Outcome == Allow
}

// Err converts a denial into the matching taxonomy error. It returns nil for Allow.
func (d Decision) Err(method, path string) *apperrors.Error {
	switch d.Outcome {
	case Allow:
		return nil
	case DenyUnauthenticated:
		return apperrors.AuthenticationRequired()
	case DenyForbidden:
		return apperrors.InsufficientRole(d.RequiredRoles)
	default:
		return apperrors.NoRuleDefined(method, path)
	}
}
