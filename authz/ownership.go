package authz

import (
	"context"

	"food-delivery-api/apperrors"
)

// OwnerLookup resolves the owning user of one resource type. An empty owner
// means the resource currently has none (for example an unassigned driver).
type OwnerLookup interface {
	OwnerOf(ctx context.Context, resourceID string) (string, error)
}

// OwnerLookupFunc adapts a function to OwnerLookup.
type OwnerLookupFunc func(ctx context.Context, resourceID string) (string, error)

func (f OwnerLookupFunc) OwnerOf(ctx context.Context, resourceID string) (string, error) {
	return f(ctx, resourceID)
}

// ValidateOwnership allows admins unconditionally and everyone else only when
// they own the resource. Lookup errors (e.g. not found) are returned as is.
func ValidateOwnership(ctx context.Context, resourceID string, id Identity, lookup OwnerLookup) error {
	if id.IsAdmin() {
		return nil
	}
	owner, err := lookup.OwnerOf(ctx, resourceID)
	if err != nil {
		return err
	}
	if owner == "" || id.UserID == "" || owner != id.UserID {
		return apperrors.NotResourceOwner(resourceID).With("caller_id", id.UserID)
	}
	return nil
}
