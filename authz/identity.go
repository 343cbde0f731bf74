package authz

import "food-delivery-api/models"

// Identity is the verified caller supplied by the authentication layer.
type Identity struct {
	UserID string
	Email  string
	Role   models.Role
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == models.RoleAdmin
}
