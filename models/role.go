package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the closed set of caller roles. The zero value is not a role.
type Role uint8

const (
	RoleCustomer Role = iota + 1
	RoleRestaurantOwner
	RoleDriver
	RoleSupport
	RoleAdmin
)

// AllRoles lists every valid role in declaration order.
var AllRoles = []Role{RoleCustomer, RoleRestaurantOwner, RoleDriver, RoleSupport, RoleAdmin}

func (r Role) String() string {
	switch r {
	case RoleCustomer:
		return "customer"
	case RoleRestaurantOwner:
		return "restaurant_owner"
	case RoleDriver:
		return "driver"
	case RoleSupport:
		return "support"
	case RoleAdmin:
		return "admin"
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r >= RoleCustomer && r <= RoleAdmin
}

// ParseRole converts a role name into a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer":
		return RoleCustomer, nil
	case "restaurant_owner":
		return RoleRestaurantOwner, nil
	case "driver":
		return RoleDriver, nil
	case "support":
		return RoleSupport, nil
	case "admin":
		return RoleAdmin, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value stores the role by name so the column stays readable.
func (r Role) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot store invalid role %d", uint8(r))
	}
	return r.String(), nil
}

func (r *Role) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	case nil:
		*r = 0
		return nil
	}
	return fmt.Errorf("cannot scan %T into Role", src)
}

// RoleSet is an immutable set of roles.
type RoleSet uint8

// NewRoleSet builds a set from the given roles. Invalid roles are ignored.
func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		if r.Valid() {
			s |= 1 << r
		}
	}
	return s
}

func (s RoleSet) Has(r Role) bool {
	return r.Valid() && s&(1<<r) != 0
}

func (s RoleSet) Empty() bool {
	return s == 0
}

// Roles returns the members in declaration order.
func (s RoleSet) Roles() []Role {
	out := make([]Role, 0, len(AllRoles))
	for _, r := range AllRoles {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s RoleSet) String() string {
	roles := s.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return strings.Join(names, ", ")
}

func (s RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Roles())
}
