// Package roles implements the role hierarchy guard gating every lifecycle
// transition. It is pure: no storage, no context, only predicates over the
// ordered role set.
package roles

// Role is a tier in the campus permission hierarchy.
type Role string

// Role tiers, ordered by rank.
const (
	RoleStudent    Role = "STUDENT"
	RoleStaff      Role = "STAFF"
	RoleSupervisor Role = "SUPERVISOR"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
)

var ranks = map[Role]int{
	RoleStudent:    0,
	RoleStaff:      1,
	RoleSupervisor: 2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// Valid reports whether r names a known tier.
func (r Role) Valid() bool {
	_, ok := ranks[r]
	return ok
}

// Rank returns the numeric position of the role, -1 for unknown roles.
func (r Role) Rank() int {
	rank, ok := ranks[r]
	if !ok {
		return -1
	}
	return rank
}

// StaffTiers lists every role that can hold assignments, lowest rank first.
func StaffTiers() []Role {
	return []Role{RoleStaff, RoleSupervisor, RoleAdmin, RoleSuperAdmin}
}

// StaffTierNames returns StaffTiers as strings, for query parameters.
func StaffTierNames() []string {
	tiers := StaffTiers()
	names := make([]string, len(tiers))
	for i, tier := range tiers {
		names[i] = string(tier)
	}
	return names
}

// AtLeast reports whether r ranks at or above other.
func (r Role) AtLeast(other Role) bool {
	return r.Valid() && other.Valid() && r.Rank() >= other.Rank()
}

// Below reports whether r ranks strictly below other.
func (r Role) Below(other Role) bool {
	return r.Valid() && other.Valid() && r.Rank() < other.Rank()
}
