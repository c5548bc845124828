package rbac

// Role is a user's authorization tier. Roles form a strict total order and
// coarse-grained checks compare hierarchy levels rather than exact values.
type Role string

const (
	RoleOwner         Role = "owner"
	RoleAdministrator Role = "administrator"
	RoleManager       Role = "manager"
	RoleStaff         Role = "staff"
	RoleUser          Role = "user"
	RoleCustomer      Role = "customer"
	RoleSubscriber    Role = "subscriber"
)

// roleLevels is fixed at compile time and never mutated.
var roleLevels = map[Role]int{
	RoleOwner:         7,
	RoleAdministrator: 6,
	RoleManager:       5,
	RoleStaff:         4,
	RoleUser:          3,
	RoleCustomer:      2,
	RoleSubscriber:    1,
}

// Level returns the hierarchy level of a role, or 0 for an unknown role.
func Level(role Role) int {
	return roleLevels[role]
}

// IsValid reports whether the role is one of the declared tiers.
func IsValid(role Role) bool {
	_, ok := roleLevels[role]
	return ok
}

// HasMinRole reports whether actual sits at or above minimum in the
// hierarchy. Unknown roles have level 0 and never satisfy a valid minimum.
func HasMinRole(actual, minimum Role) bool {
	return Level(actual) >= Level(minimum) && IsValid(minimum) && IsValid(actual)
}

// IsAdminOrAbove reports whether the role is administrator or owner.
func IsAdminOrAbove(role Role) bool {
	return HasMinRole(role, RoleAdministrator)
}

// IsOwner reports whether the role is the owner tier.
func IsOwner(role Role) bool {
	return role == RoleOwner
}

// RolesAtOrBelow returns every declared role whose level is <= the given
// role's level, highest first.
func RolesAtOrBelow(role Role) []Role {
	level := Level(role)
	var out []Role
	for _, r := range orderedRoles {
		if roleLevels[r] <= level {
			out = append(out, r)
		}
	}
	return out
}

// RolesAbove returns every declared role whose level is > the given role's
// level, highest first.
func RolesAbove(role Role) []Role {
	level := Level(role)
	var out []Role
	for _, r := range orderedRoles {
		if roleLevels[r] > level {
			out = append(out, r)
		}
	}
	return out
}

// orderedRoles lists all roles from highest to lowest level.
var orderedRoles = []Role{
	RoleOwner,
	RoleAdministrator,
	RoleManager,
	RoleStaff,
	RoleUser,
	RoleCustomer,
	RoleSubscriber,
}

// All returns the declared roles, highest level first.
func All() []Role {
	out := make([]Role, len(orderedRoles))
	copy(out, orderedRoles)
	return out
}
