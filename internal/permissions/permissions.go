// Package permissions decides whether a caller may perform an operation.
//
// A caller carries a Set of permission keys; operations declare a Rule.
// Evaluation is pure, the package holds no state.
package permissions

import "golang.org/x/exp/slices"

// Role is the coarse role a user account is created with. Fine-grained
// access is always decided on the permission Set, the role only determines
// the default Set for accounts that have no explicit permissions stored.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleMod   Role = "MOD"
	RolePM    Role = "PM"
)

// Wildcard grants every permission.
const Wildcard = "ALL"

const (
	UsersRead      = "USERS_READ"
	ProjectsRead   = "PROJECTS_READ"
	ProjectsManage = "PROJECTS_MANAGE"
	AttendanceMark = "ATTENDANCE_MARK"
	AttendanceRead = "ATTENDANCE_READ"
	WarehouseRead  = "WAREHOUSE_READ"
	BudgetAdjust   = "BUDGET_ADJUST"
	ExpenseCreate  = "EXPENSE_CREATE"
)

// Set is the collection of permission keys granted to a caller.
type Set []string

// Contains reports whether the set holds the given permission key.
func (s Set) Contains(permission string) bool {
	return slices.Contains(s, permission)
}

// Rule describes the permissions an operation requires. AllOf requires
// every listed key, AnyOf requires at least one. Both can be combined.
type Rule struct {
	AnyOf []string
	AllOf []string
}

// Allow reports whether the set satisfies the rule.
//
// An empty rule always allows, it is used for endpoints that are otherwise
// unrestricted. The Wildcard key satisfies every rule.
func (s Set) Allow(rule Rule) bool {
	if len(rule.AnyOf) == 0 && len(rule.AllOf) == 0 {
		return true
	}

	if s.Contains(Wildcard) {
		return true
	}

	for _, permission := range rule.AllOf {
		if !s.Contains(permission) {
			return false
		}
	}

	if len(rule.AnyOf) > 0 && !slices.ContainsFunc(rule.AnyOf, s.Contains) {
		return false
	}

	return true
}

// Defaults returns the default permission set for a role.
func Defaults(role Role) Set {
	switch role {
	case RoleAdmin:
		return Set{Wildcard}
	case RoleMod:
		return Set{UsersRead, ProjectsRead, WarehouseRead, AttendanceRead, BudgetAdjust}
	case RolePM:
		return Set{ProjectsRead, ProjectsManage, AttendanceMark, ExpenseCreate}
	}

	return Set{}
}
